// Package native is the platform fetch primitive the fetch adapter wraps.
//
// A Fetcher takes a URL, Options and an error-first Callback and calls
// the callback exactly once, on its own goroutine. HTTP is the default
// implementation: it restricts TLS trust to the certificates named in
// Options.SSLPinning, keeps a shared cookie jar, and reports every HTTP
// status (including 4xx and 5xx) as a response rather than an error.
//
//	h, err := native.NewHTTP(native.Config{CertDir: "certs"})
//	h.Fetch("https://api.example.com", native.Options{
//	    SSLPinning: &native.Pinning{Cert: "api"},
//	}, func(err error, res *native.RawResponse) {
//	    ...
//	})
//
// Failures are *errors.AppError values with one of the codes
// INVALID_INPUT, UNTRUSTED_CERTIFICATE, TIMEOUT or CONNECTION_FAILED.
package native
