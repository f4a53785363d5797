// Package httpclient is the transport underneath the native fetch backend.
//
// An Adapter owns one *http.Client built from a Config: its TLS trust
// (including pinned certificates), default headers and timeout. Responses
// are returned whatever their status code; only failures to obtain a
// response become errors, classified as timeout, connection, tls or
// validation.
//
//	a, err := httpclient.New(httpclient.Config{
//	    Timeout: 30 * time.Second,
//	    TLS:     &security.TLSConfig{PinnedCertFiles: []string{"certs/api.cer"}},
//	}, httpclient.WithCookieJar(jar))
//
//	resp, err := a.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    URL:    "https://api.example.com/users/123",
//	})
package httpclient
