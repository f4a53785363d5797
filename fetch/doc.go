// Package fetch adapts a callback-based native.Fetcher into a call that
// returns a promise and optionally reports through an error-first callback.
//
// The promise is the single source of truth; the callback is subscribed to
// it, so both always observe the same outcome:
//
//	p := fetch.Fetch("https://api.example.com/user", native.Options{
//	    SSLPinning: &native.Pinning{Cert: "api"},
//	}, nil)
//	res, err := p.Await(ctx)
//	if err != nil {
//	    // the native error, unchanged
//	}
//	user, err := res.JSON().Await(ctx)
//
// Errors from the native layer are passed through verbatim. Only
// Response.JSON produces an error of its own, when the body is not JSON.
package fetch
