package fetch

import (
	"encoding/json"

	"github.com/kbukum/pinch/errors"
	"github.com/kbukum/pinch/native"
	"github.com/kbukum/pinch/promise"
)

// Response is a native response together with the URL it was fetched
// from. It is never modified after construction.
type Response struct {
	*native.RawResponse

	// URL is the URL passed to Fetch, verbatim.
	URL string
}

// newResponse builds the Response for a successful fetch of url.
// A nil raw response is treated as an empty one.
func newResponse(url string, raw *native.RawResponse) *Response {
	if raw == nil {
		raw = &native.RawResponse{}
	}
	return &Response{RawResponse: raw, URL: url}
}

// Text resolves to the body exactly as received. It never rejects.
func (r *Response) Text() *promise.Promise[string] {
	return promise.Resolved(r.BodyString)
}

// JSON parses the body on every call and resolves to the decoded value,
// using the encoding/json mapping for any (objects become map[string]any,
// numbers float64). It rejects with an INVALID_FORMAT error wrapping the
// parser error when the body is not valid JSON.
func (r *Response) JSON() *promise.Promise[any] {
	return DecodeJSON[any](r)
}

// DecodeJSON parses the body of r into a new T.
func DecodeJSON[T any](r *Response) *promise.Promise[T] {
	body := r.BodyString
	return promise.Try(func() (T, error) {
		var v T
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			var zero T
			return zero, errors.InvalidFormat("bodyString", "JSON").WithCause(err)
		}
		return v, nil
	})
}
