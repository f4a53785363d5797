package httpclient

import "net/http"

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method. Empty means GET.
	Method string
	// URL is the absolute request URL.
	URL string
	// Headers are request-specific headers (merged over client defaults).
	Headers map[string]string
	// Body is sent verbatim when non-empty.
	Body string
}

// Response is the result of an HTTP request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Status is the reason phrase, e.g. "Not Found".
	Status string
	// Headers are the response headers, one value per key.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// flattenHeaders converts multi-value headers to single-value, joining
// repeated values with ", " as RFC 9110 allows.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		switch len(v) {
		case 0:
		case 1:
			result[k] = v[0]
		default:
			joined := v[0]
			for _, s := range v[1:] {
				joined += ", " + s
			}
			result[k] = joined
		}
	}
	return result
}
