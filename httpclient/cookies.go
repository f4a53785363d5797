package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// NewCookieJar creates a cookie jar that respects public suffix boundaries,
// so a response from a.example.com cannot set cookies for all of .com.
func NewCookieJar() http.CookieJar {
	// cookiejar.New only fails on a nil options value, which never happens here.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// CookieValues returns the name/value pairs jar would send to rawURL.
func CookieValues(jar http.CookieJar, rawURL string) (map[string]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, NewValidationError("parse url: " + err.Error())
	}
	cookies := jar.Cookies(u)
	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c.Value
	}
	return out, nil
}
