package native

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/pinch/validation"
)

// Options are the per-request settings understood by the native backend.
type Options struct {
	// Method is the HTTP method. Empty means GET.
	Method string `json:"method,omitempty"`
	// Headers are sent with the request, overriding configured defaults.
	Headers map[string]string `json:"headers,omitempty"`
	// Body is sent verbatim when non-empty.
	Body string `json:"body,omitempty"`
	// SSLPinning restricts trust to the named certificates.
	SSLPinning *Pinning `json:"sslPinning,omitempty"`
	// TimeoutInterval is the request timeout in milliseconds. Zero uses
	// the configured default.
	TimeoutInterval int `json:"timeoutInterval,omitempty"`
}

// Pinning names the certificates a request trusts. Names resolve against
// Config.CertDir; see Config for the lookup rules.
type Pinning struct {
	Cert  string   `json:"cert,omitempty"`
	Certs []string `json:"certs,omitempty"`
}

// Names returns the certificate names to trust. Cert wins over Certs
// when both are set.
func (p *Pinning) Names() []string {
	if p == nil {
		return nil
	}
	if p.Cert != "" {
		return []string{p.Cert}
	}
	return p.Certs
}

// method returns the upper-cased method, defaulting to GET.
func (o Options) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(o.Method)
}

// timeout returns the per-request timeout, or fallback when unset.
func (o Options) timeout(fallback time.Duration) time.Duration {
	if o.TimeoutInterval > 0 {
		return time.Duration(o.TimeoutInterval) * time.Millisecond
	}
	return fallback
}

type fetchRequest struct {
	URL             string   `json:"url" validate:"required,http_url"`
	Method          string   `json:"method" validate:"oneof=GET HEAD POST PUT PATCH DELETE OPTIONS TRACE"`
	TimeoutInterval int      `json:"timeoutInterval" validate:"gte=0"`
	Certs           []string `json:"sslPinning" validate:"omitempty,dive,required"`
}

// validate checks url and o before anything touches the network.
func (o Options) validate(url string) error {
	var certs []string
	if o.SSLPinning != nil {
		certs = o.SSLPinning.Names()
		if len(certs) == 0 {
			certs = []string{""}
		}
	}
	return validation.Validate(fetchRequest{
		URL:             url,
		Method:          o.method(),
		TimeoutInterval: o.TimeoutInterval,
		Certs:           certs,
	})
}
