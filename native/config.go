package native

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/pinch/errors"
	"github.com/kbukum/pinch/security"
	"github.com/kbukum/pinch/validation"
	"github.com/kbukum/pinch/version"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxTimeout = 5 * time.Minute
)

// certExtensions are tried, in order, when a pinned name has no file of its own.
var certExtensions = []string{".cer", ".pem", ".crt"}

// Config configures the HTTP backend.
type Config struct {
	// CertDir is where pinned certificate names are looked up.
	// A name resolves to <CertDir>/<name>.cer, .pem or .crt, or to the
	// name itself when that path exists.
	CertDir string `yaml:"cert_dir" mapstructure:"cert_dir"`

	// Timeout applies to requests without a TimeoutInterval. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// MaxTimeout caps TimeoutInterval. Defaults to 5m.
	MaxTimeout time.Duration `yaml:"max_timeout" mapstructure:"max_timeout"`

	// UserAgent is sent when a request sets none. Defaults to pinch/<version>.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// TLS is the base TLS configuration. Pins from a request are layered on
	// top of it.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxTimeout <= 0 {
		c.MaxTimeout = defaultMaxTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	v := validation.New()
	v.Custom(c.Timeout > 0, "timeout", "must be positive")
	v.Custom(c.MaxTimeout >= c.Timeout, "max_timeout", "must not be less than timeout")
	if c.CertDir != "" {
		info, err := os.Stat(c.CertDir)
		v.Custom(err == nil && info.IsDir(), "cert_dir", "must be an existing directory")
	}
	if err := c.TLS.Validate(); err != nil {
		v.AddError("tls", err.Error())
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// resolveCert maps a pinned certificate name to a file path.
func (c *Config) resolveCert(name string) (string, error) {
	candidates := []string{name}
	if c.CertDir != "" && !filepath.IsAbs(name) {
		base := filepath.Join(c.CertDir, name)
		candidates = append(candidates, base)
		if filepath.Ext(name) == "" {
			for _, ext := range certExtensions {
				candidates = append(candidates, base+ext)
			}
		}
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.InvalidInput("sslPinning",
		fmt.Sprintf("certificate %q not found (looked in %s)", name, strings.Join(candidates, ", ")))
}

// resolvePins resolves every name, failing on the first missing one.
func (c *Config) resolvePins(names []string) ([]string, error) {
	files := make([]string, 0, len(names))
	for _, name := range names {
		path, err := c.resolveCert(name)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}
