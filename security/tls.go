package security

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// TLSConfig holds TLS client settings.
type TLSConfig struct {
	// SkipVerify disables server certificate verification.
	// Ignored when PinnedCertFiles is set.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile is the path to an additional CA certificate file for verifying the server.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// PinnedCertFiles restricts trust to exactly these certificates.
	// Each file holds PEM certificates or a single DER certificate.
	PinnedCertFiles []string `yaml:"pinned_cert_files" mapstructure:"pinned_cert_files"`

	// CertFile is the path to the client TLS certificate file (for mTLS).
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`

	// KeyFile is the path to the client TLS key file (for mTLS).
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`

	// ServerName overrides the server name used for certificate verification.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// MinVersion is the minimum TLS version (e.g., tls.VersionTLS12).
	// Defaults to TLS 1.2 if not set.
	MinVersion uint16 `yaml:"min_version" mapstructure:"min_version"`
}

// Build creates a *tls.Config from the configuration.
// Returns nil if no TLS settings are configured (all fields are zero values).
func (c *TLSConfig) Build() (*tls.Config, error) {
	if c == nil || !c.hasSettings() {
		return nil, nil
	}

	minVersion := c.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}

	cfg := &tls.Config{
		InsecureSkipVerify: c.SkipVerify && len(c.PinnedCertFiles) == 0,
		ServerName:         c.ServerName,
		MinVersion:         minVersion,
	}

	if err := c.loadRoots(cfg); err != nil {
		return nil, err
	}

	if err := c.loadClientCert(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the TLS configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("security/tls: both cert_file and key_file must be provided together")
	}
	for _, f := range c.PinnedCertFiles {
		if f == "" {
			return fmt.Errorf("security/tls: pinned_cert_files must not contain empty paths")
		}
	}
	return nil
}

// IsEnabled returns true if any TLS setting is configured.
func (c *TLSConfig) IsEnabled() bool {
	if c == nil {
		return false
	}
	return c.hasSettings()
}

// IsPinned returns true if trust is restricted to pinned certificates.
func (c *TLSConfig) IsPinned() bool {
	return c != nil && len(c.PinnedCertFiles) > 0
}

// WithPins returns a copy of the configuration pinned to files.
func (c *TLSConfig) WithPins(files []string) *TLSConfig {
	var out TLSConfig
	if c != nil {
		out = *c
	}
	out.PinnedCertFiles = append([]string(nil), files...)
	return &out
}

func (c *TLSConfig) hasSettings() bool {
	return c.SkipVerify || c.CAFile != "" || c.CertFile != "" || c.ServerName != "" ||
		len(c.PinnedCertFiles) > 0 || c.MinVersion != 0
}

// loadRoots installs the root pool. Pinned certificates replace the system
// roots; a CA file alone is also used as the only root.
func (c *TLSConfig) loadRoots(cfg *tls.Config) error {
	if c.CAFile == "" && len(c.PinnedCertFiles) == 0 {
		return nil
	}
	pool := x509.NewCertPool()
	files := append([]string(nil), c.PinnedCertFiles...)
	if c.CAFile != "" {
		files = append(files, c.CAFile)
	}
	for _, f := range files {
		certs, err := LoadCertificates(f)
		if err != nil {
			return err
		}
		for _, cert := range certs {
			pool.AddCert(cert)
		}
	}
	cfg.RootCAs = pool
	return nil
}

// loadClientCert loads the client certificate and key into the TLS config.
func (c *TLSConfig) loadClientCert(cfg *tls.Config) error {
	if c.CertFile == "" || c.KeyFile == "" {
		return nil
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return fmt.Errorf("security/tls: failed to load client certificate: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}
	return nil
}

// LoadCertificates reads the certificates stored in path. PEM files may hold
// several CERTIFICATE blocks; anything else is parsed as one DER certificate.
func LoadCertificates(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("security/tls: failed to read certificate %s: %w", path, err)
	}
	certs, err := ParseCertificates(data)
	if err != nil {
		return nil, fmt.Errorf("security/tls: %s: %w", path, err)
	}
	return certs, nil
}

// ParseCertificates decodes PEM or DER certificate data.
func ParseCertificates(data []byte) ([]*x509.Certificate, error) {
	if !bytes.Contains(data, []byte("-----BEGIN")) {
		cert, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DER certificate: %w", err)
		}
		return []*x509.Certificate{cert}, nil
	}

	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PEM certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("no certificates found")
	}
	return certs, nil
}
