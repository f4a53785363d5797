// Package security builds TLS client configurations for pinch transports.
//
// Besides the usual CA, client certificate and server name settings, a
// TLSConfig can pin the set of trusted certificates: when PinnedCertFiles is
// set, only those certificates (PEM bundles or single DER files) are used as
// trust anchors and the system roots are ignored.
//
//	cfg := security.TLSConfig{
//	    PinnedCertFiles: []string{"certs/api.cer"},
//	}
//
//	tlsConfig, err := cfg.Build()
package security
