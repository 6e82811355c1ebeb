package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	ErrServerCertsNotFound = errors.New("server certificate and key files are missing or unreadable")
	ErrInvalidServerCerts  = errors.New("failed to parse or load server certificate and key")
)

// TLSEnabled reports whether the service should serve HTTPS.
func (cfg *Config) TLSEnabled() bool {
	return cfg.Service != nil && cfg.Service.SrvCertFile != "" && cfg.Service.SrvKeyFile != ""
}

// LoadServerCertificates loads the configured server key pair.
func LoadServerCertificates(cfg *Config, log logrus.FieldLogger) (*tls.Certificate, error) {
	certFile, keyFile := cfg.Service.SrvCertFile, cfg.Service.SrvKeyFile
	for _, f := range []string{certFile, keyFile} {
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrServerCertsNotFound, f, err)
		}
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerCerts, err)
	}
	log.Infof("Loaded server certificate %s", certFile)
	return &cert, nil
}
