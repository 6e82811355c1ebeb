package middleware

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/searchgate/searchgate/internal/config"
)

// NewHTTPServer builds the http.Server for router with the limits and
// timeouts of cfg.HTTP.
func NewHTTPServer(router http.Handler, address string, cfg *config.Config) *http.Server {
	srv := &http.Server{
		Addr:    address,
		Handler: router,
	}
	if h := cfg.HTTP; h != nil {
		srv.ReadTimeout = time.Duration(h.ReadTimeout)
		srv.ReadHeaderTimeout = time.Duration(h.ReadHeaderTimeout)
		srv.WriteTimeout = time.Duration(h.WriteTimeout)
		srv.IdleTimeout = time.Duration(h.IdleTimeout)
		srv.MaxHeaderBytes = h.MaxHeaderBytes
	}
	return srv
}

// NewTLSListener returns a new TLS listener. If the address is empty, it will
// listen on localhost's next available port.
func NewTLSListener(address string, tlsConfig *tls.Config) (net.Listener, error) {
	ln, err := NewListener(address)
	if err != nil {
		return nil, err
	}
	return tls.NewListener(ln, tlsConfig), nil
}

// NewListener returns a plain TCP listener, on localhost's next available
// port when address is empty.
func NewListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}

// TLSConfigForServer returns the server side TLS settings for cert.
func TLSConfigForServer(cert *tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"h2", "http/1.1"},
	}
}
