package middleware_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"math/big"
	"net"
	"net/http"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/searchgate/searchgate/internal/api_server/middleware"
	"github.com/searchgate/searchgate/internal/config"
	"github.com/searchgate/searchgate/internal/util"
)

func TestServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Server Suite")
}

// selfSignedCert returns a server certificate for 127.0.0.1 and a pool
// that trusts it.
func selfSignedCert() (*tls.Certificate, *x509.CertPool) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	Expect(err).ToNot(HaveOccurred())

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "searchgate-test"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	Expect(err).ToNot(HaveOccurred())
	leaf, err := x509.ParseCertificate(der)
	Expect(err).ToNot(HaveOccurred())

	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return &tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool
}

var _ = Describe("Low level server behavior", func() {
	var (
		listener net.Listener
		client   *http.Client
		srv      *http.Server
	)

	BeforeEach(func() {
		var err error
		cert, pool := selfSignedCert()

		cfg := config.NewDefault()
		cfg.HTTP.ReadHeaderTimeout = util.Duration(5 * time.Second)

		listener, err = middleware.NewTLSListener("127.0.0.1:0", middleware.TLSConfigForServer(cert))
		Expect(err).ToNot(HaveOccurred())

		handler := middleware.RequestID(middleware.RequestSizeLimiter(64, 16)(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tls.VersionName(r.TLS.Version)))
			})))
		srv = middleware.NewHTTPServer(handler, listener.Addr().String(), cfg)
		Expect(srv.ReadHeaderTimeout).To(Equal(5 * time.Second))
		Expect(srv.MaxHeaderBytes).To(Equal(cfg.HTTP.MaxHeaderBytes))

		go func() {
			defer GinkgoRecover()
			if err := srv.Serve(listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
				Expect(err).ToNot(HaveOccurred())
			}
		}()

		client = &http.Client{
			Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}},
			Timeout:   10 * time.Second,
		}
	})

	AfterEach(func() {
		_ = srv.Close()
	})

	It("serves requests over TLS", func() {
		resp, err := client.Get("https://" + listener.Addr().String() + "/")
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("X-Request-Id")).ToNot(BeEmpty())
		body, err := io.ReadAll(resp.Body)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(body)).To(HavePrefix("TLS 1."))
	})

	It("rejects URLs over the configured length", func() {
		resp, err := client.Get("https://" + listener.Addr().String() + "/_search?q=" + "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusRequestURITooLong))
		Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
	})

	It("refuses plain HTTP clients", func() {
		resp, err := http.Get("http://" + listener.Addr().String() + "/")
		if err == nil {
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		}
	})
})
