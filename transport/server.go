package transport

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/st-keller/inspection/errors"
)

// NewServer serves h on addr. Without TLS the handler speaks cleartext
// HTTP/2 (h2c) next to HTTP/1.1.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(h, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewTLSServer serves h on addr with mTLS 1.3.
func NewTLSServer(addr string, h http.Handler, tlsConfig *tls.Config) (*http.Server, error) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := http2.ConfigureServer(srv, &http2.Server{}); err != nil {
		return nil, errors.Wrap(err, errors.ErrTransport, "configuring HTTP/2")
	}
	return srv, nil
}

// ServerTLSConfig loads a server certificate and requires client
// certificates signed by the CA at caPath. TLS 1.3 only.
func ServerTLSConfig(certPath, keyPath, caPath string) (*tls.Config, error) {
	cert, pool, err := loadKeyPairAndPool(certPath, keyPath, caPath)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
		MaxVersion:   tls.VersionTLS13,
		NextProtos:   []string{http2.NextProtoTLS},
	}, nil
}

// ClientTLSConfig loads a client certificate and trusts the CA at caPath.
func ClientTLSConfig(certPath, keyPath, caPath string) (*tls.Config, error) {
	cert, pool, err := loadKeyPairAndPool(certPath, keyPath, caPath)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS13,
		MaxVersion:   tls.VersionTLS13,
	}, nil
}

func loadKeyPairAndPool(certPath, keyPath, caPath string) (tls.Certificate, *x509.CertPool, error) {
	if certPath == "" || keyPath == "" || caPath == "" {
		return tls.Certificate{}, nil, errors.New(errors.ErrInvalidInput, "certificate, key and CA paths required")
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, nil, errors.Wrap(err, errors.ErrTransport, "loading key pair")
	}

	caPEM, err := os.ReadFile(caPath)
	if err != nil {
		return tls.Certificate{}, nil, errors.Wrap(err, errors.ErrTransport, "reading CA certificate")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return tls.Certificate{}, nil, errors.New(errors.ErrTransport, "no CA certificate found in PEM")
	}
	return cert, pool, nil
}
