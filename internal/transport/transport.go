// Package transport builds the HTTPS client used for uploads.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
)

// Options configures the client returned by New.
type Options struct {
	// ServerName is sent as the TLS SNI value and used to verify the
	// server certificate, independent of the host being dialled. Empty
	// keeps the default of using the request host.
	ServerName string

	// RootCAs overrides the system trust store.
	RootCAs *x509.CertPool
}

// New returns an *http.Client whose TLS handshakes present opts.ServerName.
func New(opts Options) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = &tls.Config{
		ServerName: opts.ServerName,
		RootCAs:    opts.RootCAs,
		MinVersion: tls.VersionTLS12,
	}
	// a custom TLSClientConfig disables HTTP/2 unless forced
	t.ForceAttemptHTTP2 = true

	return &http.Client{Transport: t}
}
