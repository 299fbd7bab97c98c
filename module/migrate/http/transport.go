package http

import (
	"crypto/tls"
	"net/http"
)

// TransportOption customizes the transport built by GetHTTPTransport.
type TransportOption func(*http.Transport)

// WithInsecure skips TLS certificate verification when insecure is true.
func WithInsecure(insecure bool) TransportOption {
	return func(t *http.Transport) {
		if !insecure {
			return
		}
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{}
		}
		t.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // opt-in via --insecure
	}
}

// GetHTTPTransport returns a clone of the default transport with the options applied.
func GetHTTPTransport(opts ...TransportOption) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	for _, opt := range opts {
		opt(t)
	}
	return t
}
