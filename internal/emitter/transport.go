package emitter

import (
	"net"
	"net/http"
	"time"
)

const (
	// DefaultSendTimeout bounds a single event send.
	DefaultSendTimeout = 5 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 2 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 3 * time.Second
)

// NewHTTPClient creates the HTTP client used for event delivery.
// Redirects are not followed.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   32,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// newAPIClient shares the event transport but follows redirects like a
// browser fetch does.
func newAPIClient(events *http.Client) *http.Client {
	return &http.Client{Transport: events.Transport}
}
