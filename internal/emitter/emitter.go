// Package emitter reports frontend events to the ingestion endpoint.
//
// Every send runs on its own goroutine and never blocks or fails the caller.
// Short-lived programs call Flush before exiting.
package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rosterwatch/rosterwatch/internal/frontend"
)

// IngestPath is where events are posted, relative to the base URL.
const IngestPath = "/api/frontend-metrics"

// Values reported for failed outbound calls.
const (
	StatusNetworkError    = "network_error"
	ErrorTypeNetworkError = "NetworkError"
	DirectReferrer        = "direct"
	UnknownErrorType      = "UnknownError"
)

// Classifier names the error_type reported for a failed action.
type Classifier func(err error) string

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used both for event sends and for Do.
// Its redirect policy applies to both.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
			c.api = hc
		}
	}
}

// WithErrorClassifier sets how TrackAction names failures. The default uses
// a Kind() string method found in the error chain.
func WithErrorClassifier(fn Classifier) Option {
	return func(c *Client) {
		if fn != nil {
			c.classify = fn
		}
	}
}

// WithLogger sets the logger for swallowed send failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds each event send (default DefaultSendTimeout).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client emits frontend events.
type Client struct {
	endpoint string
	http     *http.Client // event sends
	api      *http.Client // Do
	logger   *slog.Logger
	timeout  time.Duration
	classify Classifier

	mu       sync.Mutex
	inflight int
	idle     chan struct{} // closed while inflight is zero
}

// New creates a Client posting to baseURL + IngestPath.
func New(baseURL string, opts ...Option) *Client {
	events := NewHTTPClient()
	idle := make(chan struct{})
	close(idle)

	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + IngestPath,
		http:     events,
		api:      newAPIClient(events),
		logger:   slog.Default(),
		timeout:  DefaultSendTimeout,
		classify: kindOf,
		idle:     idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TrackPageView reports a page view. An empty referrer is reported as direct.
func (c *Client) TrackPageView(page, referrer string) {
	if referrer == "" {
		referrer = DirectReferrer
	}
	c.send(frontend.Payload{Type: frontend.TypePageView, Page: page, Referrer: referrer})
}

// TrackAPICall reports an API call made by the client.
func (c *Client) TrackAPICall(endpoint, method, status string) {
	c.send(frontend.Payload{Type: frontend.TypeAPICall, Endpoint: endpoint, Method: method, Status: status})
}

// TrackError reports a client-side failure.
func (c *Client) TrackError(action, errType string) {
	c.send(frontend.Payload{Type: frontend.TypeError, Action: action, ErrorType: errType})
}

func (c *Client) trackAction(action, status string, elapsed time.Duration) {
	ms := float64(elapsed) / float64(time.Millisecond)
	c.send(frontend.Payload{Type: frontend.TypeAction, Action: action, Status: status, Duration: &ms})
}

// TrackAction runs fn and reports it as a timed action. A failure is also
// reported as an error event named by the client's Classifier. fn's result
// and error are returned unchanged. A panic in fn is reported as a failed
// action and keeps propagating.
func TrackAction[T any](c *Client, action string, fn func() (T, error)) (result T, err error) {
	start := time.Now()
	returned := false
	defer func() {
		status := frontend.StatusSuccess
		if err != nil || !returned {
			status = frontend.StatusError
		}
		c.trackAction(action, status, time.Since(start))
	}()

	result, err = fn()
	returned = true
	if err != nil {
		c.TrackError(action, c.classify(err))
	}
	return result, err
}

type kinder interface {
	Kind() string
}

func kindOf(err error) string {
	var k kinder
	if errors.As(err, &k) && k.Kind() != "" {
		return k.Kind()
	}
	return UnknownErrorType
}

// Do sends req and reports it as an api_call
// and a timed action named "<METHOD> <path>". Transport failures are also
// reported as a NetworkError and returned unchanged.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	endpoint := req.URL.Path
	action := req.Method + " " + endpoint

	start := time.Now()
	resp, err := c.api.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		c.TrackAPICall(endpoint, req.Method, StatusNetworkError)
		c.TrackError(action, ErrorTypeNetworkError)
		return nil, err
	}

	c.TrackAPICall(endpoint, req.Method, strconv.Itoa(resp.StatusCode))

	status := frontend.StatusSuccess
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status = frontend.StatusError
	}
	c.trackAction(action, status, elapsed)

	return resp, nil
}

// Flush waits until no sends are in flight or ctx ends, whichever comes
// first. It is safe to call while other goroutines are still tracking.
// Send failures are never reported here.
func (c *Client) Flush(ctx context.Context) {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		c.logger.Warn("emitter flush interrupted", "error", ctx.Err())
	}
}

func (c *Client) begin() {
	c.mu.Lock()
	if c.inflight == 0 {
		c.idle = make(chan struct{})
	}
	c.inflight++
	c.mu.Unlock()
}

func (c *Client) end() {
	c.mu.Lock()
	c.inflight--
	if c.inflight == 0 {
		close(c.idle)
	}
	c.mu.Unlock()
}

func (c *Client) send(p frontend.Payload) {
	body, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("failed to encode frontend event", "type", p.Type, "error", err)
		return
	}

	c.begin()
	go func() {
		defer c.end()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.post(ctx, body); err != nil {
			c.logger.Debug("failed to send frontend event", "type", p.Type, "error", err)
		}
	}()
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ingestion returned status %d", resp.StatusCode)
	}
	return nil
}
