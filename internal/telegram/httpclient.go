package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/mrcodeacademy/enrollbot/internal/telegram/netutil"
)

const (
	dialTimeout      = 5 * time.Second
	tlsHandshakeMax  = 5 * time.Second
	idleConnTimeout  = 90 * time.Second
	longPollHeadroom = 5 * time.Second

	// The outbound dispatcher already retries failed sends with its own
	// backoff, so the transport only papers over dial-time blips.
	transportRetries   = 2
	transportRetryBase = 500 * time.Millisecond
)

// BuildHTTPClient returns an HTTP client for Telegram API calls. getUpdates
// holds the connection open for the whole long-poll window, so the response
// header timeout must exceed it or polling breaks.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	if longPoll <= 0 {
		longPoll = 10 * time.Second
	}
	headerTimeout := longPoll + longPollHeadroom

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeMax,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{
		Timeout: headerTimeout + 15*time.Second,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: transportRetries,
			backoff:    transportRetryBase,
		},
	}
}

// retryTransport retries transient network failures. A request whose body
// was already consumed and cannot be rebuilt is never replayed.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		currReq, ok := t.replayable(req, attempt)
		if !ok {
			return nil, lastErr
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt >= t.maxRetries || !netutil.ShouldRetry(err) {
			return nil, lastErr
		}

		delay := t.backoff << attempt
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}

func (t *retryTransport) replayable(req *http.Request, attempt int) (*http.Request, bool) {
	if attempt == 0 {
		return req, true
	}
	if req.Body == nil {
		return req.Clone(req.Context()), true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	currReq := req.Clone(req.Context())
	currReq.Body = body
	return currReq, true
}
