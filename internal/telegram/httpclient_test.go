package telegram

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTransport struct {
	errs   []error
	calls  int
	bodies []string
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	call := s.calls
	s.calls++
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(data))
	}
	if call < len(s.errs) && s.errs[call] != nil {
		return nil, s.errs[call]
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func timeoutErr() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: context.DeadlineExceeded}
}

func TestRetryTransportRetriesTransientFailure(t *testing.T) {
	base := &scriptedTransport{errs: []error{timeoutErr(), timeoutErr()}}
	rt := &retryTransport{base: base, maxRetries: 2, backoff: time.Millisecond}

	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, base.calls)
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	permErr := errors.New("400 bad request")
	base := &scriptedTransport{errs: []error{permErr}}
	rt := &retryTransport{base: base, maxRetries: 2, backoff: time.Millisecond}

	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	require.ErrorIs(t, err, permErr)
	assert.Equal(t, 1, base.calls)
}

func TestRetryTransportReplaysBody(t *testing.T) {
	base := &scriptedTransport{errs: []error{timeoutErr()}}
	rt := &retryTransport{base: base, maxRetries: 2, backoff: time.Millisecond}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage",
		bytes.NewReader([]byte("chat_id=1")))
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"chat_id=1", "chat_id=1"}, base.bodies,
		"retry must replay the full request body")
}

func TestBuildHTTPClientOutlivesLongPoll(t *testing.T) {
	longPoll := 30 * time.Second
	client := BuildHTTPClient(longPoll)

	rt, ok := client.Transport.(*retryTransport)
	require.True(t, ok)
	base, ok := rt.base.(*http.Transport)
	require.True(t, ok)

	assert.Greater(t, base.ResponseHeaderTimeout, longPoll,
		"header timeout below the poll window would abort getUpdates")
	assert.Greater(t, client.Timeout, base.ResponseHeaderTimeout)
}
