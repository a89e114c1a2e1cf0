package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayPal struct {
	tokenCalls   int32
	captureCalls int32
	captureCode  int
	captureBody  string
}

func (f *fakePayPal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.captureCalls, 1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if f.captureCode != 0 {
			w.WriteHeader(f.captureCode)
		}
		_, _ = w.Write([]byte(f.captureBody))
	})
	mux.HandleFunc("/v2/payments/captures/CAP-1/refund", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"REF-1","status":"COMPLETED"}`))
	})
	return mux
}

const completedCapture = `{
	"id": "ORDER-1",
	"status": "COMPLETED",
	"purchase_units": [{"payments": {"captures": [
		{"id": "CAP-1", "status": "COMPLETED", "amount": {"value": "120.00", "currency_code": "USD"}}
	]}}]
}`

func newTestClient(t *testing.T, f *fakePayPal) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(Config{ClientID: "id", ClientSecret: "secret", BaseURL: srv.URL + "/"})
}

func TestCaptureOrder(t *testing.T) {
	f := &fakePayPal{captureBody: completedCapture}
	c := newTestClient(t, f)

	capture, err := c.CaptureOrder(context.Background(), "ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, "CAP-1", capture.CaptureID)
	assert.Equal(t, "120.00", capture.Amount)

	_, err = c.CaptureOrder(context.Background(), "ORDER-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.tokenCalls), "token should be cached")
	assert.EqualValues(t, 2, atomic.LoadInt32(&f.captureCalls))
}

func TestCaptureOrderDeclined(t *testing.T) {
	f := &fakePayPal{
		captureCode: http.StatusUnprocessableEntity,
		captureBody: `{"name":"UNPROCESSABLE_ENTITY","message":"The instrument was declined."}`,
	}
	c := newTestClient(t, f)

	_, err := c.CaptureOrder(context.Background(), "ORDER-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "declined")
}

func TestCaptureOrderNotCompleted(t *testing.T) {
	f := &fakePayPal{captureBody: `{"id":"ORDER-1","status":"PAYER_ACTION_REQUIRED","purchase_units":[]}`}
	c := newTestClient(t, f)

	_, err := c.CaptureOrder(context.Background(), "ORDER-1")
	assert.ErrorIs(t, err, ErrNotCompleted)
}

func TestRefundCapture(t *testing.T) {
	c := newTestClient(t, &fakePayPal{})

	refund, err := c.RefundCapture(context.Background(), "CAP-1")
	require.NoError(t, err)
	assert.Equal(t, "REF-1", refund.ID)
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.CaptureOrder(context.Background(), "ORDER-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCallLatencyIsObserved(t *testing.T) {
	f := &fakePayPal{captureBody: completedCapture}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "gateway_seconds"}, []string{"operation", "status"})
	c := NewClient(Config{ClientID: "id", ClientSecret: "secret", BaseURL: srv.URL}, WithLatency(latency))

	_, err := c.CaptureOrder(context.Background(), "ORDER-1")
	require.NoError(t, err)
	_, err = c.RefundCapture(context.Background(), "CAP-1")
	require.NoError(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(latency))
}
