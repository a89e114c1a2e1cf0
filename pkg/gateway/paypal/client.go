package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
)

const tokenCacheKey = "access_token"

var (
	ErrNotConfigured = errors.New("paypal client is not configured")
	ErrNotCompleted  = errors.New("paypal capture was not completed")
)

// APIError is a non-2xx answer from PayPal.
type APIError struct {
	StatusCode int
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("paypal %d %s: %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("paypal returned status %d", e.StatusCode)
}

type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
}

// Capture is the settled money movement for an approved order.
type Capture struct {
	OrderID   string
	CaptureID string
	Status    string
	Amount    string
	Currency  string
}

type Refund struct {
	ID     string
	Status string
}

type Client struct {
	cfg     Config
	http    *http.Client
	tokens  *cache.Cache
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
	latency *prometheus.HistogramVec
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithLatency observes every API call in h, labelled by operation and
// outcome.
func WithLatency(h *prometheus.HistogramVec) Option {
	return func(c *Client) { c.latency = h }
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		tokens: cache.New(cache.NoExpiration, 10*time.Minute),
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "paypal",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CaptureOrder captures a buyer-approved checkout order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	var resp struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
					Amount struct {
						Value        string `json:"value"`
						CurrencyCode string `json:"currency_code"`
					} `json:"amount"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}

	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.call(ctx, "capture", path, struct{}{}, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "COMPLETED" || len(resp.PurchaseUnits) == 0 ||
		len(resp.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil, fmt.Errorf("%w: order status %s", ErrNotCompleted, resp.Status)
	}

	capture := resp.PurchaseUnits[0].Payments.Captures[0]
	c.logger.Info("order captured",
		zap.String("order_id", orderID),
		zap.String("capture_id", capture.ID),
		zap.String("status", capture.Status))

	return &Capture{
		OrderID:   resp.ID,
		CaptureID: capture.ID,
		Status:    capture.Status,
		Amount:    capture.Amount.Value,
		Currency:  capture.Amount.CurrencyCode,
	}, nil
}

// RefundCapture refunds a capture in full.
func (c *Client) RefundCapture(ctx context.Context, captureID string) (*Refund, error) {
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}

	path := "/v2/payments/captures/" + url.PathEscape(captureID) + "/refund"
	if err := c.call(ctx, "refund", path, struct{}{}, &resp); err != nil {
		return nil, err
	}

	c.logger.Info("capture refunded", zap.String("capture_id", captureID), zap.String("refund_id", resp.ID))
	return &Refund{ID: resp.ID, Status: resp.Status}, nil
}

func (c *Client) call(ctx context.Context, op, path string, body, out interface{}) error {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return ErrNotConfigured
	}

	return c.breaker.Execute(func() error {
		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build %s request: %w", op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")

		start := time.Now()
		err = c.do(req, out)
		elapsed := time.Since(start)
		c.logger.Debug("paypal call",
			zap.String("op", op),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		if c.latency != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			c.latency.WithLabelValues(op, status).Observe(elapsed.Seconds())
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			c.tokens.Delete(tokenCacheKey)
		}
		return err
	})
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(tokenCacheKey); ok {
		return token.(string), nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("failed to obtain paypal token: %w", err)
	}

	// Cached tokens are dropped a minute before PayPal expires them.
	ttl := time.Duration(resp.ExpiresIn)*time.Second - time.Minute
	if ttl > 0 {
		c.tokens.Set(tokenCacheKey, resp.AccessToken, ttl)
	}
	return resp.AccessToken, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paypal request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read paypal response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode paypal response: %w", err)
	}
	return nil
}
