package minfraud

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL       = "https://minfraud.maxmind.com"
	defaultRequestedType = "standard"
	scorePath            = "/app/ccv2r"
)

// Client submits transactions to the minFraud scoring service.
type Client interface {
	// Score submits one transaction and returns the decoded score. A
	// provider-reported failure is returned as a *ServiceError; transport
	// failures are wrapped errors without a distinct type.
	Score(ctx context.Context, txn *Transaction) (*Score, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default service base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRequestedType sets the default service level ("standard" or
// "premium") used when a transaction carries no override.
func WithRequestedType(t string) Option {
	return func(c *httpClient) {
		c.requestedType = t
	}
}

// WithRateLimit throttles outbound requests to r per second with the given
// burst. Zero or negative r disables throttling.
func WithRateLimit(r float64, burst int) Option {
	return func(c *httpClient) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

type httpClient struct {
	licenseKey    string
	baseURL       string
	requestedType string
	limiter       *rate.Limiter
	http          *http.Client
}

// NewClient creates a minFraud client for the given license key.
func NewClient(licenseKey string, opts ...Option) Client {
	c := &httpClient{
		licenseKey:    licenseKey,
		baseURL:       defaultBaseURL,
		requestedType: defaultRequestedType,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Score(ctx context.Context, txn *Transaction) (*Score, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "minfraud: rate limiter wait")
		}
	}

	form := encodeAttributes(txn.attributes(c.licenseKey, c.requestedType))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scorePath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "minfraud: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "minfraud: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "minfraud: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("minfraud: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	score := ParseScore(string(body))
	if score.Errored() {
		return nil, score.Err()
	}
	return score, nil
}
