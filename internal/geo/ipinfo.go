// Package geo resolves public IP addresses to location snapshots using an
// external provider.
package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

var (
	ErrMissingToken   = errors.New("ipinfo token is not configured")
	ErrQuotaExhausted = errors.New("ipinfo request quota exhausted")
)

// Lookup fetches raw provider data for one IP.
type Lookup interface {
	Lookup(ctx context.Context, ip string) (map[string]any, error)
}

// IPInfoClient queries the ipinfo.io JSON API.
type IPInfoClient struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// IPInfoOptions configures an IPInfoClient. Zero RPS disables the quota guard.
type IPInfoOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// NewIPInfoClient creates a new IPInfoClient, filling in defaults for unset options.
func NewIPInfoClient(opts IPInfoOptions) *IPInfoClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://ipinfo.io"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &IPInfoClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Lookup fetches the raw ipinfo.io payload for ip.
func (c *IPInfoClient) Lookup(ctx context.Context, ip string) (map[string]any, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}
	if !c.limiter.Allow() {
		return nil, ErrQuotaExhausted
	}

	endpoint := fmt.Sprintf("%s/%s?token=%s", c.baseURL, url.PathEscape(ip), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating ipinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying ipinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("ipinfo returned status %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding ipinfo response: %w", err)
	}
	if body == nil {
		return nil, errors.New("ipinfo returned an empty body")
	}

	return body, nil
}
