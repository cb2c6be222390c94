// Package gmo signs and fires private REST requests. The trading loop only
// uses the harmless margin probe: real order placement stays out of scope, but
// the signing and transport paths are exercised on every entry signal.
package gmo

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"time"

	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

const (
	_gmoPrivateBaseUrl = "https://api.coin.z.com/private"
	_marginEndpoint    = "/v1/account/margin"

	requestTimeout = 5 * time.Second
)

// Client holds the API credentials for private requests.
type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
	now       func() time.Time
}

// NewClient validates the credentials and builds a client against the
// production private endpoint.
func NewClient(apiKey, apiSecret string) (*Client, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, errors.Wrap(exception.ErrInvalidArgument, "api key or secret is empty")
	}

	return &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   _gmoPrivateBaseUrl,
		http:      &http.Client{Timeout: requestTimeout},
		now:       time.Now,
	}, nil
}

// WithBaseURL redirects requests, for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithClock overrides the signing time source.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// Headers signs method+endpoint the GMO way: an epoch-ms timestamp and an
// HMAC-SHA256 hex digest of timestamp+method+endpoint under the API secret.
func (c *Client) Headers(method, endpoint string) http.Header {
	timestamp := strconv.FormatInt(c.now().Unix(), 10) + "000"

	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(timestamp + method + endpoint))

	headers := http.Header{}
	headers.Set("API-KEY", c.apiKey)
	headers.Set("API-TIMESTAMP", timestamp)
	headers.Set("API-SIGN", hex.EncodeToString(mac.Sum(nil)))
	return headers
}

// TestPrivateRequest probes the margin endpoint. It stands in for order
// placement: same auth, same transport, no exchange side effect.
func (c *Client) TestPrivateRequest(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+_marginEndpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build private request")
	}
	req.Header = c.Headers(http.MethodGet, _marginEndpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "private request")
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return errors.Wrap(err, "drain private response")
	}

	return nil
}
