package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/cointrack/internal/domain"
)

const (
	defaultCoinServiceTimeout = 10 * time.Second
	coinsPath                 = "/api/coins"
	maxErrorBodyLen           = 512
)

// TransportError network failure or non-success response from the coin service.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err carries a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// CoinServiceClient talks to the remote coin service.
type CoinServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

// CoinServiceOption configures a CoinServiceClient.
type CoinServiceOption func(*CoinServiceClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) CoinServiceOption {
	return func(cl *CoinServiceClient) {
		cl.httpClient = c
	}
}

// WithTimeout sets the per-request timeout on a private copy of the current http.Client,
// so a shared client passed through WithHTTPClient is left as is.
func WithTimeout(d time.Duration) CoinServiceOption {
	return func(cl *CoinServiceClient) {
		c := *cl.httpClient
		c.Timeout = d
		cl.httpClient = &c
	}
}

// NewCoinServiceClient creates a client for the coin service at baseURL.
func NewCoinServiceClient(baseURL string, opts ...CoinServiceOption) *CoinServiceClient {
	c := &CoinServiceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultCoinServiceTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address the client targets.
func (c *CoinServiceClient) BaseURL() string {
	return c.baseURL
}

// FetchCoins returns the tracked coin list in service order.
func (c *CoinServiceClient) FetchCoins(ctx context.Context) ([]domain.Coin, error) {
	u := c.baseURL + coinsPath

	body, err := c.get(ctx, "fetch coins", u)
	if err != nil {
		return nil, err
	}

	var coins []domain.Coin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, &TransportError{Op: "fetch coins", URL: u, Err: errors.Wrap(err, "decode coin list")}
	}

	return coins, nil
}

// SetCoinEnabled asks the service to set the tracking flag for symbol.
// The request is made exactly once.
func (c *CoinServiceClient) SetCoinEnabled(ctx context.Context, symbol string, enabled bool) error {
	q := url.Values{}
	q.Set("enable", FormatEnable(enabled))
	u := fmt.Sprintf("%s%s/%s?%s", c.baseURL, coinsPath, url.PathEscape(symbol), q.Encode())

	_, err := c.get(ctx, "set coin enabled", u)
	return err
}

func (c *CoinServiceClient) get(ctx context.Context, op, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: errors.Wrap(err, "failed to create HTTP request")}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: errors.Wrap(err, "HTTP request failed")}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "failed to read response body")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBodyLen {
			msg = msg[:maxErrorBodyLen]
		}
		return nil, &TransportError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: errors.Errorf("unexpected response: %q", msg)}
	}

	return body, nil
}

// FormatEnable renders a flag the way the coin service expects it.
func FormatEnable(enabled bool) string {
	if enabled {
		return "True"
	}
	return "False"
}

// ParseEnable is the inverse of FormatEnable.
func ParseEnable(s string) (bool, error) {
	switch s {
	case "True":
		return true, nil
	case "False":
		return false, nil
	}
	return false, errors.Errorf("invalid enable value %q, want True or False", s)
}
