package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/harness/harbor-migrator/module/migrate/http/modifier"
	"github.com/harness/harbor-migrator/util/common/errors"
)

// Options configures the underlying transport of a Client.
type Options struct {
	Insecure bool
	Retries  int
	Timeout  time.Duration
}

// Client is a util for common HTTP operations against a registry API.
// Modifiers run on every request before it is sent; retries are delegated to
// go-retryablehttp.
type Client struct {
	modifiers []modifier.Modifier
	client    *retryablehttp.Client
}

// NewClient creates an instance of Client.
// Modifiers modify the request before sending it.
func NewClient(opts Options, modifiers ...modifier.Modifier) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Transport: GetHTTPTransport(WithInsecure(opts.Insecure)),
		Timeout:   opts.Timeout,
	}
	rc.RetryMax = opts.Retries
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{logger: log.With().Str("component", "http").Logger()}

	client := &Client{client: rc}
	if len(modifiers) > 0 {
		client.modifiers = modifiers
	}
	return client
}

// Do applies the modifiers and sends the request.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for _, m := range c.modifiers {
		if err := m.Modify(req); err != nil {
			return nil, err
		}
	}
	rreq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, err
	}
	return c.client.Do(rreq)
}

// GetBytes performs a GET and returns the raw body of a 2xx response.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Message: string(data)}
	}

	return data, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
}

// Unwrap maps auth and not-found statuses to the common sentinel errors.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.ErrUnauthorized
	case http.StatusNotFound:
		return errors.ErrNotFound
	}
	return nil
}
