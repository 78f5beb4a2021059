package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spetersoncode/threadkit"
	"github.com/spetersoncode/threadkit/retry"
	"github.com/spetersoncode/threadkit/transport"
)

// ErrHostedUnsupported is returned by New when the configuration names
// the hosted/managed mode.
type ErrHostedUnsupported struct{}

func (e *ErrHostedUnsupported) Error() string {
	return "hosted mode is not supported: configure Endpoint instead of ClientSecretProvider"
}

// ErrMissingEndpoint is returned by New when no endpoint is configured.
type ErrMissingEndpoint struct{}

func (e *ErrMissingEndpoint) Error() string {
	return "no endpoint configured"
}

// Config holds configuration for creating a protocol client.
type Config struct {
	// Endpoint is the URL of the protocol endpoint. Required.
	Endpoint string

	// ClientSecretProvider selects the hosted/managed mode. It is not
	// supported; a non-nil value makes New fail immediately.
	ClientSecretProvider func(ctx context.Context) (string, error)

	// DomainKey is accepted for configuration compatibility and
	// ignored: there is no embedding boundary to police here.
	DomainKey string

	// HTTPClient overrides the client used for all requests.
	HTTPClient *http.Client

	// Headers are added to every request.
	Headers http.Header

	// Retry overrides the stream reconnect policy. If nil, the default
	// backoff configuration is used.
	Retry *retry.Config
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = http.Header{}
		}
		c.headers.Add(key, value)
	}
}

// Client issues typed protocol requests against a single endpoint.
// It is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	headers    http.Header
	retryCfg   *retry.Config
}

// New creates a protocol client. It fails fast on unsupported
// configurations: hosted mode is rejected and an endpoint is required.
func New(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.ClientSecretProvider != nil {
		return nil, &ErrHostedUnsupported{}
	}
	if cfg.Endpoint == "" {
		return nil, &ErrMissingEndpoint{}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		endpoint:   cfg.Endpoint,
		httpClient: httpClient,
		headers:    cfg.Headers.Clone(),
		retryCfg:   cfg.Retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request is the wire envelope for every protocol request.
type request struct {
	Type   RequestType `json:"type"`
	Params any         `json:"params,omitempty"`
}

// StreamMessage is one element of a typed event stream: either a decoded
// event or a terminal error. The channel closes after a terminal error.
type StreamMessage struct {
	Event threadkit.StreamEvent
	Err   error
}

// stream opens an event stream for the given request kind and decodes
// each record into a typed event. Records that do not decode are dropped;
// a degraded stream is preferred to aborting on one bad record.
func (c *Client) stream(ctx context.Context, kind RequestType, params any) (<-chan StreamMessage, error) {
	body, err := json.Marshal(request{Type: kind, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", kind, err)
	}

	raw := transport.Stream(ctx, c.endpoint, body, transport.Options{
		HTTPClient: c.httpClient,
		Headers:    c.headers,
		Retry:      c.retryCfg,
	})

	ch := make(chan StreamMessage)
	go func() {
		defer close(ch)
		for msg := range raw {
			if msg.Err != nil {
				select {
				case ch <- StreamMessage{Err: msg.Err}:
				case <-ctx.Done():
				}
				return
			}
			var ev threadkit.StreamEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				continue
			}
			select {
			case ch <- StreamMessage{Event: ev}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// do performs one non-streaming request and decodes the JSON response
// into out (which may be nil for requests without a useful response).
func (c *Client) do(ctx context.Context, kind RequestType, params any, out any) error {
	body, err := json.Marshal(request{Type: kind, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return threadkit.NewFatalError(fmt.Sprintf("invalid %s request", kind), 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return threadkit.NewTransientError(fmt.Sprintf("%s request failed", kind), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := fmt.Sprintf("%s returned %s", kind, resp.Status)
		if len(snippet) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, snippet)
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return threadkit.NewFatalError(msg, resp.StatusCode, nil)
		}
		return threadkit.NewTransientError(msg, resp.StatusCode, nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return threadkit.NewFatalError(fmt.Sprintf("decode %s response", kind), 0, err)
	}
	return nil
}
