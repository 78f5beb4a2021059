// Package transport opens POST-backed event streams and owns the
// reconnect, backoff and cancellation state machine.
//
// The standard browser push primitive cannot carry a request body, so the
// stream is modeled as a plain HTTP POST whose response body is an
// event-stream read incrementally. Consumers pull records from an
// unbuffered channel; consumption is backpressure.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spetersoncode/threadkit"
	"github.com/spetersoncode/threadkit/retry"
	"github.com/spetersoncode/threadkit/sse"
)

// Message is one element of a stream: either a decoded JSON record or a
// terminal error. After a Message with Err set the channel is closed.
type Message struct {
	Data json.RawMessage
	Err  error
}

// Options configures an event stream.
type Options struct {
	// HTTPClient overrides the client used for requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Headers are added to every request.
	Headers http.Header

	// Retry overrides the reconnect backoff policy. Defaults to
	// retry.DefaultConfig.
	Retry *retry.Config
}

// Stream POSTs body to endpoint and returns a channel of decoded records
// from the event-stream response.
//
// A 4xx response is fatal: one terminal error is emitted and the channel
// closes without a retry. Connection failures, 5xx responses and
// mid-stream drops are retried with exponential backoff; a successful
// connection resets the consecutive-failure counter. Exhausting the retry
// budget emits a terminal error.
//
// Cancelling ctx tears down the connection, suppresses further retries
// and closes the channel without an error message.
func Stream(ctx context.Context, endpoint string, body []byte, opts Options) <-chan Message {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	cfg := retry.DefaultConfig()
	if opts.Retry != nil {
		cfg = *opts.Retry
	}

	ch := make(chan Message)
	go run(ctx, httpClient, endpoint, body, opts.Headers, cfg, ch)
	return ch
}

func run(ctx context.Context, httpClient *http.Client, endpoint string, body []byte, headers http.Header, cfg retry.Config, ch chan<- Message) {
	defer close(ch)

	for {
		resp, err := retry.Do(ctx, cfg, func() (*http.Response, error) {
			return connect(ctx, httpClient, endpoint, body, headers)
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if threadkit.IsTransient(err) {
				// The whole connection budget is spent.
				err = threadkit.NewFatalError(
					fmt.Sprintf("stream failed after %d attempts", cfg.MaxRetries+1),
					threadkit.StatusCodeOf(err), err)
			}
			emit(ctx, ch, Message{Err: err})
			return
		}

		err = pump(ctx, resp.Body, ch)
		resp.Body.Close()
		if err == nil {
			return // clean end of stream
		}
		if ctx.Err() != nil {
			return
		}

		// Mid-stream drop: back off once, then reconnect with a fresh
		// budget. A successful connection resets the failure count.
		select {
		case <-ctx.Done():
			return
		case <-time.After(cfg.Delay(0)):
		}
	}
}

// connect issues the POST and validates the response status. The caller
// owns the response body on success.
func connect(ctx context.Context, httpClient *http.Client, endpoint string, body []byte, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, threadkit.NewFatalError("invalid stream request", 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, threadkit.NewTransientError("stream connection failed", 0, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	resp.Body.Close()
	msg := fmt.Sprintf("stream request returned %s", resp.Status)
	if len(snippet) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, snippet)
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		// A client error will not be fixed by repeating it.
		return nil, threadkit.NewFatalError(msg, resp.StatusCode, nil)
	}
	return nil, threadkit.NewTransientError(msg, resp.StatusCode, nil)
}

// pump forwards decoded records until the body ends. A nil return means
// the server closed the stream cleanly; any other error is a mid-stream
// drop the caller may retry.
func pump(ctx context.Context, body io.Reader, ch chan<- Message) error {
	dec := sse.NewDecoder(body)
	for {
		record, err := dec.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return threadkit.NewTransientError("stream read failed", 0, err)
		}
		if !emit(ctx, ch, Message{Data: record}) {
			return ctx.Err()
		}
	}
}

// emit sends one message, honoring cancellation. Returns false if the
// context ended before the message was consumed.
func emit(ctx context.Context, ch chan<- Message, msg Message) bool {
	select {
	case ch <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
