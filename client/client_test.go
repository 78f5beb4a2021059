package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/threadkit"
	"github.com/spetersoncode/threadkit/retry"
)

func noRetry() *retry.Config {
	return &retry.Config{MaxRetries: 0, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1, Jitter: 0}
}

func TestNewRejectsHostedMode(t *testing.T) {
	_, err := New(Config{
		Endpoint: "http://localhost:8000/threadkit",
		ClientSecretProvider: func(ctx context.Context) (string, error) {
			return "secret", nil
		},
	})

	require.Error(t, err)
	var hosted *ErrHostedUnsupported
	assert.ErrorAs(t, err, &hosted)
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(Config{})

	require.Error(t, err)
	var missing *ErrMissingEndpoint
	assert.ErrorAs(t, err, &missing)
}

func TestNewAcceptsAndIgnoresDomainKey(t *testing.T) {
	c, err := New(Config{
		Endpoint:  "http://localhost:8000/threadkit",
		DomainKey: "domain-pk-1234",
	})

	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestGetThread(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type   RequestType     `json:"type"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, RequestThreadsGetByID, req.Type)
		assert.JSONEq(t, `{"thread_id":"thread-1"}`, string(req.Params))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"thread-1","title":"Greetings","created_at":"2025-06-01T10:00:00Z"}`)
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	thread, err := c.GetThread(context.Background(), "thread-1")
	require.NoError(t, err)
	assert.Equal(t, "thread-1", thread.ID)
	assert.Equal(t, "Greetings", thread.Title)
}

func TestNonStreamingFailsOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown thread", http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = c.GetThread(context.Background(), "thread-missing")
	require.Error(t, err)
	assert.True(t, threadkit.IsFatal(err))
	assert.Equal(t, http.StatusNotFound, threadkit.StatusCodeOf(err))
}

func TestListItemsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params struct {
				ThreadID string `json:"thread_id"`
				Limit    int    `json:"limit"`
				After    string `json:"after"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "thread-1", req.Params.ThreadID)
		assert.Equal(t, 2, req.Params.Limit)
		assert.Equal(t, "item-5", req.Params.After)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":"item-6","thread_id":"thread-1","type":"user_message","created_at":"2025-06-01T10:00:00Z"}],"has_more":false}`)
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	page, err := c.ListItems(context.Background(), "thread-1", ListParams{Limit: 2, After: "item-5"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "item-6", page.Data[0].ID)
	assert.False(t, page.HasMore)
}

func TestCreateThreadStreamsTypedEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type RequestType `json:"type"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, RequestThreadsCreate, req.Type)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"type\":\"thread.created\",\"thread\":{\"id\":\"thread-1\",\"created_at\":\"2025-06-01T10:00:00Z\"}}\n\n")
		fmt.Fprint(w, "data: not json at all\n\n")
		fmt.Fprint(w, "data: {\"type\":\"stream_options\",\"allow_cancel\":true}\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, Retry: noRetry()})
	require.NoError(t, err)

	ch, err := c.CreateThread(context.Background(), threadkit.UserMessageInput{Text: "hello"})
	require.NoError(t, err)

	var events []threadkit.StreamEvent
	for msg := range ch {
		require.NoError(t, msg.Err)
		events = append(events, msg.Event)
	}

	require.Len(t, events, 2)
	assert.Equal(t, threadkit.EventThreadCreated, events[0].Type)
	require.NotNil(t, events[0].Thread)
	assert.Equal(t, "thread-1", events[0].Thread.ID)
	assert.Equal(t, threadkit.EventStreamOptions, events[1].Type)
	assert.True(t, events[1].AllowCancel)
}

func TestStreamSurfacesTerminalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request kind", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, Retry: noRetry()})
	require.NoError(t, err)

	ch, err := c.AddUserMessage(context.Background(), "thread-1", threadkit.UserMessageInput{Text: "hi"})
	require.NoError(t, err)

	var terminal error
	for msg := range ch {
		if msg.Err != nil {
			terminal = msg.Err
		}
	}
	require.Error(t, terminal)
	assert.True(t, threadkit.IsFatal(terminal))
}

func TestWithHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL}, WithHeader("Authorization", "Bearer token-1"))
	require.NoError(t, err)

	assert.NoError(t, c.DeleteThread(context.Background(), "thread-1"))
}
