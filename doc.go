// Package threadkit provides the client-side engine for a conversational
// streaming protocol: a single HTTP endpoint accepts JSON requests and
// answers either with one JSON document or with an event stream of
// incremental thread updates framed as "data: <json>" records.
//
// The engine is split into small packages, lowest level first:
//
//   - [github.com/spetersoncode/threadkit/sse]: decodes an event-stream body
//     into JSON records.
//   - [github.com/spetersoncode/threadkit/transport]: opens the POST-backed
//     stream and owns the reconnect/backoff/cancel state machine.
//   - [github.com/spetersoncode/threadkit/client]: typed façade over the
//     transport, one method per request kind.
//   - [github.com/spetersoncode/threadkit/store]: event-sourced reducer
//     maintaining the canonical projection of threads and items.
//   - [github.com/spetersoncode/threadkit/session]: composes client and
//     store into send/retry/cancel/switch-thread operations.
//
// This root package holds the shared data model: threads, thread items,
// stream events and the error taxonomy.
//
// # Basic Usage
//
// Compose a session against a server speaking the protocol:
//
//	c, err := client.New(client.Config{Endpoint: "http://localhost:8000/threadkit"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	st := store.New()
//	unsubscribe := st.Subscribe(func(snap store.Snapshot) {
//	    render(snap)
//	})
//	defer unsubscribe()
//
//	sess := session.New(c, st)
//	err = sess.Send(ctx, threadkit.UserMessageInput{Text: "hello"})
//
// Send blocks until the response stream closes; run it on its own goroutine
// when driving a UI. Store snapshots are immutable copies, safe to read
// from any goroutine.
package threadkit
