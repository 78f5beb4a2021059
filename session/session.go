package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/spetersoncode/threadkit"
	"github.com/spetersoncode/threadkit/client"
	"github.com/spetersoncode/threadkit/store"
)

// Session coordinates one conversation surface: a protocol client and
// the store its event streams are folded into. Safe for concurrent use.
type Session struct {
	client *client.Client
	store  *store.Store

	mu         sync.Mutex
	generation int
	cancelFn   context.CancelFunc
	effectFn   func(json.RawMessage)
}

// New creates a session over the given client and store.
func New(c *client.Client, s *store.Store) *Session {
	return &Session{client: c, store: s}
}

// Store exposes the backing store for snapshots and subscriptions.
func (s *Session) Store() *store.Store {
	return s.store
}

// OnClientEffect registers the handler for client_effect events. The
// engine never interprets the payload; the embedding application does.
func (s *Session) OnClientEffect(fn func(json.RawMessage)) {
	s.mu.Lock()
	s.effectFn = fn
	s.mu.Unlock()
}

// Send submits a user message and blocks until the response stream
// settles. With no current thread it creates one; otherwise it appends
// to the current thread. A prior in-flight turn is cancelled first.
//
// The returned error is a transport-level failure. Server-declared
// failures arrive as error events and land in the store instead.
func (s *Session) Send(ctx context.Context, input threadkit.UserMessageInput) error {
	threadID := s.store.Snapshot().CurrentThreadID
	return s.run(ctx, func(runCtx context.Context) (<-chan client.StreamMessage, error) {
		if threadID == "" {
			return s.client.CreateThread(runCtx, input)
		}
		return s.client.AddUserMessage(runCtx, threadID, input)
	})
}

// SendDraft submits the composer's draft as a user message and clears
// the composer.
func (s *Session) SendDraft(ctx context.Context) error {
	c := s.store.Snapshot().Composer
	input := threadkit.UserMessageInput{
		Text:        c.Text,
		Attachments: c.Attachments,
		Model:       c.Model,
		Tool:        c.Tool,
	}
	s.store.ClearComposer()
	return s.Send(ctx, input)
}

// SubmitToolOutput answers a pending client tool call on the current
// thread and blocks while the continuation streams in.
func (s *Session) SubmitToolOutput(ctx context.Context, itemID string, output json.RawMessage) error {
	threadID := s.store.Snapshot().CurrentThreadID
	return s.run(ctx, func(runCtx context.Context) (<-chan client.StreamMessage, error) {
		return s.client.AddClientToolOutput(runCtx, threadID, itemID, output)
	})
}

// RetryAfterItem asks the server to regenerate the response after the
// given item and blocks while the replacement streams in.
func (s *Session) RetryAfterItem(ctx context.Context, itemID string) error {
	threadID := s.store.Snapshot().CurrentThreadID
	return s.run(ctx, func(runCtx context.Context) (<-chan client.StreamMessage, error) {
		return s.client.RetryAfterItem(runCtx, threadID, itemID)
	})
}

// CustomAction forwards an application-defined action on the current
// thread and blocks while any resulting events stream in.
func (s *Session) CustomAction(ctx context.Context, itemID string, action threadkit.Action) error {
	threadID := s.store.Snapshot().CurrentThreadID
	return s.run(ctx, func(runCtx context.Context) (<-chan client.StreamMessage, error) {
		return s.client.CustomAction(runCtx, threadID, itemID, action)
	})
}

// Cancel stops the in-flight response stream, if any. Nothing is sent to
// the server; the connection is simply closed. Items still pending stay
// pending and no error is recorded.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.cancelFn != nil {
		s.cancelFn()
		s.cancelFn = nil
	}
	s.mu.Unlock()
}

// NewThread cancels any in-flight stream and clears the thread
// selection, so the next Send creates a fresh thread.
func (s *Session) NewThread() {
	s.Cancel()
	s.store.SetCurrentThread("")
}

// SwitchThread cancels any in-flight stream, fetches the named thread
// and all of its items from the server, and makes it current.
func (s *Session) SwitchThread(ctx context.Context, threadID string) error {
	s.Cancel()

	thread, err := s.client.GetThread(ctx, threadID)
	if err != nil {
		return err
	}

	var items []threadkit.ThreadItem
	params := client.ListParams{}
	for {
		page, err := s.client.ListItems(ctx, threadID, params)
		if err != nil {
			return err
		}
		items = append(items, page.Data...)
		if !page.HasMore {
			break
		}
		params.After = page.After
	}

	s.store.SeedThread(*thread, items)
	s.store.SetCurrentThread(threadID)
	return nil
}

// DeleteThread removes a thread on the server and from the store.
func (s *Session) DeleteThread(ctx context.Context, threadID string) error {
	if err := s.client.DeleteThread(ctx, threadID); err != nil {
		return err
	}
	s.store.DeleteThread(threadID)
	return nil
}

// UpdateThreadTitle renames a thread on the server and reflects the
// change in the store.
func (s *Session) UpdateThreadTitle(ctx context.Context, threadID, title string) error {
	thread, err := s.client.UpdateThread(ctx, threadID, title)
	if err != nil {
		return err
	}
	s.store.Apply(threadkit.StreamEvent{Type: threadkit.EventThreadUpdated, Thread: thread})
	return nil
}

// SubmitFeedback rates items on the current thread.
func (s *Session) SubmitFeedback(ctx context.Context, itemIDs []string, kind threadkit.FeedbackKind) error {
	threadID := s.store.Snapshot().CurrentThreadID
	return s.client.SubmitFeedback(ctx, threadID, itemIDs, kind)
}

// AttachFile registers an attachment with the server and records it on
// the composer draft.
func (s *Session) AttachFile(ctx context.Context, params client.CreateAttachmentParams) (*threadkit.Attachment, error) {
	att, err := s.client.CreateAttachment(ctx, params)
	if err != nil {
		return nil, err
	}
	s.store.AddComposerAttachment(att.ID)
	return att, nil
}

// DetachFile removes an attachment from the server and the composer.
func (s *Session) DetachFile(ctx context.Context, attachmentID string) error {
	if err := s.client.DeleteAttachment(ctx, attachmentID); err != nil {
		return err
	}
	s.store.RemoveComposerAttachment(attachmentID)
	return nil
}

// Transcribe converts recorded audio to text and appends it to the
// composer draft.
func (s *Session) Transcribe(ctx context.Context, audio []byte, mimeType string) error {
	text, err := s.client.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return err
	}
	draft := s.store.Snapshot().Composer.Text
	if draft != "" && text != "" {
		draft += " "
	}
	s.store.SetComposerText(draft + text)
	return nil
}

// run executes one streaming turn: it supersedes any in-flight turn,
// folds the stream into the store, and settles the streaming flag if it
// is still the newest turn when the stream ends.
func (s *Session) run(ctx context.Context, open func(context.Context) (<-chan client.StreamMessage, error)) error {
	s.mu.Lock()
	if s.cancelFn != nil {
		s.cancelFn()
	}
	s.generation++
	gen := s.generation
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelFn = cancel
	s.mu.Unlock()

	s.store.BeginStream()

	ch, err := open(runCtx)
	if err != nil {
		cancel()
		s.settle(gen, err)
		return err
	}

	var streamErr error
	for msg := range ch {
		if msg.Err != nil {
			streamErr = msg.Err
			continue
		}
		if s.superseded(gen) {
			continue
		}
		if msg.Event.Type == threadkit.EventClientEffect {
			s.mu.Lock()
			fn := s.effectFn
			s.mu.Unlock()
			if fn != nil {
				fn(msg.Event.Effect)
			}
			continue
		}
		s.store.Apply(msg.Event)
	}
	cancel()
	s.settle(gen, streamErr)
	return streamErr
}

func (s *Session) superseded(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.generation
}

// settle ends the stream in the store unless a newer turn has taken
// over the session state.
func (s *Session) settle(gen int, err error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	if s.cancelFn != nil {
		s.cancelFn = nil
	}
	s.mu.Unlock()
	s.store.EndStream(err)
}
