package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spetersoncode/threadkit"
	"github.com/spetersoncode/threadkit/internal/responder"
)

// handler serves the single protocol endpoint: every request is a POST
// with a {"type", "params"} envelope, answered with either one JSON
// document or an event stream.
type handler struct {
	store     *memStore
	responder responder.Responder
}

func newHandler(r responder.Responder) *handler {
	return &handler{store: newMemStore(), responder: r}
}

type envelope struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params"`
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		slog.Warn("method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req envelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid request body", "error", err)
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	log := slog.With("type", req.Type)
	start := time.Now()

	switch req.Type {
	case "threads.create", "threads.add_user_message", "threads.add_client_tool_output",
		"threads.retry_after_item", "threads.custom_action":
		h.serveStream(w, r, req, log)
	default:
		h.serveJSON(w, req, log)
	}

	log.Info("request handled", "duration", time.Since(start))
}

// serveStream answers a streaming request kind with an event stream.
func (h *handler) serveStream(w http.ResponseWriter, r *http.Request, req envelope, log *slog.Logger) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	em := &emitter{w: w, f: flusher}
	ctx := r.Context()

	var err error
	switch req.Type {
	case "threads.create":
		err = h.createThread(ctx, em, req.Params)
	case "threads.add_user_message":
		err = h.addUserMessage(ctx, em, req.Params)
	case "threads.add_client_tool_output":
		err = h.addClientToolOutput(ctx, em, req.Params)
	case "threads.retry_after_item":
		err = h.retryAfterItem(ctx, em, req.Params)
	case "threads.custom_action":
		err = h.customAction(ctx, em, req.Params)
	}
	if err != nil && ctx.Err() == nil {
		log.Warn("stream ended with error", "error", err)
	}
}

type userMessageParams struct {
	ThreadID string                     `json:"thread_id"`
	Input    threadkit.UserMessageInput `json:"input"`
}

func (h *handler) createThread(ctx context.Context, em *emitter, params json.RawMessage) error {
	var p userMessageParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}

	thread := h.store.createThread()
	if err := em.send(threadkit.StreamEvent{Type: threadkit.EventThreadCreated, Thread: &thread}); err != nil {
		return err
	}

	if err := h.acceptUserMessage(em, thread.ID, p.Input); err != nil {
		return err
	}
	if err := h.runTurn(ctx, em, thread.ID, p.Input.Text); err != nil {
		return err
	}

	// First turn names the thread.
	title := p.Input.Text
	if len(title) > 40 {
		title = title[:40]
	}
	updated, ok := h.store.updateTitle(thread.ID, title)
	if !ok {
		return nil
	}
	return em.send(threadkit.StreamEvent{Type: threadkit.EventThreadUpdated, Thread: &updated})
}

func (h *handler) addUserMessage(ctx context.Context, em *emitter, params json.RawMessage) error {
	var p userMessageParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	if _, ok := h.store.getThread(p.ThreadID); !ok {
		return em.sendError("unknown_thread", "no such thread: "+p.ThreadID)
	}

	if err := h.acceptUserMessage(em, p.ThreadID, p.Input); err != nil {
		return err
	}
	return h.runTurn(ctx, em, p.ThreadID, p.Input.Text)
}

// acceptUserMessage persists the user message and echoes it back as a
// finalized item.
func (h *handler) acceptUserMessage(em *emitter, threadID string, input threadkit.UserMessageInput) error {
	content := []threadkit.ContentPart{threadkit.NewTextPart(input.Text)}
	for _, id := range input.Attachments {
		content = append(content, threadkit.ContentPart{Type: threadkit.ContentAttachment, AttachmentID: id})
	}
	item := threadkit.ThreadItem{
		ID:        threadkit.GenerateItemID("msg"),
		ThreadID:  threadID,
		Type:      threadkit.ItemUserMessage,
		CreatedAt: time.Now().UTC(),
		Content:   content,
	}
	h.store.appendItem(item)
	return em.send(threadkit.StreamEvent{Type: threadkit.EventItemDone, Item: &item})
}

// runTurn emits the stream options and the assistant's side of the turn,
// closed by an end-of-turn marker unless the turn failed.
func (h *handler) runTurn(ctx context.Context, em *emitter, threadID, text string) error {
	if err := em.send(threadkit.StreamEvent{Type: threadkit.EventStreamOptions, AllowCancel: true}); err != nil {
		return err
	}
	if err := h.runScenario(ctx, em, threadID, text); err != nil {
		return err
	}
	return h.endTurn(em, threadID)
}

func (h *handler) endTurn(em *emitter, threadID string) error {
	if em.sentError {
		return nil
	}
	item := threadkit.ThreadItem{
		ID:        threadkit.GenerateItemID("eot"),
		ThreadID:  threadID,
		Type:      threadkit.ItemEndOfTurn,
		CreatedAt: time.Now().UTC(),
	}
	h.store.appendItem(item)
	return em.send(threadkit.StreamEvent{Type: threadkit.EventItemDone, Item: &item})
}

type toolOutputParams struct {
	ThreadID string          `json:"thread_id"`
	ItemID   string          `json:"item_id"`
	Output   json.RawMessage `json:"output"`
}

func (h *handler) addClientToolOutput(ctx context.Context, em *emitter, params json.RawMessage) error {
	var p toolOutputParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}

	call, ok := h.store.findItem(p.ThreadID, p.ItemID)
	if !ok || call.Type != threadkit.ItemClientToolCall {
		return em.sendError("unknown_item", "no pending tool call: "+p.ItemID)
	}

	call.Status = threadkit.ToolCallCompleted
	call.Output = p.Output
	h.store.replaceItem(call)
	if err := em.send(threadkit.StreamEvent{Type: threadkit.EventItemReplaced, Item: &call}); err != nil {
		return err
	}

	if err := em.send(threadkit.StreamEvent{Type: threadkit.EventStreamOptions, AllowCancel: true}); err != nil {
		return err
	}
	reply := fmt.Sprintf("Tool %s answered: %s", call.Name, compactJSON(p.Output))
	if err := h.streamText(ctx, em, p.ThreadID, reply); err != nil {
		return err
	}
	return h.endTurn(em, p.ThreadID)
}

type retryParams struct {
	ThreadID string `json:"thread_id"`
	ItemID   string `json:"item_id"`
}

func (h *handler) retryAfterItem(ctx context.Context, em *emitter, params json.RawMessage) error {
	var p retryParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}

	anchor, ok := h.store.findItem(p.ThreadID, p.ItemID)
	if !ok {
		return em.sendError("unknown_item", "no such item: "+p.ItemID)
	}
	for _, removed := range h.store.truncateAfter(p.ThreadID, p.ItemID) {
		if err := em.send(threadkit.StreamEvent{Type: threadkit.EventItemRemoved, ItemID: removed}); err != nil {
			return err
		}
	}
	return h.runTurn(ctx, em, p.ThreadID, anchor.Text())
}

type actionParams struct {
	ThreadID string           `json:"thread_id"`
	ItemID   string           `json:"item_id"`
	Action   threadkit.Action `json:"action"`
}

func (h *handler) customAction(ctx context.Context, em *emitter, params json.RawMessage) error {
	var p actionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	if err := em.send(threadkit.StreamEvent{Type: threadkit.EventStreamOptions, AllowCancel: true}); err != nil {
		return err
	}
	reply := fmt.Sprintf("Received action %q.", p.Action.Type)
	if err := h.streamText(ctx, em, p.ThreadID, reply); err != nil {
		return err
	}
	return h.endTurn(em, p.ThreadID)
}

// serveJSON answers a non-streaming request kind with one JSON document.
func (h *handler) serveJSON(w http.ResponseWriter, req envelope, log *slog.Logger) {
	var (
		out    any
		status = http.StatusOK
	)

	switch req.Type {
	case "threads.get_by_id":
		var p struct {
			ThreadID string `json:"thread_id"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		thread, ok := h.store.getThread(p.ThreadID)
		if !ok {
			http.Error(w, "no such thread", http.StatusNotFound)
			return
		}
		out = thread

	case "threads.list":
		var p struct {
			Limit int    `json:"limit"`
			After string `json:"after"`
			Order string `json:"order"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out = h.store.listThreads(p.Limit, p.After, p.Order)

	case "threads.update":
		var p struct {
			ThreadID string `json:"thread_id"`
			Title    string `json:"title"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		thread, ok := h.store.updateTitle(p.ThreadID, p.Title)
		if !ok {
			http.Error(w, "no such thread", http.StatusNotFound)
			return
		}
		out = thread

	case "threads.delete":
		var p struct {
			ThreadID string `json:"thread_id"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !h.store.deleteThread(p.ThreadID) {
			http.Error(w, "no such thread", http.StatusNotFound)
			return
		}
		out = struct{}{}

	case "items.list":
		var p struct {
			ThreadID string `json:"thread_id"`
			Limit    int    `json:"limit"`
			After    string `json:"after"`
			Order    string `json:"order"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		page, ok := h.store.listItems(p.ThreadID, p.Limit, p.After, p.Order)
		if !ok {
			http.Error(w, "no such thread", http.StatusNotFound)
			return
		}
		out = page

	case "items.feedback":
		var p struct {
			ThreadID string   `json:"thread_id"`
			ItemIDs  []string `json:"item_ids"`
			Kind     string   `json:"kind"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Info("feedback received", "thread_id", p.ThreadID, "items", len(p.ItemIDs), "kind", p.Kind)
		out = struct{}{}

	case "attachments.create":
		var p struct {
			Name     string `json:"name"`
			MimeType string `json:"mime_type"`
			Size     int64  `json:"size"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		att := threadkit.Attachment{
			ID:        threadkit.GenerateAttachmentID(),
			Name:      p.Name,
			MimeType:  p.MimeType,
			Size:      p.Size,
			UploadURL: "https://uploads.invalid/" + p.Name,
		}
		h.store.putAttachment(att)
		out = att

	case "attachments.delete":
		var p struct {
			AttachmentID string `json:"attachment_id"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !h.store.deleteAttachment(p.AttachmentID) {
			http.Error(w, "no such attachment", http.StatusNotFound)
			return
		}
		out = struct{}{}

	case "audio.transcribe":
		out = struct {
			Text string `json:"text"`
		}{Text: "This is a scripted transcription."}

	default:
		http.Error(w, "unknown request type: "+req.Type, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Warn("encode response", "error", err)
	}
}

func (h *handler) responderHistory(threadID string) []responder.Turn {
	var turns []responder.Turn
	for _, t := range h.store.history(threadID) {
		role := responder.RoleUser
		if t.role == "assistant" {
			role = responder.RoleAssistant
		}
		turns = append(turns, responder.Turn{Role: role, Text: t.text})
	}
	return turns
}

func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	return json.Unmarshal(params, v)
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// emitter writes stream events as server-sent event records.
type emitter struct {
	w http.ResponseWriter
	f http.Flusher

	// sentError remembers whether an error event went out; failed turns
	// get no end-of-turn marker.
	sentError bool
}

func (e *emitter) send(ev threadkit.StreamEvent) error {
	if ev.Type == threadkit.EventError {
		e.sentError = true
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return err
	}
	e.f.Flush()
	return nil
}

func (e *emitter) sendError(code, message string) error {
	return e.send(threadkit.StreamEvent{
		Type:  threadkit.EventError,
		Error: &threadkit.StreamError{Code: code, Message: message},
	})
}
