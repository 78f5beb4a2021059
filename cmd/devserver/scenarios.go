package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spetersoncode/threadkit"
)

const loremParagraph = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. " +
	"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. " +
	"Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris."

// runScenario produces the assistant's side of a turn based on keywords
// in the user text. It is what makes the dev server useful without any
// model provider configured.
func (h *handler) runScenario(ctx context.Context, em *emitter, threadID, text string) error {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "widget"):
		return h.widgetScenario(em, threadID)
	case strings.Contains(lower, "error"):
		return em.send(threadkit.StreamEvent{
			Type: threadkit.EventError,
			Error: &threadkit.StreamError{
				Code:       "scenario_error",
				Message:    "You asked for an error, so here it is.",
				AllowRetry: true,
			},
		})
	case strings.Contains(lower, "tool"):
		return h.toolScenario(em, threadID)
	case strings.Contains(lower, "workflow"):
		return h.workflowScenario(ctx, em, threadID)
	case strings.Contains(lower, "notice"):
		if err := em.send(threadkit.StreamEvent{
			Type:   threadkit.EventNotice,
			Notice: &threadkit.Notice{Level: threadkit.NoticeWarning, Title: "Heads up", Message: "This reply is scripted."},
		}); err != nil {
			return err
		}
		return h.streamText(ctx, em, threadID, "Notice delivered.")
	case strings.Contains(lower, "slow"):
		return h.slowScenario(ctx, em, threadID)
	case strings.Contains(lower, "long"):
		reply := strings.Repeat(loremParagraph+"\n\n", 4)
		return h.streamText(ctx, em, threadID, strings.TrimSpace(reply))
	case strings.Contains(lower, "sources"), strings.Contains(lower, "annotations"):
		return h.sourcesScenario(ctx, em, threadID)
	case strings.Contains(lower, "confetti"):
		if err := em.send(threadkit.StreamEvent{
			Type:   threadkit.EventClientEffect,
			Effect: json.RawMessage(`{"kind":"confetti"}`),
		}); err != nil {
			return err
		}
		return h.streamText(ctx, em, threadID, "Confetti launched.")
	default:
		if h.responder != nil {
			return h.liveTurn(ctx, em, threadID)
		}
		return h.streamText(ctx, em, threadID, fmt.Sprintf("You said: %q. %s", text, loremParagraph))
	}
}

// streamText emits one assistant message as a stream of word deltas and
// finalizes it.
func (h *handler) streamText(ctx context.Context, em *emitter, threadID, text string) error {
	item := threadkit.ThreadItem{
		ID:        threadkit.GenerateItemID("msg"),
		ThreadID:  threadID,
		Type:      threadkit.ItemAssistantMessage,
		CreatedAt: time.Now().UTC(),
	}
	if err := em.send(threadkit.StreamEvent{Type: threadkit.EventItemAdded, Item: &item}); err != nil {
		return err
	}

	// Deltas are bracketed by an empty part announcement and the
	// completed part.
	empty := threadkit.NewTextPart("")
	if err := em.send(threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: item.ID,
		Update: &threadkit.ItemUpdate{Type: threadkit.UpdateContentPartAdded, Content: &empty},
	}); err != nil {
		return err
	}

	words := strings.SplitAfter(text, " ")
	for _, word := range words {
		if err := sleepCtx(ctx, 25*time.Millisecond); err != nil {
			return err
		}
		if err := em.send(threadkit.StreamEvent{
			Type:   threadkit.EventItemUpdated,
			ItemID: item.ID,
			Update: &threadkit.ItemUpdate{Type: threadkit.UpdateContentPartTextDelta, Delta: word},
		}); err != nil {
			return err
		}
	}

	full := threadkit.NewTextPart(text)
	if err := em.send(threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: item.ID,
		Update: &threadkit.ItemUpdate{Type: threadkit.UpdateContentPartDone, Content: &full},
	}); err != nil {
		return err
	}

	item.Content = []threadkit.ContentPart{full}
	h.store.appendItem(item)
	return em.send(threadkit.StreamEvent{Type: threadkit.EventItemDone, Item: &item})
}

func (h *handler) widgetScenario(em *emitter, threadID string) error {
	widget := json.RawMessage(`{"type":"Card","children":[{"type":"Title","value":"Scripted widget"},{"type":"Text","value":"Rendered by the embedding application."}]}`)
	item := threadkit.ThreadItem{
		ID:        threadkit.GenerateItemID("widget"),
		ThreadID:  threadID,
		Type:      threadkit.ItemWidget,
		CreatedAt: time.Now().UTC(),
		Widget:    widget,
		CopyText:  "Scripted widget",
	}
	h.store.appendItem(item)
	return em.send(threadkit.StreamEvent{Type: threadkit.EventItemDone, Item: &item})
}

// toolScenario emits a pending client tool call; the turn continues when
// the client answers with threads.add_client_tool_output.
func (h *handler) toolScenario(em *emitter, threadID string) error {
	item := threadkit.ThreadItem{
		ID:        threadkit.GenerateItemID("ctc"),
		ThreadID:  threadID,
		Type:      threadkit.ItemClientToolCall,
		CreatedAt: time.Now().UTC(),
		Status:    threadkit.ToolCallPending,
		CallID:    threadkit.GenerateItemID("call"),
		Name:      "get_weather",
		Arguments: json.RawMessage(`{"city":"Oslo"}`),
	}
	h.store.appendItem(item)
	return em.send(threadkit.StreamEvent{Type: threadkit.EventItemDone, Item: &item})
}

func (h *handler) workflowScenario(ctx context.Context, em *emitter, threadID string) error {
	item := threadkit.ThreadItem{
		ID:        threadkit.GenerateItemID("wf"),
		ThreadID:  threadID,
		Type:      threadkit.ItemWorkflow,
		CreatedAt: time.Now().UTC(),
		Workflow:  &threadkit.Workflow{Type: "reasoning"},
	}
	if err := em.send(threadkit.StreamEvent{Type: threadkit.EventItemAdded, Item: &item}); err != nil {
		return err
	}

	tasks := []threadkit.Task{
		{Type: threadkit.TaskSearch, Title: "Searching the web", StatusIndicator: threadkit.TaskLoading, Queries: []string{"streaming conversations"}},
		{Type: threadkit.TaskThought, Title: "Reading results", StatusIndicator: threadkit.TaskLoading, Content: "Comparing the top answers."},
	}
	for i, task := range tasks {
		if err := sleepCtx(ctx, 150*time.Millisecond); err != nil {
			return err
		}
		t := task
		if err := em.send(threadkit.StreamEvent{
			Type:   threadkit.EventItemUpdated,
			ItemID: item.ID,
			Update: &threadkit.ItemUpdate{Type: threadkit.UpdateWorkflowTaskAdded, TaskIndex: i, Task: &t},
		}); err != nil {
			return err
		}
		done := task
		done.StatusIndicator = threadkit.TaskComplete
		if err := em.send(threadkit.StreamEvent{
			Type:   threadkit.EventItemUpdated,
			ItemID: item.ID,
			Update: &threadkit.ItemUpdate{Type: threadkit.UpdateWorkflowTaskUpdated, TaskIndex: i, Task: &done},
		}); err != nil {
			return err
		}
		item.Workflow.Tasks = append(item.Workflow.Tasks, done)
	}

	item.Workflow.Summary = "Worked through 2 steps"
	h.store.appendItem(item)
	if err := em.send(threadkit.StreamEvent{Type: threadkit.EventItemDone, Item: &item}); err != nil {
		return err
	}
	return h.streamText(ctx, em, threadID, "Here is what the workflow found: "+loremParagraph)
}

func (h *handler) slowScenario(ctx context.Context, em *emitter, threadID string) error {
	stages := []string{"Warming up", "Thinking hard", "Almost there"}
	for _, stage := range stages {
		if err := em.send(threadkit.StreamEvent{
			Type:     threadkit.EventProgressUpdate,
			Progress: &threadkit.Progress{Text: stage},
		}); err != nil {
			return err
		}
		if err := sleepCtx(ctx, 600*time.Millisecond); err != nil {
			return err
		}
	}
	return h.streamText(ctx, em, threadID, "Sorry for the wait. "+loremParagraph)
}

func (h *handler) sourcesScenario(ctx context.Context, em *emitter, threadID string) error {
	item := threadkit.ThreadItem{
		ID:        threadkit.GenerateItemID("msg"),
		ThreadID:  threadID,
		Type:      threadkit.ItemAssistantMessage,
		CreatedAt: time.Now().UTC(),
	}
	if err := em.send(threadkit.StreamEvent{Type: threadkit.EventItemAdded, Item: &item}); err != nil {
		return err
	}

	text := "According to the documentation, streams reconnect automatically."
	part := threadkit.NewTextPart(text)
	part.Annotations = []threadkit.Annotation{
		{Index: 13, Source: threadkit.Source{Type: threadkit.SourceURL, Title: "Documentation", URL: "https://example.com/docs"}},
	}
	if err := em.send(threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: item.ID,
		Update: &threadkit.ItemUpdate{Type: threadkit.UpdateContentPartDone, Content: &part},
	}); err != nil {
		return err
	}
	if err := sleepCtx(ctx, 50*time.Millisecond); err != nil {
		return err
	}

	item.Content = []threadkit.ContentPart{part}
	h.store.appendItem(item)
	return em.send(threadkit.StreamEvent{Type: threadkit.EventItemDone, Item: &item})
}

// liveTurn streams a reply from the configured model provider.
func (h *handler) liveTurn(ctx context.Context, em *emitter, threadID string) error {
	item := threadkit.ThreadItem{
		ID:        threadkit.GenerateItemID("msg"),
		ThreadID:  threadID,
		Type:      threadkit.ItemAssistantMessage,
		CreatedAt: time.Now().UTC(),
	}
	if err := em.send(threadkit.StreamEvent{Type: threadkit.EventItemAdded, Item: &item}); err != nil {
		return err
	}
	empty := threadkit.NewTextPart("")
	if err := em.send(threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: item.ID,
		Update: &threadkit.ItemUpdate{Type: threadkit.UpdateContentPartAdded, Content: &empty},
	}); err != nil {
		return err
	}

	history := h.responderHistory(threadID)
	var full strings.Builder
	err := h.responder.Respond(ctx, history, func(delta string) error {
		full.WriteString(delta)
		return em.send(threadkit.StreamEvent{
			Type:   threadkit.EventItemUpdated,
			ItemID: item.ID,
			Update: &threadkit.ItemUpdate{Type: threadkit.UpdateContentPartTextDelta, Delta: delta},
		})
	})
	if err != nil {
		return em.send(threadkit.StreamEvent{
			Type:  threadkit.EventError,
			Error: &threadkit.StreamError{Code: "provider_error", Message: err.Error(), AllowRetry: true},
		})
	}

	part := threadkit.NewTextPart(full.String())
	if err := em.send(threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: item.ID,
		Update: &threadkit.ItemUpdate{Type: threadkit.UpdateContentPartDone, Content: &part},
	}); err != nil {
		return err
	}

	item.Content = []threadkit.ContentPart{part}
	h.store.appendItem(item)
	return em.send(threadkit.StreamEvent{Type: threadkit.EventItemDone, Item: &item})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
