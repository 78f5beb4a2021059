package threadkit

import "encoding/json"

// EventType identifies the kind of a stream event.
type EventType string

const (
	// EventThreadCreated announces a new thread; it always precedes any
	// item events for that thread.
	EventThreadCreated EventType = "thread.created"

	// EventThreadUpdated carries changed thread metadata.
	EventThreadUpdated EventType = "thread.updated"

	// EventItemAdded announces an item that will receive updates before
	// it is finalized.
	EventItemAdded EventType = "thread.item.added"

	// EventItemUpdated carries an incremental update to a pending item.
	EventItemUpdated EventType = "thread.item.updated"

	// EventItemDone finalizes an item with its complete payload.
	EventItemDone EventType = "thread.item.done"

	// EventItemRemoved deletes an item, pending or finalized.
	EventItemRemoved EventType = "thread.item.removed"

	// EventItemReplaced swaps an item's payload in place.
	EventItemReplaced EventType = "thread.item.replaced"

	// EventStreamOptions configures the current stream, e.g. whether the
	// server accepts cancellation.
	EventStreamOptions EventType = "stream_options"

	// EventProgressUpdate updates the transient progress indicator.
	EventProgressUpdate EventType = "progress_update"

	// EventError is a server-declared application failure. It ends the
	// turn but not the projection.
	EventError EventType = "error"

	// EventNotice carries an informational banner for the user.
	EventNotice EventType = "notice"

	// EventClientEffect asks the embedding application to perform an
	// opaque side effect.
	EventClientEffect EventType = "client_effect"
)

// UpdateType identifies the kind of an item update.
type UpdateType string

const (
	UpdateContentPartAdded     UpdateType = "assistant_message.content_part.added"
	UpdateContentPartTextDelta UpdateType = "assistant_message.content_part.text_delta"
	UpdateContentPartDone      UpdateType = "assistant_message.content_part.done"
	UpdateWorkflowTaskAdded    UpdateType = "workflow.task.added"
	UpdateWorkflowTaskUpdated  UpdateType = "workflow.task.updated"
)

// ItemUpdate is an incremental update addressed to one pending item.
// Type selects which fields are meaningful.
type ItemUpdate struct {
	Type UpdateType `json:"type"`

	// ContentIndex addresses the content part for assistant message
	// updates; Delta carries streamed text, Content the full part.
	ContentIndex int          `json:"content_index,omitempty"`
	Delta        string       `json:"delta,omitempty"`
	Content      *ContentPart `json:"content,omitempty"`

	// TaskIndex and Task describe workflow task updates.
	TaskIndex int   `json:"task_index,omitempty"`
	Task      *Task `json:"task,omitempty"`
}

// StreamError is the payload of an error event: a server-declared
// application failure with a machine-checkable code.
type StreamError struct {
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	AllowRetry bool   `json:"allow_retry,omitempty"`
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// NoticeLevel grades a notice event.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeDanger  NoticeLevel = "danger"
)

// Notice is an informational banner emitted by the server.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title,omitempty"`
	Message string      `json:"message"`
}

// Progress is the transient progress indicator shown while the server
// works on a response.
type Progress struct {
	Icon string `json:"icon,omitempty"`
	Text string `json:"text"`
}

// StreamEvent is one decoded record from the event channel. It is a
// tagged union: Type selects which payload fields are meaningful.
type StreamEvent struct {
	Type EventType `json:"type"`

	// Thread carries the thread for thread.created / thread.updated.
	Thread *Thread `json:"thread,omitempty"`

	// Item carries the full item for added / done / replaced.
	Item *ThreadItem `json:"item,omitempty"`

	// ItemID addresses the target of updated / removed events.
	ItemID string `json:"item_id,omitempty"`

	// Update carries the delta for thread.item.updated.
	Update *ItemUpdate `json:"update,omitempty"`

	// AllowCancel is set by stream_options events.
	AllowCancel bool `json:"allow_cancel,omitempty"`

	// Progress carries the payload of progress_update events.
	Progress *Progress `json:"progress,omitempty"`

	// Error carries the payload of error events.
	Error *StreamError `json:"error,omitempty"`

	// Notice carries the payload of notice events.
	Notice *Notice `json:"notice,omitempty"`

	// Effect is the opaque payload of client_effect events.
	Effect json.RawMessage `json:"effect,omitempty"`
}
