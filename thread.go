package threadkit

import "time"

// ThreadStatus describes the lifecycle state of a thread.
type ThreadStatus string

const (
	ThreadActive ThreadStatus = "active"
	ThreadLocked ThreadStatus = "locked"
	ThreadClosed ThreadStatus = "closed"
)

// Thread is a persisted conversation identified by a stable identifier.
type Thread struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	Status    ThreadStatus   `json:"status,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Page is one page of a cursor-paginated listing.
// After is the cursor for the next page when HasMore is true.
type Page[T any] struct {
	Data    []T    `json:"data"`
	HasMore bool   `json:"has_more"`
	After   string `json:"after,omitempty"`
}

// Attachment is an uploaded file referenced from user messages.
// The engine passes attachment identifiers through opaquely; it never
// inspects file contents.
type Attachment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type,omitempty"`
	Size      int64  `json:"size,omitempty"`
	UploadURL string `json:"upload_url,omitempty"`
}

// UserMessageInput is the composer payload for a new user message.
type UserMessageInput struct {
	// Text is the plain message text.
	Text string `json:"text"`
	// Attachments lists attachment identifiers to include.
	Attachments []string `json:"attachments,omitempty"`
	// Model optionally overrides the model used for the response.
	Model string `json:"model,omitempty"`
	// Tool optionally pins the response to a named tool.
	Tool string `json:"tool,omitempty"`
}

// FeedbackKind rates one or more thread items.
type FeedbackKind string

const (
	FeedbackPositive FeedbackKind = "positive"
	FeedbackNegative FeedbackKind = "negative"
)
