package threadkit

import (
	"encoding/json"
	"time"
)

// ItemType identifies the kind of a thread item.
type ItemType string

const (
	ItemUserMessage      ItemType = "user_message"
	ItemAssistantMessage ItemType = "assistant_message"
	ItemClientToolCall   ItemType = "client_tool_call"
	ItemWidget           ItemType = "widget"
	ItemImage            ItemType = "image"
	ItemTask             ItemType = "task"
	ItemWorkflow         ItemType = "workflow"
	ItemEndOfTurn        ItemType = "end_of_turn"
)

// ContentPartType identifies the kind of a message content part.
type ContentPartType string

const (
	ContentText       ContentPartType = "text"
	ContentAttachment ContentPartType = "attachment"
)

// SourceType identifies where an annotation source points.
type SourceType string

const (
	SourceURL  SourceType = "url"
	SourceFile SourceType = "file"
)

// Source describes the origin of an annotation or search result.
type Source struct {
	Type        SourceType `json:"type"`
	Title       string     `json:"title,omitempty"`
	URL         string     `json:"url,omitempty"`
	Filename    string     `json:"filename,omitempty"`
	Attribution string     `json:"attribution,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Annotation links a span of assistant text to a source.
type Annotation struct {
	Index  int    `json:"index"`
	Source Source `json:"source"`
}

// ContentPart is one part of a message's content sequence. Assistant
// messages hold an ordered list of parts that are appended to
// independently while streaming.
type ContentPart struct {
	Type        ContentPartType `json:"type"`
	Text        string          `json:"text,omitempty"`
	Annotations []Annotation    `json:"annotations,omitempty"`
	// AttachmentID references an uploaded attachment for attachment parts.
	AttachmentID string `json:"attachment_id,omitempty"`
}

// NewTextPart creates a text content part.
func NewTextPart(text string) ContentPart {
	return ContentPart{Type: ContentText, Text: text}
}

// TaskStatus indicates the progress state of a workflow task.
type TaskStatus string

const (
	TaskLoading  TaskStatus = "loading"
	TaskComplete TaskStatus = "complete"
	TaskFailed   TaskStatus = "failed"
)

// TaskType identifies the kind of a workflow task.
type TaskType string

const (
	TaskCustom  TaskType = "custom"
	TaskSearch  TaskType = "search"
	TaskThought TaskType = "thought"
)

// Task is one step inside a workflow item.
type Task struct {
	Type            TaskType   `json:"type"`
	Title           string     `json:"title,omitempty"`
	Icon            string     `json:"icon,omitempty"`
	StatusIndicator TaskStatus `json:"status_indicator,omitempty"`
	// Content holds the body of thought tasks.
	Content string `json:"content,omitempty"`
	// Queries and Sources describe search tasks.
	Queries []string `json:"queries,omitempty"`
	Sources []Source `json:"sources,omitempty"`
}

// Workflow is an ordered sequence of tasks rendered as one item.
type Workflow struct {
	Type    string `json:"type"`
	Summary string `json:"summary,omitempty"`
	Tasks   []Task `json:"tasks"`
}

// ToolCallStatus indicates whether a client tool call has been answered.
type ToolCallStatus string

const (
	ToolCallPending   ToolCallStatus = "pending"
	ToolCallCompleted ToolCallStatus = "completed"
)

// ThreadItem is one discrete unit within a thread. It is a tagged union:
// Type selects which payload fields are meaningful. Unused fields stay at
// their zero value and are omitted on the wire.
type ThreadItem struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Type      ItemType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`

	// Content holds message parts for user and assistant messages.
	Content []ContentPart `json:"content,omitempty"`

	// Client tool call fields.
	Status    ToolCallStatus  `json:"status,omitempty"`
	CallID    string          `json:"call_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`

	// Widget holds the opaque widget definition for widget items. The
	// engine never interprets it.
	Widget   json.RawMessage `json:"widget,omitempty"`
	CopyText string          `json:"copy_text,omitempty"`

	// ImageURL holds the location of a generated image.
	ImageURL string `json:"image_url,omitempty"`

	// Task and Workflow payloads.
	Task     *Task     `json:"task,omitempty"`
	Workflow *Workflow `json:"workflow,omitempty"`
}

// Text concatenates the text of all content parts. It is the rendered
// plain-text form of a message item.
func (it ThreadItem) Text() string {
	var out string
	for _, part := range it.Content {
		out += part.Text
	}
	return out
}
