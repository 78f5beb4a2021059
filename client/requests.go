package client

import (
	"context"
	"encoding/json"

	"github.com/spetersoncode/threadkit"
)

// RequestType identifies a protocol request kind. The set is closed:
// servers reject unknown kinds.
type RequestType string

// Streaming request kinds. These answer with an event-stream body.
const (
	RequestThreadsCreate              RequestType = "threads.create"
	RequestThreadsAddUserMessage      RequestType = "threads.add_user_message"
	RequestThreadsAddClientToolOutput RequestType = "threads.add_client_tool_output"
	RequestThreadsRetryAfterItem      RequestType = "threads.retry_after_item"
	RequestThreadsCustomAction        RequestType = "threads.custom_action"
)

// Non-streaming request kinds. These answer with a single JSON document.
const (
	RequestThreadsGetByID     RequestType = "threads.get_by_id"
	RequestThreadsList        RequestType = "threads.list"
	RequestThreadsUpdate      RequestType = "threads.update"
	RequestThreadsDelete      RequestType = "threads.delete"
	RequestItemsList          RequestType = "items.list"
	RequestItemsFeedback      RequestType = "items.feedback"
	RequestAttachmentsCreate  RequestType = "attachments.create"
	RequestAttachmentsDelete  RequestType = "attachments.delete"
	RequestAudioTranscribe    RequestType = "audio.transcribe"
)

// ListParams selects a page of a cursor-paginated listing.
type ListParams struct {
	Limit int    `json:"limit,omitempty"`
	After string `json:"after,omitempty"`
	// Order is "asc" or "desc"; servers default to ascending.
	Order string `json:"order,omitempty"`
}

// CreateAttachmentParams registers an upload.
type CreateAttachmentParams struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

type createThreadParams struct {
	Input threadkit.UserMessageInput `json:"input"`
}

type addUserMessageParams struct {
	ThreadID string                     `json:"thread_id"`
	Input    threadkit.UserMessageInput `json:"input"`
}

type addClientToolOutputParams struct {
	ThreadID string          `json:"thread_id"`
	ItemID   string          `json:"item_id"`
	Output   json.RawMessage `json:"output"`
}

type retryAfterItemParams struct {
	ThreadID string `json:"thread_id"`
	ItemID   string `json:"item_id"`
}

type customActionParams struct {
	ThreadID string           `json:"thread_id"`
	ItemID   string           `json:"item_id,omitempty"`
	Action   threadkit.Action `json:"action"`
}

type threadIDParams struct {
	ThreadID string `json:"thread_id"`
}

type updateThreadParams struct {
	ThreadID string `json:"thread_id"`
	Title    string `json:"title"`
}

type listItemsParams struct {
	ThreadID string `json:"thread_id"`
	ListParams
}

type feedbackParams struct {
	ThreadID string                 `json:"thread_id"`
	ItemIDs  []string               `json:"item_ids"`
	Kind     threadkit.FeedbackKind `json:"kind"`
}

type attachmentIDParams struct {
	AttachmentID string `json:"attachment_id"`
}

type transcribeParams struct {
	Audio    []byte `json:"audio"` // base64 on the wire
	MimeType string `json:"mime_type,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}

// CreateThread starts a new thread from the given user message and
// streams the server's response events.
func (c *Client) CreateThread(ctx context.Context, input threadkit.UserMessageInput) (<-chan StreamMessage, error) {
	return c.stream(ctx, RequestThreadsCreate, createThreadParams{Input: input})
}

// AddUserMessage appends a user message to an existing thread and
// streams the server's response events.
func (c *Client) AddUserMessage(ctx context.Context, threadID string, input threadkit.UserMessageInput) (<-chan StreamMessage, error) {
	return c.stream(ctx, RequestThreadsAddUserMessage, addUserMessageParams{ThreadID: threadID, Input: input})
}

// AddClientToolOutput answers a pending client tool call and streams the
// continuation of the turn.
func (c *Client) AddClientToolOutput(ctx context.Context, threadID, itemID string, output json.RawMessage) (<-chan StreamMessage, error) {
	return c.stream(ctx, RequestThreadsAddClientToolOutput, addClientToolOutputParams{ThreadID: threadID, ItemID: itemID, Output: output})
}

// RetryAfterItem re-issues the response stream anchored at a prior item.
func (c *Client) RetryAfterItem(ctx context.Context, threadID, itemID string) (<-chan StreamMessage, error) {
	return c.stream(ctx, RequestThreadsRetryAfterItem, retryAfterItemParams{ThreadID: threadID, ItemID: itemID})
}

// CustomAction forwards an application-defined action and streams any
// resulting events. ItemID optionally names the originating widget item.
func (c *Client) CustomAction(ctx context.Context, threadID, itemID string, action threadkit.Action) (<-chan StreamMessage, error) {
	return c.stream(ctx, RequestThreadsCustomAction, customActionParams{ThreadID: threadID, ItemID: itemID, Action: action})
}

// GetThread fetches one thread's metadata.
func (c *Client) GetThread(ctx context.Context, threadID string) (*threadkit.Thread, error) {
	var out threadkit.Thread
	if err := c.do(ctx, RequestThreadsGetByID, threadIDParams{ThreadID: threadID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListThreads fetches one page of threads.
func (c *Client) ListThreads(ctx context.Context, params ListParams) (*threadkit.Page[threadkit.Thread], error) {
	var out threadkit.Page[threadkit.Thread]
	if err := c.do(ctx, RequestThreadsList, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateThread changes a thread's title and returns the updated thread.
func (c *Client) UpdateThread(ctx context.Context, threadID, title string) (*threadkit.Thread, error) {
	var out threadkit.Thread
	if err := c.do(ctx, RequestThreadsUpdate, updateThreadParams{ThreadID: threadID, Title: title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteThread removes a thread and all its items.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	return c.do(ctx, RequestThreadsDelete, threadIDParams{ThreadID: threadID}, nil)
}

// ListItems fetches one page of a thread's items.
func (c *Client) ListItems(ctx context.Context, threadID string, params ListParams) (*threadkit.Page[threadkit.ThreadItem], error) {
	var out threadkit.Page[threadkit.ThreadItem]
	if err := c.do(ctx, RequestItemsList, listItemsParams{ThreadID: threadID, ListParams: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitFeedback rates one or more items.
func (c *Client) SubmitFeedback(ctx context.Context, threadID string, itemIDs []string, kind threadkit.FeedbackKind) error {
	return c.do(ctx, RequestItemsFeedback, feedbackParams{ThreadID: threadID, ItemIDs: itemIDs, Kind: kind}, nil)
}

// CreateAttachment registers an attachment and returns its descriptor,
// including the upload location when the server provides one.
func (c *Client) CreateAttachment(ctx context.Context, params CreateAttachmentParams) (*threadkit.Attachment, error) {
	var out threadkit.Attachment
	if err := c.do(ctx, RequestAttachmentsCreate, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAttachment removes an attachment.
func (c *Client) DeleteAttachment(ctx context.Context, attachmentID string) error {
	return c.do(ctx, RequestAttachmentsDelete, attachmentIDParams{AttachmentID: attachmentID}, nil)
}

// Transcribe converts recorded audio to text for the composer.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	var out transcription
	if err := c.do(ctx, RequestAudioTranscribe, transcribeParams{Audio: audio, MimeType: mimeType}, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}
