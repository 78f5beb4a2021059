package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/threadkit"
)

func createdEvent(threadID string) threadkit.StreamEvent {
	return threadkit.StreamEvent{
		Type: threadkit.EventThreadCreated,
		Thread: &threadkit.Thread{
			ID:        threadID,
			CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
	}
}

func addedEvent(threadID, itemID string, itemType threadkit.ItemType) threadkit.StreamEvent {
	return threadkit.StreamEvent{
		Type: threadkit.EventItemAdded,
		Item: &threadkit.ThreadItem{ID: itemID, ThreadID: threadID, Type: itemType},
	}
}

func deltaEvent(itemID, delta string) threadkit.StreamEvent {
	return threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: itemID,
		Update: &threadkit.ItemUpdate{
			Type:  threadkit.UpdateContentPartTextDelta,
			Delta: delta,
		},
	}
}

func doneEvent(threadID, itemID string, itemType threadkit.ItemType, text string) threadkit.StreamEvent {
	return threadkit.StreamEvent{
		Type: threadkit.EventItemDone,
		Item: &threadkit.ThreadItem{
			ID:       itemID,
			ThreadID: threadID,
			Type:     itemType,
			Content:  []threadkit.ContentPart{threadkit.NewTextPart(text)},
		},
	}
}

func TestThreadCreatedBecomesCurrent(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))

	snap := s.Snapshot()
	assert.Equal(t, "thread-1", snap.CurrentThreadID)
	cur, ok := snap.Current()
	require.True(t, ok)
	assert.Equal(t, "thread-1", cur.Thread.ID)
}

func TestAddedUpdatedDoneLifecycle(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(addedEvent("thread-1", "msg-1", threadkit.ItemAssistantMessage))

	snap := s.Snapshot()
	cur, _ := snap.Current()
	require.Len(t, cur.Pending, 1)
	assert.Empty(t, cur.Items)

	s.Apply(deltaEvent("msg-1", "Hello"))
	s.Apply(deltaEvent("msg-1", ", "))
	s.Apply(deltaEvent("msg-1", "world"))

	cur, _ = s.Snapshot().Current()
	require.Len(t, cur.Pending, 1)
	assert.Equal(t, "Hello, world", cur.Pending[0].Text())

	s.Apply(doneEvent("thread-1", "msg-1", threadkit.ItemAssistantMessage, "Hello, world!"))

	cur, _ = s.Snapshot().Current()
	assert.Empty(t, cur.Pending)
	require.Len(t, cur.Items, 1)
	assert.Equal(t, "Hello, world!", cur.Items[0].Text())
}

func TestContentPartAddedAndDone(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(addedEvent("thread-1", "msg-1", threadkit.ItemAssistantMessage))

	part := threadkit.NewTextPart("")
	s.Apply(threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: "msg-1",
		Update: &threadkit.ItemUpdate{
			Type:         threadkit.UpdateContentPartAdded,
			ContentIndex: 0,
			Content:      &part,
		},
	})
	s.Apply(deltaEvent("msg-1", "draft"))

	final := threadkit.NewTextPart("final text")
	final.Annotations = []threadkit.Annotation{{Index: 0, Source: threadkit.Source{Type: threadkit.SourceURL, URL: "https://example.com"}}}
	s.Apply(threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: "msg-1",
		Update: &threadkit.ItemUpdate{
			Type:         threadkit.UpdateContentPartDone,
			ContentIndex: 0,
			Content:      &final,
		},
	})

	cur, _ := s.Snapshot().Current()
	require.Len(t, cur.Pending, 1)
	require.Len(t, cur.Pending[0].Content, 1)
	assert.Equal(t, "final text", cur.Pending[0].Content[0].Text)
	assert.Len(t, cur.Pending[0].Content[0].Annotations, 1)
}

func TestDeltaForSecondContentPart(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(addedEvent("thread-1", "msg-1", threadkit.ItemAssistantMessage))
	s.Apply(deltaEvent("msg-1", "first"))

	s.Apply(threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: "msg-1",
		Update: &threadkit.ItemUpdate{
			Type:         threadkit.UpdateContentPartTextDelta,
			ContentIndex: 1,
			Delta:        "second",
		},
	})

	cur, _ := s.Snapshot().Current()
	require.Len(t, cur.Pending[0].Content, 2)
	assert.Equal(t, "first", cur.Pending[0].Content[0].Text)
	assert.Equal(t, "second", cur.Pending[0].Content[1].Text)
}

func TestWorkflowTaskUpdates(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(addedEvent("thread-1", "wf-1", threadkit.ItemWorkflow))

	s.Apply(threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: "wf-1",
		Update: &threadkit.ItemUpdate{
			Type:      threadkit.UpdateWorkflowTaskAdded,
			TaskIndex: 0,
			Task:      &threadkit.Task{Type: threadkit.TaskSearch, Title: "Searching", StatusIndicator: threadkit.TaskLoading},
		},
	})
	s.Apply(threadkit.StreamEvent{
		Type:   threadkit.EventItemUpdated,
		ItemID: "wf-1",
		Update: &threadkit.ItemUpdate{
			Type:      threadkit.UpdateWorkflowTaskUpdated,
			TaskIndex: 0,
			Task:      &threadkit.Task{Type: threadkit.TaskSearch, Title: "Searching", StatusIndicator: threadkit.TaskComplete},
		},
	})

	cur, _ := s.Snapshot().Current()
	require.Len(t, cur.Pending, 1)
	require.NotNil(t, cur.Pending[0].Workflow)
	require.Len(t, cur.Pending[0].Workflow.Tasks, 1)
	assert.Equal(t, threadkit.TaskComplete, cur.Pending[0].Workflow.Tasks[0].StatusIndicator)
}

func TestUpdateForUnknownItemIsIgnored(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(deltaEvent("msg-missing", "lost"))

	cur, _ := s.Snapshot().Current()
	assert.Empty(t, cur.Pending)
	assert.Empty(t, cur.Items)
}

func TestDoneWithoutAddedAppends(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(doneEvent("thread-1", "msg-1", threadkit.ItemUserMessage, "hello"))
	s.Apply(threadkit.StreamEvent{
		Type: threadkit.EventItemDone,
		Item: &threadkit.ThreadItem{ID: "widget-1", ThreadID: "thread-1", Type: threadkit.ItemWidget},
	})

	cur, _ := s.Snapshot().Current()
	require.Len(t, cur.Items, 2)
	assert.Equal(t, "msg-1", cur.Items[0].ID)
	assert.Equal(t, "widget-1", cur.Items[1].ID)
}

func TestItemsKeepPositionsWhenDoneOutOfOrder(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(addedEvent("thread-1", "msg-1", threadkit.ItemAssistantMessage))
	s.Apply(addedEvent("thread-1", "wf-1", threadkit.ItemWorkflow))

	// The later item finalizes first; order still follows announcement.
	s.Apply(doneEvent("thread-1", "wf-1", threadkit.ItemWorkflow, ""))
	s.Apply(doneEvent("thread-1", "msg-1", threadkit.ItemAssistantMessage, "answer"))

	cur, _ := s.Snapshot().Current()
	require.Len(t, cur.Items, 2)
	assert.Equal(t, "msg-1", cur.Items[0].ID)
	assert.Equal(t, "wf-1", cur.Items[1].ID)
}

func TestRemovedDeletesPendingAndFinalized(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(doneEvent("thread-1", "msg-1", threadkit.ItemUserMessage, "hi"))
	s.Apply(addedEvent("thread-1", "msg-2", threadkit.ItemAssistantMessage))

	s.Apply(threadkit.StreamEvent{Type: threadkit.EventItemRemoved, ItemID: "msg-1"})
	s.Apply(threadkit.StreamEvent{Type: threadkit.EventItemRemoved, ItemID: "msg-2"})
	s.Apply(threadkit.StreamEvent{Type: threadkit.EventItemRemoved, ItemID: "msg-nope"})

	cur, _ := s.Snapshot().Current()
	assert.Empty(t, cur.Items)
	assert.Empty(t, cur.Pending)
}

func TestReplacedSwapsPayloadInPlace(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(doneEvent("thread-1", "msg-1", threadkit.ItemUserMessage, "before"))
	s.Apply(doneEvent("thread-1", "msg-2", threadkit.ItemAssistantMessage, "stays"))

	s.Apply(threadkit.StreamEvent{
		Type: threadkit.EventItemReplaced,
		Item: &threadkit.ThreadItem{
			ID:       "msg-1",
			ThreadID: "thread-1",
			Type:     threadkit.ItemUserMessage,
			Content:  []threadkit.ContentPart{threadkit.NewTextPart("after")},
		},
	})

	cur, _ := s.Snapshot().Current()
	require.Len(t, cur.Items, 2)
	assert.Equal(t, "after", cur.Items[0].Text())
	assert.Equal(t, "stays", cur.Items[1].Text())
}

func TestThreadUpdatedMergesFields(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(threadkit.StreamEvent{
		Type:   threadkit.EventThreadUpdated,
		Thread: &threadkit.Thread{ID: "thread-1", Title: "Trip planning"},
	})

	cur, _ := s.Snapshot().Current()
	assert.Equal(t, "Trip planning", cur.Thread.Title)
	assert.False(t, cur.Thread.CreatedAt.IsZero())
}

func TestErrorEventEndsStreaming(t *testing.T) {
	s := New()
	s.BeginStream()
	s.Apply(threadkit.StreamEvent{Type: threadkit.EventProgressUpdate, Progress: &threadkit.Progress{Text: "Thinking"}})
	require.NotNil(t, s.Snapshot().Progress)

	s.Apply(threadkit.StreamEvent{
		Type:  threadkit.EventError,
		Error: &threadkit.StreamError{Code: "rate_limited", Message: "slow down", AllowRetry: true},
	})

	snap := s.Snapshot()
	assert.False(t, snap.Streaming)
	assert.Nil(t, snap.Progress)
	require.NotNil(t, snap.Err)
	assert.Equal(t, "rate_limited", snap.Err.Code)
}

func TestBeginStreamClearsPriorError(t *testing.T) {
	s := New()
	s.EndStream(assert.AnError)
	require.NotNil(t, s.Snapshot().Err)

	s.BeginStream()
	snap := s.Snapshot()
	assert.True(t, snap.Streaming)
	assert.Nil(t, snap.Err)
}

func TestCancelLeavesPendingItemsPending(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.BeginStream()
	s.Apply(addedEvent("thread-1", "msg-1", threadkit.ItemAssistantMessage))
	s.Apply(deltaEvent("msg-1", "partial"))

	s.EndStream(nil)

	snap := s.Snapshot()
	assert.False(t, snap.Streaming)
	assert.Nil(t, snap.Err)
	cur, _ := snap.Current()
	require.Len(t, cur.Pending, 1)
	assert.Equal(t, "partial", cur.Pending[0].Text())
}

func TestStreamOptionsAndNotices(t *testing.T) {
	s := New()
	s.Apply(threadkit.StreamEvent{Type: threadkit.EventStreamOptions, AllowCancel: true})
	s.Apply(threadkit.StreamEvent{
		Type:   threadkit.EventNotice,
		Notice: &threadkit.Notice{Level: threadkit.NoticeWarning, Message: "degraded"},
	})

	snap := s.Snapshot()
	assert.True(t, snap.AllowCancel)
	require.Len(t, snap.Notices, 1)
	assert.Equal(t, threadkit.NoticeWarning, snap.Notices[0].Level)

	s.ClearNotices()
	assert.Empty(t, s.Snapshot().Notices)
}

func TestSeedThreadAndSwitch(t *testing.T) {
	s := New()
	s.SeedThread(
		threadkit.Thread{ID: "thread-9", Title: "History"},
		[]threadkit.ThreadItem{
			{ID: "msg-1", ThreadID: "thread-9", Type: threadkit.ItemUserMessage},
			{ID: "msg-2", ThreadID: "thread-9", Type: threadkit.ItemAssistantMessage},
		},
	)
	s.SetCurrentThread("thread-9")

	cur, ok := s.Snapshot().Current()
	require.True(t, ok)
	assert.Equal(t, "History", cur.Thread.Title)
	require.Len(t, cur.Items, 2)
	assert.Equal(t, "msg-1", cur.Items[0].ID)

	s.SetCurrentThread("thread-unknown")
	assert.Equal(t, "thread-9", s.Snapshot().CurrentThreadID)

	s.SetCurrentThread("")
	assert.Empty(t, s.Snapshot().CurrentThreadID)
}

func TestDeleteThreadClearsSelection(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.DeleteThread("thread-1")

	snap := s.Snapshot()
	assert.Empty(t, snap.CurrentThreadID)
	assert.Empty(t, snap.Threads)
}

func TestSnapshotIsImmutable(t *testing.T) {
	s := New()
	s.Apply(createdEvent("thread-1"))
	s.Apply(addedEvent("thread-1", "msg-1", threadkit.ItemAssistantMessage))
	s.Apply(deltaEvent("msg-1", "before"))

	before, _ := s.Snapshot().Current()
	s.Apply(deltaEvent("msg-1", " after"))

	assert.Equal(t, "before", before.Pending[0].Text())
	after, _ := s.Snapshot().Current()
	assert.Equal(t, "before after", after.Pending[0].Text())
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	s := New()
	var seen []Snapshot
	cancel := s.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap)
	})

	s.Apply(createdEvent("thread-1"))
	require.Len(t, seen, 1)
	assert.Equal(t, "thread-1", seen[0].CurrentThreadID)

	cancel()
	s.Apply(addedEvent("thread-1", "msg-1", threadkit.ItemAssistantMessage))
	assert.Len(t, seen, 1)
}

func TestComposerState(t *testing.T) {
	s := New()
	s.SetComposerText("draft message")
	s.SetComposerModel("fast")
	s.SetComposerTool("search")
	s.AddComposerAttachment("atc-1")
	s.AddComposerAttachment("atc-1")
	s.AddComposerAttachment("atc-2")
	s.RemoveComposerAttachment("atc-1")

	c := s.Snapshot().Composer
	assert.Equal(t, "draft message", c.Text)
	assert.Equal(t, "fast", c.Model)
	assert.Equal(t, "search", c.Tool)
	assert.Equal(t, []string{"atc-2"}, c.Attachments)

	s.ClearComposer()
	assert.Equal(t, Composer{}, s.Snapshot().Composer)
}
