package main

import (
	"sync"
	"time"

	"github.com/spetersoncode/threadkit"
)

// memStore is the server-side state: threads, their items and uploaded
// attachments, all in memory.
type memStore struct {
	mu          sync.Mutex
	order       []string
	threads     map[string]*memThread
	attachments map[string]threadkit.Attachment
}

type memThread struct {
	thread threadkit.Thread
	items  []threadkit.ThreadItem
}

func newMemStore() *memStore {
	return &memStore{
		threads:     make(map[string]*memThread),
		attachments: make(map[string]threadkit.Attachment),
	}
}

func (m *memStore) createThread() threadkit.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	thread := threadkit.Thread{
		ID:        threadkit.GenerateThreadID(),
		Status:    threadkit.ThreadActive,
		CreatedAt: time.Now().UTC(),
	}
	m.threads[thread.ID] = &memThread{thread: thread}
	m.order = append(m.order, thread.ID)
	return thread
}

func (m *memStore) getThread(id string) (threadkit.Thread, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[id]
	if !ok {
		return threadkit.Thread{}, false
	}
	return t.thread, true
}

func (m *memStore) listThreads(limit int, after, order string) threadkit.Page[threadkit.Thread] {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := append([]string(nil), m.order...)
	if order == "desc" {
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
	}

	all := make([]threadkit.Thread, 0, len(ids))
	for _, id := range ids {
		all = append(all, m.threads[id].thread)
	}
	return paginate(all, limit, after, func(t threadkit.Thread) string { return t.ID })
}

func (m *memStore) updateTitle(id, title string) (threadkit.Thread, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[id]
	if !ok {
		return threadkit.Thread{}, false
	}
	t.thread.Title = title
	t.thread.UpdatedAt = time.Now().UTC()
	return t.thread, true
}

func (m *memStore) deleteThread(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.threads[id]; !ok {
		return false
	}
	delete(m.threads, id)
	for i, tid := range m.order {
		if tid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

func (m *memStore) appendItem(item threadkit.ThreadItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.threads[item.ThreadID]; ok {
		t.items = append(t.items, item)
	}
}

func (m *memStore) replaceItem(item threadkit.ThreadItem) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[item.ThreadID]
	if !ok {
		return false
	}
	for i := range t.items {
		if t.items[i].ID == item.ID {
			t.items[i] = item
			return true
		}
	}
	return false
}

func (m *memStore) findItem(threadID, itemID string) (threadkit.ThreadItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[threadID]
	if !ok {
		return threadkit.ThreadItem{}, false
	}
	for _, it := range t.items {
		if it.ID == itemID {
			return it, true
		}
	}
	return threadkit.ThreadItem{}, false
}

// truncateAfter drops every item after the named one and returns the ids
// that were removed.
func (m *memStore) truncateAfter(threadID, itemID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[threadID]
	if !ok {
		return nil
	}
	for i, it := range t.items {
		if it.ID == itemID {
			var removed []string
			for _, dropped := range t.items[i+1:] {
				removed = append(removed, dropped.ID)
			}
			t.items = t.items[:i+1]
			return removed
		}
	}
	return nil
}

func (m *memStore) listItems(threadID string, limit int, after, order string) (threadkit.Page[threadkit.ThreadItem], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[threadID]
	if !ok {
		return threadkit.Page[threadkit.ThreadItem]{}, false
	}

	items := append([]threadkit.ThreadItem(nil), t.items...)
	if order == "desc" {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return paginate(items, limit, after, func(it threadkit.ThreadItem) string { return it.ID }), true
}

// history returns the settled user and assistant messages of a thread as
// plain text turns.
func (m *memStore) history(threadID string) []historyTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[threadID]
	if !ok {
		return nil
	}
	var turns []historyTurn
	for _, it := range t.items {
		switch it.Type {
		case threadkit.ItemUserMessage:
			turns = append(turns, historyTurn{role: "user", text: it.Text()})
		case threadkit.ItemAssistantMessage:
			turns = append(turns, historyTurn{role: "assistant", text: it.Text()})
		}
	}
	return turns
}

type historyTurn struct {
	role string
	text string
}

func (m *memStore) putAttachment(att threadkit.Attachment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachments[att.ID] = att
}

func (m *memStore) deleteAttachment(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attachments[id]; !ok {
		return false
	}
	delete(m.attachments, id)
	return true
}

func paginate[T any](all []T, limit int, after string, id func(T) string) threadkit.Page[T] {
	if limit <= 0 {
		limit = 20
	}
	start := 0
	if after != "" {
		for i, v := range all {
			if id(v) == after {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := threadkit.Page[T]{
		Data:    append([]T(nil), all[start:end]...),
		HasMore: end < len(all),
	}
	if page.HasMore && len(page.Data) > 0 {
		page.After = id(page.Data[len(page.Data)-1])
	}
	return page
}
