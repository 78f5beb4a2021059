package store

import (
	"sort"
	"sync"

	"github.com/spetersoncode/threadkit"
)

// positioned ties an item to its position in the thread timeline.
// Positions are assigned once, when an item first appears, and are never
// reused, so an item keeps its place no matter when it finalizes.
type positioned struct {
	item     threadkit.ThreadItem
	position int
}

// threadState is the mutable per-thread record behind the snapshots.
type threadState struct {
	thread    threadkit.Thread
	finalized []positioned
	pending   map[string]*positioned
	nextPos   int
}

// Store is the conversation state container. All methods are safe for
// concurrent use. Mutations notify subscribers with a fresh snapshot
// after the mutation is complete.
type Store struct {
	mu sync.RWMutex

	threads map[string]*threadState
	order   []string
	current string

	streaming   bool
	allowCancel bool
	progress    *threadkit.Progress
	err         *threadkit.StreamError
	notices     []threadkit.Notice
	composer    Composer

	listeners    map[int]func(Snapshot)
	nextListener int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		threads:   make(map[string]*threadState),
		listeners: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers a listener called with a snapshot after every
// mutation. The returned function unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Apply folds one stream event into the state. Unknown event types and
// events addressing unknown items are ignored; the projection mirrors
// server state and never invents failures over it.
func (s *Store) Apply(ev threadkit.StreamEvent) {
	s.mu.Lock()

	switch ev.Type {
	case threadkit.EventThreadCreated:
		if ev.Thread != nil {
			s.putThread(*ev.Thread)
			s.current = ev.Thread.ID
		}
	case threadkit.EventThreadUpdated:
		if ev.Thread != nil {
			s.mergeThread(*ev.Thread)
		}
	case threadkit.EventItemAdded:
		if ev.Item != nil {
			s.addItem(*ev.Item)
		}
	case threadkit.EventItemUpdated:
		if ev.Update != nil {
			s.updateItem(ev.ItemID, *ev.Update)
		}
	case threadkit.EventItemDone:
		if ev.Item != nil {
			s.finalizeItem(*ev.Item)
		}
	case threadkit.EventItemRemoved:
		s.removeItem(ev.ItemID)
	case threadkit.EventItemReplaced:
		if ev.Item != nil {
			s.replaceItem(*ev.Item)
		}
	case threadkit.EventStreamOptions:
		s.allowCancel = ev.AllowCancel
	case threadkit.EventProgressUpdate:
		s.progress = ev.Progress
	case threadkit.EventError:
		s.err = ev.Error
		s.streaming = false
		s.progress = nil
	case threadkit.EventNotice:
		if ev.Notice != nil {
			s.notices = append(s.notices, *ev.Notice)
		}
	}

	s.notifyLocked()
}

func (s *Store) putThread(thread threadkit.Thread) {
	if _, ok := s.threads[thread.ID]; !ok {
		s.order = append(s.order, thread.ID)
	}
	s.threads[thread.ID] = &threadState{
		thread:  thread,
		pending: make(map[string]*positioned),
	}
}

func (s *Store) mergeThread(thread threadkit.Thread) {
	ts, ok := s.threads[thread.ID]
	if !ok {
		s.putThread(thread)
		return
	}
	if thread.Title != "" {
		ts.thread.Title = thread.Title
	}
	if thread.Status != "" {
		ts.thread.Status = thread.Status
	}
	if !thread.UpdatedAt.IsZero() {
		ts.thread.UpdatedAt = thread.UpdatedAt
	}
	for k, v := range thread.Metadata {
		if ts.thread.Metadata == nil {
			ts.thread.Metadata = make(map[string]any)
		}
		ts.thread.Metadata[k] = v
	}
}

// ensureThread returns the state for a thread, creating a placeholder
// record when item events arrive before their thread announcement.
func (s *Store) ensureThread(id string) *threadState {
	if ts, ok := s.threads[id]; ok {
		return ts
	}
	s.putThread(threadkit.Thread{ID: id})
	return s.threads[id]
}

func (s *Store) addItem(item threadkit.ThreadItem) {
	ts := s.ensureThread(item.ThreadID)
	if _, ok := ts.pending[item.ID]; ok {
		return
	}
	for _, p := range ts.finalized {
		if p.item.ID == item.ID {
			return
		}
	}
	ts.pending[item.ID] = &positioned{item: item, position: ts.nextPos}
	ts.nextPos++
}

// findItem locates an item id in any thread. Update and removal events
// address items by id alone.
func (s *Store) findItem(itemID string) (*threadState, *positioned, bool) {
	for _, id := range s.order {
		ts := s.threads[id]
		if p, ok := ts.pending[itemID]; ok {
			return ts, p, true
		}
	}
	return nil, nil, false
}

func (s *Store) updateItem(itemID string, update threadkit.ItemUpdate) {
	_, p, ok := s.findItem(itemID)
	if !ok {
		return
	}

	switch update.Type {
	case threadkit.UpdateContentPartAdded, threadkit.UpdateContentPartDone:
		if update.Content == nil {
			return
		}
		growContent(&p.item, update.ContentIndex)
		p.item.Content[update.ContentIndex] = *update.Content
	case threadkit.UpdateContentPartTextDelta:
		growContent(&p.item, update.ContentIndex)
		part := &p.item.Content[update.ContentIndex]
		if part.Type == "" {
			part.Type = threadkit.ContentText
		}
		part.Text += update.Delta
	case threadkit.UpdateWorkflowTaskAdded, threadkit.UpdateWorkflowTaskUpdated:
		if update.Task == nil {
			return
		}
		if p.item.Workflow == nil {
			p.item.Workflow = &threadkit.Workflow{}
		}
		for len(p.item.Workflow.Tasks) <= update.TaskIndex {
			p.item.Workflow.Tasks = append(p.item.Workflow.Tasks, threadkit.Task{})
		}
		p.item.Workflow.Tasks[update.TaskIndex] = *update.Task
	}
}

func growContent(item *threadkit.ThreadItem, index int) {
	for len(item.Content) <= index {
		item.Content = append(item.Content, threadkit.ContentPart{})
	}
}

func (s *Store) finalizeItem(item threadkit.ThreadItem) {
	ts := s.ensureThread(item.ThreadID)

	pos := ts.nextPos
	if p, ok := ts.pending[item.ID]; ok {
		pos = p.position
		delete(ts.pending, item.ID)
	} else {
		// Some items finalize without a preceding added event.
		ts.nextPos++
	}

	for i := range ts.finalized {
		if ts.finalized[i].item.ID == item.ID {
			ts.finalized[i].item = item
			return
		}
	}
	ts.finalized = append(ts.finalized, positioned{item: item, position: pos})
	sort.SliceStable(ts.finalized, func(i, j int) bool {
		return ts.finalized[i].position < ts.finalized[j].position
	})
}

func (s *Store) removeItem(itemID string) {
	for _, id := range s.order {
		ts := s.threads[id]
		if _, ok := ts.pending[itemID]; ok {
			delete(ts.pending, itemID)
			return
		}
		for i := range ts.finalized {
			if ts.finalized[i].item.ID == itemID {
				ts.finalized = append(ts.finalized[:i], ts.finalized[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) replaceItem(item threadkit.ThreadItem) {
	ts := s.ensureThread(item.ThreadID)
	if p, ok := ts.pending[item.ID]; ok {
		p.item = item
		return
	}
	for i := range ts.finalized {
		if ts.finalized[i].item.ID == item.ID {
			ts.finalized[i].item = item
			return
		}
	}
}

// SeedThread loads a thread and its settled items wholesale, replacing
// any prior record of the thread. Used when switching to a thread fetched
// from the server rather than built up from events.
func (s *Store) SeedThread(thread threadkit.Thread, items []threadkit.ThreadItem) {
	s.mu.Lock()
	s.putThread(thread)
	ts := s.threads[thread.ID]
	ts.finalized = make([]positioned, 0, len(items))
	for i, item := range items {
		ts.finalized = append(ts.finalized, positioned{item: item, position: i})
	}
	ts.nextPos = len(items)
	s.notifyLocked()
}

// SetCurrentThread points the projection at a thread. An empty id clears
// the selection; an unknown id is ignored.
func (s *Store) SetCurrentThread(id string) {
	s.mu.Lock()
	if id == "" {
		s.current = ""
	} else if _, ok := s.threads[id]; ok {
		s.current = id
	}
	s.notifyLocked()
}

// DeleteThread drops a thread and everything in it, clearing the current
// selection if it pointed there.
func (s *Store) DeleteThread(id string) {
	s.mu.Lock()
	if _, ok := s.threads[id]; ok {
		delete(s.threads, id)
		for i, tid := range s.order {
			if tid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		if s.current == id {
			s.current = ""
		}
	}
	s.notifyLocked()
}

// BeginStream marks the start of a response stream: the streaming flag
// goes up and stale error and progress state is cleared.
func (s *Store) BeginStream() {
	s.mu.Lock()
	s.streaming = true
	s.err = nil
	s.progress = nil
	s.allowCancel = false
	s.notifyLocked()
}

// EndStream marks the end of a response stream. A nil error ends it
// quietly, which is also how cancellation settles: whatever was pending
// stays pending and no failure is recorded.
func (s *Store) EndStream(err error) {
	s.mu.Lock()
	s.streaming = false
	s.progress = nil
	if err != nil {
		if se, ok := err.(*threadkit.StreamError); ok {
			s.err = se
		} else {
			s.err = &threadkit.StreamError{Code: "stream_error", Message: err.Error()}
		}
	}
	s.notifyLocked()
}

// ClearNotices discards accumulated notice banners.
func (s *Store) ClearNotices() {
	s.mu.Lock()
	s.notices = nil
	s.notifyLocked()
}

// notifyLocked builds a snapshot, releases the lock and calls listeners
// in registration order. Must be entered with the write lock held.
func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
