package store

import (
	"sort"

	"github.com/spetersoncode/threadkit"
)

// ThreadSnapshot is the immutable view of one thread.
type ThreadSnapshot struct {
	Thread threadkit.Thread

	// Items holds the finalized sequence in timeline order.
	Items []threadkit.ThreadItem

	// Pending holds items that were announced but not yet finalized,
	// in timeline order.
	Pending []threadkit.ThreadItem
}

// All returns finalized and pending items interleaved in timeline order.
func (t ThreadSnapshot) All() []threadkit.ThreadItem {
	out := make([]threadkit.ThreadItem, 0, len(t.Items)+len(t.Pending))
	out = append(out, t.Items...)
	out = append(out, t.Pending...)
	return out
}

// Item looks up an item by id across the finalized and pending sets.
func (t ThreadSnapshot) Item(id string) (threadkit.ThreadItem, bool) {
	for _, it := range t.Items {
		if it.ID == id {
			return it, true
		}
	}
	for _, it := range t.Pending {
		if it.ID == id {
			return it, true
		}
	}
	return threadkit.ThreadItem{}, false
}

// Snapshot is an immutable view of the whole store at one point in time.
// It shares no mutable state with the store; holding one across later
// mutations is safe.
type Snapshot struct {
	// Threads lists all known threads in the order they appeared.
	Threads []ThreadSnapshot

	// CurrentThreadID names the selected thread, or is empty.
	CurrentThreadID string

	// Streaming reports whether a response stream is in flight.
	Streaming bool

	// AllowCancel reports whether the server accepts cancellation of the
	// current stream.
	AllowCancel bool

	// Progress is the transient progress indicator, if any.
	Progress *threadkit.Progress

	// Err is the most recent stream failure, cleared when a new stream
	// begins.
	Err *threadkit.StreamError

	// Notices accumulates server notice banners.
	Notices []threadkit.Notice

	// Composer is the draft input state.
	Composer Composer
}

// Thread returns the snapshot of one thread by id.
func (s Snapshot) Thread(id string) (ThreadSnapshot, bool) {
	for _, t := range s.Threads {
		if t.Thread.ID == id {
			return t, true
		}
	}
	return ThreadSnapshot{}, false
}

// Current returns the snapshot of the selected thread.
func (s Snapshot) Current() (ThreadSnapshot, bool) {
	if s.CurrentThreadID == "" {
		return ThreadSnapshot{}, false
	}
	return s.Thread(s.CurrentThreadID)
}

// Snapshot returns an immutable view of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		CurrentThreadID: s.current,
		Streaming:       s.streaming,
		AllowCancel:     s.allowCancel,
		Composer:        s.composer.clone(),
	}
	if s.progress != nil {
		p := *s.progress
		snap.Progress = &p
	}
	if s.err != nil {
		e := *s.err
		snap.Err = &e
	}
	if len(s.notices) > 0 {
		snap.Notices = append([]threadkit.Notice(nil), s.notices...)
	}

	snap.Threads = make([]ThreadSnapshot, 0, len(s.order))
	for _, id := range s.order {
		ts := s.threads[id]
		t := ThreadSnapshot{Thread: cloneThread(ts.thread)}
		for _, p := range ts.finalized {
			t.Items = append(t.Items, cloneItem(p.item))
		}
		pend := make([]positioned, 0, len(ts.pending))
		for _, p := range ts.pending {
			pend = append(pend, *p)
		}
		sort.Slice(pend, func(i, j int) bool { return pend[i].position < pend[j].position })
		for _, p := range pend {
			t.Pending = append(t.Pending, cloneItem(p.item))
		}
		snap.Threads = append(snap.Threads, t)
	}
	return snap
}

func cloneThread(t threadkit.Thread) threadkit.Thread {
	out := t
	if t.Metadata != nil {
		out.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func cloneItem(it threadkit.ThreadItem) threadkit.ThreadItem {
	out := it
	if it.Content != nil {
		out.Content = make([]threadkit.ContentPart, len(it.Content))
		copy(out.Content, it.Content)
		for i, part := range it.Content {
			if part.Annotations != nil {
				out.Content[i].Annotations = append([]threadkit.Annotation(nil), part.Annotations...)
			}
		}
	}
	if it.Task != nil {
		task := cloneTask(*it.Task)
		out.Task = &task
	}
	if it.Workflow != nil {
		wf := *it.Workflow
		wf.Tasks = make([]threadkit.Task, len(it.Workflow.Tasks))
		for i, task := range it.Workflow.Tasks {
			wf.Tasks[i] = cloneTask(task)
		}
		out.Workflow = &wf
	}
	return out
}

func cloneTask(t threadkit.Task) threadkit.Task {
	out := t
	if t.Queries != nil {
		out.Queries = append([]string(nil), t.Queries...)
	}
	if t.Sources != nil {
		out.Sources = append([]threadkit.Source(nil), t.Sources...)
	}
	return out
}
