package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/threadkit"
	"github.com/spetersoncode/threadkit/client"
)

// RoleAssistant is the AG-UI role for assistant messages.
const RoleAssistant = "assistant"

// Mapper converts thread stream events to AG-UI events. One stream event
// can expand to several AG-UI events: an item that finalizes without a
// preceding announcement still yields a full Start-Content-End sequence.
//
// Create a new Mapper for each response stream. The Mapper is not safe
// for concurrent use; each goroutine should have its own.
type Mapper struct {
	threadID string
	runID    string
	started  map[string]bool
}

// NewMapper creates a Mapper for a single response stream. Empty IDs are
// generated.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
		started:  make(map[string]bool),
	}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string {
	return m.runID
}

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// MapEvent converts one stream event to its AG-UI equivalents. Events
// with no AG-UI representation (thread metadata, progress, notices,
// widgets) yield nil.
func (m *Mapper) MapEvent(ev threadkit.StreamEvent) []events.Event {
	switch ev.Type {
	case threadkit.EventItemAdded:
		if ev.Item == nil || ev.Item.Type != threadkit.ItemAssistantMessage {
			return nil
		}
		return []events.Event{m.startMessage(ev.Item.ID)}

	case threadkit.EventItemUpdated:
		if ev.Update == nil || ev.Update.Type != threadkit.UpdateContentPartTextDelta || ev.Update.Delta == "" {
			return nil
		}
		var out []events.Event
		if !m.started[ev.ItemID] {
			out = append(out, m.startMessage(ev.ItemID))
		}
		return append(out, events.NewTextMessageContentEvent(ev.ItemID, ev.Update.Delta))

	case threadkit.EventItemDone:
		if ev.Item == nil {
			return nil
		}
		return m.finishItem(*ev.Item)

	case threadkit.EventError:
		var err error
		if ev.Error != nil {
			err = ev.Error
		}
		return []events.Event{m.RunError(err)}

	default:
		return nil
	}
}

func (m *Mapper) startMessage(itemID string) events.Event {
	m.started[itemID] = true
	return events.NewTextMessageStartEvent(itemID, events.WithRole(RoleAssistant))
}

func (m *Mapper) finishItem(item threadkit.ThreadItem) []events.Event {
	switch item.Type {
	case threadkit.ItemAssistantMessage:
		var out []events.Event
		if !m.started[item.ID] {
			out = append(out, m.startMessage(item.ID))
			if text := item.Text(); text != "" {
				out = append(out, events.NewTextMessageContentEvent(item.ID, text))
			}
		}
		delete(m.started, item.ID)
		return append(out, events.NewTextMessageEndEvent(item.ID))

	case threadkit.ItemClientToolCall:
		callID := item.CallID
		if callID == "" {
			callID = item.ID
		}
		out := []events.Event{events.NewToolCallStartEvent(callID, item.Name)}
		if len(item.Arguments) > 0 {
			out = append(out, events.NewToolCallArgsEvent(callID, string(item.Arguments)))
		}
		return append(out, events.NewToolCallEndEvent(callID))

	default:
		return nil
	}
}

// MapStream converts a typed event stream into an AG-UI event stream,
// framing it with RUN_STARTED and RUN_FINISHED. A terminal stream error
// becomes RUN_ERROR and ends the run.
func (m *Mapper) MapStream(msgs <-chan client.StreamMessage) <-chan events.Event {
	out := make(chan events.Event)
	go func() {
		defer close(out)
		out <- m.RunStarted()
		for msg := range msgs {
			if msg.Err != nil {
				out <- m.RunError(msg.Err)
				return
			}
			for _, ev := range m.MapEvent(msg.Event) {
				out <- ev
			}
		}
		out <- m.RunFinished()
	}()
	return out
}
