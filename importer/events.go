package importer

import (
	"log"
	"sync"
)

// EventType tags a progress event emitted by the pipeline runner.
type EventType string

const (
	EventImportStart    EventType = "import_start"
	EventPhotoStart     EventType = "photo_start"
	EventExifExtracted  EventType = "exif_extracted"
	EventLocationFound  EventType = "location_found"
	EventAIAnalyzing    EventType = "ai_analyzing"
	EventAIComplete     EventType = "ai_complete"
	EventPhotoComplete  EventType = "photo_complete"
	EventPhotoError     EventType = "photo_error"
	EventImportComplete EventType = "import_complete"
	EventError          EventType = "error"
)

// IsTerminal reports whether this event ends the stream for its task.
func (t EventType) IsTerminal() bool {
	return t == EventImportComplete || t == EventError
}

// Event is one progress message for a task. Data shapes depend on Type.
type Event struct {
	Type EventType              `json:"type"`
	Data map[string]interface{} `json:"data"`
}

const subscriberBuffer = 64

// Broker fans out pipeline events to per-task subscribers. Subscribers
// joining mid-import receive only events published after they
// subscribed; there is no replay. A subscriber that cannot keep up has
// events dropped rather than blocking the runner.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a new listener for a task's events. The returned
// channel is closed when the task's terminal event has been delivered.
func (b *Broker) Subscribe(taskID string) chan Event {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[taskID] == nil {
		b.subs[taskID] = make(map[chan Event]struct{})
	}
	b.subs[taskID][ch] = struct{}{}
	return ch
}

// Unsubscribe detaches a listener without affecting the runner or other
// subscribers. The channel is not closed; the caller simply stops
// reading it.
func (b *Broker) Unsubscribe(taskID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[taskID]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(b.subs, taskID)
		}
	}
}

// Publish broadcasts an event to all current subscribers of a task.
// After a terminal event the task's subscriber channels are closed and
// the subscription entry is removed.
func (b *Broker) Publish(taskID string, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[taskID]
	if ok {
		for ch := range set {
			select {
			case ch <- event:
			default:
				log.Printf("importer: dropping %s event for task %s: subscriber too slow", event.Type, taskID)
			}
		}
	}

	if event.Type.IsTerminal() && ok {
		for ch := range set {
			close(ch)
		}
		delete(b.subs, taskID)
	}
}
