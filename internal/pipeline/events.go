package pipeline

import (
	"sync"

	"commentary-ai/internal/types"
)

// EventHub fans progress events out to subscribers per run. Slow
// subscribers never block the pipeline: events to a full channel are
// dropped.
type EventHub struct {
	mu   sync.RWMutex
	subs map[string][]chan types.ProgressEvent
}

func NewEventHub() *EventHub {
	return &EventHub{subs: map[string][]chan types.ProgressEvent{}}
}

// Subscribe returns a channel of events for one run and a cancel func.
// The channel closes when the run finishes or the subscription is
// cancelled.
func (h *EventHub) Subscribe(runId string) (<-chan types.ProgressEvent, func()) {
	ch := make(chan types.ProgressEvent, 16)

	h.mu.Lock()
	h.subs[runId] = append(h.subs[runId], ch)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			channels := h.subs[runId]
			for i, c := range channels {
				if c == ch {
					h.subs[runId] = append(channels[:i], channels[i+1:]...)
					close(ch)
					break
				}
			}
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its run.
func (h *EventHub) Publish(event types.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[event.RunId] {
		select {
		case ch <- event:
		default:
		}
	}
}

// CloseRun closes and removes every subscription of a finished run.
func (h *EventHub) CloseRun(runId string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[runId] {
		close(ch)
	}
	delete(h.subs, runId)
}
