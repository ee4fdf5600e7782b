package store

import (
	"sync"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// hub fans full history snapshots out to subscribers. Snapshots are pushed
// wholesale; subscribers replace, never merge.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func([]model.CompletedEvent)
}

func newHub() *hub {
	return &hub{subs: make(map[int]func([]model.CompletedEvent))}
}

func (h *hub) subscribe(cb func([]model.CompletedEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs[id] = cb
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

func (h *hub) publish(snapshot []model.CompletedEvent) {
	h.mu.Lock()
	cbs := make([]func([]model.CompletedEvent), 0, len(h.subs))
	for _, cb := range h.subs {
		cbs = append(cbs, cb)
	}
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(snapshot)
	}
}
