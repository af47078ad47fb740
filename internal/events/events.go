// Package events delivers session lifecycle events to registered listeners.
package events

import (
	"log/slog"
	"sync/atomic"
	"time"
)

type dispatcher struct {
	listeners []Listener
	disabled  atomic.Bool
	now       func() time.Time
}

// NewService returns a Service that logs every event at debug level and
// hands it to listeners in order.
func NewService(listeners ...Listener) Service {
	return &dispatcher{listeners: listeners, now: time.Now}
}

func (d *dispatcher) Disable() {
	slog.Info("lifecycle events disabled")
	d.disabled.Store(true)
}

func (d *dispatcher) Enable() {
	d.disabled.Store(false)
}

func (d *dispatcher) NewEvent(kind Kind, sessionID string, entities ...any) Event {
	return Event{Kind: kind, SessionID: sessionID, Time: d.now(), Entities: entities}
}

func (d *dispatcher) EmitEvent(event Event) {
	if d.disabled.Load() {
		return
	}
	slog.Debug("lifecycle event",
		"kind", event.Kind,
		"session", event.SessionID,
		"entities", len(event.Entities),
		"created", event.Created,
		"deleted", event.Deleted)
	for _, l := range d.listeners {
		l.OnEvent(event)
	}
}
