package events

//go:generate mockgen -destination=mocks/mock_events.go -package=events_mocks -typed github.com/mkd-neo4j/neo4j-ogm/internal/events Service,Listener
import "time"

// Kind is the lifecycle point an event reports.
type Kind string

const (
	PreSave    Kind = "PRE_SAVE"
	PostSave   Kind = "POST_SAVE"
	PreDelete  Kind = "PRE_DELETE"
	PostDelete Kind = "POST_DELETE"
	PostLoad   Kind = "POST_LOAD"
)

// Event is one lifecycle notification of a session.
type Event struct {
	Kind      Kind      `json:"kind"`
	SessionID string    `json:"sessionId"`
	Time      time.Time `json:"time"`
	// Entities are the domain objects involved: save roots, the deleted
	// entity or the loaded roots.
	Entities []any `json:"-"`
	// Created and Deleted count the relationships written by a save.
	Created int `json:"created,omitempty"`
	Deleted int `json:"deleted,omitempty"`
	Nodes   int `json:"nodes,omitempty"`
}

// Service dispatches lifecycle events.
type Service interface {
	Disable()
	Enable()
	EmitEvent(event Event)
	NewEvent(kind Kind, sessionID string, entities ...any) Event
}

// Listener receives events. Listeners run synchronously on the session's
// goroutine and must not call back into the session.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(event Event)

func (f ListenerFunc) OnEvent(event Event) { f(event) }
