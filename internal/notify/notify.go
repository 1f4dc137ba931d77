// Package notify pushes short events to connected browsers.
package notify

// Event is a single broadcast frame.
type Event struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Publisher delivers events to whoever is listening. Publish must not block.
type Publisher interface {
	Publish(ev Event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
