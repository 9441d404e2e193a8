package app

import (
	goimage "image"

	"mesh-warp/internal/mesh"
)

// EventType identifies different session events.
type EventType int

const (
	EventImageChanged  EventType = iota // ImageEvent
	EventMeshChanged                    // MeshEvent
	EventOutputChanged                  // OutputEvent
	EventStatus                         // StatusEvent
	EventStateChanged                   // State
	EventProjectLoaded                  // string path
	EventProjectSaved                   // string path
)

func (e EventType) String() string {
	switch e {
	case EventImageChanged:
		return "image-changed"
	case EventMeshChanged:
		return "mesh-changed"
	case EventOutputChanged:
		return "output-changed"
	case EventStatus:
		return "status"
	case EventStateChanged:
		return "state-changed"
	case EventProjectLoaded:
		return "project-loaded"
	case EventProjectSaved:
		return "project-saved"
	default:
		return "unknown"
	}
}

// ImageEvent carries a copy of the new source image.
type ImageEvent struct {
	Path  string
	Image *goimage.Gray
}

// MeshEvent carries a snapshot of the current mesh.
type MeshEvent struct {
	Mesh *mesh.Grid
}

// OutputEvent carries a copy of the new output image.
type OutputEvent struct {
	Image  *goimage.Gray
	Width  int
	Height int
}

// StatusEvent carries a status line. Err is set when the status reports a
// failed command.
type StatusEvent struct {
	Message string
	Err     error
}

// EventListener is called when an event occurs. Listeners run synchronously
// on the goroutine that issued the command and must not issue commands
// themselves; queries are fine.
type EventListener func(data interface{})

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
