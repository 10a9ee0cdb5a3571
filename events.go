package main

import "sync"

// EventKind names a host event the shell can subscribe to.
type EventKind string

// Host event kinds
const (
	EventWindowClosed EventKind = "window-closed" // the user closed a window
	EventWindowBounds EventKind = "window-bounds" // a window was resized or moved
	EventTrayAction   EventKind = "tray-action"   // a tray menu item was clicked
	EventMenuAction   EventKind = "menu-action"   // an application menu item was clicked
)

// Event is delivered to handlers registered with Host.On. Window is set for
// window events, Bounds for EventWindowBounds and Action for tray and menu
// events.
type Event struct {
	Kind   EventKind
	Window Window
	Bounds WindowBounds
	Action string
}

// EventHandler receives host events.
type EventHandler func(Event)

// eventBus dispatches events to registered handlers. Host implementations
// embed it. emit must not be called while holding a lock the handlers may need.
type eventBus struct {
	mu       sync.RWMutex
	handlers map[EventKind][]EventHandler
}

// On registers h for events of the given kind.
func (b *eventBus) On(kind EventKind, h EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[EventKind][]EventHandler)
	}
	b.handlers[kind] = append(b.handlers[kind], h)
}

func (b *eventBus) emit(ev Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[ev.Kind]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}
