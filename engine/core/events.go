package core

import "sync"

// Asset events fired by the stores. Application codes start at EventCodeUser.
type EventCode int

const (
	// An asset file appeared in the watched tree.
	/* Context usage:
	 * string path = ctx.Path;
	 */
	EventCodeAssetCreated EventCode = 0x01

	// An indexed asset file was written.
	EventCodeAssetChanged EventCode = 0x02

	// An asset was removed or renamed away, directories fire once per file.
	EventCodeAssetRemoved EventCode = 0x03

	EventCodeUser EventCode = 0x100

	// This should be more than enough codes...
	MaxEventCode EventCode = 0x3FFF
)

type EventContext struct {
	/** @brief The project-relative asset path. */
	Path string
	/** @brief Name of the store which fired the event. */
	Store string
}

// Should return true if handled.
type FnOnEvent func(code EventCode, sender interface{}, listener interface{}, ctx EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventSystem dispatches events to listeners registered per code. A nil
// *EventSystem accepts every call and does nothing.
type EventSystem struct {
	mu         sync.RWMutex
	registered map[EventCode][]registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[EventCode][]registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. A
 * listener can only be registered once per code.
 * @param code The event code to listen for.
 * @param listener The listener instance. Can be nil but then only once per code.
 * @param onEvent The callback invoked when the event code is fired.
 * @returns true if the event is successfully registered; otherwise false.
 */
func (es *EventSystem) Register(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	if es == nil || onEvent == nil || code <= 0 || code > MaxEventCode {
		return false
	}
	es.mu.Lock()
	defer es.mu.Unlock()

	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("Listener already registered for event code %d.", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for the provided code.
 * @returns true if the listener was registered; otherwise false.
 */
func (es *EventSystem) Unregister(code EventCode, listener interface{}) bool {
	if es == nil {
		return false
	}
	es.mu.Lock()
	defer es.mu.Unlock()

	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func (es *EventSystem) Fire(code EventCode, sender interface{}, ctx EventContext) bool {
	if es == nil {
		return false
	}
	es.mu.RLock()
	events := append([]registeredEvent(nil), es.registered[code]...)
	es.mu.RUnlock()

	// callbacks run without the lock so they may register or fire themselves
	for _, e := range events {
		if e.callback(code, sender, e.listener, ctx) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (es *EventSystem) Shutdown() {
	if es == nil {
		return
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registered = make(map[EventCode][]registeredEvent)
}
