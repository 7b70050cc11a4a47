package scrollwizardry

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// EventKind identifies a scene event type.
type EventKind int

const (
	EventChange   EventKind = iota // an option changed
	EventShift                     // the scroll range moved or resized
	EventUpdate                    // an immediate update is about to set progress
	EventProgress                  // progress changed
	EventEnter                     // the scene entered DURING
	EventLeave                     // the scene left DURING
	EventStart                     // the start boundary was crossed
	EventEnd                       // the end boundary was crossed
	EventAdd                       // the scene was added to a controller
	EventRemove                    // the scene was removed from its controller
	EventDestroy                   // the scene is being destroyed

	numBuiltinKinds
)

var kindNames = [numBuiltinKinds]string{
	EventChange:   "change",
	EventShift:    "shift",
	EventUpdate:   "update",
	EventProgress: "progress",
	EventEnter:    "enter",
	EventLeave:    "leave",
	EventStart:    "start",
	EventEnd:      "end",
	EventAdd:      "add",
	EventRemove:   "remove",
	EventDestroy:  "destroy",
}

// String returns the event name of a built-in kind, or "custom".
func (k EventKind) String() string {
	if k >= 0 && k < numBuiltinKinds {
		return kindNames[k]
	}
	return "custom"
}

// Vars carries the payload of an event. Which fields are meaningful depends
// on the kind:
//
//   - enter, leave, start, end, progress: Progress, State, ScrollDirection
//   - change: What, NewVal
//   - shift: Reason
//   - update: StartPos, EndPos, ScrollPos
//   - add: Controller
//   - destroy: Reset
type Vars struct {
	Progress        float64
	State           State
	ScrollDirection ScrollDirection

	What   string
	NewVal any

	Reason string

	StartPos  float64
	EndPos    float64
	ScrollPos float64

	Reset      bool
	Controller *Controller
}

// Event is delivered to handlers. Namespace is the namespace the handler was
// registered under.
type Event struct {
	Kind      EventKind
	Type      string
	Namespace string
	Target    *Scene
	Timestamp time.Time
	Vars
}

// Handler receives events.
type Handler func(e Event)

// HandlerID identifies a registered handler for removal.
type HandlerID uint64

var (
	errEmptyEventName = errors.New("invalid event name supplied")
	errWildcardOn     = errors.New("wildcard event names cannot be listened to")
	errNilHandler     = errors.New("supplied callback is not a valid function")
)

type handlerEntry struct {
	id        HandlerID
	namespace string
	fn        Handler
}

// EventBus is a namespaced publish/subscribe registry. Handler names have
// the form "event" or "event.namespace"; several names may be given
// separated by spaces. Handlers of one kind run in registration order.
type EventBus struct {
	target   *Scene
	handlers map[EventKind][]handlerEntry
	custom   map[string]EventKind
	nextID   HandlerID
	now      func() time.Time
}

// NewEventBus creates a bus whose events report target as their source.
func NewEventBus(target *Scene) *EventBus {
	return &EventBus{
		target:   target,
		handlers: make(map[EventKind][]handlerEntry),
		now:      time.Now,
	}
}

func splitEventName(fullname string) (event, namespace string) {
	event, namespace, _ = strings.Cut(fullname, ".")
	return event, namespace
}

// kind returns the kind for name. Unknown names are interned as custom kinds
// when create is set.
func (b *EventBus) kind(name string, create bool) (EventKind, bool) {
	for k, n := range kindNames {
		if n == name {
			return EventKind(k), true
		}
	}
	if k, ok := b.custom[name]; ok {
		return k, true
	}
	if !create {
		return 0, false
	}
	if b.custom == nil {
		b.custom = make(map[string]EventKind)
	}
	k := numBuiltinKinds + EventKind(len(b.custom))
	b.custom[name] = k
	return k, true
}

func (b *EventBus) kindName(k EventKind) string {
	if k < numBuiltinKinds {
		return kindNames[k]
	}
	for name, ck := range b.custom {
		if ck == k {
			return name
		}
	}
	return ""
}

// On registers fn for every name in names and returns the handler ids in
// the same order. Names whose event part is "*" are skipped.
func (b *EventBus) On(names string, fn Handler) ([]HandlerID, error) {
	if fn == nil {
		return nil, errNilHandler
	}
	fields := strings.Fields(names)
	if len(fields) == 0 {
		return nil, errEmptyEventName
	}
	var ids []HandlerID
	var err error
	for _, fullname := range fields {
		event, namespace := splitEventName(fullname)
		if event == "*" || event == "" {
			err = errWildcardOn
			continue
		}
		k, _ := b.kind(event, true)
		b.nextID++
		b.handlers[k] = append(b.handlers[k], handlerEntry{id: b.nextID, namespace: namespace, fn: fn})
		ids = append(ids, b.nextID)
	}
	return ids, err
}

// Off removes handlers. An event part of "*" matches every event and a
// namespace of "*" matches every namespace; an omitted namespace matches
// only handlers registered without one. When ids are given only those
// handlers are removed.
func (b *EventBus) Off(names string, ids ...HandlerID) error {
	fields := strings.Fields(names)
	if len(fields) == 0 {
		return errEmptyEventName
	}
	for _, fullname := range fields {
		event, namespace := splitEventName(fullname)
		var kinds []EventKind
		if event == "*" {
			for k := range b.handlers {
				kinds = append(kinds, k)
			}
		} else if k, ok := b.kind(event, false); ok {
			kinds = append(kinds, k)
		}
		for _, k := range kinds {
			list := slices.DeleteFunc(b.handlers[k], func(e handlerEntry) bool {
				return (namespace == "*" || namespace == e.namespace) &&
					(len(ids) == 0 || slices.Contains(ids, e.id))
			})
			if len(list) == 0 {
				delete(b.handlers, k)
			} else {
				b.handlers[k] = list
			}
		}
	}
	return nil
}

// Trigger dispatches the named event. Without a namespace every handler of
// the event runs; with one only handlers registered under it run.
func (b *EventBus) Trigger(name string, vars Vars) error {
	event, namespace := splitEventName(strings.TrimSpace(name))
	if event == "" {
		return errEmptyEventName
	}
	k, ok := b.kind(event, false)
	if !ok {
		return nil
	}
	b.dispatch(k, event, namespace, vars)
	return nil
}

// Emit dispatches a built-in event to every handler of its kind.
func (b *EventBus) Emit(k EventKind, vars Vars) {
	b.dispatch(k, b.kindName(k), "", vars)
}

// dispatch calls the matching handlers in registration order. The set of
// handlers is fixed when dispatch starts: handlers added meanwhile first run
// on the next dispatch, and removals take effect for later dispatches.
func (b *EventBus) dispatch(k EventKind, name, namespace string, vars Vars) {
	list := b.handlers[k]
	if len(list) == 0 {
		return
	}
	snapshot := make([]handlerEntry, 0, len(list))
	for _, e := range list {
		if namespace == "" || namespace == e.namespace {
			snapshot = append(snapshot, e)
		}
	}
	ts := b.now()
	for _, e := range snapshot {
		e.fn(Event{
			Kind:      k,
			Type:      name,
			Namespace: e.namespace,
			Target:    b.target,
			Timestamp: ts,
			Vars:      vars,
		})
	}
}

// Len returns the number of handlers registered for the named event, across
// all namespaces.
func (b *EventBus) Len(event string) int {
	k, ok := b.kind(event, false)
	if !ok {
		return 0
	}
	return len(b.handlers[k])
}
