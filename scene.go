package scrollwizardry

import (
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/phanxgames/scrollwizardry/surface"
)

// Scene is one scroll-linked region. Its progress runs from 0 to 1 while the
// controller's scroll position moves through the scene's scroll range, and
// its state tells whether the position is before, inside or after that
// range. A scene may pin an element for the length of its range.
//
// Scenes are not safe for concurrent use; drive them from the host's frame
// loop like the controller that owns them.
type Scene struct {
	id  uuid.UUID
	bus *EventBus

	// Options.
	duration     float64
	durationFn   func() float64
	offset       OffsetSpec
	triggerSpec  TriggerSpec
	triggerElem  surface.Element
	triggerHook  float64
	reverse      bool
	tweenChanges bool
	logLevel     int

	state        State
	progress     float64
	scrollOffset ScrollOffset
	triggerPos   float64

	// controller is a non-owning back-reference; the controller's scene list
	// owns the association.
	controller     *Controller
	resizeListener surface.ListenerID

	pin        *pinState
	pendingPin *pinRequest
}

// NewScene creates a scene. Unset options take their defaults; invalid ones
// are logged and replaced by their defaults.
func NewScene(opts SceneOptions) *Scene {
	s := &Scene{
		id:          uuid.New(),
		offset:      OffsetPixels(0),
		triggerHook: 0.5,
		reverse:     true,
		logLevel:    LogWarn,
		state:       StateBefore,
	}
	s.bus = NewEventBus(s)

	if opts.LogLevel != nil {
		if err := validateLogLevel(*opts.LogLevel); err != nil {
			s.log(LogError, "invalid scene option", slog.Any("error", err))
		} else {
			s.logLevel = *opts.LogLevel
		}
	}
	if opts.Reverse != nil {
		s.reverse = *opts.Reverse
	}
	if opts.TweenChanges != nil {
		s.tweenChanges = *opts.TweenChanges
	}
	if opts.Duration.IsSet() {
		s.duration, s.durationFn = s.resolveDuration(opts.Duration)
	}
	if opts.Offset.IsSet() {
		s.offset = s.resolveOffset(opts.Offset)
	}
	if opts.TriggerHook.IsSet() {
		s.triggerHook = s.resolveTriggerHook(opts.TriggerHook)
	}
	if opts.TriggerElement.IsSet() {
		s.triggerSpec, s.triggerElem = s.resolveTrigger(opts.TriggerElement)
	}

	s.registerInternalHandlers()
	return s
}

// registerInternalHandlers wires the scene's own reactions to its events.
// They run before any user handler of the same event.
func (s *Scene) registerInternalHandlers() {
	s.bus.On("change.internal", func(e Event) {
		switch e.What {
		case "triggerElement":
			s.updateTriggerElementPosition(false)
		case "reverse":
			s.Update(false)
		}
	})
	s.bus.On("shift.internal", func(Event) {
		s.Update(false)
	})

	// pinning
	s.bus.On("shift.internal", func(e Event) {
		durationChanged := e.Reason == "duration"
		if (s.state == StateAfter && durationChanged) || (s.state == StateDuring && s.duration == 0) {
			s.updatePinState(false)
		}
		if durationChanged {
			s.updatePinDimensions()
		}
	})
	s.bus.On("progress.internal", func(Event) {
		s.updatePinState(false)
	})
	s.bus.On("add.internal", func(Event) {
		s.updatePinDimensions()
	})
	s.bus.On("destroy.internal", func(e Event) {
		s.RemovePin(e.Reset)
	})
}

// ID returns the scene's identity, used in logs and traces.
func (s *Scene) ID() uuid.UUID { return s.id }

// --- Events ---

// On registers fn for the space separated event names, each optionally
// namespaced as "event.namespace".
func (s *Scene) On(names string, fn Handler) *Scene {
	s.OnID(names, fn)
	return s
}

// OnID is On returning the ids of the registered handlers.
func (s *Scene) OnID(names string, fn Handler) []HandlerID {
	ids, err := s.bus.On(names, fn)
	if err != nil {
		s.log(LogError, "error when calling On", slog.String("names", names), slog.Any("error", err))
	}
	return ids
}

// Off removes handlers matching names; see EventBus.Off.
func (s *Scene) Off(names string, ids ...HandlerID) *Scene {
	if err := s.bus.Off(names, ids...); err != nil {
		s.log(LogError, "error when calling Off", slog.Any("error", err))
	}
	return s
}

// Trigger dispatches a named event, optionally restricted to a namespace.
func (s *Scene) Trigger(name string, vars Vars) *Scene {
	s.log(LogDebug, "event fired", slog.String("event", name))
	if err := s.bus.Trigger(name, vars); err != nil {
		s.log(LogError, "error when calling Trigger", slog.Any("error", err))
	}
	return s
}

func (s *Scene) emit(k EventKind, vars Vars) {
	s.log(LogDebug, "event fired", slog.String("event", k.String()))
	s.bus.Emit(k, vars)
}

// --- Controller association ---

// AddTo adds the scene to c, removing it from its previous controller.
func (s *Scene) AddTo(c *Controller) *Scene {
	if c == nil || s.controller == c {
		return s
	}
	if s.controller != nil {
		s.controller.RemoveScene(s)
	}
	s.controller = c
	s.validateAll()
	s.updateDuration(true)
	s.updateTriggerElementPosition(true)
	s.updateScrollOffset()
	s.resizeListener = c.surf.Listen(c.container, surface.NotifyResize, s.onContainerResize)
	c.AddScene(s)
	if req := s.pendingPin; req != nil {
		s.pendingPin = nil
		s.applyPin(req)
	}
	s.emit(EventAdd, Vars{Controller: c})
	s.log(LogDebug, "added scene to controller")
	s.Update(false)
	return s
}

// Remove detaches the scene from its controller.
func (s *Scene) Remove() *Scene {
	c := s.controller
	if c == nil {
		return s
	}
	c.surf.Unlisten(s.resizeListener)
	s.resizeListener = 0
	s.controller = nil
	c.RemoveScene(s)
	s.emit(EventRemove, Vars{})
	s.log(LogDebug, "removed scene from controller")
	return s
}

// Destroy removes the scene, its pin and every handler. With reset the
// pinned element is restored to its original place and style.
func (s *Scene) Destroy(reset bool) {
	s.emit(EventDestroy, Vars{Reset: reset})
	s.Remove()
	s.SetTriggerElement(TriggerSpec{})
	s.bus.Off("*.*")
	s.log(LogDebug, "destroyed scene", slog.Bool("reset", reset))
}

// Controller returns the controller the scene belongs to, or nil.
func (s *Scene) Controller() *Controller { return s.controller }

// State returns the current state.
func (s *Scene) State() State { return s.state }

// ScrollOffset returns the scene's scroll range.
func (s *Scene) ScrollOffset() ScrollOffset { return s.scrollOffset }

// TriggerPosition returns the scroll position of the trigger: the offset
// plus either the trigger element position or the trigger hook's share of
// the container size.
func (s *Scene) TriggerPosition() float64 {
	offset := s.Offset()
	if c := s.controller; c != nil {
		if s.triggerElem != nil {
			offset += s.triggerPos
		} else {
			offset += c.size * s.triggerHook
		}
	}
	return offset
}

// --- Update cycle ---

// Update recomputes the scroll range and, if immediate, sets progress from
// the controller's scroll position. Otherwise the update is scheduled for
// the controller's next frame.
func (s *Scene) Update(immediate bool) *Scene {
	c := s.controller
	if c == nil {
		return s
	}
	s.updateScrollOffset()
	if !immediate {
		c.UpdateScene(false, s)
		return s
	}
	if c.enabled {
		pos := c.scrollPos
		var p float64
		if s.duration > 0 {
			p = (pos - s.scrollOffset.Start) / (s.scrollOffset.End - s.scrollOffset.Start)
		} else if pos >= s.scrollOffset.Start {
			p = 1
		}
		s.emit(EventUpdate, Vars{StartPos: s.scrollOffset.Start, EndPos: s.scrollOffset.End, ScrollPos: pos})
		s.SetProgress(p)
	} else if s.pin != nil && s.state == StateDuring {
		s.updatePinState(true)
	}
	return s
}

// Refresh re-evaluates a computed duration and the trigger element position.
func (s *Scene) Refresh() *Scene {
	s.updateDuration(false)
	s.updateTriggerElementPosition(false)
	return s
}

// Progress returns the current progress in [0, 1].
func (s *Scene) Progress() float64 { return s.progress }

// SetProgress moves the scene to progress p and fires the resulting events.
// Values outside [0, 1] clamp to the nearest boundary state. When reverse is
// disabled a scene never moves backwards, and once AFTER it stays there.
//
// A state change emits, in order: enter and start/end when leaving a
// boundary state, progress, then start/end and leave when arriving at one.
func (s *Scene) SetProgress(p float64) *Scene {
	doUpdate := false
	oldState := s.state
	direction := DirectionPaused
	if s.controller != nil {
		direction = s.controller.direction
	}
	reverseOrForward := s.reverse || p >= s.progress

	if s.duration == 0 {
		doUpdate = s.progress != p
		if p < 1 && reverseOrForward {
			s.progress = 0
		} else {
			s.progress = 1
		}
		if s.progress == 0 {
			s.state = StateBefore
		} else {
			s.state = StateDuring
		}
	} else {
		switch {
		case p < 0 && s.state != StateBefore && reverseOrForward:
			s.progress = 0
			s.state = StateBefore
			doUpdate = true
		case p >= 0 && p < 1 && reverseOrForward:
			s.progress = p
			s.state = StateDuring
			doUpdate = true
		case p >= 1 && s.state != StateAfter:
			s.progress = 1
			s.state = StateAfter
			doUpdate = true
		case s.state == StateDuring && !reverseOrForward:
			// Keep the pin where it is while scrolling back with reverse off.
			s.updatePinState(false)
		}
	}

	if !doUpdate {
		return s
	}
	vars := Vars{Progress: s.progress, State: s.state, ScrollDirection: direction}
	changed := s.state != oldState
	boundary := func(st State) EventKind {
		if st == StateBefore {
			return EventStart
		}
		return EventEnd
	}
	if changed && oldState != StateDuring {
		s.emit(EventEnter, vars)
		s.emit(boundary(oldState), vars)
	}
	s.emit(EventProgress, vars)
	if changed && s.state != StateDuring {
		s.emit(boundary(s.state), vars)
		s.emit(EventLeave, vars)
	}
	return s
}

func (s *Scene) updateScrollOffset() {
	start := s.triggerPos + s.Offset()
	if s.controller != nil && s.triggerElem != nil {
		start -= s.controller.size * s.triggerHook
	}
	s.scrollOffset = ScrollOffset{Start: start, End: start + s.duration}
}

// updateDuration re-evaluates a computed duration.
func (s *Scene) updateDuration(suppressEvents bool) {
	if s.durationFn == nil {
		return
	}
	old := s.duration
	v := s.durationFn()
	if math.IsNaN(v) || v < 0 {
		s.log(LogError, "invalid return value of duration function", slog.Float64("value", v))
		s.durationFn = nil
		v = 0
	}
	s.duration = v
	if v != old && !suppressEvents {
		s.optionChanged("duration", v)
	}
}

// updateTriggerElementPosition measures the trigger element along the
// scroll axis, relative to the scroll content.
func (s *Scene) updateTriggerElementPosition(suppressEvents bool) {
	c := s.controller
	if c == nil || (s.triggerElem == nil && s.triggerPos <= 0) {
		return
	}
	var elementPos float64
	if el := s.triggerElem; el != nil {
		if c.surf.Attached(el) && c.surf.Parent(el) != nil {
			el = ascendSpacers(c.surf, el)
			containerPos := c.axis(c.surf.Offset(c.container, false))
			if !c.isDocument {
				containerPos -= c.ScrollPos()
			}
			elementPos = c.axis(c.surf.Offset(el, false)) - containerPos
		} else {
			s.log(LogWarn, "triggerElement was removed from the tree and will be reset")
			s.SetTriggerElement(TriggerSpec{})
		}
	}
	changed := elementPos != s.triggerPos
	s.triggerPos = elementPos
	if changed && !suppressEvents {
		s.emit(EventShift, Vars{Reason: "triggerElementPosition"})
	}
}

func (s *Scene) onContainerResize(*surface.Notification) {
	if s.triggerHook > 0 {
		s.emit(EventShift, Vars{Reason: "containerResize"})
	}
}

// --- Options ---

var shiftOptions = map[string]bool{
	"duration":    true,
	"offset":      true,
	"triggerHook": true,
}

// optionChanged emits change and, for options that move the scroll range,
// shift.
func (s *Scene) optionChanged(what string, newVal any) {
	s.emit(EventChange, Vars{What: what, NewVal: newVal})
	if shiftOptions[what] {
		s.emit(EventShift, Vars{Reason: what})
	}
}

// validateAll re-resolves options that depend on the controller.
func (s *Scene) validateAll() {
	if s.triggerSpec.IsSet() {
		s.triggerSpec, s.triggerElem = s.resolveTrigger(s.triggerSpec)
	}
}

func (s *Scene) resolveDuration(d DurationSpec) (float64, func() float64) {
	var fn func() float64
	switch d.kind {
	case specPercent:
		perc := d.value / 100
		fn = func() float64 {
			if s.controller == nil {
				return 0
			}
			return s.controller.size * perc
		}
	case specFunc:
		if d.fn == nil {
			s.log(LogError, "invalid scene option", slog.Any("error", ErrInvalidDuration))
			return 0, nil
		}
		fn = d.fn
	}
	v := d.value
	if fn != nil {
		v = fn()
	}
	if math.IsNaN(v) || v < 0 {
		if fn != nil {
			s.log(LogError, "invalid return value of duration function", slog.Float64("value", v))
		} else {
			s.log(LogError, "invalid scene option", slog.Any("error", ErrInvalidDuration), slog.Float64("value", v))
		}
		return 0, nil
	}
	return v, fn
}

func (s *Scene) resolveOffset(o OffsetSpec) OffsetSpec {
	if v := o.eval(); math.IsNaN(v) {
		s.log(LogError, "invalid scene option", slog.Any("error", ErrInvalidOffset))
		return OffsetPixels(0)
	}
	return o
}

func (s *Scene) resolveTriggerHook(h HookSpec) float64 {
	v, err := validateTriggerHook(h)
	if err != nil {
		s.log(LogError, "invalid scene option", slog.Any("error", err))
		return 0.5
	}
	return v
}

// resolveTrigger validates t. Without a controller t is
// kept as is; selectors stay unresolved until the scene is added.
func (s *Scene) resolveTrigger(t TriggerSpec) (TriggerSpec, surface.Element) {
	if !t.IsSet() {
		return TriggerSpec{}, nil
	}
	c := s.controller
	if c == nil {
		return t, t.el
	}
	el := t.el
	if el == nil {
		if els := c.surf.Resolve(t.selector); len(els) > 0 {
			el = els[0]
		}
	}
	if el == nil || !c.surf.Attached(el) || c.surf.Parent(el) == nil {
		s.log(LogError, "invalid scene option", slog.Any("error", ErrTriggerElementNotFound), slog.String("trigger", t.String()))
		return TriggerSpec{}, nil
	}
	return t, el
}

// Duration returns the scene length in pixels.
func (s *Scene) Duration() float64 { return s.duration }

// SetDuration sets the scene length. Any previously set duration function
// is discarded.
func (s *Scene) SetDuration(d DurationSpec) *Scene {
	s.durationFn = nil
	old := s.duration
	if !d.IsSet() {
		d = Pixels(0)
	}
	s.duration, s.durationFn = s.resolveDuration(d)
	if s.duration != old {
		s.optionChanged("duration", s.duration)
	}
	return s
}

// Offset returns the current offset in pixels.
func (s *Scene) Offset() float64 {
	v := s.offset.eval()
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// SetOffset sets the offset of the scene start from the trigger position.
func (s *Scene) SetOffset(o OffsetSpec) *Scene {
	old := s.Offset()
	oldFn := s.offset.kind == specFunc
	if !o.IsSet() {
		o = OffsetPixels(0)
	}
	s.offset = s.resolveOffset(o)
	if s.Offset() != old || oldFn != (s.offset.kind == specFunc) {
		s.optionChanged("offset", s.Offset())
	}
	return s
}

// TriggerElement returns the resolved trigger element, or nil.
func (s *Scene) TriggerElement() surface.Element { return s.triggerElem }

// SetTriggerElement sets or, with an empty spec, clears the trigger element.
func (s *Scene) SetTriggerElement(t TriggerSpec) *Scene {
	oldSpec, oldElem := s.triggerSpec, s.triggerElem
	s.triggerSpec, s.triggerElem = s.resolveTrigger(t)
	if s.triggerElem != oldElem || s.triggerSpec != oldSpec {
		s.optionChanged("triggerElement", s.triggerElem)
	}
	return s
}

// TriggerHook returns the trigger hook in [0, 1].
func (s *Scene) TriggerHook() float64 { return s.triggerHook }

func (s *Scene) SetTriggerHook(h HookSpec) *Scene {
	old := s.triggerHook
	s.triggerHook = s.resolveTriggerHook(h)
	if s.triggerHook != old {
		s.optionChanged("triggerHook", s.triggerHook)
	}
	return s
}

// Reverse reports whether the scene plays backwards on reverse scrolling.
func (s *Scene) Reverse() bool { return s.reverse }

func (s *Scene) SetReverse(v bool) *Scene {
	if s.reverse != v {
		s.reverse = v
		s.optionChanged("reverse", v)
	}
	return s
}

// TweenChanges is carried for tween integrations; the scene itself does not
// read it.
func (s *Scene) TweenChanges() bool { return s.tweenChanges }

func (s *Scene) SetTweenChanges(v bool) *Scene {
	if s.tweenChanges != v {
		s.tweenChanges = v
		s.optionChanged("tweenChanges", v)
	}
	return s
}

// LogLevel returns the scene's log level.
func (s *Scene) LogLevel() int { return s.logLevel }

// SetLogLevel sets the log level. Values outside [0, 3] reset it to 2.
func (s *Scene) SetLogLevel(v int) *Scene {
	old := s.logLevel
	if err := validateLogLevel(v); err != nil {
		s.log(LogError, "invalid scene option", slog.Any("error", err))
		v = LogWarn
	}
	s.logLevel = v
	if v != old {
		s.optionChanged("loglevel", v)
	}
	return s
}

// applyOptions applies every set field of opts through the setters.
func (s *Scene) applyOptions(opts SceneOptions) {
	if opts.Duration.IsSet() {
		s.SetDuration(opts.Duration)
	}
	if opts.Offset.IsSet() {
		s.SetOffset(opts.Offset)
	}
	if opts.TriggerElement.IsSet() {
		s.SetTriggerElement(opts.TriggerElement)
	}
	if opts.TriggerHook.IsSet() {
		s.SetTriggerHook(opts.TriggerHook)
	}
	if opts.Reverse != nil {
		s.SetReverse(*opts.Reverse)
	}
	if opts.TweenChanges != nil {
		s.SetTweenChanges(*opts.TweenChanges)
	}
	if opts.LogLevel != nil {
		s.SetLogLevel(*opts.LogLevel)
	}
}

// ascendSpacers walks from el up through enclosing pin spacers.
func ascendSpacers(p surface.Provider, el surface.Element) surface.Element {
	for range maxSpacerAscent {
		parent := p.Parent(el)
		if parent == nil || !p.HasAttr(parent, PinSpacerAttr) {
			break
		}
		el = parent
	}
	return el
}
