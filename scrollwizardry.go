package scrollwizardry

import (
	"errors"
	"time"
)

// State is the position of a scene relative to its scroll range.
type State uint8

const (
	// StateBefore means the scroll position has not reached the scene start.
	StateBefore State = iota
	// StateDuring means the scroll position is inside the scene range, or past
	// the start of a zero-duration scene.
	StateDuring
	// StateAfter means the scroll position passed the scene end.
	StateAfter
)

func (s State) String() string {
	switch s {
	case StateBefore:
		return "BEFORE"
	case StateDuring:
		return "DURING"
	case StateAfter:
		return "AFTER"
	default:
		return "UNKNOWN"
	}
}

// ScrollDirection is the direction of the last observed scroll movement.
type ScrollDirection uint8

const (
	DirectionPaused ScrollDirection = iota
	DirectionForward
	DirectionReverse
)

func (d ScrollDirection) String() string {
	switch d {
	case DirectionForward:
		return "FORWARD"
	case DirectionReverse:
		return "REVERSE"
	default:
		return "PAUSED"
	}
}

// ScrollOffset is the scroll range of a scene in container coordinates.
type ScrollOffset struct {
	Start float64
	End   float64
}

// Log levels. Messages above a scene's or controller's level are dropped.
const (
	LogSilent = 0
	LogError  = 1
	LogWarn   = 2
	LogDebug  = 3
)

// PinSpacerAttr tags the wrapper nodes inserted around pinned elements.
const PinSpacerAttr = "data-scrollwizardry-pin-spacer"

// maxSpacerAscent bounds the walk from an element up through nested pin
// spacers.
const maxSpacerAscent = 64

var (
	ErrNoContainer            = errors.New("no valid scroll container supplied")
	ErrInvalidDuration        = errors.New("invalid value for option duration")
	ErrInvalidOffset          = errors.New("invalid value for option offset")
	ErrInvalidTriggerHook     = errors.New("invalid value for option triggerHook")
	ErrInvalidLogLevel        = errors.New("invalid value for option loglevel")
	ErrTriggerElementNotFound = errors.New("trigger element was not found")
	ErrInvalidPin             = errors.New("invalid pin element supplied")
	ErrFixedPin               = errors.New("pin does not work with elements that are positioned fixed")
)

// Bool returns a pointer to b, for optional option fields.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to v, for optional option fields.
func Int(v int) *int { return &v }

// Interval returns a pointer to d, for ControllerOptions.RefreshInterval.
func Interval(d time.Duration) *time.Duration { return &d }
