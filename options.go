package scrollwizardry

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/phanxgames/scrollwizardry/surface"
)

// --- Duration ---

type specKind uint8

const (
	specUnset specKind = iota
	specLiteral
	specPercent
	specFunc
	specName
)

// DurationSpec is the authored value of a scene duration: a pixel count, a
// percentage of the container size, or a function re-evaluated on every
// refresh.
type DurationSpec struct {
	kind  specKind
	value float64
	fn    func() float64
}

// Pixels returns a fixed duration in pixels.
func Pixels(v float64) DurationSpec { return DurationSpec{kind: specLiteral, value: v} }

// PercentOf returns a duration of v percent of the container size.
// PercentOf(50) is "50%".
func PercentOf(v float64) DurationSpec { return DurationSpec{kind: specPercent, value: v} }

// DurationFunc returns a duration computed by fn on every refresh.
func DurationFunc(fn func() float64) DurationSpec { return DurationSpec{kind: specFunc, fn: fn} }

var percentPattern = regexp.MustCompile(`^(\.|\d)*\d+%$`)

// ParseDuration parses "120", "120px" or a percentage such as "50%".
func ParseDuration(s string) (DurationSpec, error) {
	s = strings.TrimSpace(s)
	if percentPattern.MatchString(s) {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return DurationSpec{}, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		return PercentOf(v), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	if err != nil || v < 0 {
		return DurationSpec{}, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return Pixels(v), nil
}

// IsSet reports whether d was authored.
func (d DurationSpec) IsSet() bool { return d.kind != specUnset }

func (d DurationSpec) String() string {
	switch d.kind {
	case specLiteral:
		return strconv.FormatFloat(d.value, 'f', -1, 64)
	case specPercent:
		return strconv.FormatFloat(d.value, 'f', -1, 64) + "%"
	case specFunc:
		return "func"
	default:
		return ""
	}
}

// --- Offset ---

// OffsetSpec is the authored value of a scene offset: a pixel count or a
// function evaluated whenever the scroll range is recomputed.
type OffsetSpec struct {
	kind  specKind
	value float64
	fn    func() float64
}

// OffsetPixels returns a fixed offset in pixels.
func OffsetPixels(v float64) OffsetSpec { return OffsetSpec{kind: specLiteral, value: v} }

// OffsetFunc returns an offset computed by fn.
func OffsetFunc(fn func() float64) OffsetSpec { return OffsetSpec{kind: specFunc, fn: fn} }

func (o OffsetSpec) IsSet() bool { return o.kind != specUnset }

func (o OffsetSpec) eval() float64 {
	if o.kind == specFunc {
		if o.fn == nil {
			return math.NaN()
		}
		return o.fn()
	}
	return o.value
}

// --- Trigger hook ---

// HookSpec is the authored trigger hook: a fraction of the viewport or one
// of the names "onEnter" (1), "onCenter" (0.5) and "onLeave" (0).
type HookSpec struct {
	kind  specKind
	value float64
	name  string
}

// Hook returns a numeric trigger hook. Values are clamped to [0, 1].
func Hook(v float64) HookSpec { return HookSpec{kind: specLiteral, value: v} }

// HookName returns a named trigger hook.
func HookName(name string) HookSpec { return HookSpec{kind: specName, name: name} }

// ParseHook parses a number or a hook name.
func ParseHook(s string) HookSpec {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Hook(v)
	}
	return HookName(s)
}

func (h HookSpec) IsSet() bool { return h.kind != specUnset }

var hookNames = map[string]float64{
	"onEnter":  1,
	"onCenter": 0.5,
	"onLeave":  0,
}

func validateTriggerHook(h HookSpec) (float64, error) {
	switch h.kind {
	case specLiteral:
		if math.IsNaN(h.value) {
			return 0, fmt.Errorf("%w: NaN", ErrInvalidTriggerHook)
		}
		return math.Max(0, math.Min(h.value, 1)), nil
	case specName:
		if v, ok := hookNames[h.name]; ok {
			return v, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidTriggerHook, h.name)
	default:
		return 0, fmt.Errorf("%w: unset", ErrInvalidTriggerHook)
	}
}

// --- Trigger element ---

// TriggerSpec selects the trigger element, either directly or by selector.
// Selectors are resolved once the scene belongs to a controller.
type TriggerSpec struct {
	el       surface.Element
	selector string
}

// TriggerElement returns a spec for el. A nil el clears the trigger.
func TriggerElement(el surface.Element) TriggerSpec { return TriggerSpec{el: el} }

// TriggerSelector returns a spec resolving selector to its first match.
func TriggerSelector(selector string) TriggerSpec { return TriggerSpec{selector: selector} }

func (t TriggerSpec) IsSet() bool { return t.el != nil || t.selector != "" }

func (t TriggerSpec) String() string {
	if t.selector != "" {
		return t.selector
	}
	if t.el != nil {
		return t.el.ElementName()
	}
	return ""
}

// --- Log level ---

func validateLogLevel(v int) error {
	if v < LogSilent || v > LogDebug {
		return fmt.Errorf("%w: %d", ErrInvalidLogLevel, v)
	}
	return nil
}

// --- Options ---

// SceneOptions configures a scene. Unset fields take their defaults:
// duration 0, offset 0, no trigger element, trigger hook 0.5, reverse true,
// tweenChanges false and log level 2. The same type carries a controller's
// global scene options, where only set fields are applied.
type SceneOptions struct {
	Duration       DurationSpec
	Offset         OffsetSpec
	TriggerElement TriggerSpec
	TriggerHook    HookSpec
	Reverse        *bool
	TweenChanges   *bool
	LogLevel       *int
}

// DefaultSceneOptions returns the defaults with every field set.
func DefaultSceneOptions() SceneOptions {
	return SceneOptions{
		Duration:     Pixels(0),
		Offset:       OffsetPixels(0),
		TriggerHook:  Hook(0.5),
		Reverse:      Bool(true),
		TweenChanges: Bool(false),
		LogLevel:     Int(LogWarn),
	}
}
