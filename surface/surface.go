package surface

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Element is an opaque handle to a node of a host surface. The reference
// implementation is *Node; other providers may use their own handle types.
type Element interface {
	ElementName() string
}

// Point is a position along both axes.
type Point struct {
	Top, Left float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// --- Lengths ---

// Unit selects how a Length is interpreted.
type Unit uint8

const (
	UnitUnset   Unit = iota // not authored; the property falls back to its default
	UnitAuto                // "auto"
	UnitPx                  // absolute pixels
	UnitPercent             // percentage of the containing block
)

// Length is a style length value.
type Length struct {
	Value float64
	Unit  Unit
}

// Px returns a pixel length.
func Px(v float64) Length { return Length{Value: v, Unit: UnitPx} }

// Percent returns a percentage length; Percent(50) is "50%".
func Percent(v float64) Length { return Length{Value: v, Unit: UnitPercent} }

// Auto returns the "auto" length.
func Auto() Length { return Length{Unit: UnitAuto} }

// IsSet reports whether the length was authored.
func (l Length) IsSet() bool { return l.Unit != UnitUnset }

// IsPercent reports whether the length is a percentage.
func (l Length) IsPercent() bool { return l.Unit == UnitPercent }

// IsAuto reports whether the length is "auto" or unset.
func (l Length) IsAuto() bool { return l.Unit == UnitAuto || l.Unit == UnitUnset }

// Resolve converts the length to pixels against ref. Auto and unset lengths
// return def.
func (l Length) Resolve(ref, def float64) float64 {
	switch l.Unit {
	case UnitPx:
		return l.Value
	case UnitPercent:
		return l.Value / 100 * ref
	default:
		return def
	}
}

func (l Length) String() string {
	switch l.Unit {
	case UnitAuto:
		return "auto"
	case UnitPx:
		return strconv.FormatFloat(l.Value, 'f', -1, 64) + "px"
	case UnitPercent:
		return strconv.FormatFloat(l.Value, 'f', -1, 64) + "%"
	default:
		return ""
	}
}

// ParseLength parses "auto", "12", "12px" and "50%". The empty string yields
// an unset length.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Length{}, nil
	case s == "auto":
		return Auto(), nil
	case strings.HasSuffix(s, "%"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return Length{}, fmt.Errorf("parse length %q: %w", s, err)
		}
		return Percent(v), nil
	default:
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
		if err != nil {
			return Length{}, fmt.Errorf("parse length %q: %w", s, err)
		}
		return Px(v), nil
	}
}

// --- Keyword properties ---

// Position is the positioning scheme of a node.
type Position uint8

const (
	PositionUnset Position = iota
	PositionStatic
	PositionRelative
	PositionAbsolute
	PositionFixed
)

func (p Position) String() string {
	switch p {
	case PositionStatic:
		return "static"
	case PositionRelative:
		return "relative"
	case PositionAbsolute:
		return "absolute"
	case PositionFixed:
		return "fixed"
	default:
		return ""
	}
}

// Display is the display mode of a node.
type Display uint8

const (
	DisplayUnset Display = iota
	DisplayBlock
	DisplayInline
	DisplayInlineBlock
	DisplayFlex
	DisplayListItem
	DisplayTable
	DisplayWebkitBox
	DisplayNone
)

var displayNames = [...]string{
	DisplayUnset:       "",
	DisplayBlock:       "block",
	DisplayInline:      "inline",
	DisplayInlineBlock: "inline-block",
	DisplayFlex:        "flex",
	DisplayListItem:    "list-item",
	DisplayTable:       "table",
	DisplayWebkitBox:   "-webkit-box",
	DisplayNone:        "none",
}

func (d Display) String() string {
	if int(d) < len(displayNames) {
		return displayNames[d]
	}
	return ""
}

// MarginCollapse reports whether the display mode participates in margin
// collapsing.
func MarginCollapse(d Display) bool {
	switch d {
	case DisplayBlock, DisplayFlex, DisplayListItem, DisplayTable, DisplayWebkitBox:
		return true
	}
	return false
}

// BoxSizing selects whether width and height include padding.
type BoxSizing uint8

const (
	BoxSizingUnset BoxSizing = iota
	BoxSizingContentBox
	BoxSizingBorderBox
)

// Flow selects the axis along which a node lays out its in-flow children.
type Flow uint8

const (
	FlowUnset  Flow = iota // column
	FlowColumn             // children stack top to bottom
	FlowRow                // children stack left to right
)

// ParsePosition, ParseDisplay and ParseFlow map keyword strings to values.
func ParsePosition(s string) (Position, error) {
	switch s {
	case "":
		return PositionUnset, nil
	case "static":
		return PositionStatic, nil
	case "relative":
		return PositionRelative, nil
	case "absolute":
		return PositionAbsolute, nil
	case "fixed":
		return PositionFixed, nil
	}
	return PositionUnset, fmt.Errorf("unknown position %q", s)
}

func ParseDisplay(s string) (Display, error) {
	for i, name := range displayNames {
		if name == s {
			return Display(i), nil
		}
	}
	return DisplayUnset, fmt.Errorf("unknown display %q", s)
}

func ParseFlow(s string) (Flow, error) {
	switch s {
	case "":
		return FlowUnset, nil
	case "column":
		return FlowColumn, nil
	case "row":
		return FlowRow, nil
	}
	return FlowUnset, fmt.Errorf("unknown flow %q", s)
}

// Edges holds one length per box side.
type Edges struct {
	Top, Right, Bottom, Left Length
}

// Style is the set of box-model properties a node carries. The zero value
// is an empty inline style.
type Style struct {
	Position  Position
	Display   Display
	BoxSizing BoxSizing
	Flow      Flow

	Top, Left, Bottom, Right Length
	Margin                   Edges
	Padding                  Edges

	Width, Height       Length
	MinWidth, MinHeight Length
}

// Merge returns s with every property authored in patch applied on top.
func (s Style) Merge(patch Style) Style {
	if patch.Position != PositionUnset {
		s.Position = patch.Position
	}
	if patch.Display != DisplayUnset {
		s.Display = patch.Display
	}
	if patch.BoxSizing != BoxSizingUnset {
		s.BoxSizing = patch.BoxSizing
	}
	if patch.Flow != FlowUnset {
		s.Flow = patch.Flow
	}
	mergeLength(&s.Top, patch.Top)
	mergeLength(&s.Left, patch.Left)
	mergeLength(&s.Bottom, patch.Bottom)
	mergeLength(&s.Right, patch.Right)
	mergeEdges(&s.Margin, patch.Margin)
	mergeEdges(&s.Padding, patch.Padding)
	mergeLength(&s.Width, patch.Width)
	mergeLength(&s.Height, patch.Height)
	mergeLength(&s.MinWidth, patch.MinWidth)
	mergeLength(&s.MinHeight, patch.MinHeight)
	return s
}

func mergeLength(dst *Length, src Length) {
	if src.IsSet() {
		*dst = src
	}
}

func mergeEdges(dst *Edges, src Edges) {
	mergeLength(&dst.Top, src.Top)
	mergeLength(&dst.Right, src.Right)
	mergeLength(&dst.Bottom, src.Bottom)
	mergeLength(&dst.Left, src.Left)
}

// --- Notifications ---

// NotifyKind identifies a kind of host notification.
type NotifyKind uint8

const (
	NotifyScroll NotifyKind = iota // scroll position of a container changed
	NotifyResize                   // viewport size changed
	NotifyWheel                    // wheel-style scroll delta over a node
)

func (k NotifyKind) String() string {
	switch k {
	case NotifyScroll:
		return "scroll"
	case NotifyResize:
		return "resize"
	case NotifyWheel:
		return "wheel"
	default:
		return "unknown"
	}
}

// Notification is delivered to listeners. Wheel notifications carry the
// scroll distance in pixels; positive values scroll forward (down or right).
type Notification struct {
	Kind   NotifyKind
	Target Element
	DeltaX float64
	DeltaY float64

	prevented bool
}

// PreventDefault suppresses the host's default action for a wheel
// notification. It has no effect on scroll and resize notifications.
func (n *Notification) PreventDefault() { n.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (n *Notification) DefaultPrevented() bool { return n.prevented }

// Listener receives notifications.
type Listener func(n *Notification)

// ListenerID, FrameID and TimerID identify cancellable registrations.
type (
	ListenerID uint64
	FrameID    uint64
	TimerID    uint64
)

// Provider is the set of measurement, mutation and scheduling primitives the
// scroll scene engine consumes from its host.
type Provider interface {
	// Resolve returns the elements matching selector: "#name" or ".class".
	Resolve(selector string) []Element
	// Viewport returns the top-level viewport element.
	Viewport() Element
	IsViewport(el Element) bool
	// Attached reports whether el is part of the live tree.
	Attached(el Element) bool
	Parent(el Element) Element
	FirstChild(el Element) Element

	ScrollPos(container Element, vertical bool) float64
	SetScrollPos(container Element, vertical bool, pos float64)
	ViewportSize(container Element, vertical bool) float64

	// Width and Height return the client size, or the border-box size when
	// outer is set, optionally including margins.
	Width(el Element, outer, includeMargin bool) float64
	Height(el Element, outer, includeMargin bool) float64
	// Offset returns the border-box origin relative to the document or,
	// with relativeToViewport, to the viewport.
	Offset(el Element, relativeToViewport bool) Point

	InlineStyle(el Element) Style
	SetInlineStyle(el Element, s Style)
	ComputedStyle(el Element) Style

	CreateElement(name string) Element
	InsertBefore(parent, child, ref Element)
	AppendChild(parent, child Element)
	RemoveChild(parent, child Element)
	SetAttr(el Element, key string)
	HasAttr(el Element, key string) bool
	AddClass(el Element, class string)
	// Data and SetData store per-element values owned by the caller.
	Data(el Element, key string) any
	SetData(el Element, key string, v any)

	Listen(target Element, kind NotifyKind, fn Listener) ListenerID
	Unlisten(id ListenerID)
	// Dispatch delivers a synthetic notification to target's listeners.
	Dispatch(target Element, n *Notification)

	// RequestFrame schedules fn before the next repaint; fn receives the
	// host clock.
	RequestFrame(fn func(now time.Duration)) FrameID
	CancelFrame(id FrameID)
	AfterFunc(d time.Duration, fn func()) TimerID
	CancelTimer(id TimerID)
}
