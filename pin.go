package scrollwizardry

import (
	"log/slog"
	"math"

	"github.com/phanxgames/scrollwizardry/surface"
)

// DefaultSpacerClass is the class added to pin spacers.
const DefaultSpacerClass = "scrollwizardry-pin-spacer"

// origStyleKey stores an element's inline style from before its first pin.
const origStyleKey = "scrollwizardry.origStyle"

// PinSettings configures SetPin.
type PinSettings struct {
	// PushFollowers reserves the scene duration as space in the flow, so
	// content after the pinned element scrolls on only once the pin ends.
	// Defaults to true; forced off for absolutely positioned elements.
	PushFollowers *bool
	// SpacerClass is added to the spacer. Defaults to DefaultSpacerClass.
	SpacerClass string
}

type pinRequest struct {
	el       surface.Element
	selector string
	settings PinSettings
}

// pinState is the pin of one scene.
type pinState struct {
	surf    surface.Provider
	element surface.Element
	spacer  surface.Element

	// relWidth and relHeight record percentage sizes; such pins take their
	// size from the spacer instead of the other way round.
	relWidth      bool
	relHeight     bool
	autoFullWidth bool

	pushFollowers bool
	inFlow        bool

	listeners []surface.ListenerID
	// warnTimer checks pushFollowers against the duration once the
	// current step settles.
	warnTimer surface.TimerID
}

// SetPin keeps el fixed in the viewport while the scene is DURING. The
// element is wrapped in a spacer that holds its place in the flow. Without a
// controller the pin is applied when the scene is added to one.
func (s *Scene) SetPin(el surface.Element, settings PinSettings) *Scene {
	return s.requestPin(&pinRequest{el: el, settings: settings})
}

// SetPinSelector is SetPin for the first element matching selector.
func (s *Scene) SetPinSelector(selector string, settings PinSettings) *Scene {
	return s.requestPin(&pinRequest{selector: selector, settings: settings})
}

func (s *Scene) requestPin(req *pinRequest) *Scene {
	if s.controller == nil {
		s.pendingPin = req
		return s
	}
	s.applyPin(req)
	return s
}

func (s *Scene) applyPin(req *pinRequest) {
	surf := s.controller.surf
	el := req.el
	if el == nil && req.selector != "" {
		if els := surf.Resolve(req.selector); len(els) > 0 {
			el = els[0]
		}
	}
	if el == nil || surf.Parent(el) == nil {
		s.log(LogError, "error calling SetPin", slog.Any("error", ErrInvalidPin))
		return
	}
	if surf.ComputedStyle(el).Position == surface.PositionFixed {
		s.log(LogError, "error calling SetPin", slog.Any("error", ErrFixedPin))
		return
	}

	if s.pin != nil {
		if s.pin.element == el {
			return
		}
		s.RemovePin(false)
	}

	// Hiding the parent makes the computed style report authored values
	// instead of resolved pixels.
	parent := surf.Parent(el)
	parentStyle := surf.InlineStyle(parent)
	hidden := parentStyle
	hidden.Display = surface.DisplayNone
	surf.SetInlineStyle(parent, hidden)
	pinCSS := surf.ComputedStyle(el)
	surf.SetInlineStyle(parent, parentStyle)

	inFlow := pinCSS.Position != surface.PositionAbsolute
	pushFollowers := req.settings.PushFollowers == nil || *req.settings.PushFollowers
	if !inFlow && pushFollowers {
		s.log(LogWarn, "pushFollowers is disabled for absolutely positioned pins")
		pushFollowers = false
	}

	p := &pinState{
		surf:          surf,
		element:       el,
		relWidth:      pinCSS.Width.IsPercent(),
		relHeight:     pinCSS.Height.IsPercent(),
		autoFullWidth: pinCSS.Width.IsAuto() && inFlow && surface.MarginCollapse(pinCSS.Display),
		pushFollowers: pushFollowers,
		inFlow:        inFlow,
	}
	s.pin = p

	// The duration may still change right after the pin is set.
	p.warnTimer = surf.AfterFunc(0, func() {
		if s.pin == p && s.duration == 0 && p.pushFollowers {
			s.log(LogWarn, "pushFollowers has no effect when scene duration is 0")
		}
	})

	spacerStyle := surface.Style{
		Position:  surface.PositionRelative,
		Display:   pinCSS.Display,
		BoxSizing: surface.BoxSizingContentBox,
		Top:       pinCSS.Top,
		Left:      pinCSS.Left,
		Bottom:    pinCSS.Bottom,
		Right:     pinCSS.Right,
		Margin:    pinCSS.Margin,
	}
	if !inFlow {
		spacerStyle.Position = surface.PositionAbsolute
		spacerStyle.Width = pinCSS.Width
		spacerStyle.Height = pinCSS.Height
	}
	if p.relWidth {
		spacerStyle.Width = pinCSS.Width
	}
	if p.relHeight {
		spacerStyle.Height = pinCSS.Height
	}

	spacer := surf.CreateElement("pin-spacer")
	surf.InsertBefore(parent, spacer, el)
	surf.SetInlineStyle(spacer, spacerStyle)
	surf.SetAttr(spacer, PinSpacerAttr)
	class := req.settings.SpacerClass
	if class == "" {
		class = DefaultSpacerClass
	}
	surf.AddClass(spacer, class)
	p.spacer = spacer

	if surf.Data(el, origStyleKey) == nil {
		surf.SetData(el, origStyleKey, surf.InlineStyle(el))
	}

	surf.AppendChild(spacer, el)
	pinStyle := surf.InlineStyle(el)
	pinStyle.Position = spacerStyle.Position
	pinStyle.Margin = surface.Edges{Top: surface.Auto(), Right: surface.Auto(), Bottom: surface.Auto(), Left: surface.Auto()}
	pinStyle.Top, pinStyle.Left = surface.Auto(), surface.Auto()
	pinStyle.Bottom, pinStyle.Right = surface.Auto(), surface.Auto()
	if p.relWidth || p.autoFullWidth {
		pinStyle.BoxSizing = surface.BoxSizingBorderBox
	}
	surf.SetInlineStyle(el, pinStyle)

	viewport := surf.Viewport()
	p.listeners = append(p.listeners,
		surf.Listen(viewport, surface.NotifyScroll, func(*surface.Notification) { s.updatePinInContainer() }),
		surf.Listen(viewport, surface.NotifyResize, func(*surface.Notification) { s.updatePinInContainer() }),
		surf.Listen(viewport, surface.NotifyResize, func(*surface.Notification) { s.updateRelativePinSpacer() }),
		surf.Listen(el, surface.NotifyWheel, s.onWheelOverPin),
	)

	s.log(LogDebug, "added pin")
	s.updatePinState(false)
}

// RemovePin releases the pinned element. With reset, or when the scene has
// no controller, the spacer is removed and the element's original inline
// style restored.
func (s *Scene) RemovePin(reset bool) *Scene {
	s.pendingPin = nil
	p := s.pin
	if p == nil {
		return s
	}
	if s.state == StateDuring {
		s.updatePinState(true)
	}
	surf := p.surf
	if reset || s.controller == nil {
		target := surf.FirstChild(p.spacer)
		if target != nil && surf.HasAttr(target, PinSpacerAttr) {
			// Cascaded pin: hand the spacer margins down to the inner spacer.
			ts := surf.InlineStyle(target)
			ts.Margin = surf.InlineStyle(p.spacer).Margin
			surf.SetInlineStyle(target, ts)
		}
		if parent := surf.Parent(p.spacer); parent != nil {
			if target != nil {
				surf.InsertBefore(parent, target, p.spacer)
			}
			surf.RemoveChild(parent, p.spacer)
		}
		if ep := surf.Parent(p.element); ep == nil || !surf.HasAttr(ep, PinSpacerAttr) {
			if orig, ok := surf.Data(p.element, origStyleKey).(surface.Style); ok {
				surf.SetInlineStyle(p.element, orig)
			}
			surf.SetData(p.element, origStyleKey, nil)
		}
	}
	for _, id := range p.listeners {
		surf.Unlisten(id)
	}
	surf.CancelTimer(p.warnTimer)
	s.pin = nil
	s.log(LogDebug, "removed pin", slog.Bool("reset", reset))
	return s
}

// Pin returns the pinned element and its spacer, or nils.
func (s *Scene) Pin() (el, spacer surface.Element) {
	if s.pin == nil {
		return nil, nil
	}
	return s.pin.element, s.pin.spacer
}

// updatePinState fixes the pin while DURING and releases it otherwise.
// forceUnpin releases it in place.
func (s *Scene) updatePinState(forceUnpin bool) {
	p, c := s.pin, s.controller
	if p == nil || c == nil {
		return
	}
	surf := p.surf
	// The spacer's first child is the pinned element, or an inner spacer
	// when pins cascade.
	target := surf.FirstChild(p.spacer)
	if target == nil {
		return
	}

	if !forceUnpin && s.state == StateDuring {
		if surf.ComputedStyle(target).Position != surface.PositionFixed {
			st := surf.InlineStyle(target)
			st.Position = surface.PositionFixed
			surf.SetInlineStyle(target, st)
			s.updatePinDimensions()
		}

		fixedPos := surf.Offset(p.spacer, true)
		var scrollDistance float64
		if s.reverse || s.duration == 0 {
			scrollDistance = c.scrollPos - s.scrollOffset.Start
		} else {
			scrollDistance = math.Round(s.progress*s.duration*10) / 10
		}
		if c.vertical {
			fixedPos.Top += scrollDistance
		} else {
			fixedPos.Left += scrollDistance
		}
		st := surf.InlineStyle(target)
		st.Top = surface.Px(fixedPos.Top)
		st.Left = surface.Px(fixedPos.Left)
		surf.SetInlineStyle(target, st)
		return
	}

	pos := surface.PositionRelative
	if !p.inFlow {
		pos = surface.PositionAbsolute
	}
	change := surf.ComputedStyle(target).Position != pos
	st := surf.InlineStyle(target)
	st.Position = pos
	st.Top, st.Left = surface.Px(0), surface.Px(0)

	if !p.pushFollowers {
		shift := surface.Px(s.duration * s.progress)
		if c.vertical {
			st.Top = shift
		} else {
			st.Left = shift
		}
	} else if s.duration > 0 {
		// A jump straight past the pin leaves the spacer padding stale.
		pad := surf.ComputedStyle(p.spacer).Padding
		lead, trail := pad.Top, pad.Bottom
		if !c.vertical {
			lead, trail = pad.Left, pad.Right
		}
		if s.state == StateAfter && lead.Resolve(0, 0) == 0 {
			change = true
		} else if s.state == StateBefore && trail.Resolve(0, 0) == 0 {
			change = true
		}
	}

	surf.SetInlineStyle(target, st)
	if change {
		s.updatePinDimensions()
	}
}

// updatePinDimensions sizes the spacer to the pin (or the pin to the spacer
// for percentage sizes) and applies the push-followers padding.
func (s *Scene) updatePinDimensions() {
	p, c := s.pin, s.controller
	if p == nil || c == nil || !p.inFlow {
		return
	}
	surf := p.surf
	during := s.state == StateDuring
	target := surf.FirstChild(p.spacer)
	if target == nil {
		return
	}
	marginCollapse := surface.MarginCollapse(surf.ComputedStyle(p.spacer).Display)
	sp := surf.InlineStyle(p.spacer)

	if p.relWidth || p.autoFullWidth {
		st := surf.InlineStyle(p.element)
		if during {
			st.Width = surface.Px(surf.Width(p.spacer, false, false))
		} else {
			st.Width = surface.Percent(100)
		}
		surf.SetInlineStyle(p.element, st)
	} else {
		ref := target
		if c.vertical {
			ref = p.element
		}
		// min-width keeps cascaded spacers from collapsing.
		sp.MinWidth = surface.Px(surf.Width(ref, true, true))
		if during {
			sp.Width = sp.MinWidth
		} else {
			sp.Width = surface.Auto()
		}
	}

	if p.relHeight {
		st := surf.InlineStyle(p.element)
		if during {
			h := surf.Height(p.spacer, false, false)
			if p.pushFollowers {
				h -= s.duration
			}
			st.Height = surface.Px(h)
		} else {
			st.Height = surface.Percent(100)
		}
		surf.SetInlineStyle(p.element, st)
	} else {
		ref := p.element
		if c.vertical {
			ref = target
		}
		sp.MinHeight = surface.Px(surf.Height(ref, true, !marginCollapse))
		if during {
			sp.Height = sp.MinHeight
		} else {
			sp.Height = surface.Auto()
		}
	}

	if p.pushFollowers {
		lead := surface.Px(s.duration * s.progress)
		trail := surface.Px(s.duration * (1 - s.progress))
		if c.vertical {
			sp.Padding.Top, sp.Padding.Bottom = lead, trail
		} else {
			sp.Padding.Left, sp.Padding.Right = lead, trail
		}
	}

	surf.SetInlineStyle(p.spacer, sp)
}

// updatePinInContainer keeps a pin inside a nested scroll container in
// place when the viewport scrolls or resizes.
func (s *Scene) updatePinInContainer() {
	c := s.controller
	if c != nil && s.pin != nil && s.state == StateDuring && !c.isDocument {
		s.updatePinState(false)
	}
}

// updateRelativePinSpacer resizes percentage-sized pins on viewport resize
// unless the spacer's parent tracks the viewport size anyway.
func (s *Scene) updateRelativePinSpacer() {
	p, c := s.pin, s.controller
	if c == nil || p == nil || s.state != StateDuring {
		return
	}
	surf := p.surf
	parent := surf.Parent(p.spacer)
	if parent == nil {
		return
	}
	viewport := surf.Viewport()
	if ((p.relWidth || p.autoFullWidth) && surf.Width(viewport, false, false) != surf.Width(parent, false, false)) ||
		(p.relHeight && surf.Height(viewport, false, false) != surf.Height(parent, false, false)) {
		s.updatePinDimensions()
	}
}

// onWheelOverPin forwards wheel input over a fixed pin to a nested scroll
// container, which would otherwise not receive it.
func (s *Scene) onWheelOverPin(n *surface.Notification) {
	c := s.controller
	if c == nil || s.pin == nil || s.state != StateDuring || c.isDocument {
		return
	}
	n.PreventDefault()
	delta := n.DeltaY
	if !c.vertical {
		delta = n.DeltaX
	}
	c.scrollHandler(c.scrollPos + delta)
}
