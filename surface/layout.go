package surface

import "math"

// layoutBox is the geometry computed for a node by the last layout pass.
type layoutBox struct {
	// x, y is the border-box origin in document space before scrolling, or
	// in viewport space for nodes inside a fixed subtree.
	x, y float64
	// w, h is the border-box size.
	w, h float64
	// margin and pad are resolved as top, right, bottom, left.
	margin [4]float64
	pad    [4]float64
	// scrollW, scrollH is the extent of the in-flow content plus padding.
	scrollW, scrollH float64

	fixed  bool // node or an ancestor is position:fixed
	hidden bool // node or an ancestor is display:none
}

// ensureLayout recomputes every box if the tree changed since the last pass.
func (t *Tree) ensureLayout() {
	if !t.layoutDirty {
		return
	}
	t.layoutDirty = false

	r := t.root
	hidden := r.style.Display == DisplayNone
	r.box = layoutBox{w: t.width, h: t.height, hidden: hidden}
	extW, extH := t.layoutChildren(r, 0, 0, t.width, t.height, true, false, hidden)
	r.box.scrollW, r.box.scrollH = extW, extH
}

// layoutChildren lays out n's children inside the content box at (cx, cy)
// of size (cw, ch) and returns the extent of the in-flow children.
func (t *Tree) layoutChildren(n *Node, cx, cy, cw, ch float64, chKnown, fixed, hidden bool) (extW, extH float64) {
	row := n.style.Flow == FlowRow
	flowX, flowY := cx, cy
	for _, c := range n.children {
		s := c.style
		switch s.Position {
		case PositionAbsolute:
			ox := cx + s.Left.Resolve(cw, 0)
			oy := cy + s.Top.Resolve(ch, 0)
			ow, oh := t.layoutNode(c, ox, oy, cw, ch, chKnown, fixed, hidden, true)
			t.anchorFarEdges(c, s, cw, ch, ow, oh)
		case PositionFixed:
			ox := s.Left.Resolve(t.width, 0)
			oy := s.Top.Resolve(t.height, 0)
			ow, oh := t.layoutNode(c, ox, oy, t.width, t.height, true, true, hidden, true)
			t.anchorFarEdges(c, s, t.width, t.height, ow, oh)
		default:
			var dx, dy float64
			if s.Position == PositionRelative {
				dx = relativeShift(s.Left, s.Right, cw)
				dy = relativeShift(s.Top, s.Bottom, ch)
			}
			ow, oh := t.layoutNode(c, flowX+dx, flowY+dy, cw, ch, chKnown, fixed, hidden, row)
			if row {
				flowX += ow
				extW += ow
				extH = math.Max(extH, oh)
			} else {
				flowY += oh
				extH += oh
				extW = math.Max(extW, ow)
			}
		}
	}
	return extW, extH
}

// layoutNode lays out n with its margin box starting at (x, y) inside a
// containing block of size (cbW, cbH) and returns the margin-box size.
// Shrink nodes without an authored width size to their content.
func (t *Tree) layoutNode(n *Node, x, y, cbW, cbH float64, cbHKnown, fixed, hidden, shrink bool) (outerW, outerH float64) {
	s := n.style
	fixed = fixed || s.Position == PositionFixed
	hidden = hidden || s.Display == DisplayNone
	b := &n.box
	*b = layoutBox{fixed: fixed, hidden: hidden}

	if s.Display == DisplayNone {
		b.x, b.y = x, y
		t.layoutChildren(n, x, y, 0, 0, false, fixed, true)
		return 0, 0
	}

	b.margin = [4]float64{
		s.Margin.Top.Resolve(cbW, 0),
		s.Margin.Right.Resolve(cbW, 0),
		s.Margin.Bottom.Resolve(cbW, 0),
		s.Margin.Left.Resolve(cbW, 0),
	}
	b.pad = [4]float64{
		s.Padding.Top.Resolve(cbW, 0),
		s.Padding.Right.Resolve(cbW, 0),
		s.Padding.Bottom.Resolve(cbW, 0),
		s.Padding.Left.Resolve(cbW, 0),
	}
	padW := b.pad[1] + b.pad[3]
	padH := b.pad[0] + b.pad[2]
	borderBox := s.BoxSizing == BoxSizingBorderBox

	cw := -1.0
	switch {
	case !s.Width.IsAuto():
		cw = s.Width.Resolve(cbW, 0)
		if borderBox {
			cw = math.Max(0, cw-padW)
		}
	case !shrink && s.Display != DisplayInlineBlock && s.Display != DisplayInline:
		cw = math.Max(0, cbW-b.margin[1]-b.margin[3]-padW)
	}

	ch := -1.0
	heightKnown := false
	switch s.Height.Unit {
	case UnitPx:
		ch, heightKnown = s.Height.Value, true
	case UnitPercent:
		if cbHKnown {
			ch, heightKnown = s.Height.Resolve(cbH, 0), true
		}
	}
	if heightKnown && borderBox {
		ch = math.Max(0, ch-padH)
	}

	cx := x + b.margin[3] + b.pad[3]
	cy := y + b.margin[0] + b.pad[0]
	childW := cw
	if childW < 0 {
		childW = cbW
	}
	childH := math.Max(ch, 0)
	extW, extH := t.layoutChildren(n, cx, cy, childW, childH, heightKnown, fixed, hidden)

	if cw < 0 {
		cw = extW
	}
	if !heightKnown {
		ch = extH
	}
	cw = math.Max(cw, s.MinWidth.Resolve(cbW, 0))
	ch = math.Max(ch, s.MinHeight.Resolve(cbH, 0))

	b.x = x + b.margin[3]
	b.y = y + b.margin[0]
	b.w = cw + padW
	b.h = ch + padH
	b.scrollW = extW + padW
	b.scrollH = extH + padH

	return b.w + b.margin[1] + b.margin[3], b.h + b.margin[0] + b.margin[2]
}

// anchorFarEdges moves an out-of-flow subtree so that its right or bottom
// edge honors the authored offset when left or top is not authored.
func (t *Tree) anchorFarEdges(n *Node, s Style, cw, ch, ow, oh float64) {
	var dx, dy float64
	if s.Left.IsAuto() && s.Right.IsSet() && !s.Right.IsAuto() {
		dx = cw - s.Right.Resolve(cw, 0) - ow
	}
	if s.Top.IsAuto() && s.Bottom.IsSet() && !s.Bottom.IsAuto() {
		dy = ch - s.Bottom.Resolve(ch, 0) - oh
	}
	if dx != 0 || dy != 0 {
		shiftSubtree(n, dx, dy)
	}
}

func shiftSubtree(n *Node, dx, dy float64) {
	n.box.x += dx
	n.box.y += dy
	for _, c := range n.children {
		if c.style.Position == PositionFixed {
			continue
		}
		shiftSubtree(c, dx, dy)
	}
}

func relativeShift(near, far Length, ref float64) float64 {
	if !near.IsAuto() {
		return near.Resolve(ref, 0)
	}
	if !far.IsAuto() {
		return -far.Resolve(ref, 0)
	}
	return 0
}
