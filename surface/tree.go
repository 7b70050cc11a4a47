package surface

import (
	"math"
	"slices"
	"strings"
	"time"
)

// FrameInterval is the clock advance of Tree.Frame.
const FrameInterval = time.Second / 60

type listenerEntry struct {
	id     ListenerID
	target *Node
	kind   NotifyKind
	fn     Listener
}

type frameRequest struct {
	id FrameID
	fn func(now time.Duration)
}

type timerRequest struct {
	id  TimerID
	due time.Duration
	fn  func()
}

type wheelInjection struct {
	target *Node
	dx, dy float64
}

// Tree is an in-memory Provider. Its root node is the viewport and doubles
// as the document; children are laid out in block flow. Time is virtual and
// only advances through Step, which makes every frame deterministic.
type Tree struct {
	root          *Node
	width, height float64
	layoutDirty   bool

	listeners    []listenerEntry
	nextListener ListenerID

	frames    []frameRequest
	running   []frameRequest
	nextFrame FrameID
	timers    []timerRequest
	nextTimer TimerID
	now       time.Duration

	injectQueue []wheelInjection
	script      *scriptRunner
}

var _ Provider = (*Tree)(nil)

// NewTree creates a tree whose viewport measures width x height.
func NewTree(width, height float64) *Tree {
	t := &Tree{width: width, height: height, layoutDirty: true}
	t.root = NewNode("viewport", Style{Display: DisplayBlock})
	t.root.Scrollable = true
	t.root.tree = t
	return t
}

// Root returns the viewport node.
func (t *Tree) Root() *Node { return t.root }

// Now returns the virtual clock.
func (t *Tree) Now() time.Duration { return t.now }

// SetViewportSize resizes the viewport and notifies its resize listeners.
func (t *Tree) SetViewportSize(width, height float64) {
	if width == t.width && height == t.height {
		return
	}
	t.width, t.height = width, height
	t.layoutDirty = true
	t.clampScroll(t.root)
	t.dispatch(t.root, &Notification{Kind: NotifyResize, Target: t.root})
}

// ViewportBounds returns the viewport size.
func (t *Tree) ViewportBounds() (width, height float64) { return t.width, t.height }

// node unwraps el. Foreign or disposed handles yield nil.
func (t *Tree) node(el Element) *Node {
	n, ok := el.(*Node)
	if !ok || n == nil || n.disposed {
		return nil
	}
	return n
}

// --- Queries ---

// Resolve implements Provider. Matches are returned in document order.
func (t *Tree) Resolve(selector string) []Element {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil
	}
	var match func(*Node) bool
	switch {
	case strings.HasPrefix(selector, "#"):
		name := selector[1:]
		match = func(n *Node) bool { return n.Name == name }
	case strings.HasPrefix(selector, "."):
		class := selector[1:]
		match = func(n *Node) bool { return n.HasClass(class) }
	default:
		match = func(n *Node) bool { return n.Name == selector }
	}
	var out []Element
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			if match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// Find returns the first node matching selector, or nil.
func (t *Tree) Find(selector string) *Node {
	if els := t.Resolve(selector); len(els) > 0 {
		return els[0].(*Node)
	}
	return nil
}

func (t *Tree) Viewport() Element { return t.root }

func (t *Tree) IsViewport(el Element) bool {
	return t.node(el) == t.root
}

func (t *Tree) Attached(el Element) bool {
	n := t.node(el)
	return n != nil && n.root() == t.root
}

func (t *Tree) Parent(el Element) Element {
	n := t.node(el)
	if n == nil || n.Parent == nil {
		return nil
	}
	return n.Parent
}

func (t *Tree) FirstChild(el Element) Element {
	n := t.node(el)
	if n == nil || len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// --- Scrolling ---

func (t *Tree) ScrollPos(container Element, vertical bool) float64 {
	n := t.node(container)
	if n == nil {
		return 0
	}
	if vertical {
		return n.scrollY
	}
	return n.scrollX
}

// SetScrollPos implements Provider. The position is clamped to the
// scrollable range; a change notifies the container's scroll listeners.
func (t *Tree) SetScrollPos(container Element, vertical bool, pos float64) {
	n := t.node(container)
	if n == nil {
		return
	}
	pos = math.Max(0, math.Min(pos, t.maxScroll(n, vertical)))
	cur := &n.scrollX
	if vertical {
		cur = &n.scrollY
	}
	if *cur == pos {
		return
	}
	*cur = pos
	t.dispatch(n, &Notification{Kind: NotifyScroll, Target: n})
}

// MaxScroll returns the largest scroll position container accepts.
func (t *Tree) MaxScroll(container Element, vertical bool) float64 {
	n := t.node(container)
	if n == nil {
		return 0
	}
	return t.maxScroll(n, vertical)
}

func (t *Tree) maxScroll(n *Node, vertical bool) float64 {
	t.ensureLayout()
	if vertical {
		return math.Max(0, n.box.scrollH-n.box.h)
	}
	return math.Max(0, n.box.scrollW-n.box.w)
}

// clampScroll pulls scroll positions back into range after a resize.
// No notification is sent; the resize notification covers the change.
func (t *Tree) clampScroll(n *Node) {
	if n.Scrollable {
		n.scrollX = math.Min(n.scrollX, t.maxScroll(n, false))
		n.scrollY = math.Min(n.scrollY, t.maxScroll(n, true))
	}
	for _, c := range n.children {
		t.clampScroll(c)
	}
}

func (t *Tree) ViewportSize(container Element, vertical bool) float64 {
	n := t.node(container)
	if n == nil {
		return 0
	}
	if n == t.root {
		if vertical {
			return t.height
		}
		return t.width
	}
	if vertical {
		return t.Height(n, false, false)
	}
	return t.Width(n, false, false)
}

// --- Geometry ---

func (t *Tree) Width(el Element, outer, includeMargin bool) float64 {
	n := t.node(el)
	if n == nil {
		return 0
	}
	if n == t.root {
		return t.width
	}
	t.ensureLayout()
	w := n.box.w
	if outer && includeMargin {
		w += n.box.margin[1] + n.box.margin[3]
	}
	return w
}

func (t *Tree) Height(el Element, outer, includeMargin bool) float64 {
	n := t.node(el)
	if n == nil {
		return 0
	}
	if n == t.root {
		return t.height
	}
	t.ensureLayout()
	h := n.box.h
	if outer && includeMargin {
		h += n.box.margin[0] + n.box.margin[2]
	}
	return h
}

// Offset implements Provider. Nested scroll containers shift their content;
// the viewport's own scroll only applies to viewport-relative offsets.
func (t *Tree) Offset(el Element, relativeToViewport bool) Point {
	n := t.node(el)
	if n == nil || n == t.root {
		return Point{}
	}
	t.ensureLayout()
	x, y := n.box.x, n.box.y
	for p := n; p != nil && p != t.root; p = p.Parent {
		if p != n && p.Scrollable {
			x -= p.scrollX
			y -= p.scrollY
		}
		if p.style.Position == PositionFixed {
			break
		}
	}
	if n.box.fixed {
		if relativeToViewport {
			return Point{Top: y, Left: x}
		}
		return Point{Top: y + t.root.scrollY, Left: x + t.root.scrollX}
	}
	if relativeToViewport {
		return Point{Top: y - t.root.scrollY, Left: x - t.root.scrollX}
	}
	return Point{Top: y, Left: x}
}

// Rect returns n's border box in viewport coordinates.
func (t *Tree) Rect(n *Node) Rect {
	o := t.Offset(n, true)
	if n == t.root {
		return Rect{Width: t.width, Height: t.height}
	}
	return Rect{X: o.Left, Y: o.Top, Width: n.box.w, Height: n.box.h}
}

// Walk visits every rendered node below the viewport in paint order with
// its viewport rectangle. Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(n *Node, r Rect) bool) {
	t.ensureLayout()
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			if c.box.hidden {
				continue
			}
			if fn(c, t.Rect(c)) {
				walk(c)
			}
		}
	}
	walk(t.root)
}

// ElementAt returns the topmost rendered node under the viewport point
// (x, y), or the viewport when nothing else is hit.
func (t *Tree) ElementAt(x, y float64) *Node {
	hit := t.root
	t.Walk(func(n *Node, r Rect) bool {
		if r.Contains(x, y) {
			hit = n
		}
		return true
	})
	return hit
}

// --- Style ---

func (t *Tree) InlineStyle(el Element) Style {
	if n := t.node(el); n != nil {
		return n.style
	}
	return Style{}
}

func (t *Tree) SetInlineStyle(el Element, s Style) {
	if n := t.node(el); n != nil {
		n.SetStyle(s)
	}
}

// ComputedStyle implements Provider. Keyword defaults are filled in. For
// rendered nodes sizes and margins are reported in pixels; for nodes that
// are not rendered the authored values are returned as is.
func (t *Tree) ComputedStyle(el Element) Style {
	n := t.node(el)
	if n == nil {
		return Style{}
	}
	t.ensureLayout()
	s := n.style
	if s.Position == PositionUnset {
		s.Position = PositionStatic
	}
	if s.Display == DisplayUnset {
		s.Display = DisplayBlock
	}
	if s.BoxSizing == BoxSizingUnset {
		s.BoxSizing = BoxSizingContentBox
	}
	if s.Flow == FlowUnset {
		s.Flow = FlowColumn
	}

	if n == t.root {
		s.Width, s.Height = Px(t.width), Px(t.height)
		return s
	}

	if n.box.hidden {
		for _, l := range []*Length{&s.Top, &s.Left, &s.Bottom, &s.Right, &s.Width, &s.Height} {
			if !l.IsSet() {
				*l = Auto()
			}
		}
		for _, l := range []*Length{
			&s.Margin.Top, &s.Margin.Right, &s.Margin.Bottom, &s.Margin.Left,
			&s.Padding.Top, &s.Padding.Right, &s.Padding.Bottom, &s.Padding.Left,
			&s.MinWidth, &s.MinHeight,
		} {
			if !l.IsSet() {
				*l = Px(0)
			}
		}
		return s
	}

	b := n.box
	w, h := b.w, b.h
	if s.BoxSizing == BoxSizingContentBox {
		w -= b.pad[1] + b.pad[3]
		h -= b.pad[0] + b.pad[2]
	}
	s.Width, s.Height = Px(w), Px(h)
	s.Margin = Edges{Top: Px(b.margin[0]), Right: Px(b.margin[1]), Bottom: Px(b.margin[2]), Left: Px(b.margin[3])}
	s.Padding = Edges{Top: Px(b.pad[0]), Right: Px(b.pad[1]), Bottom: Px(b.pad[2]), Left: Px(b.pad[3])}

	var cbW, cbH float64
	if p := n.Parent; p != nil {
		cbW, cbH = p.box.w, p.box.h
		if p == t.root {
			cbW, cbH = t.width, t.height
		}
	}
	for _, side := range []struct {
		l   *Length
		ref float64
	}{{&s.Top, cbH}, {&s.Bottom, cbH}, {&s.Left, cbW}, {&s.Right, cbW}} {
		if side.l.IsAuto() {
			*side.l = Auto()
		} else {
			*side.l = Px(side.l.Resolve(side.ref, 0))
		}
	}
	s.MinWidth = Px(s.MinWidth.Resolve(cbW, 0))
	s.MinHeight = Px(s.MinHeight.Resolve(cbH, 0))
	return s
}

// --- Mutation ---

func (t *Tree) CreateElement(name string) Element {
	return NewNode(name, Style{})
}

func (t *Tree) InsertBefore(parent, child, ref Element) {
	p, c := t.node(parent), t.node(child)
	if p == nil || c == nil {
		return
	}
	p.InsertBefore(c, t.node(ref))
}

func (t *Tree) AppendChild(parent, child Element) {
	p, c := t.node(parent), t.node(child)
	if p == nil || c == nil {
		return
	}
	p.AddChild(c)
}

func (t *Tree) RemoveChild(parent, child Element) {
	p, c := t.node(parent), t.node(child)
	if p == nil || c == nil || c.Parent != p {
		return
	}
	p.RemoveChild(c)
}

func (t *Tree) SetAttr(el Element, key string) {
	n := t.node(el)
	if n == nil {
		return
	}
	if n.attrs == nil {
		n.attrs = make(map[string]bool)
	}
	n.attrs[key] = true
}

func (t *Tree) HasAttr(el Element, key string) bool {
	n := t.node(el)
	return n != nil && n.attrs[key]
}

func (t *Tree) AddClass(el Element, class string) {
	if n := t.node(el); n != nil {
		n.AddClass(class)
	}
}

func (t *Tree) Data(el Element, key string) any {
	if n := t.node(el); n != nil {
		return n.data[key]
	}
	return nil
}

func (t *Tree) SetData(el Element, key string, v any) {
	n := t.node(el)
	if n == nil {
		return
	}
	if v == nil {
		delete(n.data, key)
		return
	}
	if n.data == nil {
		n.data = make(map[string]any)
	}
	n.data[key] = v
}

// --- Notifications ---

func (t *Tree) Listen(target Element, kind NotifyKind, fn Listener) ListenerID {
	n := t.node(target)
	if n == nil || fn == nil {
		return 0
	}
	t.nextListener++
	t.listeners = append(t.listeners, listenerEntry{id: t.nextListener, target: n, kind: kind, fn: fn})
	return t.nextListener
}

func (t *Tree) Unlisten(id ListenerID) {
	for i, e := range t.listeners {
		if e.id == id {
			t.listeners = slices.Delete(t.listeners, i, i+1)
			return
		}
	}
}

// ListenerCount returns the number of registered listeners of kind on el.
func (t *Tree) ListenerCount(el Element, kind NotifyKind) int {
	n := t.node(el)
	count := 0
	for _, e := range t.listeners {
		if e.target == n && e.kind == kind {
			count++
		}
	}
	return count
}

// Dispatch implements Provider. Wheel notifications bubble to ancestors;
// synthetic notifications never trigger a default action.
func (t *Tree) Dispatch(target Element, n *Notification) {
	tn := t.node(target)
	if tn == nil || n == nil {
		return
	}
	if n.Target == nil {
		n.Target = tn
	}
	if n.Kind != NotifyWheel {
		t.dispatch(tn, n)
		return
	}
	for p := tn; p != nil; p = p.Parent {
		t.dispatch(p, n)
	}
}

// dispatch delivers n to target's listeners in registration order. Listeners
// added or removed while dispatching take effect for later notifications.
func (t *Tree) dispatch(target *Node, n *Notification) {
	var fns []Listener
	for _, e := range t.listeners {
		if e.target == target && e.kind == n.Kind {
			fns = append(fns, e.fn)
		}
	}
	for _, fn := range fns {
		fn(n)
	}
}

// Wheel delivers a wheel notification over target. Unless a listener
// prevents it, the nearest scroll container that can move scrolls by the
// delta.
func (t *Tree) Wheel(target Element, dx, dy float64) {
	tn := t.node(target)
	if tn == nil {
		tn = t.root
	}
	n := &Notification{Kind: NotifyWheel, Target: tn, DeltaX: dx, DeltaY: dy}
	t.Dispatch(tn, n)
	if n.DefaultPrevented() {
		return
	}
	if dy != 0 {
		if c := t.scrollTarget(tn, true, dy); c != nil {
			t.SetScrollPos(c, true, c.scrollY+dy)
		}
	}
	if dx != 0 {
		if c := t.scrollTarget(tn, false, dx); c != nil {
			t.SetScrollPos(c, false, c.scrollX+dx)
		}
	}
}

func (t *Tree) scrollTarget(n *Node, vertical bool, delta float64) *Node {
	for p := n; p != nil; p = p.Parent {
		if !p.Scrollable {
			continue
		}
		pos := p.scrollX
		if vertical {
			pos = p.scrollY
		}
		if (delta > 0 && pos < t.maxScroll(p, vertical)) || (delta < 0 && pos > 0) {
			return p
		}
	}
	return nil
}

// InjectWheel queues a wheel notification. Queued notifications are
// delivered one per Step.
func (t *Tree) InjectWheel(target Element, dx, dy float64) {
	t.injectQueue = append(t.injectQueue, wheelInjection{target: t.node(target), dx: dx, dy: dy})
}

func (t *Tree) processInjectQueue() {
	if len(t.injectQueue) == 0 {
		return
	}
	w := t.injectQueue[0]
	t.injectQueue[0] = wheelInjection{}
	t.injectQueue = t.injectQueue[1:]
	t.Wheel(w.target, w.dx, w.dy)
}

// --- Scheduling ---

func (t *Tree) RequestFrame(fn func(now time.Duration)) FrameID {
	t.nextFrame++
	t.frames = append(t.frames, frameRequest{id: t.nextFrame, fn: fn})
	return t.nextFrame
}

// CancelFrame implements Provider. A callback cancelled by an earlier
// callback of the same step does not run.
func (t *Tree) CancelFrame(id FrameID) {
	for i, f := range t.frames {
		if f.id == id {
			t.frames = slices.Delete(t.frames, i, i+1)
			return
		}
	}
	for i := range t.running {
		if t.running[i].id == id {
			t.running[i].fn = nil
			return
		}
	}
}

// AfterFunc implements Provider. Timers fire during Step once the virtual
// clock reaches their deadline.
func (t *Tree) AfterFunc(d time.Duration, fn func()) TimerID {
	t.nextTimer++
	t.timers = append(t.timers, timerRequest{id: t.nextTimer, due: t.now + max(d, 0), fn: fn})
	return t.nextTimer
}

func (t *Tree) CancelTimer(id TimerID) {
	for i, r := range t.timers {
		if r.id == id {
			t.timers = slices.Delete(t.timers, i, i+1)
			return
		}
	}
}

// PendingFrames returns the number of queued frame callbacks.
func (t *Tree) PendingFrames() int { return len(t.frames) }

// PendingTimers returns the number of armed timers.
func (t *Tree) PendingTimers() int { return len(t.timers) }

// Step advances the virtual clock by dt. In order it runs the current script
// step, delivers one injected wheel notification, fires due timers and runs
// the frame callbacks that were queued before the step.
func (t *Tree) Step(dt time.Duration) {
	if t.script != nil {
		t.script.step(t)
	}
	t.processInjectQueue()
	t.now += dt
	t.fireTimers()

	t.running = t.frames
	t.frames = nil
	for i := range t.running {
		if fn := t.running[i].fn; fn != nil {
			t.running[i].fn = nil
			fn(t.now)
		}
	}
	t.running = nil
}

// Frame advances the clock by one FrameInterval.
func (t *Tree) Frame() { t.Step(FrameInterval) }

// Advance steps frame by frame until d has elapsed.
func (t *Tree) Advance(d time.Duration) {
	for d > 0 {
		dt := min(d, FrameInterval)
		t.Step(dt)
		d -= dt
	}
}

// fireTimers runs every timer that is due, earliest first. Timers armed by a
// callback wait for the next step.
func (t *Tree) fireTimers() {
	last := t.nextTimer
	for {
		idx := -1
		for i, r := range t.timers {
			if r.id > last || r.due > t.now {
				continue
			}
			if idx < 0 || r.due < t.timers[idx].due {
				idx = i
			}
		}
		if idx < 0 {
			return
		}
		fn := t.timers[idx].fn
		t.timers = slices.Delete(t.timers, idx, idx+1)
		fn()
	}
}
