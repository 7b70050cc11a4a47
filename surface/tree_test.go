package surface

import (
	"testing"
	"time"
)

// newDocument builds a viewport with a 100px header, a 3000px body and a
// 300px inner scroll pane holding 1000px of content.
func newDocument() (tree *Tree, header, body, pane, inner *Node) {
	tree = NewTree(800, 600)
	header = NewNode("header", Style{Height: Px(100)})
	pane = NewNode("pane", Style{Height: Px(300), Margin: Edges{Top: Px(20)}})
	pane.Scrollable = true
	inner = NewNode("inner", Style{Height: Px(1000)})
	pane.AddChild(inner)
	body = NewNode("body", Style{Height: Px(3000)})
	tree.Root().AddChild(header)
	tree.Root().AddChild(pane)
	tree.Root().AddChild(body)
	return
}

func TestLayoutBlockFlow(t *testing.T) {
	tree, header, body, pane, _ := newDocument()

	tests := []struct {
		name string
		n    *Node
		top  float64
		w, h float64
	}{
		{"header", header, 0, 800, 100},
		{"pane", pane, 120, 800, 300},
		{"body", body, 420, 800, 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tree.Offset(tt.n, false).Top; got != tt.top {
				t.Errorf("Top = %v, want %v", got, tt.top)
			}
			if got := tree.Width(tt.n, true, false); got != tt.w {
				t.Errorf("Width = %v, want %v", got, tt.w)
			}
			if got := tree.Height(tt.n, true, false); got != tt.h {
				t.Errorf("Height = %v, want %v", got, tt.h)
			}
		})
	}

	if got := tree.Height(pane, true, true); got != 320 {
		t.Errorf("Height with margin = %v, want 320", got)
	}
	if got := tree.MaxScroll(tree.Root(), true); got != 3420-600 {
		t.Errorf("MaxScroll = %v, want %v", got, 3420-600)
	}
}

func TestLayoutRowFlowAndPercent(t *testing.T) {
	tree := NewTree(800, 600)
	row := NewNode("row", Style{Flow: FlowRow, Height: Percent(50)})
	a := NewNode("a", Style{Width: Percent(25), Height: Percent(100)})
	b := NewNode("b", Style{Width: Px(100), Height: Px(10), Padding: Edges{Left: Px(5), Right: Px(5)}})
	row.AddChild(a)
	row.AddChild(b)
	tree.Root().AddChild(row)

	if got := tree.Height(row, false, false); got != 300 {
		t.Errorf("row height = %v, want 300", got)
	}
	if got := tree.Width(a, false, false); got != 200 {
		t.Errorf("a width = %v, want 200", got)
	}
	if got := tree.Height(a, false, false); got != 300 {
		t.Errorf("a height = %v, want 300", got)
	}
	if got := tree.Offset(b, false).Left; got != 200 {
		t.Errorf("b left = %v, want 200", got)
	}
	if got := tree.Width(b, false, false); got != 110 {
		t.Errorf("b width = %v, want 110 (content + padding)", got)
	}
}

func TestLayoutBorderBoxAndMinSize(t *testing.T) {
	tree := NewTree(800, 600)
	n := NewNode("n", Style{
		BoxSizing: BoxSizingBorderBox,
		Width:     Px(100),
		Padding:   Edges{Top: Px(10), Bottom: Px(10), Left: Px(10), Right: Px(10)},
		MinHeight: Px(50),
	})
	tree.Root().AddChild(n)

	if got := tree.Width(n, true, false); got != 100 {
		t.Errorf("Width = %v, want 100", got)
	}
	if got := tree.Height(n, true, false); got != 70 {
		t.Errorf("Height = %v, want 70 (min 50 + padding)", got)
	}
}

func TestOffsetScrolling(t *testing.T) {
	tree, header, _, pane, inner := newDocument()

	tree.SetScrollPos(pane, true, 50)
	if got := tree.Offset(inner, false).Top; got != 70 {
		t.Errorf("inner document top = %v, want 70", got)
	}

	tree.SetScrollPos(tree.Root(), true, 200)
	if got := tree.Offset(header, true).Top; got != -200 {
		t.Errorf("header viewport top = %v, want -200", got)
	}
	if got := tree.Offset(header, false).Top; got != 0 {
		t.Errorf("header document top = %v, want 0", got)
	}
	if got := tree.Offset(inner, true).Top; got != -130 {
		t.Errorf("inner viewport top = %v, want -130", got)
	}
	if got := tree.Offset(tree.Root(), true); got != (Point{}) {
		t.Errorf("viewport offset = %v, want zero", got)
	}
}

func TestOffsetFixed(t *testing.T) {
	tree, _, body, _, _ := newDocument()
	fixed := NewNode("fixed", Style{Position: PositionFixed, Top: Px(10), Left: Px(20), Width: Px(50), Height: Px(50)})
	body.AddChild(fixed)
	tree.SetScrollPos(tree.Root(), true, 500)

	if got := tree.Offset(fixed, true); got != (Point{Top: 10, Left: 20}) {
		t.Errorf("viewport offset = %v, want {10 20}", got)
	}
	if got := tree.Offset(fixed, false); got != (Point{Top: 510, Left: 20}) {
		t.Errorf("document offset = %v, want {510 20}", got)
	}
	if got := tree.Height(body, true, false); got != 3000 {
		t.Errorf("fixed child should not affect flow, body height = %v", got)
	}
}

func TestOffsetRelativeAndAbsolute(t *testing.T) {
	tree := NewTree(800, 600)
	parent := NewNode("parent", Style{Position: PositionRelative, Top: Px(5), Height: Px(200)})
	abs := NewNode("abs", Style{Position: PositionAbsolute, Bottom: Px(0), Width: Px(10), Height: Px(20)})
	after := NewNode("after", Style{Height: Px(10)})
	parent.AddChild(abs)
	tree.Root().AddChild(parent)
	tree.Root().AddChild(after)

	if got := tree.Offset(parent, false).Top; got != 5 {
		t.Errorf("parent top = %v, want 5", got)
	}
	if got := tree.Offset(abs, false).Top; got != 5+180 {
		t.Errorf("abs top = %v, want 185", got)
	}
	if got := tree.Offset(after, false).Top; got != 200 {
		t.Errorf("relative shift should not move followers, after top = %v", got)
	}
}

func TestScrollClampAndNotify(t *testing.T) {
	tree, _, _, _, _ := newDocument()
	calls := 0
	tree.Listen(tree.Root(), NotifyScroll, func(*Notification) { calls++ })

	tree.SetScrollPos(tree.Root(), true, -50)
	if calls != 0 {
		t.Errorf("clamped no-op should not notify, calls = %d", calls)
	}
	tree.SetScrollPos(tree.Root(), true, 10000)
	if got := tree.ScrollPos(tree.Root(), true); got != 2820 {
		t.Errorf("ScrollPos = %v, want 2820", got)
	}
	tree.SetScrollPos(tree.Root(), true, 2820)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestResizeNotifiesViewportOnly(t *testing.T) {
	tree, _, _, pane, _ := newDocument()
	var rootCalls, paneCalls int
	tree.Listen(tree.Root(), NotifyResize, func(*Notification) { rootCalls++ })
	tree.Listen(pane, NotifyResize, func(*Notification) { paneCalls++ })

	tree.SetViewportSize(400, 300)
	tree.SetViewportSize(400, 300)
	if rootCalls != 1 || paneCalls != 0 {
		t.Errorf("calls = (%d, %d), want (1, 0)", rootCalls, paneCalls)
	}
	if got := tree.ViewportSize(tree.Root(), false); got != 400 {
		t.Errorf("ViewportSize = %v, want 400", got)
	}
}

func TestUnlistenDuringDispatch(t *testing.T) {
	tree := NewTree(100, 100)
	var order []string
	var second ListenerID
	tree.Listen(tree.Root(), NotifyResize, func(*Notification) {
		order = append(order, "first")
		tree.Unlisten(second)
	})
	second = tree.Listen(tree.Root(), NotifyResize, func(*Notification) {
		order = append(order, "second")
	})

	tree.SetViewportSize(200, 200)
	tree.SetViewportSize(300, 300)
	want := []string{"first", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestWheel(t *testing.T) {
	t.Run("default scrolls nearest container", func(t *testing.T) {
		tree, _, _, pane, inner := newDocument()
		tree.Wheel(inner, 0, 120)
		if got := tree.ScrollPos(pane, true); got != 120 {
			t.Errorf("pane ScrollPos = %v, want 120", got)
		}
		if got := tree.ScrollPos(tree.Root(), true); got != 0 {
			t.Errorf("viewport ScrollPos = %v, want 0", got)
		}
	})

	t.Run("exhausted container chains to viewport", func(t *testing.T) {
		tree, _, _, pane, inner := newDocument()
		tree.Wheel(inner, 0, -50)
		if got := tree.ScrollPos(pane, true); got != 0 {
			t.Errorf("pane ScrollPos = %v, want 0", got)
		}
		tree.Wheel(inner, 0, 50)
		tree.SetScrollPos(pane, true, 700)
		tree.Wheel(inner, 0, 60)
		if got := tree.ScrollPos(tree.Root(), true); got != 60 {
			t.Errorf("viewport ScrollPos = %v, want 60", got)
		}
	})

	t.Run("prevented", func(t *testing.T) {
		tree, header, _, _, _ := newDocument()
		var seen float64
		tree.Listen(tree.Root(), NotifyWheel, func(n *Notification) {
			seen = n.DeltaY
			n.PreventDefault()
		})
		tree.Wheel(header, 0, 80)
		if seen != 80 {
			t.Errorf("bubbled DeltaY = %v, want 80", seen)
		}
		if got := tree.ScrollPos(tree.Root(), true); got != 0 {
			t.Errorf("ScrollPos = %v, want 0", got)
		}
	})
}

func TestInjectWheelOnePerStep(t *testing.T) {
	tree, header, _, _, _ := newDocument()
	tree.InjectWheel(header, 0, 10)
	tree.InjectWheel(header, 0, 10)

	tree.Frame()
	if got := tree.ScrollPos(tree.Root(), true); got != 10 {
		t.Errorf("after 1 step ScrollPos = %v, want 10", got)
	}
	tree.Frame()
	if got := tree.ScrollPos(tree.Root(), true); got != 20 {
		t.Errorf("after 2 steps ScrollPos = %v, want 20", got)
	}
}

func TestFramesAndTimers(t *testing.T) {
	tree := NewTree(100, 100)
	var log []string
	var frameAt time.Duration

	tree.AfterFunc(100*time.Millisecond, func() { log = append(log, "timer") })
	tree.RequestFrame(func(now time.Duration) {
		frameAt = now
		log = append(log, "frame")
		tree.RequestFrame(func(time.Duration) { log = append(log, "next frame") })
	})
	cancelled := tree.RequestFrame(func(time.Duration) { log = append(log, "cancelled") })
	tree.CancelFrame(cancelled)

	tree.Step(50 * time.Millisecond)
	if frameAt != 50*time.Millisecond {
		t.Errorf("frame now = %v, want 50ms", frameAt)
	}
	if tree.PendingFrames() != 1 || tree.PendingTimers() != 1 {
		t.Errorf("pending = (%d, %d), want (1, 1)", tree.PendingFrames(), tree.PendingTimers())
	}

	tree.Step(50 * time.Millisecond)
	want := []string{"frame", "timer", "next frame"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
	if tree.PendingTimers() != 0 {
		t.Errorf("PendingTimers = %d, want 0", tree.PendingTimers())
	}
}

func TestCancelFrameFromEarlierFrameInSameStep(t *testing.T) {
	tree := NewTree(100, 100)
	var ran []string
	var second FrameID
	tree.RequestFrame(func(time.Duration) {
		ran = append(ran, "first")
		tree.CancelFrame(second)
	})
	second = tree.RequestFrame(func(time.Duration) { ran = append(ran, "second") })
	tree.RequestFrame(func(time.Duration) { ran = append(ran, "third") })

	tree.Frame()
	if len(ran) != 2 || ran[0] != "first" || ran[1] != "third" {
		t.Errorf("ran = %v, want [first third]", ran)
	}
	if tree.PendingFrames() != 0 {
		t.Errorf("PendingFrames = %d, want 0", tree.PendingFrames())
	}

	// A stale id from the finished step cancels nothing.
	tree.RequestFrame(func(time.Duration) { ran = append(ran, "later") })
	tree.CancelFrame(second)
	tree.Frame()
	if len(ran) != 3 || ran[2] != "later" {
		t.Errorf("ran = %v, want [first third later]", ran)
	}
}

func TestZeroDelayTimerArmedInCallbackWaits(t *testing.T) {
	tree := NewTree(100, 100)
	calls := 0
	var arm func()
	arm = func() {
		calls++
		tree.AfterFunc(0, arm)
	}
	tree.AfterFunc(0, arm)

	tree.Frame()
	tree.Frame()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestComputedStyle(t *testing.T) {
	tree := NewTree(800, 600)
	parent := NewNode("parent", Style{})
	child := NewNode("child", Style{Width: Percent(50), Margin: Edges{Top: Px(4)}})
	parent.AddChild(child)
	tree.Root().AddChild(parent)

	cs := tree.ComputedStyle(child)
	if cs.Width != Px(400) {
		t.Errorf("Width = %v, want 400px", cs.Width)
	}
	if cs.Position != PositionStatic || cs.Display != DisplayBlock {
		t.Errorf("keywords = (%v, %v), want (static, block)", cs.Position, cs.Display)
	}
	if cs.Top != Auto() {
		t.Errorf("Top = %v, want auto", cs.Top)
	}

	parent.SetStyle(Style{Display: DisplayNone})
	cs = tree.ComputedStyle(child)
	if cs.Width != Percent(50) {
		t.Errorf("hidden Width = %v, want 50%%", cs.Width)
	}
	if cs.Height != Auto() {
		t.Errorf("hidden Height = %v, want auto", cs.Height)
	}
	if cs.Margin.Top != Px(4) || cs.Margin.Left != Px(0) {
		t.Errorf("hidden Margin = %+v", cs.Margin)
	}
}

func TestResolve(t *testing.T) {
	tree, header, _, _, inner := newDocument()
	inner.AddClass("target")
	header.AddClass("target")

	tests := []struct {
		selector string
		want     []*Node
	}{
		{"#header", []*Node{header}},
		{".target", []*Node{header, inner}},
		{"inner", []*Node{inner}},
		{"#missing", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got := tree.Resolve(tt.selector)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAttachedAndData(t *testing.T) {
	tree, header, _, _, _ := newDocument()
	loose := NewNode("loose", Style{})

	if !tree.Attached(header) || tree.Attached(loose) {
		t.Error("Attached mismatch")
	}
	tree.SetAttr(header, "data-x")
	if !tree.HasAttr(header, "data-x") || tree.HasAttr(loose, "data-x") {
		t.Error("HasAttr mismatch")
	}
	tree.SetData(header, "k", 42)
	if tree.Data(header, "k") != 42 {
		t.Errorf("Data = %v, want 42", tree.Data(header, "k"))
	}
	tree.SetData(header, "k", nil)
	if tree.Data(header, "k") != nil {
		t.Error("Data should be cleared")
	}
	if tree.Parent(tree.Root()) != nil {
		t.Error("viewport should have no parent")
	}
}

func TestElementAt(t *testing.T) {
	tree, header, _, _, inner := newDocument()
	if got := tree.ElementAt(10, 50); got != header {
		t.Errorf("ElementAt = %q, want header", got.Name)
	}
	if got := tree.ElementAt(10, 200); got != inner {
		t.Errorf("ElementAt = %q, want inner", got.Name)
	}
}
