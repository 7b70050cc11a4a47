package scrollwizardry

import (
	"slices"
	"testing"
	"time"

	"github.com/tanema/gween/ease"
)

func TestSmoothScroll(t *testing.T) {
	tree, c := newDocument(t)
	c.SetScrollHandler(c.SmoothScroll(100*time.Millisecond, ease.Linear))

	c.ScrollToPos(600)
	if !c.SmoothScrolling() {
		t.Fatal("SmoothScrolling = false after ScrollToPos")
	}
	if c.ScrollPos() != 0 {
		t.Errorf("ScrollPos before the first frame = %v, want 0", c.ScrollPos())
	}

	// The first frame anchors the clock; three more cover half the duration.
	for range 4 {
		tree.Frame()
	}
	if pos := c.ScrollPos(); pos < 299 || pos > 301 {
		t.Errorf("ScrollPos at half time = %v, want ~300", pos)
	}

	tree.Advance(100 * time.Millisecond)
	if c.ScrollPos() != 600 {
		t.Errorf("ScrollPos = %v, want 600", c.ScrollPos())
	}
	if c.SmoothScrolling() {
		t.Error("animation still running")
	}
	if tree.PendingFrames() != 0 {
		t.Errorf("PendingFrames = %d, want 0", tree.PendingFrames())
	}
}

func TestSmoothScrollRetarget(t *testing.T) {
	tree, c := newDocument(t)
	c.SetScrollHandler(c.SmoothScroll(100*time.Millisecond, nil))

	c.ScrollToPos(600)
	for range 4 {
		tree.Frame()
	}
	if c.ScrollPos() <= 0 {
		t.Fatalf("ScrollPos = %v, want progress towards 600", c.ScrollPos())
	}

	c.ScrollToPos(0)
	tree.Advance(200 * time.Millisecond)
	if c.ScrollPos() != 0 {
		t.Errorf("ScrollPos = %v, want 0", c.ScrollPos())
	}
}

func TestSmoothScrollRetargetFromSceneEvent(t *testing.T) {
	tree, c := newDocument(t)
	s := NewScene(SceneOptions{Duration: Pixels(200), Offset: OffsetPixels(100)}).AddTo(c)
	c.SetScrollHandler(c.SmoothScroll(200*time.Millisecond, ease.Linear))

	entered := false
	s.On("enter", func(Event) {
		if !entered {
			entered = true
			c.ScrollToPos(1000)
		}
	})
	c.ScrollToPos(600)

	for i := 0; i < 30 && !entered; i++ {
		tree.Frame()
	}
	if !entered {
		t.Fatal("scene never entered")
	}
	// The replaced animation must not keep stepping next to the new one.
	if tree.PendingFrames() != 1 {
		t.Errorf("PendingFrames = %d, want 1", tree.PendingFrames())
	}

	tree.Advance(time.Second)
	if c.ScrollPos() != 1000 {
		t.Errorf("ScrollPos = %v, want 1000", c.ScrollPos())
	}
	if c.SmoothScrolling() || tree.PendingFrames() != 0 {
		t.Errorf("scrolling = %v, pending = %d, want idle", c.SmoothScrolling(), tree.PendingFrames())
	}
}

func TestSmoothScrollZeroDuration(t *testing.T) {
	_, c := newDocument(t)
	c.SetScrollHandler(c.SmoothScroll(0, ease.OutCubic))
	c.ScrollToPos(250)
	if c.ScrollPos() != 250 {
		t.Errorf("ScrollPos = %v, want 250", c.ScrollPos())
	}
	if c.SmoothScrolling() {
		t.Error("zero duration should jump")
	}
}

func TestSmoothScrollDrivesScenes(t *testing.T) {
	tree, c := newDocument(t)
	s := NewScene(SceneOptions{Duration: Pixels(200), Offset: OffsetPixels(100)}).AddTo(c)
	var states []State
	s.On("enter leave", func(e Event) { states = append(states, e.State) })

	c.SetScrollHandler(c.SmoothScroll(250*time.Millisecond, ease.InOutQuad))
	c.ScrollToScene(s)
	c.ScrollToPos(1000)
	tree.Advance(time.Second)

	assertNear(t, "scroll position", tree.ScrollPos(tree.Root(), true), 1000)
	if s.State() != StateAfter {
		t.Errorf("State = %v, want %v", s.State(), StateAfter)
	}
	if want := []State{StateDuring, StateAfter}; !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}

func TestControllerDestroyStopsSmoothScroll(t *testing.T) {
	tree, c := newDocument(t)
	c.SetScrollHandler(c.SmoothScroll(time.Second, ease.Linear))
	c.ScrollToPos(900)
	tree.Frame()
	c.Destroy(false)
	if c.SmoothScrolling() || tree.PendingFrames() != 0 {
		t.Errorf("scrolling = %v, pending = %d, want idle", c.SmoothScrolling(), tree.PendingFrames())
	}
	tree.Advance(time.Second)
	if pos := tree.ScrollPos(tree.Root(), true); pos != 0 {
		t.Errorf("ScrollPos = %v, want 0", pos)
	}
}
