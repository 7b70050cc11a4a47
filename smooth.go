package scrollwizardry

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/scrollwizardry/surface"
)

// smoothState is the running scroll animation of a controller.
type smoothState struct {
	tween  *gween.Tween
	target float64
	frame  surface.FrameID
	active bool
	// last is the frame clock of the previous step; negative before the
	// first frame.
	last time.Duration
}

func (st *smoothState) cancel(c *Controller) {
	if st.active {
		c.surf.CancelFrame(st.frame)
	}
	*st = smoothState{}
}

// SmoothScroll returns a scroll handler that animates the container to the
// requested position over d, easing with fn (ease.Linear when nil). A new
// request replaces a running animation from the current position. Extra
// ScrollTo values are ignored.
//
//	c.SetScrollHandler(c.SmoothScroll(400*time.Millisecond, ease.OutCubic))
func (c *Controller) SmoothScroll(d time.Duration, fn ease.TweenFunc) ScrollHandler {
	if fn == nil {
		fn = ease.Linear
	}
	return func(pos float64, _ ...any) {
		c.smooth.cancel(c)
		if d <= 0 {
			c.surf.SetScrollPos(c.container, c.vertical, pos)
			return
		}
		from := c.ScrollPos()
		c.smooth = smoothState{
			tween:  gween.New(float32(from), float32(pos), float32(d.Seconds()), fn),
			target: pos,
			active: true,
			last:   -1,
		}
		c.smooth.frame = c.surf.RequestFrame(c.stepSmooth)
	}
}

// stepSmooth advances the scroll animation by the time since the previous
// frame.
func (c *Controller) stepSmooth(now time.Duration) {
	st := &c.smooth
	if !st.active {
		return
	}
	var dt time.Duration
	if st.last >= 0 {
		dt = now - st.last
	}
	st.last = now
	val, done := st.tween.Update(float32(dt.Seconds()))
	pos := float64(val)
	if done {
		pos = st.target
	}
	tween := st.tween
	c.surf.SetScrollPos(c.container, c.vertical, pos)
	if st.tween != tween {
		// A scroll listener started a new animation.
		return
	}
	if done {
		*st = smoothState{}
		return
	}
	st.frame = c.surf.RequestFrame(c.stepSmooth)
}

// SmoothScrolling reports whether a scroll animation is running.
func (c *Controller) SmoothScrolling() bool { return c.smooth.active }
