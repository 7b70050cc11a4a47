package ebitenhost

import (
	sw "github.com/phanxgames/scrollwizardry"
	"github.com/phanxgames/scrollwizardry/surface"
)

// Indicator is the on-screen position of a scene's markers along the
// controller's scroll axis, in viewport pixels.
type Indicator struct {
	Scene   *sw.Scene
	Start   float64
	End     float64
	Trigger float64
	Active  bool
}

// Indicators computes the markers of every scene of c on tree. Start and
// End follow the scene range as the container scrolls; Trigger is the fixed
// trigger hook line of the container.
func Indicators(tree *surface.Tree, c *sw.Controller) []Indicator {
	info := c.Info()
	var origin float64
	if n, ok := info.Container.(*surface.Node); ok && !info.IsDocument {
		r := tree.Rect(n)
		origin = r.Y
		if !info.Vertical {
			origin = r.X
		}
	}
	scenes := c.Scenes()
	out := make([]Indicator, 0, len(scenes))
	for _, s := range scenes {
		off := s.ScrollOffset()
		hook := s.TriggerHook()
		if s.TriggerElement() == nil {
			hook = 0
		}
		out = append(out, Indicator{
			Scene:   s,
			Start:   origin + off.Start - info.ScrollPos,
			End:     origin + off.End - info.ScrollPos,
			Trigger: origin + info.Size*hook,
			Active:  s.State() == sw.StateDuring,
		})
	}
	return out
}
