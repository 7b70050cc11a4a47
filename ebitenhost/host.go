// Package ebitenhost runs a surface.Tree inside an Ebitengine game loop.
//
// Each tick advances the tree's clock by one tick duration, so frame
// callbacks and timers of controllers run in step with the game. Mouse
// wheel input is delivered to the node under the cursor and window resizes
// resize the viewport.
//
//	doc, _ := m.Build()
//	ebitenhost.Run(doc.Tree, ebitenhost.RunConfig{
//		Title: "scroll", Width: 800, Height: 600, Controller: doc.Controller,
//	})
package ebitenhost

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	sw "github.com/phanxgames/scrollwizardry"
	"github.com/phanxgames/scrollwizardry/surface"
)

// DefaultWheelScale is the scroll distance in pixels of one wheel unit.
const DefaultWheelScale = 40

// RunConfig configures a Host.
type RunConfig struct {
	Title         string
	Width, Height int

	// Controller, when set, has its scene indicators drawn if it requested
	// them, and its scroll state printed in the corner.
	Controller *sw.Controller

	// Frames stops the loop after that many ticks. Zero runs until the
	// window is closed.
	Frames int

	// WheelScale defaults to DefaultWheelScale.
	WheelScale float64

	// Background fills the screen before the tree is drawn. Nil is black.
	Background color.Color

	// OnTick runs after each tick's clock advance.
	OnTick func(frame int)
}

// Input is the source of pointer input. The default reads ebiten's.
type Input interface {
	Wheel() (dx, dy float64)
	Cursor() (x, y int)
}

type ebitenInput struct{}

func (ebitenInput) Wheel() (dx, dy float64) { return ebiten.Wheel() }
func (ebitenInput) Cursor() (x, y int)       { return ebiten.CursorPosition() }

// Host implements ebiten.Game for a tree.
type Host struct {
	tree   *surface.Tree
	cfg    RunConfig
	input  Input
	tick   time.Duration
	frames int
	width  int
	height int
}

var _ ebiten.Game = (*Host)(nil)

// New creates a Host for tree.
func New(tree *surface.Tree, cfg RunConfig) *Host {
	if cfg.WheelScale == 0 {
		cfg.WheelScale = DefaultWheelScale
	}
	w, h := tree.ViewportBounds()
	return &Host{
		tree:   tree,
		cfg:    cfg,
		input:  ebitenInput{},
		tick:   time.Second / time.Duration(ebiten.TPS()),
		width:  int(w),
		height: int(h),
	}
}

// SetInput replaces the input source.
func (h *Host) SetInput(in Input) { h.input = in }

// Frames returns the number of ticks run.
func (h *Host) Frames() int { return h.frames }

// Update delivers wheel input and advances the tree by one tick.
func (h *Host) Update() error {
	if dx, dy := h.input.Wheel(); dx != 0 || dy != 0 {
		x, y := h.input.Cursor()
		target := h.tree.ElementAt(float64(x), float64(y))
		// ebiten reports wheel-up as positive; scrolling down is positive here.
		h.tree.Wheel(target, -dx*h.cfg.WheelScale, -dy*h.cfg.WheelScale)
	}
	h.tree.Step(h.tick)
	h.frames++
	if h.cfg.OnTick != nil {
		h.cfg.OnTick(h.frames)
	}
	if h.cfg.Frames > 0 && h.frames >= h.cfg.Frames {
		return ebiten.Termination
	}
	return nil
}

// Draw paints every rendered node as a filled box with an outline, then
// the scene indicators.
func (h *Host) Draw(screen *ebiten.Image) {
	if h.cfg.Background != nil {
		screen.Fill(h.cfg.Background)
	}
	h.tree.Walk(func(n *surface.Node, r surface.Rect) bool {
		fill := toRGBA(n.Fill)
		vector.DrawFilledRect(screen, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), fill, false)
		vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), 1, outlineColor, false)
		return true
	})

	c := h.cfg.Controller
	if c == nil {
		return
	}
	if c.Indicators() {
		h.drawIndicators(screen, c)
	}
	info := c.Info()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("scroll: %.0f  direction: %s  scenes: %d",
		info.ScrollPos, info.ScrollDirection, len(c.Scenes())))
}

var (
	outlineColor = color.RGBA{40, 40, 40, 255}
	startColor   = color.RGBA{0, 160, 0, 255}
	endColor     = color.RGBA{200, 0, 0, 255}
	triggerColor = color.RGBA{0, 80, 220, 255}
)

func (h *Host) drawIndicators(screen *ebiten.Image, c *sw.Controller) {
	vertical := c.Info().Vertical
	line := func(pos float64, clr color.Color) {
		p := float32(pos)
		if vertical {
			vector.StrokeLine(screen, 0, p, float32(h.width), p, 1, clr, false)
		} else {
			vector.StrokeLine(screen, p, 0, p, float32(h.height), 1, clr, false)
		}
	}
	for _, ind := range Indicators(h.tree, c) {
		line(ind.Start, startColor)
		line(ind.End, endColor)
		line(ind.Trigger, triggerColor)
	}
}

// Layout resizes the viewport to the window.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != h.width || outsideHeight != h.height {
		h.width, h.height = outsideWidth, outsideHeight
		h.tree.SetViewportSize(float64(outsideWidth), float64(outsideHeight))
	}
	return outsideWidth, outsideHeight
}

// Run opens a window and runs tree until the window closes or the frame
// limit is reached.
func Run(tree *surface.Tree, cfg RunConfig) error {
	if cfg.Width > 0 && cfg.Height > 0 {
		tree.SetViewportSize(float64(cfg.Width), float64(cfg.Height))
	}
	w, h := tree.ViewportBounds()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(int(w), int(h))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(New(tree, cfg))
}

func toRGBA(c surface.Color) color.RGBA {
	clamp := func(v float64) uint8 {
		switch {
		case v <= 0:
			return 0
		case v >= 1:
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	a := clamp(c.A)
	// color.RGBA is premultiplied.
	return color.RGBA{
		R: clamp(c.R * c.A),
		G: clamp(c.G * c.A),
		B: clamp(c.B * c.A),
		A: a,
	}
}
