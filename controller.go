package scrollwizardry

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/phanxgames/scrollwizardry/surface"
)

// DefaultRefreshInterval is the polling interval used when
// ControllerOptions.RefreshInterval is nil.
const DefaultRefreshInterval = 100 * time.Millisecond

// ControllerOptions configures a controller.
type ControllerOptions struct {
	// Container is the scroll container. When nil, ContainerSelector is
	// resolved; when both are empty the viewport is used.
	Container         surface.Element
	ContainerSelector string
	// Vertical selects the scroll axis. Defaults to true.
	Vertical *bool
	// GlobalSceneOptions are applied to every scene added to the controller.
	// Only set fields are applied.
	GlobalSceneOptions SceneOptions
	// LogLevel defaults to LogWarn.
	LogLevel *int
	// RefreshInterval is how often scenes re-evaluate computed durations
	// and trigger element positions. Nil selects DefaultRefreshInterval;
	// zero or less disables polling.
	RefreshInterval *time.Duration
	// AddIndicators asks for debug indicators on every scene. Indicators
	// are drawn by hosts such as ebitenhost; the controller only records
	// the request.
	AddIndicators bool
}

// DefaultControllerOptions returns the defaults: the viewport as container,
// vertical scrolling, log level 2 and a 100ms refresh interval.
func DefaultControllerOptions() ControllerOptions {
	return ControllerOptions{
		Vertical:        Bool(true),
		LogLevel:        Int(LogWarn),
		RefreshInterval: Interval(DefaultRefreshInterval),
	}
}

// Info is a snapshot of the controller's view of its container.
type Info struct {
	Size            float64
	Vertical        bool
	ScrollPos       float64
	ScrollDirection ScrollDirection
	Container       surface.Element
	IsDocument      bool
}

// Controller watches one scroll container and keeps its scenes in step with
// the scroll position. Scroll and resize notifications mark scenes for an
// update that runs on the next frame; at most one frame is pending at a
// time.
//
// A Controller is not safe for concurrent use. It is driven by the
// provider's notifications, frames and timers.
type Controller struct {
	id   uuid.UUID
	surf surface.Provider

	container       surface.Element
	isDocument      bool
	vertical        bool
	global          SceneOptions
	logLevel        int
	refreshInterval time.Duration
	addIndicators   bool

	// scenes is kept sorted by scroll start.
	scenes []*Scene

	// pendingAll marks every scene for the next frame; otherwise
	// pendingScenes lists the marked ones.
	pendingAll    bool
	pendingScenes []*Scene

	scrollPos float64
	direction ScrollDirection
	size      float64
	enabled   bool

	frameID        surface.FrameID
	frameScheduled bool

	refreshTimer     surface.TimerID
	refreshScheduled bool

	listeners     []surface.ListenerID
	scrollPosFn   func() float64
	scrollHandler ScrollHandler

	smooth smoothState
}

// NewController creates a controller for the container named by opts.
func NewController(p surface.Provider, opts ControllerOptions) (*Controller, error) {
	container := opts.Container
	if container == nil {
		if opts.ContainerSelector != "" {
			if els := p.Resolve(opts.ContainerSelector); len(els) > 0 {
				container = els[0]
			}
		} else {
			container = p.Viewport()
		}
	}
	if container == nil {
		logAt(LogWarn, LogError, "controller", uuid.Nil, "no valid scroll container supplied",
			slog.String("selector", opts.ContainerSelector))
		return nil, fmt.Errorf("scrollwizardry: new controller: %w", ErrNoContainer)
	}

	c := &Controller{
		id:              uuid.New(),
		surf:            p,
		container:       container,
		vertical:        opts.Vertical == nil || *opts.Vertical,
		global:          opts.GlobalSceneOptions,
		logLevel:        LogWarn,
		refreshInterval: DefaultRefreshInterval,
		addIndicators:   opts.AddIndicators,
		direction:       DirectionPaused,
		enabled:         true,
	}
	if opts.LogLevel != nil {
		if err := validateLogLevel(*opts.LogLevel); err != nil {
			c.log(LogError, "invalid controller option", slog.Any("error", err))
		} else {
			c.logLevel = *opts.LogLevel
		}
	}
	if opts.RefreshInterval != nil {
		c.refreshInterval = *opts.RefreshInterval
	}

	c.isDocument = p.IsViewport(container) || !p.Attached(container)
	if c.isDocument {
		c.container = p.Viewport()
	}
	c.scrollPosFn = func() float64 { return c.surf.ScrollPos(c.container, c.vertical) }
	c.scrollHandler = func(pos float64, _ ...any) { c.surf.SetScrollPos(c.container, c.vertical, pos) }

	c.size = c.viewportSize()
	c.listeners = append(c.listeners,
		p.Listen(c.container, surface.NotifyResize, c.onChange),
		p.Listen(c.container, surface.NotifyScroll, c.onChange),
	)
	c.scheduleRefresh()

	c.log(LogDebug, "added new controller", slog.Bool("vertical", c.vertical), slog.Bool("isDocument", c.isDocument))
	return c, nil
}

// ID returns the controller's identity, used in logs and traces.
func (c *Controller) ID() uuid.UUID { return c.id }

func (c *Controller) viewportSize() float64 {
	return c.surf.ViewportSize(c.container, c.vertical)
}

// axis picks the scroll axis component of pt.
func (c *Controller) axis(pt surface.Point) float64 {
	if c.vertical {
		return pt.Top
	}
	return pt.Left
}

// --- Scheduling ---

func (c *Controller) onChange(n *surface.Notification) {
	c.log(LogDebug, "event fired causing an update", slog.String("event", n.Kind.String()))
	if n.Kind == surface.NotifyResize {
		c.size = c.viewportSize()
		c.direction = DirectionPaused
	}
	if !c.refreshScheduled {
		c.scheduleRefresh()
	}
	if !c.pendingAll {
		c.pendingAll = true
		c.pendingScenes = nil
		c.debounceUpdate()
	}
}

func (c *Controller) scheduleRefresh() {
	if c.refreshInterval > 0 && len(c.scenes) > 0 {
		c.refreshTimer = c.surf.AfterFunc(c.refreshInterval, c.refresh)
		c.refreshScheduled = true
		return
	}
	c.refreshTimer = 0
	c.refreshScheduled = false
}

// refresh polls for container size changes nested containers do not
// report and re-evaluates every scene.
func (c *Controller) refresh() {
	c.refreshScheduled = false
	if !c.isDocument && c.size != c.viewportSize() {
		c.surf.Dispatch(c.container, &surface.Notification{Kind: surface.NotifyResize})
	}
	for _, s := range slices.Clone(c.scenes) {
		s.Refresh()
	}
	c.scheduleRefresh()
}

// debounceUpdate requests a frame for the pending update unless one is
// already requested.
func (c *Controller) debounceUpdate() {
	if len(c.scenes) == 0 || c.frameScheduled {
		return
	}
	c.frameScheduled = true
	c.frameID = c.surf.RequestFrame(func(time.Duration) {
		c.frameScheduled = false
		c.frameID = 0
		c.updateScenes()
	})
}

// updateScenes reads the scroll position and updates the pending scenes in
// scroll order, or in reverse order when scrolling backwards.
func (c *Controller) updateScenes() {
	if !c.enabled || (!c.pendingAll && len(c.pendingScenes) == 0) {
		return
	}
	var todo []*Scene
	if c.pendingAll {
		todo = slices.Clone(c.scenes)
	} else {
		todo = c.pendingScenes
	}
	c.pendingAll = false
	c.pendingScenes = nil

	old := c.scrollPos
	c.scrollPos = c.ScrollPos()
	if delta := c.scrollPos - old; delta != 0 {
		if delta > 0 {
			c.direction = DirectionForward
		} else {
			c.direction = DirectionReverse
		}
	}
	if c.direction == DirectionReverse {
		slices.Reverse(todo)
	}
	for i, s := range todo {
		c.log(LogDebug, "updating scene", slog.Int("index", i+1), slog.Int("count", len(todo)), slog.Int("total", len(c.scenes)))
		s.Update(true)
	}
	if len(todo) == 0 {
		c.log(LogDebug, "updating 0 scenes (nothing added to controller)")
	}
}

func sortScenes(scenes []*Scene) {
	slices.SortStableFunc(scenes, func(a, b *Scene) int {
		return cmp.Compare(a.scrollOffset.Start, b.scrollOffset.Start)
	})
}

// UpdateScene updates scenes now when immediate is set. Otherwise they are
// marked for the next frame.
func (c *Controller) UpdateScene(immediate bool, scenes ...*Scene) *Controller {
	for _, s := range scenes {
		if s == nil {
			continue
		}
		if immediate {
			s.Update(true)
			continue
		}
		if c.pendingAll {
			continue
		}
		if !slices.Contains(c.pendingScenes, s) {
			c.pendingScenes = append(c.pendingScenes, s)
		}
		sortScenes(c.pendingScenes)
		c.debounceUpdate()
	}
	return c
}

// Update re-measures the container and marks every scene for the next
// frame, or updates them right away when immediate is set.
func (c *Controller) Update(immediate bool) *Controller {
	c.onChange(&surface.Notification{Kind: surface.NotifyResize, Target: c.container})
	if immediate {
		c.updateScenes()
	}
	return c
}

// --- Scenes ---

// AddScene adds scenes to the controller. Scenes owned by another controller
// move here; scenes already added are ignored.
func (c *Controller) AddScene(scenes ...*Scene) *Controller {
	for _, s := range scenes {
		if s == nil {
			continue
		}
		if s.controller != c {
			s.AddTo(c)
			continue
		}
		if slices.Contains(c.scenes, s) {
			continue
		}
		c.scenes = append(c.scenes, s)
		sortScenes(c.scenes)
		s.On("shift.controller_sort", func(Event) { sortScenes(c.scenes) })
		s.applyOptions(c.global)
		c.log(LogDebug, "adding scene", slog.Int("total", len(c.scenes)))
		if c.addIndicators {
			c.log(LogDebug, "indicators requested", slog.String("scene", s.id.String()))
		}
		if !c.refreshScheduled {
			c.scheduleRefresh()
		}
	}
	c.debounceUpdate()
	return c
}

// RemoveScene detaches scenes from the controller.
func (c *Controller) RemoveScene(scenes ...*Scene) *Controller {
	for _, s := range scenes {
		idx := slices.Index(c.scenes, s)
		if idx < 0 {
			continue
		}
		s.Off("shift.controller_sort")
		c.scenes = slices.Delete(c.scenes, idx, idx+1)
		c.pendingScenes = slices.DeleteFunc(c.pendingScenes, func(p *Scene) bool { return p == s })
		c.log(LogDebug, "removing scene", slog.Int("left", len(c.scenes)))
		s.Remove()
	}
	return c
}

// Scenes returns the scenes in scroll order.
func (c *Controller) Scenes() []*Scene { return slices.Clone(c.scenes) }

// --- Scrolling ---

// ScrollPos returns the scroll position as read by the scroll position
// function, not the value cached at the last update.
func (c *Controller) ScrollPos() float64 { return c.scrollPosFn() }

// SetScrollPosFunc replaces how the scroll position is read. A nil fn is
// rejected.
func (c *Controller) SetScrollPosFunc(fn func() float64) *Controller {
	if fn == nil {
		c.log(LogWarn, "scroll position function must not be nil; use ScrollTo to change the scroll position")
		return c
	}
	c.scrollPosFn = fn
	return c
}

// ScrollHandler moves the container to pos. extra holds the values passed
// after the target to one of the ScrollTo methods.
type ScrollHandler func(pos float64, extra ...any)

// SetScrollHandler replaces how ScrollTo moves the container, for example
// with SmoothScroll.
func (c *Controller) SetScrollHandler(fn ScrollHandler) *Controller {
	if fn == nil {
		c.log(LogWarn, "scroll handler must not be nil")
		return c
	}
	c.scrollHandler = fn
	return c
}

// ScrollToPos scrolls the container to pos. extra is handed to the scroll
// handler.
func (c *Controller) ScrollToPos(pos float64, extra ...any) *Controller {
	c.scrollHandler(pos, extra...)
	return c
}

// ScrollToElement scrolls so the element, or the outermost pin spacer
// around it, sits at the container start.
func (c *Controller) ScrollToElement(el surface.Element, extra ...any) *Controller {
	if el == nil || !c.surf.Attached(el) {
		c.log(LogWarn, "scroll target is not attached, scroll cancelled")
		return c
	}
	el = ascendSpacers(c.surf, el)
	containerPos := c.axis(c.surf.Offset(c.container, false))
	if !c.isDocument {
		containerPos -= c.ScrollPos()
	}
	return c.ScrollToPos(c.axis(c.surf.Offset(el, false))-containerPos, extra...)
}

// ScrollToScene scrolls to the start of a scene of this controller.
func (c *Controller) ScrollToScene(s *Scene, extra ...any) *Controller {
	if s == nil || s.controller != c {
		c.log(LogWarn, "scene does not belong to this controller, scroll cancelled")
		return c
	}
	return c.ScrollToPos(s.scrollOffset.Start, extra...)
}

// ScrollTo dispatches on the target type: a number scrolls to a position,
// an element or selector to that element, a scene to its start and a
// function replaces the scroll handler. extra is handed to the scroll
// handler.
func (c *Controller) ScrollTo(target any, extra ...any) *Controller {
	switch t := target.(type) {
	case float64:
		return c.ScrollToPos(t, extra...)
	case int:
		return c.ScrollToPos(float64(t), extra...)
	case *Scene:
		return c.ScrollToScene(t, extra...)
	case ScrollHandler:
		return c.SetScrollHandler(t)
	case func(float64, ...any):
		return c.SetScrollHandler(t)
	case func(float64):
		return c.SetScrollHandler(func(pos float64, _ ...any) { t(pos) })
	case string:
		if els := c.surf.Resolve(t); len(els) > 0 {
			return c.ScrollToElement(els[0], extra...)
		}
		c.log(LogWarn, "scroll target not found", slog.String("selector", t))
		return c
	case surface.Element:
		return c.ScrollToElement(t, extra...)
	}
	c.log(LogWarn, "unsupported scroll target", slog.String("type", fmt.Sprintf("%T", target)))
	return c
}

// --- State ---

// Info returns the container size, axis, cached scroll position, scroll
// direction, container and whether the container is the document.
func (c *Controller) Info() Info {
	return Info{
		Size:            c.size,
		Vertical:        c.vertical,
		ScrollPos:       c.scrollPos,
		ScrollDirection: c.direction,
		Container:       c.container,
		IsDocument:      c.isDocument,
	}
}

// InfoValue returns a single Info field by name, or nil for unknown keys.
func (c *Controller) InfoValue(key string) any {
	info := c.Info()
	switch key {
	case "size":
		return info.Size
	case "vertical":
		return info.Vertical
	case "scrollPos":
		return info.ScrollPos
	case "scrollDirection":
		return info.ScrollDirection
	case "container":
		return info.Container
	case "isDocument":
		return info.IsDocument
	}
	return nil
}

// LogLevel returns the controller's log level.
func (c *Controller) LogLevel() int { return c.logLevel }

// SetLogLevel sets the controller's log level. An invalid level is logged
// and replaced by LogWarn.
func (c *Controller) SetLogLevel(v int) *Controller {
	if err := validateLogLevel(v); err != nil {
		c.log(LogError, "invalid controller option", slog.Any("error", err))
		v = LogWarn
	}
	c.logLevel = v
	return c
}

// Indicators reports whether debug indicators were requested.
func (c *Controller) Indicators() bool { return c.addIndicators }

// Enabled reports whether scene updates run.
func (c *Controller) Enabled() bool { return c.enabled }

// SetEnabled switches scene updates on or off. Every scene is updated right
// away so that pins are released or re-applied.
func (c *Controller) SetEnabled(v bool) *Controller {
	if c.enabled == v {
		return c
	}
	c.enabled = v
	c.UpdateScene(true, slices.Clone(c.scenes)...)
	if v && (c.pendingAll || len(c.pendingScenes) > 0) {
		c.debounceUpdate()
	}
	return c
}

// Destroy stops the controller. Its scenes are destroyed, restoring pinned
// elements when resetScenes is set.
func (c *Controller) Destroy(resetScenes bool) {
	if c.refreshScheduled {
		c.surf.CancelTimer(c.refreshTimer)
		c.refreshScheduled = false
	}
	c.smooth.cancel(c)
	for _, s := range slices.Clone(c.scenes) {
		s.Destroy(resetScenes)
	}
	for _, id := range c.listeners {
		c.surf.Unlisten(id)
	}
	c.listeners = nil
	if c.frameScheduled {
		c.surf.CancelFrame(c.frameID)
		c.frameScheduled = false
	}
	c.pendingAll = false
	c.pendingScenes = nil
	c.log(LogDebug, "destroyed controller", slog.Bool("resetScenes", resetScenes))
}
