// Package manifest declares a scroll document in YAML: the node tree of a
// surface.Tree, a controller, its scenes with their pins and an optional
// input script. Build turns a manifest into a ready Controller.
//
//	viewport: {width: 800, height: 600}
//	nodes:
//	  - name: header
//	    style: {height: 200}
//	  - name: panel
//	    style: {height: 100}
//	controller:
//	  refreshInterval: 100ms
//	scenes:
//	  - name: pin-panel
//	    triggerElement: "#panel"
//	    triggerHook: onLeave
//	    duration: 300
//	    pin: {element: "#panel"}
package manifest

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	sw "github.com/phanxgames/scrollwizardry"
	"github.com/phanxgames/scrollwizardry/surface"
)

// Manifest is the root of a YAML manifest.
type Manifest struct {
	Viewport   Viewport        `yaml:"viewport"`
	Nodes      []NodeSpec      `yaml:"nodes"`
	Controller ControllerSpec  `yaml:"controller"`
	Scenes     []SceneSpec     `yaml:"scenes"`
	Script     *surface.Script `yaml:"script,omitempty"`
}

// Viewport is the size of the tree's viewport. Zero fields default to
// 800x600.
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// NodeSpec declares a node and its children.
type NodeSpec struct {
	Name       string     `yaml:"name"`
	Classes    []string   `yaml:"classes,omitempty"`
	Scrollable bool       `yaml:"scrollable,omitempty"`
	Style      StyleSpec  `yaml:"style,omitempty"`
	Fill       []float64  `yaml:"fill,omitempty"`
	Children   []NodeSpec `yaml:"children,omitempty"`
}

// StyleSpec is a node's inline style. Lengths accept "auto", pixels
// ("12" or "12px") and percentages ("50%").
type StyleSpec struct {
	Position  string `yaml:"position,omitempty"`
	Display   string `yaml:"display,omitempty"`
	BoxSizing string `yaml:"boxSizing,omitempty"`
	Flow      string `yaml:"flow,omitempty"`

	Top    Length `yaml:"top,omitempty"`
	Left   Length `yaml:"left,omitempty"`
	Bottom Length `yaml:"bottom,omitempty"`
	Right  Length `yaml:"right,omitempty"`

	Margin  Edges `yaml:"margin,omitempty"`
	Padding Edges `yaml:"padding,omitempty"`

	Width     Length `yaml:"width,omitempty"`
	Height    Length `yaml:"height,omitempty"`
	MinWidth  Length `yaml:"minWidth,omitempty"`
	MinHeight Length `yaml:"minHeight,omitempty"`
}

// ControllerSpec declares the controller.
type ControllerSpec struct {
	// Container is a selector; empty selects the viewport.
	Container          string           `yaml:"container,omitempty"`
	Vertical           *bool            `yaml:"vertical,omitempty"`
	LogLevel           *int             `yaml:"loglevel,omitempty"`
	RefreshInterval    *Interval        `yaml:"refreshInterval,omitempty"`
	AddIndicators      bool             `yaml:"addIndicators,omitempty"`
	GlobalSceneOptions SceneOptionsSpec `yaml:"globalSceneOptions,omitempty"`
	SmoothScroll       *SmoothSpec      `yaml:"smoothScroll,omitempty"`
}

// SmoothSpec installs an animated scroll handler.
type SmoothSpec struct {
	Duration Interval `yaml:"duration"`
	// Ease names an easing function, see EaseNames. Empty means linear.
	Ease string `yaml:"ease,omitempty"`
}

// SceneOptionsSpec holds the scene options shared by scenes and the
// controller's global scene options.
type SceneOptionsSpec struct {
	Duration       *Duration `yaml:"duration,omitempty"`
	Offset         *float64  `yaml:"offset,omitempty"`
	TriggerElement string    `yaml:"triggerElement,omitempty"`
	TriggerHook    *Hook     `yaml:"triggerHook,omitempty"`
	Reverse        *bool     `yaml:"reverse,omitempty"`
	TweenChanges   *bool     `yaml:"tweenChanges,omitempty"`
	LogLevel       *int      `yaml:"loglevel,omitempty"`
}

// SceneSpec declares a scene.
type SceneSpec struct {
	// Name labels the scene in traces; defaults to "scene-<index>".
	Name             string `yaml:"name,omitempty"`
	SceneOptionsSpec `yaml:",inline"`
	Pin              *PinSpec `yaml:"pin,omitempty"`
}

// PinSpec pins the element selected by Element for the scene's duration.
type PinSpec struct {
	Element       string `yaml:"element"`
	PushFollowers *bool  `yaml:"pushFollowers,omitempty"`
	SpacerClass   string `yaml:"spacerClass,omitempty"`
}

// --- Scalar value types ---

// Length is a YAML style length.
type Length struct {
	surface.Length
}

func (l *Length) UnmarshalYAML(value *yaml.Node) error {
	v, err := surface.ParseLength(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	l.Length = v
	return nil
}

// Edges is a YAML box edge list: one length for every side or the CSS
// shorthand sequence of two to four lengths.
type Edges struct {
	surface.Edges
}

func (e *Edges) UnmarshalYAML(value *yaml.Node) error {
	var parts []string
	switch value.Kind {
	case yaml.ScalarNode:
		parts = strings.Fields(value.Value)
	case yaml.SequenceNode:
		if err := value.Decode(&parts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: edges must be a scalar or a sequence", value.Line)
	}
	if len(parts) == 0 || len(parts) > 4 {
		return fmt.Errorf("line %d: edges take 1 to 4 lengths, got %d", value.Line, len(parts))
	}
	ls := make([]surface.Length, len(parts))
	for i, p := range parts {
		l, err := surface.ParseLength(p)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		ls[i] = l
	}
	switch len(ls) {
	case 1:
		e.Edges = surface.Edges{Top: ls[0], Right: ls[0], Bottom: ls[0], Left: ls[0]}
	case 2:
		e.Edges = surface.Edges{Top: ls[0], Right: ls[1], Bottom: ls[0], Left: ls[1]}
	case 3:
		e.Edges = surface.Edges{Top: ls[0], Right: ls[1], Bottom: ls[2], Left: ls[1]}
	case 4:
		e.Edges = surface.Edges{Top: ls[0], Right: ls[1], Bottom: ls[2], Left: ls[3]}
	}
	return nil
}

// Duration is a YAML scene duration: pixels or a percentage of the
// viewport.
type Duration struct {
	sw.DurationSpec
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	spec, err := sw.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.DurationSpec = spec
	return nil
}

// Hook is a YAML trigger hook: a number or onEnter, onCenter or onLeave.
type Hook struct {
	sw.HookSpec
}

func (h *Hook) UnmarshalYAML(value *yaml.Node) error {
	h.HookSpec = sw.ParseHook(value.Value)
	return nil
}

// Interval is a YAML duration such as "100ms". A bare number is read as
// milliseconds and "off" as zero, which disables polling.
type Interval time.Duration

func (iv *Interval) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	if s == "off" {
		*iv = 0
		return nil
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		*iv = Interval(time.Duration(ms * float64(time.Millisecond)))
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*iv = Interval(d)
	return nil
}

// --- Loading ---

var errNoScenes = errors.New("no scenes declared")

// Load parses and validates a manifest.
func Load(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadFile reads and parses the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return Load(data)
}

// Validate checks the parts of a manifest that can be checked without
// building it.
func (m *Manifest) Validate() error {
	if len(m.Scenes) == 0 {
		return fmt.Errorf("manifest: %w", errNoScenes)
	}
	seen := make(map[string]bool)
	for i := range m.Scenes {
		name := m.sceneName(i)
		if seen[name] {
			return fmt.Errorf("manifest: duplicate scene name %q", name)
		}
		seen[name] = true
		if p := m.Scenes[i].Pin; p != nil && p.Element == "" {
			return fmt.Errorf("manifest: scene %q: pin without element: %w", name, sw.ErrInvalidPin)
		}
	}
	if s := m.Controller.SmoothScroll; s != nil {
		if _, ok := easeFuncs[s.Ease]; !ok {
			return fmt.Errorf("manifest: unknown ease %q", s.Ease)
		}
	}
	if m.Script != nil {
		if err := m.Script.Validate(); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
	}
	for _, n := range m.Nodes {
		if err := n.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (n NodeSpec) validate() error {
	if _, err := n.Style.Style(); err != nil {
		return fmt.Errorf("manifest: node %q: %w", n.Name, err)
	}
	if len(n.Fill) != 0 && len(n.Fill) != 3 && len(n.Fill) != 4 {
		return fmt.Errorf("manifest: node %q: fill takes 3 or 4 components", n.Name)
	}
	for _, c := range n.Children {
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) sceneName(i int) string {
	if name := m.Scenes[i].Name; name != "" {
		return name
	}
	return "scene-" + strconv.Itoa(i+1)
}

// Style converts s into a surface style.
func (s StyleSpec) Style() (surface.Style, error) {
	var st surface.Style
	var err error
	if st.Position, err = surface.ParsePosition(s.Position); err != nil {
		return st, err
	}
	if s.Display != "" {
		if st.Display, err = surface.ParseDisplay(s.Display); err != nil {
			return st, err
		}
	}
	switch s.BoxSizing {
	case "":
	case "content-box":
		st.BoxSizing = surface.BoxSizingContentBox
	case "border-box":
		st.BoxSizing = surface.BoxSizingBorderBox
	default:
		return st, fmt.Errorf("unknown box sizing %q", s.BoxSizing)
	}
	if st.Flow, err = surface.ParseFlow(s.Flow); err != nil {
		return st, err
	}
	st.Top, st.Left, st.Bottom, st.Right = s.Top.Length, s.Left.Length, s.Bottom.Length, s.Right.Length
	st.Margin, st.Padding = s.Margin.Edges, s.Padding.Edges
	st.Width, st.Height = s.Width.Length, s.Height.Length
	st.MinWidth, st.MinHeight = s.MinWidth.Length, s.MinHeight.Length
	return st, nil
}

// Options converts o into scene options. TriggerElement stays a
// selector and is resolved when the scene joins a controller.
func (o SceneOptionsSpec) Options() sw.SceneOptions {
	var opts sw.SceneOptions
	if o.Duration != nil {
		opts.Duration = o.Duration.DurationSpec
	}
	if o.Offset != nil {
		opts.Offset = sw.OffsetPixels(*o.Offset)
	}
	if o.TriggerElement != "" {
		opts.TriggerElement = sw.TriggerSelector(o.TriggerElement)
	}
	if o.TriggerHook != nil {
		opts.TriggerHook = o.TriggerHook.HookSpec
	}
	opts.Reverse = o.Reverse
	opts.TweenChanges = o.TweenChanges
	opts.LogLevel = o.LogLevel
	return opts
}
