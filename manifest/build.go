package manifest

import (
	"fmt"
	"time"

	"github.com/tanema/gween/ease"

	sw "github.com/phanxgames/scrollwizardry"
	"github.com/phanxgames/scrollwizardry/surface"
)

const (
	defaultViewportWidth  = 800
	defaultViewportHeight = 600
)

var easeFuncs = map[string]ease.TweenFunc{
	"":           ease.Linear,
	"linear":     ease.Linear,
	"inQuad":     ease.InQuad,
	"outQuad":    ease.OutQuad,
	"inOutQuad":  ease.InOutQuad,
	"inCubic":    ease.InCubic,
	"outCubic":   ease.OutCubic,
	"inOutCubic": ease.InOutCubic,
	"inSine":     ease.InSine,
	"outSine":    ease.OutSine,
	"inOutSine":  ease.InOutSine,
	"outBounce":  ease.OutBounce,
}

// Document is a built manifest.
type Document struct {
	Tree       *surface.Tree
	Controller *sw.Controller
	// Scenes in declaration order, with their names in Names.
	Scenes []*sw.Scene
	Names  []string
}

// Scene returns the scene declared under name, or nil.
func (d *Document) Scene(name string) *sw.Scene {
	for i, n := range d.Names {
		if n == name {
			return d.Scenes[i]
		}
	}
	return nil
}

// Build creates the tree, the controller and the scenes of m. Selectors
// that match nothing are reported as errors.
func (m *Manifest) Build() (*Document, error) {
	w, h := m.Viewport.Width, m.Viewport.Height
	if w <= 0 {
		w = defaultViewportWidth
	}
	if h <= 0 {
		h = defaultViewportHeight
	}
	tree := surface.NewTree(w, h)
	for _, n := range m.Nodes {
		if err := buildNode(tree.Root(), n); err != nil {
			return nil, err
		}
	}

	cs := m.Controller
	opts := sw.DefaultControllerOptions()
	opts.ContainerSelector = cs.Container
	if cs.Vertical != nil {
		opts.Vertical = cs.Vertical
	}
	if cs.LogLevel != nil {
		opts.LogLevel = cs.LogLevel
	}
	if cs.RefreshInterval != nil {
		opts.RefreshInterval = sw.Interval(time.Duration(*cs.RefreshInterval))
	}
	opts.AddIndicators = cs.AddIndicators
	opts.GlobalSceneOptions = cs.GlobalSceneOptions.Options()

	ctrl, err := sw.NewController(tree, opts)
	if err != nil {
		return nil, fmt.Errorf("manifest: build controller: %w", err)
	}
	if s := cs.SmoothScroll; s != nil {
		ctrl.SetScrollHandler(ctrl.SmoothScroll(time.Duration(s.Duration), easeFuncs[s.Ease]))
	}

	doc := &Document{Tree: tree, Controller: ctrl}
	for i, spec := range m.Scenes {
		name := m.sceneName(i)
		if sel := spec.TriggerElement; sel != "" && len(tree.Resolve(sel)) == 0 {
			ctrl.Destroy(false)
			return nil, fmt.Errorf("manifest: scene %q: trigger %q: %w", name, sel, sw.ErrTriggerElementNotFound)
		}
		scene := sw.NewScene(spec.Options())
		if p := spec.Pin; p != nil {
			if len(tree.Resolve(p.Element)) == 0 {
				ctrl.Destroy(false)
				return nil, fmt.Errorf("manifest: scene %q: pin %q: %w", name, p.Element, sw.ErrInvalidPin)
			}
			scene.SetPinSelector(p.Element, sw.PinSettings{
				PushFollowers: p.PushFollowers,
				SpacerClass:   p.SpacerClass,
			})
		}
		scene.AddTo(ctrl)
		doc.Scenes = append(doc.Scenes, scene)
		doc.Names = append(doc.Names, name)
	}

	if m.Script != nil {
		tree.SetScript(m.Script)
	}
	return doc, nil
}

func buildNode(parent *surface.Node, spec NodeSpec) error {
	style, err := spec.Style.Style()
	if err != nil {
		return fmt.Errorf("manifest: node %q: %w", spec.Name, err)
	}
	n := surface.NewNode(spec.Name, style)
	for _, c := range spec.Classes {
		n.AddClass(c)
	}
	n.Scrollable = spec.Scrollable
	switch len(spec.Fill) {
	case 3:
		n.Fill = surface.Color{R: spec.Fill[0], G: spec.Fill[1], B: spec.Fill[2], A: 1}
	case 4:
		n.Fill = surface.Color{R: spec.Fill[0], G: spec.Fill[1], B: spec.Fill[2], A: spec.Fill[3]}
	}
	parent.AddChild(n)
	for _, c := range spec.Children {
		if err := buildNode(n, c); err != nil {
			return err
		}
	}
	return nil
}
