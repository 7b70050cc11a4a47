package surface

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ScriptStep is a single action of a Script.
type ScriptStep struct {
	// Action is one of "scroll", "wheel", "resize" and "wait".
	Action string `yaml:"action" json:"action"`
	// Target selects the node for scroll and wheel steps. Empty means the
	// viewport.
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
	// Axis is "x" or "y" for scroll steps. Empty means "y".
	Axis   string  `yaml:"axis,omitempty" json:"axis,omitempty"`
	Pos    float64 `yaml:"pos,omitempty" json:"pos,omitempty"`
	X      float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty" json:"y,omitempty"`
	Width  float64 `yaml:"width,omitempty" json:"width,omitempty"`
	Height float64 `yaml:"height,omitempty" json:"height,omitempty"`
	Frames int     `yaml:"frames,omitempty" json:"frames,omitempty"`
}

// Script is a sequence of host actions replayed one step per frame.
type Script struct {
	Steps []ScriptStep `yaml:"steps" json:"steps"`
}

// LoadScript parses a YAML or JSON script.
func LoadScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step names a known action.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return errors.New("parse script: no steps")
	}
	for i, st := range s.Steps {
		switch st.Action {
		case "scroll", "wheel", "resize", "wait":
		default:
			return fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
		if st.Axis != "" && st.Axis != "x" && st.Axis != "y" {
			return fmt.Errorf("parse script: step %d: unknown axis %q", i, st.Axis)
		}
	}
	return nil
}

type scriptRunner struct {
	steps     []ScriptStep
	cursor    int
	waitCount int
	done      bool
}

// SetScript attaches s to the tree. Each Step executes at most one action.
// A nil script detaches the current one.
func (t *Tree) SetScript(s *Script) {
	if s == nil {
		t.script = nil
		return
	}
	t.script = &scriptRunner{steps: s.Steps}
}

// ScriptDone reports whether the attached script has run every step.
// It returns true when no script is attached.
func (t *Tree) ScriptDone() bool {
	return t.script == nil || t.script.done
}

func (r *scriptRunner) step(t *Tree) {
	if r.done {
		return
	}
	// Injected wheel notifications drain before the script advances.
	if len(t.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "scroll":
		t.SetScrollPos(r.target(t, st.Target), st.Axis != "x", st.Pos)
	case "wheel":
		frames := max(st.Frames, 1)
		target := r.target(t, st.Target)
		for range frames {
			t.InjectWheel(target, st.X/float64(frames), st.Y/float64(frames))
		}
	case "resize":
		t.SetViewportSize(st.Width, st.Height)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(t.injectQueue) == 0 {
		r.done = true
	}
}

func (r *scriptRunner) target(t *Tree, selector string) *Node {
	if selector == "" {
		return t.root
	}
	if n := t.Find(selector); n != nil {
		return n
	}
	return t.root
}
