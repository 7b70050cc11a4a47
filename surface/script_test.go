package surface

import "testing"

func TestLoadScript(t *testing.T) {
	data := []byte(`
steps:
  - action: scroll
    pos: 300
  - action: wheel
    target: "#header"
    y: 90
    frames: 3
  - action: wait
    frames: 2
  - action: resize
    width: 640
    height: 480
`)
	s, err := LoadScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(s.Steps))
	}
	if s.Steps[1].Target != "#header" || s.Steps[1].Y != 90 || s.Steps[1].Frames != 3 {
		t.Errorf("step 1 = %+v", s.Steps[1])
	}
}

func TestLoadScriptJSON(t *testing.T) {
	s, err := LoadScript([]byte(`{"steps": [{"action": "scroll", "axis": "x", "pos": 10}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Steps[0].Axis != "x" {
		t.Errorf("Axis = %q, want x", s.Steps[0].Axis)
	}
}

func TestLoadScriptInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `steps: [`},
		{"empty", `steps: []`},
		{"unknown action", `steps: [{action: click}]`},
		{"unknown axis", `steps: [{action: scroll, axis: z}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadScript([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestScriptRun(t *testing.T) {
	tree, _, _, _, _ := newDocument()
	tree.SetScript(&Script{Steps: []ScriptStep{
		{Action: "scroll", Pos: 300},
		{Action: "wheel", Target: "#header", Y: 90, Frames: 3},
		{Action: "wait", Frames: 2},
		{Action: "resize", Width: 640, Height: 480},
	}})
	tree.Frame()
	if got := tree.ScrollPos(tree.Root(), true); got != 300 {
		t.Fatalf("after scroll step ScrollPos = %v, want 300", got)
	}

	// Frame 2 queues three wheel events and delivers the first.
	// Frames 3 and 4 deliver the rest while the script waits for the queue.
	for range 3 {
		tree.Frame()
	}
	if got := tree.ScrollPos(tree.Root(), true); got != 390 {
		t.Errorf("after wheel ScrollPos = %v, want 390", got)
	}

	// wait 2 frames, then resize.
	tree.Frame()
	tree.Frame()
	if tree.ScriptDone() {
		t.Error("script should not be done before resize")
	}
	if w, _ := tree.ViewportBounds(); w != 800 {
		t.Errorf("resized early, width = %v", w)
	}
	tree.Frame()
	if w, h := tree.ViewportBounds(); w != 640 || h != 480 {
		t.Errorf("viewport = %vx%v, want 640x480", w, h)
	}
	if !tree.ScriptDone() {
		t.Error("script should be done")
	}
}
