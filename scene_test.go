package scrollwizardry

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

// recordEvents collects the types of the named events fired on s.
func recordEvents(s *Scene, names string) *[]string {
	got := &[]string{}
	s.On(names, func(e Event) { *got = append(*got, e.Type) })
	return got
}

const lifecycleEvents = "enter leave start end progress"

func TestNewSceneDefaults(t *testing.T) {
	s := NewScene(SceneOptions{})
	if s.State() != StateBefore {
		t.Errorf("State = %v, want %v", s.State(), StateBefore)
	}
	if s.Progress() != 0 || s.Duration() != 0 || s.Offset() != 0 {
		t.Errorf("progress, duration, offset = %v, %v, %v, want zeros", s.Progress(), s.Duration(), s.Offset())
	}
	if s.TriggerHook() != 0.5 {
		t.Errorf("TriggerHook = %v, want 0.5", s.TriggerHook())
	}
	if !s.Reverse() || s.TweenChanges() {
		t.Errorf("Reverse, TweenChanges = %v, %v, want true, false", s.Reverse(), s.TweenChanges())
	}
	if s.LogLevel() != LogWarn {
		t.Errorf("LogLevel = %d, want %d", s.LogLevel(), LogWarn)
	}
	if s.TriggerElement() != nil || s.Controller() != nil {
		t.Error("new scene has a trigger element or controller")
	}
	if s.ScrollOffset() != (ScrollOffset{}) {
		t.Errorf("ScrollOffset = %+v, want zero", s.ScrollOffset())
	}
}

func TestDefaultSceneOptionsMatchZeroValue(t *testing.T) {
	a := NewScene(DefaultSceneOptions())
	b := NewScene(SceneOptions{})
	if a.Duration() != b.Duration() || a.TriggerHook() != b.TriggerHook() ||
		a.Reverse() != b.Reverse() || a.LogLevel() != b.LogLevel() {
		t.Error("DefaultSceneOptions differs from the zero value")
	}
}

func TestStateInvariant(t *testing.T) {
	sequences := [][]float64{
		{0.5, 1, 0.2, -1},
		{1.5, -0.5, 0, 0.999},
		{-2, 0, 0.3, 0.3, 1, 1, 2, 0.7},
		{0.1, -0.1, -0.1, 0.9, 1.0001},
	}
	for _, reverse := range []bool{true, false} {
		for _, seq := range sequences {
			s := NewScene(SceneOptions{Duration: Pixels(100), Reverse: Bool(reverse)})
			for _, p := range seq {
				s.SetProgress(p)
				prog, state := s.Progress(), s.State()
				if prog < 0 || prog > 1 {
					t.Fatalf("reverse=%v seq=%v p=%v: progress %v out of range", reverse, seq, p, prog)
				}
				if (state == StateAfter) != (prog == 1) {
					t.Errorf("reverse=%v seq=%v p=%v: state %v with progress %v", reverse, seq, p, state, prog)
				}
				if state == StateBefore && prog != 0 {
					t.Errorf("reverse=%v seq=%v p=%v: BEFORE with progress %v", reverse, seq, p, prog)
				}
			}
		}
	}
}

func TestZeroDurationNeverAfter(t *testing.T) {
	for _, reverse := range []bool{true, false} {
		s := NewScene(SceneOptions{Reverse: Bool(reverse)})
		for _, p := range []float64{0.5, 1, 2, 0, -1, 1, 0.99, 5} {
			s.SetProgress(p)
			want := StateDuring
			if s.Progress() == 0 {
				want = StateBefore
			}
			if s.State() != want {
				t.Errorf("reverse=%v p=%v: State = %v, want %v", reverse, p, s.State(), want)
			}
		}
	}
}

func TestZeroDurationEvents(t *testing.T) {
	s := NewScene(SceneOptions{})
	got := recordEvents(s, lifecycleEvents)

	s.SetProgress(1)
	if want := []string{"enter", "start", "progress"}; !slices.Equal(*got, want) {
		t.Errorf("events = %v, want %v", *got, want)
	}
	if s.State() != StateDuring {
		t.Errorf("State = %v, want %v", s.State(), StateDuring)
	}

	*got = nil
	s.SetProgress(0)
	if want := []string{"progress", "start", "leave"}; !slices.Equal(*got, want) {
		t.Errorf("events = %v, want %v", *got, want)
	}
	if s.State() != StateBefore {
		t.Errorf("State = %v, want %v", s.State(), StateBefore)
	}
}

func TestReverseLock(t *testing.T) {
	s := NewScene(SceneOptions{Duration: Pixels(100), Reverse: Bool(false)})
	s.SetProgress(1)
	if s.State() != StateAfter {
		t.Fatalf("State = %v, want %v", s.State(), StateAfter)
	}

	got := recordEvents(s, lifecycleEvents)
	s.SetProgress(0.3)
	if s.State() != StateAfter || s.Progress() != 1 {
		t.Errorf("state, progress = %v, %v, want AFTER, 1", s.State(), s.Progress())
	}
	if len(*got) != 0 {
		t.Errorf("locked scene fired %v", *got)
	}
}

func TestReverseLockDuring(t *testing.T) {
	s := NewScene(SceneOptions{Duration: Pixels(100), Reverse: Bool(false)})
	s.SetProgress(0.6)
	s.SetProgress(0.2)
	if s.State() != StateDuring || s.Progress() != 0.6 {
		t.Errorf("state, progress = %v, %v, want DURING, 0.6", s.State(), s.Progress())
	}

	s.SetProgress(0.8)
	if s.Progress() != 0.8 {
		t.Errorf("Progress = %v, want 0.8", s.Progress())
	}
}

func TestSkipThroughEventSequence(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		to    float64
		want  []string
		state State
	}{
		{"before to after", -1, 1.5, []string{"enter", "start", "progress", "end", "leave"}, StateAfter},
		{"after to before", 1.5, -1, []string{"enter", "end", "progress", "start", "leave"}, StateBefore},
		{"before to during", -1, 0.5, []string{"enter", "start", "progress"}, StateDuring},
		{"during to after", 0.5, 1, []string{"progress", "end", "leave"}, StateAfter},
		{"during to during", 0.5, 0.6, []string{"progress"}, StateDuring},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScene(SceneOptions{Duration: Pixels(100)})
			s.SetProgress(tt.start)
			got := recordEvents(s, lifecycleEvents)
			s.SetProgress(tt.to)
			if !slices.Equal(*got, tt.want) {
				t.Errorf("events = %v, want %v", *got, tt.want)
			}
			if s.State() != tt.state {
				t.Errorf("State = %v, want %v", s.State(), tt.state)
			}
		})
	}
}

func TestSetProgressAtBoundaryIsNoOp(t *testing.T) {
	s := NewScene(SceneOptions{Duration: Pixels(100)})
	got := recordEvents(s, lifecycleEvents)
	s.SetProgress(-1)
	if len(*got) != 0 {
		t.Errorf("events at start = %v, want none", *got)
	}

	s.SetProgress(2)
	*got = nil
	s.SetProgress(3)
	if len(*got) != 0 {
		t.Errorf("events past end = %v, want none", *got)
	}
}

func TestOptionValidation(t *testing.T) {
	s := NewScene(SceneOptions{
		Duration:    Pixels(-5),
		TriggerHook: HookName("onSomewhere"),
		LogLevel:    Int(7),
	})
	if s.Duration() != 0 || s.TriggerHook() != 0.5 || s.LogLevel() != LogWarn {
		t.Errorf("invalid options gave duration %v, hook %v, level %d", s.Duration(), s.TriggerHook(), s.LogLevel())
	}

	hooks := []struct {
		hook HookSpec
		want float64
	}{
		{Hook(4), 1},
		{Hook(-1), 0},
		{HookName("onCenter"), 0.5},
		{ParseHook("onEnter"), 1},
	}
	for _, tt := range hooks {
		s.SetTriggerHook(tt.hook)
		if s.TriggerHook() != tt.want {
			t.Errorf("SetTriggerHook(%v): TriggerHook = %v, want %v", tt.hook, s.TriggerHook(), tt.want)
		}
	}

	s.SetLogLevel(LogDebug)
	s.SetLogLevel(-1)
	if s.LogLevel() != LogWarn {
		t.Errorf("LogLevel after invalid = %d, want %d", s.LogLevel(), LogWarn)
	}

	s.SetDuration(DurationFunc(nil))
	if s.Duration() != 0 {
		t.Errorf("Duration = %v, want 0", s.Duration())
	}
}

func TestChangeAndShiftEvents(t *testing.T) {
	s := NewScene(SceneOptions{})
	var changes []string
	var shifts []string
	s.On("change", func(e Event) { changes = append(changes, e.What) })
	s.On("shift", func(e Event) { shifts = append(shifts, e.Reason) })

	s.SetDuration(Pixels(100))
	s.SetDuration(Pixels(100))
	s.SetOffset(OffsetPixels(20))
	s.SetTriggerHook(Hook(0.2))
	s.SetReverse(false)
	s.SetTweenChanges(true)
	s.SetLogLevel(LogError)

	if want := []string{"duration", "offset", "triggerHook", "reverse", "tweenChanges", "loglevel"}; !slices.Equal(changes, want) {
		t.Errorf("changes = %v, want %v", changes, want)
	}
	if want := []string{"duration", "offset", "triggerHook"}; !slices.Equal(shifts, want) {
		t.Errorf("shifts = %v, want %v", shifts, want)
	}
}

func TestLiteralDurationClearsFunc(t *testing.T) {
	length := 100.0
	s := NewScene(SceneOptions{Duration: DurationFunc(func() float64 { return length })})
	if s.Duration() != 100 {
		t.Errorf("Duration = %v, want 100", s.Duration())
	}

	length = 250
	s.Refresh()
	if s.Duration() != 250 {
		t.Errorf("Duration after refresh = %v, want 250", s.Duration())
	}

	s.SetDuration(Pixels(80))
	length = 400
	s.Refresh()
	if s.Duration() != 80 {
		t.Errorf("Duration after literal = %v, want 80", s.Duration())
	}
}

func TestDurationFuncInvalidResult(t *testing.T) {
	length := 100.0
	s := NewScene(SceneOptions{Duration: DurationFunc(func() float64 { return length })})
	length = -3
	s.Refresh()
	if s.Duration() != 0 {
		t.Errorf("Duration = %v, want 0", s.Duration())
	}

	// An invalid result drops the function.
	length = 50
	s.Refresh()
	if s.Duration() != 0 {
		t.Errorf("Duration = %v, want 0", s.Duration())
	}
}

func TestOffsetFunc(t *testing.T) {
	v := 40.0
	s := NewScene(SceneOptions{Offset: OffsetFunc(func() float64 { return v })})
	if s.Offset() != 40 {
		t.Errorf("Offset = %v, want 40", s.Offset())
	}
	v = 60
	if s.Offset() != 60 || s.TriggerPosition() != 60 {
		t.Errorf("Offset, TriggerPosition = %v, %v, want 60, 60", s.Offset(), s.TriggerPosition())
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"120", "120", false},
		{"120px", "120", false},
		{"50%", "50%", false},
		{".5%", "0.5%", false},
		{"abc", "", true},
		{"-20", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDuration(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDuration) {
					t.Errorf("err = %v, want %v", err, ErrInvalidDuration)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q): %v", tt.in, err)
			}
			if d.String() != tt.want {
				t.Errorf("String() = %q, want %q", d.String(), tt.want)
			}
		})
	}
}

func TestCustomTrigger(t *testing.T) {
	s := NewScene(SceneOptions{})
	var got []Event
	s.On("myevent.a myevent.b", func(e Event) { got = append(got, e) })
	s.Trigger("myevent.b", Vars{What: "x"})
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if e := got[0]; e.Type != "myevent" || e.Namespace != "b" || e.What != "x" {
		t.Errorf("event = %q %q %q, want myevent b x", e.Type, e.Namespace, e.What)
	}
}

func TestDestroyStandaloneScene(t *testing.T) {
	s := NewScene(SceneOptions{Duration: Pixels(10)})
	destroyed := 0
	s.On("destroy", func(e Event) {
		destroyed++
		if !e.Reset {
			t.Error("destroy event Reset = false, want true")
		}
	})
	s.Destroy(true)
	if destroyed != 1 {
		t.Errorf("destroy events = %d, want 1", destroyed)
	}

	// All handlers are gone, including the internal ones.
	for _, name := range []string{"destroy", "progress", "shift"} {
		if n := s.bus.Len(name); n != 0 {
			t.Errorf("Len(%q) = %d, want 0", name, n)
		}
	}

	s.SetProgress(0.5)
	if s.State() != StateDuring {
		t.Errorf("State = %v, want %v", s.State(), StateDuring)
	}
}

func TestSceneLogLevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	NewScene(SceneOptions{LogLevel: Int(LogSilent), TriggerHook: HookName("bogus")})
	if buf.Len() != 0 {
		t.Errorf("silent scene logged %q", buf.String())
	}

	NewScene(SceneOptions{LogLevel: Int(LogError), TriggerHook: HookName("bogus")})
	for _, want := range []string{"invalid scene option", "component=scene", "level=ERROR"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q lacks %q", buf.String(), want)
		}
	}

	// Debug records are dropped at level 1.
	buf.Reset()
	s := NewScene(SceneOptions{LogLevel: Int(LogError)})
	s.SetProgress(0.5)
	if buf.Len() != 0 {
		t.Errorf("level 1 scene logged %q", buf.String())
	}

	s.SetLogLevel(LogDebug)
	buf.Reset()
	s.SetProgress(0.5)
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Errorf("log %q lacks debug records", buf.String())
	}
}
