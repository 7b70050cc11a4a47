package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"

	sw "github.com/phanxgames/scrollwizardry"
)

// recordedEvents are the built-in events a Recorder listens to.
const recordedEvents = "change shift update progress enter leave start end add remove destroy"

// namespace keeps recorder handlers apart from application handlers.
const namespace = "trace"

type attachment struct {
	label string
	ids   []sw.HandlerID
}

// Recorder writes one CBOR record per event fired on the scenes attached to
// it. It is not safe for concurrent use; scenes fire events on the goroutine
// driving the surface.
type Recorder struct {
	enc      *cbor.Encoder
	scenes   map[*sw.Scene]*attachment
	seq      uint64
	err      error
	captured []Record
	capture  bool
}

// NewRecorder creates a Recorder writing to w. A nil w only keeps the
// records in memory, see Records.
func NewRecorder(w io.Writer) *Recorder {
	r := &Recorder{scenes: make(map[*sw.Scene]*attachment)}
	if w != nil {
		r.enc = newEncoder(w)
	} else {
		r.capture = true
	}
	return r
}

// Attach starts recording the events of s under label. Attaching a scene
// twice only updates its label.
func (r *Recorder) Attach(s *sw.Scene, label string) {
	if a, ok := r.scenes[s]; ok {
		a.label = label
		return
	}
	a := &attachment{label: label}
	fields := strings.Fields(recordedEvents)
	for i, name := range fields {
		fields[i] = name + "." + namespace
	}
	a.ids = s.OnID(strings.Join(fields, " "), func(e sw.Event) { r.write(e, a.label) })
	r.scenes[s] = a
}

// Detach stops recording the events of s.
func (r *Recorder) Detach(s *sw.Scene) {
	a, ok := r.scenes[s]
	if !ok {
		return
	}
	delete(r.scenes, s)
	if len(a.ids) > 0 {
		s.Off("*."+namespace, a.ids...)
	}
}

// Err returns the first encoding error. Recording stops after it.
func (r *Recorder) Err() error { return r.err }

// Len returns the number of records written.
func (r *Recorder) Len() int { return int(r.seq) }

// Records returns the records kept in memory by a Recorder created without
// a writer.
func (r *Recorder) Records() []Record { return r.captured }

func (r *Recorder) write(e sw.Event, label string) {
	if r.err != nil {
		return
	}
	r.seq++
	rec := FromEvent(e)
	rec.Seq = r.seq
	rec.Label = label
	if r.capture {
		r.captured = append(r.captured, rec)
		return
	}
	if err := r.enc.Encode(rec); err != nil {
		r.err = fmt.Errorf("trace: encode record %d: %w", rec.Seq, err)
	}
}

// FromEvent converts a scene event into a record without sequence number
// or label.
func FromEvent(e sw.Event) Record {
	rec := Record{
		Timestamp: e.Timestamp,
		Event:     e.Type,
		Progress:  e.Progress,
		State:     e.State.String(),
		Direction: e.ScrollDirection.String(),
		What:      e.What,
		Reason:    e.Reason,
		StartPos:  e.StartPos,
		EndPos:    e.EndPos,
		ScrollPos: e.ScrollPos,
		Reset:     e.Reset,
	}
	if e.NewVal != nil {
		rec.NewVal = fmt.Sprint(e.NewVal)
	}
	if e.Target != nil {
		rec.Scene = e.Target.ID().String()
		if c := e.Target.Controller(); c != nil {
			rec.Controller = c.ID().String()
		}
	}
	return rec
}
