// Package trace records scene lifecycle events as a stream of CBOR records
// and reads them back.
//
//	rec := trace.NewRecorder(f)
//	rec.Attach(scene, "intro")
//	...
//	records, err := trace.ReadAll(f)
package trace

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is one dispatched scene event. CBOR encoding uses integer keys.
type Record struct {
	// Seq numbers the records of one Recorder from 1.
	Seq uint64 `cbor:"1,keyasint"`

	// Timestamp when the event was dispatched.
	Timestamp time.Time `cbor:"2,keyasint"`

	// Scene is the id of the scene that fired the event.
	Scene string `cbor:"3,keyasint"`

	// Label is the name the scene was attached under.
	Label string `cbor:"4,keyasint,omitempty"`

	// Controller is the id of the scene's controller, if any.
	Controller string `cbor:"5,keyasint,omitempty"`

	// Event is the event type, e.g. "enter" or "progress".
	Event string `cbor:"6,keyasint"`

	Progress  float64 `cbor:"7,keyasint"`
	State     string  `cbor:"8,keyasint"`
	Direction string  `cbor:"9,keyasint"`

	// Payload of change, shift, update and destroy events.
	What      string  `cbor:"10,keyasint,omitempty"`
	NewVal    string  `cbor:"11,keyasint,omitempty"`
	Reason    string  `cbor:"12,keyasint,omitempty"`
	StartPos  float64 `cbor:"13,keyasint,omitempty"`
	EndPos    float64 `cbor:"14,keyasint,omitempty"`
	ScrollPos float64 `cbor:"15,keyasint,omitempty"`
	Reset     bool    `cbor:"16,keyasint,omitempty"`
}

// String formats the record on one line for terminal output.
func (r Record) String() string {
	var b strings.Builder
	name := r.Label
	if name == "" {
		name = r.Scene
	}
	fmt.Fprintf(&b, "#%d %s %-8s progress=%.3f state=%s direction=%s", r.Seq, name, r.Event, r.Progress, r.State, r.Direction)
	switch r.Event {
	case "change":
		fmt.Fprintf(&b, " what=%s value=%s", r.What, r.NewVal)
	case "shift":
		fmt.Fprintf(&b, " reason=%s", r.Reason)
	case "update":
		fmt.Fprintf(&b, " start=%g end=%g scroll=%g", r.StartPos, r.EndPos, r.ScrollPos)
	case "destroy":
		fmt.Fprintf(&b, " reset=%t", r.Reset)
	}
	return b.String()
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR decoder mode: %v", err))
	}
}

// Encode encodes a record to CBOR bytes.
func Encode(r Record) ([]byte, error) {
	return encMode.Marshal(r)
}

// Decode decodes CBOR bytes into a record.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := decMode.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func newEncoder(w io.Writer) *cbor.Encoder { return encMode.NewEncoder(w) }

func newDecoder(r io.Reader) *cbor.Decoder { return decMode.NewDecoder(r) }
