package trace

import (
	"errors"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects records. Empty fields match every record.
type Filter struct {
	// Label matches the label a scene was attached under.
	Label string

	// Event matches the event type.
	Event string
}

func (f Filter) matches(r Record) bool {
	if f.Label != "" && r.Label != f.Label {
		return false
	}
	if f.Event != "" && r.Event != f.Event {
		return false
	}
	return true
}

// Reader streams records from a CBOR trace.
type Reader struct {
	dec    *cbor.Decoder
	filter Filter
}

// NewReader creates a Reader returning every record of r.
func NewReader(r io.Reader) *Reader {
	return NewFilteredReader(r, Filter{})
}

// NewFilteredReader creates a Reader returning the records matching f.
func NewFilteredReader(r io.Reader, f Filter) *Reader {
	return &Reader{dec: newDecoder(r), filter: f}
}

// Next returns the next matching record, or io.EOF at the end of the trace.
func (r *Reader) Next() (Record, error) {
	for {
		var rec Record
		if err := r.dec.Decode(&rec); err != nil {
			return Record{}, err
		}
		if r.filter.matches(rec) {
			return rec, nil
		}
	}
}

// ReadAll reads every record of r in order.
func ReadAll(r io.Reader) ([]Record, error) {
	rd := NewReader(r)
	var out []Record
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
