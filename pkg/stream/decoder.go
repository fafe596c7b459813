package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const dataPrefix = "data: "

// DecodeError is returned for a `data:` line whose payload is not valid JSON.
// Decoding continues with the next line.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed event line %q: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder turns arbitrarily split chunks of an event stream into events.
// Incomplete trailing lines are kept as raw bytes until the rest arrives, so
// multi-byte characters split across chunks decode correctly.
type Decoder struct {
	pending []byte
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the buffered input and decodes every complete line.
// Lines without the data prefix are ignored.
func (d *Decoder) Feed(chunk []byte) ([]Event, []error) {
	d.pending = append(d.pending, chunk...)

	var events []Event
	var errs []error
	for {
		idx := bytes.IndexByte(d.pending, '\n')
		if idx < 0 {
			break
		}
		line := d.pending[:idx]
		d.pending = d.pending[idx+1:]

		ev, ok, err := decodeLine(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			events = append(events, ev)
		}
	}

	// Drop the consumed prefix so the backing array does not grow forever.
	if len(d.pending) == 0 {
		d.pending = nil
	} else {
		d.pending = append([]byte(nil), d.pending...)
	}
	return events, errs
}

// Flush decodes a final line that was never terminated by a newline.
func (d *Decoder) Flush() ([]Event, []error) {
	if len(d.pending) == 0 {
		return nil, nil
	}
	line := d.pending
	d.pending = nil

	ev, ok, err := decodeLine(line)
	if err != nil {
		return nil, []error{err}
	}
	if !ok {
		return nil, nil
	}
	return []Event{ev}, nil
}

// Buffered returns the number of bytes waiting for a line terminator.
func (d *Decoder) Buffered() int {
	return len(d.pending)
}

func decodeLine(line []byte) (Event, bool, error) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, []byte(dataPrefix)) {
		return Event{}, false, nil
	}
	payload := line[len(dataPrefix):]

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, false, &DecodeError{Line: string(line), Err: err}
	}
	return ev, true, nil
}
