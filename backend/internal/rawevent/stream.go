package rawevent

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Reader reads a capture stream.
type Reader struct {
	r   *bufio.Reader
	buf [RecordSize]byte
}

// NewReader creates a Reader for r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next event in the stream. The descriptor is not nil for
// KindDeviceAdded events. Returns io.EOF at the clean end of the stream.
func (rd *Reader) Next() (Event, *Descriptor, error) {
	if _, err := io.ReadFull(rd.r, rd.buf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Event{}, nil, fmt.Errorf("rawevent: truncated record: %w", err)
		}
		return Event{}, nil, err
	}

	ev, err := Decode(rd.buf[:])
	if err != nil {
		return ev, nil, err
	}
	if ev.Kind != KindDeviceAdded {
		return ev, nil, nil
	}

	var hdr [descriptorHeaderSize]byte
	if _, err := io.ReadFull(rd.r, hdr[:]); err != nil {
		return ev, nil, fmt.Errorf("rawevent: truncated descriptor: %w", err)
	}
	d := &Descriptor{}
	n, err := decodeDescriptorHeader(hdr[:], d)
	if err != nil {
		return ev, nil, err
	}
	name := make([]byte, n)
	if _, err := io.ReadFull(rd.r, name); err != nil {
		return ev, nil, fmt.Errorf("rawevent: truncated descriptor name: %w", err)
	}
	d.Name = string(name)

	return ev, d, nil
}

// Writer writes a capture stream.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter creates a Writer for w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes one event. A descriptor is required for KindDeviceAdded events
// and ignored for all other kinds.
func (wr *Writer) Write(ev Event, d *Descriptor) error {
	wr.buf = Append(wr.buf[:0], ev)
	if ev.Kind == KindDeviceAdded {
		if d == nil {
			return fmt.Errorf("rawevent: device added record without descriptor")
		}
		wr.buf = AppendDescriptor(wr.buf, *d)
	}
	_, err := wr.w.Write(wr.buf)
	return err
}
