package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
)

// TypeText marks a frame carrying a text delta. Other types are ignored.
const TypeText = "text"

const dataMarker = "data:"

// Event is one decoded frame payload.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// IsText reports whether the event carries a non-empty text delta.
func (e Event) IsText() bool {
	return e.Type == TypeText && e.Message != ""
}

// Decoder splits an event-stream body into frames. A frame ends at a blank
// line; the first line starting with the data marker carries a JSON payload.
type Decoder struct {
	r       *bufio.Reader
	partial strings.Builder
	lines   []string
	log     zerolog.Logger
}

// NewDecoder wraps body.
func NewDecoder(body io.Reader) *Decoder {
	return &Decoder{
		r:   bufio.NewReader(body),
		log: logger.For(logger.Transport),
	}
}

// Next returns the next well-formed event. It returns io.EOF once the body is
// exhausted; malformed frames are skipped.
func (d *Decoder) Next() (Event, error) {
	for {
		frame, err := d.nextFrame()
		if frame != nil {
			if ev, ok := d.parse(frame); ok {
				return ev, nil
			}
		}
		if err != nil {
			return Event{}, err
		}
	}
}

// nextFrame collects lines until a blank line. A trailing frame without a
// terminator is still returned together with io.EOF.
func (d *Decoder) nextFrame() ([]string, error) {
	for {
		chunk, isPrefix, err := d.r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.flushPartial()
				if len(d.lines) > 0 {
					frame := d.lines
					d.lines = nil
					return frame, io.EOF
				}
			}
			return nil, err
		}

		d.partial.Write(chunk)
		if isPrefix {
			continue
		}

		line := d.partial.String()
		d.partial.Reset()
		if strings.TrimSpace(line) == "" {
			if len(d.lines) == 0 {
				continue
			}
			frame := d.lines
			d.lines = nil
			return frame, nil
		}
		d.lines = append(d.lines, line)
	}
}

func (d *Decoder) flushPartial() {
	if d.partial.Len() == 0 {
		return
	}
	d.lines = append(d.lines, d.partial.String())
	d.partial.Reset()
}

func (d *Decoder) parse(frame []string) (Event, bool) {
	for _, line := range frame {
		if !strings.HasPrefix(line, dataMarker) {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, dataMarker))
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			d.log.Debug().Err(err).Str("payload", payload).Msg("skipping malformed frame")
			return Event{}, false
		}
		return ev, true
	}
	return Event{}, false
}

// Events exposes the body as a lazy, consume-once sequence. The returned
// reader yields io.EOF at the end of the body and any read error otherwise.
// Closing the reader stops the producer and closes body.
func Events(body io.ReadCloser) *schema.StreamReader[Event] {
	sr, sw := schema.Pipe[Event](1)

	go func() {
		defer sw.Close()
		defer body.Close()

		dec := NewDecoder(body)
		for {
			ev, err := dec.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				sw.Send(Event{}, err)
				return
			}
			if closed := sw.Send(ev, nil); closed {
				return
			}
		}
	}()

	return sr
}
