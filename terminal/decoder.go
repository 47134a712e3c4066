// @focus: #sys { term } #input { decode }
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"
)

// maxSequenceLen caps stored sequence bytes; longer sequences are drained and dropped
const maxSequenceLen = 32

// decodeState is the position inside a multi-byte input sequence
type decodeState uint8

const (
	stateGround   decodeState = iota
	stateEscape               // ESC
	stateCSIEntry             // ESC [
	stateCSIParam             // ESC [ params...
	stateSGRMouse             // ESC [ < params...
	stateSS3                  // ESC O
	stateUTF8                 // inside a multi-byte rune
)

// Decoder turns the channel's byte stream into input events.
// Incomplete sequences survive across Poll calls; their deadlines run from
// the arrival of the most recent byte. Not safe for concurrent use.
type Decoder struct {
	ch              Channel
	escapeTimeout   time.Duration
	sequenceTimeout time.Duration
	now             func() time.Time
	log             *slog.Logger
	metrics         Metrics

	state    decodeState
	seq      []byte
	overflow bool
	utf8Buf  [utf8.UTFMax]byte
	utf8Len  int
	utf8Need int
	lastByte time.Time
	eof      bool
}

// NewDecoder creates a decoder reading from ch
func NewDecoder(ch Channel, opts ...Option) *Decoder {
	return newDecoder(ch, buildOptions(opts))
}

func newDecoder(ch Channel, o options) *Decoder {
	return &Decoder{
		ch:              ch,
		escapeTimeout:   o.escapeTimeout,
		sequenceTimeout: o.sequenceTimeout,
		now:             o.now,
		log:             o.logger.With("component", "decoder"),
		metrics:         o.metrics,
		seq:             make([]byte, 0, maxSequenceLen),
	}
}

// Poll returns the next complete event, or nil if none completes within timeout.
// At end of stream it returns a SpecialEvent with KeyEOF, repeatedly.
// Errors are device failures other than end of stream.
func (d *Decoder) Poll(timeout time.Duration) (Event, error) {
	d.metrics.Inc(MetricPolls)
	if timeout < 0 {
		timeout = 0
	}
	return d.next(d.now().Add(timeout), false)
}

// ReadBlocking waits until a complete event is available or the stream ends.
// Swallowed sequences do not return; the wait continues past them.
func (d *Decoder) ReadBlocking() (Event, error) {
	return d.next(time.Time{}, true)
}

// next drives the state machine until an event, the deadline, or a failure
func (d *Decoder) next(deadline time.Time, block bool) (Event, error) {
	if d.eof {
		return SpecialEvent{Key: KeyEOF}, nil
	}

	for {
		now := d.now()

		// Negative wait blocks in the channel
		wait := time.Duration(-1)
		if !block {
			wait = max(deadline.Sub(now), 0)
		}

		pendingWait := false
		if d.state != stateGround {
			left := d.lastByte.Add(d.pendingTimeout()).Sub(now)
			if left <= 0 {
				if ev := d.expire(); ev != nil {
					return d.emit(ev), nil
				}
				continue
			}
			if wait < 0 || left <= wait {
				wait = left
				pendingWait = true
			}
		}

		b, err := d.ch.ReadByte(wait)
		switch {
		case err == nil:
		case errors.Is(err, ErrTimeout):
			if pendingWait {
				continue
			}
			return nil, nil
		case errors.Is(err, io.EOF), errors.Is(err, ErrClosed):
			d.log.Debug("input stream ended")
			d.eof = true
			if d.state != stateGround {
				if ev := d.expire(); ev != nil {
					return d.emit(ev), nil
				}
			}
			return d.emit(SpecialEvent{Key: KeyEOF}), nil
		default:
			d.discard("read error")
			return nil, fmt.Errorf("read input: %w", err)
		}

		d.lastByte = d.now()
		if ev := d.feed(b); ev != nil {
			return d.emit(ev), nil
		}
	}
}

// pendingTimeout is the deadline applying to the current partial sequence
func (d *Decoder) pendingTimeout() time.Duration {
	if d.state == stateEscape {
		return d.escapeTimeout
	}
	return d.sequenceTimeout
}

// expire resolves a partial sequence whose follow-up never arrived
func (d *Decoder) expire() Event {
	if d.state == stateEscape {
		d.reset()
		return SpecialEvent{Key: KeyEscape}
	}
	d.discard("incomplete sequence")
	return nil
}

// feed advances the state machine by one byte
func (d *Decoder) feed(b byte) Event {
	switch d.state {
	case stateEscape:
		return d.feedEscape(b)
	case stateCSIEntry:
		return d.feedCSIEntry(b)
	case stateCSIParam:
		return d.feedCSIParam(b)
	case stateSGRMouse:
		return d.feedSGRMouse(b)
	case stateSS3:
		return d.feedSS3(b)
	case stateUTF8:
		return d.feedUTF8(b)
	}
	return d.feedGround(b)
}

func (d *Decoder) feedGround(b byte) Event {
	switch {
	case b == 0x1b:
		d.state = stateEscape
		return nil
	case b < 0x20 || b == 0x7f:
		return controlEvent(b)
	case b < 0x80:
		return CharacterEvent{Rune: rune(b)}
	}

	need := utf8SeqLen(b)
	if need == 0 {
		return CharacterEvent{Rune: utf8.RuneError}
	}
	d.utf8Buf[0] = b
	d.utf8Len = 1
	d.utf8Need = need
	d.state = stateUTF8
	return nil
}

func (d *Decoder) feedEscape(b byte) Event {
	switch {
	case b == '[':
		d.state = stateCSIEntry
		return nil
	case b == 'O':
		d.state = stateSS3
		return nil
	case b == 0x1b:
		// ESC ESC: the first is a standalone Escape, the second may open a sequence
		return SpecialEvent{Key: KeyEscape}
	}

	d.reset()
	switch {
	case b < 0x20 || b == 0x7f:
		return withAlt(controlEvent(b))
	case b < 0x80:
		return CharacterEvent{Rune: rune(b), Alt: true}
	}
	// ESC before a non-ASCII lead byte carries no meaning here; decode the text
	return d.feedGround(b)
}

func (d *Decoder) feedCSIEntry(b byte) Event {
	switch {
	case b == '<':
		d.state = stateSGRMouse
		d.seq = d.seq[:0]
		return nil
	case (b >= '0' && b <= '9') || b == ';' || b == '?':
		d.state = stateCSIParam
		d.seq = append(d.seq[:0], b)
		return nil
	case b < 0x20:
		d.discard("control byte in sequence")
		return d.feedGround(b)
	}

	if key, _, ok := lookupCSI([]byte{b}); ok {
		d.reset()
		return SpecialEvent{Key: key, Shift: key == KeyBackTab}
	}
	if traceEnabled(d.log) {
		d.log.Log(context.Background(), LevelTrace, "unknown CSI final", "byte", fmt.Sprintf("0x%02x", b))
	}
	d.discard("unknown CSI")
	return nil
}

func (d *Decoder) feedCSIParam(b byte) Event {
	if b < 0x20 {
		d.discard("control byte in sequence")
		return d.feedGround(b)
	}
	d.push(b)
	if !isCSIFinal(b) {
		return nil
	}

	if !d.overflow && d.seq[0] != '?' {
		if key, mod, ok := lookupCSI(d.seq); ok {
			ev := SpecialEvent{Key: key}
			ev.setModifiers(mod)
			d.reset()
			return ev
		}
	}
	if traceEnabled(d.log) {
		d.log.Log(context.Background(), LevelTrace, "consumed CSI", "seq", string(d.seq))
	}
	d.discard("unrecognized CSI")
	return nil
}

func (d *Decoder) feedSGRMouse(b byte) Event {
	if b < 0x20 {
		d.discard("control byte in sequence")
		return d.feedGround(b)
	}
	if b != 'M' && b != 'm' {
		d.push(b)
		return nil
	}

	if !d.overflow {
		if ev, ok := decodeSGRMouse(d.seq, b); ok {
			d.reset()
			return ev
		}
	}
	if traceEnabled(d.log) {
		d.log.Log(context.Background(), LevelTrace, "invalid mouse params", "params", string(d.seq))
	}
	d.discard("malformed mouse report")
	return nil
}

func (d *Decoder) feedSS3(b byte) Event {
	if key, ok := lookupSS3(b); ok {
		d.reset()
		return SpecialEvent{Key: key}
	}
	d.discard("unknown SS3")
	if b < 0x20 {
		return d.feedGround(b)
	}
	return nil
}

func (d *Decoder) feedUTF8(b byte) Event {
	if b&0xc0 != 0x80 {
		d.discard("truncated UTF-8")
		return d.feedGround(b)
	}
	d.utf8Buf[d.utf8Len] = b
	d.utf8Len++
	if d.utf8Len < d.utf8Need {
		return nil
	}
	r, _ := utf8.DecodeRune(d.utf8Buf[:d.utf8Len])
	d.reset()
	return CharacterEvent{Rune: r}
}

// push appends to the sequence buffer, flagging overflow instead of growing
func (d *Decoder) push(b byte) {
	if len(d.seq) >= maxSequenceLen {
		d.overflow = true
		return
	}
	d.seq = append(d.seq, b)
}

func (d *Decoder) reset() {
	d.state = stateGround
	d.seq = d.seq[:0]
	d.overflow = false
	d.utf8Len = 0
	d.utf8Need = 0
}

// discard drops the partial sequence; malformed input never surfaces as an error
func (d *Decoder) discard(reason string) {
	if d.state != stateGround {
		d.metrics.Inc(MetricSequencesDiscarded)
		d.log.Debug("sequence discarded", "reason", reason, "len", len(d.seq))
	}
	d.reset()
}

func (d *Decoder) emit(ev Event) Event {
	d.metrics.Inc(MetricEventsDecoded)
	if traceEnabled(d.log) {
		d.log.Log(context.Background(), LevelTrace, "event", "event", ev.String())
	}
	return ev
}

// controlEvent maps C0 bytes and DEL
func controlEvent(b byte) Event {
	switch b {
	case 0x0a, 0x0d:
		return SpecialEvent{Key: KeyEnter}
	case 0x08, 0x7f:
		return SpecialEvent{Key: KeyBackspace}
	case 0x09:
		return SpecialEvent{Key: KeyTab}
	case 0x1b:
		return SpecialEvent{Key: KeyEscape}
	}
	return CharacterEvent{Rune: rune(b) + 64, Ctrl: true}
}

func withAlt(ev Event) Event {
	switch e := ev.(type) {
	case CharacterEvent:
		e.Alt = true
		return e
	case SpecialEvent:
		e.Alt = true
		return e
	}
	return ev
}

func isCSIFinal(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~'
}

// utf8SeqLen returns expected UTF-8 sequence length from start byte, 0 if invalid
func utf8SeqLen(b byte) int {
	if b < 0x80 {
		return 1
	}
	if b&0xe0 == 0xc0 {
		return 2
	}
	if b&0xf0 == 0xe0 {
		return 3
	}
	if b&0xf8 == 0xf0 {
		return 4
	}
	return 0
}
