package surface

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes caps one wire record. A longer line is dropped like any other
// bad record and the stream resynchronizes at the next newline.
const maxLineBytes = 1024 * 1024

// DecoderOptions configures stream decoding.
type DecoderOptions struct {
	// Strict surfaces parse and validation failures through OnError instead
	// of dropping lines silently. Each line is additionally validated against
	// the message JSON schema.
	Strict bool

	// OnError receives per-line failures in strict mode.
	OnError func(error)

	// Metrics, if set, counts dropped lines.
	Metrics *Metrics
}

// Decoder turns a byte stream into an ordered sequence of messages, one per
// newline-delimited record. Partial lines are buffered across read
// boundaries; at EOF any unterminated final line gets one last parse attempt.
// By default a malformed line is dropped and the stream continues.
type Decoder struct {
	reader  *bufio.Reader
	opts    DecoderOptions
	dropped int
	eof     bool
}

// NewDecoder creates a decoder over r. Only one Next loop may run at a time;
// the decoder owns the reader for its lifetime.
func NewDecoder(r io.Reader, opts DecoderOptions) *Decoder {
	return &Decoder{reader: bufio.NewReaderSize(r, 64*1024), opts: opts}
}

// Next returns the next message. It returns io.EOF at clean stream end and
// the underlying read error otherwise. Blank lines and (in lenient mode)
// malformed lines are consumed without being returned.
func (d *Decoder) Next() (Message, error) {
	for !d.eof {
		line, err := d.readLine()
		if errors.Is(err, io.EOF) {
			d.eof = true
		} else if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if d.opts.Strict {
			if err := validateMessageLine([]byte(line)); err != nil {
				d.drop(err)
				continue
			}
		}
		msg, err := ParseMessage([]byte(line))
		if err != nil {
			d.drop(err)
			continue
		}
		return msg, nil
	}
	return nil, io.EOF
}

// readLine reads up to the next newline. A line past maxLineBytes is counted
// as dropped and replaced by an empty one so the caller resynchronizes at the
// following record.
func (d *Decoder) readLine() (string, error) {
	var line []byte
	overlong := false
	for {
		frag, err := d.reader.ReadSlice('\n')
		if !overlong {
			line = append(line, frag...)
			if len(line) > maxLineBytes {
				overlong = true
				line = nil
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if overlong && (err == nil || errors.Is(err, io.EOF)) {
			d.drop(fmt.Errorf("parse message: line exceeds %d bytes", maxLineBytes))
			return "", err
		}
		return string(line), err
	}
}

// Dropped reports how many lines were discarded so far. Callers auditing for
// stream corruption compare this against their expectations externally.
func (d *Decoder) Dropped() int { return d.dropped }

func (d *Decoder) drop(err error) {
	d.dropped++
	d.opts.Metrics.RecordDroppedLine()
	if d.opts.Strict && d.opts.OnError != nil {
		d.opts.OnError(err)
	}
}

// ParseLines is the pure batch form of the decoder: it splits a complete
// string on newlines and returns every successfully parsed message in order.
// Blank lines contribute nothing; malformed lines are dropped.
func ParseLines(text string) []Message {
	var out []Message
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		msg, err := ParseMessage([]byte(line))
		if err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}
