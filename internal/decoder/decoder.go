package decoder

import (
	"io"
	"log"
	"time"
)

// state is the decoder's calibration record. Transitions are strictly
// forward: bpc locks before absoluteMode, which locks before numPoints and
// frameLen. Once a field is non-zero it is never reset.
type state struct {
	bpc          int
	absoluteMode bool
	numPoints    int
	frameLen     int
}

func (s *state) bpcKnown() bool  { return s.bpc != 0 }
func (s *state) calibrated() bool { return s.frameLen != 0 }

// Decoder is a stateful byte-stream to Frame decoder. It is not safe for
// concurrent use; the daemon's single read loop owns it exclusively.
type Decoder struct {
	buf []byte
	st  state

	minPoints, maxPoints int
	allowZeroLine        bool

	logger *log.Logger
}

// Option configures a Decoder at construction time.
type Option func(*Decoder)

// WithLogger routes desync diagnostics to l instead of discarding them.
func WithLogger(l *log.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

// WithPointBounds overrides the default [5, 8] point count bounds. Only max
// is applied: it bounds the calibration scan for the terminator. min is
// stored but the discovered point count is not checked against it.
func WithPointBounds(min, max int) Option {
	return func(d *Decoder) { d.minPoints, d.maxPoints = min, max }
}

// WithZeroLine toggles the zero-line release heuristic (default true).
func WithZeroLine(allow bool) Option {
	return func(d *Decoder) { d.allowZeroLine = allow }
}

// New returns a Decoder ready to consume bytes.
func New(opts ...Option) *Decoder {
	d := &Decoder{
		minPoints:     5,
		maxPoints:     8,
		allowZeroLine: true,
		logger:        log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// FrameLength reports the decoder's discovered fixed frame length, once a
// frame has been successfully calibrated.
func (d *Decoder) FrameLength() (int, bool) {
	if !d.st.calibrated() {
		return 0, false
	}
	return d.st.frameLen, true
}

// Feed appends one input byte. If a complete frame is now available it is
// returned with ok=true; otherwise ok is false and the byte has been
// buffered internally. All decode failures are non-fatal: the decoder
// resyncs on the next start marker and never propagates an error upward.
func (d *Decoder) Feed(b byte) (Frame, bool) {
	d.buf = append(d.buf, b)

	if d.st.calibrated() {
		if len(d.buf) >= d.st.frameLen {
			return d.attemptParse()
		}
		return Frame{}, false
	}
	// Still calibrating: every byte might complete the first frame, so
	// attempt a parse each time rather than waiting for a specific byte
	// value. attemptParse's own bounds checks are the real gate.
	return d.attemptParse()
}

func readUint(b []byte) int {
	v := 0
	for _, x := range b {
		v = v<<8 | int(x)
	}
	return v
}

func advance(buf []byte, n int) []byte {
	if n >= len(buf) {
		return buf[:0]
	}
	rest := make([]byte, len(buf)-n)
	copy(rest, buf[n:])
	return rest
}

// resync drops bytes up to (and including) the current start marker and
// looks for the next one, so the next Feed call starts fresh.
func (d *Decoder) resync() {
	for i := 1; i < len(d.buf); i++ {
		if d.buf[i] == startMarker {
			d.buf = advance(d.buf, i)
			return
		}
	}
	d.buf = d.buf[:0]
}

// zeroLineMatches checks the "AA 00...00 BB 00...00" all-zero-payload
// pattern used to recognise a clean all-released frame with a missing
// trailing 0xCC terminator.
func zeroLineMatches(buf []byte, bpc, tmp int) bool {
	refLen := tmp + 1
	if refLen > len(buf) {
		return false
	}
	midPos := 2 + 2*bpc
	if buf[0] != startMarker {
		return false
	}
	if midPos >= refLen || buf[midPos] != midMarker {
		return false
	}
	for i := 1; i < refLen; i++ {
		if i == midPos {
			continue
		}
		if buf[i] != 0 {
			return false
		}
	}
	return true
}

// attemptParse tries to decode one frame starting at the first 0xAA marker
// in d.buf. It returns (frame, true) on success, advancing d.buf past the
// consumed bytes. On failure it either waits for more data (buffer left
// untouched) or resyncs (buffer advanced to the next candidate marker),
// and always returns (Frame{}, false).
func (d *Decoder) attemptParse() (Frame, bool) {
	start := -1
	for i, x := range d.buf {
		if x == startMarker {
			start = i
			break
		}
	}
	if start == -1 {
		d.buf = d.buf[:0]
		return Frame{}, false
	}
	if start > 0 {
		d.buf = advance(d.buf, start)
	}
	buf := d.buf

	if len(buf) < 2 {
		return Frame{}, false
	}
	pressFlag := buf[1] != 0
	tmp := 2

	bpc := d.st.bpc
	if !d.st.bpcKnown() {
		midIdx := -1
		for i := 4; i < len(buf); i++ {
			if buf[i] == midMarker {
				midIdx = i
				break
			}
		}
		if midIdx == -1 {
			return Frame{}, false
		}
		if (midIdx-2)%2 != 0 {
			d.logger.Printf("decoder: odd-parity calibration frame, resyncing")
			d.resync()
			return Frame{}, false
		}
		bpc = (midIdx - 2) / 2
		d.st.bpc = bpc
		d.st.absoluteMode = bpc == 2
	}

	if tmp+2*bpc > len(buf) {
		return Frame{}, false
	}
	a := readUint(buf[tmp : tmp+bpc])
	tmp += bpc
	b := readUint(buf[tmp : tmp+bpc])
	tmp += bpc
	coord0 := Point{X: b, Y: a} // point 0 is stored inverted

	if tmp >= len(buf) {
		return Frame{}, false
	}
	if buf[tmp] != midMarker {
		d.logger.Printf("decoder: expected mid marker at %d, resyncing", tmp)
		d.resync()
		return Frame{}, false
	}
	tmp++

	if tmp >= len(buf) {
		return Frame{}, false
	}
	maskByte := buf[tmp]
	tmp++
	active := make([]bool, 8)
	for i := 0; i < 8; i++ {
		active[i] = maskByte&(1<<uint(i)) != 0
	}

	coords := []Point{coord0}
	numPoints := d.st.numPoints

	if numPoints == 0 {
		// Calibrating: scan forward until the terminator, bounded by maxPoints.
		i := 1
		found := false
		for i <= d.maxPoints {
			if tmp >= len(buf) {
				return Frame{}, false
			}
			if buf[tmp] == endMarker {
				numPoints = i
				found = true
				break
			}
			i++
			if tmp+2*bpc > len(buf) {
				return Frame{}, false
			}
			x := readUint(buf[tmp : tmp+bpc])
			tmp += bpc
			y := readUint(buf[tmp : tmp+bpc])
			tmp += bpc
			coords = append(coords, Point{X: x, Y: y})
		}
		if !found {
			d.logger.Printf("decoder: no terminator within %d points, resyncing", d.maxPoints)
			d.resync()
			return Frame{}, false
		}
	} else {
		for i := 0; i < numPoints-1; i++ {
			if tmp+2*bpc > len(buf) {
				return Frame{}, false
			}
			x := readUint(buf[tmp : tmp+bpc])
			tmp += bpc
			y := readUint(buf[tmp : tmp+bpc])
			tmp += bpc
			coords = append(coords, Point{X: x, Y: y})
		}
		if tmp >= len(buf) {
			return Frame{}, false
		}
		if buf[tmp] != endMarker {
			if !d.allowZeroLine || !zeroLineMatches(buf, bpc, tmp) {
				d.logger.Printf("decoder: desync, missing terminator and no zero-line match")
				d.resync()
				return Frame{}, false
			}
			consumed := tmp + 1
			d.st.numPoints = numPoints
			d.st.frameLen = consumed
			frame := Frame{
				AbsoluteMode:  d.st.absoluteMode,
				BytesPerCoord: bpc,
				Pressed:       false,
				Active:        make([]bool, numPoints),
				RawCoords:     make([]Point, numPoints),
				Timestamp:     time.Now(),
			}
			d.buf = advance(d.buf, consumed)
			return frame, true
		}
	}

	tmp++ // skip 0xCC
	if tmp >= len(buf) {
		return Frame{}, false
	}
	tmp++ // skip trailing 0x00

	d.st.numPoints = numPoints
	d.st.frameLen = tmp - 1

	frame := Frame{
		AbsoluteMode:  d.st.absoluteMode,
		BytesPerCoord: bpc,
		Pressed:       pressFlag,
		Active:        active[:numPoints],
		RawCoords:     coords,
		Timestamp:     time.Now(),
	}
	d.buf = advance(d.buf, tmp)
	return frame, true
}
