// Package gesture implements the touch driver's gesture recognition state
// machine: it consumes decoded TouchFrames and drives an emulated device
// pool, turning single- and two-contact sequences into clicks, drags,
// scrolls and pinch-to-zoom.
package gesture

import (
	"math"
	"time"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/ep12/pytouchd/internal/decoder"
	"github.com/ep12/pytouchd/internal/device"
)

// enginePool is the subset of *device.Pool's behaviour Engine relies on. It
// lets tests drive the state machine against an in-memory double instead
// of real kernel device nodes.
type enginePool interface {
	Size() int
	At(i int) device.OutputDevice
	ReleaseAll() error
}

// Engine holds the recognition state machine for one touch panel. It is
// not safe for concurrent use; the daemon's single read loop owns it.
type Engine struct {
	opt  Options
	pool enginePool

	mode Mode
	last decoder.Frame

	lastPressTime time.Time
	pressPos1     vec
	pressPos2     vec
	relMove       vec // single-touch: contact-0 accumulator. multi-touch: contact-0 accumulator.
	relMoveB      vec // multi-touch only: contact-1 accumulator.

	buffer []decoder.Frame

	deadUntil time.Time
}

// NewEngine returns an Engine driving pool, using opt for every threshold
// and formula. pool.Size() must be at least 2 for two-contact gestures to
// be recognised.
func NewEngine(pool enginePool, opt Options) *Engine {
	n := pool.Size()
	return &Engine{
		opt:  opt,
		pool: pool,
		last: decoder.Frame{
			Active:    make([]bool, n),
			RawCoords: make([]decoder.Point, n),
		},
	}
}

// Mode reports the engine's current recognition state, for diagnostics.
func (e *Engine) Mode() Mode { return e.mode }

// Handle advances the state machine by one decoded frame. It is the single
// entry point the daemon's read loop calls for every frame produced by the
// decoder.
func (e *Engine) Handle(f decoder.Frame) error {
	if !e.deadUntil.IsZero() && f.Timestamp.Before(e.deadUntil) {
		return nil
	}
	e.deadUntil = time.Time{}

	if e.last.AllReleased() && f.AllReleased() {
		err := e.pool.ReleaseAll()
		e.last = f
		return err
	}

	if e.opt.Live {
		err := e.passThrough(f)
		e.last = f
		return err
	}

	var err error
	switch {
	case f.ActiveCount() == 2:
		err = e.handleMultiEntry(f)
	case (f.ActiveCount() == 1 && e.mode.Has(MULTI)) || (f.ActiveCount() == 0 && e.mode.Has(MULTI)):
		err = e.handleMultiCompletion(f)
	case (f.ActiveCount() == 1 && !e.mode.Has(MULTI)) || (f.ActiveCount() == 0 && e.last.ActiveCount() == 1):
		err = e.handleSingle(f)
	}
	e.last = f
	return err
}

// handleSingle implements Branch A: press/release/hold on one contact.
func (e *Engine) handleSingle(f decoder.Frame) error {
	screen := e.opt.Screen

	switch {
	case f.Pressed && !e.last.Pressed:
		return e.singlePress(f)
	case !f.Pressed:
		return e.singleRelease(f)
	default:
		return e.singleHold(f, screen)
	}
}

func (e *Engine) singlePress(f decoder.Frame) error {
	screen := e.opt.Screen
	cur := vecFromPoint(f.AbsXY(0, screen))
	devX, devY, _ := e.pool.At(0).State()
	dist := cur.Sub(vec{X: float64(devX), Y: float64(devY)}).Length()

	if f.Timestamp.Sub(e.lastPressTime) < e.opt.DblClickTime && dist < float64(e.opt.DragDistPX) {
		e.mode ^= DBL
	}
	e.lastPressTime = f.Timestamp
	e.pressPos1 = vecFromPoint(f.AbsXY(0, screen))
	e.relMove = vec{}
	return nil
}

func (e *Engine) singleHold(f decoder.Frame, screen decoder.Size) error {
	prev := vecFromPoint(e.last.AbsXY(0, screen))
	cur := vecFromPoint(f.AbsXY(0, screen))
	e.relMove = e.relMove.Add(cur.Sub(prev))

	if !e.mode.Has(DRAG) {
		if e.relMove.Length() > float64(e.opt.DragDistPX) {
			e.mode |= DRAG
		} else if f.Timestamp.Sub(e.lastPressTime) > e.opt.LongClickTime {
			e.mode |= LONG
		}
	}

	if e.mode.Has(DRAG) {
		return e.passThrough(f)
	}
	e.buffer = append(e.buffer, f)
	return nil
}

// singleRelease decides want_click = (mode&DRAG) XOR !(mode&DBL), literally
// preserved from the driver's original formula (see DESIGN.md):
// a plain single click without a following double-click press wants a
// click; a drag wants none (the move already happened live); a completed
// double-click press/release pair also wants none, since the first
// release already emitted the click. The move and press are gated behind
// want_click, but the release is not: the original
// (original_source/src/touchOutput.py:171) releases unconditionally on
// every release edge, since a live drag still holds BTN_MOUSE down from
// passThrough/forward and must let go of it here rather than waiting for
// the next idle frame.
func (e *Engine) singleRelease(f decoder.Frame) error {
	screen := e.opt.Screen
	dragBit := e.mode.Has(DRAG)
	notDbl := !e.mode.Has(DBL)
	wantClick := dragBit != notDbl

	defer func() {
		e.mode = 0
		e.relMove = vec{}
		e.buffer = nil
	}()

	dev := e.pool.At(0)

	if wantClick {
		if !e.mode.Has(DRAG) {
			e.pressPos2 = vecFromPoint(e.last.AbsXY(0, screen))
			mid := e.pressPos1.Add(e.pressPos2.Sub(e.pressPos1).Scale(0.5))
			x, y := mid.Round()
			if err := dev.Move(x, y); err != nil {
				return err
			}
			if e.mode.Has(LONG) && e.opt.HoldForRightClick {
				if err := dev.Press(evdev.BTN_RIGHT, 1); err != nil {
					return err
				}
			} else if err := dev.Press(0, 1); err != nil {
				return err
			}
		} else {
			p := e.last.AbsXY(0, screen)
			if err := dev.Move(p.X, p.Y); err != nil {
				return err
			}
		}
	}

	return dev.Release(0)
}

// handleMultiEntry implements Branch B's entry (first frame with two active
// contacts) and accumulation (subsequent frames while MULTI holds).
func (e *Engine) handleMultiEntry(f decoder.Frame) error {
	screen := e.opt.Screen
	if !e.mode.Has(MULTI) {
		e.mode |= MULTI
		e.buffer = nil
		e.pressPos1 = vecFromPoint(f.AbsXY(0, screen))
		e.pressPos2 = vecFromPoint(f.AbsXY(1, screen))
		e.relMove = vec{}
		e.relMoveB = vec{}
		return nil
	}

	p0, p1 := e.last.AbsXY(0, screen), e.last.AbsXY(1, screen)
	c0, c1 := f.AbsXY(0, screen), f.AbsXY(1, screen)
	e.relMove = e.relMove.Add(vecFromPoint(c0).Sub(vecFromPoint(p0)))
	e.relMoveB = e.relMoveB.Add(vecFromPoint(c1).Sub(vecFromPoint(p1)))
	return nil
}

// handleMultiCompletion implements Branch B's completion: classify the pair
// of accumulated displacement vectors as a pinch or a parallel directional
// gesture, or abandon quietly if nothing clean was accumulated.
func (e *Engine) handleMultiCompletion(f decoder.Frame) error {
	v1, v2 := e.relMove, e.relMoveB

	defer func() {
		e.mode = 0
		e.relMove = vec{}
		e.relMoveB = vec{}
		e.buffer = nil
		e.deadUntil = f.Timestamp.Add(e.opt.GestureDeadTime)
	}()

	if v1.IsNull() || v2.IsNull() {
		return nil
	}

	alpha := angleDeg(v1, v2)
	screen := e.opt.Screen

	switch {
	case e.opt.PinchToZoom && math.Abs(alpha-180) < e.opt.PinchAngleThreshold:
		d1 := e.pressPos1.Sub(e.pressPos2).Length()
		if d1 == 0 {
			return nil
		}
		p0, p1 := e.last.AbsXY(0, screen), e.last.AbsXY(1, screen)
		d2 := vecFromPoint(p0).Sub(vecFromPoint(p1)).Length()
		k := d2 / d1
		n := e.opt.PinchToZoomClicks.Eval(map[string]float64{"l": 0, "k": k, "p": 0})
		return e.emitPinch(n, k)
	case alpha < e.opt.ParallelAngleThreshold:
		vm := v1.Add(v2).Scale(0.5)
		l := vm.Length()
		if vm.IsNull() {
			return nil
		}
		return e.emitDirectional(vm, l)
	}
	return nil
}

// emitPinch fires n zoom steps, the key and direction chosen by k (the
// ratio of the contacts' final separation to their initial separation: k>1
// is a spread-apart, zoom-in gesture). The Ctrl-Plus/Minus variant presses
// LEFTCTRL, sends one explicit autorepeat event (value=2) for it, then emits
// all n +/- keystrokes before releasing LEFTCTRL, kept bit-exact with the original driver's trick of this kind; see
// DESIGN.md.
func (e *Engine) emitPinch(n int, k float64) error {
	dev := e.pool.At(0)
	if n < 0 {
		n = -n
	}
	if e.opt.ZoomModeCtrlPlusMinus {
		if err := dev.Press(evdev.KEY_LEFTCTRL, 1); err != nil {
			return err
		}
		if err := dev.Press(evdev.KEY_LEFTCTRL, 2); err != nil {
			return err
		}
		key := uint16(evdev.KEY_RIGHTBRACE)
		if k < 1 {
			key = evdev.KEY_SLASH
		}
		for i := 0; i < n; i++ {
			if err := dev.Press(key, 1); err != nil {
				return err
			}
			if err := dev.Release(key); err != nil {
				return err
			}
		}
		return dev.Release(evdev.KEY_LEFTCTRL)
	}

	key := uint16(evdev.KEY_ZOOMIN)
	if k < 1 {
		key = evdev.KEY_ZOOMOUT
	}
	for i := 0; i < n; i++ {
		if err := dev.Press(key, 1); err != nil {
			return err
		}
		if err := dev.Release(key); err != nil {
			return err
		}
	}
	return nil
}

// emitDirectional classifies vm against the four cardinal axes and, on the
// first match under directionAngleThreshold, emits the matching scroll or
// navigation action. The up/down axis naming follows the scroll-direction
// convention, not screen-motion direction: a swipe that moves the contacts
// up the panel (vm.Y < 0) lands in the "down" branch and scrolls negative.
func (e *Engine) emitDirectional(vm vec, l float64) error {
	axes := []struct {
		v    vec
		name string
	}{
		{vec{0, 1}, "up"},
		{vec{0, -1}, "down"},
		{vec{1, 0}, "left"},
		{vec{-1, 0}, "right"},
	}
	for _, a := range axes {
		if angleDeg(vm, a.v) < e.opt.DirectionAngleThreshold {
			return e.emitDirection(a.name, l)
		}
	}
	return nil
}

func (e *Engine) emitDirection(name string, l float64) error {
	dev := e.pool.At(0)
	switch name {
	case "up":
		n := e.opt.ScrollAmount.Eval(map[string]float64{"l": l})
		return dev.Scroll(n, false)
	case "down":
		n := e.opt.ScrollAmount.Eval(map[string]float64{"l": l})
		return dev.Scroll(-n, false)
	case "left":
		if e.opt.EnableHorizontalScroll {
			n := e.opt.HorScrollAmount.Eval(map[string]float64{"l": l})
			return dev.Scroll(-n, true)
		}
		if err := dev.Press(evdev.KEY_LEFT, 1); err != nil {
			return err
		}
		return dev.Release(evdev.KEY_LEFT)
	case "right":
		if e.opt.EnableHorizontalScroll {
			n := e.opt.HorScrollAmount.Eval(map[string]float64{"l": l})
			return dev.Scroll(n, true)
		}
		if err := dev.Press(evdev.KEY_RIGHT, 1); err != nil {
			return err
		}
		return dev.Release(evdev.KEY_RIGHT)
	}
	return nil
}

// passThrough replays any buffered hold-frames (retroactively reclassified
// as a drag once DRAG mode was set) and then forwards f itself: every
// active contact gets a live move+press, every inactive one a release.
func (e *Engine) passThrough(f decoder.Frame) error {
	if len(e.buffer) > 0 {
		buffered := e.buffer
		e.buffer = nil
		for _, bf := range buffered {
			if err := e.forward(bf); err != nil {
				return err
			}
		}
	}
	return e.forward(f)
}

func (e *Engine) forward(f decoder.Frame) error {
	screen := e.opt.Screen
	n := e.pool.Size()
	if len(f.Active) < n {
		n = len(f.Active)
	}
	for i := 0; i < n; i++ {
		dev := e.pool.At(i)
		if f.Active[i] {
			p := f.AbsXY(i, screen)
			if err := dev.Move(p.X, p.Y); err != nil {
				return err
			}
			if err := dev.Press(0, 1); err != nil {
				return err
			}
			continue
		}
		if err := dev.Release(0); err != nil {
			return err
		}
	}
	return nil
}
