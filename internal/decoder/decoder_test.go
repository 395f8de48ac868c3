package decoder

import "testing"

func feedAll(d *Decoder, bytes []byte) (Frame, bool) {
	var f Frame
	var ok bool
	for _, b := range bytes {
		f, ok = d.Feed(b)
	}
	return f, ok
}

// TestCalibrationScenario feeds the very first frame on the wire, with bpc
// and num_points unknown going in, and checks that it calibrates correctly.
func TestCalibrationScenario(t *testing.T) {
	d := New()
	bytes := []byte{0xAA, 0x01, 0x00, 0x01, 0x00, 0x02, 0xBB, 0x01, 0xCC, 0x00}
	f, ok := feedAll(d, bytes)
	if !ok {
		t.Fatalf("expected a complete frame after %d bytes", len(bytes))
	}
	if f.BytesPerCoord != 2 {
		t.Errorf("bpc = %d, want 2", f.BytesPerCoord)
	}
	if !f.AbsoluteMode {
		t.Errorf("absolute_mode = false, want true")
	}
	if !f.Pressed {
		t.Errorf("pressed = false, want true")
	}
	if len(f.Active) != 1 || !f.Active[0] {
		t.Errorf("active = %v, want [true]", f.Active)
	}
	want := Point{X: 2, Y: 1}
	if len(f.RawCoords) != 1 || f.RawCoords[0] != want {
		t.Errorf("raw_coords = %v, want [%v]", f.RawCoords, want)
	}
}

// TestZeroLineRelease calibrates at bpc=1, num_points=5, then feeds a frame
// using the all-zero release shorthand instead of the normal 0xCC terminator.
func TestZeroLineRelease(t *testing.T) {
	d := New()
	calibration := []byte{
		0xAA, 0x01, 0x00, 0x00, 0xBB, 0x1F,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xCC, 0x00,
	}
	if _, ok := feedAll(d, calibration); !ok {
		t.Fatalf("calibration frame did not complete")
	}
	frameLen, ok := d.FrameLength()
	if !ok || frameLen != 15 {
		t.Fatalf("FrameLength() = (%d, %v), want (15, true)", frameLen, ok)
	}

	zeroLine := []byte{
		0xAA, 0x00, 0x00, 0x00, 0xBB,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	f, ok := feedAll(d, zeroLine)
	if !ok {
		t.Fatalf("zero-line frame did not complete")
	}
	if f.Pressed {
		t.Errorf("pressed = true, want false")
	}
	if len(f.Active) != 5 {
		t.Fatalf("len(active) = %d, want 5", len(f.Active))
	}
	for i, a := range f.Active {
		if a {
			t.Errorf("active[%d] = true, want false", i)
		}
	}
	if len(f.RawCoords) != 5 {
		t.Fatalf("len(raw_coords) = %d, want 5", len(f.RawCoords))
	}
	for i, p := range f.RawCoords {
		if p != (Point{}) {
			t.Errorf("raw_coords[%d] = %v, want (0,0)", i, p)
		}
	}
}

// TestFrameInvariant checks that every produced frame satisfies
// len(active) == len(raw_coords) == num_points and active_count is in
// bounds, for the calibration frame from TestCalibrationScenario.
func TestFrameInvariant(t *testing.T) {
	d := New()
	bytes := []byte{0xAA, 0x01, 0x00, 0x01, 0x00, 0x02, 0xBB, 0x01, 0xCC, 0x00}
	f, ok := feedAll(d, bytes)
	if !ok {
		t.Fatal("expected a complete frame")
	}
	if len(f.Active) != len(f.RawCoords) {
		t.Errorf("len(active)=%d != len(raw_coords)=%d", len(f.Active), len(f.RawCoords))
	}
	if n := f.ActiveCount(); n < 0 || n > len(f.RawCoords) {
		t.Errorf("active_count=%d out of bounds [0,%d]", n, len(f.RawCoords))
	}
}

// TestStableCalibration checks that num_points, bpc and absolute_mode do
// not change once a second frame of the same configuration arrives.
func TestStableCalibration(t *testing.T) {
	d := New()
	first := []byte{0xAA, 0x01, 0x00, 0x01, 0x00, 0x02, 0xBB, 0x01, 0xCC, 0x00}
	f1, ok := feedAll(d, first)
	if !ok {
		t.Fatal("first frame did not complete")
	}
	second := []byte{0xAA, 0x01, 0x00, 0x03, 0x00, 0x04, 0xBB, 0x01, 0xCC, 0x00}
	f2, ok := feedAll(d, second)
	if !ok {
		t.Fatal("second frame did not complete")
	}
	if f1.BytesPerCoord != f2.BytesPerCoord {
		t.Errorf("bpc changed: %d -> %d", f1.BytesPerCoord, f2.BytesPerCoord)
	}
	if f1.AbsoluteMode != f2.AbsoluteMode {
		t.Errorf("absolute_mode changed: %v -> %v", f1.AbsoluteMode, f2.AbsoluteMode)
	}
	if len(f1.RawCoords) != len(f2.RawCoords) {
		t.Errorf("num_points changed: %d -> %d", len(f1.RawCoords), len(f2.RawCoords))
	}
}

// TestDesyncResync checks that a garbage byte before a valid start marker
// is dropped rather than wedging the decoder.
func TestDesyncResync(t *testing.T) {
	d := New()
	bytes := []byte{0x7F, 0x7F, 0xAA, 0x01, 0x00, 0x01, 0x00, 0x02, 0xBB, 0x01, 0xCC, 0x00}
	f, ok := feedAll(d, bytes)
	if !ok {
		t.Fatal("expected the decoder to resync and still complete a frame")
	}
	if f.RawCoords[0] != (Point{X: 2, Y: 1}) {
		t.Errorf("raw_coords[0] = %v, want (2,1)", f.RawCoords[0])
	}
}
