package gesture

import (
	"math"

	"github.com/ep12/pytouchd/internal/decoder"
)

// vec is a 2-D displacement or position. It is small enough, and used in
// few enough places, to inline here rather than pull in a vector library;
// see DESIGN.md.
type vec struct{ X, Y float64 }

func vecFromPoint(p decoder.Point) vec { return vec{X: float64(p.X), Y: float64(p.Y)} }

func (v vec) Add(o vec) vec   { return vec{v.X + o.X, v.Y + o.Y} }
func (v vec) Sub(o vec) vec   { return vec{v.X - o.X, v.Y - o.Y} }
func (v vec) Scale(s float64) vec { return vec{v.X * s, v.Y * s} }
func (v vec) Length() float64 { return math.Hypot(v.X, v.Y) }
func (v vec) IsNull() bool    { return v.X == 0 && v.Y == 0 }

func (v vec) Round() (x, y int) {
	return int(math.Round(v.X)), int(math.Round(v.Y))
}

// angleDeg returns the angle between a and b in degrees, in [0, 180]. A
// null vector on either side is undefined and returns 0; callers must
// guard against null vectors before relying on the result.
func angleDeg(a, b vec) float64 {
	denom := a.Length() * b.Length()
	if denom == 0 {
		return 0
	}
	cos := (a.X*b.X + a.Y*b.Y) / denom
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}
