package gesture

import (
	"fmt"
	"time"

	"github.com/ep12/pytouchd/internal/config"
	"github.com/ep12/pytouchd/internal/decoder"
	"github.com/ep12/pytouchd/internal/units"
)

// Options holds every tunable the engine reads from touchd.ini, resolved to
// the Go types the engine operates on (durations, pixels, parsed formulas)
// so Handle never touches raw config.Value during recognition.
type Options struct {
	Screen decoder.Size

	DragDistPX int

	SglClickTime    time.Duration
	DblClickTime    time.Duration
	LongClickTime   time.Duration
	RightClickDelay time.Duration
	GestureDeadTime time.Duration

	PinchAngleThreshold     float64
	ParallelAngleThreshold  float64
	DirectionAngleThreshold float64

	PinchToZoomClicks config.Formula
	ScrollAmount      config.Formula
	HorScrollAmount   config.Formula
	MoveGesture       config.Formula

	HoldForRightClick      bool
	PinchToZoom            bool
	Live                   bool
	ZoomModeCtrlPlusMinus  bool
	EnableHorizontalScroll bool
}

// BuildOptions resolves an engine Options from cfg, given the panel's
// physical size and the screen's pixel resolution.
//
// enhSglClick and enhDblClick may be present in cfg for compatibility with
// the original configuration file, but BuildOptions does not read them: the
// recognition algorithm below runs the double-click and long-click checks
// unconditionally rather than gating them behind those flags. See DESIGN.md.
func BuildOptions(cfg *config.Config, screen decoder.Size) (Options, error) {
	get := func(name string) config.Value {
		v, err := cfg.Get(name)
		if err != nil {
			v = cfg.GetSection("default", name)
		}
		return v
	}

	devWStr := get("devW").String("16cm")
	devHStr := get("devH").String("9cm")
	resolverSeed, err := units.NewResolver(160, 90, screen.W, screen.H)
	if err != nil {
		return Options{}, fmt.Errorf("gesture: %w", err)
	}
	devWMM, err := resolverSeed.Millimeters(devWStr)
	if err != nil {
		return Options{}, fmt.Errorf("gesture: devW: %w", err)
	}
	devHMM, err := resolverSeed.Millimeters(devHStr)
	if err != nil {
		return Options{}, fmt.Errorf("gesture: devH: %w", err)
	}
	resolver, err := units.NewResolver(devWMM, devHMM, screen.W, screen.H)
	if err != nil {
		return Options{}, fmt.Errorf("gesture: %w", err)
	}

	dragDist, err := resolver.Pixels(get("dragDist").String("30px"))
	if err != nil {
		return Options{}, fmt.Errorf("gesture: dragDist: %w", err)
	}

	parseFormula := func(name, fallback string) (config.Formula, error) {
		raw := get(name).String(fallback)
		f, err := config.ParseFormula(raw)
		if err != nil {
			return config.Formula{}, fmt.Errorf("gesture: %s: %w", name, err)
		}
		return f, nil
	}

	pinchFormula, err := parseFormula("pinchToZoomClicksFormula", "1")
	if err != nil {
		return Options{}, err
	}
	scrollFormula, err := parseFormula("scrollAmountFormula", "l/10")
	if err != nil {
		return Options{}, err
	}
	horScrollFormula, err := parseFormula("horScrollAmountFormula", "l/15")
	if err != nil {
		return Options{}, err
	}
	moveFormula, err := parseFormula("moveGestureFormula", "l/10")
	if err != nil {
		return Options{}, err
	}

	return Options{
		Screen:     screen,
		DragDistPX: dragDist,

		SglClickTime:    time.Duration(get("sglClickTime").Float(0.2) * float64(time.Second)),
		DblClickTime:    time.Duration(get("dblClickTime").Float(0.4) * float64(time.Second)),
		LongClickTime:   time.Duration(get("longClickTime").Float(0.5) * float64(time.Second)),
		RightClickDelay: time.Duration(get("rightClickDelay").Float(0.4) * float64(time.Second)),
		GestureDeadTime: time.Duration(get("gestureDeadTime").Float(0.1) * float64(time.Second)),

		PinchAngleThreshold:     get("pinchAngleThreshold").Float(30),
		ParallelAngleThreshold:  get("parallelAngleThreshold").Float(30),
		DirectionAngleThreshold: get("directionAngleThreshold").Float(15),

		PinchToZoomClicks: pinchFormula,
		ScrollAmount:      scrollFormula,
		HorScrollAmount:   horScrollFormula,
		MoveGesture:       moveFormula,

		HoldForRightClick:      get("holdForRightClick").Bool(false),
		PinchToZoom:            get("pinchToZoom").Bool(false),
		Live:                   get("live").Bool(false),
		ZoomModeCtrlPlusMinus:  get("zoomModeCtrlPlusMinus").Bool(true),
		EnableHorizontalScroll: get("enableHorizontalScroll").Bool(true),
	}, nil
}
