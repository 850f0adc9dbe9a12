package input

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"
)

var (
	_ Source = &Static{}
	_ Source = &Script{}
)

// Static is a Source whose values are set directly.
type Static struct {
	mu      sync.Mutex
	buttons map[Function]bool
	axes    map[Function]float64
}

// NewStatic returns a Static source with nothing pressed.
func NewStatic() *Static {
	return &Static{buttons: map[Function]bool{}, axes: map[Function]float64{}}
}

// SetButton sets whether fn is held.
func (s *Static) SetButton(fn Function, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons[fn] = pressed
}

// SetAxis sets the position of fn.
func (s *Static) SetAxis(fn Function, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.axes[fn] = value
}

// Reset releases everything.
func (s *Static) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons = map[Function]bool{}
	s.axes = map[Function]float64{}
}

// IsButtonPressed implements Source.
func (s *Static) IsButtonPressed(fn Function) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons[fn]
}

// AxisValue implements Source.
func (s *Static) AxisValue(fn Function) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.axes[fn]
}

// Frame is the complete operator input from AtSec seconds after the script starts until the
// next frame.
type Frame struct {
	AtSec   float64              `json:"at_sec" mapstructure:"at_sec"`
	Buttons []Function           `json:"buttons,omitempty" mapstructure:"buttons"`
	Axes    map[Function]float64 `json:"axes,omitempty" mapstructure:"axes"`
}

// Script replays recorded frames against a clock. Before the first frame nothing is pressed.
type Script struct {
	clock  clock.Clock
	start  time.Time
	frames []Frame
}

// NewScript returns a script that starts now.
func NewScript(frames []Frame, clk clock.Clock) *Script {
	if clk == nil {
		clk = clock.New()
	}
	sorted := append([]Frame(nil), frames...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AtSec < sorted[j].AtSec })
	return &Script{clock: clk, start: clk.Now(), frames: sorted}
}

// Restart plays the script from the beginning.
func (s *Script) Restart() {
	s.start = s.clock.Now()
}

// Done reports whether the last frame has been reached.
func (s *Script) Done() bool {
	if len(s.frames) == 0 {
		return true
	}
	return s.elapsed() >= s.frames[len(s.frames)-1].AtSec
}

func (s *Script) elapsed() float64 {
	return s.clock.Since(s.start).Seconds()
}

func (s *Script) current() (Frame, bool) {
	now := s.elapsed()
	var (
		frame Frame
		found bool
	)
	for _, f := range s.frames {
		if f.AtSec > now {
			break
		}
		frame, found = f, true
	}
	return frame, found
}

// IsButtonPressed implements Source.
func (s *Script) IsButtonPressed(fn Function) bool {
	frame, ok := s.current()
	if !ok {
		return false
	}
	return lo.Contains(frame.Buttons, fn)
}

// AxisValue implements Source.
func (s *Script) AxisValue(fn Function) float64 {
	frame, ok := s.current()
	if !ok {
		return 0
	}
	return frame.Axes[fn]
}
