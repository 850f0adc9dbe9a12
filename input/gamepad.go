package input

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

var _ Source = &Gamepad{}

// Gamepad turns a stream of physical control events into the latest value of each mapped
// Function.
type Gamepad struct {
	mu      sync.Mutex
	mapping map[ControlCode]Function
	buttons map[Function]bool
	axes    map[Function]float64
}

// NewGamepad returns a gamepad with every control released.
func NewGamepad(mapping map[ControlCode]Function) *Gamepad {
	m := make(map[ControlCode]Function, len(mapping))
	for code, fn := range mapping {
		m[code] = fn
	}
	return &Gamepad{
		mapping: m,
		buttons: map[Function]bool{},
		axes:    map[Function]float64{},
	}
}

// HandleEvent applies a single event. Events for unmapped controls are ignored, and a
// disconnect releases everything.
func (g *Gamepad) HandleEvent(event Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if event.Event == Disconnect {
		g.buttons = map[Function]bool{}
		g.axes = map[Function]float64{}
		return
	}
	fn, ok := g.mapping[event.Code]
	if !ok {
		return
	}
	switch event.Event {
	case ButtonDown:
		g.buttons[fn] = true
	case ButtonUp:
		g.buttons[fn] = false
	case ButtonChange:
		g.buttons[fn] = event.Value > 0.5
	case PositionChangeAbs:
		g.axes[fn] = clampAxis(event.Value)
	case All, Connect, Disconnect:
	}
}

// IsButtonPressed reports whether the button mapped to fn is held.
func (g *Gamepad) IsButtonPressed(fn Function) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buttons[fn]
}

// AxisValue returns the last position of the axis mapped to fn.
func (g *Gamepad) AxisValue(fn Function) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.axes[fn]
}

func clampAxis(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

var controlCodeNames = map[ControlCode]string{
	AbsoluteX:     "AbsoluteX",
	AbsoluteY:     "AbsoluteY",
	AbsoluteZ:     "AbsoluteZ",
	AbsoluteRX:    "AbsoluteRX",
	AbsoluteRY:    "AbsoluteRY",
	AbsoluteRZ:    "AbsoluteRZ",
	AbsoluteHat0X: "AbsoluteHat0X",
	AbsoluteHat0Y: "AbsoluteHat0Y",
	ButtonSouth:   "ButtonSouth",
	ButtonEast:    "ButtonEast",
	ButtonWest:    "ButtonWest",
	ButtonNorth:   "ButtonNorth",
	ButtonLT:      "ButtonLT",
	ButtonRT:      "ButtonRT",
	ButtonLThumb:  "ButtonLThumb",
	ButtonRThumb:  "ButtonRThumb",
	ButtonSelect:  "ButtonSelect",
	ButtonStart:   "ButtonStart",
	ButtonMenu:    "ButtonMenu",
}

func (code ControlCode) String() string {
	if name, ok := controlCodeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("ControlCode(%d)", uint32(code))
}

// ParseControlCode returns the control named name, e.g. "ButtonSouth".
func ParseControlCode(name string) (ControlCode, error) {
	code, ok := lo.FindKey(controlCodeNames, name)
	if !ok {
		return 0, errors.Errorf("unknown control %q", name)
	}
	return code, nil
}

var eventTypeNames = map[EventType]string{
	All:               "AllEvents",
	Connect:           "Connect",
	Disconnect:        "Disconnect",
	ButtonDown:        "ButtonDown",
	ButtonUp:          "ButtonUp",
	ButtonChange:      "ButtonChange",
	PositionChangeAbs: "PositionChangeAbs",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

// ParseEventType returns the event type named name, e.g. "ButtonDown".
func ParseEventType(name string) (EventType, error) {
	t, ok := lo.FindKey(eventTypeNames, name)
	if !ok {
		return 0, errors.Errorf("unknown event type %q", name)
	}
	return t, nil
}

// ParseMapping converts a control-name to Function mapping, as written in a robot description,
// into a Gamepad mapping. Every control and function must be known.
func ParseMapping(mapping map[string]Function) (map[ControlCode]Function, error) {
	parsed := make(map[ControlCode]Function, len(mapping))
	var err error
	for name, fn := range mapping {
		code, parseErr := ParseControlCode(name)
		if parseErr != nil {
			err = multierr.Append(err, parseErr)
			continue
		}
		if !fn.Known() {
			err = multierr.Append(err, errors.Errorf("control %s: unknown function %q", name, fn))
			continue
		}
		parsed[code] = fn
	}
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// TimedEvent is a control event at an offset from the start of a replay.
type TimedEvent struct {
	AtSec   float64 `json:"at_sec" mapstructure:"at_sec"`
	Event   string  `json:"event" mapstructure:"event"`
	Control string  `json:"control,omitempty" mapstructure:"control"`
	Value   float64 `json:"value,omitempty" mapstructure:"value"`
}

// Parse validates e and returns its offset and Event.
func (e TimedEvent) Parse() (time.Duration, Event, error) {
	if e.AtSec < 0 {
		return 0, Event{}, errors.New("at_sec must not be negative")
	}
	t, err := ParseEventType(e.Event)
	if err != nil {
		return 0, Event{}, err
	}
	var code ControlCode
	if t != Connect && t != Disconnect {
		if code, err = ParseControlCode(e.Control); err != nil {
			return 0, Event{}, err
		}
	}
	return time.Duration(e.AtSec * float64(time.Second)), Event{Event: t, Code: code, Value: e.Value}, nil
}

type scheduledEvent struct {
	at    time.Duration
	event Event
}

var _ Source = &Replay{}

// Replay feeds recorded control events into a Gamepad as clock time passes. Every read first
// applies the events that are due.
type Replay struct {
	mu     sync.Mutex
	pad    *Gamepad
	clock  clock.Clock
	start  time.Time
	events []scheduledEvent
	next   int
}

// NewReplay returns a replay into pad that starts now.
func NewReplay(pad *Gamepad, events []TimedEvent, clk clock.Clock) (*Replay, error) {
	if clk == nil {
		clk = clock.New()
	}
	scheduled := make([]scheduledEvent, 0, len(events))
	for i, e := range events {
		at, event, err := e.Parse()
		if err != nil {
			return nil, errors.Wrapf(err, "event %d", i)
		}
		scheduled = append(scheduled, scheduledEvent{at: at, event: event})
	}
	sort.SliceStable(scheduled, func(i, j int) bool { return scheduled[i].at < scheduled[j].at })
	return &Replay{pad: pad, clock: clk, start: clk.Now(), events: scheduled}, nil
}

// Gamepad returns the gamepad the replay drives.
func (r *Replay) Gamepad() *Gamepad {
	return r.pad
}

// Done reports whether every event has been applied.
func (r *Replay) Done() bool {
	r.advance()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next == len(r.events)
}

func (r *Replay) advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	elapsed := r.clock.Since(r.start)
	for r.next < len(r.events) && r.events[r.next].at <= elapsed {
		event := r.events[r.next].event
		event.Time = r.start.Add(r.events[r.next].at)
		r.pad.HandleEvent(event)
		r.next++
	}
}

// IsButtonPressed implements Source.
func (r *Replay) IsButtonPressed(fn Function) bool {
	r.advance()
	return r.pad.IsButtonPressed(fn)
}

// AxisValue implements Source.
func (r *Replay) AxisValue(fn Function) float64 {
	r.advance()
	return r.pad.AxisValue(fn)
}
