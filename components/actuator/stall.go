package actuator

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
)

// StallConfig tunes stall detection. Zero fields take the defaults below.
type StallConfig struct {
	// MinOutput is the smallest commanded magnitude that can stall.
	MinOutput float64 `json:"min_output,omitempty" mapstructure:"min_output"`
	// MaxVelocity is the largest windowed mean speed, in counts per second, that counts as stopped.
	MaxVelocity float64 `json:"max_velocity,omitempty" mapstructure:"max_velocity"`
	// DurationSec is how long the stopped condition must hold.
	DurationSec float64 `json:"duration_sec,omitempty" mapstructure:"duration_sec"`
	// Window is the number of velocity samples averaged.
	Window int `json:"window,omitempty" mapstructure:"window"`
}

const (
	defaultStallMinOutput   = 0.1
	defaultStallMaxVelocity = 10.0
	defaultStallDuration    = 250 * time.Millisecond
	defaultStallWindow      = 5
)

func (cfg StallConfig) withDefaults() StallConfig {
	if cfg.MinOutput == 0 {
		cfg.MinOutput = defaultStallMinOutput
	}
	if cfg.MaxVelocity == 0 {
		cfg.MaxVelocity = defaultStallMaxVelocity
	}
	if cfg.DurationSec == 0 {
		cfg.DurationSec = defaultStallDuration.Seconds()
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultStallWindow
	}
	return cfg
}

// StallDetector flags an actuator that is commanded to move but whose sensor is not changing.
// Samples come from Observe, once per control period.
type StallDetector struct {
	cfg   StallConfig
	clock clock.Clock

	primed     bool
	lastCounts float64
	lastTime   time.Time
	speeds     []float64

	stopped      bool
	stoppedSince time.Time
}

// NewStallDetector returns a detector reading time from clk.
func NewStallDetector(cfg StallConfig, clk clock.Clock) *StallDetector {
	if clk == nil {
		clk = clock.New()
	}
	cfg = cfg.withDefaults()
	return &StallDetector{cfg: cfg, clock: clk, speeds: make([]float64, 0, cfg.Window)}
}

// Observe records the commanded output and the sensor reading for this period.
func (d *StallDetector) Observe(output, counts float64) {
	now := d.clock.Now()
	if d.primed {
		if dt := now.Sub(d.lastTime).Seconds(); dt > 0 {
			if len(d.speeds) == d.cfg.Window {
				d.speeds = d.speeds[1:]
			}
			d.speeds = append(d.speeds, math.Abs(counts-d.lastCounts)/dt)
		}
	}
	d.primed = true
	d.lastCounts = counts
	d.lastTime = now

	if math.Abs(output) < d.cfg.MinOutput || len(d.speeds) < d.cfg.Window {
		d.stopped = false
		return
	}
	mean, err := stats.Mean(d.speeds)
	if err != nil || mean > d.cfg.MaxVelocity {
		d.stopped = false
		return
	}
	if !d.stopped {
		d.stopped = true
		d.stoppedSince = now
	}
}

// Stalled reports whether the stopped-under-load condition has held for the configured duration.
func (d *StallDetector) Stalled() bool {
	if !d.stopped {
		return false
	}
	return d.clock.Since(d.stoppedSince).Seconds() >= d.cfg.DurationSec
}

// Reset drops the sample history, e.g. after the sensor position was overwritten.
func (d *StallDetector) Reset() {
	d.primed = false
	d.speeds = d.speeds[:0]
	d.stopped = false
}
