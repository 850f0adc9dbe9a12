package telemetry

import (
	"reflect"
	"sync"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/team302/mechcore/logging"
)

// DefaultLogRate is how many changed values per second LogSink writes.
const DefaultLogRate = 50

// LogSink writes a debug line whenever a key changes value. Writes beyond the rate limit are
// dropped rather than queued.
type LogSink struct {
	logger  logging.Logger
	clock   clock.Clock
	limiter *rate.Limiter

	mu   sync.Mutex
	last map[string]interface{}
}

// NewLogSink returns a LogSink allowing perSecond lines per second of clk time; zero means
// DefaultLogRate. A nil clk is the wall clock.
func NewLogSink(logger logging.Logger, clk clock.Clock, perSecond float64) *LogSink {
	if perSecond <= 0 {
		perSecond = DefaultLogRate
	}
	if clk == nil {
		clk = clock.New()
	}
	return &LogSink{
		logger:  logger,
		clock:   clk,
		limiter: rate.NewLimiter(rate.Limit(perSecond), int(perSecond)),
		last:    map[string]interface{}{},
	}
}

// Publish implements Sink.
func (l *LogSink) Publish(table, key string, value interface{}) {
	id := table + "/" + key
	l.mu.Lock()
	prev, seen := l.last[id]
	changed := !seen || !reflect.DeepEqual(prev, value)
	if changed {
		l.last[id] = value
	}
	l.mu.Unlock()

	if !changed || !l.limiter.AllowN(l.clock.Now(), 1) {
		return
	}
	l.logger.Debugw("telemetry", "table", table, "key", key, "value", value)
}
