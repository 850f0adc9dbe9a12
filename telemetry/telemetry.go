// Package telemetry publishes diagnostic key/value pairs. Publishing is one way: nothing in the
// control path reads a value back, and a failing sink never reaches the caller.
package telemetry

import (
	"reflect"
	"sync"

	"github.com/team302/mechcore/logging"
)

// A Sink accepts values grouped by table (usually the mechanism name).
type Sink interface {
	Publish(table, key string, value interface{})
}

// Noop discards everything.
type Noop struct{}

// Publish implements Sink.
func (Noop) Publish(string, string, interface{}) {}

// Table binds a sink to one table. The zero Table discards.
type Table struct {
	Sink Sink
	Name string
}

// NewTable returns a Table publishing to sink under name.
func NewTable(sink Sink, name string) Table {
	return Table{Sink: sink, Name: name}
}

// Publish sends key=value to the table. A panicking sink drops the value; wrap the sink in a
// Multi to have the failure logged.
func (t Table) Publish(key string, value interface{}) {
	if t.Sink == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	t.Sink.Publish(t.Name, key, value)
}

// Multi fans out to several sinks. A sink that panics is logged once and skipped for that value.
type Multi struct {
	sinks  []Sink
	logger logging.Logger

	mu     sync.Mutex
	failed map[int]bool
}

// NewMulti returns a fan-out sink. Nil sinks are dropped.
func NewMulti(logger logging.Logger, sinks ...Sink) *Multi {
	m := &Multi{logger: logger, failed: map[int]bool{}}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Publish implements Sink.
func (m *Multi) Publish(table, key string, value interface{}) {
	for i, s := range m.sinks {
		m.publishOne(i, s, table, key, value)
	}
}

func (m *Multi) publishOne(i int, s Sink, table, key string, value interface{}) {
	defer func() {
		if r := recover(); r != nil {
			m.mu.Lock()
			first := !m.failed[i]
			m.failed[i] = true
			m.mu.Unlock()
			if first && m.logger != nil {
				m.logger.Warnw("telemetry sink panicked", "sink", i, "table", table, "key", key, "panic", r)
			}
		}
	}()
	s.Publish(table, key, value)
}

// AsFloat converts numeric and boolean values to float64.
func AsFloat(value interface{}) (float64, bool) {
	if value == nil {
		return 0, false
	}
	v := reflect.ValueOf(value)
	//nolint:exhaustive
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}
