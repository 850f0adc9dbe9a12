package telemetry

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

type entry struct {
	value interface{}
	count int
}

// Memory keeps the latest value of every key, for tests and the simulator's final report.
type Memory struct {
	mu     sync.Mutex
	tables map[string]map[string]*entry
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{tables: map[string]map[string]*entry{}}
}

// Publish implements Sink.
func (m *Memory) Publish(table, key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		t = map[string]*entry{}
		m.tables[table] = t
	}
	e, ok := t[key]
	if !ok {
		e = &entry{}
		t[key] = e
	}
	e.value = value
	e.count++
}

// Get returns the latest value published under table/key.
func (m *Memory) Get(table, key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.tables[table][key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Count returns how many times table/key was published.
func (m *Memory) Count(table, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.tables[table][key]; ok {
		return e.count
	}
	return 0
}

// Tables lists the tables seen, sorted.
func (m *Memory) Tables() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tables := lo.Keys(m.tables)
	sort.Strings(tables)
	return tables
}

// Keys lists the keys seen in table, sorted.
func (m *Memory) Keys(table string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := lo.Keys(m.tables[table])
	sort.Strings(keys)
	return keys
}

// Snapshot copies the latest values of table.
func (m *Memory) Snapshot(table string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.MapValues(m.tables[table], func(e *entry, _ string) interface{} { return e.value })
}
