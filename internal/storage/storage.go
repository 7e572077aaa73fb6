// Package storage implements the Storage Manager: CRUD,
// querying, aggregation and pagination over one ServiceInstance's
// declared storage collections, each an ordered, append-preserving list
// of records.
package storage

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pocketbrain/wacore/internal/state"
)

// Manager operates on one (chat, service) ServiceInstance's storage.
// Every method is (chatId, service, storageName)-scoped by construction:
// callers obtain a Manager already bound to the right instance.
type Manager struct {
	instance *state.ServiceInstance
}

// For returns a Manager bound to instance.
func For(instance *state.ServiceInstance) *Manager {
	return &Manager{instance: instance}
}

func (m *Manager) collection(name string) []state.StorageRecord {
	return m.instance.Storage[name]
}

func (m *Manager) setCollection(name string, records []state.StorageRecord) {
	m.instance.Storage[name] = records
}

// Add assigns a unique id, appends a new record, and returns it.
func (m *Manager) Add(name string, fields map[string]any) state.StorageRecord {
	rec := state.StorageRecord{ID: uuid.NewString(), Fields: cloneFields(fields)}
	m.setCollection(name, append(m.collection(name), rec))
	return rec
}

// Get returns the record with the given id, if present.
func (m *Manager) Get(name, id string) (state.StorageRecord, bool) {
	for _, r := range m.collection(name) {
		if r.ID == id {
			return r, true
		}
	}
	return state.StorageRecord{}, false
}

// GetByIndex returns the record at 1-based position idx.
func (m *Manager) GetByIndex(name string, idx int) (state.StorageRecord, bool) {
	recs := m.collection(name)
	if idx < 1 || idx > len(recs) {
		return state.StorageRecord{}, false
	}
	return recs[idx-1], true
}

// Update shallow-merges patch into the record with the given id and
// returns the updated record.
func (m *Manager) Update(name, id string, patch map[string]any) (state.StorageRecord, bool) {
	recs := m.collection(name)
	for i, r := range recs {
		if r.ID == id {
			merged := mergeFields(r.Fields, patch)
			recs[i].Fields = merged
			return recs[i], true
		}
	}
	return state.StorageRecord{}, false
}

// UpdateByIndex shallow-merges patch into the record at 1-based position
// idx.
func (m *Manager) UpdateByIndex(name string, idx int, patch map[string]any) (state.StorageRecord, bool) {
	recs := m.collection(name)
	if idx < 1 || idx > len(recs) {
		return state.StorageRecord{}, false
	}
	recs[idx-1].Fields = mergeFields(recs[idx-1].Fields, patch)
	return recs[idx-1], true
}

// Delete removes the record with the given id, preserving the order of
// the rest, and reports whether anything was removed.
func (m *Manager) Delete(name, id string) bool {
	recs := m.collection(name)
	for i, r := range recs {
		if r.ID == id {
			m.setCollection(name, append(recs[:i:i], recs[i+1:]...))
			return true
		}
	}
	return false
}

// DeleteByIndex removes the record at 1-based position idx.
func (m *Manager) DeleteByIndex(name string, idx int) bool {
	recs := m.collection(name)
	if idx < 1 || idx > len(recs) {
		return false
	}
	i := idx - 1
	m.setCollection(name, append(recs[:i:i], recs[i+1:]...))
	return true
}

// Clear removes every record in the collection.
func (m *Manager) Clear(name string) {
	m.setCollection(name, nil)
}

// Query returns every record whose fields match filter by equality,
// preserving order.
func (m *Manager) Query(name string, filter map[string]any) []state.StorageRecord {
	var out []state.StorageRecord
	for _, r := range m.collection(name) {
		if matches(r, filter) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of records matching filter.
func (m *Manager) Count(name string, filter map[string]any) int {
	return len(m.Query(name, filter))
}

// Paginate returns page (1-based) of limit records, after an optional
// equality filter.
func (m *Manager) Paginate(name string, page, limit int, filter map[string]any) []state.StorageRecord {
	matched := m.Query(name, filter)
	if page < 1 || limit < 1 {
		return nil
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end]
}

// AggOp names an aggregation operator.
type AggOp string

const (
	AggSum   AggOp = "sum"
	AggAvg   AggOp = "avg"
	AggMin   AggOp = "min"
	AggMax   AggOp = "max"
	AggCount AggOp = "count"
)

// Aggregate computes op over field across records matching filter.
func (m *Manager) Aggregate(name, field string, op AggOp, filter map[string]any) (float64, error) {
	matched := m.Query(name, filter)
	if op == AggCount {
		return float64(len(matched)), nil
	}
	if len(matched) == 0 {
		return 0, nil
	}

	var sum float64
	min_, max_ := 0.0, 0.0
	for i, r := range matched {
		v, ok := numericField(r, field)
		if !ok {
			return 0, fmt.Errorf("storage: field %q of record %s is not numeric", field, r.ID)
		}
		sum += v
		if i == 0 || v < min_ {
			min_ = v
		}
		if i == 0 || v > max_ {
			max_ = v
		}
	}

	switch op {
	case AggSum:
		return sum, nil
	case AggAvg:
		return sum / float64(len(matched)), nil
	case AggMin:
		return min_, nil
	case AggMax:
		return max_, nil
	default:
		return 0, fmt.Errorf("storage: unknown aggregation %q", op)
	}
}

func numericField(r state.StorageRecord, field string) (float64, bool) {
	v, ok := r.Fields[field]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func matches(r state.StorageRecord, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := r.Fields[k]
		if !ok || !equalValue(got, want) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	return a == b
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func mergeFields(base, patch map[string]any) map[string]any {
	out := cloneFields(base)
	for k, v := range patch {
		out[k] = v
	}
	return out
}
