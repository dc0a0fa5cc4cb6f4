package registry

import (
	"sync"

	"github.com/appzem/alarm-engine/internal/domain/alarm"
)

// Registry is the in-memory set of alarms the scheduler watches.
// It is the sole owner of the records; readers receive copies.
type Registry struct {
	// mu protects order and byID.
	mu sync.RWMutex
	// order holds alarm ids in insertion order.
	order []string
	// byID maps alarm id to the owned record.
	byID map[string]*alarm.Alarm
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byID: make(map[string]*alarm.Alarm),
	}
}

// List returns copies of all alarms in insertion order.
func (r *Registry) List() []alarm.Alarm {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]alarm.Alarm, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, *r.byID[id])
	}

	return result
}

// Get returns a copy of the alarm with the given id.
func (r *Registry) Get(id string) (alarm.Alarm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return alarm.Alarm{}, false
	}

	return *a, true
}

// Upsert validates the alarm, then replaces the record with the same id
// (keeping its position) or appends a new one. A malformed alarm is rejected
// and the registry is left unchanged.
func (r *Registry) Upsert(a alarm.Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; !ok {
		r.order = append(r.order, a.ID)
	}

	r.byID[a.ID] = a.Clone()

	return nil
}

// Remove deletes the alarm with the given id. Unknown ids are a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return
	}

	delete(r.byID, id)

	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// SetActive toggles scheduling for the alarm with the given id.
// Returns false when the id is unknown.
func (r *Registry) SetActive(id string, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return false
	}

	a.Active = active

	return true
}

// Len returns the number of alarms held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}
