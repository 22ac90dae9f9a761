package store

import (
	"context"
	"fmt"
	"sync"

	"planner/internal/model"
)

// Memory keeps records in process. Records are returned in insertion order
// and dates are compared as "YYYY-MM-DD" strings, like the SQL store does.
type Memory struct {
	mu           sync.RWMutex
	sessions     []model.Session
	appointments []model.Appointment
	callbacks    []model.Callback
	blocks       []model.PlanningBlock
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ListSessions(_ context.Context, from, to model.Date) ([]model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Session
	for _, r := range m.sessions {
		end := r.EndDate
		if end == "" {
			end = r.StartDate
		}
		if r.StartDate <= to.String() && end >= from.String() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) ListAppointments(_ context.Context, from, to model.Date) ([]model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Appointment
	for _, r := range m.appointments {
		if inSpan(r.Date, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) ListCallbacks(_ context.Context, from, to model.Date) ([]model.Callback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Callback
	for _, r := range m.callbacks {
		if inSpan(r.Date, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) ListPlanningBlocks(_ context.Context, ownerID string, from, to model.Date) ([]model.PlanningBlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.PlanningBlock
	for _, r := range m.blocks {
		if ownerID != "" && r.OwnerID != ownerID {
			continue
		}
		if inSpan(r.Date, from, to) || (r.RRule != "" && r.Date <= to.String()) {
			out = append(out, r)
		}
	}
	return out, nil
}

func inSpan(date string, from, to model.Date) bool {
	return date >= from.String() && date <= to.String()
}

func (m *Memory) UpdateAppointmentDate(_ context.Context, id string, date model.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.appointments {
		if m.appointments[i].ID == id {
			m.appointments[i].Date = date.String()
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) UpdateCallbackDate(_ context.Context, id string, date model.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.callbacks {
		if m.callbacks[i].ID == id {
			m.callbacks[i].Date = date.String()
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) UpdatePlanningBlockDate(_ context.Context, id string, date model.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.blocks {
		if m.blocks[i].ID == id {
			m.blocks[i].Date = date.String()
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) CreatePlanningBlock(_ context.Context, b model.PlanningBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.blocks {
		if r.ID == b.ID {
			return fmt.Errorf("planning block %s already exists", b.ID)
		}
	}
	m.blocks = append(m.blocks, b)
	return nil
}

func (m *Memory) DeletePlanningBlock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.blocks {
		if m.blocks[i].ID == id {
			m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) InsertSession(_ context.Context, r model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, r)
	return nil
}

func (m *Memory) InsertAppointment(_ context.Context, r model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments = append(m.appointments, r)
	return nil
}

func (m *Memory) InsertCallback(_ context.Context, r model.Callback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, r)
	return nil
}

// Callback returns a copy of the stored callback with the given ID.
func (m *Memory) Callback(id string) (model.Callback, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.callbacks {
		if r.ID == id {
			return r, true
		}
	}
	return model.Callback{}, false
}

// Blocks returns a copy of all stored planning blocks.
func (m *Memory) Blocks() []model.PlanningBlock {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.PlanningBlock(nil), m.blocks...)
}
