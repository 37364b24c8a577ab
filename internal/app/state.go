// Package app provides the application state: the open document, its
// calibration, and the committed measurements, with change events for the
// UI and external persistence.
package app

import (
	"sync"

	"blueprint-measure/internal/calibration"
	"blueprint-measure/internal/measure"
)

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventPageChanged
	EventCalibrationChanged
	EventMeasurementAdded
	EventMeasurementRemoved
	EventMeasurementsRecomputed
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the application state for one open document.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Modified    bool

	// Document pages (image file paths, one per page)
	PagePaths []string
	Page      int

	// Calibration for the current document
	Calibration *calibration.Store

	// Committed measurements, in creation order
	measurements []measure.Measurement

	// Event listeners
	listeners map[EventType][]EventListener
}

// NewState creates a new, empty application state.
func NewState() *State {
	return &State{
		Calibration: calibration.NewStore(),
		listeners:   make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// Measurements returns a copy of the committed measurements.
func (s *State) Measurements() []measure.Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]measure.Measurement, len(s.measurements))
	copy(out, s.measurements)
	return out
}

// AddMeasurement commits a measurement. The record is usable locally
// immediately; persistence happens on the next project save.
func (s *State) AddMeasurement(m measure.Measurement) {
	s.mu.Lock()
	s.measurements = append(s.measurements, m)
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventMeasurementAdded, m)
}

// RemoveMeasurement deletes a measurement by ID. Returns false if no
// measurement with that ID exists.
func (s *State) RemoveMeasurement(id string) bool {
	s.mu.Lock()
	found := false
	for i, m := range s.measurements {
		if m.ID == id {
			s.measurements = append(s.measurements[:i], s.measurements[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.SetModified(true)
		s.Emit(EventMeasurementRemoved, id)
	}
	return found
}

// ReplaceMeasurement swaps a measurement wholesale, matching by ID.
// Measurements are never mutated in place.
func (s *State) ReplaceMeasurement(m measure.Measurement) bool {
	s.mu.Lock()
	found := false
	for i := range s.measurements {
		if s.measurements[i].ID == m.ID {
			s.measurements[i] = m
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.SetModified(true)
	}
	return found
}

// ApplyCalibration installs a new calibration record and recomputes the
// value of every committed measurement from its stored document-space
// points. The calibration store only guarantees the new ratio; owning the
// recompute is this layer's job because the measurements live here.
func (s *State) ApplyCalibration(rec calibration.Record) error {
	if err := s.Calibration.Set(rec); err != nil {
		return err
	}
	s.recomputeAll()

	s.SetModified(true)
	s.Emit(EventCalibrationChanged, rec)
	return nil
}

func (s *State) recomputeAll() {
	ratio, unit, _ := s.Calibration.RatioOrDefault()

	s.mu.Lock()
	for i := range s.measurements {
		s.measurements[i] = s.measurements[i].Recompute(ratio, unit)
	}
	s.mu.Unlock()

	s.Emit(EventMeasurementsRecomputed, nil)
}

// SetPage records the active page index.
func (s *State) SetPage(page int) {
	s.mu.Lock()
	changed := s.Page != page
	s.Page = page
	s.mu.Unlock()

	if changed {
		s.Emit(EventPageChanged, page)
	}
}
