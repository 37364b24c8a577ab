package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"blueprint-measure/internal/calibration"
	"blueprint-measure/internal/measure"
)

// ProjectFile represents the JSON structure of a .bmproj file.
type ProjectFile struct {
	Version  int       `json:"version"`
	Name     string    `json:"name,omitempty"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Page image paths, relative to the project file, one per page
	PagePaths []string `json:"pages"`
	Page      int      `json:"page,omitempty"`

	Calibration  *calibration.Record   `json:"calibration,omitempty"`
	Measurements []measure.Measurement `json:"measurements,omitempty"`
}

// LoadProject loads a project from the specified path.
func (s *State) LoadProject(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var proj ProjectFile
	if err := json.Unmarshal(data, &proj); err != nil {
		return fmt.Errorf("app: parse project %s: %w", path, err)
	}

	projectDir := filepath.Dir(path)
	pages := make([]string, len(proj.PagePaths))
	for i, rel := range proj.PagePaths {
		pages[i] = filepath.Join(projectDir, rel)
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.PagePaths = pages
	s.Page = proj.Page
	s.measurements = append(s.measurements[:0], proj.Measurements...)
	s.mu.Unlock()

	if proj.Calibration != nil {
		if err := s.Calibration.Set(*proj.Calibration); err != nil {
			return err
		}
	} else {
		s.Calibration.Clear()
	}

	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject saves the project to the specified path.
func (s *State) SaveProject(path string) error {
	projectDir := filepath.Dir(path)

	s.mu.RLock()
	proj := ProjectFile{
		Version:      1,
		Modified:     time.Now(),
		Page:         s.Page,
		Measurements: append([]measure.Measurement(nil), s.measurements...),
	}
	for _, page := range s.PagePaths {
		rel, err := filepath.Rel(projectDir, page)
		if err != nil {
			rel = page
		}
		proj.PagePaths = append(proj.PagePaths, rel)
	}
	s.mu.RUnlock()

	if rec, ok := s.Calibration.Record(); ok {
		proj.Calibration = &rec
	}

	data, err := json.MarshalIndent(proj, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectSaved, path)
	return nil
}
