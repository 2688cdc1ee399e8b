// Package project reads and writes the human-editable project file.
package project

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/demoseq/internal/logging"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/timeline"
)

var (
	// ErrSchemaMismatch marks a diagnostic for a schema, group or property
	// name the registry does not know. The clip or property is dropped.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInvalidValue marks a diagnostic for a value that does not fit its
	// property. The schema default is used instead.
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidClip marks a diagnostic for a clip that cannot be placed.
	ErrInvalidClip = errors.New("invalid clip")

	// ErrUnsupportedVersion is returned for files written by a newer layout.
	ErrUnsupportedVersion = errors.New("unsupported project version")
)

// Project is a named timeline.
type Project struct {
	ID       uuid.UUID
	Name     string
	Timeline *timeline.Timeline
}

// New creates an empty project with a fresh id.
func New(name string, duration int) *Project {
	return &Project{
		ID:       uuid.New(),
		Name:     name,
		Timeline: timeline.New(duration),
	}
}

// Result is a loaded project plus everything that had to be dropped or
// replaced to load it.
type Result struct {
	Project     *Project
	Diagnostics []error
}

// Load reads the project at path. Mismatches against reg are reported in
// Result.Diagnostics and logged; only unreadable files fail.
func Load(path string, reg *schema.Registry) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("project: read %s: %w", path, err)
	}
	res, err := Parse(data, reg)
	if err != nil {
		return nil, fmt.Errorf("project: %s: %w", path, err)
	}

	log := logging.Logger()
	for _, d := range res.Diagnostics {
		log.Warn("project load", "path", path, "problem", d)
	}
	return res, nil
}

// Parse decodes a project file.
func Parse(data []byte, reg *schema.Registry) (*Result, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}

	id := uuid.New()
	if f.ID != "" {
		parsed, err := uuid.Parse(f.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid project id %q: %w", f.ID, err)
		}
		id = parsed
	}

	l := &loader{reg: reg, tl: timeline.New(f.Duration)}
	l.load(&f)
	return &Result{
		Project:     &Project{ID: id, Name: f.Name, Timeline: l.tl},
		Diagnostics: l.diags,
	}, nil
}

// Save writes p to path.
func Save(p *Project, path string) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("project: write %s: %w", path, err)
	}
	return nil
}

// Marshal encodes p in the project file layout.
func Marshal(p *Project) ([]byte, error) {
	data, err := yaml.Marshal(toFile(p))
	if err != nil {
		return nil, fmt.Errorf("project: marshal: %w", err)
	}
	return data, nil
}
