package schema

import (
	"fmt"
	"strings"

	"github.com/ivlev/demoseq/internal/property"
)

// MaxSchemas is the number of schemas the binary format can index; 0xFF is
// reserved to mark animation clips.
const MaxSchemas = 0xFF

// Generator is a procedural visual generator instance. Update receives the
// clip-local frame and the resolved values, one slice per schema group.
type Generator interface {
	Update(localTime int, props [][]property.Value)
}

// Constructor creates a fresh generator instance.
type Constructor func() Generator

// Property is a named, typed parameter.
type Property struct {
	Name string
	Type property.Type
}

// Group bundles properties for editing.
type Group struct {
	Name       string
	Properties []Property
}

// Schema describes a generator: its name, how to build it and its
// parameter groups.
type Schema struct {
	Name   string
	New    Constructor
	Groups []Group

	index int
}

// Index returns the schema's position in its registry.
func (s *Schema) Index() int {
	return s.index
}

// Property returns the property at (group, prop).
func (s *Schema) Property(group, prop int) (Property, bool) {
	if group < 0 || group >= len(s.Groups) {
		return Property{}, false
	}
	props := s.Groups[group].Properties
	if prop < 0 || prop >= len(props) {
		return Property{}, false
	}
	return props[prop], true
}

// GroupIndex finds a group by name, case-insensitively.
func (s *Schema) GroupIndex(name string) (int, bool) {
	for i, g := range s.Groups {
		if strings.EqualFold(g.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// PropertyIndex finds a property by name within a group, case-insensitively.
func (s *Schema) PropertyIndex(group int, name string) (int, bool) {
	if group < 0 || group >= len(s.Groups) {
		return 0, false
	}
	for i, p := range s.Groups[group].Properties {
		if strings.EqualFold(p.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// Registry is the immutable set of generator schemas known to the process.
// It is built once at startup and passed to every component that needs it.
type Registry struct {
	schemas []*Schema
	index   map[string]*Schema
}

// NewRegistry validates and indexes schemas. Order is significant: a
// schema's position is its index in the binary format.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	if len(schemas) > MaxSchemas {
		return nil, fmt.Errorf("too many schemas: %d (max %d)", len(schemas), MaxSchemas)
	}

	r := &Registry{
		schemas: make([]*Schema, 0, len(schemas)),
		index:   make(map[string]*Schema, len(schemas)),
	}
	for i := range schemas {
		s := schemas[i]
		if err := validateSchema(&s); err != nil {
			return nil, err
		}
		key := strings.ToLower(s.Name)
		if _, exists := r.index[key]; exists {
			return nil, fmt.Errorf("duplicate schema name: %s", s.Name)
		}
		s.index = i
		r.schemas = append(r.schemas, &s)
		r.index[key] = &s
	}
	return r, nil
}

func validateSchema(s *Schema) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("schema name is required")
	}
	if s.New == nil {
		return fmt.Errorf("schema %s has no constructor", s.Name)
	}

	groups := make(map[string]struct{})
	for i, g := range s.Groups {
		name := strings.ToLower(strings.TrimSpace(g.Name))
		if name == "" {
			return fmt.Errorf("schema %s group %d name is required", s.Name, i)
		}
		if _, exists := groups[name]; exists {
			return fmt.Errorf("schema %s has duplicate group: %s", s.Name, g.Name)
		}
		groups[name] = struct{}{}

		props := make(map[string]struct{})
		for _, p := range g.Properties {
			pname := strings.ToLower(strings.TrimSpace(p.Name))
			if pname == "" {
				return fmt.Errorf("schema %s group %s has property with empty name", s.Name, g.Name)
			}
			if _, exists := props[pname]; exists {
				return fmt.Errorf("schema %s group %s has duplicate property: %s", s.Name, g.Name, p.Name)
			}
			props[pname] = struct{}{}
			if !p.Type.Valid() {
				return fmt.Errorf("schema %s property %s has invalid type", s.Name, p.Name)
			}
		}
	}
	return nil
}

// ByName looks a schema up case-insensitively.
func (r *Registry) ByName(name string) (*Schema, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.index[strings.ToLower(name)]
	return s, ok
}

// ByIndex returns the schema at position i.
func (r *Registry) ByIndex(i int) (*Schema, bool) {
	if r == nil || i < 0 || i >= len(r.schemas) {
		return nil, false
	}
	return r.schemas[i], true
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.schemas)
}

// All returns the schemas in registry order.
func (r *Registry) All() []*Schema {
	if r == nil {
		return nil
	}
	return append([]*Schema(nil), r.schemas...)
}
