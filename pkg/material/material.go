// Package material defines the opaque material handles the geometry refers
// to and the provider interface that supplies them. Compositions live with
// the transport solver; the geometry only needs unique names and a colour
// for plots.
package material

import (
	"fmt"

	"github.com/chazu/msbr/pkg/errors"
)

// Names the core geometry looks up.
const (
	Graphite = "graphite"
	Salt     = "salt"
)

// Material is an opaque material handle.
type Material struct {
	Name    string  `json:"name" toml:"name" yaml:"name"`
	Density float64 `json:"density,omitempty" toml:"density" yaml:"density"` // g/cm3, advisory
	Color   string  `json:"color,omitempty" toml:"color" yaml:"color"`       // plot colour, "#rrggbb"
}

func (m *Material) String() string {
	return m.Name
}

// Provider supplies the ordered material definitions for a build.
type Provider interface {
	DefineMaterials() ([]*Material, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() ([]*Material, error)

// DefineMaterials calls f.
func (f ProviderFunc) DefineMaterials() ([]*Material, error) {
	return f()
}

// Static is a Provider over a fixed list.
type Static []Material

// DefineMaterials returns fresh copies of the listed materials, so callers
// never share handles across builds.
func (s Static) DefineMaterials() ([]*Material, error) {
	out := make([]*Material, len(s))
	for i := range s {
		m := s[i]
		out[i] = &m
	}
	return out, nil
}

// MSBR returns the provider for the two materials of the stringer lattice.
func MSBR() Provider {
	return Static{
		{Name: Graphite, Density: 1.84, Color: "#4A4A4A"},
		{Name: Salt, Density: 3.35, Color: "#E67E22"},
	}
}

// Library is the name → Material mapping derived from a provider.
type Library struct {
	ordered []*Material
	byName  map[string]*Material
}

// NewLibrary indexes mats by name. Names must be non-empty and unique.
func NewLibrary(mats []*Material) (*Library, error) {
	lib := &Library{
		ordered: make([]*Material, 0, len(mats)),
		byName:  make(map[string]*Material, len(mats)),
	}
	for i, m := range mats {
		if m == nil || m.Name == "" {
			return nil, errors.New(errors.ErrCodeConfiguration, "material %d has no name", i)
		}
		if _, dup := lib.byName[m.Name]; dup {
			return nil, errors.New(errors.ErrCodeConfiguration, "material %q defined more than once", m.Name)
		}
		lib.byName[m.Name] = m
		lib.ordered = append(lib.ordered, m)
	}
	return lib, nil
}

// Load asks p for its materials and indexes them.
func Load(p Provider) (*Library, error) {
	if p == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "no materials provider")
	}
	mats, err := p.DefineMaterials()
	if err != nil {
		return nil, fmt.Errorf("define materials: %w", err)
	}
	return NewLibrary(mats)
}

// Lookup returns the material with the given name.
func (l *Library) Lookup(name string) (*Material, error) {
	m, ok := l.byName[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeMissingMaterial, "no material named %q", name)
	}
	return m, nil
}

// All returns the materials in definition order.
func (l *Library) All() []*Material {
	out := make([]*Material, len(l.ordered))
	copy(out, l.ordered)
	return out
}

// Len returns the number of materials.
func (l *Library) Len() int {
	return len(l.ordered)
}
