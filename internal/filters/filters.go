package filters

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
)

var (
	ErrUnknownKind = errors.New("unknown filter kind")
	ErrAbstract    = errors.New("abstract filter kind cannot be built")
)

// Filter is an opaque transform over a raster. Implementations never modify src.
type Filter interface {
	Apply(src *image.NRGBA) *image.NRGBA
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(src *image.NRGBA) *image.NRGBA

func (f FilterFunc) Apply(src *image.NRGBA) *image.NRGBA { return f(src) }

// Instance is a concrete (type, parameter values) pair attached to one image.
type Instance struct {
	Type   string `json:"type"`
	Params Params `json:"params,omitempty"`
}

func NewInstance(typ string, params Params) *Instance {
	return &Instance{Type: typ, Params: params.Clone()}
}

func (in *Instance) Clone() *Instance {
	if in == nil {
		return nil
	}
	return &Instance{Type: in.Type, Params: in.Params.Clone()}
}

// Kind describes one buildable filter implementation. Defaults holds the values
// the implementation falls back to when a parameter is absent; parameters with no
// entry have no built-in default.
type Kind struct {
	Name     string
	Defaults Params
	New      func(p Params) (Filter, error)
}

// Set is a catalog of filter constructors keyed by kind name.
type Set struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

func NewSet(kinds ...Kind) *Set {
	s := &Set{kinds: make(map[string]Kind, len(kinds))}
	for _, k := range kinds {
		s.Register(k)
	}
	return s
}

func (s *Set) Register(k Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds[k.Name] = k
}

func (s *Set) Lookup(name string) (Kind, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.kinds[name]
	return k, ok
}

// Names returns every registered kind name in alphabetical order.
func (s *Set) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.kinds))
	for name := range s.kinds {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Build constructs the live filter for in. Parameters missing from in fall back
// to the kind's built-in defaults.
func (s *Set) Build(in *Instance) (Filter, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: nil instance", ErrUnknownKind)
	}
	k, ok := s.Lookup(in.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, in.Type)
	}
	if k.New == nil {
		return nil, fmt.Errorf("%w: %s", ErrAbstract, in.Type)
	}
	params := k.Defaults.Clone()
	for key, v := range in.Params {
		params[key] = v
	}
	f, err := k.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s filter: %w", in.Type, err)
	}
	return f, nil
}

// Chain applies filters in order. A nil result from a filter leaves the previous
// raster in place.
func Chain(src *image.NRGBA, fs ...Filter) *image.NRGBA {
	out := src
	for _, f := range fs {
		if f == nil {
			continue
		}
		if next := f.Apply(out); next != nil {
			out = next
		}
	}
	return out
}
