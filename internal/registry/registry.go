package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/imamik/funcanvas/internal/filters"
)

var ErrUnknownFilterType = errors.New("unknown filter type")

// Registry is the catalog of selectable filter types together with the
// parameter values used when a filter of each type is newly created. One
// registry is built at startup and passed to everything that creates filters.
type Registry struct {
	set      *filters.Set
	logger   *slog.Logger
	types    []string
	schemas  map[string]Schema
	mu       sync.RWMutex
	defaults map[string]filters.Params
}

type Option func(*Registry)

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithControls replaces the parameter schema table.
func WithControls(controls map[string]Schema) Option {
	return func(r *Registry) { r.schemas = controls }
}

// New builds the catalog from every kind in set, leaving out the denylist.
func New(set *filters.Set, opts ...Option) *Registry {
	r := &Registry{
		set:      set,
		logger:   slog.New(slog.DiscardHandler),
		schemas:  Controls,
		defaults: make(map[string]filters.Params),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, name := range set.Names() {
		if Denylist[name] {
			continue
		}
		kind, _ := set.Lookup(name)
		settings := filters.Params{}
		for _, p := range r.schemas[name] {
			settings[p.Name] = seed(p, kind.Defaults)
		}
		r.types = append(r.types, name)
		r.defaults[name] = settings
	}
	r.logger.Debug("filter registry ready", "types", len(r.types))
	return r
}

// Set returns the implementation set used to build live filters.
func (r *Registry) Set() *filters.Set {
	return r.set
}

// Types returns the selectable filter types in alphabetical order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.types...)
}

func (r *Registry) Has(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defaults[typ]
	return ok
}

func (r *Registry) Schema(typ string) (Schema, error) {
	if !r.Has(typ) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilterType, typ)
	}
	return append(Schema(nil), r.schemas[typ]...), nil
}

// Defaults returns a copy of the current default parameters for typ.
func (r *Registry) Defaults(typ string) (filters.Params, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defaults[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilterType, typ)
	}
	return d.Clone(), nil
}

// SetDefault overwrites one default parameter. Unknown types are ignored.
// Filters that already exist keep their own values.
func (r *Registry) SetDefault(typ, param string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defaults[typ]
	if !ok {
		return
	}
	d[param] = value
}

// Instantiate creates a new filter instance seeded from the current defaults.
func (r *Registry) Instantiate(typ string) (*filters.Instance, error) {
	d, err := r.Defaults(typ)
	if err != nil {
		return nil, err
	}
	return &filters.Instance{Type: typ, Params: d}, nil
}

// CollectRequested turns a flat bag of input values into the filters to apply
// to a new image. A type is requested when its name is a key with a truthy
// value. Keys named after a parameter, either bare or as Type_param, override
// the stored default. A bare key applies to every requested type with that
// parameter; Type_param targets one type and wins over the bare key. The
// result follows registry order, not bag order.
func (r *Registry) CollectRequested(bag map[string]any) []*filters.Instance {
	var out []*filters.Instance
	for _, typ := range r.types {
		if !truthy(bag[typ]) {
			continue
		}
		in, err := r.Instantiate(typ)
		if err != nil {
			continue
		}
		for param := range in.Params {
			if v, ok := bag[param]; ok {
				in.Params[param] = v
			}
			if v, ok := bag[typ+"_"+param]; ok {
				in.Params[param] = v
			}
		}
		out = append(out, in)
	}
	return out
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != "" && !strings.EqualFold(b, "false") && b != "0"
	case float64:
		return b != 0
	case int:
		return b != 0
	}
	return true
}
