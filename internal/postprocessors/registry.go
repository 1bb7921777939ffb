package postprocessors

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Options are the settings of one processor, read from the config store.
type Options map[string]any

// Int reads key as an int. TOML yields int64 and JSON float64.
func (o Options) Int(key string) (int, bool) {
	switch v := o[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Builder makes a processor from its options.
type Builder func(Options) (driven.PostProcessor, error)

// Registry maps processor names to builders.
type Registry map[string]Builder

// Names returns the registered names in order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Pipeline builds the named processors, in the given order, each from its
// own entry in opts. Every unknown or failing name is reported.
func (r Registry) Pipeline(names []string, opts map[string]Options) (*Pipeline, error) {
	stages := make([]driven.PostProcessor, 0, len(names))
	var errs []error
	for _, name := range names {
		build, ok := r[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown processor %q (have %s)", name, strings.Join(r.Names(), ", ")))
			continue
		}
		p, err := build(opts[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("processor %s: %w", name, err))
			continue
		}
		stages = append(stages, p)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return NewPipeline(stages...), nil
}
