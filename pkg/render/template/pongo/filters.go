package pongo

import (
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-tplconcept/pkg/render/template"
)

var helpersOnce sync.Once

// registerHelpers exposes template.StringHelpers as pongo2 filters. pongo2
// keeps filters in a process-wide table, so this runs once and never replaces
// a filter registered elsewhere.
func registerHelpers() {
	helpersOnce.Do(func() {
		for name, fn := range template.StringHelpers() {
			if pongo2.FilterExists(name) {
				continue
			}
			_ = pongo2.RegisterFilter(name, stringFilter(fn))
		}
	})
}

func stringFilter(fn func(string) string) pongo2.FilterFunction {
	return func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		if in.IsNil() {
			return pongo2.AsValue(""), nil
		}
		return pongo2.AsValue(fn(in.String())), nil
	}
}
