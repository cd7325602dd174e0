package template

import (
	"io"
)

// Evaluator is the contract every engine adapter satisfies. Evaluate renders
// an inline template string; GetTemplate compiles a named template file so it
// can be merged with a context later.
type Evaluator interface {
	Name() string
	Evaluate(ctx *Context, out io.Writer, logTag, templateContent string) error
	GetTemplate(name string) (Template, error)
}

// Template is a compiled template ready to be merged with a context.
type Template interface {
	Name() string
	Merge(ctx *Context, out io.Writer) error
}
