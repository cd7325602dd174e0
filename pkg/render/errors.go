package render

import "fmt"

// MismatchError reports an engine whose Evaluate and Merge paths rendered
// the same template differently.
type MismatchError struct {
	Engine    string
	Template  string
	Evaluated string
	Merged    string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("render: %s rendered %q differently: evaluate=%q merge=%q",
		e.Engine, e.Template, e.Evaluated, e.Merged)
}
