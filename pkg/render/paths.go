package render

import (
	"bytes"
	"fmt"

	"github.com/goliatone/go-tplconcept/pkg/render/template"
)

// EvaluateString renders inline content through engine.Evaluate.
func EvaluateString(engine template.Evaluator, ctx *template.Context, logTag, content string) (string, error) {
	if engine == nil {
		return "", fmt.Errorf("render: engine is required")
	}
	var buf bytes.Buffer
	if err := engine.Evaluate(ctx, &buf, logTag, content); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MergeTemplate compiles the named template and merges it with ctx.
func MergeTemplate(engine template.Evaluator, ctx *template.Context, name string) (string, error) {
	if engine == nil {
		return "", fmt.Errorf("render: engine is required")
	}
	tmpl, err := engine.GetTemplate(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Merge(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderBoth renders content through Evaluate and the named template (which
// must hold the same content) through Merge, failing with a MismatchError
// when the two paths disagree.
func RenderBoth(engine template.Evaluator, ctx *template.Context, name, content string) (string, error) {
	evaluated, err := EvaluateString(engine, ctx, name, content)
	if err != nil {
		return "", err
	}
	merged, err := MergeTemplate(engine, ctx, name)
	if err != nil {
		return "", err
	}
	if evaluated != merged {
		return "", &MismatchError{Engine: engine.Name(), Template: name, Evaluated: evaluated, Merged: merged}
	}
	return evaluated, nil
}
