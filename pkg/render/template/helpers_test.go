package template_test

import (
	"testing"

	"github.com/goliatone/go-tplconcept/pkg/render/template"
)

func TestLowerFirst(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Hello":         "hello",
		"  Hello World": "  hello World",
		"Érable":        "érable",
		"   ":           "   ",
		"":              "",
	}
	for in, want := range cases {
		if got := template.LowerFirst(in); got != want {
			t.Fatalf("LowerFirst(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStringHelpers(t *testing.T) {
	t.Parallel()

	helpers := template.StringHelpers()
	if got := helpers["trim"]("  Ada "); got != "Ada" {
		t.Fatalf("trim: %q", got)
	}
	if got := helpers["lowerfirst"]("Ada"); got != "ada" {
		t.Fatalf("lowerfirst: %q", got)
	}
}
