package pongo_test

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-tplconcept/pkg/render/template"
	"github.com/goliatone/go-tplconcept/pkg/render/template/pongo"
	"github.com/goliatone/go-tplconcept/pkg/testsupport"
)

func TestEngine_EvaluateScenarios(t *testing.T) {
	for _, sc := range testsupport.Scenarios() {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			t.Parallel()

			engine := newEngine(t, t.TempDir())

			var buf bytes.Buffer
			if err := engine.Evaluate(sc.Context(), &buf, "test", sc.Pongo); err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if got := buf.String(); got != sc.Want {
				t.Fatalf("evaluate mismatch\nwant: %q\n got: %q", sc.Want, got)
			}
		})
	}
}

func TestEngine_MergeScenarios(t *testing.T) {
	for _, sc := range testsupport.Scenarios() {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			testsupport.WriteTemplateFixture(t, dir, "template.tpl", sc.Pongo)
			engine := newEngine(t, dir)

			tmpl, err := engine.GetTemplate("template")
			if err != nil {
				t.Fatalf("get template: %v", err)
			}
			if tmpl.Name() != "template.tpl" {
				t.Fatalf("expected extension to be appended, got %q", tmpl.Name())
			}

			var buf bytes.Buffer
			if err := tmpl.Merge(sc.Context(), &buf); err != nil {
				t.Fatalf("merge: %v", err)
			}
			if got := buf.String(); got != sc.Want {
				t.Fatalf("merge mismatch\nwant: %q\n got: %q", sc.Want, got)
			}
		})
	}
}

func TestEngine_ChainedContextFallsBackToInner(t *testing.T) {
	engine := newEngine(t, t.TempDir())

	inner := template.NewContext()
	inner.Put("greeting", "Hello")
	inner.Put("user", "shadowed")

	ctx := template.NewChainedContext(inner)
	ctx.Put("user", "John Doe")

	var buf bytes.Buffer
	if err := engine.Evaluate(ctx, &buf, "chain", "{{ greeting }} {{ user }}!"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got, want := buf.String(), "Hello John Doe!"; got != want {
		t.Fatalf("chained context mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEngine_GetTemplateFromFS(t *testing.T) {
	files := fstest.MapFS{
		"greeting.tpl": &fstest.MapFile{Data: []byte("Hi {{ user.name }}")},
	}
	engine, err := pongo.New(pongo.WithFS(files))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	ctx := template.NewContext()
	ctx.Put("user", testsupport.NewUser("Ada"))

	if got := merge(t, engine, "greeting", ctx); got != "Hi Ada" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_InvalidateReloadsTemplate(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteTemplateFixture(t, dir, "template.tpl", "Hi {{ user }}")
	engine := newEngine(t, dir)

	ctx := template.NewContext()
	ctx.Put("user", "Ada")

	render := func() string {
		t.Helper()
		tmpl, err := engine.GetTemplate("template.tpl")
		if err != nil {
			t.Fatalf("get template: %v", err)
		}
		var buf bytes.Buffer
		if err := tmpl.Merge(ctx, &buf); err != nil {
			t.Fatalf("merge: %v", err)
		}
		return buf.String()
	}

	if got := render(); got != "Hi Ada" {
		t.Fatalf("first render: %q", got)
	}

	testsupport.WriteTemplateFixture(t, dir, "template.tpl", "Bye {{ user }}")
	if got := render(); got != "Hi Ada" {
		t.Fatalf("expected cached template before invalidation, got %q", got)
	}

	engine.Invalidate("template")
	if got := render(); got != "Bye Ada" {
		t.Fatalf("expected reloaded template, got %q", got)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine, err := pongo.New(
		pongo.WithBaseDir(t.TempDir()),
		pongo.WithGlobalData(map[string]any{"site": "Docs", "user": "global"}),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	ctx := template.NewContext()
	ctx.Put("user", "Ada")

	var buf bytes.Buffer
	if err := engine.Evaluate(ctx, &buf, "globals", "{{ site }}/{{ settings.env }}/{{ user }}"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got, want := buf.String(), "Docs/staging/Ada"; got != want {
		t.Fatalf("globals mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEngine_StringHelperFilters(t *testing.T) {
	engine := newEngine(t, t.TempDir())

	ctx := template.NewContext()
	ctx.Put("name", "  Ada  ")
	ctx.Put("title", "  Hello World")

	var buf bytes.Buffer
	if err := engine.Evaluate(ctx, &buf, "filters", "[{{ name|trim }}] {{ title|lowerfirst }}"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if want := "[Ada]   hello World"; buf.String() != want {
		t.Fatalf("filter mismatch\nwant: %q\n got: %q", want, buf.String())
	}
}

func TestEngine_AutoescapeIsOffByDefault(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteTemplateFixture(t, dir, "template.tpl", "Hello {{ user }}!")

	ctx := template.NewContext()
	ctx.Put("user", "Papa O'Doe & Sons")

	tests := []struct {
		name       string
		autoescape bool
		want       string
	}{
		{name: "default", want: "Hello Papa O'Doe & Sons!"},
		{name: "enabled", autoescape: true, want: "Hello Papa O&#39;Doe &amp; Sons!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := []pongo.Option{pongo.WithBaseDir(dir)}
			if tt.autoescape {
				options = append(options, pongo.WithAutoescape(true))
			}
			engine, err := pongo.New(options...)
			if err != nil {
				t.Fatalf("new engine: %v", err)
			}

			var buf bytes.Buffer
			if err := engine.Evaluate(ctx, &buf, "escape", "Hello {{ user }}!"); err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Fatalf("evaluate mismatch\nwant: %q\n got: %q", tt.want, got)
			}
			if got := merge(t, engine, "template", ctx); got != tt.want {
				t.Fatalf("merge mismatch\nwant: %q\n got: %q", tt.want, got)
			}
		})
	}
}

func TestEngine_IntegersKeepPrecision(t *testing.T) {
	type member struct {
		Name string `json:"name"`
		ID   int64  `json:"id"`
	}

	dir := t.TempDir()
	content := "{{ user.id }} {{ ids.0 }} {{ ids.1 }}"
	testsupport.WriteTemplateFixture(t, dir, "numbers.tpl", content)
	engine := newEngine(t, dir)

	ctx := template.NewContext()
	ctx.Put("user", member{Name: "Ada", ID: 12345678})
	ctx.Put("ids", []int{1000000, 9007199254740993})

	want := "12345678 1000000 9007199254740993"

	var buf bytes.Buffer
	if err := engine.Evaluate(ctx, &buf, "numbers", content); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := buf.String(); got != want {
		t.Fatalf("evaluate mismatch\nwant: %q\n got: %q", want, got)
	}
	if got := merge(t, engine, "numbers", ctx); got != want {
		t.Fatalf("merge mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEngine_InvalidateKeepsOtherTemplates(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteTemplateFixture(t, dir, "a.tpl", "A1 {{ user }}")
	testsupport.WriteTemplateFixture(t, dir, "b.tpl", "B1 {{ user }}")
	engine := newEngine(t, dir)

	ctx := template.NewContext()
	ctx.Put("user", "Ada")

	merge(t, engine, "a", ctx)
	merge(t, engine, "b", ctx)

	testsupport.WriteTemplateFixture(t, dir, "a.tpl", "A2 {{ user }}")
	testsupport.WriteTemplateFixture(t, dir, "b.tpl", "B2 {{ user }}")

	engine.Invalidate("a")
	if got := merge(t, engine, "a", ctx); got != "A2 Ada" {
		t.Fatalf("expected a.tpl to reload, got %q", got)
	}
	if got := merge(t, engine, "b", ctx); got != "B1 Ada" {
		t.Fatalf("expected b.tpl to stay cached, got %q", got)
	}
}

func TestEngine_Sanitizer(t *testing.T) {
	engine, err := pongo.New(
		pongo.WithBaseDir(t.TempDir()),
		pongo.WithSanitizer(bluemonday.StrictPolicy()),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	ctx := template.NewContext()
	ctx.Put("user", "<b>Ada</b>")

	var buf bytes.Buffer
	if err := engine.Evaluate(ctx, &buf, "sanitize", "Hello {{ user|safe }}!"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := buf.String(); got != "Hello Ada!" {
		t.Fatalf("unexpected sanitized output %q", got)
	}
}

func TestEngine_EvaluateErrorsCarryLogTag(t *testing.T) {
	var logs bytes.Buffer
	engine, err := pongo.New(
		pongo.WithBaseDir(t.TempDir()),
		pongo.WithLogger(log.New(&logs, "", 0)),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	var buf bytes.Buffer
	err = engine.Evaluate(template.NewContext(), &buf, "greeting", "Hello {{ user ")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "greeting") {
		t.Fatalf("expected log tag in error, got %v", err)
	}
	if !strings.Contains(logs.String(), "[greeting]") {
		t.Fatalf("expected tagged log line, got %q", logs.String())
	}
}

func TestEngine_GetTemplateMissingFile(t *testing.T) {
	engine := newEngine(t, t.TempDir())

	if _, err := engine.GetTemplate("missing"); err == nil {
		t.Fatalf("expected missing template error")
	}
}

func TestNew_RequiresLoader(t *testing.T) {
	if _, err := pongo.New(); err == nil {
		t.Fatalf("expected error without base dir or fs")
	}
}

func merge(t *testing.T, engine *pongo.Engine, name string, ctx *template.Context) string {
	t.Helper()

	tmpl, err := engine.GetTemplate(name)
	if err != nil {
		t.Fatalf("get template %s: %v", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Merge(ctx, &buf); err != nil {
		t.Fatalf("merge %s: %v", name, err)
	}
	return buf.String()
}

func newEngine(t *testing.T, dir string) *pongo.Engine {
	t.Helper()

	engine, err := pongo.New(pongo.WithBaseDir(dir))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
