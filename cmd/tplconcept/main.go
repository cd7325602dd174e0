// Command tplconcept renders a template through one engine's evaluate path,
// merge path, or both, and prints the result.
//
//	tplconcept --engine gotext --mode both --inline 'Hello {{ .user }}!' --context ctx.yaml
//	tplconcept -e pongo2 -m merge -t greeting.html -c ctx.json --sanitize
//	tplconcept -i 'Hello {{ user }} from {{ site }}' --global site=Docs
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-tplconcept/internal/contextfile"
	"github.com/goliatone/go-tplconcept/pkg/render"
	"github.com/goliatone/go-tplconcept/pkg/render/template"
	"github.com/goliatone/go-tplconcept/pkg/render/template/pongo"
)

type options struct {
	engine      string
	mode        string
	template    string
	inline      string
	context     string
	globals     map[string]string
	sanitize    bool
	autoescape  bool
	strict      bool
	interactive bool
}

func main() {
	logger := log.New(os.Stderr, "tplconcept: ", 0)

	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		logger.Fatalf("%v", err)
	}

	if opts.interactive {
		if err := prompt(&opts); err != nil {
			logger.Fatalf("prompt: %v", err)
		}
	}

	output, err := run(opts, logger)
	if err != nil {
		logger.Fatalf("render failed: %v", err)
	}
	fmt.Print(output)
}

func parseFlags(args []string) (options, error) {
	opts := options{}

	flagSet := pflag.NewFlagSet("tplconcept", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.engine, "engine", "e", pongo.EngineName, "template engine (pongo2, gotext)")
	flagSet.StringVarP(&opts.mode, "mode", "m", "evaluate", "render path (evaluate, merge, both)")
	flagSet.StringVarP(&opts.template, "template", "t", "", "template file")
	flagSet.StringVarP(&opts.inline, "inline", "i", "", "inline template content")
	flagSet.StringVarP(&opts.context, "context", "c", "", "JSON or YAML context file")
	flagSet.StringToStringVarP(&opts.globals, "global", "g", nil, "global template value as key=value (repeatable)")
	flagSet.BoolVar(&opts.sanitize, "sanitize", false, "strip HTML from pongo2 output")
	flagSet.BoolVar(&opts.autoescape, "autoescape", false, "HTML-escape pongo2 variable output")
	flagSet.BoolVar(&opts.strict, "strict", false, "fail gotext renders on missing keys")
	flagSet.BoolVar(&opts.interactive, "interactive", false, "prompt for missing inputs")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", extra[0])
	}
	return opts, nil
}

func run(opts options, logger *log.Logger) (string, error) {
	ctx := template.NewContext()
	if opts.context != "" {
		loaded, err := contextfile.Load(opts.context)
		if err != nil {
			return "", err
		}
		ctx = loaded
	}

	content, dir, name, cleanup, err := templateSource(opts)
	if err != nil {
		return "", err
	}
	defer cleanup()

	cfg := render.EngineConfig{
		BaseDir:    dir,
		Extension:  filepath.Ext(name),
		Globals:    make(map[string]any, len(opts.globals)),
		Logger:     logger,
		Autoescape: opts.autoescape,
		Strict:     opts.strict,
	}
	for key, value := range opts.globals {
		cfg.Globals[key] = value
	}
	if opts.sanitize {
		cfg.Sanitizer = bluemonday.StrictPolicy()
	}

	registry, err := render.NewEngines(cfg)
	if err != nil {
		return "", err
	}
	engine, err := registry.Get(opts.engine)
	if err != nil {
		return "", err
	}

	switch opts.mode {
	case "evaluate":
		return render.EvaluateString(engine, ctx, name, content)
	case "merge":
		return render.MergeTemplate(engine, ctx, name)
	case "both":
		return render.RenderBoth(engine, ctx, name, content)
	default:
		return "", fmt.Errorf("unknown mode %q", opts.mode)
	}
}

// templateSource resolves the template content plus the directory and file
// name the merge path loads it from. Inline templates are written to a
// temporary directory that cleanup removes.
func templateSource(opts options) (content, dir, name string, cleanup func(), err error) {
	cleanup = func() {}

	if path := strings.TrimSpace(opts.template); path != "" {
		if filepath.Ext(path) == "" {
			return "", "", "", cleanup, fmt.Errorf("template file %q needs an extension", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", "", cleanup, fmt.Errorf("read template: %w", err)
		}
		return string(data), filepath.Dir(path), filepath.Base(path), cleanup, nil
	}

	if opts.inline == "" {
		return "", "", "", cleanup, fmt.Errorf("either --template or --inline is required")
	}

	dir, err = os.MkdirTemp("", "tplconcept-")
	if err != nil {
		return "", "", "", cleanup, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	name = "template.tmp"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(opts.inline), 0o644); err != nil {
		cleanup()
		return "", "", "", func() {}, fmt.Errorf("write temp template: %w", err)
	}
	return opts.inline, dir, name, cleanup, nil
}

func prompt(opts *options) error {
	if opts.template == "" && opts.inline == "" {
		if err := survey.AskOne(&survey.Input{
			Message: "Template:",
			Help:    "Inline template, e.g. Hello {{ user }}!",
		}, &opts.inline, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}
	if opts.context == "" {
		if err := survey.AskOne(&survey.Input{
			Message: "Context file (JSON or YAML, blank for none):",
		}, &opts.context); err != nil {
			return err
		}
	}
	return survey.AskOne(&survey.Select{
		Message: "Render path:",
		Options: []string{"evaluate", "merge", "both"},
		Default: opts.mode,
	}, &opts.mode)
}
