// Package gotext adapts text/template to the template.Evaluator contract.
//
// Variables resolve with Go template paths:
//
//	Hello {{ .user }}!
//	Hello {{ index .user 0 }}!
//	Hello {{ (index .user 0).name }}!
//	Hello {{ .account.user.name }}!
package gotext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/goliatone/go-tplconcept/pkg/render/template"
)

// EngineName is the registry name of the text/template engine.
const EngineName = "gotext"

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
	extension string
	funcs     texttemplate.FuncMap
	strict    bool
	globals   map[string]any
	logger    *log.Logger
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS. It takes precedence over WithBaseDir.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the default ".tmpl" extension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithFuncs adds template functions. They replace the built-in trim and
// lowerfirst helpers when the names collide.
func WithFuncs(funcs texttemplate.FuncMap) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.funcs == nil {
			cfg.funcs = make(texttemplate.FuncMap, len(funcs))
		}
		for name, fn := range funcs {
			cfg.funcs[strings.TrimSpace(name)] = fn
		}
	}
}

// WithStrict makes references to missing keys fail instead of rendering
// "<no value>".
func WithStrict(strict bool) Option {
	return func(cfg *config) {
		cfg.strict = strict
	}
}

// WithGlobalData seeds values visible to every template. Context values with
// the same key win.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		for key, value := range data {
			if cfg.globals == nil {
				cfg.globals = make(map[string]any, len(data))
			}
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// WithLogger logs render failures prefixed with the caller's log tag.
func WithLogger(logger *log.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// Engine renders text/template templates.
type Engine struct {
	mu sync.RWMutex

	files     fs.FS
	templates map[string]*texttemplate.Template
	tplExt    string
	funcs     texttemplate.FuncMap
	globals   map[string]any
	missing   string
	logger    *log.Logger
}

var _ template.Evaluator = (*Engine)(nil)

// New constructs an Engine. A base dir or fs.FS is required so GetTemplate
// has somewhere to load from.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		extension: ".tmpl",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	files := cfg.templates
	if files == nil {
		if cfg.baseDir == "" {
			return nil, errors.New("gotext: need to provide either base dir or fs.FS")
		}
		info, err := os.Stat(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("gotext: base dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("gotext: base dir %q is not a directory", cfg.baseDir)
		}
		files = os.DirFS(cfg.baseDir)
	}

	missing := "missingkey=default"
	if cfg.strict {
		missing = "missingkey=error"
	}

	funcs := texttemplate.FuncMap{}
	for name, fn := range template.StringHelpers() {
		funcs[name] = fn
	}
	for name, fn := range cfg.funcs {
		funcs[name] = fn
	}

	globals, err := template.Normalize(cfg.globals)
	if err != nil {
		return nil, fmt.Errorf("gotext: apply global data: %w", err)
	}

	return &Engine{
		files:     files,
		templates: make(map[string]*texttemplate.Template),
		tplExt:    cfg.extension,
		funcs:     funcs,
		globals:   globals,
		missing:   missing,
		logger:    cfg.logger,
	}, nil
}

// Name returns the registry name of the engine.
func (e *Engine) Name() string {
	return EngineName
}

// Evaluate parses templateContent under the log tag and renders it against
// ctx into out.
func (e *Engine) Evaluate(ctx *template.Context, out io.Writer, logTag, templateContent string) error {
	if e == nil {
		return errors.New("gotext: engine is nil")
	}
	tag := tagOrDefault(logTag)

	tmpl, err := e.parse(tag, templateContent)
	if err != nil {
		return e.fail(tag, fmt.Errorf("gotext: parse %s: %w", tag, err))
	}
	if err := e.execute(tmpl, ctx, out); err != nil {
		return e.fail(tag, fmt.Errorf("gotext: evaluate %s: %w", tag, err))
	}
	return nil
}

// GetTemplate loads and compiles the named template, appending the configured
// extension when missing. Compilations are cached until Invalidate.
func (e *Engine) GetTemplate(name string) (template.Template, error) {
	if e == nil {
		return nil, errors.New("gotext: engine is nil")
	}
	templatePath := e.templatePath(name)

	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return nil, e.fail(templatePath, err)
	}
	return &Template{engine: e, name: templatePath, tmpl: tmpl}, nil
}

// Invalidate drops the cached compilation of name.
func (e *Engine) Invalidate(name string) {
	if e == nil {
		return
	}
	templatePath := e.templatePath(name)

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.templates, templatePath)
}

func (e *Engine) getTemplate(path string) (*texttemplate.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}

	content, err := fs.ReadFile(e.files, path)
	if err != nil {
		return nil, fmt.Errorf("gotext: load template %q: %w", path, err)
	}
	tmpl, err := e.parse(path, string(content))
	if err != nil {
		return nil, fmt.Errorf("gotext: parse template %q: %w", path, err)
	}

	e.templates[path] = tmpl
	return tmpl, nil
}

func (e *Engine) parse(name, content string) (*texttemplate.Template, error) {
	return texttemplate.New(name).Option(e.missing).Funcs(e.funcs).Parse(content)
}

func (e *Engine) templatePath(name string) string {
	templatePath := strings.TrimPrefix(strings.TrimSpace(name), "/")
	if !strings.HasSuffix(templatePath, e.tplExt) {
		templatePath += e.tplExt
	}
	return templatePath
}

func (e *Engine) fail(logTag string, err error) error {
	if e.logger != nil {
		e.logger.Printf("[%s] %v", logTag, err)
	}
	return err
}

// Template is a compiled text/template bound to the engine that loaded it.
type Template struct {
	engine *Engine
	name   string
	tmpl   *texttemplate.Template
}

// Name returns the resolved template path, extension included.
func (t *Template) Name() string {
	return t.name
}

// Merge renders the template against ctx into out.
func (t *Template) Merge(ctx *template.Context, out io.Writer) error {
	if t == nil || t.tmpl == nil {
		return errors.New("gotext: template is nil")
	}
	if err := t.engine.execute(t.tmpl, ctx, out); err != nil {
		return t.engine.fail(t.name, fmt.Errorf("gotext: merge %q: %w", t.name, err))
	}
	return nil
}

// execute renders into a buffer so a failing template leaves out untouched.
func (e *Engine) execute(tmpl *texttemplate.Template, ctx *template.Context, out io.Writer) error {
	values, err := template.Normalize(ctx)
	if err != nil {
		return err
	}
	for key, value := range e.globals {
		if _, ok := values[key]; !ok {
			values[key] = value
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return err
	}
	_, err = buf.WriteTo(out)
	return err
}

func tagOrDefault(tag string) string {
	if trimmed := strings.TrimSpace(tag); trimmed != "" {
		return trimmed
	}
	return "template"
}
