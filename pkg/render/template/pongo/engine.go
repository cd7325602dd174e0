package pongo

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

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-tplconcept/pkg/render/template"
)

// EngineName is the registry name of the pongo2 engine.
const EngineName = "pongo2"

const (
	autoescapeOff = "{% autoescape off %}"
	autoescapeEnd = "{% endautoescape %}"
)

// Option configures the pongo2 engine before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	globals    map[string]any
	logger     *log.Logger
	sanitizer  *bluemonday.Policy
	autoescape bool
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS. The base dir, when set, is searched
// first.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the default ".tpl" extension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		if ext = strings.TrimSpace(ext); ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.extension = ext
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

// WithSanitizer runs rendered output through the policy before it reaches
// the writer.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		cfg.sanitizer = policy
	}
}

// WithAutoescape turns pongo2's HTML escaping of variable output on. It is
// off by default so values render verbatim, as text/template renders them.
func WithAutoescape(enabled bool) Option {
	return func(cfg *config) {
		cfg.autoescape = enabled
	}
}

// Engine renders pongo2 templates. Compiled file templates are cached per
// path until invalidated.
type Engine struct {
	set        *pongo2.TemplateSet
	sources    []fs.FS
	ext        string
	autoescape bool
	logger     *log.Logger
	sanitizer  *bluemonday.Policy

	mu       sync.RWMutex
	compiled map[string]*pongo2.Template
}

var _ template.Evaluator = (*Engine)(nil)

// New builds an Engine. A base dir or fs.FS is required so GetTemplate has
// somewhere to load from; the same sources back {% include %} lookups.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".tpl"}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("pongo: need to provide either base dir or fs.FS")
	}

	var (
		loaders []pongo2.TemplateLoader
		sources []fs.FS
	)
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
		sources = append(sources, os.DirFS(cfg.baseDir))
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
		sources = append(sources, cfg.templates)
	}

	registerHelpers()

	engine := &Engine{
		set:        pongo2.NewSet(EngineName, loaders...),
		sources:    sources,
		ext:        cfg.extension,
		autoescape: cfg.autoescape,
		logger:     cfg.logger,
		sanitizer:  cfg.sanitizer,
		compiled:   make(map[string]*pongo2.Template),
	}
	if err := engine.GlobalContext(cfg.globals); err != nil {
		return nil, fmt.Errorf("pongo: apply global data: %w", err)
	}
	return engine, nil
}

// Name returns the registry name of the engine.
func (e *Engine) Name() string {
	return EngineName
}

// Evaluate parses templateContent and renders it against ctx into out. The
// log tag names the evaluation in errors and logs.
func (e *Engine) Evaluate(ctx *template.Context, out io.Writer, logTag, templateContent string) error {
	if e == nil || e.set == nil {
		return errors.New("pongo: engine is nil")
	}
	tag := tagOrDefault(logTag)

	tmpl, err := e.set.FromString(e.source(templateContent))
	if err != nil {
		return e.fail(tag, fmt.Errorf("pongo: parse %s: %w", tag, err))
	}
	if err := e.execute(tmpl, ctx, out); err != nil {
		return e.fail(tag, fmt.Errorf("pongo: evaluate %s: %w", tag, err))
	}
	return nil
}

// GetTemplate loads and compiles the named template, appending the engine
// extension when missing.
func (e *Engine) GetTemplate(name string) (template.Template, error) {
	if e == nil || e.set == nil {
		return nil, errors.New("pongo: engine is nil")
	}
	path := e.templatePath(name)

	tmpl, err := e.compile(path)
	if err != nil {
		return nil, e.fail(path, err)
	}
	return &Template{engine: e, name: path, tmpl: tmpl}, nil
}

// Invalidate drops the cached compilation of name so the next GetTemplate
// reads the file again. Other cached templates are kept.
func (e *Engine) Invalidate(name string) {
	if e == nil {
		return
	}
	path := e.templatePath(name)

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.compiled, path)
}

// GlobalContext merges data into the globals visible to every template.
func (e *Engine) GlobalContext(data map[string]any) error {
	if e == nil || e.set == nil {
		return errors.New("pongo: engine is nil")
	}
	if len(data) == 0 {
		return nil
	}

	globals, err := template.Normalize(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = make(pongo2.Context, len(globals))
	}
	e.set.Globals.Update(pongo2.Context(globals))
	return nil
}

func (e *Engine) compile(path string) (*pongo2.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.compiled[path]; ok {
		return tmpl, nil
	}

	content, err := e.read(path)
	if err != nil {
		return nil, fmt.Errorf("pongo: load template %q: %w", path, err)
	}
	tmpl, err := e.set.FromBytes([]byte(e.source(string(content))))
	if err != nil {
		return nil, fmt.Errorf("pongo: parse template %q: %w", path, err)
	}
	e.compiled[path] = tmpl
	return tmpl, nil
}

func (e *Engine) read(path string) ([]byte, error) {
	var firstErr error
	for _, files := range e.sources {
		content, err := fs.ReadFile(files, path)
		if err == nil {
			return content, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// source wraps content so variables print verbatim unless autoescape is on.
func (e *Engine) source(content string) string {
	if e.autoescape {
		return content
	}
	return autoescapeOff + content + autoescapeEnd
}

func (e *Engine) execute(tmpl *pongo2.Template, ctx *template.Context, out io.Writer) error {
	values, err := template.Normalize(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(pongo2.Context(values), &buf)
	e.mu.RUnlock()
	if err != nil {
		return err
	}

	rendered := buf.String()
	if e.sanitizer != nil {
		rendered = e.sanitizer.Sanitize(rendered)
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func (e *Engine) templatePath(name string) string {
	path := strings.TrimPrefix(strings.TrimSpace(name), "/")
	if !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}
	return path
}

func (e *Engine) fail(tag string, err error) error {
	if e.logger != nil {
		e.logger.Printf("[%s] %v", tag, err)
	}
	return err
}

// Template is a compiled pongo2 template bound to the engine that loaded it.
type Template struct {
	engine *Engine
	name   string
	tmpl   *pongo2.Template
}

// Name returns the resolved template path, extension included.
func (t *Template) Name() string {
	return t.name
}

// Merge renders the template against ctx into out.
func (t *Template) Merge(ctx *template.Context, out io.Writer) error {
	if t == nil || t.tmpl == nil {
		return errors.New("pongo: template is nil")
	}
	if err := t.engine.execute(t.tmpl, ctx, out); err != nil {
		return t.engine.fail(t.name, fmt.Errorf("pongo: merge %q: %w", t.name, err))
	}
	return nil
}

func tagOrDefault(tag string) string {
	if tag = strings.TrimSpace(tag); tag != "" {
		return tag
	}
	return "template"
}
