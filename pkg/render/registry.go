package render

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-tplconcept/pkg/render/template"
	"github.com/goliatone/go-tplconcept/pkg/render/template/gotext"
	"github.com/goliatone/go-tplconcept/pkg/render/template/pongo"
)

// EngineConfig holds the settings NewEngines applies to every engine it
// builds. Sanitizer and Autoescape only affect pongo2; Strict only affects
// text/template.
type EngineConfig struct {
	BaseDir    string
	Extension  string
	Globals    map[string]any
	Logger     *log.Logger
	Sanitizer  *bluemonday.Policy
	Autoescape bool
	Strict     bool
}

// Registry resolves template engines by name.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]template.Evaluator
}

// NewRegistry returns a registry holding engines.
func NewRegistry(engines ...template.Evaluator) (*Registry, error) {
	r := &Registry{engines: make(map[string]template.Evaluator, len(engines))}
	for _, engine := range engines {
		if err := r.Register(engine); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewEngines builds the pongo2 and text/template engines over one template
// directory and extension and registers both.
func NewEngines(cfg EngineConfig) (*Registry, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("render: base dir is required")
	}

	pongoOpts := []pongo.Option{
		pongo.WithBaseDir(cfg.BaseDir),
		pongo.WithExtension(cfg.Extension),
		pongo.WithGlobalData(cfg.Globals),
		pongo.WithLogger(cfg.Logger),
		pongo.WithAutoescape(cfg.Autoescape),
	}
	if cfg.Sanitizer != nil {
		pongoOpts = append(pongoOpts, pongo.WithSanitizer(cfg.Sanitizer))
	}
	pongoEngine, err := pongo.New(pongoOpts...)
	if err != nil {
		return nil, fmt.Errorf("render: build %s: %w", pongo.EngineName, err)
	}

	textEngine, err := gotext.New(
		gotext.WithBaseDir(cfg.BaseDir),
		gotext.WithExtension(cfg.Extension),
		gotext.WithGlobalData(cfg.Globals),
		gotext.WithLogger(cfg.Logger),
		gotext.WithStrict(cfg.Strict),
	)
	if err != nil {
		return nil, fmt.Errorf("render: build %s: %w", gotext.EngineName, err)
	}

	return NewRegistry(pongoEngine, textEngine)
}

// Register adds engine under its Name(). Names must be unique.
func (r *Registry) Register(engine template.Evaluator) error {
	if engine == nil {
		return fmt.Errorf("render: engine is required")
	}
	name := strings.TrimSpace(engine.Name())
	if name == "" {
		return fmt.Errorf("render: engine name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.engines[name]; exists {
		return fmt.Errorf("render: engine %q already registered", name)
	}
	r.engines[name] = engine
	return nil
}

// Get returns the engine registered as name. The error lists the names that
// are available.
func (r *Registry) Get(name string) (template.Evaluator, error) {
	r.mu.RLock()
	engine, ok := r.engines[strings.TrimSpace(name)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("render: engine %q not found (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return engine, nil
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
