// Package contextfile loads render contexts from JSON or YAML documents.
package contextfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tplconcept/pkg/render/template"
)

// Load reads a context document from disk.
func Load(path string) (*template.Context, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("contextfile: path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("contextfile: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS reads a context document from fsys.
func LoadFS(fsys fs.FS, path string) (*template.Context, error) {
	if fsys == nil {
		return nil, fmt.Errorf("contextfile: filesystem is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("contextfile: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a JSON or YAML mapping into a context. Nested mappings become
// nested contexts so documents can describe context chains.
func Parse(data []byte, source string) (*template.Context, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("contextfile: file %s is empty", source)
	}

	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("contextfile: parse %s: invalid JSON or YAML: %w", source, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("contextfile: %s must contain a mapping", source)
	}

	return toContext(doc), nil
}

// decode tries JSON first so numbers keep their exact text, then YAML. Both
// errors are kept when neither format applies.
func decode(data []byte) (map[string]any, error) {
	var doc map[string]any

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	jerr := dec.Decode(&doc)
	if jerr == nil {
		if dec.More() {
			jerr = errors.New("unexpected data after top-level value")
		} else {
			return doc, nil
		}
	}

	doc = nil
	if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
		return nil, errors.Join(fmt.Errorf("json: %w", jerr), fmt.Errorf("yaml: %w", yerr))
	}
	return doc, nil
}

func toContext(values map[string]any) *template.Context {
	ctx := template.NewContext()
	for key, value := range values {
		ctx.Put(key, convert(value))
	}
	return ctx
}

func convert(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return toContext(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = convert(item)
		}
		return out
	default:
		return v
	}
}
