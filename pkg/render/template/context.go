package template

import (
	"sort"
	"strings"
	"sync"
)

// Context is the key/value store templates resolve variables against. A
// chained context falls back to its inner context for keys it does not hold;
// writes always land on the outer context.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
	inner  *Context
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// NewChainedContext returns an empty context that reads through to inner.
func NewChainedContext(inner *Context) *Context {
	ctx := NewContext()
	ctx.inner = inner
	return ctx
}

// ContextFrom seeds a context with the provided values.
func ContextFrom(values map[string]any) *Context {
	ctx := NewContext()
	for key, value := range values {
		ctx.Put(key, value)
	}
	return ctx
}

// Put stores value under key and returns the value it replaced, if any.
// Blank keys are ignored.
func (c *Context) Put(key string, value any) any {
	key = strings.TrimSpace(key)
	if c == nil || key == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.values == nil {
		c.values = make(map[string]any)
	}
	previous := c.values[key]
	c.values[key] = value
	return previous
}

// Get returns the value stored under key, consulting the inner context when
// the key is not set locally.
func (c *Context) Get(key string) any {
	value, _ := c.lookup(strings.TrimSpace(key))
	return value
}

// Has reports whether key resolves locally or through the chain.
func (c *Context) Has(key string) bool {
	_, ok := c.lookup(strings.TrimSpace(key))
	return ok
}

// Remove deletes key from the local store and returns the removed value.
// Inner contexts are never modified.
func (c *Context) Remove(key string) any {
	key = strings.TrimSpace(key)
	if c == nil || key == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	previous, ok := c.values[key]
	if !ok {
		return nil
	}
	delete(c.values, key)
	return previous
}

// Keys lists every resolvable key in sorted order.
func (c *Context) Keys() []string {
	values := c.Values()
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a snapshot of every resolvable key. Local entries shadow
// entries from the inner chain.
func (c *Context) Values() map[string]any {
	out := make(map[string]any)
	c.collect(out, make(map[*Context]struct{}))
	return out
}

// Inner returns the context this one reads through to.
func (c *Context) Inner() *Context {
	if c == nil {
		return nil
	}
	return c.inner
}

func (c *Context) lookup(key string) (any, bool) {
	seen := make(map[*Context]struct{})
	for current := c; current != nil; current = current.inner {
		if _, loop := seen[current]; loop {
			return nil, false
		}
		seen[current] = struct{}{}

		current.mu.RLock()
		value, ok := current.values[key]
		current.mu.RUnlock()
		if ok {
			return value, true
		}
	}
	return nil, false
}

func (c *Context) collect(dest map[string]any, seen map[*Context]struct{}) {
	if c == nil {
		return
	}
	if _, loop := seen[c]; loop {
		return
	}
	seen[c] = struct{}{}

	c.inner.collect(dest, seen)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for key, value := range c.values {
		dest[key] = value
	}
}
