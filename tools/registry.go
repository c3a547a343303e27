package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/randalmurphal/promptchain/provider"
)

// Registry is a name-keyed dispatch table of tools.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates a registry holding tools. It panics on a duplicate
// name; use Add to handle that as an error.
func NewRegistry(tools ...*Tool) *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	for _, t := range tools {
		if err := r.Add(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Add registers a tool. Names must be unique.
func (r *Registry) Add(t *Tool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("tools: cannot register unnamed tool")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions returns every tool as offered to a model, sorted by name.
func (r *Registry) Definitions() []provider.Tool {
	names := r.Names()
	defs := make([]provider.Tool, 0, len(names))
	for _, name := range names {
		t, _ := r.Get(name)
		defs = append(defs, t.Definition())
	}
	return defs
}

// Dispatch runs the named tool with args.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	start := time.Now()
	out, err := t.Call(ctx, args)
	slog.Debug("tool dispatched",
		slog.String("tool", name),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("failed", err != nil))
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	return out, nil
}
