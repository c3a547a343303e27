package prompt

import (
	"fmt"
	"maps"
	"strings"
	"sync"
	"text/template"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultCacheSize bounds the parsed templates an Engine keeps. The least
// recently used template is evicted first.
const DefaultCacheSize = 256

// Engine renders prompt templates with variable substitution.
// It supports both Go template syntax and Handlebars-like syntax.
// Parsed templates are cached by source text, up to DefaultCacheSize
// entries; an Engine is safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	funcs  template.FuncMap
	parsed *ttlcache.Cache[string, *template.Template]
}

// NewEngine creates a new template engine with default helper functions.
func NewEngine() *Engine {
	return NewEngineWithCacheSize(DefaultCacheSize)
}

// NewEngineWithCacheSize is like NewEngine with a custom cache bound.
// size <= 0 means DefaultCacheSize.
func NewEngineWithCacheSize(size int) *Engine {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Engine{
		funcs:  defaultFuncs(),
		parsed: ttlcache.New(ttlcache.WithCapacity[string, *template.Template](uint64(size))),
	}
}

// CachedTemplates returns the number of parsed templates currently cached.
func (e *Engine) CachedTemplates() int {
	return e.parsed.Len()
}

var defaultEngine = NewEngine()

// Render executes the template with the given variables.
// The template string supports Handlebars-like syntax which is automatically
// converted to Go template syntax before execution.
func (e *Engine) Render(templateStr string, variables map[string]any) (string, error) {
	tmpl, err := e.compile(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if execErr := tmpl.Execute(&buf, variables); execErr != nil {
		return "", fmt.Errorf("%w: %w", ErrExecute, execErr)
	}
	return buf.String(), nil
}

// Parse validates the template and extracts variable names in order of
// first appearance.
func (e *Engine) Parse(templateStr string) ([]string, error) {
	if _, err := e.compile(templateStr); err != nil {
		return nil, err
	}
	return extractVariables(templateStr), nil
}

// AddFunc adds a custom template function.
// The function will be available in templates using the given name.
func (e *Engine) AddFunc(name string, fn any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.funcs[name] = fn
	e.parsed.DeleteAll()
}

func (e *Engine) compile(templateStr string) (*template.Template, error) {
	if templateStr == "" {
		return nil, ErrEmpty
	}

	if item := e.parsed.Get(templateStr); item != nil {
		return item.Value(), nil
	}

	e.mu.RLock()
	funcs := maps.Clone(e.funcs)
	e.mu.RUnlock()

	tmpl, err := template.New("prompt").Funcs(funcs).Parse(convertSyntax(templateStr))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	e.parsed.Set(templateStr, tmpl, ttlcache.NoTTL)
	return tmpl, nil
}

// ValidateVariables checks that all required variables are provided.
// Returns an error wrapping ErrVariable naming every missing variable.
func ValidateVariables(required []string, provided map[string]any) error {
	var missing []string
	for _, name := range required {
		if _, ok := provided[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrVariable, strings.Join(missing, ", "))
	}
	return nil
}
