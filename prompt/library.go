package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// PromptDef is a named prompt as written in a library file. Either Template
// (a single user message) or Messages must be set.
type PromptDef struct {
	Description string            `yaml:"description" toml:"description" json:"description,omitempty"`
	Template    string            `yaml:"template" toml:"template" json:"template,omitempty"`
	Messages    []MessageTemplate `yaml:"messages" toml:"messages" json:"messages,omitempty"`
	Defaults    map[string]any    `yaml:"defaults" toml:"defaults" json:"defaults,omitempty"`
}

// StepDef is one step of a chain definition: render Prompt, call the model
// and store the text under Output.
type StepDef struct {
	Prompt string `yaml:"prompt" toml:"prompt" json:"prompt"`
	Output string `yaml:"output" toml:"output" json:"output"`
}

// ChainDef is a named sequential chain as written in a library file.
type ChainDef struct {
	Description string    `yaml:"description" toml:"description" json:"description,omitempty"`
	Steps       []StepDef `yaml:"steps" toml:"steps" json:"steps"`
}

// File is the on-disk layout of a library file.
type File struct {
	Prompts map[string]PromptDef `yaml:"prompts" toml:"prompts" json:"prompts"`
	Chains  map[string]ChainDef  `yaml:"chains" toml:"chains" json:"chains"`
}

// Library holds named prompts and chain definitions. It is safe for
// concurrent use; LoadDir replaces the contents atomically.
type Library struct {
	mu      sync.RWMutex
	prompts map[string]*entry
	chains  map[string]ChainDef
	origin  map[string]string
	logger  *slog.Logger
}

type entry struct {
	def  PromptDef
	tmpl *ChatTemplate
	src  string
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		prompts: make(map[string]*entry),
		chains:  make(map[string]ChainDef),
		origin:  make(map[string]string),
		logger:  slog.Default(),
	}
}

// Add registers a prompt built in code. It replaces any prompt of the same name.
func (l *Library) Add(name string, tmpl *ChatTemplate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompts[name] = &entry{tmpl: tmpl, src: "code"}
}

// AddChain registers a chain definition built in code.
func (l *Library) AddChain(name string, def ChainDef) error {
	if err := l.validateChain(name, def, nil); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chains[name] = def
	l.origin[name] = "code"
	return nil
}

// Prompt returns the named template with its defaults applied as partials.
func (l *Library) Prompt(name string) (*ChatTemplate, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.prompts[name]
	if !ok {
		return nil, fmt.Errorf("prompt %q: %w", name, ErrNotFound)
	}
	return e.tmpl, nil
}

// Describe returns the description of the named prompt.
func (l *Library) Describe(name string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if e, ok := l.prompts[name]; ok {
		return e.def.Description
	}
	return ""
}

// Chain returns the named chain definition.
func (l *Library) Chain(name string) (ChainDef, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	def, ok := l.chains[name]
	if !ok {
		return ChainDef{}, fmt.Errorf("chain %q: %w", name, ErrNotFound)
	}
	return def, nil
}

// Names returns the prompt names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sortedNames(l.prompts)
}

// ChainNames returns the chain names, sorted.
func (l *Library) ChainNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sortedNames(l.chains)
}

// LoadFile merges a YAML (.yaml, .yml) or TOML (.toml) file into the library.
// Names already defined by another file are rejected, as are chains whose
// steps reference unknown prompts.
func (l *Library) LoadFile(path string) error {
	if err := l.loadFile(path); err != nil {
		return err
	}
	return l.checkChains()
}

// LoadDir loads every library file in dir and replaces the library contents.
// Nothing changes if any file fails to load.
func (l *Library) LoadDir(dir string) error {
	paths, err := libraryFiles(dir)
	if err != nil {
		return err
	}

	next := NewLibrary()
	for _, p := range paths {
		if err := next.loadFile(p); err != nil {
			return err
		}
	}
	if err := next.checkChains(); err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}

	l.mu.Lock()
	l.prompts = next.prompts
	l.chains = next.chains
	l.origin = next.origin
	l.mu.Unlock()

	l.logger.Debug("prompt library loaded",
		slog.String("dir", dir),
		slog.Int("files", len(paths)),
		slog.Int("prompts", len(next.prompts)),
		slog.Int("chains", len(next.chains)))
	return nil
}

func (l *Library) loadFile(path string) error {
	prompts, chains, err := readFile(path)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for name := range prompts {
		if prev, ok := l.prompts[name]; ok && prev.src != path {
			return fmt.Errorf("%s: prompt %q already defined in %s", path, name, prev.src)
		}
	}
	for name, def := range chains {
		if prev, ok := l.origin[name]; ok && prev != path {
			return fmt.Errorf("%s: chain %q already defined in %s", path, name, prev)
		}
		if err := l.validateChain(name, def, nil); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	for name, e := range prompts {
		l.prompts[name] = e
	}
	for name, def := range chains {
		l.chains[name] = def
		l.origin[name] = path
	}
	return nil
}

func (l *Library) checkChains() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, name := range sortedNames(l.chains) {
		if err := l.validateChain(name, l.chains[name], l.prompts); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) validateChain(name string, def ChainDef, prompts map[string]*entry) error {
	if len(def.Steps) == 0 {
		return fmt.Errorf("chain %q has no steps", name)
	}
	for i, s := range def.Steps {
		if s.Prompt == "" || s.Output == "" {
			return fmt.Errorf("chain %q step %d: prompt and output are required", name, i)
		}
		if prompts != nil {
			if _, ok := prompts[s.Prompt]; !ok {
				return fmt.Errorf("chain %q step %d: prompt %q: %w", name, i, s.Prompt, ErrNotFound)
			}
		}
	}
	return nil
}

func readFile(path string) (map[string]*entry, map[string]ChainDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, nil, fmt.Errorf("parse %s: unknown keys %v", path, undecoded)
		}
	default:
		return nil, nil, fmt.Errorf("%s: unsupported library file extension", path)
	}

	prompts := make(map[string]*entry, len(f.Prompts))
	for name, def := range f.Prompts {
		tmpl, err := buildTemplate(def)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: prompt %q: %w", path, name, err)
		}
		prompts[name] = &entry{def: def, tmpl: tmpl, src: path}
	}
	return prompts, f.Chains, nil
}

func buildTemplate(def PromptDef) (*ChatTemplate, error) {
	var tmpl *ChatTemplate
	var err error
	switch {
	case def.Template != "" && len(def.Messages) > 0:
		return nil, fmt.Errorf("template and messages are mutually exclusive")
	case def.Template != "":
		tmpl, err = FromTemplate(def.Template)
	default:
		tmpl, err = FromMessages(def.Messages...)
	}
	if err != nil {
		return nil, err
	}
	if len(def.Defaults) > 0 {
		tmpl = tmpl.Partial(def.Defaults)
	}
	return tmpl, nil
}

func libraryFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read library dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isLibraryFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isLibraryFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".toml":
		return !strings.HasPrefix(filepath.Base(name), ".")
	}
	return false
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
