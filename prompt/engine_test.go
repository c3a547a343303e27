package prompt

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestEngine_Render(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name      string
		template  string
		variables map[string]any
		want      string
	}{
		{
			name:      "single variable",
			template:  "Tell me a joke about {{topic}}",
			variables: map[string]any{"topic": "bears"},
			want:      "Tell me a joke about bears",
		},
		{
			name:      "nested map access",
			template:  "Doc: {{.doc.title}}",
			variables: map[string]any{"doc": map[string]any{"title": "Q3 report"}},
			want:      "Doc: Q3 report",
		},
		{
			name:      "if else",
			template:  "{{#if urgent}}NOW{{else}}later{{/if}}",
			variables: map[string]any{"urgent": false},
			want:      "later",
		},
		{
			name:      "unless",
			template:  "{{#unless quiet}}Explain your reasoning.{{/unless}}",
			variables: map[string]any{"quiet": false},
			want:      "Explain your reasoning.",
		},
		{
			name:      "each",
			template:  "{{#each docs}}[{{.}}]{{/each}}",
			variables: map[string]any{"docs": []string{"a", "b"}},
			want:      "[a][b]",
		},
		{
			name:      "truncate helper",
			template:  "{{truncate text 10}}",
			variables: map[string]any{"text": "This is a very long text"},
			want:      "This is...",
		},
		{
			name:      "truncate is rune safe",
			template:  "{{truncate text 5}}",
			variables: map[string]any{"text": "héllo wörld"},
			want:      "hé...",
		},
		{
			name:      "helper with quoted literal",
			template:  `{{replace text "old" "new"}}`,
			variables: map[string]any{"text": "old and old"},
			want:      "new and new",
		},
		{
			name:      "bullets",
			template:  "{{bullets items}}",
			variables: map[string]any{"items": []string{"one", "two"}},
			want:      "- one\n- two",
		},
		{
			name:      "numbered",
			template:  "{{numbered items}}",
			variables: map[string]any{"items": []any{"x", 2}},
			want:      "1. x\n2. 2",
		},
		{
			name:      "default",
			template:  `{{default tone "neutral"}}`,
			variables: map[string]any{"tone": ""},
			want:      "neutral",
		},
		{
			name:      "fence",
			template:  `{{fence "go" code}}`,
			variables: map[string]any{"code": "x := 1\n"},
			want:      "```go\nx := 1\n```",
		},
		{
			name:      "quote",
			template:  "{{quote reply}}",
			variables: map[string]any{"reply": "a\nb"},
			want:      "> a\n> b",
		},
		{
			name:      "tokens",
			template:  "{{tokens text}}",
			variables: map[string]any{"text": "12345678"},
			want:      "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.template, tt.variables)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngine_Render_Errors(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name     string
		template string
		wantErr  error
	}{
		{"empty template", "", ErrEmpty},
		{"invalid syntax", "{{#if}}missing condition{{/if}}", ErrParse},
		{"unclosed block", "{{#if ready}}never closed", ErrParse},
		{"execution failure", "{{index .items 5}}", ErrExecute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Render(tt.template, map[string]any{"items": []string{}})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_Parse(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		template string
		want     []string
	}{
		{"Hello", nil},
		{"{{greeting}}, {{name}}! {{name}}", []string{"greeting", "name"}},
		{"{{#if urgent}}!{{/if}}{{title}}", []string{"urgent", "title"}},
		{"{{truncate body 100}} by {{author}}", []string{"body", "author"}},
		{`{{replace text "a" "b"}}`, []string{"text"}},
		{"{{#each docs}}{{.}}{{/each}}", []string{"docs"}},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			got, err := e.Parse(tt.template)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConditionalVariables(t *testing.T) {
	got := conditionalVariables("{{#if urgent}}!{{/if}}{{#if title}}{{title}}{{/if}}{{#each docs}}{{.}}{{/each}}")
	want := map[string]bool{"urgent": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConvertSyntax(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"{{name}}", "{{.name}}"},
		{"{{#if done}}yes{{else}}no{{/if}}", "{{if .done}}yes{{else}}no{{end}}"},
		{"{{#unless done}}todo{{/unless}}", "{{if not .done}}todo{{end}}"},
		{"{{#each items}}{{.}}{{/each}}", "{{range .items}}{{.}}{{end}}"},
		{"{{upper name}}", "{{upper .name}}"},
		{`{{truncate text 20}}`, `{{truncate .text 20}}`},
		{"Keep {{else}} and {{end}} unchanged", "Keep {{else}} and {{end}} unchanged"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := convertSyntax(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitArguments(t *testing.T) {
	got := splitArguments(`text "a b" 'c' 3`)
	want := []string{"text", `"a b"`, "'c'", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEngine_AddFunc(t *testing.T) {
	e := NewEngine()
	if _, err := e.Render("{{.name}}", map[string]any{"name": "x"}); err != nil {
		t.Fatal(err)
	}

	e.AddFunc("double", func(s string) string { return s + s })
	got, err := e.Render("{{double .name}}", map[string]any{"name": "ha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "haha" {
		t.Errorf("got %q, want %q", got, "haha")
	}
}

func TestEngine_CacheIsBounded(t *testing.T) {
	e := NewEngineWithCacheSize(3)
	for i := 0; i < 10; i++ {
		src := fmt.Sprintf("revision %d: {{name}}", i)
		got, err := e.Render(src, map[string]any{"name": "x"})
		if err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
		if want := fmt.Sprintf("revision %d: x", i); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if n := e.CachedTemplates(); n != 3 {
		t.Errorf("cached templates = %d, want 3", n)
	}

	// Evicted templates are recompiled on demand.
	got, err := e.Render("revision 0: {{name}}", map[string]any{"name": "y"})
	if err != nil || got != "revision 0: y" {
		t.Errorf("got %q, %v", got, err)
	}

	e.AddFunc("noop", func() string { return "" })
	if n := e.CachedTemplates(); n != 0 {
		t.Errorf("cached templates after AddFunc = %d, want 0", n)
	}
}

func TestEngine_ConcurrentRender(t *testing.T) {
	e := NewEngine()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Render("Hi {{name}}", map[string]any{"name": "there"})
			if err != nil || got != "Hi there" {
				t.Errorf("got %q, %v", got, err)
			}
		}()
	}
	wg.Wait()
}

func TestValidateVariables(t *testing.T) {
	err := ValidateVariables([]string{"a", "b", "c"}, map[string]any{"b": 1})
	if !errors.Is(err, ErrVariable) {
		t.Fatalf("expected ErrVariable, got %v", err)
	}
	if err.Error() != "required variable missing: a, c" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if err := ValidateVariables([]string{"a"}, map[string]any{"a": nil}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
