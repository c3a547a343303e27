package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/randalmurphal/promptchain/tokens"
)

// builtinFuncs are available in every template. Helpers take the piped or
// final argument as their subject so they read naturally in prompts:
//
//	{{truncate .context 2000}}  {{bullets .items}}  {{fence "go" .code}}
var builtinFuncs = template.FuncMap{
	"upper":     strings.ToUpper,
	"lower":     strings.ToLower,
	"trim":      strings.TrimSpace,
	"join":      strings.Join,
	"split":     strings.Split,
	"replace":   strings.ReplaceAll,
	"contains":  strings.Contains,
	"hasPrefix": strings.HasPrefix,
	"default":   orDefault,
	"json":      prettyJSON,
	"truncate":  clip,
	"tokens":    tokens.EstimateTokens,
	"indent":    indent,
	"quote":     quote,
	"fence":     fence,
	"bullets":   func(items any) string { return list(items, func(int) string { return "- " }) },
	"numbered":  func(items any) string { return list(items, func(i int) string { return fmt.Sprintf("%d. ", i+1) }) },
}

func defaultFuncs() template.FuncMap {
	funcs := make(template.FuncMap, len(builtinFuncs))
	for k, v := range builtinFuncs {
		funcs[k] = v
	}
	return funcs
}

// clip keeps at most n runes of s; a cut string ends in "...".
func clip(s string, n int) string {
	runes := []rune(s)
	switch {
	case n <= 0:
		return ""
	case len(runes) <= n:
		return s
	case n <= 3:
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func orDefault(val, fallback any) any {
	switch v := val.(type) {
	case nil:
		return fallback
	case string:
		if v == "" {
			return fallback
		}
	}
	return val
}

// prettyJSON falls back to %v for values that cannot be marshaled.
func prettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func prefixLines(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

func indent(s string, spaces int) string {
	return prefixLines(s, strings.Repeat(" ", max(spaces, 0)))
}

func quote(s string) string {
	return prefixLines(strings.TrimRight(s, "\n"), "> ")
}

// fence wraps body in a markdown code block tagged with lang.
func fence(lang, body string) string {
	return "```" + lang + "\n" + strings.TrimRight(body, "\n") + "\n```"
}

func list(items any, marker func(int) string) string {
	var elems []string
	switch v := items.(type) {
	case []string:
		elems = v
	case []any:
		elems = make([]string, len(v))
		for i, e := range v {
			elems[i] = fmt.Sprint(e)
		}
	case string:
		elems = strings.Split(strings.TrimSpace(v), "\n")
	default:
		elems = []string{fmt.Sprint(v)}
	}
	lines := make([]string, len(elems))
	for i, e := range elems {
		lines[i] = marker(i) + e
	}
	return strings.Join(lines, "\n")
}
