package prompt

import (
	"cmp"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// helperNames lists the built-in helper function names, sorted.
var helperNames = slices.Sorted(maps.Keys(builtinFuncs))

// goTemplateKeywords are Go template reserved words that should not be
// converted to variable references.
var goTemplateKeywords = map[string]bool{
	"else":     true,
	"end":      true,
	"if":       true,
	"range":    true,
	"with":     true,
	"define":   true,
	"template": true,
	"block":    true,
}

var (
	ifPattern       = regexp.MustCompile(`\{\{#if\s+(\w+)\}\}`)
	unlessPattern   = regexp.MustCompile(`\{\{#unless\s+(\w+)\}\}`)
	eachPattern     = regexp.MustCompile(`\{\{#each\s+(\w+)\}\}`)
	closePattern    = regexp.MustCompile(`\{\{/(?:if|unless|each)\}\}`)
	varPattern      = regexp.MustCompile(`\{\{([a-zA-Z_]\w*)\}\}`)
	controlPattern  = regexp.MustCompile(`\{\{#(if|unless|each)\s+([a-zA-Z_]\w*)\}\}`)
	helperPattern   = regexp.MustCompile(`\{\{(` + strings.Join(helperNames, "|") + `)\s+([^{}]+)\}\}`)
	helperArgsMatch = regexp.MustCompile(`\{\{\w+\s+([^{}]+)\}\}`)
)

// convertSyntax converts Handlebars-like syntax to Go template syntax.
//
// Conversions:
//   - {{variable}} -> {{.variable}}
//   - {{#if x}}...{{/if}} -> {{if .x}}...{{end}}
//   - {{#unless x}}...{{/unless}} -> {{if not .x}}...{{end}}
//   - {{#each items}}...{{/each}} -> {{range .items}}...{{end}}
//   - {{helper arg1 arg2}} -> {{helper .arg1 .arg2}}
func convertSyntax(input string) string {
	result := ifPattern.ReplaceAllString(input, "{{if .$1}}")
	result = unlessPattern.ReplaceAllString(result, "{{if not .$1}}")
	result = eachPattern.ReplaceAllString(result, "{{range .$1}}")
	result = closePattern.ReplaceAllString(result, "{{end}}")

	result = varPattern.ReplaceAllStringFunc(result, func(match string) string {
		name := match[2 : len(match)-2]
		if goTemplateKeywords[name] {
			return match
		}
		return "{{." + name + "}}"
	})

	return helperPattern.ReplaceAllStringFunc(result, func(match string) string {
		sub := helperPattern.FindStringSubmatch(match)
		return "{{" + sub[1] + " " + convertArguments(strings.TrimSpace(sub[2])) + "}}"
	})
}

// convertArguments converts a space-separated list of arguments.
// Variables become .variable; numbers, quoted strings and booleans stay as-is.
func convertArguments(args string) string {
	parts := splitArguments(args)
	for i, part := range parts {
		if isLiteral(part) || strings.HasPrefix(part, ".") {
			continue
		}
		if isValidIdentifier(part) {
			parts[i] = "." + part
		}
	}
	return strings.Join(parts, " ")
}

func isLiteral(s string) bool {
	return isNumber(s) || isQuotedString(s) || s == "true" || s == "false"
}

// splitArguments splits arguments while respecting quoted strings.
func splitArguments(args string) []string {
	var parts []string
	var current strings.Builder
	quote := rune(0)

	for _, ch := range args {
		switch {
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
			current.WriteRune(ch)
		case quote != 0 && ch == quote:
			quote = 0
			current.WriteRune(ch)
		case quote == 0 && ch == ' ':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// isNumber checks if a string represents a number (integer or float, optionally negative).
func isNumber(s string) bool {
	if s == "" || s == "-" {
		return false
	}
	for i, ch := range s {
		if (ch == '-' && i == 0) || ch == '.' {
			continue
		}
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// isQuotedString checks if a string is wrapped in matching quotes.
func isQuotedString(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')
}

// isValidIdentifier checks if a string is a valid variable name.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		isLetter := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		isDigit := ch >= '0' && ch <= '9'
		if i == 0 && isDigit {
			return false
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}

// extractVariables returns the deduplicated variable names a template
// references, in order of first appearance.
func extractVariables(templateStr string) []string {
	type hit struct {
		pos  int
		name string
	}
	var hits []hit

	for _, m := range varPattern.FindAllStringSubmatchIndex(templateStr, -1) {
		name := templateStr[m[2]:m[3]]
		if !goTemplateKeywords[name] {
			hits = append(hits, hit{m[0], name})
		}
	}
	for _, m := range controlPattern.FindAllStringSubmatchIndex(templateStr, -1) {
		hits = append(hits, hit{m[0], templateStr[m[4]:m[5]]})
	}
	for _, m := range helperArgsMatch.FindAllStringSubmatchIndex(templateStr, -1) {
		for _, arg := range splitArguments(templateStr[m[2]:m[3]]) {
			if !isLiteral(arg) && isValidIdentifier(arg) {
				hits = append(hits, hit{m[0], arg})
			}
		}
	}

	slices.SortStableFunc(hits, func(a, b hit) int { return cmp.Compare(a.pos, b.pos) })

	seen := make(map[string]bool, len(hits))
	var result []string
	for _, h := range hits {
		if !seen[h.name] {
			seen[h.name] = true
			result = append(result, h.name)
		}
	}
	return result
}

// conditionalVariables returns the variables that only appear as
// {{#if}} or {{#unless}} conditions. They may be omitted at render time.
func conditionalVariables(templateStr string) map[string]bool {
	conditional := make(map[string]bool)
	for _, m := range controlPattern.FindAllStringSubmatch(templateStr, -1) {
		if m[1] != "each" {
			conditional[m[2]] = true
		}
	}
	if len(conditional) == 0 {
		return conditional
	}

	stripped := controlPattern.ReplaceAllString(templateStr, "")
	for _, name := range extractVariables(stripped) {
		delete(conditional, name)
	}
	return conditional
}
