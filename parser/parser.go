package parser

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	codeBlockRegex    = regexp.MustCompile("(?s)```([\\w+-]*)[ \\t]*\\n(.*?)```")
	sectionRegex      = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	bulletRegex       = regexp.MustCompile(`(?m)^\s*[-*•]\s+(.+)$`)
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+(.+)$`)
)

// Response contains structured data extracted from model output.
type Response struct {
	// Raw is the original text.
	Raw string

	// Text is the text with code blocks removed.
	Text string

	// CodeBlocks contains all fenced code blocks.
	CodeBlocks []CodeBlock

	// JSONBlocks contains every JSON object found, fenced or inline.
	JSONBlocks []map[string]any

	// Sections maps markdown header titles to their content.
	Sections map[string]string
}

// CodeBlock represents a fenced code block.
type CodeBlock struct {
	// Language is the specifier after the opening fence ("go", "json", ...).
	Language string

	// Content is the code inside the block, excluding fences.
	Content string

	// Raw is the complete block including the fences.
	Raw string
}

// Parser extracts structured content from model output.
// The zero value is ready to use.
type Parser struct{}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts all structured content from text.
func (p *Parser) Parse(text string) *Response {
	return &Response{
		Raw:        text,
		Text:       codeBlockRegex.ReplaceAllString(text, ""),
		CodeBlocks: p.ExtractAllCode(text),
		JSONBlocks: p.extractJSONObjects(text),
		Sections:   p.extractSections(text),
	}
}

// ExtractAllCode returns every fenced code block.
func (p *Parser) ExtractAllCode(text string) []CodeBlock {
	matches := codeBlockRegex.FindAllStringSubmatch(text, -1)
	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, CodeBlock{Language: strings.ToLower(m[1]), Content: m[2], Raw: m[0]})
	}
	return blocks
}

// ExtractCode returns the first code block in language, or the first block
// of any language when language is empty. It returns "" if none matches.
func (p *Parser) ExtractCode(text, language string) string {
	language = strings.ToLower(language)
	for _, block := range p.ExtractAllCode(text) {
		if language == "" || block.Language == language {
			return block.Content
		}
	}
	return ""
}

// HasCodeBlock reports whether text contains a fenced code block.
func (p *Parser) HasCodeBlock(text string) bool {
	return codeBlockRegex.MatchString(text)
}

// ExtractJSON returns the first JSON object in text, or nil.
// Fenced json (or unlabeled) blocks are preferred over objects embedded in prose.
func (p *Parser) ExtractJSON(text string) map[string]any {
	if objs := p.extractJSONObjects(text); len(objs) > 0 {
		return objs[0]
	}
	return nil
}

// HasJSON reports whether text contains a JSON object.
func (p *Parser) HasJSON(text string) bool {
	return p.ExtractJSON(text) != nil
}

// ExtractJSONArray returns the elements of every JSON array of objects found
// in fenced blocks or in prose, concatenated.
func (p *Parser) ExtractJSONArray(text string) []map[string]any {
	var results []map[string]any
	for _, raw := range p.jsonCandidates(text, '[', ']') {
		var arr []map[string]any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			results = append(results, arr...)
		}
	}
	return results
}

func (p *Parser) extractJSONObjects(text string) []map[string]any {
	var objs []map[string]any
	for _, raw := range p.jsonCandidates(text, '{', '}') {
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			continue
		}
		dup := false
		for _, existing := range objs {
			if reflect.DeepEqual(existing, obj) {
				dup = true
				break
			}
		}
		if !dup {
			objs = append(objs, obj)
		}
	}
	return objs
}

// jsonCandidates returns fenced json/unlabeled block contents first, then
// balanced openCh...closeCh spans found in the remaining prose.
func (p *Parser) jsonCandidates(text string, openCh, closeCh byte) []string {
	var out []string
	for _, block := range p.ExtractAllCode(text) {
		if block.Language == "json" || block.Language == "" {
			out = append(out, strings.TrimSpace(block.Content))
		}
	}
	return append(out, balancedSpans(codeBlockRegex.ReplaceAllString(text, ""), openCh, closeCh)...)
}

// balancedSpans finds top-level openCh...closeCh spans, skipping delimiters
// inside JSON strings.
func balancedSpans(text string, openCh, closeCh byte) []string {
	var spans []string
	depth, start := 0, -1
	inString, escaped := false, false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case openCh:
			if depth == 0 {
				start = i
			}
			depth++
		case closeCh:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, text[start:i+1])
			}
		}
	}
	return spans
}

// ExtractYAML parses every yaml/yml fenced block into a map.
func (p *Parser) ExtractYAML(text string) []map[string]any {
	var blocks []map[string]any
	for _, block := range p.ExtractAllCode(text) {
		if block.Language != "yaml" && block.Language != "yml" {
			continue
		}
		var data map[string]any
		if err := yaml.Unmarshal([]byte(block.Content), &data); err == nil {
			blocks = append(blocks, data)
		}
	}
	return blocks
}

func (p *Parser) extractSections(text string) map[string]string {
	sections := make(map[string]string)
	matches := sectionRegex.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		title := strings.TrimSpace(text[m[4]:m[5]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections[title] = strings.TrimSpace(text[m[1]:end])
	}
	return sections
}

// ExtractSection returns the content under the markdown header title,
// matched exactly first and then case-insensitively.
func (p *Parser) ExtractSection(text, title string) string {
	sections := p.extractSections(text)
	if content, ok := sections[title]; ok {
		return content
	}
	for sectionTitle, content := range sections {
		if strings.EqualFold(sectionTitle, title) {
			return content
		}
	}
	return ""
}

// ExtractList returns bullet list items ("-", "*" or "•").
func (p *Parser) ExtractList(text string) []string {
	return listItems(bulletRegex, text)
}

// ExtractNumberedList returns numbered list items ("1." or "1)").
func (p *Parser) ExtractNumberedList(text string) []string {
	return listItems(numberedListRegex, text)
}

func listItems(re *regexp.Regexp, text string) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	items := make([]string, 0, len(matches))
	for _, m := range matches {
		items = append(items, strings.TrimSpace(m[1]))
	}
	return items
}

var defaultParser = NewParser()

// Parse is a convenience function using the default parser.
func Parse(text string) *Response {
	return defaultParser.Parse(text)
}

// ExtractJSON is a convenience function for JSON extraction.
func ExtractJSON(text string) map[string]any {
	return defaultParser.ExtractJSON(text)
}

// ExtractCode is a convenience function for code extraction.
func ExtractCode(text, language string) string {
	return defaultParser.ExtractCode(text, language)
}
