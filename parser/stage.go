package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/prompt"
	"github.com/randalmurphal/promptchain/provider"
)

// Errors returned by the parsing stages.
var (
	// ErrNoJSON is returned when the text contains no JSON object.
	ErrNoJSON = errors.New("no JSON object in output")

	// ErrNoCode is returned when the text contains no matching code block.
	ErrNoCode = errors.New("no matching code block in output")

	// ErrNoTag is returned when the text contains no matching tag.
	ErrNoTag = errors.New("no matching tag in output")
)

// Text returns the text carried by a stage value: the content of a
// provider response, a rendered prompt, a string or a fmt.Stringer.
func Text(input any) (string, error) {
	switch v := input.(type) {
	case string:
		return v, nil
	case *provider.Response:
		if v == nil {
			return "", nil
		}
		return v.Content, nil
	case provider.Response:
		return v.Content, nil
	case prompt.Prompt:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", &pipeline.TypeError{Stage: "parser", Want: "string, *provider.Response or prompt.Prompt", Got: fmt.Sprintf("%T", input)}
	}
}

func textStage(name string, fn func(text string) (any, error)) pipeline.Stage {
	return pipeline.Named(name, pipeline.StageFunc(func(_ context.Context, input any) (any, error) {
		text, err := Text(input)
		if err != nil {
			return nil, err
		}
		return fn(text)
	}))
}

// String returns a stage producing the trimmed output text.
func String() pipeline.Stage {
	return textStage("string", func(text string) (any, error) {
		return strings.TrimSpace(text), nil
	})
}

// JSON returns a stage producing the first JSON object in the output as a
// map[string]any. It fails with ErrNoJSON when there is none.
func JSON() pipeline.Stage {
	return textStage("json", func(text string) (any, error) {
		obj := defaultParser.ExtractJSON(text)
		if obj == nil {
			return nil, ErrNoJSON
		}
		return obj, nil
	})
}

// List returns a stage producing a []string. Bullet items are used when
// present, then numbered items, then comma-separated values for single-line
// output, then non-empty lines.
func List() pipeline.Stage {
	return textStage("list", func(text string) (any, error) {
		return splitList(text), nil
	})
}

func splitList(text string) []string {
	if items := defaultParser.ExtractList(text); len(items) > 0 {
		return items
	}
	if items := defaultParser.ExtractNumberedList(text); len(items) > 0 {
		return items
	}

	text = strings.TrimSpace(text)
	sep := "\n"
	if !strings.Contains(text, "\n") {
		sep = ","
	}
	items := []string{}
	for _, part := range strings.Split(text, sep) {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// Code returns a stage producing the content of the first code block in
// language ("" for any). It fails with ErrNoCode when there is none.
func Code(language string) pipeline.Stage {
	return textStage("code", func(text string) (any, error) {
		if !defaultParser.HasCodeBlock(text) {
			return nil, ErrNoCode
		}
		for _, block := range defaultParser.ExtractAllCode(text) {
			if language == "" || strings.EqualFold(block.Language, language) {
				return block.Content, nil
			}
		}
		return nil, fmt.Errorf("%w: language %q", ErrNoCode, language)
	})
}

// Tag returns a stage producing the value of the first <tag>...</tag> in the
// output. It fails with ErrNoTag when there is none.
func Tag(tag string) pipeline.Stage {
	matcher := NewMarkerMatcher(tag)
	return textStage("tag", func(text string) (any, error) {
		marker, ok := matcher.FindFirst(text, tag)
		if !ok {
			return nil, fmt.Errorf("%w: <%s>", ErrNoTag, tag)
		}
		return marker.Value, nil
	})
}
