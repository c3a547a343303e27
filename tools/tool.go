package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/randalmurphal/promptchain/provider"
)

// Errors returned by Dispatch.
var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
	ErrDuplicateTool    = errors.New("tool already registered")
)

// Handler runs a tool against raw JSON arguments and returns a raw JSON
// result.
type Handler func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

// Tool is a callable entry in a Registry.
type Tool struct {
	Name        string
	Description string
	Schema      json.RawMessage

	handler Handler
}

// Definition returns the tool as offered to a model.
func (t *Tool) Definition() provider.Tool {
	return provider.Tool{Name: t.Name, Description: t.Description, Parameters: t.Schema}
}

// Call runs the tool's handler.
func (t *Tool) Call(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	return t.handler(ctx, args)
}

// New builds a tool whose arguments decode into I and whose result is O
// encoded as JSON. I must be a struct; its JSON Schema is reflected from its
// fields and `jsonschema` tags. Unknown argument fields are rejected.
func New[I, O any](name, description string, fn func(ctx context.Context, in I) (O, error)) (*Tool, error) {
	if name == "" {
		return nil, errors.New("tool name is required")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %q: handler is required", name)
	}
	schema, err := schemaFor[I]()
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}

	handler := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var in I
		if len(bytes.TrimSpace(args)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(args))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&in); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
			}
		}
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	}
	return &Tool{Name: name, Description: description, Schema: schema, handler: handler}, nil
}

// MustNew is like New but panics on error.
func MustNew[I, O any](name, description string, fn func(ctx context.Context, in I) (O, error)) *Tool {
	t, err := New(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// NewRaw builds a tool from an explicit schema and an untyped handler.
func NewRaw(name, description string, schema json.RawMessage, handler Handler) (*Tool, error) {
	if name == "" {
		return nil, errors.New("tool name is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("tool %q: handler is required", name)
	}
	if !json.Valid(schema) {
		return nil, fmt.Errorf("tool %q: schema is not valid JSON", name)
	}
	return &Tool{Name: name, Description: description, Schema: schema, handler: handler}, nil
}

func schemaFor[I any]() (json.RawMessage, error) {
	typ := reflect.TypeFor[I]()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input type %s must be a struct", typ)
	}
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.ReflectFromType(typ)
	s.Version = ""
	s.ID = ""
	return json.Marshal(s)
}
