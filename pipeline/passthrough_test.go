package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassthrough(t *testing.T) {
	in := Values{"request": "Book a ticket for London"}
	out, err := Passthrough().Invoke(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAssign(t *testing.T) {
	book := Func("book", func(_ context.Context, v Values) (string, error) {
		return "Result for input prompt: " + v["request"].(string), nil
	})
	in := Values{"request": "Book a ticket for London"}

	out, err := Assign(map[string]Stage{"output": book}).Invoke(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, Values{
		"request": "Book a ticket for London",
		"output":  "Result for input prompt: Book a ticket for London",
	}, out)
	assert.NotContains(t, in, "output", "input must not be mutated")
}

func TestAssign_RequiresValues(t *testing.T) {
	_, err := Assign(map[string]Stage{"x": Passthrough()}).Invoke(context.Background(), "str")
	var typeErr *TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestAssign_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	s := Assign(map[string]Stage{
		"bad": StageFunc(func(context.Context, any) (any, error) { return nil, boom }),
	})
	_, err := s.Invoke(context.Background(), Values{})
	assert.ErrorIs(t, err, boom)
}

func TestMap(t *testing.T) {
	s := Map(map[string]Stage{
		"specifications": upper(),
		"original":       Passthrough(),
	})
	out, err := s.Invoke(context.Background(), "16gb ram")
	require.NoError(t, err)
	assert.Equal(t, Values{"specifications": "16GB RAM", "original": "16gb ram"}, out)
}

func TestPick(t *testing.T) {
	out, err := Pick("output").Invoke(context.Background(), Values{"output": 7})
	require.NoError(t, err)
	assert.Equal(t, 7, out)

	_, err = Pick("missing").Invoke(context.Background(), Values{})
	var keyErr *KeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "missing", keyErr.Key)

	out, err = Pick("k").Invoke(context.Background(), map[string]any{"k": "plain map"})
	require.NoError(t, err)
	assert.Equal(t, "plain map", out)
}

func TestValues(t *testing.T) {
	v := Values{"s": "x", "n": 3}
	c := v.Clone()
	c["s"] = "y"
	assert.Equal(t, "x", v["s"])

	s, ok := v.String("n")
	assert.True(t, ok)
	assert.Equal(t, "3", s)

	_, ok = v.String("missing")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"s", "n"}, v.Keys())
	assert.NotNil(t, Values(nil).Clone())
}
