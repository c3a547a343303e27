package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// TiktokenCounter counts tokens with a BPE encoding. Claude models have no
// public tokenizer; cl100k_base is a close approximation for them.
type TiktokenCounter struct {
	codec    tokenizer.Codec
	fallback *EstimatingCounter
}

var (
	codecMu    sync.Mutex
	codecCache = make(map[tokenizer.Encoding]tokenizer.Codec)
)

// NewTiktokenCounter creates a counter for the named encoding
// ("cl100k_base", "o200k_base", ...). An empty name selects cl100k_base.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc := tokenizer.Encoding(encoding)
	if encoding == "" {
		enc = tokenizer.Cl100kBase
	}
	codec, err := getCodec(enc)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{codec: codec, fallback: NewEstimatingCounter()}, nil
}

// ForModel creates a counter with the encoding best suited to model.
func ForModel(model string) (*TiktokenCounter, error) {
	return NewTiktokenCounter(string(encodingFor(model)))
}

// Count returns the number of BPE tokens in text. If encoding fails the
// character estimate is returned instead.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return c.fallback.Count(text)
	}
	return len(ids)
}

// FitsInLimit returns true if the text fits within the token limit.
func (c *TiktokenCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

func getCodec(enc tokenizer.Encoding) (tokenizer.Codec, error) {
	codecMu.Lock()
	defer codecMu.Unlock()

	if codec, ok := codecCache[enc]; ok {
		return codec, nil
	}
	codec, err := tokenizer.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("tokenizer encoding %q: %w", enc, err)
	}
	codecCache[enc] = codec
	return codec, nil
}

func encodingFor(model string) tokenizer.Encoding {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-5"), strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	default:
		return tokenizer.Cl100kBase
	}
}
