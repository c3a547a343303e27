package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/randalmurphal/promptchain/pipeline"
)

// RetrieverOption configures a Retriever stage.
type RetrieverOption func(*retrieverConfig)

type retrieverConfig struct {
	key      string
	lookup   Lookup
	minScore float64
	hasMin   bool
}

// WithQueryKey reads the query text from this key when the input is Values.
// The default is "input".
func WithQueryKey(key string) RetrieverOption {
	return func(c *retrieverConfig) { c.key = key }
}

// WithLookup resolves matched IDs to document text. Matches the lookup
// does not know are dropped.
func WithLookup(fn Lookup) RetrieverOption {
	return func(c *retrieverConfig) { c.lookup = fn }
}

// WithMinScore drops matches scoring below score.
func WithMinScore(score float64) RetrieverOption {
	return func(c *retrieverConfig) {
		c.minScore = score
		c.hasMin = true
	}
}

// Retriever returns a stage that embeds its input, queries index for the k
// best matches and emits them as Documents. The input is a string or Values
// holding the query under the query key. When index is a *MemoryIndex and
// no Lookup is given, texts stored in the index are used.
func Retriever(embedder Embedder, index Index, k int, opts ...RetrieverOption) (pipeline.Stage, error) {
	if embedder == nil || index == nil {
		return nil, &pipeline.ConfigurationError{Reason: "retriever requires an embedder and an index"}
	}
	if k <= 0 {
		return nil, &pipeline.ConfigurationError{Reason: fmt.Sprintf("retriever k must be positive, got %d", k)}
	}
	cfg := &retrieverConfig{key: "input"}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.lookup == nil {
		if mi, ok := index.(*MemoryIndex); ok {
			cfg.lookup = mi.Text
		}
	}

	return pipeline.Named("retriever", pipeline.StageFunc(func(ctx context.Context, input any) (any, error) {
		query, err := queryText(input, cfg.key)
		if err != nil {
			return nil, err
		}
		vectors, err := embedder.Embed(ctx, []string{query})
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("%w: got %d vectors for 1 query", ErrEmbedding, len(vectors))
		}
		matches, err := index.Query(ctx, vectors[0], k)
		if err != nil {
			return nil, err
		}

		docs := make(Documents, 0, len(matches))
		for _, m := range matches {
			if cfg.hasMin && m.Score < cfg.minScore {
				continue
			}
			doc := Document{ID: m.ID, Score: m.Score}
			if cfg.lookup != nil {
				text, ok := cfg.lookup(m.ID)
				if !ok {
					continue
				}
				doc.Text = text
			}
			docs = append(docs, doc)
		}
		slog.Debug("retrieved documents", slog.Int("matches", len(matches)), slog.Int("documents", len(docs)))
		return docs, nil
	})), nil
}

func queryText(input any, key string) (string, error) {
	if s, ok := input.(string); ok {
		return s, nil
	}
	vals, ok := pipeline.AsValues(input)
	if !ok {
		return "", &pipeline.TypeError{Stage: "retriever", Want: "string or pipeline.Values", Got: fmt.Sprintf("%T", input)}
	}
	s, ok := vals.String(key)
	if !ok {
		return "", &pipeline.KeyError{Key: key}
	}
	return s, nil
}

// IndexTexts embeds texts in one call and stores them in index keyed by
// their map key.
func IndexTexts(ctx context.Context, embedder Embedder, index *MemoryIndex, texts map[string]string) error {
	ids := make([]string, 0, len(texts))
	for id := range texts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	batch := make([]string, len(ids))
	for i, id := range ids {
		batch[i] = texts[id]
	}
	vectors, err := embedder.Embed(ctx, batch)
	if err != nil {
		return err
	}
	if len(vectors) != len(ids) {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbedding, len(vectors), len(ids))
	}
	for i, id := range ids {
		if err := index.AddText(id, vectors[i], batch[i]); err != nil {
			return err
		}
	}
	return nil
}
