// Package retrieval provides the embedding and similarity-search
// collaborators used by retrieval-augmented pipelines.
//
// An Embedder turns texts into vectors and an Index answers nearest-neighbour
// queries over stored vectors. Retriever combines the two into a pipeline
// stage that maps a question to the most similar documents.
package retrieval

import (
	"context"
	"errors"
	"strings"
)

// Errors returned by indexes and embedders.
var (
	ErrDimension  = errors.New("vector dimension mismatch")
	ErrEmptyIndex = errors.New("index is empty")
	ErrEmbedding  = errors.New("embedding failed")
)

// Embedder converts texts into vectors, one per text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Embed implements Embedder.
func (f EmbedderFunc) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f(ctx, texts)
}

// Index answers similarity queries. Matches are ordered by descending score.
type Index interface {
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
}

// Match is one query hit.
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Document is a retrieved match with its text resolved.
type Document struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// Documents is the output of a Retriever stage.
type Documents []Document

// String joins the document texts, separated by "---" lines, so the
// result can be dropped into a prompt.
func (d Documents) String() string {
	var b strings.Builder
	for i, doc := range d {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("---\n")
		b.WriteString(doc.Text)
	}
	return b.String()
}

// Lookup resolves a document ID to its text.
type Lookup func(id string) (string, bool)
