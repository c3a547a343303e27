package retrieval

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
)

type item struct {
	id     string
	vector []float32
	norm   float64
	text   string
}

// MemoryIndex is a brute-force cosine similarity index held in memory.
// The first vector added fixes the dimension. It is safe for concurrent use.
type MemoryIndex struct {
	mu    sync.RWMutex
	dim   int
	items []item
	pos   map[string]int
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{pos: make(map[string]int)}
}

// Add stores vector under id, replacing any previous entry.
func (m *MemoryIndex) Add(id string, vector []float32) error {
	return m.AddText(id, vector, "")
}

// AddText stores vector under id along with the document text.
func (m *MemoryIndex) AddText(id string, vector []float32, text string) error {
	if id == "" {
		return fmt.Errorf("retrieval: empty document id")
	}
	if len(vector) == 0 {
		return fmt.Errorf("retrieval: %w: empty vector for %q", ErrDimension, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dim == 0 {
		m.dim = len(vector)
	}
	if len(vector) != m.dim {
		return fmt.Errorf("retrieval: %w: %q has %d, index has %d", ErrDimension, id, len(vector), m.dim)
	}
	it := item{id: id, vector: slices.Clone(vector), norm: norm(vector), text: text}
	if i, ok := m.pos[id]; ok {
		m.items[i] = it
		return nil
	}
	m.pos[id] = len(m.items)
	m.items = append(m.items, it)
	return nil
}

// Len returns the number of stored vectors.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Dimension returns the vector dimension, or 0 for an empty index.
func (m *MemoryIndex) Dimension() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dim
}

// Text returns the text stored with id. It satisfies Lookup.
func (m *MemoryIndex) Text(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.pos[id]
	if !ok {
		return "", false
	}
	return m.items[i].text, true
}

// Query returns the k stored vectors most similar to vector by cosine
// similarity, best first. Equal scores are ordered by ID. A zero vector
// scores 0 against everything.
func (m *MemoryIndex) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("retrieval: k must be positive, got %d", k)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.items) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(vector) != m.dim {
		return nil, fmt.Errorf("retrieval: %w: query has %d, index has %d", ErrDimension, len(vector), m.dim)
	}

	qn := norm(vector)
	matches := make([]Match, 0, len(m.items))
	for _, it := range m.items {
		matches = append(matches, Match{ID: it.id, Score: cosine(vector, qn, it.vector, it.norm)})
	}
	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}

var _ Index = (*MemoryIndex)(nil)
