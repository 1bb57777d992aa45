package vectorstore

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/Veraticus/customs-ai/internal/model"
)

type memoryPoint struct {
	meta   map[string]string
	id     string
	vector []float32
}

// Memory is an in-process brute-force cosine index.
type Memory struct {
	index  map[string]int
	points []memoryPoint
	mu     sync.RWMutex
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{index: make(map[string]int)}
}

// Upsert inserts or replaces the point with id.
func (m *Memory) Upsert(ctx context.Context, id string, vector []float32, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return errors.New("memory: empty point id")
	}
	if len(vector) == 0 {
		return errors.New("memory: empty vector")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.points) > 0 && len(m.points[0].vector) != len(vector) {
		return errors.New("memory: vector dimension mismatch")
	}

	p := memoryPoint{id: id, vector: append([]float32(nil), vector...), meta: copyMeta(meta)}
	if i, ok := m.index[id]; ok {
		m.points[i] = p
		return nil
	}
	m.index[id] = len(m.points)
	m.points = append(m.points, p)
	return nil
}

// Query returns the k points most similar to vector.
func (m *Memory) Query(ctx context.Context, vector []float32, k int) ([]model.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]model.Match, 0, len(m.points))
	for _, p := range m.points {
		matches = append(matches, model.MatchFromMetadata(p.meta, cosine(p.vector, vector)))
	}
	return model.SortMatches(matches, k), nil
}

// Len reports the number of stored points.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func copyMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
