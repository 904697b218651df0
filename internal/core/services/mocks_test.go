package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
)

// mockSearchAPI serves counts and pages from programmable functions.
type mockSearchAPI struct {
	mu      sync.Mutex
	countFn func(r domain.DomainRange) (int, error)
	pageFn  func(r domain.DomainRange, page int) (*driven.SearchPage, error)

	countCalls  int
	searchCalls int
}

var _ driven.SearchAPI = (*mockSearchAPI)(nil)

func (m *mockSearchAPI) Count(_ context.Context, r domain.DomainRange) (int, error) {
	m.mu.Lock()
	m.countCalls++
	m.mu.Unlock()
	return m.countFn(r)
}

func (m *mockSearchAPI) Search(_ context.Context, r domain.DomainRange, page int) (*driven.SearchPage, error) {
	m.mu.Lock()
	m.searchCalls++
	m.mu.Unlock()
	return m.pageFn(r, page)
}

// mockFetcher serves README content keyed by "owner/repo".
type mockFetcher struct {
	mu      sync.Mutex
	readmes map[string]string
	err     error
	calls   int
}

var _ driven.DetailFetcher = (*mockFetcher)(nil)

func (m *mockFetcher) FetchReadme(_ context.Context, owner, repo, _ string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	readme, ok := m.readmes[owner+"/"+repo]
	if !ok {
		return "", domain.ErrNotFound
	}
	return readme, nil
}

// mockEmbedder returns a fixed vector per matching substring, so tests
// can steer similarity without a real model.
type mockEmbedder struct {
	vectors map[string][]float32
	err     error
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	for key, vector := range m.vectors {
		if strings.Contains(text, key) {
			return vector, nil
		}
	}
	return []float32{0, 0}, nil
}

func (m *mockEmbedder) Dimensions() int              { return 2 }
func (m *mockEmbedder) ModelName() string            { return "mock" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedder) Close() error                 { return nil }
