// file: internal/search/index.go
// version: 1.0.0
// guid: dbc5f90f-805b-4aff-95d1-245440d5eea3

// Package search keeps a bleve full-text index over the book catalog for
// relevance-ranked search. The index lives in memory and is rebuilt from the
// books collection whenever the collection version moves.
package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/jdfalk/cliqbook/internal/models"
)

// DefaultLimit caps results when the caller passes no limit.
const DefaultLimit = 20

// document is the indexed projection of a book.
type document struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Hit is one ranked search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Index is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	idx     bleve.Index
	version uint64
	built   bool
}

// NewIndex returns an empty index; call Refresh before searching.
func NewIndex() *Index {
	return &Index{}
}

func buildMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = standard.Name
	return m
}

// Refresh rebuilds the index from books unless it was already built for version.
func (ix *Index) Refresh(version uint64, books []models.Book) error {
	ix.mu.RLock()
	fresh := ix.built && ix.version == version
	ix.mu.RUnlock()
	if fresh {
		return nil
	}

	next, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return fmt.Errorf("create search index: %w", err)
	}
	batch := next.NewBatch()
	for _, b := range books {
		doc := document{
			Title:       b.Title,
			Author:      b.Author,
			Category:    b.Category,
			Description: b.Description,
			Tags:        b.Tags,
		}
		if err := batch.Index(b.ID, doc); err != nil {
			next.Close()
			return fmt.Errorf("index book %s: %w", b.ID, err)
		}
	}
	if err := next.Batch(batch); err != nil {
		next.Close()
		return fmt.Errorf("index books: %w", err)
	}

	ix.mu.Lock()
	old := ix.idx
	ix.idx = next
	ix.version = version
	ix.built = true
	ix.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Search returns book ids ranked by relevance. Title and author matches
// weigh more than description matches, and single typos are tolerated.
func (ix *Index) Search(text string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.idx == nil || text == "" {
		return []Hit{}, nil
	}

	req := bleve.NewSearchRequestOptions(buildQuery(text), limit, 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

func buildQuery(text string) query.Query {
	field := func(name string, boost float64) query.Query {
		q := bleve.NewMatchQuery(text)
		q.SetField(name)
		q.SetFuzziness(1)
		q.SetBoost(boost)
		return q
	}
	return bleve.NewDisjunctionQuery(
		field("title", 3),
		field("author", 2),
		field("tags", 1.5),
		field("category", 1),
		field("description", 1),
	)
}

// Version reports the collection version the index was built from.
func (ix *Index) Version() (uint64, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version, ix.built
}

// Close releases the index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.idx == nil {
		return nil
	}
	err := ix.idx.Close()
	ix.idx = nil
	ix.built = false
	return err
}
