// file: internal/filter/suggest.go
// version: 1.0.0
// guid: 99ea53b5-bcf6-46e5-a19e-269ba5d2df4f

package filter

import (
	"sort"

	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggestion is a title completion for the search box.
type Suggestion struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Distance int    `json:"distance"`
}

// Suggest returns up to limit books whose title fuzzily contains query
// (characters in order, case-insensitive), closest first.
func Suggest(books []models.Book, query string, limit int) []Suggestion {
	if query == "" {
		return []Suggestion{}
	}
	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = b.Title
	}

	ranks := fuzzy.RankFindFold(query, titles)
	sort.Stable(ranks)

	out := make([]Suggestion, 0, len(ranks))
	for _, r := range ranks {
		b := books[r.OriginalIndex]
		out = append(out, Suggestion{ID: b.ID, Title: b.Title, Author: b.Author, Distance: r.Distance})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
