// file: internal/models/book.go
// version: 1.0.0
// guid: 2c52d861-d60b-4c97-b2b4-471bcf7bcd89

package models

// Access levels a book can carry.
const (
	AccessFree     = "free"
	AccessStandard = "standard"
	AccessPremium  = "premium"
)

// Book represents an eBook in the catalog.
type Book struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Category     string   `json:"category"` // category name, not an id
	Description  string   `json:"description"`
	Cover        string   `json:"cover"`   // URL or data URL
	FileURL      string   `json:"fileUrl"` // URL or data URL
	Price        float64  `json:"price"`
	AccessLevel  string   `json:"accessLevel"`
	Rating       float64  `json:"rating"`
	Reviews      int      `json:"reviews"`
	PublishDate  string   `json:"publishDate"`
	Tags         []string `json:"tags"`
	KeyLessons   []string `json:"keyLessons,omitempty"`
	Summary      string   `json:"summary"`
	PreviewPages int      `json:"previewPages"`
	CreatedAt    string   `json:"createdAt,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate slices shared with the service mirror.
func (b Book) Clone() Book {
	out := b
	if b.Tags != nil {
		out.Tags = append([]string(nil), b.Tags...)
	}
	if b.KeyLessons != nil {
		out.KeyLessons = append([]string(nil), b.KeyLessons...)
	}
	return out
}

// BookPatch carries a partial update; nil fields are left untouched.
type BookPatch struct {
	Title        *string   `json:"title,omitempty"`
	Author       *string   `json:"author,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Cover        *string   `json:"cover,omitempty"`
	FileURL      *string   `json:"fileUrl,omitempty"`
	Price        *float64  `json:"price,omitempty"`
	AccessLevel  *string   `json:"accessLevel,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	Reviews      *int      `json:"reviews,omitempty"`
	PublishDate  *string   `json:"publishDate,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	KeyLessons   *[]string `json:"keyLessons,omitempty"`
	Summary      *string   `json:"summary,omitempty"`
	PreviewPages *int      `json:"previewPages,omitempty"`
}

// Apply shallow-merges the patch over b and returns the merged record.
func (p BookPatch) Apply(b Book) Book {
	out := b.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Author != nil {
		out.Author = *p.Author
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Cover != nil {
		out.Cover = *p.Cover
	}
	if p.FileURL != nil {
		out.FileURL = *p.FileURL
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if p.AccessLevel != nil {
		out.AccessLevel = *p.AccessLevel
	}
	if p.Rating != nil {
		out.Rating = *p.Rating
	}
	if p.Reviews != nil {
		out.Reviews = *p.Reviews
	}
	if p.PublishDate != nil {
		out.PublishDate = *p.PublishDate
	}
	if p.Tags != nil {
		out.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.KeyLessons != nil {
		out.KeyLessons = append([]string{}, (*p.KeyLessons)...)
	}
	if p.Summary != nil {
		out.Summary = *p.Summary
	}
	if p.PreviewPages != nil {
		out.PreviewPages = *p.PreviewPages
	}
	return out
}

// IsValidAccessLevel reports whether level is one of the known access levels.
func IsValidAccessLevel(level string) bool {
	switch level {
	case AccessFree, AccessStandard, AccessPremium:
		return true
	}
	return false
}
