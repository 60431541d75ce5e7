// file: internal/seed/seed.go
// version: 1.0.0
// guid: bf14af51-db76-43e0-b483-d77af9e8c3ac

// Package seed populates an empty store with the bootstrap users and the
// fixture catalog, and loads the category reference list.
package seed

import (
	"context"
	"fmt"

	"github.com/jdfalk/cliqbook/internal/catalog"
	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// BootstrapPassword is the password of every seeded account.
const BootstrapPassword = "password"

// FallbackCategories is used when the category fixture cannot be loaded.
func FallbackCategories() []models.Category {
	names := []struct{ id, name string }{
		{"self-help", "Self Help"},
		{"money", "Money"},
		{"fiction", "Fiction"},
		{"technology", "Technology"},
		{"motivation", "Motivation"},
		{"trading", "Trading"},
	}
	out := make([]models.Category, len(names))
	for i, n := range names {
		out[i] = models.Category{ID: n.id, Name: n.name}
	}
	return out
}

func bootstrapAdmin() models.User {
	return models.User{ID: "u001", Name: "John Doe", Email: "john@example.com", Membership: models.MembershipPremium, CreatedAt: "2023-01-15", IsAdmin: true, Bookmarks: []string{}}
}

func bootstrapMembers() []models.User {
	return []models.User{
		{ID: "u002", Name: "Jane Smith", Email: "jane@example.com", Membership: models.MembershipFree, CreatedAt: "2023-02-20", Bookmarks: []string{}},
		{ID: "u003", Name: "Peter Jones", Email: "peter@example.com", Membership: models.MembershipPremium, CreatedAt: "2023-03-10", Bookmarks: []string{}},
	}
}

// Options tunes a seed run.
type Options struct {
	// HashCost is the bcrypt cost for seeded passwords; zero means bcrypt.DefaultCost.
	HashCost int
}

// Result reports what a run did.
type Result struct {
	Categories       []models.Category `json:"categories"`
	CategoryFallback bool              `json:"categoryFallback"`
	BooksSeeded      int               `json:"booksSeeded"`
	UsersSeeded      int               `json:"usersSeeded"`
}

// Run seeds store from src. Categories are always loaded fresh; books are
// written only when the books key is absent; the bootstrap admin is added
// when no admin exists, together with two members when there were no users
// at all. Fixture failures are logged and degrade to fallbacks; only store
// errors are returned.
func Run(ctx context.Context, store database.Store, src Source, log zerolog.Logger, opts Options) (Result, error) {
	log = log.With().Str("service", "seed").Str("source", src.Name()).Logger()
	var res Result

	res.Categories, res.CategoryFallback = LoadCategories(ctx, src, log)

	n, err := seedBooks(ctx, store, src, log)
	if err != nil {
		return res, err
	}
	res.BooksSeeded = n

	n, err = seedUsers(store, opts.HashCost, log)
	if err != nil {
		return res, err
	}
	res.UsersSeeded = n
	return res, nil
}

// LoadCategories fetches the category list, falling back to the hardcoded
// names when the fixture cannot be read.
func LoadCategories(ctx context.Context, src Source, log zerolog.Logger) ([]models.Category, bool) {
	cats, err := src.Categories(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load categories, using fallback list")
		return FallbackCategories(), true
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, false
}

func seedBooks(ctx context.Context, store database.Store, src Source, log zerolog.Logger) (int, error) {
	present, err := database.Has(store, database.KeyBooks)
	if err != nil {
		return 0, err
	}
	if present {
		return 0, nil
	}
	books, err := src.Books(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load book fixtures, catalog starts empty")
		return 0, nil
	}
	if books == nil {
		books = []models.Book{}
	}
	if err := database.SetJSON(store, database.KeyBooks, books); err != nil {
		return 0, err
	}
	log.Info().Int("books", len(books)).Msg("seeded book catalog")
	return len(books), nil
}

func seedUsers(store database.Store, cost int, log zerolog.Logger) (int, error) {
	var users []models.User
	if _, err := database.GetJSON(store, database.KeyUsers, &users); err != nil {
		return 0, err
	}
	for _, u := range users {
		if u.IsAdmin {
			return 0, nil
		}
	}

	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := catalog.HashPassword(BootstrapPassword, cost)
	if err != nil {
		return 0, err
	}

	wasEmpty := len(users) == 0
	admin := bootstrapAdmin()
	admin.PasswordHash = hash
	users = append([]models.User{admin}, users...)
	added := 1
	if wasEmpty {
		for _, m := range bootstrapMembers() {
			m.PasswordHash = hash
			users = append(users, m)
			added++
		}
	}

	if err := database.SetJSON(store, database.KeyUsers, users); err != nil {
		return 0, fmt.Errorf("save seeded users: %w", err)
	}
	log.Info().Int("users", added).Msg("seeded bootstrap users")
	return added, nil
}
