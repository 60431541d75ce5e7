// file: internal/seed/seed_test.go
// version: 1.0.0
// guid: 2216d15e-b864-47db-a59d-11a62d0d77d4

package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/jdfalk/cliqbook/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Books(context.Context) ([]models.Book, error) {
	return nil, apperrors.ErrFetch
}
func (failingSource) Categories(context.Context) ([]models.Category, error) {
	return nil, apperrors.ErrFetch
}

func runSeed(t *testing.T, store database.Store, src Source) Result {
	t.Helper()
	res, err := Run(context.Background(), store, src, zerolog.Nop(), Options{HashCost: bcrypt.MinCost})
	require.NoError(t, err)
	return res
}

func loadUsers(t *testing.T, store database.Store) []models.User {
	t.Helper()
	var users []models.User
	_, err := database.GetJSON(store, database.KeyUsers, &users)
	require.NoError(t, err)
	return users
}

func TestRunSeedsEmptyStore(t *testing.T) {
	store := database.NewMemoryStore()
	res := runSeed(t, store, Embedded())

	assert.Len(t, res.Categories, 6)
	assert.False(t, res.CategoryFallback)
	assert.Equal(t, 10, res.BooksSeeded)
	assert.Equal(t, 3, res.UsersSeeded)

	users := loadUsers(t, store)
	require.Len(t, users, 3)
	assert.Equal(t, "u001", users[0].ID)
	assert.True(t, users[0].IsAdmin)
	assert.Equal(t, "john@example.com", users[0].Email)
	assert.Equal(t, "u002", users[1].ID)
	assert.Equal(t, models.MembershipFree, users[1].Membership)
	assert.Equal(t, "u003", users[2].ID)
	assert.Equal(t, models.MembershipPremium, users[2].Membership)
	for _, u := range users {
		assert.NotNil(t, u.Bookmarks)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(BootstrapPassword)))
	}

	var books []models.Book
	found, err := database.GetJSON(store, database.KeyBooks, &books)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, books, 10)
}

func TestRunIsIdempotent(t *testing.T) {
	store := database.NewMemoryStore()
	runSeed(t, store, Embedded())

	res := runSeed(t, store, Embedded())
	assert.Zero(t, res.BooksSeeded)
	assert.Zero(t, res.UsersSeeded)
	assert.Len(t, loadUsers(t, store), 3)
}

func TestRunPrependsAdminToExistingMembers(t *testing.T) {
	store := database.NewMemoryStore()
	existing := []models.User{
		{ID: "u010", Name: "A", Email: "a@example.com", Membership: models.MembershipFree, Bookmarks: []string{}},
		{ID: "u011", Name: "B", Email: "b@example.com", Membership: models.MembershipFree, Bookmarks: []string{}},
	}
	require.NoError(t, database.SetJSON(store, database.KeyUsers, existing))

	res := runSeed(t, store, Embedded())
	assert.Equal(t, 1, res.UsersSeeded)

	users := loadUsers(t, store)
	require.Len(t, users, 3)
	assert.Equal(t, "u001", users[0].ID)
	assert.Equal(t, "u010", users[1].ID)
	assert.Equal(t, "u011", users[2].ID)
}

func TestRunKeepsEmptyBookCatalog(t *testing.T) {
	store := database.NewMemoryStore()
	require.NoError(t, database.SetJSON(store, database.KeyBooks, []models.Book{}))

	res := runSeed(t, store, Embedded())
	assert.Zero(t, res.BooksSeeded)

	var books []models.Book
	_, err := database.GetJSON(store, database.KeyBooks, &books)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestRunFallsBackWhenFixturesFail(t *testing.T) {
	store := database.NewMemoryStore()
	res := runSeed(t, store, failingSource{})

	assert.True(t, res.CategoryFallback)
	assert.Equal(t, FallbackCategories(), res.Categories)
	assert.Zero(t, res.BooksSeeded)
	assert.Equal(t, 3, res.UsersSeeded)

	has, err := database.Has(store, database.KeyBooks)
	require.NoError(t, err)
	assert.False(t, has, "a failed fetch must leave the books key absent so a later run can retry")
}

func TestRunReturnsStoreErrors(t *testing.T) {
	store := database.NewMockStore()
	store.SetFunc = func(key string, value []byte) error {
		return errors.New("disk full")
	}
	_, err := Run(context.Background(), store, Embedded(), zerolog.Nop(), Options{HashCost: bcrypt.MinCost})
	require.Error(t, err)
}

func TestDirSource(t *testing.T) {
	dir := testutil.WriteFixtures(t, t.TempDir(), map[string]string{CategoriesFile: `[{"id":"x","name":"X"}]`})

	src := Dir(dir)
	cats, err := src.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{ID: "x", Name: "X"}}, cats)

	_, err = src.Books(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrFetch)
}

func TestHTTPSource(t *testing.T) {
	srv := testutil.MockFixtureServer(t, map[string]string{
		"/data/categories.json": testutil.TwoCategoriesJSON,
		"/data/books.json":      `not json`,
	})

	src, err := HTTP(srv.URL+"/data", time.Second)
	require.NoError(t, err)

	cats, err := src.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Fiction", cats[0].Name)

	_, err = src.Books(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrFetch)

	missing, err := HTTP(srv.URL+"/nowhere", time.Second)
	require.NoError(t, err)
	_, err = missing.Categories(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrFetch)
}

func TestHTTPRejectsBadScheme(t *testing.T) {
	_, err := HTTP("ftp://example.com", time.Second)
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	src, err := Select("", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "embedded", src.Name())

	src, err = Select(t.TempDir(), "", 0)
	require.NoError(t, err)
	assert.Contains(t, src.Name(), "dir:")

	src, err = Select("ignored", "http://localhost:9", 0)
	require.NoError(t, err)
	assert.Contains(t, src.Name(), "http:")
}

func TestWatchCategoriesReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CategoriesFile)
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a","name":"A"}]`), 0o644))

	var mu sync.Mutex
	var got []models.Category
	cw, err := WatchCategories(dir, func(c []models.Category) {
		mu.Lock()
		got = c
		mu.Unlock()
	}, zerolog.Nop())
	require.NoError(t, err)
	defer cw.Stop()

	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"b","name":"B"},{"id":"c","name":"C"}]`), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 5*time.Second, 50*time.Millisecond)
}
