// file: internal/testutil/fixtures.go
// version: 2.0.0
// guid: 1f5d3125-1200-4b30-935d-172f142238cf

// Package testutil holds helpers shared by package tests: fixture files,
// a fake fixture host and an in-memory application config.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jdfalk/cliqbook/internal/config"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Small fixture documents in the shape of books.json and categories.json.
const (
	TwoCategoriesJSON = `[{"id":"fiction","name":"Fiction"},{"id":"money","name":"Money"}]`
	OneBookJSON       = `[{"id":"b001","title":"Dune","author":"Frank Herbert","category":"Fiction","accessLevel":"standard","rating":4.6,"reviews":8120}]`
	EmptyListJSON     = `[]`
)

// MockFixtureServer serves fixture documents. The responses map keys are
// matched against the request URL using Contains; anything else is a 404.
func MockFixtureServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for pattern, body := range responses {
			if strings.Contains(r.URL.String(), pattern) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// WriteFixtures writes name→content files into dir and returns dir.
func WriteFixtures(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
	}
	return dir
}

// MemoryConfig returns a validated config backed by the memory store with
// the cheapest bcrypt cost. set overrides individual keys.
func MemoryConfig(t *testing.T, set map[string]any) config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("database_type", "memory")
	v.Set("bcrypt_cost", bcrypt.MinCost)
	for k, val := range set {
		v.Set(k, val)
	}
	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("load test config: %v", err)
	}
	return cfg
}
