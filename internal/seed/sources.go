// file: internal/seed/sources.go
// version: 1.0.0
// guid: fe8df716-56d3-43a4-a948-9db852a10781

package seed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/models"
)

// Fixture file names.
const (
	BooksFile      = "books.json"
	CategoriesFile = "categories.json"
)

// maxFixtureBytes caps a fetched fixture so a bad URL cannot exhaust memory.
const maxFixtureBytes = 32 << 20

//go:embed fixtures/*.json
var embedded embed.FS

// Source supplies the static fixture data. Failures wrap apperrors.ErrFetch.
type Source interface {
	Name() string
	Books(ctx context.Context) ([]models.Book, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// fsSource reads fixtures from any fs.FS.
type fsSource struct {
	name string
	fsys fs.FS
}

// Embedded returns the fixtures compiled into the binary.
func Embedded() Source {
	sub, err := fs.Sub(embedded, "fixtures")
	if err != nil {
		panic(fmt.Sprintf("embedded fixtures: %v", err))
	}
	return &fsSource{name: "embedded", fsys: sub}
}

// Dir returns a source reading fixtures from a directory on disk.
func Dir(dir string) Source {
	return &fsSource{name: "dir:" + dir, fsys: os.DirFS(dir)}
}

func (s *fsSource) Name() string { return s.name }

func (s *fsSource) Books(ctx context.Context) ([]models.Book, error) {
	var out []models.Book
	return out, s.read(BooksFile, &out)
}

func (s *fsSource) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	return out, s.read(CategoriesFile, &out)
}

func (s *fsSource) read(name string, dest any) error {
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return fmt.Errorf("%s: read %s: %w: %v", s.name, name, apperrors.ErrFetch, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%s: decode %s: %w: %v", s.name, name, apperrors.ErrFetch, err)
	}
	return nil
}

// httpSource fetches fixtures relative to a base URL. There are no retries.
type httpSource struct {
	base   *url.URL
	client *http.Client
}

// HTTP returns a source fetching <base>/books.json and <base>/categories.json.
func HTTP(base string, timeout time.Duration) (Source, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid fixtures url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid fixtures url %q: scheme must be http or https", base)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpSource{base: u, client: &http.Client{Timeout: timeout}}, nil
}

func (s *httpSource) Name() string { return "http:" + s.base.String() }

func (s *httpSource) Books(ctx context.Context) ([]models.Book, error) {
	var out []models.Book
	return out, s.get(ctx, BooksFile, &out)
}

func (s *httpSource) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	return out, s.get(ctx, CategoriesFile, &out)
}

func (s *httpSource) get(ctx context.Context, name string, dest any) error {
	target := s.base.ResolveReference(&url.URL{Path: name}).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", target, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w: %v", target, apperrors.ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %w: status %d", target, apperrors.ErrFetch, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFixtureBytes))
	if err != nil {
		return fmt.Errorf("GET %s: %w: %v", target, apperrors.ErrFetch, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("GET %s: decode: %w: %v", target, apperrors.ErrFetch, err)
	}
	return nil
}

// Select picks the fixture source from configuration: a URL wins over a
// directory, which wins over the embedded fixtures.
func Select(dir, rawURL string, timeout time.Duration) (Source, error) {
	switch {
	case rawURL != "":
		return HTTP(rawURL, timeout)
	case dir != "":
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve fixtures dir %q: %w", dir, err)
		}
		return Dir(abs), nil
	default:
		return Embedded(), nil
	}
}
