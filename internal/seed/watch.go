// file: internal/seed/watch.go
// version: 1.0.0
// guid: 744a55f9-afce-4524-98c8-501dad67373a

package seed

import (
	"context"
	"time"

	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/jdfalk/cliqbook/internal/watcher"
	"github.com/rs/zerolog"
)

// CategoryWatcher reloads categories from a fixtures directory whenever
// categories.json changes on disk.
type CategoryWatcher struct {
	w *watcher.Watcher
}

// WatchCategories starts watching dir and calls apply with each reloaded
// list. A reload that fails keeps the current list.
func WatchCategories(dir string, apply func([]models.Category), log zerolog.Logger) (*CategoryWatcher, error) {
	src := Dir(dir)
	log = log.With().Str("service", "seed").Str("source", src.Name()).Logger()

	reload := func(string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cats, err := src.Categories(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("category reload failed, keeping current list")
			return
		}
		apply(cats)
		log.Info().Int("categories", len(cats)).Msg("categories reloaded")
	}

	w := watcher.New(reload, watcher.Named(CategoriesFile), 0, log)
	if err := w.Start(dir); err != nil {
		return nil, err
	}
	return &CategoryWatcher{w: w}, nil
}

// Stop stops watching.
func (cw *CategoryWatcher) Stop() {
	cw.w.Stop()
}
