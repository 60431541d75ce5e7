// file: internal/catalog/settings.go
// version: 1.0.0
// guid: b5f44b1a-9bd2-4fed-ac1d-ef3f400d08c0

package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/jdfalk/cliqbook/internal/operations"
	"github.com/rs/zerolog"
)

// Bounds for Settings.BooksPerPage.
const (
	MinBooksPerPage = 1
	MaxBooksPerPage = 100
)

// SettingsService owns the single admin settings record.
type SettingsService struct {
	store    database.Store
	queue    *operations.Queue
	activity *ActivityLog
	notifier Notifier
	log      zerolog.Logger

	mu      sync.RWMutex
	current models.Settings
}

// NewSettingsService starts out with DefaultSettings until Load finds a saved record.
func NewSettingsService(deps Deps, activity *ActivityLog) *SettingsService {
	deps = deps.withDefaults()
	log := deps.Log.With().Str("service", "settings").Logger()
	return &SettingsService{
		store:    deps.Store,
		queue:    operations.NewQueue(CollectionSettings, log),
		activity: activity,
		notifier: deps.Notifier,
		log:      log,
		current:  models.DefaultSettings(),
	}
}

// Load reads the saved record; invalid saved values fall back to the default.
func (s *SettingsService) Load() error {
	saved := models.DefaultSettings()
	found, err := database.GetJSON(s.store, database.KeySettings, &saved)
	if err != nil {
		return err
	}
	if found && validateSettings(saved) != nil {
		s.log.Warn().Int("booksPerPage", saved.BooksPerPage).Msg("ignoring invalid saved settings")
		saved = models.DefaultSettings()
	}
	s.mu.Lock()
	s.current = saved
	s.mu.Unlock()
	return nil
}

// Get returns the current settings.
func (s *SettingsService) Get() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func validateSettings(in models.Settings) error {
	if in.BooksPerPage < MinBooksPerPage || in.BooksPerPage > MaxBooksPerPage {
		return apperrors.Invalid("booksPerPage", "must be between 1 and 100")
	}
	return nil
}

// Update validates and persists new settings.
func (s *SettingsService) Update(ctx context.Context, in models.Settings) (models.Settings, error) {
	if err := validateSettings(in); err != nil {
		return models.Settings{}, err
	}
	err := s.queue.Submit(ctx, "settings.update", func(ctx context.Context) error {
		if err := database.SetJSON(s.store, database.KeySettings, in); err != nil {
			return err
		}
		s.mu.Lock()
		s.current = in
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return models.Settings{}, err
	}

	s.activity.record(ctx, "Settings updated. Books per page: %d", in.BooksPerPage)
	s.notifier.Changed(CollectionSettings, "update", "")
	return in, nil
}

func (s *SettingsService) close(timeout time.Duration) error { return s.queue.Shutdown(timeout) }
