// file: internal/catalog/activity.go
// version: 1.1.0
// guid: c76a0223-5f38-4874-9078-db21955822e4

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/rs/zerolog"
)

// MaxActivities bounds the activity log; the oldest entry is evicted first.
const MaxActivities = 20

// ActivityLog is the admin audit trail, newest entry first.
type ActivityLog struct {
	col      *collection[models.ActivityEntry]
	log      zerolog.Logger
	notifier Notifier
	now      func() time.Time
}

// NewActivityLog creates an empty log backed by deps.Store.
func NewActivityLog(deps Deps) *ActivityLog {
	deps = deps.withDefaults()
	log := deps.Log.With().Str("service", "activity").Logger()
	return &ActivityLog{
		col: newCollection(CollectionActivities, database.KeyActivities, deps.Store, log,
			func(e models.ActivityEntry) models.ActivityEntry { return e }),
		log:      log,
		notifier: deps.Notifier,
		now:      deps.Now,
	}
}

// Load reads the persisted log.
func (a *ActivityLog) Load() error {
	_, err := a.col.load()
	return err
}

// List returns the entries, newest first.
func (a *ActivityLog) List() []models.ActivityEntry {
	return a.col.snapshot()
}

// Recent returns at most n of the newest entries.
func (a *ActivityLog) Recent(n int) []models.ActivityEntry {
	all := a.List()
	if n >= 0 && len(all) > n {
		return all[:n]
	}
	return all
}

// Version changes whenever the log does.
func (a *ActivityLog) Version() uint64 { return a.col.Version() }

// Add prepends an entry and evicts past MaxActivities.
func (a *ActivityLog) Add(ctx context.Context, message string) error {
	entry := models.ActivityEntry{Message: message, Timestamp: a.now().UTC()}
	err := a.col.mutate(ctx, "add", func(items []models.ActivityEntry) ([]models.ActivityEntry, error) {
		items = append([]models.ActivityEntry{entry}, items...)
		if len(items) > MaxActivities {
			items = items[:MaxActivities]
		}
		return items, nil
	})
	if err != nil {
		return err
	}
	a.notifier.Changed(CollectionActivities, "add", "")
	return nil
}

// record logs an activity for a mutation that already succeeded. A failure
// here cannot undo the mutation, so it is logged rather than returned.
func (a *ActivityLog) record(ctx context.Context, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if err := a.Add(context.WithoutCancel(ctx), msg); err != nil {
		a.log.Error().Err(err).Str("activity", msg).Msg("failed to record activity")
	}
}

func (a *ActivityLog) close(timeout time.Duration) error { return a.col.close(timeout) }
