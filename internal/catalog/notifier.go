// file: internal/catalog/notifier.go
// version: 1.0.0
// guid: 13d28029-1616-417a-9d7a-0b680cfcbafa

package catalog

import (
	"time"

	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/rs/zerolog"
)

// Collection names used in change notifications.
const (
	CollectionBooks      = "books"
	CollectionUsers      = "users"
	CollectionActivities = "activities"
	CollectionSettings   = "settings"
	CollectionCategories = "categories"
)

// Notifier is told about every successful mutation so connected clients can
// re-render. realtime.EventHub implements it.
type Notifier interface {
	Changed(collection, action, id string)
}

type nopNotifier struct{}

func (nopNotifier) Changed(string, string, string) {}

// Deps are the collaborators shared by the catalog services.
type Deps struct {
	Store    database.Store
	Log      zerolog.Logger
	Notifier Notifier
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
