// file: internal/catalog/users.go
// version: 1.1.0
// guid: 353fbc0e-d812-4599-9c84-dd87a5dbfcc5

package catalog

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/jdfalk/cliqbook/internal/filter"
	"github.com/jdfalk/cliqbook/internal/metrics"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is given to users an admin creates without one.
const DefaultPassword = "password"

// NewUser is the input for Users.Create.
type NewUser struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Membership string `json:"membership"`
	IsAdmin    bool   `json:"isAdmin"`
}

// Users manages the user collection. Every method except Credentials returns
// password-stripped records.
type Users struct {
	col      *collection[models.User]
	activity *ActivityLog
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
	cost     int
}

// NewUsers creates the user service.
func NewUsers(deps Deps, activity *ActivityLog) *Users {
	deps = deps.withDefaults()
	log := deps.Log.With().Str("service", "users").Logger()
	return &Users{
		col:      newCollection(CollectionUsers, database.KeyUsers, deps.Store, log, models.User.Clone),
		activity: activity,
		notifier: deps.Notifier,
		log:      log,
		now:      deps.Now,
		cost:     bcrypt.DefaultCost,
	}
}

// HashPassword returns the bcrypt hash of password at the given cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// SetHashCost changes the bcrypt cost for new passwords; tests lower it.
func (s *Users) SetHashCost(cost int) { s.cost = cost }

// Load reads the persisted collection.
func (s *Users) Load() error {
	_, err := s.col.load()
	s.updateGauges()
	return err
}

// Version changes whenever the collection does.
func (s *Users) Version() uint64 { return s.col.Version() }

// Count returns the number of users.
func (s *Users) Count() int { return s.col.len() }

// List returns every user, password-stripped.
func (s *Users) List() []models.User {
	all := s.col.snapshot()
	for i := range all {
		all[i] = all[i].Public()
	}
	return all
}

// Find returns the user with id.
func (s *Users) Find(id string) (models.User, error) {
	for _, u := range s.col.snapshot() {
		if u.ID == id {
			return u.Public(), nil
		}
	}
	return models.User{}, apperrors.NotFound("user", id)
}

// Credentials returns the full record, hash included, for the account with
// email (case-insensitive). Only the auth service should call it.
func (s *Users) Credentials(email string) (models.User, error) {
	for _, u := range s.col.snapshot() {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, apperrors.NotFound("user", email)
}

// PremiumMembers lists users with the premium tier.
func (s *Users) PremiumMembers() []models.User {
	out := make([]models.User, 0)
	for _, u := range s.List() {
		if u.IsPremium() {
			out = append(out, u)
		}
	}
	return out
}

// Search matches name or email.
func (s *Users) Search(query string) []models.User { return filter.AdminUsers(s.List(), query) }

func validateUser(u models.User) error {
	if strings.TrimSpace(u.Name) == "" {
		return apperrors.Invalid("name", "is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return apperrors.Invalid("email", "is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return apperrors.Invalid("email", "is not a valid address")
	}
	if !models.IsValidMembership(u.Membership) {
		return apperrors.Invalid("membership", "must be free or premium")
	}
	return nil
}

func emailTaken(items []models.User, email, exceptID string) bool {
	for _, u := range items {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// Create adds a user. A duplicate email (case-insensitive) is a Conflict and
// leaves the collection untouched.
func (s *Users) Create(ctx context.Context, in NewUser) (models.User, error) {
	u := models.User{
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Membership: in.Membership,
		IsAdmin:    in.IsAdmin,
		Bookmarks:  []string{},
		CreatedAt:  s.now().UTC().Format(time.RFC3339),
	}
	if u.Membership == "" {
		u.Membership = models.MembershipFree
	}
	if err := validateUser(u); err != nil {
		return models.User{}, err
	}

	password := in.Password
	if password == "" {
		password = DefaultPassword
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash

	err = s.col.mutate(ctx, "create", func(items []models.User) ([]models.User, error) {
		if emailTaken(items, u.Email, "") {
			return nil, fmt.Errorf("email %s is already registered: %w", u.Email, apperrors.ErrConflict)
		}
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		u.ID = nextID("u", ids)
		return append(items, u), nil
	})
	if err != nil {
		return models.User{}, err
	}

	s.afterChange(ctx, "create", u.ID, "New user registered: %s", u.Name)
	return u.Public(), nil
}

// Update merges patch into the user with id.
func (s *Users) Update(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	return s.update(ctx, id, patch, "")
}

// UpdateWithPassword merges patch and replaces the password in one write.
// Nothing is stored unless the merged record validates.
func (s *Users) UpdateWithPassword(ctx context.Context, id string, patch models.UserPatch, password string) (models.User, error) {
	if password == "" {
		return models.User{}, apperrors.Invalid("password", "is required")
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return models.User{}, err
	}
	return s.update(ctx, id, patch, hash)
}

// update applies patch and, when hash is set, the new password hash.
func (s *Users) update(ctx context.Context, id string, patch models.UserPatch, hash string) (models.User, error) {
	var updated models.User
	err := s.col.mutate(ctx, "update", func(items []models.User) ([]models.User, error) {
		for i, it := range items {
			if it.ID != id {
				continue
			}
			next := patch.Apply(it)
			next.Name = strings.TrimSpace(next.Name)
			next.Email = strings.TrimSpace(next.Email)
			if err := validateUser(next); err != nil {
				return nil, err
			}
			if emailTaken(items, next.Email, id) {
				return nil, fmt.Errorf("email %s is already registered: %w", next.Email, apperrors.ErrConflict)
			}
			if hash != "" {
				next.PasswordHash = hash
			}
			items[i] = next
			updated = next
			return items, nil
		}
		return nil, apperrors.NotFound("user", id)
	})
	if err != nil {
		return models.User{}, err
	}

	s.afterChange(ctx, "update", id, "User updated: %s", updated.Name)
	return updated.Public(), nil
}

// SetPassword replaces the password hash of the user with id.
func (s *Users) SetPassword(ctx context.Context, id, password string) error {
	if len(password) < 1 {
		return apperrors.Invalid("password", "is required")
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return err
	}
	return s.col.mutate(ctx, "password", func(items []models.User) ([]models.User, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].PasswordHash = hash
				return items, nil
			}
		}
		return nil, apperrors.NotFound("user", id)
	})
}

// Delete removes the user with id. A missing id is NotFound and logs nothing.
func (s *Users) Delete(ctx context.Context, id string) error {
	var removed models.User
	err := s.col.mutate(ctx, "delete", func(items []models.User) ([]models.User, error) {
		for i, it := range items {
			if it.ID == id {
				removed = it
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, apperrors.NotFound("user", id)
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, "delete", id, "User deleted: %s (%s)", removed.Name, removed.Email)
	return nil
}

// ToggleBookmark adds bookID to the user's bookmarks, or removes it when
// already present. It reports whether the book is bookmarked afterwards.
func (s *Users) ToggleBookmark(ctx context.Context, userID, bookID string) (models.User, bool, error) {
	var (
		updated models.User
		added   bool
	)
	err := s.col.mutate(ctx, "bookmark", func(items []models.User) ([]models.User, error) {
		for i, it := range items {
			if it.ID != userID {
				continue
			}
			marks := make([]string, 0, len(it.Bookmarks)+1)
			for _, b := range it.Bookmarks {
				if b != bookID {
					marks = append(marks, b)
				}
			}
			added = len(marks) == len(it.Bookmarks)
			if added {
				marks = append(marks, bookID)
			}
			items[i].Bookmarks = marks
			updated = items[i]
			return items, nil
		}
		return nil, apperrors.NotFound("user", userID)
	})
	if err != nil {
		return models.User{}, false, err
	}
	s.notifier.Changed(CollectionUsers, "bookmark", userID)
	return updated.Public(), added, nil
}

func (s *Users) afterChange(ctx context.Context, action, id, format string, args ...any) {
	s.updateGauges()
	s.log.Info().Str("action", action).Str("user", id).Msg("user collection changed")
	s.activity.record(ctx, format, args...)
	s.notifier.Changed(CollectionUsers, action, id)
}

func (s *Users) updateGauges() {
	metrics.SetUsers(s.col.len())
	metrics.SetPremium(len(s.PremiumMembers()))
}

func (s *Users) close(timeout time.Duration) error { return s.col.close(timeout) }
