// file: internal/models/user.go
// version: 1.0.0
// guid: 8e216b8f-d250-47fd-b488-f998c7d8607e

package models

import (
	"slices"
	"time"
)

// Membership tiers.
const (
	MembershipFree    = "free"
	MembershipPremium = "premium"
)

// User represents a site member. PasswordHash is a bcrypt hash and is
// cleared by Public before a record leaves the service layer.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"passwordHash,omitempty"`
	Membership   string   `json:"membership"`
	CreatedAt    string   `json:"createdAt"`
	IsAdmin      bool     `json:"isAdmin"`
	Bookmarks    []string `json:"bookmarks"`
	Avatar       string   `json:"avatar,omitempty"`
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	out := u
	if u.Bookmarks != nil {
		out.Bookmarks = append([]string(nil), u.Bookmarks...)
	}
	return out
}

// Public returns a password-stripped copy of u.
func (u User) Public() User {
	out := u.Clone()
	out.PasswordHash = ""
	return out
}

// IsPremium reports whether the user holds the premium tier.
func (u *User) IsPremium() bool {
	return u != nil && u.Membership == MembershipPremium
}

// HasBookmark reports whether bookID is bookmarked.
func (u User) HasBookmark(bookID string) bool {
	return slices.Contains(u.Bookmarks, bookID)
}

// UserPatch carries a partial update from the admin user form or a profile edit.
type UserPatch struct {
	Name       *string   `json:"name,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Membership *string   `json:"membership,omitempty"`
	IsAdmin    *bool     `json:"isAdmin,omitempty"`
	Bookmarks  *[]string `json:"bookmarks,omitempty"`
	Avatar     *string   `json:"avatar,omitempty"`
}

// Apply shallow-merges the patch over u.
func (p UserPatch) Apply(u User) User {
	out := u.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Membership != nil {
		out.Membership = *p.Membership
	}
	if p.IsAdmin != nil {
		out.IsAdmin = *p.IsAdmin
	}
	if p.Bookmarks != nil {
		out.Bookmarks = append([]string{}, (*p.Bookmarks)...)
	}
	if p.Avatar != nil {
		out.Avatar = *p.Avatar
	}
	return out
}

// IsValidMembership reports whether tier is a known membership tier.
func IsValidMembership(tier string) bool {
	return tier == MembershipFree || tier == MembershipPremium
}

// Session is the current logged-in user record persisted under the session key.
// It embeds the password-stripped user so the stored JSON is the reduced user
// record plus the token that identifies the session to API clients.
type Session struct {
	User
	Token     string    `json:"token"`
	StartedAt time.Time `json:"startedAt"`
}
