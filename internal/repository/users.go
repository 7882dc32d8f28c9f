// Package repository provides file-backed persistence for the
// marketplace's users and lots. Each store owns one persistent
// collection and exposes only the operations the services need; the
// collections lock independently of each other.
package repository

import (
	"context"
	"maps"

	"github.com/atinyakov/lotmarket/internal/common"
	"github.com/atinyakov/lotmarket/internal/models"
	"github.com/atinyakov/lotmarket/internal/storage"
)

// UserStore is the repository of registered users. The backing file
// holds the collection as a username → record map.
type UserStore struct {
	col *storage.Collection[map[string]models.User]
}

// NewUserStore opens the users backing file at path, initializing an
// empty collection if the file does not exist yet.
func NewUserStore(path string) (*UserStore, error) {
	col, err := storage.Open(path,
		func() map[string]models.User {
			return map[string]models.User{}
		},
		func(users map[string]models.User) map[string]models.User {
			// The username lives in the map key; restore it on the
			// records after load.
			for name, u := range users {
				u.Username = name
				users[name] = u
			}
			return users
		})
	if err != nil {
		return nil, err
	}
	return &UserStore{col: col}, nil
}

// Register inserts a new user. The duplicate checks and the insert run
// as a single critical section, so two concurrent registrations with
// the same username or email cannot both pass the uniqueness check.
func (s *UserStore) Register(ctx context.Context, user models.User) error {
	return s.col.Update(func(users map[string]models.User) (map[string]models.User, error) {
		if _, ok := users[user.Username]; ok {
			return users, common.ErrDuplicateUsername
		}
		for _, existing := range users {
			if existing.Email == user.Email {
				return users, common.ErrDuplicateEmail
			}
		}
		next := maps.Clone(users)
		next[user.Username] = user
		return next, nil
	})
}

// Find returns the user with the given username, or common.ErrNotFound.
func (s *UserStore) Find(ctx context.Context, username string) (models.User, error) {
	var (
		user  models.User
		found bool
	)
	s.col.View(func(users map[string]models.User) {
		user, found = users[username]
	})
	if !found {
		return models.User{}, common.ErrNotFound
	}
	return user, nil
}

// FindByEmail returns the user registered with the given email address.
// The lookup is a linear scan; email uniqueness makes the match
// unambiguous.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var (
		user  models.User
		found bool
	)
	s.col.View(func(users map[string]models.User) {
		for _, u := range users {
			if u.Email == email {
				user, found = u, true
				return
			}
		}
	})
	if !found {
		return models.User{}, common.ErrNotFound
	}
	return user, nil
}

// Exists reports whether a user with the given username is registered.
func (s *UserStore) Exists(ctx context.Context, username string) bool {
	var found bool
	s.col.View(func(users map[string]models.User) {
		_, found = users[username]
	})
	return found
}
