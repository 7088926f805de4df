package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

type userRecord struct {
	Username     string
	PasswordHash string
	AccessPoints map[domain.AccessPointID]struct{}
}

// userDocument is the persisted form of a user. The bcrypt hash is kept under
// "password" to stay compatible with existing data files.
type userDocument struct {
	Username     string                 `json:"username"`
	Password     string                 `json:"password"`
	AccessPoints []domain.AccessPointID `json:"access_points"`
}

// Users is the concurrent user registry.
type Users struct {
	mu    sync.RWMutex
	users map[string]*userRecord
	cost  int
	hash  func(password []byte, cost int) ([]byte, error)
}

var _ ports.UserRegistry = (*Users)(nil)

// UsersOption customizes a Users registry.
type UsersOption func(*Users)

// WithBcryptCost sets the bcrypt work factor. Values outside bcrypt's range
// fall back to bcrypt.DefaultCost.
func WithBcryptCost(cost int) UsersOption {
	return func(u *Users) {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			cost = bcrypt.DefaultCost
		}
		u.cost = cost
	}
}

// NewUsers returns an empty registry.
func NewUsers(opts ...UsersOption) *Users {
	u := &Users{
		users: make(map[string]*userRecord),
		cost:  bcrypt.DefaultCost,
		hash:  bcrypt.GenerateFromPassword,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Create hashes the password and stores a new user. Hashing runs outside the
// lock, so the duplicate check is repeated at insert time.
func (r *Users) Create(username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, domain.ErrInvalidUser
	}

	r.mu.RLock()
	_, taken := r.users[username]
	r.mu.RUnlock()
	if taken {
		return domain.User{}, domain.ErrUserExists
	}

	hash, err := r.hash([]byte(password), r.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrHashing, err)
	}

	rec := &userRecord{
		Username:     username,
		PasswordHash: string(hash),
		AccessPoints: make(map[domain.AccessPointID]struct{}),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[username]; exists {
		return domain.User{}, domain.ErrUserExists
	}
	r.users[username] = rec
	return rec.toDomain(), nil
}

// Get returns a copy of the user.
func (r *Users) Get(username string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return rec.toDomain(), nil
}

// Subscribe adds id to the user's followed access points. Subscribing twice
// is a no-op.
func (r *Users) Subscribe(username string, id domain.AccessPointID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	rec.AccessPoints[id] = struct{}{}
	return nil
}

// SubscribersOf returns, in ascending order, every username following id.
func (r *Users) SubscribersOf(id domain.AccessPointID) []string {
	r.mu.RLock()
	var names []string
	for name, rec := range r.users {
		if _, ok := rec.AccessPoints[id]; ok {
			names = append(names, name)
		}
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len reports the number of users.
func (r *Users) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Save writes every user to store under key as a JSON object keyed by username.
func (r *Users) Save(ctx context.Context, store ports.SnapshotStore, key string) error {
	r.mu.RLock()
	doc := make(map[string]userDocument, len(r.users))
	for name, rec := range r.users {
		u := rec.toDomain()
		doc[name] = userDocument{
			Username:     u.Username,
			Password:     u.PasswordHash,
			AccessPoints: u.AccessPoints,
		}
	}
	r.mu.RUnlock()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode users: %v", domain.ErrStorage, err)
	}
	if err := store.Write(ctx, key, data); err != nil {
		return fmt.Errorf("%w: write users: %v", domain.ErrStorage, err)
	}
	return nil
}

// LoadUsers reads a registry saved by Save. Any read or decode failure
// yields an empty registry.
func LoadUsers(ctx context.Context, store ports.SnapshotStore, key string, log zerolog.Logger, opts ...UsersOption) *Users {
	r := NewUsers(opts...)

	data, err := store.Read(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("users not loaded, starting empty")
		return r
	}

	var doc map[string]userDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("users unreadable, starting empty")
		return r
	}

	for name, d := range doc {
		rec := &userRecord{
			Username:     name,
			PasswordHash: d.Password,
			AccessPoints: make(map[domain.AccessPointID]struct{}, len(d.AccessPoints)),
		}
		for _, id := range d.AccessPoints {
			rec.AccessPoints[id] = struct{}{}
		}
		r.users[name] = rec
	}
	log.Info().Int("count", len(r.users)).Str("key", key).Msg("users loaded")
	return r
}

func (rec *userRecord) toDomain() domain.User {
	ids := make([]domain.AccessPointID, 0, len(rec.AccessPoints))
	for id := range rec.AccessPoints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return domain.User{
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		AccessPoints: ids,
	}
}
