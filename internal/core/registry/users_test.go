package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/quacc/access-point-api/internal/core/domain"
)

func newTestUsers() *Users {
	return NewUsers(WithBcryptCost(bcrypt.MinCost))
}

func TestUsers_CreateHashesPassword(t *testing.T) {
	r := newTestUsers()

	u, err := r.Create("alice", "pw123")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.PasswordHash == "pw123" || u.PasswordHash == "" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if len(u.AccessPoints) != 0 {
		t.Fatalf("new user should follow nothing")
	}
}

func TestUsers_CreateDuplicateIsConflict(t *testing.T) {
	r := newTestUsers()
	original, _ := r.Create("alice", "pw123")

	if _, err := r.Create("alice", "other"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	stored, err := r.Get("alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.PasswordHash != original.PasswordHash {
		t.Fatalf("stored record changed after rejected create")
	}
}

func TestUsers_ConcurrentCreateSameUsername(t *testing.T) {
	r := newTestUsers()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, conflicts := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Create("bob", "pw")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrUserExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != 19 {
		t.Fatalf("expected 1 create and 19 conflicts, got %d and %d", created, conflicts)
	}
}

func TestUsers_CreateHashingFailure(t *testing.T) {
	r := newTestUsers()

	// bcrypt rejects passwords longer than 72 bytes.
	_, err := r.Create("carol", strings.Repeat("x", 73))
	if !errors.Is(err, domain.ErrHashing) {
		t.Fatalf("expected ErrHashing, got %v", err)
	}
	if _, err := r.Get("carol"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("user must not be stored when hashing fails")
	}
}

func TestUsers_CreateRequiresCredentials(t *testing.T) {
	r := newTestUsers()
	if _, err := r.Create("  ", "pw"); !errors.Is(err, domain.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}

func TestUsers_Subscribe(t *testing.T) {
	r := newTestUsers()
	_, _ = r.Create("alice", "pw")

	if err := r.Subscribe("alice", 3); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := r.Subscribe("alice", 3); err != nil {
		t.Fatalf("re-subscribe should succeed: %v", err)
	}
	if err := r.Subscribe("alice", 1); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	u, _ := r.Get("alice")
	if len(u.AccessPoints) != 2 || u.AccessPoints[0] != 1 || u.AccessPoints[1] != 3 {
		t.Fatalf("unexpected subscriptions: %v", u.AccessPoints)
	}

	if err := r.Subscribe("ghost", 3); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUsers_SubscribersOf(t *testing.T) {
	r := newTestUsers()
	for _, name := range []string{"dave", "alice", "carol", "bob"} {
		_, _ = r.Create(name, "pw")
	}
	_ = r.Subscribe("dave", 0)
	_ = r.Subscribe("bob", 1)
	_ = r.Subscribe("alice", 0)
	_ = r.Subscribe("carol", 2)

	got := r.SubscribersOf(0)
	if len(got) != 2 || got[0] != "alice" || got[1] != "dave" {
		t.Fatalf("unexpected subscribers of 0: %v", got)
	}
	if got := r.SubscribersOf(9); len(got) != 0 {
		t.Fatalf("expected no subscribers of 9, got %v", got)
	}
}

func TestUsers_SaveLoadRoundTrip(t *testing.T) {
	r := newTestUsers()
	_, _ = r.Create("alice", "pw123")
	_, _ = r.Create("bob", "hunter2")
	_ = r.Subscribe("alice", 0)
	_ = r.Subscribe("alice", 7)

	store := newStubStore()
	if err := r.Save(context.Background(), store, "users"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.Contains(string(store.docs["users"]), `"password"`) {
		t.Fatalf("expected hash stored under \"password\": %s", store.docs["users"])
	}

	loaded := LoadUsers(context.Background(), store, "users", zerolog.Nop(), WithBcryptCost(bcrypt.MinCost))
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 users, got %d", loaded.Len())
	}
	for _, name := range []string{"alice", "bob"} {
		want, _ := r.Get(name)
		got, err := loaded.Get(name)
		if err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
		if got.PasswordHash != want.PasswordHash || len(got.AccessPoints) != len(want.AccessPoints) {
			t.Fatalf("user %s differs: want %+v got %+v", name, want, got)
		}
	}
	if subs := loaded.SubscribersOf(7); len(subs) != 1 || subs[0] != "alice" {
		t.Fatalf("subscriptions not restored: %v", subs)
	}
	if _, err := loaded.Create("alice", "again"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("loaded usernames must stay unique, got %v", err)
	}
}

func TestLoadUsers_ReadFailureYieldsEmptyRegistry(t *testing.T) {
	store := newStubStore()
	store.readErr = errors.New("permission denied")

	if r := LoadUsers(context.Background(), store, "users", zerolog.Nop()); r.Len() != 0 {
		t.Fatalf("expected empty registry")
	}
}
