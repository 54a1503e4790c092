package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/repository"
	"github.com/fastygo/teamtasks/repository/memory"
)

type bcryptHasher struct{}

func (bcryptHasher) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash), err
}

func seed(t *testing.T, store *memory.Store, username, first, last string) *domain.User {
	t.Helper()
	hash, _ := bcryptHasher{}.HashPassword("Secret123")
	u := &domain.User{Username: username, FirstName: first, LastName: last, Email: username[1:] + "@example.com", PasswordHash: hash}
	if err := store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestParseQuery(t *testing.T) {
	cases := []struct {
		query string
		want  repository.UserSearch
	}{
		{"@al", repository.UserSearch{UsernamePrefix: "@al", Limit: searchLimit}},
		{"Alice", repository.UserSearch{FirstName: "Alice", LastName: "Alice", Limit: searchLimit}},
		{"Alice Smith", repository.UserSearch{FirstName: "Alice", LastName: "Smith", MatchBoth: true, Limit: searchLimit}},
		{"  ", repository.UserSearch{Limit: searchLimit}},
	}
	for _, tc := range cases {
		if got := ParseQuery(tc.query); got != tc.want {
			t.Fatalf("ParseQuery(%q) = %+v, want %+v", tc.query, got, tc.want)
		}
	}
}

func TestSearch(t *testing.T) {
	store := memory.New()
	seed(t, store, "@alice", "Alice", "Smith")
	seed(t, store, "@alan", "Alan", "Jones")
	seed(t, store, "@bob", "Bob", "Smith")
	uc := New(store.Users(), bcryptHasher{}, nil, nil, nil)
	ctx := context.Background()

	byPrefix, _ := uc.Search(ctx, "@al")
	if len(byPrefix) != 2 {
		t.Fatalf("expected two prefix matches, got %+v", byPrefix)
	}
	byLast, _ := uc.Search(ctx, "smith")
	if len(byLast) != 2 {
		t.Fatalf("expected two name matches, got %+v", byLast)
	}
	byBoth, _ := uc.Search(ctx, "bob smith")
	if len(byBoth) != 1 || byBoth[0].Username != "@bob" {
		t.Fatalf("expected @bob, got %+v", byBoth)
	}
}

type sessionRevoker struct{ store *memory.Store }

func (r sessionRevoker) RevokeOtherSessions(ctx context.Context, userID, keepID string) error {
	return r.store.Sessions().DeleteForUser(ctx, userID, keepID)
}

func TestUpdateProfileAndPassword(t *testing.T) {
	store := memory.New()
	alice := seed(t, store, "@alice", "Alice", "Smith")
	seed(t, store, "@bob", "Bob", "Smith")
	uc := New(store.Users(), bcryptHasher{}, nil, nil, nil, WithSessionRevoker(sessionRevoker{store}))
	ctx := context.Background()
	for _, id := range []string{"current", "stale"} {
		if err := store.Sessions().Save(ctx, domain.NewSession(id, alice.ID, time.Now(), time.Hour)); err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}

	updated, err := uc.UpdateProfile(ctx, alice.ID, UpdateInput{Username: "@alice", FirstName: "Alicia", LastName: "Smith", Email: "alicia@example.com"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Alicia" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if _, err := uc.UpdateProfile(ctx, alice.ID, UpdateInput{Username: "@bob", FirstName: "A", LastName: "S", Email: "a@example.com"}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if err := uc.ChangePassword(ctx, alice.ID, "current", "wrong", "NewSecret1", "NewSecret1"); !errors.Is(err, domain.ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if err := uc.ChangePassword(ctx, alice.ID, "current", "Secret123", "NewSecret1", "NewSecret1"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	stored, _ := store.Users().GetByID(ctx, alice.ID)
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("NewSecret1")) != nil {
		t.Fatalf("new password not stored")
	}
	if _, err := store.Sessions().Get(ctx, "current"); err != nil {
		t.Fatalf("current session must survive: %v", err)
	}
	if _, err := store.Sessions().Get(ctx, "stale"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected stale session revoked, got %v", err)
	}
}
