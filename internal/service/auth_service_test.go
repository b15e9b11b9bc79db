package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"budgetbook/api/internal/config"
	"budgetbook/api/internal/models"
	"budgetbook/api/internal/repository"
	"budgetbook/api/internal/security"
)

type stubUserStore struct {
	users map[string]models.User       // by id
	creds map[string]models.Credential // by username

	// hideFromLookup makes FindCredential miss a username that the store
	// will still reject on create, simulating a registration race.
	hideFromLookup string
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{
		users: make(map[string]models.User),
		creds: make(map[string]models.Credential),
	}
}

func (s *stubUserStore) CreateWithCredential(_ context.Context, user models.User, cred models.Credential) error {
	if _, exists := s.creds[cred.Username]; exists {
		return repository.ErrUsernameTaken
	}
	s.users[user.ID] = user
	s.creds[cred.Username] = cred
	return nil
}

func (s *stubUserStore) FindCredential(_ context.Context, username string) (models.Credential, error) {
	cred, exists := s.creds[username]
	if !exists || username == s.hideFromLookup {
		return models.Credential{}, repository.ErrCredentialNotFound
	}
	return cred, nil
}

func (s *stubUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	user, exists := s.users[id]
	if !exists {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

// stubSessionStore keeps sessions in insertion order and mirrors the
// repository's bookkeeping semantics so eviction ordering can be asserted.
type stubSessionStore struct {
	sessions   []models.Session
	replaceErr error
}

func (s *stubSessionStore) ReplaceForLogin(_ context.Context, userID string, session models.Session, limit int) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}

	now := time.Now()
	var others, active []models.Session
	for _, row := range s.sessions {
		switch {
		case row.UserID != userID:
			others = append(others, row)
		case row.ExpiresAt.Before(now):
			// purged
		default:
			active = append(active, row)
		}
	}

	// active is in insertion order, oldest first; keep the newest limit-1.
	if len(active) >= limit {
		active = active[len(active)-(limit-1):]
	}

	s.sessions = append(append(others, active...), session)
	return nil
}

func (s *stubSessionStore) FindLiveByHash(_ context.Context, hash string) (models.Session, error) {
	for _, row := range s.sessions {
		if row.Hash == hash && row.ExpiresAt.After(time.Now()) {
			return row, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (s *stubSessionStore) DeleteByHash(_ context.Context, hash string) (int64, error) {
	var kept []models.Session
	var deleted int64
	for _, row := range s.sessions {
		if row.Hash == hash {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	s.sessions = kept
	return deleted, nil
}

func (s *stubSessionStore) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	var kept []models.Session
	var deleted int64
	for _, row := range s.sessions {
		if row.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	s.sessions = kept
	return deleted, nil
}

func (s *stubSessionStore) hashes(userID string) []string {
	var hashes []string
	for _, row := range s.sessions {
		if row.UserID == userID {
			hashes = append(hashes, row.Hash)
		}
	}
	return hashes
}

type authFixture struct {
	service  *AuthService
	users    *stubUserStore
	sessions *stubSessionStore
	codec    *security.TokenCodec
	pauses   int
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := &config.AppConfig{
		Security: config.SecurityConfig{
			PasswordSecret:   "test-password-secret",
			JWTAccessSecret:  "test-access-secret",
			JWTRefreshSecret: "test-refresh-secret",
			JWTAccessTTL:     15 * time.Minute,
			JWTRefreshTTL:    7 * 24 * time.Hour,
			MaxSessions:      2,
		},
	}

	hasher := security.NewHasher(cfg.Security.PasswordSecret)
	codec := security.NewTokenCodec(cfg.Security, hasher)
	users := newStubUserStore()
	sessions := &stubSessionStore{}

	f := &authFixture{
		users:    users,
		sessions: sessions,
		codec:    codec,
	}
	f.service = NewAuthService(users, sessions, hasher, codec, cfg, zerolog.Nop())
	f.service.pause = func() { f.pauses++ }
	return f
}

func (f *authFixture) register(t *testing.T, username, password, displayName string) models.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), RegisterInput{
		Username:    username,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func TestRegisterAndDuplicate(t *testing.T) {
	f := newAuthFixture(t)

	user := f.register(t, "alice01", "Str0ng!Pass", "Alice")
	if user.Status != models.UserStatusActive {
		t.Fatalf("expected ACTIVE user, got %s", user.Status)
	}
	if _, exists := f.users.creds["alice01"]; !exists {
		t.Fatal("credential not stored")
	}

	if _, err := f.service.Register(context.Background(), RegisterInput{
		Username: "alice01", Password: "Str0ng!Pass", DisplayName: "Alice",
	}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterRaceMapsUniqueViolation(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice01", "Str0ng!Pass", "Alice")

	// A racing registration slips past the pre-check; the store-level
	// conflict must surface as the same error the pre-check uses.
	f.users.hideFromLookup = "alice01"
	_, err := f.service.Register(context.Background(), RegisterInput{
		Username: "alice01", Password: "Str0ng!Pass", DisplayName: "Alice",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken from store conflict, got %v", err)
	}
}

func TestLoginReturnsVerifiableTokens(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "alice01", "Str0ng!Pass", "Alice")

	result, err := f.service.Login(context.Background(), "alice01", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("missing tokens")
	}
	if !result.ExpiresAt.After(time.Now()) {
		t.Fatal("access token already expired")
	}

	payload, err := f.codec.VerifyAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if payload.UserID != user.ID {
		t.Fatalf("access token user: got %s, want %s", payload.UserID, user.ID)
	}
	if payload.RTH == "" {
		t.Fatal("access token does not reference a session")
	}

	if _, err := f.sessions.FindLiveByHash(context.Background(), payload.RTH); err != nil {
		t.Fatalf("session for rth not stored: %v", err)
	}
}

func TestLoginFailurePathsLookAlike(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "alice01", "Str0ng!Pass", "Alice")
	suspended := f.register(t, "bob-01", "Str0ng!Pass", "Bob")
	suspended.Status = models.UserStatusSuspended
	f.users.users[suspended.ID] = suspended
	_ = user

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"unknown username", "nobody", "Str0ng!Pass"},
		{"wrong password", "alice01", "Wr0ng!Pass"},
		{"inactive user", "bob-01", "Str0ng!Pass"},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Login(context.Background(), tc.username, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if f.pauses != i+1 {
				t.Fatalf("pause not applied: %d calls after case %d", f.pauses, i+1)
			}
		})
	}
}

func TestLoginEnforcesSessionCap(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "alice01", "Str0ng!Pass", "Alice")

	var hashes []string
	for i := 0; i < 3; i++ {
		result, err := f.service.Login(context.Background(), "alice01", "Str0ng!Pass")
		if err != nil {
			t.Fatalf("login %d: %v", i+1, err)
		}
		payload, err := f.codec.VerifyAccessToken(result.AccessToken)
		if err != nil {
			t.Fatalf("verify %d: %v", i+1, err)
		}
		hashes = append(hashes, payload.RTH)
	}

	remaining := f.sessions.hashes(user.ID)
	if len(remaining) != 2 {
		t.Fatalf("expected 2 sessions after 3 logins, got %d", len(remaining))
	}
	if remaining[0] != hashes[1] || remaining[1] != hashes[2] {
		t.Fatalf("newest 2 sessions should survive: got %v, want [%s %s]", remaining, hashes[1], hashes[2])
	}
	if _, err := f.sessions.FindLiveByHash(context.Background(), hashes[0]); !errors.Is(err, repository.ErrSessionNotFound) {
		t.Fatal("oldest session should have been evicted")
	}
}

func TestLoginFailsWhenSessionPersistFails(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice01", "Str0ng!Pass", "Alice")

	f.sessions.replaceErr = errors.New("storage down")
	if _, err := f.service.Login(context.Background(), "alice01", "Str0ng!Pass"); err == nil {
		t.Fatal("login should fail when the session cannot be persisted")
	}
}

func TestLogoutSingleSession(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "alice01", "Str0ng!Pass", "Alice")

	first, err := f.service.Login(context.Background(), "alice01", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := f.service.Login(context.Background(), "alice01", "Str0ng!Pass"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	payload, err := f.codec.VerifyAccessToken(first.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	count, err := f.service.Logout(context.Background(), false, payload)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 revoked session, got %d", count)
	}
	if len(f.sessions.hashes(user.ID)) != 1 {
		t.Fatal("other session should survive")
	}

	// Revoking the same session again reports zero, not an error.
	count, err = f.service.Logout(context.Background(), false, payload)
	if err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 on repeat logout, got %d", count)
	}
}

func TestLogoutRevokeAll(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "alice01", "Str0ng!Pass", "Alice")

	var payload security.TokenPayload
	for i := 0; i < 2; i++ {
		result, err := f.service.Login(context.Background(), "alice01", "Str0ng!Pass")
		if err != nil {
			t.Fatalf("login %d: %v", i+1, err)
		}
		payload, err = f.codec.VerifyAccessToken(result.AccessToken)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
	}

	count, err := f.service.Logout(context.Background(), true, payload)
	if err != nil {
		t.Fatalf("logout all: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 revoked sessions, got %d", count)
	}
	if len(f.sessions.hashes(user.ID)) != 0 {
		t.Fatal("sessions should all be gone")
	}
}

func TestRefresh(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "alice01", "Str0ng!Pass", "Alice")

	login, err := f.service.Login(context.Background(), "alice01", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	before := append([]models.Session(nil), f.sessions.sessions...)

	result, err := f.service.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	payload, err := f.codec.VerifyAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("verify refreshed access token: %v", err)
	}
	if payload.UserID != user.ID {
		t.Fatalf("refreshed token user: got %s, want %s", payload.UserID, user.ID)
	}

	// The stored session row is untouched; the refresh token is not rotated.
	if len(f.sessions.sessions) != len(before) {
		t.Fatal("refresh must not add or remove sessions")
	}
	for i := range before {
		if f.sessions.sessions[i] != before[i] {
			t.Fatal("refresh must not alter the stored session row")
		}
	}
}

func TestRefreshRejectsUnknownAndExpired(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice01", "Str0ng!Pass", "Alice")

	if _, err := f.service.Refresh(context.Background(), "not-a-real-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for unknown token, got %v", err)
	}

	// A token signed under the access key is rejected before any lookup.
	login, err := f.service.Login(context.Background(), "alice01", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := f.service.Refresh(context.Background(), login.AccessToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for access token, got %v", err)
	}

	// A session past its expiry is dead even though its row still exists.
	refresh, err := f.codec.GenerateRefreshToken(security.TokenPayload{UserID: "user-x"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	f.sessions.sessions = append(f.sessions.sessions, models.Session{
		ID:        "expired",
		UserID:    "user-x",
		Hash:      refresh.Hash,
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	if _, err := f.service.Refresh(context.Background(), refresh.Token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for expired session, got %v", err)
	}
}
