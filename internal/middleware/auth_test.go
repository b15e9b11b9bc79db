package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"budgetbook/api/internal/config"
	"budgetbook/api/internal/models"
	"budgetbook/api/internal/repository"
	"budgetbook/api/internal/security"
)

type stubSessionChecker struct {
	live map[string]string // userID -> hash considered live
}

func (s *stubSessionChecker) FindLive(_ context.Context, userID string, hash string) (models.Session, error) {
	if s.live[userID] == hash && hash != "" {
		return models.Session{UserID: userID, Hash: hash}, nil
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func newAuthTestRig(t *testing.T, accessTTL time.Duration) (*security.TokenCodec, *stubSessionChecker, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.SecurityConfig{
		PasswordSecret:   "test-password-secret",
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		JWTAccessTTL:     accessTTL,
		JWTRefreshTTL:    7 * 24 * time.Hour,
		MaxSessions:      2,
	}
	hasher := security.NewHasher(cfg.PasswordSecret)
	codec := security.NewTokenCodec(cfg, hasher)
	checker := &stubSessionChecker{live: make(map[string]string)}

	router := gin.New()
	router.GET("/protected", Auth(codec, checker), func(c *gin.Context) {
		payload, ok := CurrentPayload(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no payload"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": payload.UserID})
	})
	return codec, checker, router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	_, _, router := newAuthTestRig(t, 15*time.Minute)

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "bearer lowercase-scheme"} {
		rec := doRequest(router, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: got status %d, want 401", header, rec.Code)
		}
		if msg := errorMessage(t, rec); msg != "Unauthorized" {
			t.Fatalf("header %q: got error %q, want Unauthorized", header, msg)
		}
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	_, _, router := newAuthTestRig(t, 15*time.Minute)

	rec := doRequest(router, "Bearer not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Invalid token" {
		t.Fatalf("got error %q, want Invalid token", msg)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	codec, checker, router := newAuthTestRig(t, 100*time.Millisecond)

	access, err := codec.GenerateAccessToken(security.TokenPayload{UserID: "user-1", RTH: "hash-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	checker.live["user-1"] = "hash-1"

	time.Sleep(150 * time.Millisecond)

	rec := doRequest(router, "Bearer "+access.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Token expired" {
		t.Fatalf("got error %q, want Token expired", msg)
	}
}

func TestAuthRejectsTokenWithoutSessionReference(t *testing.T) {
	codec, _, router := newAuthTestRig(t, 15*time.Minute)

	// A refresh-shaped payload has no rth; such a token never authorizes a
	// request even with a valid signature.
	access, err := codec.GenerateAccessToken(security.TokenPayload{UserID: "user-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	rec := doRequest(router, "Bearer "+access.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Invalid token" {
		t.Fatalf("got error %q, want Invalid token", msg)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	codec, _, router := newAuthTestRig(t, 15*time.Minute)

	// Signature verifies but the session row is gone: logged out elsewhere.
	access, err := codec.GenerateAccessToken(security.TokenPayload{UserID: "user-1", RTH: "hash-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	rec := doRequest(router, "Bearer "+access.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Invalid token" {
		t.Fatalf("got error %q, want Invalid token", msg)
	}
}

func TestAuthPassesPayloadThrough(t *testing.T) {
	codec, checker, router := newAuthTestRig(t, 15*time.Minute)

	access, err := codec.GenerateAccessToken(security.TokenPayload{UserID: "user-1", RTH: "hash-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	checker.live["user-1"] = "hash-1"

	rec := doRequest(router, "Bearer "+access.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UserID != "user-1" {
		t.Fatalf("got userId %q, want user-1", body.UserID)
	}
}
