package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"budgetbook/api/internal/config"
	"budgetbook/api/internal/ids"
	"budgetbook/api/internal/models"
	"budgetbook/api/internal/repository"
	"budgetbook/api/internal/security"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// UserStore and SessionStore are the persistence surfaces AuthService
// depends on; *repository.UserRepository and *repository.SessionRepository
// satisfy them.
type UserStore interface {
	CreateWithCredential(ctx context.Context, user models.User, cred models.Credential) error
	FindCredential(ctx context.Context, username string) (models.Credential, error)
	GetByID(ctx context.Context, id string) (models.User, error)
}

type SessionStore interface {
	ReplaceForLogin(ctx context.Context, userID string, session models.Session, limit int) error
	FindLiveByHash(ctx context.Context, hash string) (models.Session, error)
	DeleteByHash(ctx context.Context, hash string) (int64, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type AuthService struct {
	users    UserStore
	sessions SessionStore
	hasher   *security.Hasher
	codec    *security.TokenCodec
	cfg      *config.AppConfig
	log      zerolog.Logger

	// pause equalizes the latency of every failed-credential path so timing
	// cannot distinguish unknown usernames from wrong passwords or inactive
	// users. Replaceable in tests.
	pause func()
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	hasher *security.Hasher,
	codec *security.TokenCodec,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		codec:    codec,
		cfg:      cfg,
		log:      log,
		pause:    randomPause,
	}
}

func randomPause() {
	time.Sleep(time.Duration(rand.Intn(1600)) * time.Millisecond)
}

type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	// Pre-check gives the common case a clean error; the unique constraint
	// inside CreateWithCredential remains the authoritative guard when two
	// identical registrations race past this point.
	if _, err := s.users.FindCredential(ctx, input.Username); err == nil {
		return models.User{}, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrCredentialNotFound) {
		return models.User{}, err
	}

	passwordHash, err := s.hasher.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:          ids.New(),
		DisplayName: input.DisplayName,
		Status:      models.UserStatusActive,
	}
	cred := models.Credential{
		UserID:       user.ID,
		Username:     input.Username,
		PasswordHash: passwordHash,
	}

	if err := s.users.CreateWithCredential(ctx, user, cred); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return models.User{}, ErrUsernameTaken
		}
		s.log.Error().Err(err).Str("username", input.Username).Msg("register transaction failed")
		return models.User{}, err
	}

	s.log.Info().Str("username", input.Username).Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (LoginResult, error) {
	cred, err := s.users.FindCredential(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			s.pause()
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := s.hasher.VerifyPassword(cred.PasswordHash, password)
	if err != nil || !ok {
		s.pause()
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, cred.UserID)
	if err != nil || user.Status != models.UserStatusActive {
		s.pause()
		return LoginResult{}, ErrInvalidCredentials
	}

	refresh, err := s.codec.GenerateRefreshToken(security.TokenPayload{UserID: user.ID})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("mint refresh token failed")
		return LoginResult{}, err
	}

	access, err := s.codec.GenerateAccessToken(security.TokenPayload{UserID: user.ID, RTH: refresh.Hash})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("mint access token failed")
		return LoginResult{}, err
	}

	// Session persistence is part of the response path: if the bookkeeping
	// transaction fails the login fails, so a caller never holds tokens
	// referencing a session that was not stored.
	session := models.Session{
		ID:        ids.New(),
		UserID:    user.ID,
		Hash:      refresh.Hash,
		ExpiresAt: refresh.ExpiresAt,
	}
	if err := s.sessions.ReplaceForLogin(ctx, user.ID, session, s.cfg.Security.MaxSessions); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("session bookkeeping failed")
		return LoginResult{}, fmt.Errorf("persist session: %w", err)
	}

	return LoginResult{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		ExpiresAt:    access.ExpiresAt,
	}, nil
}

// Logout revokes either the calling session (by the refresh-token hash the
// access token carries) or every session of the user. The returned count is
// the number of rows actually deleted; revoking an already-gone session
// reports zero rather than an error.
func (s *AuthService) Logout(ctx context.Context, revokeAll bool, payload security.TokenPayload) (int64, error) {
	if revokeAll {
		count, err := s.sessions.DeleteAllForUser(ctx, payload.UserID)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", payload.UserID).Msg("revoke all sessions failed")
			return 0, err
		}
		s.log.Info().Str("user_id", payload.UserID).Int64("count", count).Msg("all sessions revoked")
		return count, nil
	}

	count, err := s.sessions.DeleteByHash(ctx, payload.RTH)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", payload.UserID).Msg("revoke session failed")
		return 0, err
	}
	return count, nil
}

type RefreshResult struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Refresh exchanges a live refresh token for a new access token. The token
// must carry a valid signature and resolve, via its keyed digest, to a live
// session row. The row is left untouched so the refresh token stays valid
// until its original expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	payload, err := s.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return RefreshResult{}, ErrInvalidRefreshToken
	}

	hash := s.hasher.SecureHash(refreshToken)

	session, err := s.sessions.FindLiveByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return RefreshResult{}, ErrInvalidRefreshToken
		}
		return RefreshResult{}, err
	}
	if session.UserID != payload.UserID {
		return RefreshResult{}, ErrInvalidRefreshToken
	}

	access, err := s.codec.GenerateAccessToken(security.TokenPayload{UserID: session.UserID, RTH: hash})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", session.UserID).Msg("mint access token failed")
		return RefreshResult{}, err
	}

	return RefreshResult{AccessToken: access.Token, ExpiresAt: access.ExpiresAt}, nil
}
