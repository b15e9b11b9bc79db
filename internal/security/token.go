package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"budgetbook/api/internal/config"
)

var (
	// ErrTokenExpired is reported separately from ErrTokenInvalid so callers
	// can give the two cases different user-facing messages.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenPayload is the compact identity carried inside both token types.
// RTH binds an access token to the session row created at login; Nonce
// makes every refresh token unique even for identical logical payloads.
type TokenPayload struct {
	UserID string
	RTH    string
	Nonce  string
}

// EncodePayload serializes the payload as an ordered JSON tuple. Absent
// optional fields are encoded as nulls so decoding restores them as empty,
// never as a literal placeholder string.
func EncodePayload(p TokenPayload) (string, error) {
	tuple := []*string{&p.UserID, nil, nil}
	if p.RTH != "" {
		tuple[1] = &p.RTH
	}
	if p.Nonce != "" {
		tuple[2] = &p.Nonce
	}
	raw, err := json.Marshal(tuple)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(raw), nil
}

func DecodePayload(s string) (TokenPayload, error) {
	var tuple []*string
	if err := json.Unmarshal([]byte(s), &tuple); err != nil {
		return TokenPayload{}, fmt.Errorf("decode payload: %w", err)
	}
	if len(tuple) != 3 || tuple[0] == nil {
		return TokenPayload{}, fmt.Errorf("decode payload: malformed tuple")
	}

	p := TokenPayload{UserID: *tuple[0]}
	if tuple[1] != nil {
		p.RTH = *tuple[1]
	}
	if tuple[2] != nil {
		p.Nonce = *tuple[2]
	}
	return p, nil
}

type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

type RefreshToken struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
}

// TokenCodec mints and verifies the two token types under two independent
// signing keys. It is constructed from config rather than reading ambient
// secrets, so tests run with injected keys and shortened lifetimes.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	hasher        *Hasher
}

func NewTokenCodec(cfg config.SecurityConfig, hasher *Hasher) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.JWTAccessTTL,
		refreshTTL:    cfg.JWTRefreshTTL,
		hasher:        hasher,
	}
}

func (c *TokenCodec) sign(payload TokenPayload, secret []byte, ttl time.Duration) (string, error) {
	encoded, err := EncodePayload(payload)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   encoded,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func (c *TokenCodec) verify(tokenStr string, secret []byte) (TokenPayload, time.Time, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenPayload{}, time.Time{}, ErrTokenExpired
		}
		return TokenPayload{}, time.Time{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.ExpiresAt == nil {
		return TokenPayload{}, time.Time{}, ErrTokenInvalid
	}

	payload, err := DecodePayload(claims.Subject)
	if err != nil {
		return TokenPayload{}, time.Time{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return payload, claims.ExpiresAt.Time, nil
}

// GenerateAccessToken signs the payload under the access key and then
// re-verifies its own output to extract the canonical expiry. A freshly
// minted token failing to decode is a signing or configuration defect, so
// that error is surfaced hard rather than mapped to a user-facing one.
func (c *TokenCodec) GenerateAccessToken(payload TokenPayload) (AccessToken, error) {
	signed, err := c.sign(payload, c.accessSecret, c.accessTTL)
	if err != nil {
		return AccessToken{}, err
	}

	_, expiresAt, err := c.verify(signed, c.accessSecret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("decode freshly minted access token: %w", err)
	}

	return AccessToken{Token: signed, ExpiresAt: expiresAt}, nil
}

func (c *TokenCodec) VerifyAccessToken(tokenStr string) (TokenPayload, error) {
	payload, _, err := c.verify(tokenStr, c.accessSecret)
	return payload, err
}

// GenerateRefreshToken injects a fresh nonce before signing under the
// refresh key, so repeated logins with an identical payload still produce
// distinct tokens, then computes the keyed digest that becomes the durable
// session identifier.
func (c *TokenCodec) GenerateRefreshToken(payload TokenPayload) (RefreshToken, error) {
	nonce, err := RandomHex(4)
	if err != nil {
		return RefreshToken{}, err
	}
	payload.Nonce = nonce

	signed, err := c.sign(payload, c.refreshSecret, c.refreshTTL)
	if err != nil {
		return RefreshToken{}, err
	}

	_, expiresAt, err := c.verify(signed, c.refreshSecret)
	if err != nil {
		return RefreshToken{}, fmt.Errorf("decode freshly minted refresh token: %w", err)
	}

	return RefreshToken{
		Token:     signed,
		Hash:      c.hasher.SecureHash(signed),
		ExpiresAt: expiresAt,
	}, nil
}

func (c *TokenCodec) VerifyRefreshToken(tokenStr string) (TokenPayload, error) {
	payload, _, err := c.verify(tokenStr, c.refreshSecret)
	return payload, err
}
