package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
)

const CookieName = "session"

var ErrInvalidSession = errors.New("invalid session")

type Claims struct {
	jwt.RegisteredClaims
}

// Manager issues a signed cookie per login and keeps the matching row so a
// logout can revoke it server-side.
type Manager struct {
	Repo   *repo.GormRepo
	Secret []byte
	TTL    time.Duration
	Secure bool
	Now    func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *Manager) Start(ctx context.Context, userID uint) (*http.Cookie, error) {
	now := m.now()
	exp := now.Add(m.TTL)
	jti := uuid.NewString()

	token, err := m.sign(userID, jti, now, exp)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	s := &models.Session{JTI: jti, UserID: userID, ExpiresAt: exp}
	if err := m.Repo.OpenSession(ctx, s, now); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return CreateCookie(CookieName, token, "/", exp, m.Secure), nil
}

func (m *Manager) sign(userID uint, jti string, now, exp time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}

func (m *Manager) parse(raw string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return m.Secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return &claims, nil
}

// Resolve restores the user behind a cookie value. Any token, row or user
// problem is reported as ErrInvalidSession; only store failures differ.
func (m *Manager) Resolve(ctx context.Context, raw string) (*models.User, *Claims, error) {
	claims, err := m.parse(raw)
	if err != nil {
		return nil, nil, err
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad subject", ErrInvalidSession)
	}

	s, err := m.Repo.FindSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown session", ErrInvalidSession)
		}
		return nil, nil, err
	}
	if s.Revoked || s.UserID != uint(userID) || !s.ExpiresAt.After(m.now()) {
		return nil, nil, fmt.Errorf("%w: session revoked or expired", ErrInvalidSession)
	}

	user, err := m.Repo.FindUserByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: user gone", ErrInvalidSession)
		}
		return nil, nil, err
	}
	return user, claims, nil
}

func (m *Manager) End(ctx context.Context, jti string) error {
	if err := m.Repo.RevokeSession(ctx, jti); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (m *Manager) ClearCookie() *http.Cookie {
	return DeleteCookie(CookieName, "/", m.Secure)
}
