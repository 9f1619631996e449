package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/hash"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/metrics"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
)

type AuthService struct {
	Repo    *repo.GormRepo
	Hasher  hash.PasswordHasher
	Events  events.Publisher
	Metrics *metrics.Metrics
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	taken, err := s.Repo.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	taken, err = s.Repo.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	pwHash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent registration
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	l.Info("user_registered", "user_id", user.ID)
	s.Metrics.UserRegistered()
	publish(ctx, s.Events, s.Metrics, events.TopicUser, strconv.FormatUint(uint64(user.ID), 10), map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})
	return user, nil
}

// Login never tells an unknown username apart from a wrong password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Repo.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login failed", "status", 200, "reason", "unknown user")
			s.Metrics.LoginAttempt(false)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !s.Hasher.Compare(user.PasswordHash, password) {
		l.Warn("login failed", "status", 200, "reason", "wrong password")
		s.Metrics.LoginAttempt(false)
		return nil, ErrInvalidCredentials
	}

	s.Metrics.LoginAttempt(true)
	publish(ctx, s.Events, s.Metrics, events.TopicUser, strconv.FormatUint(uint64(user.ID), 10), map[string]any{
		"type":    "user_logged_in",
		"user_id": user.ID,
	})
	return user, nil
}

func (s *AuthService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) LoggedOut(ctx context.Context, userID uint) {
	publish(ctx, s.Events, s.Metrics, events.TopicUser, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":    "user_logged_out",
		"user_id": userID,
	})
}
