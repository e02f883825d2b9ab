package auth

import (
	"context"
	"fmt"

	"github.com/akruglov/shopfront/internal/events"
	"github.com/akruglov/shopfront/internal/hash"
	"github.com/akruglov/shopfront/internal/logging"
	"github.com/akruglov/shopfront/internal/models"
	"github.com/akruglov/shopfront/internal/repo"
)

type Service struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// Register creates the account and returns it. The caller establishes the
// session; repo.ErrDuplicateAccount means the email is already taken and no
// row was written.
func (s *Service) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register failed", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	}, user.ID)

	l.Info("user registered", "userID", user.ID)
	return &user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.AuthenticateUser(ctx, email, password)
	if err != nil {
		l.Warn("login failed", "error", err)
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
	}, user.ID)

	return user, nil
}

// Logout revokes the stored refresh token. Clearing an unknown or already
// revoked token is not an error; logout always succeeds for the client.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *Service) publish(ctx context.Context, event map[string]any, userID uint) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicUserEvents, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("event publish error", "error", err)
	}
}
