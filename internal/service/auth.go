package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/events"
	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/session"
	"github.com/Skotchmaster/shopfront/pkg/hash"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

const minPasswordLen = 6

type AuthService struct {
	Repo   *repo.GormRepo
	Issuer *session.Issuer
	Events events.Publisher
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, *session.Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" {
		return nil, nil, fail(ErrValidation, "Name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, nil, fail(ErrValidation, "Please enter a valid email")
	}
	if len(in.Password) < minPasswordLen {
		return nil, nil, fail(ErrValidation, "Password must be at least 6 characters long")
	}

	taken, err := s.Repo.EmailTaken(ctx, in.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		l.Warn("signup_conflict", "status", 400)
		return nil, nil, fail(ErrConflict, "User already exists")
	}

	pw, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{Name: in.Name, Email: in.Email, PasswordHash: pw, Role: models.RoleCustomer}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, nil, fail(ErrConflict, "User already exists")
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	sess, err := s.Issuer.Issue(ctx, u.ID, u.Role)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.UserSignedUp,
		ID:      u.ID.String(),
		Payload: map[string]string{"email": u.Email, "name": u.Name},
	})
	l.Info("signup_successful", "user_id", u.ID)
	return u, sess, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *session.Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, fail(ErrValidation, "Email and password are required")
	}

	u, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 400, "reason", "unknown email")
			return nil, nil, fail(ErrUnauthorized, "Invalid email or password")
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		l.Warn("login_failed", "status", 400, "reason", "bad password", "user_id", u.ID)
		return nil, nil, fail(ErrUnauthorized, "Invalid email or password")
	}

	sess, err := s.Issuer.Issue(ctx, u.ID, u.Role)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*session.Session, error) {
	if refreshToken == "" {
		return nil, fail(ErrUnauthorized, "No refresh token provided")
	}
	sess, err := s.Issuer.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrRefreshInvalid) || errors.Is(err, session.ErrRefreshExpired) {
			return nil, fail(ErrUnauthorized, "Invalid refresh token")
		}
		return nil, err
	}
	return sess, nil
}

// Logout revokes the session behind refreshToken. A token that no longer
// identifies anyone is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.Issuer.RevokeToken(ctx, refreshToken)
	if errors.Is(err, session.ErrRefreshInvalid) {
		logging.FromContext(ctx).Info("logout_with_invalid_token")
		return nil
	}
	return err
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.Repo.UserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "User not found")
	}
	return u, err
}

func (s *AuthService) publish(ctx context.Context, ev events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicUsers, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "type", ev.Type, "error", err)
	}
}
