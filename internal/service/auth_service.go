// Package service contains the application's business logic, layered between
// the HTTP handlers and the repositories.
package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"platefeed/internal/auth"
	"platefeed/internal/models"
	"platefeed/internal/observability"
	"platefeed/internal/repository"
	"platefeed/internal/validation"
)

// AuthService creates accounts and exchanges credentials for session tokens.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.Service
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// Session is what a successful register or login hands back to the client:
// the signed token plus the public profile it asserts.
type Session struct {
	Token string
	User  *models.User
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.Service) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := validation.ValidateDisplayName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
	}
	// The unique index on email backstops the existence check above, so two
	// concurrent registrations still resolve to a single account.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.startSession(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		observability.AuthFailuresTotal.WithLabelValues("unknown_email").Inc()
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		observability.AuthFailuresTotal.WithLabelValues("bad_password").Inc()
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	return s.startSession(user)
}

func (s *AuthService) startSession(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(auth.IdentityOf(user))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{Token: token, User: user}, nil
}
