//go:generate go run go.uber.org/mock/mockgen -source=users.go -destination=../mocks/mock_user_repository.go -package=mocks
package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/devcircle/internal/auth"
	"github.com/dkeye/devcircle/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
)

type UserRepository interface {
	Insert(u *domain.User) error
	Get(id string) (*domain.User, error)
	FindBy(field, value string) (*domain.User, error)
	Replace(u *domain.User) error
}

type TokenIssuer interface {
	Generate(userID, role string) (string, error)
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	// Login is an email or a username.
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type Session struct {
	Token string          `json:"token"`
	User  domain.UserView `json:"user"`
}

type UserService struct {
	repo   UserRepository
	tokens TokenIssuer
	now    func() time.Time
}

func NewUserService(repo UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{repo: repo, tokens: tokens, now: func() time.Time { return time.Now().UTC() }}
}

// Register creates an account and signs the caller in.
func (s *UserService) Register(r RegisterRequest) (Session, error) {
	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := domain.NewUser(r.Username, r.Email, hash)
	if err != nil {
		return Session{}, errors.Join(domain.ErrInvalidInput, err)
	}
	if err := s.repo.Insert(u); err != nil {
		return Session{}, err
	}
	log.Info().Str("module", "service.users").Str("user", u.ID).Msg("registered")
	return s.session(u)
}

// Login accepts an email or a username. Unknown users and wrong passwords are indistinguishable.
func (s *UserService) Login(r LoginRequest) (Session, error) {
	field, value := "username", strings.TrimSpace(r.Login)
	if strings.Contains(value, "@") {
		field, value = "email", domain.NormalizeEmail(value)
	}
	u, err := s.repo.FindBy(field, value)
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	ok, err := auth.ComparePassword(r.Password, u.PasswordHash)
	if err != nil {
		log.Error().Err(err).Str("module", "service.users").Str("user", u.ID).Msg("stored hash unreadable")
		return Session{}, ErrInvalidCredentials
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return Session{}, ErrInactiveAccount
	}

	now := s.now()
	u.LastLogin = &now
	if err := s.repo.Replace(u); err != nil {
		return Session{}, err
	}
	return s.session(u)
}

// Get resolves an active user, as the auth middleware needs.
func (s *UserService) Get(id string) (*domain.User, error) {
	u, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactiveAccount
	}
	return u, nil
}

func (s *UserService) session(u *domain.User) (Session, error) {
	tok, err := s.tokens.Generate(u.ID, u.Role)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: tok, User: u.View()}, nil
}
