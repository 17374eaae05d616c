package service_test

import (
	"errors"
	"testing"

	"github.com/dkeye/devcircle/internal/auth"
	"github.com/dkeye/devcircle/internal/domain"
	"github.com/dkeye/devcircle/internal/mocks"
	"github.com/dkeye/devcircle/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newService(t *testing.T) (*service.UserService, *mocks.MockUserRepository, *mocks.MockTokenIssuer) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	tokens := mocks.NewMockTokenIssuer(ctrl)
	return service.NewUserService(repo, tokens), repo, tokens
}

func storedUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u, err := domain.NewUser("alice", "alice@example.com", hash)
	require.NoError(t, err)
	u.ID = "u1"
	return u
}

func TestRegister(t *testing.T) {
	req := require.New(t)
	svc, repo, tokens := newService(t)

	repo.EXPECT().Insert(gomock.Any()).DoAndReturn(func(u *domain.User) error {
		req.Equal("alice", u.Username)
		req.Equal("alice@example.com", u.Email)
		req.NotEqual("s3cret-pass", u.PasswordHash)
		u.ID = "u1"
		return nil
	})
	tokens.EXPECT().Generate("u1", domain.RoleUser).Return("tok", nil)

	s, err := svc.Register(service.RegisterRequest{Username: "alice", Email: "Alice@Example.com", Password: "s3cret-pass"})
	req.NoError(err)
	req.Equal("tok", s.Token)
	req.Equal("u1", s.User.ID)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, repo, _ := newService(t)
	repo.EXPECT().Insert(gomock.Any()).Return(domain.ErrConflict)

	_, err := svc.Register(service.RegisterRequest{Username: "alice", Email: "a@b.co", Password: "s3cret-pass"})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_BadUsername(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Register(service.RegisterRequest{Username: "al", Email: "a@b.co", Password: "s3cret-pass"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrUsernameTooShort)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name  string
		login string
		field string
		value string
	}{
		{"by email", " Alice@Example.com ", "email", "alice@example.com"},
		{"by username", "alice", "username", "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			svc, repo, tokens := newService(t)
			u := storedUser(t, "s3cret-pass")

			repo.EXPECT().FindBy(tt.field, tt.value).Return(u, nil)
			repo.EXPECT().Replace(u).Return(nil)
			tokens.EXPECT().Generate("u1", domain.RoleUser).Return("tok", nil)

			s, err := svc.Login(service.LoginRequest{Login: tt.login, Password: "s3cret-pass"})
			req.NoError(err)
			req.Equal("tok", s.Token)
			req.NotNil(u.LastLogin)
			req.NotNil(s.User.LastLogin)
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		svc, repo, _ := newService(t)
		repo.EXPECT().FindBy("username", "ghost").Return(nil, domain.ErrNotFound)

		_, err := svc.Login(service.LoginRequest{Login: "ghost", Password: "whatever1"})
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, repo, _ := newService(t)
		repo.EXPECT().FindBy("username", "alice").Return(storedUser(t, "s3cret-pass"), nil)

		_, err := svc.Login(service.LoginRequest{Login: "alice", Password: "nope-nope"})
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("inactive", func(t *testing.T) {
		svc, repo, _ := newService(t)
		u := storedUser(t, "s3cret-pass")
		u.IsActive = false
		repo.EXPECT().FindBy("username", "alice").Return(u, nil)

		_, err := svc.Login(service.LoginRequest{Login: "alice", Password: "s3cret-pass"})
		require.ErrorIs(t, err, service.ErrInactiveAccount)
	})

	t.Run("store fault", func(t *testing.T) {
		svc, repo, _ := newService(t)
		boom := errors.New("disk on fire")
		repo.EXPECT().FindBy("username", "alice").Return(nil, boom)

		_, err := svc.Login(service.LoginRequest{Login: "alice", Password: "s3cret-pass"})
		require.ErrorIs(t, err, boom)
	})
}

func TestGet(t *testing.T) {
	req := require.New(t)
	svc, repo, _ := newService(t)
	u := storedUser(t, "s3cret-pass")
	repo.EXPECT().Get("u1").Return(u, nil)

	got, err := svc.Get("u1")
	req.NoError(err)
	req.Same(u, got)

	u.IsActive = false
	repo.EXPECT().Get("u1").Return(u, nil)
	_, err = svc.Get("u1")
	req.ErrorIs(err, service.ErrInactiveAccount)
}
