package http

import (
	"errors"
	"strings"

	"github.com/dkeye/devcircle/internal/auth"
	"github.com/dkeye/devcircle/internal/domain"
	"github.com/dkeye/devcircle/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	ctxUser        = "user"
	ctxClientToken = "client_token"
)

// ClientTokenMiddleware gives every browser a stable anonymous token kept in the session cookie.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get("ct").(string)
		if token == "" {
			token = uuid.NewString()
			s.Set("ct", token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set(ctxClientToken, token)
		c.Next()
	}
}

type authenticator struct {
	tokens *auth.Issuer
	users  *service.UserService
}

func bearer(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	tok, ok := strings.CutPrefix(h, "Bearer ")
	tok = strings.TrimSpace(tok)
	return tok, ok && tok != ""
}

func (a authenticator) resolve(raw string) (*domain.User, error) {
	claims, err := a.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}
	return a.users.Get(claims.UserID)
}

// Required rejects requests without a valid bearer token of an active user.
func (a authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			_ = c.Error(domain.ErrUnauthorized)
			c.Abort()
			return
		}
		u, err := a.resolve(raw)
		if err != nil {
			log.Debug().Err(err).Str("module", "adapters.http").Msg("bearer rejected")
			if errors.Is(err, domain.ErrNotFound) {
				err = auth.ErrInvalidToken
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(ctxUser, u)
		c.Next()
	}
}

// Optional attaches the user when a valid token is present and never rejects.
func (a authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearer(c); ok {
			if u, err := a.resolve(raw); err == nil {
				c.Set(ctxUser, u)
			} else {
				log.Debug().Err(err).Str("module", "adapters.http").Msg("optional bearer ignored")
			}
		}
		c.Next()
	}
}

// RequireAdmin must run after Required.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := currentUser(c); u == nil || !u.IsAdmin() {
			_ = c.Error(domain.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
