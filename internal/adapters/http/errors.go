package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/dkeye/devcircle/internal/auth"
	"github.com/dkeye/devcircle/internal/domain"
	"github.com/dkeye/devcircle/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var useJSONNames sync.Once

// registerJSONFieldNames makes validation errors speak in JSON field names.
func registerJSONFieldNames() {
	useJSONNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// ErrorMiddleware renders the last error a handler pushed with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("module", "adapters.http").Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("request failed")
		}
		c.AbortWithStatusJSON(status, body)
	}
}

func errorResponse(err error) (int, gin.H) {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		return http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldMessages(fields)}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, gin.H{"error": "invalid credentials"}
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, gin.H{"error": "token is not valid"}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, gin.H{"error": err.Error()}
	case errors.Is(err, service.ErrInactiveAccount):
		return http.StatusForbidden, gin.H{"error": "account is inactive"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, gin.H{"error": "permission denied"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": "not found"}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, gin.H{"error": "already exists"}
	default:
		return http.StatusInternalServerError, gin.H{"error": http.StatusText(http.StatusInternalServerError)}
	}
}

func fieldMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		name := e.Namespace()
		if _, rest, ok := strings.Cut(name, "."); ok {
			name = rest
		}
		out[name] = fieldMessage(e)
	}
	return out
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	default:
		return fmt.Sprintf("failed %q", e.Tag())
	}
}

// bindJSON binds the body into v, pushing a 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		_ = c.Error(fields)
	} else {
		_ = c.Error(fmt.Errorf("%w: malformed body: %v", domain.ErrInvalidInput, err))
	}
	return false
}

func errInvalidQuery(err error) error {
	return fmt.Errorf("%w: query: %v", domain.ErrInvalidInput, err)
}

func pathID(c *gin.Context, name string) (string, bool) {
	id, err := domain.ParseID(c.Param(name))
	if err != nil {
		_ = c.Error(err)
		return "", false
	}
	return id, true
}
