package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/present/rest/presenter"
	"github.com/totegamma/repoindex/internal/usecase"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	users *usecase.UserUsecase
}

func NewAuthMiddleware(users *usecase.UserUsecase) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// IdentifyIdentity stores the did of a request carrying valid basic auth
// credentials. Requests without credentials pass through anonymously.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		username, password, ok := c.Request().BasicAuth()
		if !ok {
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}

		did, err := s.users.Authenticate(ctx, username, password)
		if err != nil {
			span.RecordError(err)
			if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrNotFound) {
				return presenter.Unauthorized(c)
			}
			return presenter.InternalError(c, err)
		}

		ctx = context.WithValue(ctx, domain.RequesterDidCtxKey, did)
		span.SetAttributes(attribute.String("RequesterDid", did))

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireRequester rejects anonymous requests.
func RequireRequester(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := RequesterDid(c); !ok {
			return presenter.Unauthorized(c)
		}
		return next(c)
	}
}

func RequesterDid(c echo.Context) (string, bool) {
	did, ok := c.Request().Context().Value(domain.RequesterDidCtxKey).(string)
	return did, ok && did != ""
}
