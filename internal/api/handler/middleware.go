package handler

import (
	"context"
	"errors"
	"strings"

	"daredo/internal/models"
	"daredo/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type ctxKey string

var ctxKeyAuthUser ctxKey = "AUTH_USER"

// Authn attaches the session user to the request context. It does NOT
// terminate unauthenticated requests; handlers decide what they require.
func Authn(verifier interface {
	ValidateToken(tokenString string) (*models.UserFromAuth, error)
},
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.Split(header, "Bearer")
			if len(parts) != 2 {
				return next(c)
			}

			token := strings.TrimSpace(parts[1])
			if len(token) == 0 {
				return next(c)
			}

			user, err := verifier.ValidateToken(token)
			if err != nil {
				// client error, but no details leave the server
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthUser, user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveValidUser(ctx context.Context, container *do.Injector) (*models.User, error) {
	userAuth, ok := ctx.Value(ctxKeyAuthUser).(*models.UserFromAuth)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}

	serviceSubscription, err := do.Invoke[*services.ServiceSubscription](container)
	if err != nil {
		return nil, err
	}

	return serviceSubscription.FindOrCreateUser(ctx, userAuth)
}

func ResolveAdmin(ctx context.Context, container *do.Injector) (*models.User, error) {
	user, err := ResolveValidUser(ctx, container)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, errorx.Wrap(errors.New("admin only"), errorx.Authn)
	}

	return user, nil
}
