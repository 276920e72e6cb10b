package httpserver

import (
	"context"
	"errors"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
)

const userIDKey = "user_id"

type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (string, error)
}

// storeFailure marks verification errors that are not the caller's fault.
type storeFailure struct{ err error }

func (s *storeFailure) Error() string { return s.err.Error() }
func (s *storeFailure) Unwrap() error { return s.err }

// BearerAuth reads "Authorization: Bearer <token>" and stores the verified user id under "user_id".
func BearerAuth(v TokenVerifier) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: userIDKey,
		ParseTokenFunc: func(c echo.Context, auth string) (any, error) {
			userID, err := v.VerifyToken(c.Request().Context(), auth)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrUnknownUser) {
					return nil, err
				}
				return nil, &storeFailure{err: err}
			}
			return userID, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context()).With("handler", "auth.bearer")

			var sf *storeFailure
			switch {
			case errors.As(err, &sf):
				he := httpError(sf.err, "")
				l.Error("auth_error", "status", he.Code, "error", err)
				return he
			case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrUnknownUser):
				he := httpError(err, "")
				l.Warn("auth_error", "status", he.Code, "error", err)
				return he
			}
			l.Warn("auth_error", "status", 401, "error", err)
			return httpError(service.ErrUnauthenticated, "")
		},
	})
}

func currentUser(c echo.Context) (string, error) {
	s, ok := c.Get(userIDKey).(string)
	if !ok || s == "" {
		return "", service.ErrUnauthenticated
	}
	return s, nil
}

// AuthRateLimiter allows perMinute requests per client IP; zero or less disables it.
func AuthRateLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(time.Minute / time.Duration(perMinute)),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
	})
}

func contextWithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}
