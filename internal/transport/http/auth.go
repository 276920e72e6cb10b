package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type AuthHTTP struct {
	Svc    *service.AuthService
	Events events.Publisher
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.Svc.Register(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		he := httpError(err, "")
		l.Warn("register_error", "status", he.Code, "error", err)
		return he
	}

	publish(c, h.Events, events.TopicUser, events.Event{Type: events.UserRegistered, UserID: user.ID})
	l.Info("register_successful", "status", 200, "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.Svc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		he := httpError(err, "")
		l.Warn("login_failed", "status", he.Code, "error", err)
		return he
	}

	publish(c, h.Events, events.TopicUser, events.Event{Type: events.UserLoggedIn, UserID: res.UserID})
	l.Info("login_successful", "status", 200, "user_id", res.UserID)
	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	userID, err := currentUser(c)
	if err != nil {
		return httpError(err, "")
	}

	user, err := h.Svc.GetProfile(ctx, userID)
	if err != nil {
		he := httpError(err, "")
		l.Warn("me_error", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

// publish sends e with a bounded timeout; failures are logged and never reach the client.
func publish(c echo.Context, p events.Publisher, topic string, e events.Event) {
	if p == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	ctx := c.Request().Context()
	pubCtx, cancel := contextWithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Publish(pubCtx, topic, e); err != nil {
		logging.FromContext(ctx).Error("publish_error", "status", "dropped", "topic", topic, "type", e.Type, "error", err)
	}
}
