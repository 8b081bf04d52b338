package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmarulanda/muninet/internal/events"
	"github.com/dmarulanda/muninet/internal/logging"
	mw "github.com/dmarulanda/muninet/internal/middleware"
	"github.com/dmarulanda/muninet/internal/service"
	"github.com/dmarulanda/muninet/internal/tokens"
)

type AuthHandler struct {
	Auth     *service.AuthService
	Producer *events.Producer
}

type registerRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RoleID         *uint  `json:"role_id,omitempty"`
	MunicipalityID *uint  `json:"municipality_id,omitempty"`
}

type loginRequest struct {
	// Login accepts either an email or a username.
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		l.Warn("register_failed", "status", 400, "reason", "missing fields")
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
	}

	res, err := h.Auth.Register(ctx, service.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		RoleID:         req.RoleID,
		MunicipalityID: req.MunicipalityID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			l.Warn("register_failed", "status", 409, "reason", "duplicate email")
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		case errors.Is(err, service.ErrDuplicateUsername):
			l.Warn("register_failed", "status", 409, "reason", "duplicate username")
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		default:
			l.Error("register_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	if err := h.Producer.Publish(ctx, events.TopicUserEvents, fmt.Sprint(res.User.ID), map[string]interface{}{
		"type":     "user_registered",
		"user_id":  res.User.ID,
		"username": res.User.Username,
	}); err != nil {
		l.Error("event_publish_failed", "error", err)
	}

	return c.JSON(http.StatusCreated, authResponse(res))
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Auth.Login(ctx, req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			l.Warn("login_failed", "status", 401)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, service.ErrAccountInactive):
			l.Warn("login_failed", "status", 403, "reason", "inactive")
			return echo.NewHTTPError(http.StatusForbidden, "account inactive")
		default:
			l.Error("login_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	if err := h.Producer.Publish(ctx, events.TopicUserEvents, fmt.Sprint(res.User.ID), map[string]interface{}{
		"type":     "user_logged_in",
		"user_id":  res.User.ID,
		"username": res.User.Username,
	}); err != nil {
		l.Error("event_publish_failed", "error", err)
	}

	return c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		l.Warn("refresh_failed", "status", 400)
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	access, exp, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrTokenExpired):
			l.Warn("refresh_failed", "status", 401, "reason", "expired")
			return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
		case errors.Is(err, tokens.ErrWrongTokenKind):
			l.Warn("refresh_failed", "status", 401, "reason", "wrong kind")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token type")
		case errors.Is(err, tokens.ErrTokenMalformed):
			l.Warn("refresh_failed", "status", 401, "reason", "malformed")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		case errors.Is(err, service.ErrUserNotFound):
			l.Warn("refresh_failed", "status", 404, "reason", "user gone")
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrAccountInactive):
			l.Warn("refresh_failed", "status", 403, "reason", "inactive")
			return echo.NewHTTPError(http.StatusForbidden, "account inactive")
		default:
			l.Error("refresh_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": access,
		"access_exp":   exp,
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	ident, ok := mw.FromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	user, err := h.Auth.Me(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, user)
}

func authResponse(res *service.AuthResult) echo.Map {
	return echo.Map{
		"user":          res.User,
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"access_exp":    res.AccessExp,
		"refresh_exp":   res.RefreshExp,
	}
}
