package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aywhoosh/iris-identity/internal/api/metrics"
	"github.com/aywhoosh/iris-identity/internal/core/domain"
	"github.com/aywhoosh/iris-identity/internal/core/ports"
)

// AuthHandler exposes the authentication surface to the mobile app. It
// orchestrates the credential manager and the token issuer, and reports every
// security-relevant outcome to the audit recorder.
type AuthHandler struct {
	users  ports.UserService
	tokens ports.TokenService
	audit  ports.AuditRecorder
	log    zerolog.Logger
}

func NewAuthHandler(users ports.UserService, tokens ports.TokenService, audit ports.AuditRecorder, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, audit: audit, log: log}
}

// Register creates a new patient account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  response
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Create(c.Request().Context(), ports.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case domain.IsValidation(err):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		case err == domain.ErrEmailTaken:
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	h.record(c, user.ID, domain.ActionRegister, domain.ResourceUser, user.ID, nil)

	return c.JSON(http.StatusCreated, response{Success: true, Data: registerResponse{ID: user.ID}})
}

// Login authenticates a user and mints a token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  response
// @Failure      401   {object}  map[string]any
// @Failure      429   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		// Anonymous entry: the failure must not confirm the account exists.
		h.record(c, "", domain.ActionLoginFailed, domain.ResourceUser, "", nil)
		return err
	}

	pair, err := h.tokens.IssuePair(ctx, user)
	if err != nil {
		return err
	}
	if err := h.users.UpdateLastLogin(ctx, user.ID); err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID).Msg("last-login bump failed")
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.record(c, user.ID, domain.ActionLogin, domain.ResourceUser, user.ID, nil)

	return c.JSON(http.StatusOK, response{Success: true, Data: loginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         summarize(user),
	}})
}

// Refresh rotates a refresh token for a fresh pair.
//
// @Summary      Rotate a refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Current refresh token"
// @Success      200   {object}  response
// @Failure      401   {object}  map[string]any
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, err := h.tokens.Rotate(c.Request().Context(), req.RefreshToken)
	if err != nil {
		metrics.TokenRotationsTotal.WithLabelValues("rejected").Inc()
		h.record(c, "", domain.ActionTokenRejected, domain.ResourceRefreshToken, "", nil)
		return err
	}

	metrics.TokenRotationsTotal.WithLabelValues("success").Inc()
	h.record(c, "", domain.ActionTokenRotated, domain.ResourceRefreshToken, "", nil)

	return c.JSON(http.StatusOK, response{Success: true, Data: refreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}})
}

// Logout revokes the presented refresh token. Idempotent: revoking an unknown
// or already-dead token still reports success, because the session the caller
// wanted ended either way.
//
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      logoutRequest  true  "Refresh token to revoke"
// @Success      200   {object}  response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.tokens.Revoke(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}

	metrics.TokenRevocationsTotal.Inc()
	actorID, _ := c.Get("user_id").(string)
	h.record(c, actorID, domain.ActionLogout, domain.ResourceRefreshToken, "", nil)

	return c.JSON(http.StatusOK, response{Success: true})
}

// Me returns the authenticated user's profile.
//
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response
// @Failure      401  {object}  map[string]any
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.users.FindByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: summarize(user)})
}

// ChangePassword replaces the caller's password after re-verifying the
// current one.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if !h.users.VerifyPassword(ctx, userID, req.CurrentPassword) {
		return domain.ErrInvalidCredentials
	}
	if _, err := h.users.Update(ctx, userID, ports.UpdateUserInput{Password: &req.NewPassword}); err != nil {
		return err
	}

	h.record(c, userID, domain.ActionPasswordChange, domain.ResourceUser, userID, nil)
	return c.JSON(http.StatusOK, response{Success: true})
}

// DeleteAccount hard-deletes the caller's account. Outstanding refresh tokens
// die with it: rotation re-resolves the subject and fails once the user row
// is gone.
//
// @Summary      Delete account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response
// @Failure      401  {object}  map[string]any
// @Router       /auth/account [delete]
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.Request().Context(), userID); err != nil {
		return err
	}

	h.record(c, userID, domain.ActionAccountDeleted, domain.ResourceUser, userID, nil)
	return c.JSON(http.StatusOK, response{Success: true})
}

// record reports an outcome to the audit trail. Best-effort: a recording
// failure is already logged downstream and never propagates to the client.
func (h *AuthHandler) record(c echo.Context, actorID, action, resourceType, resourceID string, details map[string]any) {
	_, _ = h.audit.Record(c.Request().Context(), ports.AuditEntryInput{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    c.RealIP(),
		UserAgent:    c.Request().UserAgent(),
	})
}
