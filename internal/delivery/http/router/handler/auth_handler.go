// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"passport/internal/delivery/http/middleware"
	"passport/internal/delivery/http/response"
	"passport/internal/domain/entity"
	"passport/internal/domain/service"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for authentication handlers. The issuer and
// credential usecase back the federated callback, which opens the session
// itself after the profile merge.
type AuthHandler struct {
	auth        usecase.AuthUsecase
	federation  usecase.FederationUsecase
	credentials usecase.CredentialUsecase
	issuer      service.AccessTokenIssuer
	logger      *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(
	auth usecase.AuthUsecase,
	federation usecase.FederationUsecase,
	credentials usecase.CredentialUsecase,
	issuer service.AccessTokenIssuer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		federation:  federation,
		credentials: credentials,
		issuer:      issuer,
		logger:      logger,
	}
}

// --- Request models ---

type registerRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// logoutRequest carries no validate tags: logging out with a blank or bogus
// token still succeeds.
type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type federatedCallbackRequest struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ProviderID string `json:"providerId" validate:"required"`
	AvatarURL  string `json:"avatarUrl"`
}

// --- Response models ---

// identityPayload is the outward shape of an identity. The password hash
// never leaves the service.
type identityPayload struct {
	ID            uuid.UUID `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Origin        string    `json:"origin"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

type authPayload struct {
	Identity     identityPayload `json:"identity"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

type tokenPairPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func toIdentityPayload(identity *entity.Identity) identityPayload {
	return identityPayload{
		ID:            identity.ID,
		FirstName:     identity.FirstName,
		LastName:      identity.LastName,
		Email:         identity.Email,
		Origin:        identity.Origin.String(),
		AvatarURL:     identity.AvatarURL,
		EmailVerified: identity.EmailVerified,
		CreatedAt:     identity.CreatedAt,
	}
}

func toAuthPayload(output *usecase.AuthOutput) authPayload {
	return authPayload{
		Identity:     toIdentityPayload(output.Identity),
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
	}
}

// --- Handlers ---

// Register handles the registration request for a local identity.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.auth.Register(c.Request().Context(), usecase.RegisterInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		ClientIP:        c.RealIP(),
		UserAgent:       c.Request().UserAgent(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toAuthPayload(output), "Identity registered successfully")
}

// Login handles the password login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.auth.Login(c.Request().Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		ClientIP:  c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toAuthPayload(output), "Login successful")
}

// Refresh handles the token rotation request.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid refresh input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.auth.Refresh(c.Request().Context(), usecase.RefreshInput{
		RefreshToken: req.RefreshToken,
		ClientIP:     c.RealIP(),
		UserAgent:    c.Request().UserAgent(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tokenPairPayload{
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
	}, "Token refreshed successfully")
}

// Logout handles the logout request. It always reports success.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid logout input")
	}

	if err := h.auth.Logout(c.Request().Context(), usecase.LogoutInput{RefreshToken: req.RefreshToken}); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Logout successful")
}

// FederatedCallback handles the profile asserted by an external identity
// provider after it has authenticated the principal. The merge itself issues
// nothing; the session is opened here, after the merge succeeds.
func (h *AuthHandler) FederatedCallback(c echo.Context) error {
	var req federatedCallbackRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid federated callback input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	ctx := c.Request().Context()

	identity, err := h.federation.Upsert(ctx, usecase.FederatedProfileInput{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		ProviderID: req.ProviderID,
		AvatarURL:  req.AvatarURL,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	accessToken, err := h.issuer.IssueForIdentity(identity)
	if err != nil {
		return errors.WithStack(err)
	}

	issued, err := h.credentials.Issue(ctx, identity.ID, usecase.CredentialMetadata{
		ClientIP:  c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, authPayload{
		Identity:     toIdentityPayload(identity),
		AccessToken:  accessToken,
		RefreshToken: issued.Raw,
	}, "Federated authentication successful")
}

// Me returns the identity behind the presented access token.
func (h *AuthHandler) Me(c echo.Context) error {
	email, ok := c.Get(middleware.KeySubjectEmail).(string)
	if !ok || email == "" {
		return response.Unauthorized(c, "INVALID_TOKEN", "access token carries no subject")
	}

	identity, err := h.auth.CurrentIdentity(c.Request().Context(), email)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toIdentityPayload(identity), "Identity retrieved successfully")
}

// LogoutEverywhere revokes every session of the authenticated identity.
func (h *AuthHandler) LogoutEverywhere(c echo.Context) error {
	email, ok := c.Get(middleware.KeySubjectEmail).(string)
	if !ok || email == "" {
		return response.Unauthorized(c, "INVALID_TOKEN", "access token carries no subject")
	}

	ctx := c.Request().Context()

	identity, err := h.auth.CurrentIdentity(ctx, email)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := h.auth.LogoutEverywhere(ctx, identity.ID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "All sessions revoked")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
