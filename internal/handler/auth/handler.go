package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/auth"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	accounts := r.Group("/accounts")
	{
		accounts.POST("/signup", h.Signup)
		accounts.POST("/login", h.Login)
		accounts.POST("/token/refresh", h.RefreshToken)
		accounts.POST("/forgot-password", h.ForgotPassword)
		accounts.POST("/reset-password", h.ResetPassword)
	}
}

// @Summary      Register a customer account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body body model.SignupRequest true "Account details"
// @Success      201 {object} httputil.Response{data=model.TokenResponse}
// @Failure      400 {object} httputil.Response
// @Failure      409 {object} httputil.Response
// @Router       /accounts/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	tokens, err := h.svc.Signup(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, tokens)
}

// @Summary      Obtain an access and refresh token pair
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body body model.LoginRequest true "Credentials"
// @Success      200 {object} httputil.Response{data=model.TokenResponse}
// @Failure      401 {object} httputil.Response
// @Router       /accounts/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, tokens)
}

// @Summary      Exchange a refresh token for a new access token
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body body model.RefreshTokenRequest true "Refresh token"
// @Success      200 {object} httputil.Response{data=model.AccessTokenResponse}
// @Failure      400 {object} httputil.Response
// @Router       /accounts/token/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	tokens, err := h.svc.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, tokens)
}

// @Summary      Email a password reset link
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body body model.ForgotPasswordRequest true "Account email"
// @Success      200 {object} httputil.Response
// @Router       /accounts/forgot-password [post]
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, auth.MsgResetLinkSent)
}

// @Summary      Set a new password with a reset token
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body body model.ResetPasswordRequest true "Token and new password"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response
// @Router       /accounts/reset-password [post]
func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, auth.MsgPasswordReset)
}
