package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/services"
	"github.com/cppla/miniblog/utils"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	auth   *services.AuthService
	logger *zap.Logger
}

// NewAuthController creates an AuthController.
func NewAuthController(auth *services.AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{auth: auth, logger: logger}
}

// Register creates a local account; the password is hashed before storage.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	if missing := missingFields(
		required("email", req.Email),
		required("username", req.Username),
		requiredExact("password", req.Password),
	); len(missing) > 0 {
		respondMissing(ctx, missing)
		return
	}

	_, err := a.auth.Register(ctx.Request.Context(), req.Email, strings.TrimSpace(req.Username), req.Password)
	if errors.Is(err, services.ErrEmailTaken) {
		utils.Error(ctx, http.StatusConflict, "Email already registered!")
		return
	}
	if err != nil {
		utils.ServerError(ctx, a.logger, "register failed", err)
		return
	}

	utils.Message(ctx, http.StatusCreated, "User registered successfully!")
}

// Login verifies credentials and returns an access token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	if missing := missingFields(required("email", req.Email), requiredExact("password", req.Password)); len(missing) > 0 {
		respondMissing(ctx, missing)
		return
	}

	token, _, err := a.auth.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		utils.Error(ctx, http.StatusBadRequest, "Invalid credentials!")
		return
	}
	if err != nil {
		utils.ServerError(ctx, a.logger, "login failed", err)
		return
	}

	utils.Respond(ctx, http.StatusOK, gin.H{"access_token": token})
}

// Logout revokes the presented token until it expires.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if token == "" {
		utils.Error(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	if err := a.auth.Revoke(ctx.Request.Context(), token); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			utils.Error(ctx, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		utils.ServerError(ctx, a.logger, "logout failed", err)
		return
	}

	utils.Message(ctx, http.StatusOK, "Logged out successfully!")
}
