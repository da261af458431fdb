package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"langgol/internal/demo"
	"langgol/internal/middleware"
	"langgol/internal/models"
	"langgol/internal/services"
)

type AuthHandler struct {
	accounts  services.AccountService
	jwtSecret []byte
}

func NewAuthHandler(accounts services.AccountService, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{accounts: accounts, jwtSecret: jwtSecret}
}

// @Summary      Sign up
// @Description  Creates an unverified account and emails a verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        signup  body      models.SignupRequest  true  "Account details"
// @Success      201     {object}  map[string]interface{}
// @Failure      409     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.accounts.Signup(req)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "User created. Please check your email for the verification code.",
		})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
	case errors.Is(err, services.ErrMailDispatch):
		// the account exists; the outbox keeps retrying the mail
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification email"})
	default:
		log.Printf("[auth][signup] failed for %q: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Signup failed"})
	}
}

// @Summary      Verify account
// @Description  Activates an account with the emailed one-time code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        verify  body      models.VerifyRequest  true  "Email and code"
// @Success      200     {object}  map[string]interface{}
// @Failure      400     {object}  map[string]interface{}
// @Failure      404     {object}  map[string]interface{}
// @Router       /verify [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.accounts.Verify(req.Email, req.Code)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
	case errors.Is(err, services.ErrCodeInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid verification code"})
	default:
		log.Printf("[auth][verify] failed for %q: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Verification failed"})
	}
}

// @Summary      Log in
// @Description  Authenticates an account and returns access and refresh tokens
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]interface{}
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)

	user, err := h.accounts.Login(email, req.Password)
	switch {
	case err == nil:
		// fall through to token issuing
	case errors.Is(err, services.ErrBadCredentials):
		// unknown email and wrong password are indistinguishable here
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "reason": "credentials"})
		return
	case errors.Is(err, services.ErrUnverified):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "reason": "unverified"})
		return
	default:
		log.Printf("[auth][login] failed for %q: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	accessToken, err := middleware.NewAccessToken(h.jwtSecret, user.Email, user.IsAdmin)
	if err != nil {
		log.Printf("[auth][login] sign access token for %q: %v", user.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}
	refreshToken, _, err := h.accounts.IssueRefresh(user.Email)
	if err != nil {
		log.Printf("[auth][login] issue refresh for %q: %v", user.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	// a real sign-in ends any anonymous demo session
	demo.ClearCookie(c)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user, // PasswordHash and friends are json:"-"
		"tokens": gin.H{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		},
	})
}

// @Summary      Refresh tokens
// @Description  Rotates the refresh token and returns a new access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	// rotation: the stored token is replaced, the old one stops working
	newRefresh, _, err := h.accounts.IssueRefresh(user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rotate refresh token"})
		return
	}
	accessToken, err := middleware.NewAccessToken(h.jwtSecret, user.Email, user.IsAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": newRefresh,
	})
}

// @Summary      Log out
// @Description  Revokes the caller's refresh token
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	email := middleware.TokenEmail(c)
	if err := h.accounts.Logout(email); err != nil {
		log.Printf("[auth][logout] failed for %q: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary      Request password reset
// @Description  Returns the account's security question
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.ResetRequest  true  "Email"
// @Success      200      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /request-password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req models.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.accounts.RequestPasswordReset(req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"question": question})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		log.Printf("[auth][reset-request] failed for %q: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reset request failed"})
	}
}

// @Summary      Complete password reset
// @Description  Sets a new password after checking the security answer
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.ResetCompleteRequest  true  "Email, answer, new password"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]interface{}
// @Failure      404      {object}  map[string]interface{}
// @Router       /complete-password-reset [post]
func (h *AuthHandler) CompletePasswordReset(c *gin.Context) {
	var req models.ResetCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.accounts.CompletePasswordReset(req.Email, req.Answer, req.NewPassword)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
	case errors.Is(err, services.ErrWrongAnswer):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Incorrect answer"})
	default:
		log.Printf("[auth][reset-complete] failed for %q: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Reset failed"})
	}
}
