package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quicksign/quicksign/internal/config"
	"github.com/quicksign/quicksign/internal/notify"
	"github.com/quicksign/quicksign/internal/tokens"
	"github.com/quicksign/quicksign/internal/users"
	"github.com/quicksign/quicksign/internal/verification"
	"github.com/quicksign/quicksign/pkg/logger"
)

// AuthHandler owns registration (with the email verification code flow),
// login and profile endpoints.
type AuthHandler struct {
	cfg    *config.Config
	users  *users.Service
	verify *verification.Service
	mailer notify.Mailer

	// mailEnabled gates the verification flow; with mail off (or failing)
	// registration completes directly, unverified.
	mailEnabled bool
}

func NewAuthHandler(cfg *config.Config, u *users.Service, v *verification.Service, m notify.Mailer, mailEnabled bool) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: u, verify: v, mailer: m, mailEnabled: mailEnabled}
}

func (h *AuthHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	a := rg.Group("/api/auth")
	a.POST("/register", h.RegisterAccount)
	a.POST("/verify-email", h.VerifyEmail)
	a.POST("/resend-verification", h.ResendVerification)
	a.POST("/login", h.Login)
	rg.GET("/api/user/profile", auth, h.Profile)
}

type registerRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *AuthHandler) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}
	if _, err := h.users.GetByEmail(c.Request.Context(), req.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}

	if h.mailEnabled {
		p, err := h.verify.Begin(c.Request.Context(), req.FullName, req.Email, req.Password)
		if err == nil {
			n := notify.NewNotification(notify.KindVerification, req.Email, req.FullName,
				"QuickSign Pro - Email Verification", map[string]string{"code": p.Code})
			if sendErr := h.mailer.Send(c.Request.Context(), n); sendErr == nil {
				c.JSON(http.StatusOK, gin.H{
					"message":              "Verification code sent to your email",
					"email":                req.Email,
					"requiresVerification": true,
				})
				return
			}
			logger.Warnf("verification email to %s failed, falling back to direct registration", req.Email)
		} else {
			logger.Warnf("begin verification for %s: %v", req.Email, err)
		}
	}

	// mail off or failed: register directly, unverified
	u, err := h.users.Register(c.Request.Context(), req.FullName, req.Email, req.Password, false)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	token, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully (email verification disabled)",
		"token":   token,
		"user":    publicUser(u),
	})
}

type verifyRequest struct {
	Email            string `json:"email" binding:"required"`
	VerificationCode string `json:"verificationCode" binding:"required"`
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and verification code are required"})
		return
	}
	p, err := h.verify.Confirm(c.Request.Context(), req.Email, req.VerificationCode)
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Verification code has expired"})
		case errors.Is(err, verification.ErrCodeInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification code"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}
	u, err := h.users.Register(c.Request.Context(), p.FullName, p.Email, p.Password, true)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	token, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Email verified and user registered successfully",
		"token":   token,
		"user":    publicUser(u),
	})
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}
	p, err := h.verify.Resend(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, verification.ErrNoPending) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No pending verification found for this email"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	n := notify.NewNotification(notify.KindVerification, p.Email, p.FullName,
		"QuickSign Pro - Email Verification", map[string]string{"code": p.Code})
	if err := h.mailer.Send(c.Request.Context(), n); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "New verification code sent to your email"})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	token, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token, "user": publicUser(u)})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	userID := c.GetString("userId")
	u, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": publicUser(u)})
}
