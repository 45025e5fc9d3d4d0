package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"axs-learn/internal/domain"
	"axs-learn/internal/identity"
	"axs-learn/internal/service"
)

const oauthStateCookie = "oauth_state"

// AuthHandler mantiene dependencias para los endpoints de autenticacion.
type AuthHandler struct {
	logger      *zap.Logger
	userServ    *service.UserService
	identServ   *service.IdentityService
	tokens      *service.TokenService
	google      *identity.GoogleOAuth
	firebase    identity.TokenVerifier
	frontendURL string
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(
	logger *zap.Logger,
	userServ *service.UserService,
	identServ *service.IdentityService,
	tokens *service.TokenService,
	google *identity.GoogleOAuth,
	firebase identity.TokenVerifier,
	frontendURL string,
) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		userServ:    userServ,
		identServ:   identServ,
		tokens:      tokens,
		google:      google,
		firebase:    firebase,
		frontendURL: frontendURL,
	}
}

func userPayload(user domain.User) gin.H {
	return gin.H{
		"id":              user.ID,
		"name":            user.Name,
		"email":           user.Email,
		"is_verified":     user.IsVerified,
		"profile_picture": user.ProfilePicture,
	}
}

// Signup maneja POST /api/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed"})
		return
	}

	user, err := h.userServ.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Name must be between 2 and 50 characters"})
		case errors.Is(err, service.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password must be at least 6 characters with one lowercase letter, one uppercase letter, and one number"})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists with this email"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Email delivery unavailable"})
		default:
			h.logger.Error("signup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during signup"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully.",
		"email":   user.Email,
	})
}

// VerifyOTP maneja POST /api/auth/verify-otp.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp verify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed"})
		return
	}

	user, err := h.userServ.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrOTPNotRequested),
			errors.Is(err, service.ErrOTPExpired),
			errors.Is(err, service.ErrOTPInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired verification code"})
		default:
			h.logger.Error("verify otp failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during verification"})
		}
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully",
		"token":   token,
		"user":    userPayload(user),
	})
}

// ResendOTP maneja POST /api/auth/resend-otp.
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp resend request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed"})
		return
	}

	if _, err := h.userServ.ResendOTP(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrAlreadyVerified):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already verified"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Email delivery unavailable"})
		default:
			h.logger.Error("resend otp failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed"})
		return
	}

	user, err := h.userServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email or password"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during login"})
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    userPayload(user),
	})
}

// GoogleLogin maneja GET /api/auth/google.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if !h.google.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Google authentication is not configured on the server"})
		return
	}

	state := uuid.NewString()
	c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GoogleCallback maneja GET /api/auth/google/callback.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if !h.google.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Google authentication is not configured on the server"})
		return
	}

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.Redirect(http.StatusFound, h.frontendURL+"/login?error=auth_failed")
		return
	}

	claims, err := h.google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.logger.Warn("google exchange failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.frontendURL+"/login?error=auth_failed")
		return
	}

	user, err := h.identServ.Resolve(c.Request.Context(), claims)
	if err != nil {
		h.logger.Error("google resolve failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.frontendURL+"/login?error=auth_failed")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.frontendURL+"/login?error=auth_failed")
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/auth/success?token="+token)
}

// FirebaseLogin maneja POST /api/auth/firebase-login.
func (h *AuthHandler) FirebaseLogin(c *gin.Context) {
	var req struct {
		IDToken string `json:"idToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid firebase login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Firebase ID token is required"})
		return
	}

	claims, err := h.firebase.VerifyIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Firebase authentication is not configured on the server. Please contact administrator."})
		case errors.Is(err, identity.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Firebase token expired"})
		case errors.Is(err, identity.ErrTokenInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid Firebase token"})
		default:
			h.logger.Error("firebase verify failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during Firebase login"})
		}
		return
	}

	user, err := h.identServ.Resolve(c.Request.Context(), claims)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClaimsInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email not found in Firebase token"})
		case errors.Is(err, service.ErrIdentityBound):
			c.JSON(http.StatusConflict, gin.H{"message": "Account already linked to another identity"})
		default:
			h.logger.Error("firebase resolve failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during Firebase login"})
		}
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Firebase login successful",
		"token":   token,
		"user":    userPayload(user),
	})
}

// Logout maneja POST /api/auth/logout. Los tokens son stateless: el cliente
// descarta la credencial y no hay lista de revocacion.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me maneja GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	user, err := h.userServ.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.logger.Error("fetch current user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

// UpdateProfile maneja PUT /api/auth/update-profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed"})
		return
	}

	user, err := h.userServ.UpdateProfile(c.Request.Context(), userID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Name must be between 2 and 50 characters"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		default:
			h.logger.Error("update profile failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while updating profile"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    userPayload(user),
	})
}

// ForgotPassword maneja POST /api/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed"})
		return
	}

	if err := h.userServ.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrEmailSendFailure) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Email delivery unavailable"})
			return
		}
		h.logger.Error("forgot password failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	// Respuesta uniforme exista o no la cuenta.
	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset link was sent"})
}

// ResetPassword maneja POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed"})
		return
	}

	if err := h.userServ.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrResetTokenInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired reset token"})
		case errors.Is(err, service.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password must be at least 6 characters with one lowercase letter, one uppercase letter, and one number"})
		default:
			h.logger.Error("reset password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
