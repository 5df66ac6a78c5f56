package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/auth"
	apierrors "github.com/Curious-3/EchoesOfArt-sub000/internal/errors"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/storage"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// maxProfileImageSize caps avatar uploads.
const maxProfileImageSize = 10 << 20

// AuthHandlers serves /api/auth and provides the bearer-token middleware.
type AuthHandlers struct {
	authService auth.AuthServiceInterface
}

func NewAuthHandlers(authService auth.AuthServiceInterface) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// respondAuthError maps auth service errors onto API errors.
func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), auth.ErrValidation.Error()+": ")
		util.RespondBadRequest(c, msg)
	case errors.Is(err, auth.ErrUserExists):
		util.RespondConflict(c, "An account with this email already exists")
	case errors.Is(err, auth.ErrUserNotFound):
		util.RespondNotFound(c, "user")
	case errors.Is(err, auth.ErrAlreadyVerified):
		util.RespondWithAPIError(c, apierrors.New(apierrors.ErrAlreadyVerified, "Email already verified"))
	case errors.Is(err, auth.ErrInvalidOTP):
		util.RespondWithAPIError(c, apierrors.New(apierrors.ErrInvalidOTP, "Invalid OTP"))
	case errors.Is(err, auth.ErrOTPExpired):
		util.RespondWithAPIError(c, apierrors.New(apierrors.ErrOTPExpired, "OTP expired"))
	case errors.Is(err, auth.ErrEmailNotVerified):
		util.RespondWithAPIError(c, apierrors.New(apierrors.ErrEmailNotVerified, "Please verify your email before logging in"))
	case errors.Is(err, auth.ErrInvalidCredentials):
		util.RespondWithAPIError(c, apierrors.New(apierrors.ErrInvalidCredentials, "Invalid email or password"))
	default:
		util.RespondInternalError(c, "Authentication request failed", err)
	}
}

// Register creates an unverified account and mails its OTP
// POST /api/auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	message := "OTP sent"
	if !result.OTPSent {
		message = "Registered, but the OTP email could not be sent; use resend-otp"
	}
	util.RespondSuccess(c, http.StatusCreated, message, gin.H{"user": result.User})
}

type verifyEmailRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyEmail consumes the emailed code
// POST /api/auth/verify-email
func (h *AuthHandlers) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email and otp are required")
		return
	}

	user, err := h.authService.VerifyEmail(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Email verified", gin.H{"user": user})
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResendOTP issues a fresh code
// POST /api/auth/resend-otp
func (h *AuthHandlers) ResendOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email is required")
		return
	}
	if err := h.authService.ResendOTP(c.Request.Context(), req.Email); err != nil {
		respondAuthError(c, err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "OTP sent", nil)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a bearer token
// POST /api/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email and password are required")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Login successful", gin.H{
		"token":      resp.Token,
		"user":       resp.User,
		"expires_at": resp.ExpiresAt,
	})
}

// Me returns the caller's profile
// GET /api/auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"user": user})
}

// UpdateProfile writes the supplied profile fields
// PUT /api/auth/profile
func (h *AuthHandlers) UpdateProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var upd auth.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		util.RespondBadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, upd)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Profile updated", gin.H{"user": user})
}

// UpdateProfileImage replaces the caller's avatar
// POST /api/auth/profile/image
func (h *AuthHandlers) UpdateProfileImage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		util.RespondValidationError(c, "image", "image file is required")
		return
	}
	if fileHeader.Size > maxProfileImageSize {
		util.RespondValidationError(c, "image", "image must be 10MB or smaller")
		return
	}
	contentType := storage.ContentTypeFor(fileHeader.Filename)
	if !strings.HasPrefix(contentType, "image/") {
		util.RespondValidationError(c, "image", "unsupported image format")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		util.RespondInternalError(c, "Failed to read upload", err)
		return
	}
	defer f.Close()

	user, err := h.authService.UpdateProfileImage(c.Request.Context(), userID, storage.File{
		Reader:      f,
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Profile image updated", gin.H{"user": user})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// AuthMiddleware rejects requests without a valid bearer token.
func (h *AuthHandlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.RespondUnauthorized(c, "no token provided")
			return
		}
		claims, err := h.authService.ValidateToken(token)
		if err != nil {
			logger.DebugWithFields("Rejected bearer token", logger.WithIP(c.ClientIP()))
			util.RespondUnauthorized(c, "invalid or expired token")
			return
		}
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the caller when a valid token is present
// and lets anonymous requests through.
func (h *AuthHandlers) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := h.authService.ValidateToken(token); err == nil {
				c.Set("user_id", claims.UserID)
			}
		}
		c.Next()
	}
}
