package auth

import (
	"context"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/storage"
)

// AuthServiceInterface defines the contract for authentication operations.
// Handlers and middleware depend on it so they can be tested with MockAuthService.
type AuthServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
	VerifyEmail(ctx context.Context, email, code string) (*models.User, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*AuthResponse, error)

	ValidateToken(tokenString string) (*Claims, error)

	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error)
	UpdateProfileImage(ctx context.Context, userID string, file storage.File) (*models.User, error)
}

var _ AuthServiceInterface = (*Service)(nil)
