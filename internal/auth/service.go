// Package auth implements registration with emailed one-time codes, login and
// profile management.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/email"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrOTPExpired         = errors.New("OTP expired")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const dobLayout = "2006-01-02"

// Options configures a Service.
type Options struct {
	JWTSecret []byte
	TokenTTL  time.Duration
	OTPTTL    time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service handles all authentication operations
type Service struct {
	users     repository.UserRepository
	mailer    email.Sender
	media     storage.MediaUploader
	jwtSecret []byte
	tokenTTL  time.Duration
	otpTTL    time.Duration
	now       func() time.Time
}

// NewService creates a new authentication service
func NewService(users repository.UserRepository, mailer email.Sender, media storage.MediaUploader, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 7 * 24 * time.Hour
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		users:     users,
		mailer:    mailer,
		media:     media,
		jwtSecret: opts.JWTSecret,
		tokenTTL:  opts.TokenTTL,
		otpTTL:    opts.OTPTTL,
		now:       opts.Now,
	}
}

// RegisterRequest is the payload of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	DOB      string `json:"dob"`
}

// RegisterResult reports the created account and whether the code was mailed.
type RegisterResult struct {
	User    *models.User
	OTPSent bool
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// ProfileUpdate carries the optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name        *string             `json:"name"`
	FirstName   *string             `json:"first_name"`
	LastName    *string             `json:"last_name"`
	Bio         *string             `json:"bio"`
	Interests   []string            `json:"interests"`
	SocialLinks *models.SocialLinks `json:"social_links"`
}

func validationErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func normalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Register creates an unverified account and mails it a one-time code.
// A failed send keeps the account; the caller can use ResendOTP.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	addr := normalizeEmail(req.Email)
	if addr == "" || req.Password == "" || strings.TrimSpace(req.DOB) == "" {
		return nil, validationErr("email, password and dob are required")
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return nil, validationErr("invalid email address")
	}
	dob, err := time.Parse(dobLayout, strings.TrimSpace(req.DOB))
	if err != nil {
		return nil, validationErr("dob must be formatted as YYYY-MM-DD")
	}
	if dob.After(s.now()) {
		return nil, validationErr("dob cannot be in the future")
	}

	if _, err := s.users.GetUserByEmail(ctx, addr); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	code, err := GenerateOTP()
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().Add(s.otpTTL)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.SplitN(addr, "@", 2)[0]
	}

	user := &models.User{
		Name:         name,
		Email:        addr,
		PasswordHash: string(hash),
		DateOfBirth:  dob,
		OTPCode:      &code,
		OTPExpiresAt: &expiresAt,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result := &RegisterResult{User: user, OTPSent: true}
	if err := s.mailer.SendOTP(ctx, addr, name, code, s.otpTTL); err != nil {
		logger.WarnWithFields("OTP email failed after registration", err, logger.WithUserID(user.ID))
		result.OTPSent = false
	}
	return result, nil
}

// VerifyEmail checks the submitted code. The match is checked before expiry,
// so a correct but stale code reports ErrOTPExpired.
func (s *Service) VerifyEmail(ctx context.Context, addr, code string) (*models.User, error) {
	user, err := s.findByEmail(ctx, addr)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}
	if !otpMatches(user.OTPCode, strings.TrimSpace(code)) {
		return nil, ErrInvalidOTP
	}
	if user.OTPExpiresAt == nil || !s.now().Before(*user.OTPExpiresAt) {
		return nil, ErrOTPExpired
	}

	won, err := s.users.MarkVerified(ctx, user.ID, *user.OTPCode)
	if err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	if !won {
		// Consumed by a concurrent request.
		return nil, ErrInvalidOTP
	}
	user.IsVerified = true
	user.OTPCode = nil
	user.OTPExpiresAt = nil

	if err := s.mailer.SendWelcome(ctx, user.Email, user.Name); err != nil {
		logger.WarnWithFields("Welcome email failed", err, logger.WithUserID(user.ID))
	}
	return user, nil
}

// ResendOTP replaces the pending code of an unverified account.
func (s *Service) ResendOTP(ctx context.Context, addr string) error {
	user, err := s.findByEmail(ctx, addr)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.otpTTL)
	if err := s.users.UpdateFields(ctx, user.ID, map[string]interface{}{
		"otp_code":       code,
		"otp_expires_at": expiresAt,
	}); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	return s.mailer.SendOTP(ctx, user.Email, user.Name, code, s.otpTTL)
}

// Login authenticates with email/password
func (s *Service) Login(ctx context.Context, addr, password string) (*AuthResponse, error) {
	user, err := s.findByEmail(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user, ExpiresAt: expiresAt}, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// UpdateProfile writes the non-nil fields and returns the fresh profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	fields := map[string]interface{}{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, validationErr("name cannot be empty")
		}
		fields["name"] = name
	}
	if upd.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*upd.LastName)
	}
	if upd.Bio != nil {
		fields["bio"] = *upd.Bio
	}
	if upd.Interests != nil {
		fields["interests"] = models.StringArray(upd.Interests)
	}
	if upd.SocialLinks != nil {
		// Map updates bypass the column serializer.
		raw, err := json.Marshal(upd.SocialLinks)
		if err != nil {
			return nil, validationErr("invalid social links")
		}
		fields["social_links"] = string(raw)
	}
	if len(fields) == 0 {
		return s.GetProfile(ctx, userID)
	}

	if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

// UpdateProfileImage uploads a new avatar and deletes the previous one best-effort.
func (s *Service) UpdateProfileImage(ctx context.Context, userID string, file storage.File) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	res, err := s.media.Upload(ctx, storage.FolderAvatars, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload profile image: %w", err)
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{
		"profile_image": res.URL,
		"profile_key":   res.Key,
	}); err != nil {
		_ = s.media.Delete(ctx, res.Key)
		return nil, fmt.Errorf("failed to save profile image: %w", err)
	}

	if user.ProfileKey != "" {
		if err := s.media.Delete(ctx, user.ProfileKey); err != nil {
			logger.WarnWithFields("Failed to delete previous profile image", err, logger.WithUserID(userID))
		}
	}
	user.ProfileImage = res.URL
	user.ProfileKey = res.Key
	return user, nil
}

func (s *Service) findByEmail(ctx context.Context, addr string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(addr))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return user, nil
}
