package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/database"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/email"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	clock   *fakeClock
	mailer  *email.MockSender
	media   *storage.MockUploader
	service *Service
	ctx     context.Context
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) SetupTest() {
	db, err := database.OpenInMemory("auth_" + uuid.NewString())
	s.Require().NoError(err)
	s.Require().NoError(database.MigrateDB(db))
	s.db = db

	s.clock = &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s.mailer = &email.MockSender{}
	s.media = storage.NewMockUploader()
	s.service = NewService(repository.NewUserRepository(db), s.mailer, s.media, Options{
		JWTSecret: []byte("test_jwt_secret_key"),
		Now:       s.clock.Now,
	})
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) TearDownTest() {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (s *AuthServiceTestSuite) register(addr string) string {
	res, err := s.service.Register(s.ctx, RegisterRequest{Email: addr, Password: "p1", DOB: "2000-01-01"})
	s.Require().NoError(err)
	s.Require().True(res.OTPSent)
	code, ok := s.mailer.LastOTP(strings.ToLower(addr))
	s.Require().True(ok)
	return code
}

func (s *AuthServiceTestSuite) TestRegisterCreatesUnverifiedUser() {
	res, err := s.service.Register(s.ctx, RegisterRequest{Email: " A@X.com ", Password: "p1", DOB: "2000-01-01"})
	s.Require().NoError(err)

	s.Equal("a@x.com", res.User.Email)
	s.Equal("a", res.User.Name, "name defaults to the email local part")
	s.False(res.User.IsVerified)
	s.Require().NotNil(res.User.OTPExpiresAt)
	s.Equal(s.clock.Now().Add(10*time.Minute), *res.User.OTPExpiresAt)
	s.NotEqual("p1", res.User.PasswordHash)

	code, ok := s.mailer.LastOTP("a@x.com")
	s.True(ok)
	s.Regexp(`^\d{6}$`, code)
}

func (s *AuthServiceTestSuite) TestRegisterValidation() {
	cases := []RegisterRequest{
		{Email: "", Password: "p1", DOB: "2000-01-01"},
		{Email: "a@x.com", Password: "", DOB: "2000-01-01"},
		{Email: "a@x.com", Password: "p1", DOB: ""},
		{Email: "not-an-email", Password: "p1", DOB: "2000-01-01"},
		{Email: "a@x.com", Password: "p1", DOB: "01/01/2000"},
		{Email: "a@x.com", Password: "p1", DOB: "2999-01-01"},
	}
	for _, req := range cases {
		_, err := s.service.Register(s.ctx, req)
		s.ErrorIs(err, ErrValidation, "%+v", req)
	}
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateEmailIgnoresCase() {
	s.register("dup@x.com")
	_, err := s.service.Register(s.ctx, RegisterRequest{Email: "DUP@x.com", Password: "p2", DOB: "1999-01-01"})
	s.ErrorIs(err, ErrUserExists)
}

func (s *AuthServiceTestSuite) TestRegisterKeepsUserWhenMailFails() {
	s.mailer.OTPErr = errors.New("smtp down")
	res, err := s.service.Register(s.ctx, RegisterRequest{Email: "m@x.com", Password: "p1", DOB: "2000-01-01"})
	s.Require().NoError(err)
	s.False(res.OTPSent)

	var n int64
	s.db.Model(&models.User{}).Where("email = ?", "m@x.com").Count(&n)
	s.Equal(int64(1), n)
}

// Scenario: wrong code is rejected, the right code after 11 minutes is expired.
func (s *AuthServiceTestSuite) TestVerifyEmailScenario() {
	code := s.register("a@x.com")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err := s.service.VerifyEmail(s.ctx, "a@x.com", wrong)
	s.ErrorIs(err, ErrInvalidOTP)

	s.clock.Advance(11 * time.Minute)
	_, err = s.service.VerifyEmail(s.ctx, "a@x.com", code)
	s.ErrorIs(err, ErrOTPExpired)
}

func (s *AuthServiceTestSuite) TestVerifyEmailSucceedsOnceWithExactCode() {
	code := s.register("v@x.com")

	_, err := s.service.VerifyEmail(s.ctx, "v@x.com", code+"0")
	s.ErrorIs(err, ErrInvalidOTP)

	s.clock.Advance(9 * time.Minute)
	user, err := s.service.VerifyEmail(s.ctx, "V@x.com", code)
	s.Require().NoError(err)
	s.True(user.IsVerified)
	s.Equal(1, s.mailer.Count("welcome"))

	_, err = s.service.VerifyEmail(s.ctx, "v@x.com", code)
	s.ErrorIs(err, ErrAlreadyVerified)
}

func (s *AuthServiceTestSuite) TestVerifyEmailUnknownUser() {
	_, err := s.service.VerifyEmail(s.ctx, "ghost@x.com", "123456")
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *AuthServiceTestSuite) TestWelcomeFailureDoesNotUndoVerification() {
	code := s.register("w@x.com")
	s.mailer.WelcomeErr = errors.New("bounce")

	user, err := s.service.VerifyEmail(s.ctx, "w@x.com", code)
	s.Require().NoError(err)
	s.True(user.IsVerified)
}

func (s *AuthServiceTestSuite) TestResendOTPReplacesCode() {
	first := s.register("r@x.com")
	s.clock.Advance(20 * time.Minute)

	s.Require().NoError(s.service.ResendOTP(s.ctx, "r@x.com"))
	second, _ := s.mailer.LastOTP("r@x.com")
	s.Equal(2, s.mailer.Count("otp"))

	if first != second {
		_, err := s.service.VerifyEmail(s.ctx, "r@x.com", first)
		s.ErrorIs(err, ErrInvalidOTP)
	}
	_, err := s.service.VerifyEmail(s.ctx, "r@x.com", second)
	s.NoError(err)

	s.ErrorIs(s.service.ResendOTP(s.ctx, "r@x.com"), ErrAlreadyVerified)
	s.ErrorIs(s.service.ResendOTP(s.ctx, "nobody@x.com"), ErrUserNotFound)
}

func (s *AuthServiceTestSuite) TestLogin() {
	code := s.register("l@x.com")

	_, err := s.service.Login(s.ctx, "l@x.com", "p1")
	s.ErrorIs(err, ErrEmailNotVerified)

	_, err = s.service.VerifyEmail(s.ctx, "l@x.com", code)
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, "l@x.com", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.service.Login(s.ctx, "nobody@x.com", "p1")
	s.ErrorIs(err, ErrUserNotFound)

	resp, err := s.service.Login(s.ctx, "L@X.com", "p1")
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(7*24*time.Hour), resp.ExpiresAt)

	claims, err := s.service.ValidateToken(resp.Token)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, claims.UserID)

	s.clock.Advance(7*24*time.Hour + time.Second)
	_, err = s.service.ValidateToken(resp.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestValidateTokenRejectsForeignSignature() {
	other := NewService(nil, nil, nil, Options{JWTSecret: []byte("other"), Now: s.clock.Now})
	token, _, err := other.issueToken("u1")
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.ErrorIs(err, ErrInvalidToken)
	_, err = s.service.ValidateToken("garbage")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestUpdateProfile() {
	s.register("p@x.com")
	user, err := s.service.findByEmail(s.ctx, "p@x.com")
	s.Require().NoError(err)

	bio := "I paint"
	name := "Painter"
	updated, err := s.service.UpdateProfile(s.ctx, user.ID, ProfileUpdate{
		Name:        &name,
		Bio:         &bio,
		Interests:   []string{"oil", "poetry"},
		SocialLinks: &models.SocialLinks{Instagram: "@painter"},
	})
	s.Require().NoError(err)
	s.Equal("Painter", updated.Name)
	s.Equal("I paint", updated.Bio)
	s.Equal(models.StringArray{"oil", "poetry"}, updated.Interests)
	s.Require().NotNil(updated.SocialLinks)
	s.Equal("@painter", updated.SocialLinks.Instagram)

	empty := " "
	_, err = s.service.UpdateProfile(s.ctx, user.ID, ProfileUpdate{Name: &empty})
	s.ErrorIs(err, ErrValidation)

	_, err = s.service.UpdateProfile(s.ctx, uuid.NewString(), ProfileUpdate{Bio: &bio})
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *AuthServiceTestSuite) TestUpdateProfileImageReplacesPrevious() {
	s.register("i@x.com")
	user, err := s.service.findByEmail(s.ctx, "i@x.com")
	s.Require().NoError(err)

	first, err := s.service.UpdateProfileImage(s.ctx, user.ID, storage.File{Reader: strings.NewReader("a"), Filename: "a.png"})
	s.Require().NoError(err)
	s.True(s.media.Has(first.ProfileKey))

	second, err := s.service.UpdateProfileImage(s.ctx, user.ID, storage.File{Reader: strings.NewReader("b"), Filename: "b.png"})
	s.Require().NoError(err)
	s.True(s.media.Has(second.ProfileKey))
	s.False(s.media.Has(first.ProfileKey), "previous avatar is deleted")

	stored, err := s.service.GetProfile(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(second.ProfileImage, stored.ProfileImage)
}

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 40)
}

func TestOTPMatches(t *testing.T) {
	code := "123456"
	assert.True(t, otpMatches(&code, "123456"))
	assert.False(t, otpMatches(&code, "12345"))
	assert.False(t, otpMatches(&code, ""))
	assert.False(t, otpMatches(nil, "123456"))
}
