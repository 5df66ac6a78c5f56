package auth

import (
	"context"
	"sync"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/storage"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is a mock implementation of AuthServiceInterface for testing.
// Unset Func fields fall back to DefaultError, then to a harmless default.
type MockAuthService struct {
	mu    sync.Mutex
	Calls []MockCall

	RegisterFunc           func(req RegisterRequest) (*RegisterResult, error)
	VerifyEmailFunc        func(email, code string) (*models.User, error)
	ResendOTPFunc          func(email string) error
	LoginFunc              func(email, password string) (*AuthResponse, error)
	ValidateTokenFunc      func(tokenString string) (*Claims, error)
	GetProfileFunc         func(userID string) (*models.User, error)
	UpdateProfileFunc      func(userID string, upd ProfileUpdate) (*models.User, error)
	UpdateProfileImageFunc func(userID string, file storage.File) (*models.User, error)

	DefaultError error
}

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockAuthService) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

func (m *MockAuthService) Register(_ context.Context, req RegisterRequest) (*RegisterResult, error) {
	m.recordCall("Register", req)
	if m.RegisterFunc != nil {
		return m.RegisterFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &RegisterResult{User: &models.User{ID: "mock-user", Email: req.Email, Name: req.Name}, OTPSent: true}, nil
}

func (m *MockAuthService) VerifyEmail(_ context.Context, email, code string) (*models.User, error) {
	m.recordCall("VerifyEmail", email, code)
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(email, code)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &models.User{ID: "mock-user", Email: email, IsVerified: true}, nil
}

func (m *MockAuthService) ResendOTP(_ context.Context, email string) error {
	m.recordCall("ResendOTP", email)
	if m.ResendOTPFunc != nil {
		return m.ResendOTPFunc(email)
	}
	return m.DefaultError
}

func (m *MockAuthService) Login(_ context.Context, email, password string) (*AuthResponse, error) {
	m.recordCall("Login", email, password)
	if m.LoginFunc != nil {
		return m.LoginFunc(email, password)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &AuthResponse{
		Token:     "mock_token",
		User:      &models.User{ID: "mock-user", Email: email, IsVerified: true},
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}, nil
}

// ValidateToken treats "valid:<user id>" as a valid token by default.
func (m *MockAuthService) ValidateToken(tokenString string) (*Claims, error) {
	m.recordCall("ValidateToken", tokenString)
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	const prefix = "valid:"
	if len(tokenString) > len(prefix) && tokenString[:len(prefix)] == prefix {
		return &Claims{UserID: tokenString[len(prefix):]}, nil
	}
	return nil, ErrInvalidToken
}

func (m *MockAuthService) GetProfile(_ context.Context, userID string) (*models.User, error) {
	m.recordCall("GetProfile", userID)
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(userID)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &models.User{ID: userID}, nil
}

func (m *MockAuthService) UpdateProfile(_ context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	m.recordCall("UpdateProfile", userID, upd)
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(userID, upd)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &models.User{ID: userID}, nil
}

func (m *MockAuthService) UpdateProfileImage(_ context.Context, userID string, file storage.File) (*models.User, error) {
	m.recordCall("UpdateProfileImage", userID, file.Filename)
	if m.UpdateProfileImageFunc != nil {
		return m.UpdateProfileImageFunc(userID, file)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &models.User{ID: userID}, nil
}

var _ AuthServiceInterface = (*MockAuthService)(nil)
