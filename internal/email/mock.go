package email

import (
	"context"
	"sync"
	"time"
)

// SentMessage is a message captured by MockSender.
type SentMessage struct {
	Kind string // "otp" or "welcome"
	To   string
	Name string
	Code string
}

// MockSender records messages for tests. Set OTPErr or WelcomeErr to simulate failures.
type MockSender struct {
	mu         sync.Mutex
	Sent       []SentMessage
	OTPErr     error
	WelcomeErr error
}

func (m *MockSender) SendOTP(_ context.Context, to, name, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OTPErr != nil {
		return m.OTPErr
	}
	m.Sent = append(m.Sent, SentMessage{Kind: "otp", To: to, Name: name, Code: code})
	return nil
}

func (m *MockSender) SendWelcome(_ context.Context, to, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WelcomeErr != nil {
		return m.WelcomeErr
	}
	m.Sent = append(m.Sent, SentMessage{Kind: "welcome", To: to, Name: name})
	return nil
}

// LastOTP returns the most recent code sent to addr.
func (m *MockSender) LastOTP(addr string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].Kind == "otp" && m.Sent[i].To == addr {
			return m.Sent[i].Code, true
		}
	}
	return "", false
}

// Count returns how many messages of kind were sent.
func (m *MockSender) Count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.Sent {
		if s.Kind == kind {
			n++
		}
	}
	return n
}
