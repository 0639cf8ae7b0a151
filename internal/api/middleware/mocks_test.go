package middleware_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bmcgrane302/properview/internal/captcha"
)

// MockTurnstileVerifier implements captcha.ITurnstileVerifier
type MockTurnstileVerifier struct {
	mock.Mock
}

func (m *MockTurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	args := m.Called(ctx, token, remoteIP)
	return args.Bool(0), args.Error(1)
}

func (m *MockTurnstileVerifier) GenerateHumanToken(client captcha.ClientFingerprint, ttl time.Duration) (string, error) {
	args := m.Called(client, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockTurnstileVerifier) ValidateHumanToken(tokenString string, client captcha.ClientFingerprint) bool {
	args := m.Called(tokenString, client)
	return args.Bool(0)
}
