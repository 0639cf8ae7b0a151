package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bmcgrane302/properview/internal/api/middleware"
	"github.com/bmcgrane302/properview/internal/captcha"
	"github.com/bmcgrane302/properview/internal/config"
)

func setupCaptchaTestEngine(cfg *config.Config, verifier captcha.ITurnstileVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CaptchaMiddleware(cfg, verifier))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"is_human": c.GetBool(middleware.ContextKeyIsHumanVerified),
			"xct":      c.Writer.Header().Get("X-C-T"),
		})
	})
	return r
}

func serveCaptcha(t *testing.T, r *gin.Engine, ip string, headers map[string]string) map[string]interface{} {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = ip + ":12345"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCaptchaMiddleware_NoHeaders(t *testing.T) {
	mockVerifier := new(MockTurnstileVerifier)
	router := setupCaptchaTestEngine(&config.Config{}, mockVerifier)

	body := serveCaptcha(t, router, "1.1.1.1", nil)
	assert.False(t, body["is_human"].(bool))
	assert.Empty(t, body["xct"])
	mockVerifier.AssertNotCalled(t, "Verify")
	mockVerifier.AssertNotCalled(t, "ValidateHumanToken")
}

func TestCaptchaMiddleware_ValidChallengeIssuesToken(t *testing.T) {
	cfg := &config.Config{CaptchaTokenTTL: 10 * time.Minute}
	mockVerifier := new(MockTurnstileVerifier)
	router := setupCaptchaTestEngine(cfg, mockVerifier)

	client := captcha.ClientFingerprint{IP: "1.1.1.1", Fingerprint: "fp1", SPASession: "sess1"}
	mockVerifier.On("Verify", mock.Anything, "challenge", "1.1.1.1").Return(true, nil)
	mockVerifier.On("GenerateHumanToken", client, cfg.CaptchaTokenTTL).Return("generated-xct", nil)

	body := serveCaptcha(t, router, "1.1.1.1", map[string]string{
		"X-C-V": "challenge",
		"X-BFP": "fp1",
		"X-SPA": "sess1",
	})
	assert.True(t, body["is_human"].(bool))
	assert.Equal(t, "generated-xct", body["xct"])
	mockVerifier.AssertExpectations(t)
}

func TestCaptchaMiddleware_FailedChallenge(t *testing.T) {
	mockVerifier := new(MockTurnstileVerifier)
	router := setupCaptchaTestEngine(&config.Config{}, mockVerifier)

	mockVerifier.On("Verify", mock.Anything, "bad", "2.2.2.2").Return(false, nil).Once()
	mockVerifier.On("Verify", mock.Anything, "boom", "2.2.2.2").Return(false, errors.New("timeout")).Once()

	body := serveCaptcha(t, router, "2.2.2.2", map[string]string{"X-C-V": "bad"})
	assert.False(t, body["is_human"].(bool))

	body = serveCaptcha(t, router, "2.2.2.2", map[string]string{"X-C-V": "boom"})
	assert.False(t, body["is_human"].(bool))
	assert.Empty(t, body["xct"])

	mockVerifier.AssertExpectations(t)
	mockVerifier.AssertNotCalled(t, "GenerateHumanToken")
}

func TestCaptchaMiddleware_HumanToken(t *testing.T) {
	mockVerifier := new(MockTurnstileVerifier)
	router := setupCaptchaTestEngine(&config.Config{}, mockVerifier)

	client := captcha.ClientFingerprint{IP: "3.3.3.3", Fingerprint: "fp2", SPASession: "sess2"}
	mockVerifier.On("ValidateHumanToken", "good-xct", client).Return(true).Once()
	mockVerifier.On("ValidateHumanToken", "stale-xct", client).Return(false).Once()

	headers := map[string]string{"X-C-T": "good-xct", "X-BFP": "fp2", "X-SPA": "sess2"}
	body := serveCaptcha(t, router, "3.3.3.3", headers)
	assert.True(t, body["is_human"].(bool))
	assert.Empty(t, body["xct"])

	headers["X-C-T"] = "stale-xct"
	body = serveCaptcha(t, router, "3.3.3.3", headers)
	assert.False(t, body["is_human"].(bool))

	mockVerifier.AssertExpectations(t)
	mockVerifier.AssertNotCalled(t, "Verify")
}
