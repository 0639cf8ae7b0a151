package middleware

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/bmcgrane302/properview/internal/captcha"
	"github.com/bmcgrane302/properview/internal/config"
)

// ContextKeyIsHumanVerified holds the captcha status in the Gin context.
const ContextKeyIsHumanVerified = "isHumanVerified"

func clientFingerprint(c *gin.Context) captcha.ClientFingerprint {
	return captcha.ClientFingerprint{
		IP:          c.ClientIP(),
		Fingerprint: c.GetHeader("X-BFP"),
		SPASession:  c.GetHeader("X-SPA"),
	}
}

// CaptchaMiddleware marks the request as human when it carries a valid X-C-T token, or
// an X-C-V Turnstile challenge that verifies. In the latter case a fresh X-C-T token is
// returned in the response headers. The request is never rejected here.
func CaptchaMiddleware(cfg *config.Config, verifier captcha.ITurnstileVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := clientFingerprint(c)
		isHuman := false

		if token := c.GetHeader("X-C-T"); token != "" && verifier.ValidateHumanToken(token, client) {
			isHuman = true
		}

		if challenge := c.GetHeader("X-C-V"); !isHuman && challenge != "" {
			verified, err := verifier.Verify(c.Request.Context(), challenge, client.IP)
			if err != nil {
				log.Printf("Error verifying Turnstile challenge for %s: %v", client, err)
			} else if verified {
				isHuman = true
				humanToken, err := verifier.GenerateHumanToken(client, cfg.CaptchaTokenTTL)
				if err != nil {
					log.Printf("Error generating X-C-T token for %s: %v", client, err)
				} else {
					c.Header("X-C-T", humanToken)
				}
			}
		}

		c.Set(ContextKeyIsHumanVerified, isHuman)
		c.Next()
	}
}
