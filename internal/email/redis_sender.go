package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockEmailTTL is how long a captured message stays readable in Redis.
const MockEmailTTL = 5 * time.Minute

// MockEmailKey is the Redis key a RedisSender stores a message under.
func MockEmailKey(recipient, kind string) string {
	return fmt.Sprintf("mockemail:%s:%s", strings.ToLower(recipient), kind)
}

// StoredEmail is the JSON document a RedisSender writes.
type StoredEmail struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Kind    string `json:"kind"`
	Body    string `json:"body"`
	SentAt  string `json:"sent_at"`
}

// RedisSender captures messages in Redis so integration tests can read them back
// through the service API.
type RedisSender struct {
	client *redis.Client
}

// NewRedisSender creates a new RedisSender.
func NewRedisSender(client *redis.Client) Sender {
	return &RedisSender{client: client}
}

// Send stores the message under mockemail:<first recipient>:<kind>.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(to) == 0 {
		return fmt.Errorf("redis sender: no recipients")
	}

	stored := StoredEmail{
		To:      strings.Join(to, ", "),
		Subject: subject,
		Kind:    "unknown",
		Body:    string(rawMessage),
		SentAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if msg, err := mail.ReadMessage(bytes.NewReader(rawMessage)); err == nil {
		if kind := msg.Header.Get(KindHeader); kind != "" {
			stored.Kind = kind
		}
		stored.From = msg.Header.Get("From")
		if body, err := io.ReadAll(msg.Body); err == nil {
			stored.Body = string(body)
		}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := MockEmailKey(to[0], stored.Kind)
	if err := s.client.Set(ctx, key, data, MockEmailTTL).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock email stored in Redis key '%s' (Subject: %s)", key, subject)
	return nil
}
