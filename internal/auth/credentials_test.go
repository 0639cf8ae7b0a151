package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDemoCredentialStore_Authenticate(t *testing.T) {
	store, err := NewDemoCredentialStore(DefaultDemoAccounts())
	require.NoError(t, err)
	ctx := context.Background()

	agent, err := store.Authenticate(ctx, "agent2@properview.com", "demo123")
	require.NoError(t, err)
	assert.Equal(t, "agent2", agent.ID)
	assert.Equal(t, "Sarah Johnson", agent.Name)

	agent, err = store.Authenticate(ctx, "  AGENT@properview.com ", "demo123")
	require.NoError(t, err)
	assert.Equal(t, "agent1", agent.ID)

	_, err = store.Authenticate(ctx, "agent3@properview.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = store.Authenticate(ctx, "nobody@properview.com", "demo123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDemoCredentialStore_FindAgentByID(t *testing.T) {
	store, err := NewDemoCredentialStore(DefaultDemoAccounts())
	require.NoError(t, err)

	agent, err := store.FindAgentByID(context.Background(), "agent3")
	require.NoError(t, err)
	assert.Equal(t, "agent3@properview.com", agent.Email)

	_, err = store.FindAgentByID(context.Background(), "agent9")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT("agent1", "agent@properview.com", "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "agent1", claims.AgentID)
	assert.Equal(t, "agent1", claims.Subject)

	_, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateJWT("agent1", "", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired, "secret")
	assert.Error(t, err)
}

func init() {
	PasswordHashCost = bcrypt.MinCost
}
