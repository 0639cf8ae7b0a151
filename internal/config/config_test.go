package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("api")
	require.NoError(t, err)

	assert.Equal(t, "api", cfg.RunMode)
	assert.Equal(t, "properview", cfg.MongoDbName)
	assert.Equal(t, "agent1", cfg.DefaultAgentID)
	assert.Equal(t, OwnershipOpen, cfg.OwnershipMode)
	assert.False(t, cfg.EnforceOwnership())
	assert.Equal(t, time.Hour, cfg.JwtTTL)
	assert.Equal(t, 2048, cfg.ImageMaxDimension)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("JWT_SECRET", "x")

	_, err := Load("api")
	assert.ErrorContains(t, err, "MONGO_URI")
}

func TestLoad_OwnershipMode(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("OWNERSHIP_MODE", "enforced")
	cfg, err := Load("api")
	require.NoError(t, err)
	assert.True(t, cfg.EnforceOwnership())

	t.Setenv("OWNERSHIP_MODE", "sometimes")
	_, err = Load("api")
	assert.ErrorContains(t, err, "OWNERSHIP_MODE")
}

func TestLoad_InvalidNumber(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDIS_DB", "one")

	_, err := Load("api")
	assert.ErrorContains(t, err, "REDIS_DB")
}
