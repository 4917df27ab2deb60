package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/appointment-assistant/server/service/calendar"
)

func TestFromEnvDefaults(t *testing.T) {
	p, err := FromEnv("test")
	require.NoError(t, err)

	assert.Equal(t, "dev", p.Mode)
	assert.True(t, p.IsDev())
	assert.Equal(t, 8081, p.Port)
	assert.Equal(t, "test", p.Version)
	assert.False(t, p.IsAIEnabled())
	assert.Equal(t, 10*time.Second, p.AITimeout)
	assert.Equal(t, 30*time.Minute, p.SessionMaxIdle)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ASSISTANT_MODE", "prod")
	t.Setenv("ASSISTANT_PORT", "9090")
	t.Setenv("ASSISTANT_OPEN_TIME", "9:00")
	t.Setenv("ASSISTANT_AI_ENABLED", "true")
	t.Setenv("ASSISTANT_AI_OPENAI_API_KEY", "sk-test")

	p, err := FromEnv("test")
	require.NoError(t, err)

	assert.Equal(t, "prod", p.Mode)
	assert.False(t, p.IsDev())
	assert.Equal(t, 9090, p.Port)
	assert.True(t, p.IsAIEnabled())

	rules, err := p.Rules()
	require.NoError(t, err)
	assert.Equal(t, calendar.Clock(9, 0), rules.Open)
	assert.Equal(t, calendar.Clock(17, 0), rules.Close)
}

func TestAIEnabledNeedsKey(t *testing.T) {
	t.Setenv("ASSISTANT_AI_ENABLED", "true")

	p, err := FromEnv("test")
	require.NoError(t, err)
	assert.False(t, p.IsAIEnabled())
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	t.Setenv("ASSISTANT_OPEN_TIME", "18:00")

	_, err := FromEnv("test")
	assert.Error(t, err)
}

func TestValidateRejectsBadClock(t *testing.T) {
	t.Setenv("ASSISTANT_OPEN_TIME", "25:99")

	_, err := FromEnv("test")
	assert.Error(t, err)
}

func TestValidateRejectsBadPort(t *testing.T) {
	t.Setenv("ASSISTANT_PORT", "0")

	_, err := FromEnv("test")
	assert.Error(t, err)
}

func TestUnknownModeFallsBackToDev(t *testing.T) {
	t.Setenv("ASSISTANT_MODE", "demo")

	p, err := FromEnv("test")
	require.NoError(t, err)
	assert.Equal(t, "dev", p.Mode)
}
