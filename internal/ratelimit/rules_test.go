package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al-mudeer/resilience/pkg/config"
)

func testRulesConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Global:  config.RateLimitRule{Limit: 1000, Window: "1m"},
		PerUser: config.RateLimitRule{Limit: 30, Window: "1m"},
		Typing:  config.RateLimitRule{Limit: 10, Window: "10s"},
		Channels: config.ChannelRules{
			Email:    config.RateLimitRule{Limit: 60, Window: "1m"},
			Telegram: config.RateLimitRule{Limit: 30, Window: "1s"},
			WhatsApp: config.RateLimitRule{Limit: 80, Window: "1s"},
		},
		Whitelist: []string{"ip:10.0.0.1"},
	}
}

func TestRules_ChannelLimits(t *testing.T) {
	rules := NewRules(testRulesConfig())

	limit, window, err := rules.GetChannelLimit("email")
	require.NoError(t, err)
	assert.Equal(t, 60, limit)
	assert.Equal(t, time.Minute, window)

	limit, window, err = rules.GetChannelLimit("telegram")
	require.NoError(t, err)
	assert.Equal(t, 30, limit)
	assert.Equal(t, time.Second, window)

	limit, window, err = rules.GetChannelLimit("whatsapp")
	require.NoError(t, err)
	assert.Equal(t, 80, limit)
	assert.Equal(t, time.Second, window)
}

func TestRules_UnsupportedChannel(t *testing.T) {
	rules := NewRules(testRulesConfig())

	_, _, err := rules.GetChannelLimit("carrier-pigeon")
	assert.Error(t, err)
}

func TestRules_GlobalAndPerUser(t *testing.T) {
	rules := NewRules(testRulesConfig())

	limit, window, err := rules.GetGlobalLimit()
	require.NoError(t, err)
	assert.Equal(t, 1000, limit)
	assert.Equal(t, time.Minute, window)

	limit, window, err = rules.GetPerUserLimit()
	require.NoError(t, err)
	assert.Equal(t, 30, limit)
	assert.Equal(t, time.Minute, window)

	limit, window, err = rules.GetTypingLimit()
	require.NoError(t, err)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 10*time.Second, window)
}

func TestRules_Whitelist(t *testing.T) {
	rules := NewRules(testRulesConfig())

	assert.True(t, rules.IsWhitelisted("ip:10.0.0.1"))
	assert.False(t, rules.IsWhitelisted("ip:10.0.0.2"))
}

func TestRules_MissingWindowRejected(t *testing.T) {
	cfg := testRulesConfig()
	cfg.PerUser.Window = ""
	rules := NewRules(cfg)

	_, _, err := rules.GetPerUserLimit()
	assert.Error(t, err)
}

func TestRules_MalformedWindowRejected(t *testing.T) {
	cfg := testRulesConfig()
	cfg.Typing.Window = "soon"
	rules := NewRules(cfg)

	_, _, err := rules.GetTypingLimit()
	assert.Error(t, err)
}

func TestRules_UpdateSwapsRuleSet(t *testing.T) {
	rules := NewRules(testRulesConfig())

	next := testRulesConfig()
	next.PerUser = config.RateLimitRule{Limit: 5, Window: "30s"}
	next.Whitelist = nil
	rules.Update(next)

	limit, window, err := rules.GetPerUserLimit()
	require.NoError(t, err)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 30*time.Second, window)
	assert.False(t, rules.IsWhitelisted("ip:10.0.0.1"))
}
