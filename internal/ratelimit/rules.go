package ratelimit

import (
	"errors"
	"sync"
	"time"

	"github.com/al-mudeer/resilience/pkg/config"
)

// Rules encapsulates configured rate limits and helper methods. Update
// swaps the rule set atomically, supporting configuration hot reload.
type Rules struct {
	mu     sync.RWMutex
	config config.RateLimitConfig
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

// Update replaces the rule set with freshly loaded configuration.
func (r *Rules) Update(cfg config.RateLimitConfig) {
	r.mu.Lock()
	r.config = cfg
	r.mu.Unlock()
}

func (r *Rules) snapshot() config.RateLimitConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// IsWhitelisted returns true if the key bypasses rate limits.
func (r *Rules) IsWhitelisted(key string) bool {
	for _, entry := range r.snapshot().Whitelist {
		if entry == key {
			return true
		}
	}
	return false
}

// GetChannelLimit returns the outbound dispatch limit for a messaging channel.
func (r *Rules) GetChannelLimit(channel string) (int, time.Duration, error) {
	switch channel {
	case "email":
		return parseRule(r.snapshot().Channels.Email)
	case "telegram":
		return parseRule(r.snapshot().Channels.Telegram)
	case "whatsapp":
		return parseRule(r.snapshot().Channels.WhatsApp)
	default:
		return 0, 0, errors.New("unsupported channel")
	}
}

// GetTypingLimit returns the WebSocket typing-indicator throttle rule.
func (r *Rules) GetTypingLimit() (int, time.Duration, error) {
	return parseRule(r.snapshot().Typing)
}

// GetGlobalLimit returns the global rate limiting rule.
func (r *Rules) GetGlobalLimit() (int, time.Duration, error) {
	return parseRule(r.snapshot().Global)
}

// GetPerUserLimit returns the per-user rate limiting rule.
func (r *Rules) GetPerUserLimit() (int, time.Duration, error) {
	return parseRule(r.snapshot().PerUser)
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Window == "" {
		return rule.Limit, 0, errors.New("window duration is not set")
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}
	return rule.Limit, window, nil
}
