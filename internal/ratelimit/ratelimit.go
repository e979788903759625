// Package ratelimit provides the sliding-window counters that keep the
// account's activity inside human-looking bounds.
package ratelimit

import (
	"strconv"
	"sync"
	"time"
)

// Rule bounds how many events a key may record inside a window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// WindowLimiter is a sliding-window event counter keyed by string.
type WindowLimiter struct {
	mu     sync.Mutex
	events map[string][]time.Time

	now func() time.Time
}

func NewWindowLimiter() *WindowLimiter {
	return &WindowLimiter{
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records an event under key if the rule still permits one and
// reports whether it was admitted. A non-positive limit always denies.
func (l *WindowLimiter) Allow(key string, rule Rule) bool {
	now := l.now()
	floor := now.Add(-rule.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	q := l.events[key]

	keep := 0
	for _, ts := range q {
		if !ts.Before(floor) {
			q[keep] = ts
			keep++
		}
	}

	q = q[:keep]

	if len(q) >= rule.Limit {
		l.events[key] = q
		return false
	}

	l.events[key] = append(q, now)

	return true
}

// Cooldowns wraps a WindowLimiter with the key scheme used across the
// bot: per-chat action limits, global pacing, and the daily join cap.
type Cooldowns struct {
	limiter *WindowLimiter
}

func NewCooldowns(limiter *WindowLimiter) *Cooldowns {
	return &Cooldowns{limiter: limiter}
}

func (c *Cooldowns) AllowAction(chatID int64, action string, limit int, window time.Duration) bool {
	return c.limiter.Allow(chatActionKey(chatID, action), Rule{Limit: limit, Window: window})
}

func (c *Cooldowns) AllowGlobal(action string, limit int, window time.Duration) bool {
	return c.limiter.Allow("global:action:"+action, Rule{Limit: limit, Window: window})
}

func (c *Cooldowns) AllowJoin(limit int) bool {
	return c.limiter.Allow("account:join", Rule{Limit: limit, Window: 24 * time.Hour})
}

func chatActionKey(chatID int64, action string) string {
	return "chat:" + strconv.FormatInt(chatID, 10) + ":action:" + action
}
