package ratelimit

import (
	"testing"
	"time"
)

func TestWindowLimiterAllow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l := NewWindowLimiter()
	l.now = func() time.Time { return now }

	rule := Rule{Limit: 2, Window: time.Minute}

	if !l.Allow("k", rule) || !l.Allow("k", rule) {
		t.Fatal("first two events should be allowed")
	}

	if l.Allow("k", rule) {
		t.Fatal("third event inside the window should be denied")
	}

	// Other keys are independent.
	if !l.Allow("other", rule) {
		t.Fatal("separate key should be allowed")
	}

	// Once the window slides past the first events, capacity returns.
	now = now.Add(61 * time.Second)

	if !l.Allow("k", rule) {
		t.Fatal("event after the window elapsed should be allowed")
	}
}

func TestWindowLimiterZeroLimit(t *testing.T) {
	l := NewWindowLimiter()

	if l.Allow("k", Rule{Limit: 0, Window: time.Minute}) {
		t.Fatal("zero limit should deny everything")
	}
}

func TestCooldownsKeys(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l := NewWindowLimiter()
	l.now = func() time.Time { return now }

	c := NewCooldowns(l)

	if !c.AllowAction(-100123, "publish", 1, time.Hour) {
		t.Fatal("first per-chat action should pass")
	}

	if c.AllowAction(-100123, "publish", 1, time.Hour) {
		t.Fatal("second per-chat action should be limited")
	}

	// Different action and chat keys do not share the counter.
	if !c.AllowAction(-100123, "reply", 1, time.Hour) {
		t.Fatal("different action should pass")
	}

	if !c.AllowAction(-100456, "publish", 1, time.Hour) {
		t.Fatal("different chat should pass")
	}

	if !c.AllowGlobal("publish", 1, time.Minute) {
		t.Fatal("global action should pass")
	}

	if !c.AllowJoin(1) {
		t.Fatal("first join should pass")
	}

	if c.AllowJoin(1) {
		t.Fatal("second join in a day should be limited")
	}
}
