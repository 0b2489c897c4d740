package models

import "time"

// RateLimitRecord tracks free-generation attempts for one client fingerprint.
// The reset window is rolling: it is measured from the last attempt, not a
// fixed calendar boundary.
type RateLimitRecord struct {
	Fingerprint string    `json:"fingerprint" badgerhold:"key"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	LastAttempt time.Time `json:"last_attempt"`
	ResetAt     time.Time `json:"reset_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Remaining returns the attempts left, never negative.
func (r *RateLimitRecord) Remaining() int {
	remaining := r.MaxAttempts - r.Attempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the reset window has elapsed at the given instant.
func (r *RateLimitRecord) Expired(now time.Time) bool {
	return !r.ResetAt.IsZero() && now.After(r.ResetAt)
}

// RateLimitStatus is the check result returned to clients.
type RateLimitStatus struct {
	Allowed           bool      `json:"allowed"`
	AttemptsUsed      int       `json:"attemptsUsed"`
	AttemptsRemaining int       `json:"attemptsRemaining"`
	ResetAt           time.Time `json:"resetAt"`
}
