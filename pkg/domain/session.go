package domain

import "time"

// Session is the authenticated, time-bounded credential + user pairing held
// by the client. A session with no token or no expiry is never live.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Live reports whether the session is still valid at the given instant.
func (s Session) Live(now time.Time) bool {
	if s.Token == "" || s.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(s.ExpiresAt)
}
