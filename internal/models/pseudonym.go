package models

import "time"

// PseudonymAssignment binds a user to an alias inside one channel.
type PseudonymAssignment struct {
	UserID     string    `json:"user_id"`
	ChannelID  string    `json:"channel_id"`
	Pseudo     string    `json:"pseudo"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// ActiveAt reports whether the assignment is still inside its validity window.
func (a *PseudonymAssignment) ActiveAt(now time.Time, window time.Duration) bool {
	return now.Sub(a.LastUsedAt) < window
}
