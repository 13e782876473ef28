package models

import "time"

// ShareLink represents a read-only public view token for a user's cellar
type ShareLink struct {
	Token     string     `json:"token" db:"token"`
	UserID    string     `json:"userId" db:"user_id"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	RevokedAt *time.Time `json:"revokedAt,omitempty" db:"revoked_at"`
}

// Active reports whether the link can still be used
func (l *ShareLink) Active() bool {
	return l.RevokedAt == nil
}
