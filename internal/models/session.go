package models

import "time"

// Operator is the logged-in desk operator.
type Operator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Session represents an authenticated operator at one intake station.
type Session struct {
	StationID string    `json:"stationId"`
	Operator  Operator  `json:"operator"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired checks if session has expired
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
