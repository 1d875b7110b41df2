package domain

import "time"

// AdminSession is an issued admin credential. The token is a bearer
// capability and carries no identity.
type AdminSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
