package models

import "time"

// Session is the locally cached proof of authentication. Exactly one exists
// at a time: created on login, replaced on re-login, destroyed on logout.
type Session struct {
	Username string
	Role     string
	Token    string
	IssuedAt time.Time
}
