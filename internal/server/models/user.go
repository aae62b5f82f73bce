package models

// User is a server-side account. The password itself is never stored; only a
// per-user salt and an argon2id verifier derived from it.
type User struct {
	ID       string
	UserName string
	Role     string
	Salt     []byte
	Verifier []byte
}
