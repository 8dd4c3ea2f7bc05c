package models

import "time"

// User is a row of the users table. PasswordHash is an encoded argon2id
// digest and never leaves the server.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
