package domain

import "time"

// User represents a registered account. Sessions reference users only by ID;
// the session store never reads or writes these documents.
type User struct {
	ID           string    `bson:"_id,omitempty"`
	Username     string    `bson:"username,unique"`
	PasswordHash string    `bson:"password_hash"`
	Role         Role      `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}
