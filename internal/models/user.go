package models

import "time"

// User represents an application account. Passwords are stored bcrypt-hashed.
type User struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	FullName      string    `bson:"fullName" json:"fullName"`
	Email         string    `bson:"email" json:"email"`
	PasswordHash  string    `bson:"passwordHash" json:"-"`
	Plan          string    `bson:"plan" json:"plan"` // free, pro, enterprise
	EmailVerified bool      `bson:"emailVerified" json:"emailVerified"`
	IsAdmin       bool      `bson:"isAdmin,omitempty" json:"isAdmin,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Plans accepted by the admin plan-change endpoint.
var ValidPlans = map[string]bool{"free": true, "pro": true, "enterprise": true}
