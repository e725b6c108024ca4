// Package models holds the persisted domain types of the identity store.
package models

import "time"

type UserType string

const (
	UserTypeIndividual       UserType = "individual"
	UserTypeLogisticsCompany UserType = "logistics_company"
	UserTypeRider            UserType = "rider"
)

// User is an account. PasswordHash is nil for accounts that only sign in
// through an external provider.
type User struct {
	ID            string
	Email         string
	PasswordHash  *string
	UserType      UserType
	EmailVerified bool
	PhoneVerified bool
	TermsAccepted bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Sanitized returns a copy safe to hand to callers: the digest is dropped.
func (u User) Sanitized() User {
	u.PasswordHash = nil
	return u
}

// Verified reports the verification flag for ch.
func (u User) Verified(ch Channel) bool {
	if ch == ChannelPhone {
		return u.PhoneVerified
	}
	return u.EmailVerified
}
