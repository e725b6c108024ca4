package models

import "time"

// Profile is the personal data of an individual user, one per user.
type Profile struct {
	ID        string
	UserID    string
	FirstName string
	LastName  string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PhoneNumber returns the phone or "" when unset.
func (p Profile) PhoneNumber() string {
	if p.Phone == nil {
		return ""
	}
	return *p.Phone
}
