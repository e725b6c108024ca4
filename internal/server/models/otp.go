package models

import (
	"fmt"
	"time"
)

// Channel is the delivery channel an OTP proves ownership of.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelEmail, ChannelPhone:
		return Channel(s), nil
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

type OTP struct {
	ID        string
	UserID    string
	Code      string
	Channel   Channel
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (o OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
