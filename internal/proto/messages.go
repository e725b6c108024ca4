package proto

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type RegisterIndividualRequest struct {
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Phone         *string `json:"phone,omitempty"`
	TermsAccepted bool    `json:"termsAccepted"`
}

// VerificationRequest selects the channel with Type ("email" or "phone").
// Code is only used by VerifyOTP.
type VerificationRequest struct {
	UserID string `json:"userId"`
	Type   string `json:"type"`
	Code   string `json:"code,omitempty"`
}

type SignInRequest struct {
	Provider   string `json:"provider"`
	Credential string `json:"credential"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ProviderRequest struct {
	Provider string `json:"provider"`
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Profile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	UserType      string    `json:"userType"`
	EmailVerified bool      `json:"emailVerified"`
	PhoneVerified bool      `json:"phoneVerified"`
	TermsAccepted bool      `json:"termsAccepted"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type AuthResponse struct {
	Tokens    Tokens  `json:"tokens"`
	Profile   Profile `json:"profile"`
	UserID    string  `json:"user_id"`
	User      *User   `json:"user,omitempty"`
	IsNewUser *bool   `json:"isNewUser,omitempty"`
}

type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// MessageResponse acknowledges operations without a payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Encode converts v to a Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return s, nil
}

// Decode fills v from s. A nil Struct decodes as an empty object.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
