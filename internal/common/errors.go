// Package common defines shared constants and errors used across the
// service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// ErrorCode is the stable, machine-readable identifier of an AppError.
// The string values are part of the public contract and must not change.
type ErrorCode string

const (
	CodeEmailExists          ErrorCode = "EMAIL_EXISTS"
	CodeTermsNotAccepted     ErrorCode = "TERMS_NOT_ACCEPTED"
	CodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	CodeProfileNotFound      ErrorCode = "PROFILE_NOT_FOUND"
	CodeAlreadyVerified      ErrorCode = "ALREADY_VERIFIED"
	CodeNoPhoneNumber        ErrorCode = "NO_PHONE_NUMBER"
	CodeInvalidOTP           ErrorCode = "INVALID_OTP"
	CodeEmailSendFailed      ErrorCode = "EMAIL_SEND_FAILED"
	CodeSMSSendFailed        ErrorCode = "SMS_SEND_FAILED"
	CodeCannotUnlinkOnlyAuth ErrorCode = "CANNOT_UNLINK_ONLY_AUTH"
	CodeOAuthAccountLinked   ErrorCode = "OAUTH_ACCOUNT_LINKED"
	CodeInvalidProvider      ErrorCode = "INVALID_PROVIDER"
	CodeTooManyRequests      ErrorCode = "TOO_MANY_REQUESTS"
)

// ErrorClass groups error codes by who is at fault, so transports can pick a
// status without knowing every code.
type ErrorClass int

const (
	ClassClient ErrorClass = iota
	ClassNotFound
	ClassConflict
	ClassServer
	ClassRateLimited
)

// AppError is a domain error carrying a stable code and a human-readable
// message. Two AppErrors are considered equal by errors.Is when their codes
// match, so callers can compare against the exported values below even if
// the message was customised.
type AppError struct {
	Code    ErrorCode
	Message string
}

func (e *AppError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Class returns the fault class of the error code.
func (e *AppError) Class() ErrorClass {
	switch e.Code {
	case CodeCannotUnlinkOnlyAuth, CodeOAuthAccountLinked:
		return ClassConflict
	case CodeUserNotFound, CodeProfileNotFound:
		return ClassNotFound
	case CodeEmailSendFailed, CodeSMSSendFailed:
		return ClassServer
	case CodeTooManyRequests:
		return ClassRateLimited
	default:
		return ClassClient
	}
}

var (
	ErrEmailExists          = &AppError{Code: CodeEmailExists, Message: "A user with this email already exists"}
	ErrTermsNotAccepted     = &AppError{Code: CodeTermsNotAccepted, Message: "You must accept the terms and conditions"}
	ErrUserNotFound         = &AppError{Code: CodeUserNotFound, Message: "User not found"}
	ErrProfileNotFound      = &AppError{Code: CodeProfileNotFound, Message: "User profile not found"}
	ErrAlreadyVerified      = &AppError{Code: CodeAlreadyVerified, Message: "Already verified"}
	ErrNoPhoneNumber        = &AppError{Code: CodeNoPhoneNumber, Message: "No phone number registered for this account"}
	ErrInvalidOTP           = &AppError{Code: CodeInvalidOTP, Message: "Invalid or expired verification code"}
	ErrEmailSendFailed      = &AppError{Code: CodeEmailSendFailed, Message: "Failed to send verification email"}
	ErrSMSSendFailed        = &AppError{Code: CodeSMSSendFailed, Message: "Failed to send verification SMS"}
	ErrCannotUnlinkOnlyAuth = &AppError{Code: CodeCannotUnlinkOnlyAuth, Message: "Cannot unlink the only authentication method. Please set a password first."}
	ErrOAuthAccountLinked   = &AppError{Code: CodeOAuthAccountLinked, Message: "This email is already linked to another account"}
	ErrInvalidProvider      = &AppError{Code: CodeInvalidProvider, Message: "Invalid OAuth provider"}
	ErrTooManyRequests      = &AppError{Code: CodeTooManyRequests, Message: "Too many verification requests; try again later"}
)

// NewAppError returns an AppError with the code of base and a custom message.
func NewAppError(base *AppError, message string) *AppError {
	return &AppError{Code: base.Code, Message: message}
}

// AsAppError unwraps err into an AppError if it carries one.
func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
