package auth

import (
	"WeChat/entity"
	"errors"
)

const (
	MsgFillAllFields    = "Please fill in all fields"
	MsgPasswordTooShort = "Password must be at least 6 characters long"
	MsgPasswordMismatch = "Passwords do not match"
)

var providerMessages = map[string]string{
	entity.AuthEmailInUse:      "This email is already registered",
	entity.AuthInvalidEmail:    "Invalid email address",
	entity.AuthWeakPassword:    "Password is too weak",
	entity.AuthUserNotFound:    "No account found with this email",
	entity.AuthWrongPassword:   "Incorrect password",
	entity.AuthTooManyRequests: "Too many failed attempts. Please try again later",
	entity.AuthNetworkFailed:   "Network error. Please check your connection",
}

// Error is a failed sign-in or sign-up with the text to show the user.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func formError(message string) *Error {
	return &Error{Message: message}
}

// userError maps err to the banner text. Unknown provider codes and other
// failures show the raw message.
func userError(err error) *Error {
	var authErr *entity.AuthError
	if errors.As(err, &authErr) {
		if msg, ok := providerMessages[authErr.Code]; ok {
			return &Error{Message: msg, Err: err}
		}
		return &Error{Message: authErr.Message, Err: err}
	}
	return &Error{Message: err.Error(), Err: err}
}
