package entity

// Identity provider error codes, in the auth/<kebab-case> form shown to users.
const (
	AuthEmailInUse        = "auth/email-already-in-use"
	AuthInvalidEmail      = "auth/invalid-email"
	AuthWeakPassword      = "auth/weak-password"
	AuthUserNotFound      = "auth/user-not-found"
	AuthWrongPassword     = "auth/wrong-password"
	AuthTooManyRequests   = "auth/too-many-requests"
	AuthNetworkFailed     = "auth/network-request-failed"
	AuthInvalidCredential = "auth/invalid-credential"
	AuthInternal          = "auth/internal-error"
)

// AuthError is a failure reported by the identity provider.
type AuthError struct {
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
