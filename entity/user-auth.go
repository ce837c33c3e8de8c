package entity

// UserAuth is the principal carried by a verified session.
type UserAuth struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Token       string `json:"-"`
}

// Label prefers the display name and falls back to the email.
func (u *UserAuth) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Identity is what the identity provider returns for a signed-in account.
type Identity struct {
	UID          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
}
