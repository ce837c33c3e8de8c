package entity

import (
	"math/rand/v2"
	"strings"
	"time"
)

const DefaultStatus = "Hey there! I am using WeChat"

var avatarColors = []string{
	"#E91E63", "#9C27B0", "#673AB7", "#3F51B5", "#2196F3",
	"#00BCD4", "#009688", "#4CAF50", "#FF9800", "#FF5722",
}

// DefaultAvatarColor is shown for profiles that carry no avatar.
const DefaultAvatarColor = "#128C7E"

type Avatar struct {
	Initials string `json:"initials" bson:"initials" firestore:"initials"`
	Color    string `json:"color" bson:"color" firestore:"color"`
}

// Profile mirrors the users/{uid} document.
type Profile struct {
	UID         string    `json:"uid" bson:"_id" firestore:"uid"`
	Name        string    `json:"name" bson:"name" firestore:"name"`
	Email       string    `json:"email" bson:"email" firestore:"email"`
	DisplayName string    `json:"displayName" bson:"displayName" firestore:"displayName"`
	Avatar      *Avatar   `json:"avatar,omitempty" bson:"avatar,omitempty" firestore:"avatar,omitempty"`
	Status      string    `json:"status" bson:"status" firestore:"status"`
	Online      bool      `json:"online" bson:"online" firestore:"online"`
	LastSeen    time.Time `json:"lastSeen" bson:"lastSeen" firestore:"lastSeen,serverTimestamp"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// NewAvatar builds initials from the first letter of every word of name and
// picks a random palette color.
func NewAvatar(name string) Avatar {
	var initials []rune
	for _, part := range strings.Split(name, " ") {
		r := []rune(part)
		if len(r) > 0 {
			initials = append(initials, r[0])
		}
	}
	s := strings.ToUpper(string(initials))
	if r := []rune(s); len(r) > 2 {
		s = string(r[:2])
	}
	return Avatar{
		Initials: s,
		Color:    avatarColors[rand.IntN(len(avatarColors))],
	}
}

// NewProfile returns a fresh online profile. An empty name falls back to the
// local part of the email address.
func NewProfile(uid, name, email string) *Profile {
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	avatar := NewAvatar(name)
	return &Profile{
		UID:         uid,
		Name:        name,
		Email:       email,
		DisplayName: name,
		Avatar:      &avatar,
		Status:      DefaultStatus,
		Online:      true,
	}
}

// Label is the text shown for the profile in lists and headers.
func (p *Profile) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

func (p *Profile) Presence() string {
	if p.Online {
		return "online"
	}
	return "offline"
}

func (p *Profile) AvatarColor() string {
	if p.Avatar != nil && p.Avatar.Color != "" {
		return p.Avatar.Color
	}
	return DefaultAvatarColor
}

func (p *Profile) AvatarInitials() string {
	if p.Avatar != nil && p.Avatar.Initials != "" {
		return p.Avatar.Initials
	}
	if p.Name != "" {
		r := []rune(strings.ToUpper(p.Name))
		if len(r) > 2 {
			r = r[:2]
		}
		return string(r)
	}
	return "U"
}
