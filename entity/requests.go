package entity

import (
	"WeChat/internal/lib/validate"
	"net/http"
	"strings"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (l *LoginRequest) Normalize() {
	l.Email = strings.TrimSpace(l.Email)
}

func (l *LoginRequest) Bind(_ *http.Request) error {
	l.Normalize()
	return nil
}

type RegisterRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required,utf16min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *RegisterRequest) Bind(_ *http.Request) error {
	r.Normalize()
	return nil
}

type OpenConversationRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (o *OpenConversationRequest) Bind(_ *http.Request) error {
	o.UserID = strings.TrimSpace(o.UserID)
	return validate.Struct(o)
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

func (s *SendMessageRequest) Bind(_ *http.Request) error {
	s.Text = strings.TrimSpace(s.Text)
	return validate.Struct(s)
}
