package web

import (
	"WeChat/entity"
	"WeChat/internal/service/auth"
	"WeChat/internal/view"
	"context"
	"io"
)

type Core interface {
	Login(ctx context.Context, req entity.LoginRequest) (*auth.Result, error)
	Register(ctx context.Context, req entity.RegisterRequest) (*auth.Result, error)
	Resume(ctx context.Context, user *entity.UserAuth)
	Logout(ctx context.Context, user *entity.UserAuth) error

	Enter(ctx context.Context, user *entity.UserAuth) (*entity.Profile, error)
	Roster(ctx context.Context, uid string) ([]entity.Profile, error)

	RenderAuth(w io.Writer, page view.AuthPage) error
	RenderChat(w io.Writer, page view.ChatPage) error
}
