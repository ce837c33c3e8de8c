package account

import (
	"WeChat/entity"
	"WeChat/internal/service/auth"
	"context"
)

type Core interface {
	Login(ctx context.Context, req entity.LoginRequest) (*auth.Result, error)
	Register(ctx context.Context, req entity.RegisterRequest) (*auth.Result, error)
	Logout(ctx context.Context, user *entity.UserAuth) error
	Enter(ctx context.Context, user *entity.UserAuth) (*entity.Profile, error)
}
