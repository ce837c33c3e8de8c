package core

import (
	"WeChat/entity"
	"WeChat/internal/service/auth"
	"context"
	"fmt"
)

func (c *Core) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if c.authService == nil {
		return nil, fmt.Errorf("not set AuthService")
	}
	return c.authService.AuthenticateByToken(token)
}

func (c *Core) Login(ctx context.Context, req entity.LoginRequest) (*auth.Result, error) {
	if c.authService == nil {
		return nil, fmt.Errorf("not set AuthService")
	}
	return c.authService.Login(ctx, req)
}

func (c *Core) Register(ctx context.Context, req entity.RegisterRequest) (*auth.Result, error) {
	if c.authService == nil {
		return nil, fmt.Errorf("not set AuthService")
	}
	return c.authService.Register(ctx, req)
}

func (c *Core) Resume(ctx context.Context, user *entity.UserAuth) {
	if c.authService == nil {
		return
	}
	c.authService.Resume(ctx, user)
}

func (c *Core) Logout(ctx context.Context, user *entity.UserAuth) error {
	if c.authService == nil {
		return fmt.Errorf("not set AuthService")
	}
	return c.authService.Logout(ctx, user)
}
