package user

import (
	"WeChat/entity"
	"context"
)

type Core interface {
	Roster(ctx context.Context, uid string) ([]entity.Profile, error)
}
