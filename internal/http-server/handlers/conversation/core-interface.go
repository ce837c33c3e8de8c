package conversation

import (
	"WeChat/entity"
	"context"
)

type Core interface {
	OpenConversation(ctx context.Context, me *entity.UserAuth, otherID string) (*entity.Conversation, *entity.Profile, error)
	Messages(ctx context.Context, me *entity.UserAuth, conversationID string) ([]entity.Message, error)
	SendMessage(ctx context.Context, me *entity.UserAuth, conversationID, text string) (*entity.Message, error)
}
