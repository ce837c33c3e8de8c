package core

import (
	"WeChat/entity"
	"WeChat/internal/lib/sl"
	"WeChat/internal/view"
	"context"
	"fmt"
	"io"
	"log/slog"
)

func (c *Core) Enter(ctx context.Context, user *entity.UserAuth) (*entity.Profile, error) {
	if c.chatService == nil {
		return nil, fmt.Errorf("not set ChatService")
	}
	return c.chatService.Enter(ctx, user)
}

func (c *Core) Roster(ctx context.Context, uid string) ([]entity.Profile, error) {
	if c.chatService == nil {
		return nil, fmt.Errorf("not set ChatService")
	}
	return c.chatService.Roster(ctx, uid)
}

func (c *Core) OpenConversation(ctx context.Context, me *entity.UserAuth, otherID string) (*entity.Conversation, *entity.Profile, error) {
	if c.chatService == nil {
		return nil, nil, fmt.Errorf("not set ChatService")
	}
	return c.chatService.OpenConversation(ctx, me, otherID)
}

func (c *Core) Messages(ctx context.Context, me *entity.UserAuth, conversationID string) ([]entity.Message, error) {
	if c.chatService == nil {
		return nil, fmt.Errorf("not set ChatService")
	}
	return c.chatService.Messages(ctx, me, conversationID)
}

// SendMessage posts text to a conversation the user takes part in.
func (c *Core) SendMessage(ctx context.Context, me *entity.UserAuth, conversationID, text string) (*entity.Message, error) {
	if c.chatService == nil {
		return nil, fmt.Errorf("not set ChatService")
	}
	if _, err := c.chatService.Conversation(ctx, me, conversationID); err != nil {
		return nil, err
	}

	message, err := c.chatService.Send(ctx, me, conversationID, text)
	if err != nil {
		c.log.With(
			slog.String("conversation", conversationID),
			slog.String("uid", me.UID),
			sl.Err(err),
		).Error("send message")
	}
	return message, err
}

func (c *Core) RenderAuth(w io.Writer, page view.AuthPage) error {
	if c.view == nil {
		return fmt.Errorf("not set View")
	}
	return c.view.RenderAuth(w, page)
}

func (c *Core) RenderChat(w io.Writer, page view.ChatPage) error {
	if c.view == nil {
		return fmt.Errorf("not set View")
	}
	return c.view.RenderChat(w, page)
}
