package core

import (
	"WeChat/entity"
	"WeChat/internal/lib/sl"
	"WeChat/internal/service/auth"
	"WeChat/internal/view"
	"context"
	"io"
	"log/slog"
)

type AuthService interface {
	AuthenticateByToken(token string) (*entity.UserAuth, error)
	Login(ctx context.Context, req entity.LoginRequest) (*auth.Result, error)
	Register(ctx context.Context, req entity.RegisterRequest) (*auth.Result, error)
	Resume(ctx context.Context, user *entity.UserAuth)
	Logout(ctx context.Context, user *entity.UserAuth) error
}

type ChatService interface {
	Enter(ctx context.Context, user *entity.UserAuth) (*entity.Profile, error)
	Roster(ctx context.Context, uid string) ([]entity.Profile, error)
	OpenConversation(ctx context.Context, me *entity.UserAuth, otherID string) (*entity.Conversation, *entity.Profile, error)
	Conversation(ctx context.Context, me *entity.UserAuth, id string) (*entity.Conversation, error)
	Messages(ctx context.Context, me *entity.UserAuth, conversationID string) ([]entity.Message, error)
	Send(ctx context.Context, me *entity.UserAuth, conversationID, text string) (*entity.Message, error)
}

type Renderer interface {
	RenderAuth(w io.Writer, page view.AuthPage) error
	RenderChat(w io.Writer, page view.ChatPage) error
}

// Core joins the services behind the HTTP handlers.
type Core struct {
	authService AuthService
	chatService ChatService
	view        Renderer
	log         *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.authService = auth
}

func (c *Core) SetChatService(chat ChatService) {
	c.chatService = chat
}

func (c *Core) SetView(view Renderer) {
	c.view = view
}
