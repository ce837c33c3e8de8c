package chat

import (
	"WeChat/entity"
	"WeChat/internal/feed"
	"WeChat/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrSelfConversation     = errors.New("cannot open a conversation with yourself")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrEmptyMessage         = errors.New("message text is empty")
	ErrNoConversation       = errors.New("no conversation selected")
)

type Repository interface {
	GetProfile(ctx context.Context, uid string) (*entity.Profile, error)
	CreateProfile(ctx context.Context, profile *entity.Profile) error
	SetPresence(ctx context.Context, uid string, online bool) error
	ListProfiles(ctx context.Context) ([]entity.Profile, error)
	WatchProfiles(ctx context.Context) *feed.Feed[entity.Profile]

	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	CreateConversation(ctx context.Context, conversation *entity.Conversation) error
	UpdateConversationPreview(ctx context.Context, id, text string) error

	AddMessage(ctx context.Context, message *entity.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]entity.Message, error)
	WatchMessages(ctx context.Context, conversationID string) *feed.Feed[entity.Message]
}

type Service struct {
	repository Repository
	now        func() time.Time
	log        *slog.Logger
}

func NewChatService(logger *slog.Logger, repository Repository) *Service {
	return &Service{
		repository: repository,
		now:        time.Now,
		log:        logger.With(sl.Module("chat-service")),
	}
}

// Enter loads the profile of a signed-in user, creating it when missing, and
// marks it online.
func (s *Service) Enter(ctx context.Context, user *entity.UserAuth) (*entity.Profile, error) {
	profile, err := s.repository.GetProfile(ctx, user.UID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if profile == nil {
		profile = entity.NewProfile(user.UID, user.DisplayName, user.Email)
		if err = s.repository.CreateProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		return profile, nil
	}

	if err = s.repository.SetPresence(ctx, user.UID, true); err != nil {
		return nil, fmt.Errorf("update presence: %w", err)
	}
	profile.Online = true
	return profile, nil
}

// Leave marks the user offline.
func (s *Service) Leave(ctx context.Context, uid string) error {
	if err := s.repository.SetPresence(ctx, uid, false); err != nil {
		s.log.Warn("leave", slog.String("uid", uid), sl.Err(err))
		return err
	}
	return nil
}

// Roster returns every other profile ordered by name.
func (s *Service) Roster(ctx context.Context, uid string) ([]entity.Profile, error) {
	profiles, err := s.repository.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return excludeUser(profiles, uid), nil
}

// WatchRoster is the live form of Roster.
func (s *Service) WatchRoster(ctx context.Context, uid string) *feed.Feed[entity.Profile] {
	return feed.Map(ctx, s.repository.WatchProfiles(ctx), func(profiles []entity.Profile) []entity.Profile {
		return excludeUser(profiles, uid)
	})
}

func excludeUser(profiles []entity.Profile, uid string) []entity.Profile {
	others := make([]entity.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.UID != uid {
			others = append(others, p)
		}
	}
	return others
}

// FilterRoster keeps the profiles whose label contains term, ignoring case.
func FilterRoster(profiles []entity.Profile, term string) []entity.Profile {
	term = strings.ToLower(term)
	if term == "" {
		return profiles
	}
	matched := make([]entity.Profile, 0, len(profiles))
	for _, p := range profiles {
		if strings.Contains(strings.ToLower(p.Label()), term) {
			matched = append(matched, p)
		}
	}
	return matched
}

// OpenConversation returns the conversation between me and otherID, creating
// it on first use, together with the other participant's profile.
func (s *Service) OpenConversation(ctx context.Context, me *entity.UserAuth, otherID string) (*entity.Conversation, *entity.Profile, error) {
	if otherID == me.UID {
		return nil, nil, ErrSelfConversation
	}

	other, err := s.repository.GetProfile(ctx, otherID)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	if other == nil {
		return nil, nil, ErrUserNotFound
	}

	id := entity.ConversationID(me.UID, otherID)
	conversation, err := s.repository.GetConversation(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load conversation: %w", err)
	}
	if conversation == nil {
		conversation = entity.NewConversation(me, other)
		if err = s.repository.CreateConversation(ctx, conversation); err != nil {
			return nil, nil, fmt.Errorf("create conversation: %w", err)
		}
		s.log.Debug("conversation created", slog.String("conversation", id))
	}

	return conversation, other, nil
}

// Conversation loads a conversation the user takes part in.
func (s *Service) Conversation(ctx context.Context, me *entity.UserAuth, id string) (*entity.Conversation, error) {
	conversation, err := s.repository.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	if !conversation.HasParticipant(me.UID) {
		return nil, ErrNotParticipant
	}
	return conversation, nil
}

func (s *Service) Messages(ctx context.Context, me *entity.UserAuth, conversationID string) ([]entity.Message, error) {
	if _, err := s.Conversation(ctx, me, conversationID); err != nil {
		return nil, err
	}
	return s.repository.ListMessages(ctx, conversationID)
}

func (s *Service) WatchMessages(ctx context.Context, conversationID string) *feed.Feed[entity.Message] {
	return s.repository.WatchMessages(ctx, conversationID)
}

// Send appends a message and then refreshes the conversation preview. The two
// writes are independent: a failed preview update leaves the message in place.
func (s *Service) Send(ctx context.Context, me *entity.UserAuth, conversationID, text string) (*entity.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	message := entity.NewMessage(conversationID, me, text, s.now())
	if err := s.repository.AddMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	if err := s.repository.UpdateConversationPreview(ctx, conversationID, text); err != nil {
		return message, fmt.Errorf("update conversation preview: %w", err)
	}
	return message, nil
}
