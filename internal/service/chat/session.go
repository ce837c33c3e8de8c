package chat

import (
	"WeChat/entity"
	"WeChat/internal/feed"
	"context"
	"errors"
	"sync"
)

// Session is the state of one open chat screen. It holds at most one live
// message feed: opening another conversation tears the previous feed down.
type Session struct {
	svc  *Service
	user *entity.UserAuth

	mu           sync.Mutex
	conversation *entity.Conversation
	peer         *entity.Profile
	messages     *feed.Feed[entity.Message]
}

func (s *Service) NewSession(user *entity.UserAuth) *Session {
	return &Session{
		svc:  s,
		user: user,
	}
}

func (s *Session) User() *entity.UserAuth {
	return s.user
}

// Opened is the result of selecting a roster entry.
type Opened struct {
	Conversation *entity.Conversation
	Peer         *entity.Profile
	Messages     *feed.Feed[entity.Message]
}

// Open selects the conversation with otherID. The message feed lives until
// the next Open, Close or until ctx is done. A failed Open leaves nothing
// selected.
func (s *Session) Open(ctx context.Context, otherID string) (*Opened, error) {
	conversation, peer, err := s.svc.OpenConversation(ctx, s.user, otherID)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages.Stop()
	s.conversation = conversation
	s.peer = peer
	s.messages = s.svc.WatchMessages(ctx, conversation.ID)

	return &Opened{
		Conversation: conversation,
		Peer:         peer,
		Messages:     s.messages,
	}, nil
}

// Send posts text to the selected conversation. An empty text does nothing.
func (s *Session) Send(ctx context.Context, text string) (*entity.Message, error) {
	s.mu.Lock()
	conversation := s.conversation
	s.mu.Unlock()

	if conversation == nil {
		return nil, ErrNoConversation
	}
	message, err := s.svc.Send(ctx, s.user, conversation.ID, text)
	if errors.Is(err, ErrEmptyMessage) {
		return nil, nil
	}
	return message, err
}

// Close deselects the conversation and stops its feed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages.Stop()
	s.messages = nil
	s.conversation = nil
	s.peer = nil
}

func (s *Session) Selected() (*entity.Conversation, *entity.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation, s.peer
}
