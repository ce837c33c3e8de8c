// Package memory is an in-process document store used for local runs and
// tests. It follows the same contract as the Firestore and MongoDB backends,
// including live feeds that redeliver the full ordered result set.
package memory

import (
	"WeChat/entity"
	"WeChat/internal/feed"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	usersTopic = "users"
)

type Store struct {
	mu            sync.RWMutex
	profiles      map[string]entity.Profile
	conversations map[string]entity.Conversation
	messages      map[string][]entity.Message // conversationID -> messages
	watchers      map[string]map[chan struct{}]struct{}
	now           func() time.Time
}

func New() *Store {
	return &Store{
		profiles:      make(map[string]entity.Profile),
		conversations: make(map[string]entity.Conversation),
		messages:      make(map[string][]entity.Message),
		watchers:      make(map[string]map[chan struct{}]struct{}),
		now:           time.Now,
	}
}

// SetClock overrides the server clock used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) GetProfile(_ context.Context, uid string) (*entity.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[uid]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) CreateProfile(_ context.Context, profile *entity.Profile) error {
	if profile.UID == "" {
		return fmt.Errorf("profile uid is empty")
	}
	s.mu.Lock()
	p := *profile
	now := s.now()
	if p.LastSeen.IsZero() {
		p.LastSeen = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	s.profiles[p.UID] = p
	s.mu.Unlock()

	s.notify(usersTopic)
	return nil
}

func (s *Store) SetPresence(_ context.Context, uid string, online bool) error {
	s.mu.Lock()
	p, ok := s.profiles[uid]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("profile %s not found", uid)
	}
	p.Online = online
	p.LastSeen = s.now()
	s.profiles[uid] = p
	s.mu.Unlock()

	s.notify(usersTopic)
	return nil
}

func (s *Store) ListProfiles(_ context.Context) ([]entity.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]entity.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	slices.SortFunc(profiles, func(a, b entity.Profile) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.UID, b.UID)
	})
	return profiles, nil
}

func (s *Store) WatchProfiles(ctx context.Context) *feed.Feed[entity.Profile] {
	return watch(ctx, s, usersTopic, s.ListProfiles)
}

func (s *Store) GetConversation(_ context.Context, id string) (*entity.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) CreateConversation(_ context.Context, conversation *entity.Conversation) error {
	if conversation.ID == "" {
		return fmt.Errorf("conversation id is empty")
	}
	s.mu.Lock()
	if _, ok := s.conversations[conversation.ID]; ok {
		// the other participant opened it first
		s.mu.Unlock()
		return nil
	}
	c := *conversation
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.conversations[c.ID] = c
	s.mu.Unlock()
	return nil
}

func (s *Store) UpdateConversationPreview(_ context.Context, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	now := s.now()
	c.LastMessage = &text
	c.LastMessageTime = &now
	s.conversations[id] = c
	return nil
}

func (s *Store) AddMessage(_ context.Context, message *entity.Message) error {
	if message.ConversationID == "" {
		return fmt.Errorf("message conversation id is empty")
	}
	s.mu.Lock()
	m := *message
	m.ID = uuid.NewString()
	m.Timestamp = s.now()
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], m)
	s.mu.Unlock()

	message.ID = m.ID
	message.Timestamp = m.Timestamp
	s.notify(messagesTopic(m.ConversationID))
	return nil
}

func (s *Store) ListMessages(_ context.Context, conversationID string) ([]entity.Message, error) {
	s.mu.RLock()
	messages := slices.Clone(s.messages[conversationID])
	s.mu.RUnlock()

	slices.SortStableFunc(messages, func(a, b entity.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return messages, nil
}

func (s *Store) WatchMessages(ctx context.Context, conversationID string) *feed.Feed[entity.Message] {
	return watch(ctx, s, messagesTopic(conversationID), func(ctx context.Context) ([]entity.Message, error) {
		return s.ListMessages(ctx, conversationID)
	})
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func messagesTopic(conversationID string) string {
	return "messages/" + conversationID
}

func (s *Store) subscribe(topic string) chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	if s.watchers[topic] == nil {
		s.watchers[topic] = make(map[chan struct{}]struct{})
	}
	s.watchers[topic][ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Store) unsubscribe(topic string, ch chan struct{}) {
	s.mu.Lock()
	delete(s.watchers[topic], ch)
	if len(s.watchers[topic]) == 0 {
		delete(s.watchers, topic)
	}
	s.mu.Unlock()
}

func (s *Store) notify(topic string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.watchers[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watchers reports the number of live feeds, used to check subscriptions are
// torn down.
func (s *Store) Watchers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, set := range s.watchers {
		n += len(set)
	}
	return n
}

func watch[T any](ctx context.Context, s *Store, topic string, query func(context.Context) ([]T, error)) *feed.Feed[T] {
	changed := s.subscribe(topic)
	return feed.Start(ctx, func(ctx context.Context, emit feed.Emit[T]) {
		defer s.unsubscribe(topic, changed)
		for {
			items, err := query(ctx)
			if !emit(feed.Snapshot[T]{Items: items, Err: err}) {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
		}
	})
}
