// Package storetest holds the behaviour every document store backend must
// share, so the memory, MongoDB and Firestore stores run the same checks.
package storetest

import (
	"WeChat/entity"
	"WeChat/internal/feed"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type Store interface {
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

// Run exercises store. Ids are random so runs against a shared database do
// not collide.
func Run(t *testing.T, store Store) {
	t.Run("profile", func(t *testing.T) { testProfile(t, store) })
	t.Run("conversation", func(t *testing.T) { testConversation(t, store) })
	t.Run("messages feed", func(t *testing.T) { testMessagesFeed(t, store) })
}

func testProfile(t *testing.T, store Store) {
	ctx := context.Background()
	uid := uuid.NewString()

	missing, err := store.GetProfile(ctx, uid)
	if err != nil || missing != nil {
		t.Fatalf("GetProfile(missing) = %v, %v", missing, err)
	}

	if err := store.CreateProfile(ctx, entity.NewProfile(uid, "Store Test", "store@example.com")); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	p, err := store.GetProfile(ctx, uid)
	if err != nil || p == nil {
		t.Fatalf("GetProfile = %v, %v", p, err)
	}
	if p.UID != uid || p.Name != "Store Test" || !p.Online || p.Avatar == nil || p.Avatar.Initials != "ST" {
		t.Fatalf("profile = %+v", p)
	}

	if err := store.SetPresence(ctx, uid, false); err != nil {
		t.Fatalf("SetPresence: %v", err)
	}
	p, _ = store.GetProfile(ctx, uid)
	if p.Online {
		t.Fatal("presence still online")
	}
}

func testConversation(t *testing.T, store Store) {
	ctx := context.Background()
	me := &entity.UserAuth{UID: uuid.NewString(), Email: "me@example.com"}
	other := &entity.Profile{UID: uuid.NewString(), Name: "Other", Email: "other@example.com"}
	conv := entity.NewConversation(me, other)

	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if err := store.CreateConversation(ctx, entity.NewConversation(me, other)); err != nil {
		t.Fatalf("second CreateConversation: %v", err)
	}

	got, err := store.GetConversation(ctx, conv.ID)
	if err != nil || got == nil {
		t.Fatalf("GetConversation = %v, %v", got, err)
	}
	if got.ID != conv.ID || !got.HasParticipant(me.UID) || !got.HasParticipant(other.UID) {
		t.Fatalf("conversation = %+v", got)
	}
	if got.LastMessage != nil {
		t.Fatalf("new conversation has preview %q", *got.LastMessage)
	}

	if err := store.UpdateConversationPreview(ctx, conv.ID, "hello"); err != nil {
		t.Fatalf("UpdateConversationPreview: %v", err)
	}
	got, _ = store.GetConversation(ctx, conv.ID)
	if got.LastMessage == nil || *got.LastMessage != "hello" || got.LastMessageTime == nil {
		t.Fatalf("preview = %+v", got)
	}
}

func testMessagesFeed(t *testing.T, store Store) {
	ctx := context.Background()
	me := &entity.UserAuth{UID: uuid.NewString(), DisplayName: "Me"}
	other := &entity.Profile{UID: uuid.NewString(), Name: "Other"}
	conv := entity.NewConversation(me, other)
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	f := store.WatchMessages(ctx, conv.ID)
	defer f.Stop()

	if s := Next(t, f); s.Err != nil || len(s.Items) != 0 {
		t.Fatalf("initial snapshot = %+v", s)
	}

	for _, text := range []string{"one", "two"} {
		if err := store.AddMessage(ctx, entity.NewMessage(conv.ID, me, text, time.Now())); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
		// distinct server timestamps keep the order deterministic
		time.Sleep(5 * time.Millisecond)
	}

	var s feed.Snapshot[entity.Message]
	deadline := time.Now().Add(5 * time.Second)
	for len(s.Items) < 2 && time.Now().Before(deadline) {
		s = Next(t, f)
		if s.Err != nil {
			t.Fatalf("feed error: %v", s.Err)
		}
	}
	if len(s.Items) != 2 || s.Items[0].Text != "one" || s.Items[1].Text != "two" {
		t.Fatalf("messages = %+v", s.Items)
	}
	if s.Items[0].SenderName != "Me" || s.Items[0].ID == "" {
		t.Fatalf("message = %+v", s.Items[0])
	}

	listed, err := store.ListMessages(ctx, conv.ID)
	if err != nil || len(listed) != 2 {
		t.Fatalf("ListMessages = %v, %v", listed, err)
	}
}

// Next waits for the next snapshot of f.
func Next[T any](t *testing.T, f *feed.Feed[T]) feed.Snapshot[T] {
	t.Helper()
	select {
	case s, ok := <-f.C():
		if !ok {
			t.Fatal("feed closed")
		}
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return feed.Snapshot[T]{}
}
