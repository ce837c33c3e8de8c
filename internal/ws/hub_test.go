package ws

import (
	"WeChat/entity"
	"WeChat/internal/database/memory"
	"WeChat/internal/service/chat"
	"WeChat/internal/view"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type tokenAuth map[string]*entity.UserAuth

func (a tokenAuth) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if u, ok := a[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid token")
}

type harness struct {
	store  *memory.Store
	hub    *Hub
	server *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, func(svc *chat.Service) ChatService { return svc })
}

// newHarnessWith lets a test wrap the chat service the hub talks to.
func newHarnessWith(t *testing.T, wrap func(*chat.Service) ChatService) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.New()
	ctx := context.Background()
	for _, p := range []*entity.Profile{
		entity.NewProfile("ann", "Ann", "ann@example.com"),
		entity.NewProfile("bob", "Bob", "bob@example.com"),
	} {
		p.Online = false
		if err := store.CreateProfile(ctx, p); err != nil {
			t.Fatalf("CreateProfile: %v", err)
		}
	}

	v, err := view.New()
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}
	hub := NewHub(log, wrap(chat.NewChatService(log, store)), v)
	hubCtx, cancel := context.WithCancel(ctx)
	go hub.Run(hubCtx)

	auth := tokenAuth{
		"ann-token": {UID: "ann", Email: "ann@example.com", DisplayName: "Ann"},
		"bob-token": {UID: "bob", Email: "bob@example.com", DisplayName: "Bob"},
	}
	server := httptest.NewServer(ServeWs(hub, auth, log))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &harness{store: store, hub: hub, server: server}
}

func (h *harness) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	HTML string          `json:"html"`
}

// readUntil skips frames until one of type kind satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, kind string, match func(received) bool) received {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var ev received
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("waiting for %q: %v", kind, err)
		}
		if ev.Type == kind && (match == nil || match(ev)) {
			return ev
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, kind string, data interface{}) {
	t.Helper()
	if err := conn.WriteJSON(map[string]interface{}{"type": kind, "data": data}); err != nil {
		t.Fatalf("write %s: %v", kind, err)
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func online(t *testing.T, store *memory.Store, uid string) bool {
	t.Helper()
	p, err := store.GetProfile(context.Background(), uid)
	if err != nil || p == nil {
		t.Fatalf("GetProfile(%s): %v", uid, err)
	}
	return p.Online
}

func TestServeWsRejectsMissingToken(t *testing.T) {
	h := newHarness(t)

	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestRosterPushedOnConnect(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, "ann-token")

	ev := readUntil(t, conn, EventRoster, nil)
	var profiles []entity.Profile
	if err := json.Unmarshal(ev.Data, &profiles); err != nil {
		t.Fatalf("decode roster: %v", err)
	}
	if len(profiles) != 1 || profiles[0].UID != "bob" {
		t.Fatalf("roster = %+v, want only bob", profiles)
	}
	if !strings.Contains(ev.HTML, `data-user-id="bob"`) {
		t.Errorf("roster html missing bob: %s", ev.HTML)
	}
}

func TestOpenAndSend(t *testing.T) {
	h := newHarness(t)
	ann := h.dial(t, "ann-token")
	bob := h.dial(t, "bob-token")

	send(t, ann, frameOpen, openData{UserID: "bob"})
	conv := readUntil(t, ann, EventConversation, nil)
	if !strings.Contains(conv.HTML, "Bob") {
		t.Errorf("header html missing peer: %s", conv.HTML)
	}
	readUntil(t, ann, EventMessages, func(ev received) bool {
		return strings.Contains(ev.HTML, "No messages yet")
	})

	send(t, bob, frameOpen, openData{UserID: "ann"})
	readUntil(t, bob, EventConversation, nil)

	send(t, ann, frameSend, sendData{Text: "  hi bob  "})
	readUntil(t, ann, EventSent, nil)

	for _, conn := range []*websocket.Conn{ann, bob} {
		ev := readUntil(t, conn, EventMessages, func(ev received) bool {
			return strings.Contains(ev.HTML, "hi bob")
		})
		var messages []entity.Message
		if err := json.Unmarshal(ev.Data, &messages); err != nil {
			t.Fatalf("decode messages: %v", err)
		}
		if len(messages) != 1 || messages[0].Text != "hi bob" || messages[0].SenderID != "ann" {
			t.Fatalf("messages = %+v", messages)
		}
	}

	conversation, err := h.store.GetConversation(context.Background(), entity.ConversationID("ann", "bob"))
	if err != nil || conversation == nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conversation.LastMessage == nil || *conversation.LastMessage != "hi bob" {
		t.Errorf("preview = %v", conversation.LastMessage)
	}
}

func TestOpenUnknownUserReportsError(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, "ann-token")

	send(t, conn, frameOpen, openData{UserID: "nobody"})
	ev := readUntil(t, conn, EventError, nil)
	if !strings.Contains(string(ev.Data), "Failed to open chat") {
		t.Errorf("error frame = %s", ev.Data)
	}
}

func TestPresenceFollowsLastConnection(t *testing.T) {
	h := newHarness(t)

	first := h.dial(t, "ann-token")
	second := h.dial(t, "ann-token")
	eventually(t, "two connections", func() bool { return h.hub.Connections("ann") == 2 })
	eventually(t, "ann online", func() bool { return online(t, h.store, "ann") })

	first.Close()
	eventually(t, "one connection", func() bool { return h.hub.Connections("ann") == 1 })
	if !online(t, h.store, "ann") {
		t.Fatal("ann went offline with a connection still open")
	}

	second.Close()
	eventually(t, "no connections", func() bool { return h.hub.Connections("ann") == 0 })
	eventually(t, "ann offline", func() bool { return !online(t, h.store, "ann") })
}

func TestSendAfterFailedOpenReportsError(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, "ann-token")

	send(t, conn, frameOpen, openData{UserID: "ghost"})
	readUntil(t, conn, EventError, nil)

	send(t, conn, frameSend, sendData{Text: "hi"})
	ev := readUntil(t, conn, EventError, nil)
	if !strings.Contains(string(ev.Data), "Failed to send message") {
		t.Errorf("error frame = %s", ev.Data)
	}
}

func TestFailedOpenDropsPreviousConversation(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, "ann-token")

	send(t, conn, frameOpen, openData{UserID: "bob"})
	readUntil(t, conn, EventConversation, nil)

	send(t, conn, frameOpen, openData{UserID: "ghost"})
	readUntil(t, conn, EventError, nil)

	send(t, conn, frameSend, sendData{Text: "meant for ghost"})
	readUntil(t, conn, EventError, func(ev received) bool {
		return strings.Contains(string(ev.Data), "Failed to send message")
	})

	messages, err := h.store.ListMessages(context.Background(), entity.ConversationID("ann", "bob"))
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("message went to the previous conversation: %+v", messages)
	}
}

// slowPresence holds every Enter until release is closed.
type slowPresence struct {
	*chat.Service
	release chan struct{}
}

func (s slowPresence) Enter(ctx context.Context, user *entity.UserAuth) (*entity.Profile, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Service.Enter(ctx, user)
}

func TestSlowPresenceDoesNotBlockConnections(t *testing.T) {
	release := make(chan struct{})
	h := newHarnessWith(t, func(svc *chat.Service) ChatService {
		return slowPresence{Service: svc, release: release}
	})

	ann := h.dial(t, "ann-token")
	readUntil(t, ann, EventRoster, nil)
	bob := h.dial(t, "bob-token")
	readUntil(t, bob, EventRoster, nil)

	eventually(t, "both connections", func() bool {
		return h.hub.Connections("ann") == 1 && h.hub.Connections("bob") == 1
	})
	if online(t, h.store, "ann") {
		t.Fatal("ann online before the presence write finished")
	}

	close(release)
	eventually(t, "ann online", func() bool { return online(t, h.store, "ann") })
	eventually(t, "bob online", func() bool { return online(t, h.store, "bob") })
}
