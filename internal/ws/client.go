package ws

import (
	"WeChat/entity"
	"WeChat/internal/feed"
	"WeChat/internal/lib/api/cont"
	"WeChat/internal/lib/sl"
	"WeChat/internal/service/chat"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client is one open chat screen.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	inbound chan clientEvent
	// closed once writePump has returned
	writerDone chan struct{}
	user       *entity.UserAuth
	log        *slog.Logger
}

// readPump decodes frames from the connection and hands them to run.
// It handles ping/pong keepalive and detects disconnects.
func (c *Client) readPump() {
	defer func() {
		close(c.inbound)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read", sl.Err(err))
			}
			break
		}
		var event clientEvent
		if err = json.Unmarshal(raw, &event); err != nil {
			c.log.Warn("failed to parse client ws message", sl.Err(err))
			continue
		}
		c.inbound <- event
	}
}

// writePump pumps frames to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.writerDone)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// run owns the chat session of the connection: it forwards roster and
// message snapshots and applies client frames until the reader stops.
func (c *Client) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	session := c.hub.chat.NewSession(c.user)
	roster := c.hub.chat.WatchRoster(ctx, c.user.UID)

	defer func() {
		session.Close()
		roster.Stop()
		cancel()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()

	rosterC := roster.C()
	var messagesC <-chan feed.Snapshot[entity.Message]

	for {
		select {
		case event, ok := <-c.inbound:
			if !ok {
				return
			}
			switch event.Type {
			case frameOpen:
				messagesC = nil
				if opened := c.open(ctx, session, event.Data); opened != nil {
					messagesC = opened.Messages.C()
				}
			case frameClose:
				session.Close()
				messagesC = nil
			case frameSend:
				c.sendMessage(ctx, session, event.Data)
			default:
				c.log.Debug("unknown frame", slog.String("type", event.Type))
			}

		case snapshot, ok := <-rosterC:
			if !ok {
				rosterC = nil
				continue
			}
			html, err := c.hub.view.Roster(snapshot.Items, snapshot.Err)
			if err != nil {
				c.log.Error("render roster", sl.Err(err))
			}
			data := snapshot.Items
			if data == nil {
				data = []entity.Profile{}
			}
			c.emit(&Event{Type: EventRoster, Data: data, HTML: html})

		case snapshot, ok := <-messagesC:
			if !ok {
				messagesC = nil
				continue
			}
			if snapshot.Err != nil {
				c.log.Warn("message feed", sl.Err(snapshot.Err))
			}
			html, err := c.hub.view.Messages(c.user.UID, snapshot.Items, snapshot.Err)
			if err != nil {
				c.log.Error("render messages", sl.Err(err))
			}
			data := snapshot.Items
			if data == nil {
				data = []entity.Message{}
			}
			c.emit(&Event{Type: EventMessages, Data: data, HTML: html})
		}
	}
}

func (c *Client) open(ctx context.Context, session *chat.Session, raw json.RawMessage) *chat.Opened {
	var data openData
	if err := json.Unmarshal(raw, &data); err != nil || data.UserID == "" {
		session.Close()
		c.fail("Failed to open chat: user_id is required")
		return nil
	}

	opened, err := session.Open(ctx, data.UserID)
	if err != nil {
		c.log.Error("open conversation", slog.String("peer", data.UserID), sl.Err(err))
		c.fail("Failed to open chat: " + err.Error())
		return nil
	}

	header, err := c.hub.view.ChatHeader(opened.Peer)
	if err != nil {
		c.log.Error("render chat header", sl.Err(err))
	}
	c.emit(&Event{
		Type: EventConversation,
		Data: conversationData{Conversation: opened.Conversation, Peer: opened.Peer},
		HTML: header,
	})
	if loading, err := c.hub.view.MessagesLoading(); err == nil {
		c.emit(&Event{Type: EventMessages, Data: []entity.Message{}, HTML: loading})
	}
	return opened
}

func (c *Client) sendMessage(ctx context.Context, session *chat.Session, raw json.RawMessage) {
	var data sendData
	if err := json.Unmarshal(raw, &data); err != nil {
		c.fail("Failed to send message: malformed frame")
		return
	}

	message, err := session.Send(ctx, data.Text)
	switch {
	case errors.Is(err, chat.ErrNoConversation):
		c.fail("Failed to send message: " + err.Error())
		return
	case err != nil:
		c.log.Error("send message", sl.Err(err))
		c.fail("Failed to send message: " + err.Error())
	}
	if message == nil {
		return
	}
	c.emit(&Event{Type: EventSent, Data: message})
}

func (c *Client) fail(message string) {
	c.emit(&Event{Type: EventError, Data: errorData{Message: message}})
}

// emit queues event for the writer. It gives up once the writer is gone.
func (c *Client) emit(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		c.log.Error("marshal event", slog.String("type", event.Type), sl.Err(err))
		return
	}
	select {
	case c.send <- data:
	case <-c.writerDone:
	}
}

// Authenticator validates a session token.
type Authenticator interface {
	AuthenticateByToken(token string) (*entity.UserAuth, error)
}

// ServeWs upgrades an authenticated chat screen. The user comes from the
// request context when a middleware already verified the session, otherwise
// from the token query parameter.
func ServeWs(hub *Hub, auth Authenticator, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := cont.GetUser(r.Context())
		if err != nil {
			user, err = userFromQuery(auth, r)
		}
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("websocket upgrade failed", sl.Err(err))
			return
		}

		id := uuid.NewString()
		client := &Client{
			id:         id,
			hub:        hub,
			conn:       conn,
			send:       make(chan []byte, 256),
			inbound:    make(chan clientEvent, 16),
			writerDone: make(chan struct{}),
			user:       user,
			log: log.With(
				sl.Module("ws-client"),
				slog.String("uid", user.UID),
				slog.String("conn", id),
			),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
		go client.run(context.WithoutCancel(r.Context()))
	}
}

func userFromQuery(auth Authenticator, r *http.Request) (*entity.UserAuth, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, errors.New("no token")
	}
	return auth.AuthenticateByToken(token)
}
