package ws

import (
	"WeChat/entity"
	"WeChat/internal/feed"
	"WeChat/internal/lib/sl"
	"WeChat/internal/service/chat"
	"context"
	"log/slog"
	"sync"
	"time"
)

const presenceTimeout = 5 * time.Second

// ChatService is what a connection needs from the chat domain.
type ChatService interface {
	Enter(ctx context.Context, user *entity.UserAuth) (*entity.Profile, error)
	Leave(ctx context.Context, uid string) error
	WatchRoster(ctx context.Context, uid string) *feed.Feed[entity.Profile]
	NewSession(user *entity.UserAuth) *chat.Session
}

// Renderer turns snapshots into the HTML fragments shown by the chat screen.
type Renderer interface {
	Roster(profiles []entity.Profile, err error) (string, error)
	Messages(uid string, messages []entity.Message, err error) (string, error)
	MessagesLoading() (string, error)
	ChatHeader(peer *entity.Profile) (string, error)
}

// Hub tracks the open chat screens of every user. The first connection of a
// user marks them online; closing the last one marks them offline.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	chat       ChatService
	view       Renderer
	log        *slog.Logger

	// one lock per user keeps presence writes of a user in order
	presence map[string]*sync.Mutex
}

func NewHub(log *slog.Logger, chat ChatService, view Renderer) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		presence:   make(map[string]*sync.Mutex),
		chat:       chat,
		view:       view,
		log:        log.With(sl.Module("ws-hub")),
	}
}

// Run starts the hub's event loop. Should be called in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			conns, ok := h.clients[client.user.UID]
			if !ok {
				conns = make(map[*Client]bool)
				h.clients[client.user.UID] = conns
			}
			conns[client] = true
			first := len(conns) == 1
			h.mu.Unlock()

			if first {
				go h.syncPresence(client.user)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			last := false
			if conns, ok := h.clients[client.user.UID]; ok && conns[client] {
				delete(conns, client)
				close(client.send)
				if len(conns) == 0 {
					delete(h.clients, client.user.UID)
					last = true
				}
			}
			h.mu.Unlock()

			if last {
				go h.syncPresence(client.user)
			}
		}
	}
}

// syncPresence writes the presence the user has at the time the write runs,
// so a late writer never undoes a newer transition.
func (h *Hub) syncPresence(user *entity.UserAuth) {
	h.mu.Lock()
	lock, ok := h.presence[user.UID]
	if !ok {
		lock = &sync.Mutex{}
		h.presence[user.UID] = lock
	}
	h.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	h.setPresence(user, h.Connections(user.UID) > 0)
}

func (h *Hub) setPresence(user *entity.UserAuth, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()

	var err error
	if online {
		_, err = h.chat.Enter(ctx, user)
	} else {
		err = h.chat.Leave(ctx, user.UID)
	}
	if err != nil {
		h.log.Error("update presence",
			slog.String("uid", user.UID),
			slog.Bool("online", online),
			sl.Err(err),
		)
		return
	}
	h.log.Debug("presence", slog.String("uid", user.UID), slog.Bool("online", online))
}

// Connections is the number of open connections of uid.
func (h *Hub) Connections(uid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[uid])
}
