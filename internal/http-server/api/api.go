package api

import (
	"WeChat/internal/config"
	"WeChat/internal/http-server/handlers/account"
	"WeChat/internal/http-server/handlers/conversation"
	"WeChat/internal/http-server/handlers/errors"
	"WeChat/internal/http-server/handlers/user"
	"WeChat/internal/http-server/handlers/web"
	"WeChat/internal/http-server/middleware/authenticate"
	"WeChat/internal/http-server/middleware/timeout"
	"WeChat/internal/lib/api/cookie"
	"WeChat/internal/lib/sl"
	"context"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const requestTimeout = 15

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	account.Core
	user.Core
	conversation.Core
	web.Core
}

// NewRouter wires the screens, the websocket endpoint and the JSON API.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, socket http.Handler) http.Handler {
	settings := cookie.Settings{
		Name:   conf.Session.CookieName,
		TTL:    conf.Session.TTL,
		Secure: conf.Session.Secure,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(authenticate.New(log, handler, settings.Name))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Group(func(r chi.Router) {
		r.Use(timeout.Timeout(requestTimeout))
		r.Get("/", web.AuthPage(log, handler))
		r.Post("/login", web.Login(log, handler, settings))
		r.Post("/register", web.Register(log, handler, settings))
		r.Post("/logout", web.Logout(log, handler, settings))
		r.Get("/chat", web.ChatPage(log, handler))
	})

	// long lived, no request timeout
	router.Handle("/ws", socket)

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(timeout.Timeout(requestTimeout))
		v1.Use(render.SetContentType(render.ContentTypeJSON))

		v1.Route("/auth", func(r chi.Router) {
			r.Post("/login", account.Login(log, handler, settings))
			r.Post("/register", account.Register(log, handler, settings))
			r.With(authenticate.Required).Get("/session", account.GetSession(log, handler))
			r.With(authenticate.Required).Post("/logout", account.Logout(log, handler, settings))
		})
		v1.Group(func(r chi.Router) {
			r.Use(authenticate.Required)
			r.Get("/users", user.ListUsers(log, handler))
			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", conversation.Open(log, handler))
				r.Get("/{id}/messages", conversation.ListMessages(log, handler))
				r.Post("/{id}/messages", conversation.SendMessage(log, handler))
			})
		})
	})

	return router
}

// New serves until ctx is done, then shuts the server down.
func New(ctx context.Context, conf *config.Config, log *slog.Logger, handler Handler, socket http.Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:           NewRouter(conf, log, handler, socket),
		ErrorLog:          httpLog,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.httpServer.Shutdown(shutdownCtx); err != nil {
			server.log.Error("shutdown", sl.Err(err))
		}
	}()

	server.log.Info("starting api server", slog.String("address", serverAddress))

	err = server.httpServer.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
