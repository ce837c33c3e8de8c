package main

import (
	"WeChat/bot"
	"WeChat/impl/core"
	"WeChat/internal/config"
	"WeChat/internal/database"
	"WeChat/internal/database/memory"
	"WeChat/internal/firebase"
	"WeChat/internal/http-server/api"
	"WeChat/internal/lib/logger"
	"WeChat/internal/lib/sl"
	"WeChat/internal/service/auth"
	"WeChat/internal/service/chat"
	"WeChat/internal/view"
	"WeChat/internal/ws"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

type closer interface {
	Close(ctx context.Context) error
}

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	envPath := flag.String("env", ".env", "optional file with environment overrides")
	flag.Parse()

	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load(*envPath)

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			// the bot keeps the plain logger so failed alerts do not loop
			go func() {
				if err := tgBot.Start(ctx); err != nil {
					lg.Error("telegram bot error", sl.Err(err))
				}
			}()
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.Info("telegram bot initialized", slog.Int64("admin_id", conf.Telegram.AdminId))
		}
	}

	lg.Info("starting wechat",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("backend", conf.Backend),
	)
	lg.Debug("debug messages enabled")

	store, err := openStore(ctx, conf, lg)
	if err != nil {
		lg.Error("document store", sl.Err(err))
		os.Exit(1)
	}
	if c, ok := store.(closer); ok {
		defer func() {
			if err := c.Close(context.Background()); err != nil {
				lg.Error("close document store", sl.Err(err))
			}
		}()
	}

	identity, err := firebase.NewIdentity(ctx, conf, lg)
	if err != nil {
		lg.Error("identity provider", sl.Err(err))
		os.Exit(1)
	}
	lg.With(
		slog.String("project", conf.Firebase.ProjectID),
		sl.Secret("api_key", conf.Firebase.ApiKey),
		slog.String("emulator", conf.Firebase.AuthEmulatorHost),
	).Info("identity provider initialized")

	authService := auth.NewAuthService(lg, auth.NewSessions(conf.Session.Secret, conf.Session.TTL))
	authService.SetProvider(identity)
	authService.SetRepository(store)

	chatService := chat.NewChatService(lg, store)

	pages, err := view.New()
	if err != nil {
		lg.Error("templates", sl.Err(err))
		os.Exit(1)
	}

	handler := core.New(lg)
	handler.SetAuthService(authService)
	handler.SetChatService(chatService)
	handler.SetView(pages)

	hub := ws.NewHub(lg, chatService, pages)
	go hub.Run(ctx)

	// *** blocking start with http server ***
	err = api.New(ctx, conf, lg, handler, ws.ServeWs(hub, handler, lg))
	if err != nil {
		lg.Error("server stopped with error", sl.Err(err))
		return
	}
	lg.Info("server stopped")
}

// openStore connects the document store chosen by conf.Backend.
func openStore(ctx context.Context, conf *config.Config, lg *slog.Logger) (chat.Repository, error) {
	switch conf.Backend {
	case config.BackendMemory:
		lg.Warn("using the in-memory store, data is lost on restart")
		return memory.New(), nil

	case config.BackendMongo:
		db, err := repository.NewMongoClient(conf, lg)
		if err != nil {
			return nil, fmt.Errorf("mongo client: %w", err)
		}
		if err = db.EnsureIndexes(); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
		return db, nil

	default:
		store, err := firebase.NewStore(ctx, conf, lg)
		if err != nil {
			return nil, err
		}
		lg.Info("firestore client initialized", slog.String("project", conf.Firebase.ProjectID))
		return store, nil
	}
}
