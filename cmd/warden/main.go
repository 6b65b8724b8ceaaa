package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warden/internal/analytics"
	"warden/internal/bot"
	"warden/internal/cases"
	"warden/internal/config"
	"warden/internal/engine"
	"warden/internal/modules/spam"
	"warden/internal/platform"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	persister, closePersister, err := buildPersister(cfg)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer closePersister()

	store, err := cases.New(context.Background(), persister, logger)
	if err != nil {
		logger.Fatal("store load failed", zap.Error(err))
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Fatal("session init failed", zap.Error(err))
	}

	watcher := config.NewWatcher(cfg)
	detector := spam.New(cfg.Moderation.Spam)
	eng := engine.New(watcher, store, detector, platform.NewDiscord(session), logger)
	analyticsService := analytics.New(store)

	botSvc := bot.New(watcher, logger, eng, analyticsService, session)
	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr}
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)
	go func() {
		for range reloadCh {
			if err := watcher.Reload(); err != nil {
				logger.Error("config reload failed", zap.Error(err))
				continue
			}
			logger.Info("config reloaded")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	botSvc.Close(ctx)
}

func buildPersister(cfg config.Config) (cases.Persister, func(), error) {
	switch cfg.StoreDriver {
	case "file":
		return cases.NewFilePersister(cfg.StorePath), func() {}, nil
	default:
		persister, err := cases.NewSQLitePersister(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return persister, persister.Close, nil
	}
}
