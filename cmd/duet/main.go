package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/duetchat/duet/adapters/chat"
	"github.com/duetchat/duet/adapters/events"
	"github.com/duetchat/duet/adapters/identity"
	"github.com/duetchat/duet/adapters/mailer"
	"github.com/duetchat/duet/adapters/store"
	"github.com/duetchat/duet/adapters/tokenizer"
	"github.com/duetchat/duet/config"
	"github.com/duetchat/duet/realtime"
	"github.com/duetchat/duet/service"
	duethttp "github.com/duetchat/duet/transport/http"
	"github.com/duetchat/duet/transport/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis client for the expiring store and the event stream.
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Error("main.redis_url", "err", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("main.redis_ping", "err", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Postgres pool for identities, messages and connections.
	pool, err := pgxpool.New(ctx, cfg.DB.URL)
	if err != nil {
		log.Error("main.db_connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Watermill Redis publisher for session lifecycle events.
	wmLogger := watermill.NewSlogLogger(log)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		wmLogger,
	)
	if err != nil {
		log.Error("main.publisher", "err", err)
		os.Exit(1)
	}
	eventPub := events.NewWatermillPublisher(publisher)

	expStore := store.NewRedisStore(redisClient, "duet:")
	tok := tokenizer.NewJWTTokenizer([]byte(cfg.Auth.AccessSecret), []byte(cfg.Auth.RefreshSecret))
	identities := identity.NewPostgresStore(pool)
	messages := chat.NewPostgresMessageStore(pool)
	connections := chat.NewPostgresConnectionStore(pool)

	tokens := service.NewTokenService(tok, expStore, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	challenges := service.NewChallengeService(expStore)
	auth := service.NewAuthService(identities, tokens, challenges,
		mailer.NewLogMailer(log), eventPub, cfg.Auth.Pepper, log)

	registry := realtime.NewRegistry(log, tokens, eventPub)
	router := realtime.NewRouter(log, registry)
	gateway := ws.NewGateway(log, registry)

	authHandlers := duethttp.NewAuthHandlers(auth, cfg.Auth.RefreshTTL, cfg.Env != "local")
	chatHandlers := duethttp.NewChatHandlers(identities, messages, connections, router)

	engine := duethttp.SetupRouter(authHandlers, chatHandlers, tokens, gateway)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: engine,
	}

	go func() {
		log.Info("main.listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("main.serve", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("main.shutdown", "err", err)
	}
	log.Info("main.stopped")
}
