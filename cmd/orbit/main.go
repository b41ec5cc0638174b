package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appoutbox "orbit/internal/app/outbox"
	authsvc "orbit/internal/app/services/auth"
	"orbit/internal/app/services/messaging"
	"orbit/internal/app/services/posts"
	"orbit/internal/app/services/social"
	"orbit/internal/app/services/stories"
	domainauth "orbit/internal/domain/auth"
	domainmessage "orbit/internal/domain/message"
	domainpost "orbit/internal/domain/post"
	domainstory "orbit/internal/domain/story"
	domainuser "orbit/internal/domain/user"
	"orbit/internal/infra/broker/kafka"
	"orbit/internal/infra/config"
	mongodb "orbit/internal/infra/db/mongo"
	ginserver "orbit/internal/infra/http/gin"
	"orbit/internal/infra/obs"
	"orbit/internal/infra/outbox"
	"orbit/internal/infra/security"
	"orbit/internal/infra/storage/memory"
	"orbit/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, cleanup, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	worker   *outbox.Worker
	ready    func(ctx context.Context) error
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, func(), error) {
	var (
		users    domainuser.Repository
		messages domainmessage.Repository
		postRepo domainpost.Repository
		storyRep domainstory.Repository
		sessions domainauth.SessionStore
		box      appoutbox.Outbox
		worker   *outbox.Worker
		ready    func(ctx context.Context) error
		cleanup  = func() {}
	)

	switch cfg.StorageMode {
	case "memory":
		users = memory.NewUserRepository()
		messages = memory.NewMessageRepository()
		postRepo = memory.NewPostRepository()
		storyRep = memory.NewStoryRepository()
		sessions = memory.NewSessionStore()
		box = memory.NewOutbox()
		ready = func(context.Context) error { return nil }
	default:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, nil, err
		}
		cleanup = func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(closeCtx)
		}
		users = mongodb.NewUserRepository(client.DB)
		messages = mongodb.NewMessageRepository(client.DB)
		postRepo = mongodb.NewPostRepository(client.DB)
		storyRep = mongodb.NewStoryRepository(client.DB)
		sessions = mongodb.NewSessionStore(client.DB)
		store := outbox.NewStore(client.DB)
		box = store
		ready = client.Ping

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				logger.Warn("kafka producer unavailable, events stay queued", "error", err)
			} else {
				prev := cleanup
				cleanup = func() {
					_ = producer.Close()
					prev()
				}
				worker = &outbox.Worker{
					Store:       store,
					Producer:    producer,
					Interval:    cfg.OutboxPollInterval,
					TopicPrefix: cfg.KafkaTopicPrefix,
					Backoff:     cfg.RetryBackoff,
				}
			}
		}
	}

	var provider authsvc.ProviderVerifier
	if cfg.ProviderJWTSecret != "" {
		verifier, err := security.NewJWTProviderVerifier(cfg.ProviderJWTSecret, cfg.ProviderIssuer)
		if err != nil {
			return application{}, nil, err
		}
		provider = verifier
	} else {
		logger.Warn("PROVIDER_JWT_SECRET not set, provider sync disabled")
	}

	encoder := appoutbox.JSONEventEncoder{}
	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		Provider:   provider,
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	socialService := &social.Service{Users: users, Outbox: box, Encoder: encoder, Logger: logger}
	messagingService := &messaging.Service{Messages: messages, Users: users, Outbox: box, Encoder: encoder, Logger: logger}
	postService := &posts.Service{Posts: postRepo, Users: users, Outbox: box, Encoder: encoder, Logger: logger}
	storyService := &stories.Service{Stories: storyRep, Users: users, TTL: cfg.StoryTTL, Logger: logger}

	var uploader s3.Uploader
	client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
	if err != nil {
		logger.Warn("s3 uploader unavailable", "error", err)
		uploader = s3.NoopUploader{}
	} else {
		uploader = client
	}

	handlers := ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Social: socialService, Logger: logger},
		Users:          ginserver.UserHandler{Service: socialService, Logger: logger},
		Messages:       ginserver.MessageHandler{Service: messagingService, Logger: logger},
		Posts:          ginserver.PostHandler{Service: postService, Logger: logger},
		Stories:        ginserver.StoryHandler{Service: storyService, Logger: logger},
		Uploads:        ginserver.UploadHandler{Uploader: uploader, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}

	return application{handlers: handlers, worker: worker, ready: ready}, cleanup, nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
