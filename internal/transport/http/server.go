package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yochat/internal/config"
	"yochat/internal/database"
	"yochat/internal/handler"
	"yochat/internal/queue"
	"yochat/internal/realtime"
	"yochat/internal/redis"
	"yochat/internal/repository"
	"yochat/internal/service"
	"yochat/internal/worker"
)

const (
	streamMaxLen    = 10000
	shutdownTimeout = 10 * time.Second
)

// Run wires the application and serves HTTP until SIGINT or SIGTERM.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// 3. Repositories
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	postRepo := repository.NewPostRepository(db)
	savedRepo := repository.NewSavedPostRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	tokenRepo := repository.NewDeviceTokenRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	tx := repository.NewTxManager(db)

	hub := realtime.NewHub()
	go hub.Run(ctx)

	// 4. Notification delivery (optional)
	var publisher queue.Publisher
	var manager *worker.Manager
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		publisher = queue.NewPublisher(rdb.Client, streamMaxLen)

		eventHandler := worker.NewHandler(notifRepo, hub)
		if cfg.PushEnabled {
			eventHandler.SetPush(tokenRepo, service.NewExpoPushClient(), service.BuildPushMessage)
		}

		managerCfg := worker.DefaultManagerConfig()
		managerCfg.WorkerCount = cfg.WorkerCount
		manager = worker.NewManager(queue.NewConsumer(rdb.Client), eventHandler, managerCfg)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
	} else {
		log.Println("[Server] REDIS_URL not set: notifications are stored but not delivered live")
	}

	// 5. Media storage (optional)
	var media service.MediaStore
	var mediaHandler *handler.MediaHandler
	if mediaService, err := service.NewMediaService(ctx, cfg); err != nil {
		log.Printf("[Server] Media storage disabled: %v", err)
	} else {
		media = mediaService
		mediaHandler = handler.NewMediaHandler(mediaService)
	}

	// 6. Services
	userService := service.NewUserService(userRepo, friendRepo)
	authService := service.NewAuthService(refreshRepo, cfg)
	friendService := service.NewFriendService(friendRepo, userRepo, blockRepo, notifRepo, tx, publisher)
	feedService := service.NewFeedService(postRepo, savedRepo, friendRepo, notifRepo, tx, publisher)
	postService := service.NewPostService(postRepo, media)
	notifService := service.NewNotificationService(notifRepo, tokenRepo)

	router := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(userService, authService, media, cfg),
		UserHandler:         handler.NewUserHandler(userService),
		FriendHandler:       handler.NewFriendHandler(friendService),
		FeedHandler:         handler.NewFeedHandler(feedService),
		PostHandler:         handler.NewPostHandler(postService, media != nil),
		NotificationHandler: handler.NewNotificationHandler(notifService),
		MediaHandler:        mediaHandler,
		WSHandler:           handler.NewWSHandler(hub, cfg.CORSAllowedOrigins),
		JWTSecret:           cfg.JWTSecret,
		AllowedOrigins:      cfg.CORSAllowedOrigins,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Println("[Server] Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
	if manager != nil {
		manager.Stop()
	}
	log.Println("[Server] Stopped")
	return nil
}
