package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/pulse/config"
	"github.com/d60-Lab/pulse/internal/api/handler"
	"github.com/d60-Lab/pulse/internal/api/router"
	"github.com/d60-Lab/pulse/internal/identity"
	"github.com/d60-Lab/pulse/internal/imagestore"
	"github.com/d60-Lab/pulse/internal/observability"
	"github.com/d60-Lab/pulse/internal/repository"
	"github.com/d60-Lab/pulse/internal/service"
	"github.com/d60-Lab/pulse/pkg/database"
	"github.com/d60-Lab/pulse/pkg/logger"
)

// NewServeCommand starts the HTTP API.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		return err
	}
	defer logger.Sync()

	flushSentry, err := observability.InitSentry(cfg.Sentry, cfg.Server.Mode)
	if err != nil {
		return err
	}
	defer flushSentry()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, "pulse")
	if err != nil {
		return err
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	images, err := buildImageStore(cfg)
	if err != nil {
		return err
	}
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	h := handler.New(
		service.NewUserService(userRepo, followRepo, fanRepo, provider, images),
		service.NewRelationshipService(db, userRepo, followRepo, fanRepo),
		service.NewEngagementService(db, userRepo, postRepo, likeRepo),
		service.NewContentService(db, userRepo, postRepo, commentRepo, likeRepo, images),
		service.NewNotificationService(notificationRepo, userRepo, postRepo, commentRepo),
	)

	engine := router.New(cfg, h, provider, rdb)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", zap.Int("port", cfg.Server.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-notifyCtx.Done():
	}

	logger.Info("api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return shutdownTracing(shutdownCtx)
}

func buildProvider(cfg *config.Config) (identity.Provider, error) {
	switch cfg.Identity.Driver {
	case "jwt":
		return identity.NewJWTProvider(
			cfg.Identity.PublicKey,
			cfg.Identity.Issuer,
			cfg.Identity.APIBase,
			cfg.Identity.SecretKey,
		)
	case "static":
		logger.Warn("using static identity provider; tokens are trusted verbatim")
		return identity.NewStaticProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported identity driver %q", cfg.Identity.Driver)
	}
}

func buildImageStore(cfg *config.Config) (imagestore.Store, error) {
	switch cfg.ImageStore.Driver {
	case "s3":
		return imagestore.NewS3Store(cfg.ImageStore.Region, cfg.ImageStore.Bucket, cfg.ImageStore.CDNPrefix)
	case "memory":
		logger.Warn("using in-memory image store; uploads will not survive restarts")
		return imagestore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported image store driver %q", cfg.ImageStore.Driver)
	}
}
