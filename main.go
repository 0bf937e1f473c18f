package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"selfiebox/config"
	"selfiebox/controller"
	"selfiebox/database"
	"selfiebox/logger"
	"selfiebox/middlewares"
	"selfiebox/route"
	"selfiebox/storage"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if !dotenv {
		log.Info("No .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, uploadDir, err := newBlobStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialise blob store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}

	// The diary stays unavailable for the life of the process if Mongo is
	// not reachable now.
	client, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout, log)
	if err != nil {
		log.Error("Diary disabled: failed to connect to MongoDB", zap.Error(err))
	}
	diary := database.NewDiaryStore(client, cfg.Mongo.Database, log)
	if client != nil {
		idxCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
		if err := diary.EnsureIndexes(idxCtx); err != nil {
			log.Warn("Failed to create diary index", zap.Error(err))
		}
		cancel()
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(log))
	router.Use(cors.New(corsConfig(cfg.HTTP.CORSOrigins)))
	if cfg.HTTP.RateLimit > 0 {
		router.Use(middlewares.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateWindow).Middleware())
	}

	route.Register(router, route.Controllers{
		Selfies: controller.NewSelfieController(blobs, controller.SelfieOptions{
			Folder:         cfg.Storage.Folder,
			MaxSize:        cfg.Upload.MaxSize,
			AllowedTypes:   cfg.Upload.AllowedTypes,
			ListLimit:      cfg.Upload.ListLimit,
			LenientListing: cfg.Upload.LenientListing,
			Timeout:        cfg.Mongo.Timeout,
		}, log),
		Diary: controller.NewDiaryController(diary, cfg.Diary.Location, cfg.Mongo.Timeout, log),
	}, route.StaticOptions{
		PublicDir: cfg.PublicDir,
		UploadDir: uploadDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Info("Server running",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Backend),
			zap.Bool("diary", client != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := diary.Close(shutdownCtx); err != nil {
		log.Error("Mongo disconnect error", zap.Error(err))
	}

	log.Info("Server exited")
}

// newBlobStore builds the configured backend. The returned directory is
// non-empty only for local storage, which the router then serves.
func newBlobStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.BlobStore, string, error) {
	sc := cfg.Storage
	switch sc.Backend {
	case storage.BackendS3:
		s, err := storage.NewS3Store(ctx, storage.S3Options{
			Region:          sc.AWSRegion,
			Bucket:          sc.Bucket,
			Endpoint:        sc.S3Endpoint,
			AccessKeyID:     sc.AccessKeyID,
			SecretAccessKey: sc.SecretAccessKey,
			PresignTTL:      sc.PresignTTL,
		}, log)
		return s, "", err
	case storage.BackendMinio:
		s, err := storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:   sc.MinioEndpoint,
			AccessKey:  sc.MinioAccessKey,
			SecretKey:  sc.MinioSecretKey,
			Bucket:     sc.MinioBucket,
			UseSSL:     sc.MinioUseSSL,
			PublicBase: sc.MinioPublicBase,
		}, log)
		return s, "", err
	default:
		s, err := storage.NewLocalStore(sc.UploadDir, sc.PublicBaseURL, log)
		if err != nil {
			return nil, "", err
		}
		return s, s.Dir(), nil
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
