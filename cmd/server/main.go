// Package main runs the live polling HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/classpulse/livepoll/config"
	"github.com/classpulse/livepoll/internal/middleware"
	"github.com/classpulse/livepoll/internal/models"
	"github.com/classpulse/livepoll/internal/polls"
	"github.com/classpulse/livepoll/internal/realtime"
	"github.com/classpulse/livepoll/internal/session"
	"github.com/classpulse/livepoll/pkg/database"
	"github.com/classpulse/livepoll/pkg/redis"
	"github.com/classpulse/livepoll/pkg/response"
	"github.com/classpulse/livepoll/pkg/storage"
)

func main() {
	logger, level := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		logger.Warn("invalid LOG_LEVEL, keeping info", zap.String("level", cfg.Log.Level))
	}

	ctx := context.Background()

	// Poll history: Postgres when configured, otherwise in process.
	var store polls.Store = polls.NewMemoryStore()
	if cfg.Database.URL != "" {
		pool, err := database.NewPostgresPool(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		store = polls.NewRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, poll history is kept in memory")
	}

	var cache polls.HistoryCache
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
		if err != nil {
			logger.Warn("redis disabled, history reads go to the store", zap.Error(err))
		} else {
			defer rdb.Close()
			cache = polls.NewRedisHistoryCache(rdb.Client, time.Duration(cfg.Redis.HistoryCacheTTL)*time.Second)
		}
	}

	history := polls.NewHistory(store, cache, logger.Named("history"))
	recorder := polls.NewRecorder(store, time.Duration(cfg.Poll.PersistTimeout)*time.Second, logger.Named("recorder"))
	recorder.SetHistory(history)

	if cfg.AWS.ArchiveEnabled() {
		archive, err := storage.NewS3Archive(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.ArchiveBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 archive disabled", zap.Error(err))
		} else {
			recorder.SetArchiver(polls.NewObjectArchive(archive))
		}
	}

	hub := realtime.NewHub(logger.Named("hub"))
	sess := session.New(hub, recorder, session.Config{
		TickInterval:    time.Second,
		Retention:       time.Duration(cfg.Poll.RetentionSec) * time.Second,
		ChatMaxMessages: cfg.Chat.MaxMessages,
	}, logger.Named("session"))

	sessionCtx, sessionCancel := context.WithCancel(context.Background())
	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		sess.Run(sessionCtx)
	}()

	historyHandler := polls.NewHandler(history, cfg.Poll.HistoryLimit, config.MaxHistoryLimit(), logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{
			"status":      "ok",
			"connections": hub.Count(),
			"teachers":    hub.RoomCount(string(models.RoleTeacher)),
			"students":    hub.RoomCount(string(models.RoleStudent)),
		}, "")
	})
	router.GET("/api/polls/history", historyHandler.ListHistory)
	router.GET("/ws", realtime.ServeWs(hub, sess, realtime.NewUpgrader(cfg.Server.AllowedOrigins), logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.Strings("allowed_origins", cfg.Server.AllowedOrigins))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sessionCancel()
	<-sessionDone
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	recorder.Wait()
	logger.Info("server stopped")
}

func newLogger() (*zap.Logger, zap.AtomicLevel) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger, config.Level
}
