package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/kumarchinmay0704/lostfound/internal/cache"
	"github.com/kumarchinmay0704/lostfound/internal/config"
	"github.com/kumarchinmay0704/lostfound/internal/handler"
	"github.com/kumarchinmay0704/lostfound/internal/httpmiddleware"
	"github.com/kumarchinmay0704/lostfound/internal/lostfound"
	"github.com/kumarchinmay0704/lostfound/internal/store"
	"github.com/kumarchinmay0704/lostfound/internal/upload"
)

func main() {
	log := logrus.New()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("http server failed")
	}
}

func run(cfg config.App, log *logrus.Logger) error {
	// One pooled connection per process, opened before the listener and
	// closed on shutdown.
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	if redisClient == nil {
		log.Info("redis not configured, list cache disabled")
	}
	pages := cache.NewItemPages(redisClient, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	uploads, err := upload.NewSaver(cfg.UploadDir)
	if err != nil {
		return err
	}

	repo := lostfound.NewRepository(db)
	svc := lostfound.NewService(repo, cfg.ListDefault, cfg.ListMax)
	h := handler.New(svc, uploads, pages, log, cfg.ListDefault, cfg.ListMax)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		dbHealthy := db.Client.PingContext(ctx) == nil
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status": "ok",
			"db":     dbHealthy,
			"redis":  redisClient.Healthy(ctx),
		})
	})

	api := r.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/submit-item", h.SubmitItem)
		api.GET("/matching-items", h.MatchingItems)
		api.GET("/list-items", h.ListItems)
		api.PUT("/mark-claimed/:itemId", h.MarkClaimed)
		api.POST("/contact", h.Contact)
	}

	r.Static("/uploads", uploads.Dir())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// Give outstanding requests 10 seconds to drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("forced shutdown")
	}

	log.Info("server exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
