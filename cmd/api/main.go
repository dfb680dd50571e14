package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"yatube/internal/config"
	"yatube/internal/pkg"
	"yatube/internal/repository/rdb"
	"yatube/internal/repository/redis"
	"yatube/internal/router"
	"yatube/internal/service"
	"yatube/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	appLog := pkg.InitLogger(cfg.Env)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}
	db, err := rdb.Open(rdb.Options{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DBDSN,
		MaxIdle:  cfg.DBMaxIdle,
		MaxOpen:  cfg.DBMaxOpen,
		LogLevel: level,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer rdb.Close(db)

	var (
		tokens service.TokenStore
		counts service.CountCache
	)
	if cfg.RedisAddr != "" {
		if err := redis.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		defer redis.Close()
		tokens = redis.NewSessionRepository(cfg.TokenTTL)
		counts = redis.NewPostCountRepository()
	} else {
		log.Warn().Msg("REDIS_ADDR not set, sessions are not revocable and post counts are not cached")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender := service.LogSender
	if len(cfg.KafkaBrokers) > 0 {
		producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}
	go service.NewOutboxRelayer(db, sender).Run(ctx)

	userOpts := []service.UserOption{service.WithCountCache(counts)}
	if cfg.SMTP.Enabled() {
		userOpts = append(userOpts, service.WithMailer(service.SMTPMailer(cfg.SMTP), cfg.SiteURL))
	}

	renderer, err := web.NewRenderer(cfg.MediaURL)
	if err != nil {
		log.Fatal().Err(err).Msg("parse templates")
	}

	r := router.InitRouter(router.Options{
		DB:             db,
		Posts:          service.NewPostService(db, counts),
		Groups:         service.NewGroupService(db, counts),
		Users:          service.NewUserService(db, tokens, pkg.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL), userOpts...),
		Images:         pkg.NewImageStore(cfg.MediaDir, cfg.MediaURL, cfg.ImageMaxWidth),
		Renderer:       renderer,
		Logger:         appLog,
		SessionSecret:  cfg.SessionSecret,
		SecureCookie:   !cfg.IsDevelopment(),
		TokenMaxAge:    int(cfg.TokenTTL / time.Second),
		MediaDir:       cfg.MediaDir,
		MediaURL:       cfg.MediaURL,
		CORSOrigins:    cfg.CORSOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
		LoginRateBurst: cfg.LoginRateBurst,
		MaxBodyBytes:   cfg.UploadMaxBytes,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
		os.Exit(1)
	}
}
