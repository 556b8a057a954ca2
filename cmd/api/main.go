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
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-booking/internal/db"
	"github.com/BruksfildServices01/barber-booking/internal/events"
	"github.com/BruksfildServices01/barber-booking/internal/feed"
	"github.com/BruksfildServices01/barber-booking/internal/infra/broadcast"
	infraRepo "github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/realtime"
	"github.com/BruksfildServices01/barber-booking/internal/routes"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
	"github.com/BruksfildServices01/barber-booking/internal/usecase/breaks"
)

func main() {

	cfg := config.Load()

	log, err := logger.New(cfg.LogPath, cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	timezone.SetDefault(cfg.DefaultTimezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ======================================================
	// 🗄️ STORE + CHANGE FEED
	// ======================================================
	db := dbpkg.NewDB(cfg, log)
	hub := feed.NewHub()
	repo := infraRepo.NewAppointmentGormRepository(db, hub)

	if cfg.FeedPGListen {
		pool, err := infraRepo.OpenPool(ctx, cfg.DBUrl)
		if err != nil {
			log.Warn("change listener disabled, only local writes reach the feed", zap.Error(err))
		} else {
			defer pool.Close()
			listener := infraRepo.NewChangeListener(pool, dbpkg.ChangeChannel, hub, log)
			go listener.Run(ctx)
		}
	}

	// ======================================================
	// 📡 BREAK CHANNEL (redis, memory fallback)
	// ======================================================
	var channel broadcast.Channel
	if rdb := broadcast.NewRedisClient(cfg.Redis); rdb != nil {
		r := broadcast.NewRedis(rdb, log)
		defer func() {
			_ = r.Close()
			_ = rdb.Close()
		}()
		channel = r
		log.Info("break channel on redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		channel = broadcast.NewMemory()
		log.Warn("redis unreachable, break channel is process-local", zap.String("addr", cfg.Redis.Addr))
	}

	// ======================================================
	// 📨 EVENTS + AUDIT
	// ======================================================
	var publisher events.Publisher = events.Noop{}
	if cfg.AMQP.URL != "" {
		amqpPub := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, log)
		defer amqpPub.Close()
		publisher = amqpPub
	}

	auditDispatcher := audit.NewDispatcher(audit.NewGormWriter(db), log)
	defer auditDispatcher.Close()

	// ======================================================
	// ☕ BREAKS
	// ======================================================
	coordinator := breaks.NewCoordinator(channel, repo, breaks.Options{
		SelfApproval: cfg.Breaks.SelfApproval,
		AckDelay:     cfg.Breaks.AckDelay,
	}, auditDispatcher, publisher, log)
	defer coordinator.Close()

	surfaces := realtime.NewHub(log)

	// ======================================================
	// 🌐 HTTP
	// ======================================================
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	routes.RegisterRoutes(r, routes.Deps{
		DB:       db,
		Config:   cfg,
		Log:      log,
		Repo:     repo,
		Feed:     hub,
		Audit:    auditDispatcher,
		Events:   publisher,
		Breaks:   coordinator,
		Watcher:  breaks.NewWatcher(channel, cfg.Breaks.PollInterval),
		Surfaces: surfaces,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	surfaces.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}
