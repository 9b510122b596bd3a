package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/visweshnarni/qptestbackend/config"
	"github.com/visweshnarni/qptestbackend/internal/api/handler"
	"github.com/visweshnarni/qptestbackend/internal/api/router"
	"github.com/visweshnarni/qptestbackend/internal/repository"
	"github.com/visweshnarni/qptestbackend/internal/service"
	"github.com/visweshnarni/qptestbackend/pkg/cloudinary"
	"github.com/visweshnarni/qptestbackend/pkg/database"
	"github.com/visweshnarni/qptestbackend/pkg/jwt"
	applogger "github.com/visweshnarni/qptestbackend/pkg/logger"
	"github.com/visweshnarni/qptestbackend/pkg/mailer"
	"github.com/visweshnarni/qptestbackend/pkg/redis"
	"github.com/visweshnarni/qptestbackend/pkg/scheduler"
	"github.com/visweshnarni/qptestbackend/pkg/voice"
)

func main() {
	// 1. configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	// 2. logging
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. institution timezone (validated at config load)
	location, err := time.LoadLocation(cfg.Outpass.Timezone)
	if err != nil {
		logger.Fatal("load timezone failed", zap.Error(err))
	}

	// 4. database + migrations
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get underlying sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 5. redis (optional: degrade instead of refusing to start)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, token revocation and notification de-duplication disabled", zap.Error(err))
		rdb = nil
	}

	// 6. outbound channels
	jwtMgr := jwt.NewManager(&cfg.Auth)
	mailSender := mailer.New(&cfg.Mail)
	voiceCaller := voice.New(&cfg.Voice)
	uploader := cloudinary.New(&cfg.Storage)

	// 7. dependency wiring: repository → service → handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, mailSender, voiceCaller, uploader, location, logger)
	h := handler.NewHandler(svc)

	// 8. background jobs
	sched := scheduler.NewCronScheduler(logger)
	if err := svc.Escalation.RegisterJobs(sched); err != nil {
		logger.Fatal("register jobs failed", zap.Error(err))
	}
	sched.Start()

	// 9. HTTP server with graceful shutdown
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	sched.Stop()

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}
