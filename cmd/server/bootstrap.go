package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"

	"github.com/wedfulapp/wedful-notify/internal/api"
	"github.com/wedfulapp/wedful-notify/internal/app"
	"github.com/wedfulapp/wedful-notify/internal/database"
	"github.com/wedfulapp/wedful-notify/internal/directory"
	"github.com/wedfulapp/wedful-notify/internal/notify"
	"github.com/wedfulapp/wedful-notify/internal/push"
	"github.com/wedfulapp/wedful-notify/internal/services"
	"github.com/wedfulapp/wedful-notify/internal/sweep"
	"github.com/wedfulapp/wedful-notify/pkg/logger"
)

// runtimeStack bundles long-lived components used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Push       *push.Service
	Dispatcher *notify.Dispatcher
	Sweeper    *sweep.Sweeper
	Router     *gin.Engine
}

// bootstrapRuntime initialises the database, services, background sweeps, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Push, err = push.NewService(stack.DB, push.Config{
		VAPIDPublicKey:  strings.TrimSpace(cfg.Push.VAPIDPublicKey),
		VAPIDPrivateKey: strings.TrimSpace(cfg.Push.VAPIDPrivateKey),
		Subscriber:      strings.TrimSpace(cfg.Push.Subscriber),
		SendTimeout:     cfg.Push.SendTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise push service: %w", err)
	}
	if !stack.Push.Configured() {
		log.Warn("vapid keys absent; push delivery disabled")
	}

	notificationSvc, err := services.NewNotificationService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise notification service: %w", err)
	}

	preferenceSvc, err := services.NewPreferenceService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise preference service: %w", err)
	}

	directorySvc, err := directory.NewService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise directory service: %w", err)
	}

	stack.Dispatcher, err = notify.NewDispatcher(notificationSvc, preferenceSvc, stack.Push, directorySvc)
	if err != nil {
		return nil, fmt.Errorf("initialise dispatcher: %w", err)
	}

	if cfg.Sweep.Enabled {
		stack.Sweeper, err = sweep.NewSweeper(stack.Dispatcher, notificationSvc, directorySvc,
			sweep.WithSchedules(cfg.Sweep.MilestoneSchedule, cfg.Sweep.DigestSchedule, cfg.Sweep.BudgetSchedule, cfg.Sweep.ChecklistSchedule),
		)
		if err != nil {
			return nil, fmt.Errorf("initialise sweeper: %w", err)
		}
		if err := stack.Sweeper.Start(); err != nil {
			return nil, fmt.Errorf("start sweep jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(stack.DB, stack.Push, stack.Dispatcher, cfg)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Sweeper != nil {
		stopCtx := s.Sweeper.Stop()
		if stopCtx != nil {
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
		}
	}

	if s.Dispatcher != nil {
		s.Dispatcher.Close()
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.DatabaseOptions()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
