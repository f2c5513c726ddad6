package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/fee-ledger/internal/cache"
	"github.com/segyhp/fee-ledger/internal/config"
	"github.com/segyhp/fee-ledger/internal/logger"
	"github.com/segyhp/fee-ledger/internal/notify"
	"github.com/segyhp/fee-ledger/internal/repository"
	"github.com/segyhp/fee-ledger/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds one run of a scheduled job
const jobTimeout = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)
	log.Info("Starting fee ledger scheduler...")

	db, err := repository.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// The scheduler only invalidates cached statements it reconciles
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var statementCache cache.StatementCache = cache.NewRedisStatementCache(redisClient, cfg.Business.CacheTTL)
	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Health.Timeout)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable, cache invalidation disabled")
		statementCache = cache.NoopStatementCache{}
	}
	cancel()

	ledgerService := service.NewLedgerService(
		repository.NewFeeStructureRepository(db),
		repository.NewFeeStatementRepository(db),
		repository.NewFeePaymentRepository(db),
		statementCache,
		cfg,
		log,
	)

	// Initialize cron scheduler
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.Recover(cron.PrintfLogger(log))),
	)

	// Schedule tasks
	if err := setupCronJobs(c, cfg, ledgerService, log); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	// Start the scheduler
	c.Start()
	log.Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, ledgerService *service.LedgerService, log *logrus.Logger) error {
	// Mark past-due statements overdue
	_, err := c.AddFunc(cfg.Scheduler.OverdueSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		log.Info("Running overdue statement refresh job...")
		if _, err := ledgerService.RefreshOverdue(ctx); err != nil {
			log.WithError(err).Error("Overdue statement refresh finished with errors")
		}
	})
	if err != nil {
		return err
	}

	if !cfg.SMTP.Enabled() {
		log.Warn("SMTP not configured, fee reminders disabled")
		return nil
	}

	sender := notify.NewSender(cfg.SMTP, cfg.Business.Currency, log)
	_, err = c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		log.Info("Running fee reminder job...")
		if _, err := ledgerService.SendReminders(ctx, sender); err != nil {
			log.WithError(err).Error("Fee reminder job finished with errors")
		}
	})
	if err != nil {
		return err
	}

	log.Info("Cron jobs scheduled successfully")
	return nil
}
