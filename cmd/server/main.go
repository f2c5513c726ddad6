package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/fee-ledger/internal/cache"
	"github.com/segyhp/fee-ledger/internal/config"
	"github.com/segyhp/fee-ledger/internal/handler"
	"github.com/segyhp/fee-ledger/internal/logger"
	"github.com/segyhp/fee-ledger/internal/middleware"
	"github.com/segyhp/fee-ledger/internal/repository"
	"github.com/segyhp/fee-ledger/internal/service"
	"github.com/segyhp/fee-ledger/pkg/response"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)

	if cfg.Auth.JWTSecret == "" {
		if cfg.IsProduction() {
			log.Fatal("JWT_SECRET is required in production")
		}
		if cfg.IsDevelopment() {
			log.Warn("JWT_SECRET not set, API authentication disabled")
		}
	}

	// Initialize database
	db, err := repository.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient, statementCache := initCache(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize repositories
	structureRepo := repository.NewFeeStructureRepository(db)
	statementRepo := repository.NewFeeStatementRepository(db)
	paymentRepo := repository.NewFeePaymentRepository(db)

	// Initialize service
	ledgerService := service.NewLedgerService(structureRepo, statementRepo, paymentRepo, statementCache, cfg, log)
	feeHandler := handler.NewFeeHandler(ledgerService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout, log)

	// Setup routes
	router := setupRoutes(cfg, log, feeHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

// initCache connects to Redis and falls back to a no-op cache when it is unreachable
func initCache(cfg *config.Config, log *logrus.Logger) (*redis.Client, cache.StatementCache) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Health.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable, statement cache disabled")
		_ = client.Close()
		return nil, cache.NoopStatementCache{}
	}

	return client, cache.NewRedisStatementCache(client, cfg.Business.CacheTTL)
}

func setupRoutes(cfg *config.Config, log *logrus.Logger, feeHandler *handler.FeeHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.CORSMiddleware, response.JSONMiddleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route "+r.URL.Path+" not found")
	})

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(cfg.Auth.JWTSecret, log), middleware.Logging(log))

	api.HandleFunc("/fee-structures", feeHandler.CreateStructure).Methods("POST")
	api.HandleFunc("/fee-structures", feeHandler.ListStructures).Methods("GET")
	api.HandleFunc("/fee-structures/{id}", feeHandler.GetStructure).Methods("GET")
	api.HandleFunc("/fee-structures/{id}", feeHandler.DeactivateStructure).Methods("DELETE")
	api.HandleFunc("/fee-structures/{id}/totals", feeHandler.GetStructureTotals).Methods("GET")
	api.HandleFunc("/fee-structures/{id}/items", feeHandler.AddStructureItem).Methods("POST")
	api.HandleFunc("/fee-structures/{id}/items/{itemId}", feeHandler.DeactivateStructureItem).Methods("DELETE")

	api.HandleFunc("/fee-statements", feeHandler.IssueStatement).Methods("POST")
	api.HandleFunc("/fee-statements/{number}", feeHandler.GetStatement).Methods("GET")
	api.HandleFunc("/fee-statements/{number}/recompute", feeHandler.ReconcileStatement).Methods("POST")
	api.HandleFunc("/fee-statements/{number}/payments", feeHandler.ListPayments).Methods("GET")
	api.HandleFunc("/fee-statements/{number}/payments", feeHandler.RecordPayment).Methods("POST")

	api.HandleFunc("/payments/{reference}/status", feeHandler.UpdatePaymentStatus).Methods("POST")

	api.HandleFunc("/students/{studentId}/statements", feeHandler.ListStudentStatements).Methods("GET")
	api.HandleFunc("/students/{studentId}/account", feeHandler.GetStudentAccount).Methods("GET")

	return router
}
