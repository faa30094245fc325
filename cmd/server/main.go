package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/stock247/lending-engine/internal/config"
	"github.com/stock247/lending-engine/internal/gateway"
	"github.com/stock247/lending-engine/internal/handler"
	"github.com/stock247/lending-engine/internal/notify"
	"github.com/stock247/lending-engine/internal/repository"
	"github.com/stock247/lending-engine/internal/risk"
	"github.com/stock247/lending-engine/internal/service"
	"github.com/stock247/lending-engine/pkg/response"
)

func main() {
	// Load .env first so viper sees the variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Repositories
	loanRepo := repository.NewLoanRepository(db)
	disbursementRepo := repository.NewDisbursementRepository(db)
	repaymentRepo := repository.NewRepaymentRepository(db)
	riskRepo := repository.NewRiskRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// External adapters
	var pushGateway service.PushGateway
	if cfg.GatewayConfigured() {
		pushGateway = gateway.NewClient(cfg.Mpesa)
		log.Println("Payment gateway configured, STK push enabled")
	} else {
		log.Println("Payment gateway credentials absent, running repayments in demo mode")
	}
	smsSender := notify.NewSMSClient(cfg.SMS)
	riskClient := risk.NewClient(cfg.Risk)

	// Services
	settlementService := service.NewSettlementService(repaymentRepo, loanRepo, disbursementRepo, auditRepo, pushGateway, smsSender, redisClient, cfg)
	loanService := service.NewLoanService(loanRepo, disbursementRepo, repaymentRepo, auditRepo, cfg)
	riskService := service.NewRiskService(loanRepo, riskRepo, auditRepo, riskClient)

	// Handlers
	settlementHandler := handler.NewSettlementHandler(settlementService)
	loanHandler := handler.NewLoanHandler(loanService, riskService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	router := setupRoutes(settlementHandler, loanHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(settlementHandler *handler.SettlementHandler, loanHandler *handler.LoanHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.CORSMiddleware)
	router.Use(response.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/repayments", settlementHandler.InitiateRepayment).Methods("POST")
	api.HandleFunc("/payments/callback", settlementHandler.PaymentCallback).Methods("POST")

	api.HandleFunc("/loans", loanHandler.CreateApplication).Methods("POST")
	api.HandleFunc("/loans", loanHandler.ListApplications).Methods("GET")
	api.HandleFunc("/loans/{loanId}", loanHandler.GetApplication).Methods("GET")
	api.HandleFunc("/loans/{loanId}/approve", loanHandler.Approve).Methods("POST")
	api.HandleFunc("/loans/{loanId}/reject", loanHandler.Reject).Methods("POST")
	api.HandleFunc("/loans/{loanId}/disburse", loanHandler.Disburse).Methods("POST")
	api.HandleFunc("/loans/{loanId}/outstanding", loanHandler.Outstanding).Methods("GET")
	api.HandleFunc("/loans/{loanId}/risk", loanHandler.AssessRisk).Methods("POST")

	return router
}
