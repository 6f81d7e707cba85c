package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"custodial-wallet-service/config"
	"custodial-wallet-service/internal/adapter/chain/ethereum"
	httpHandler "custodial-wallet-service/internal/adapter/http/handler"
	"custodial-wallet-service/internal/adapter/secrets"
	pgStorage "custodial-wallet-service/internal/adapter/storage/postgres"
	redisStorage "custodial-wallet-service/internal/adapter/storage/redis"
	"custodial-wallet-service/internal/core/ports"
	"custodial-wallet-service/internal/service"
	"custodial-wallet-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Custodial Wallet Service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize master key and key custody
	secretStore := secrets.NewFileStore(cfg.Keystore.KeyFile)
	masterKey, err := service.LoadOrCreateMasterKey(ctx, secretStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load master key")
	}
	encKey, err := service.DeriveEncryptionKey(masterKey)
	service.Zero(masterKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to derive encryption key")
	}
	encSvc, err := service.NewAESEncryptionService(encKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	keyStore := service.NewEthereumKeyStore(encSvc)

	// Initialize chain gateway and verify node connectivity
	gateway, err := ethereum.NewGateway(ctx, cfg.Chain, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Ethereum node")
	}
	if err := gateway.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Ethereum node unreachable")
	}
	log.Info().Str("rpc_url", cfg.Chain.RPCURL).Msg("Ethereum node connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)

	// Initialize Redis stores
	balanceCache := redisStorage.NewBalanceCache(rdb)

	// Initialize business services
	auditSvc := service.NewAuditService(auditRepo, log)
	signer := service.NewEthereumTxSigner(gateway, keyStore)
	walletSvc := service.NewWalletService(
		walletRepo,
		txRepo,
		keyStore,
		gateway,
		signer,
		balanceCache,
		auditSvc,
		cfg.Redis.BalanceTTL,
		log,
	)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth, gateway},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
