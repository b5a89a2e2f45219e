package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ccip-relay.backend/internal/config"
	domainrepos "ccip-relay.backend/internal/domain/repositories"
	"ccip-relay.backend/internal/infrastructure/blockchain"
	"ccip-relay.backend/internal/infrastructure/datasources/postgres"
	"ccip-relay.backend/internal/infrastructure/jobs"
	"ccip-relay.backend/internal/infrastructure/registry"
	"ccip-relay.backend/internal/infrastructure/repositories"
	"ccip-relay.backend/internal/interfaces/http/handlers"
	"ccip-relay.backend/internal/interfaces/http/middleware"
	"ccip-relay.backend/internal/usecases"
	"ccip-relay.backend/pkg/jwt"
	"ccip-relay.backend/pkg/logger"
	"ccip-relay.backend/pkg/metrics"
	"ccip-relay.backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = postgres.NewConnection
	loadChains = registry.LoadFile
	runServer  = func(srv *http.Server) error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	// Redis only backs the Idempotency-Key replay cache.
	if cfg.Redis.URL != "" {
		if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
			logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		logger.Info(ctx, "Redis initialized")
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	chainFile, err := loadChains(cfg.Blockchain.ChainsConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load chains config: %w", err)
	}
	chains, err := registry.New(cfg.Blockchain.RPCURLs, chainFile)
	if err != nil {
		return fmt.Errorf("failed to build chain registry: %w", err)
	}
	configured := chains.List()
	if len(configured) == 0 {
		logger.Warn(ctx, "No chain has an RPC endpoint; every transfer will be rejected",
			zap.String("example", config.RPCEnvKey("ethereum-sepolia")))
	}
	for _, c := range configured {
		logger.Info(ctx, "Chain configured", zap.String("chain", c.ID), zap.String("family", string(c.Family)), zap.Uint64("selector", c.ChainSelector))
	}

	store, closeStore, err := openTransferStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	recorder := metrics.NewRecorder()

	clientFactory := blockchain.NewClientFactory(blockchain.WaitOptions{
		PollInterval: cfg.Blockchain.ReceiptPollInterval,
		Timeout:      cfg.Blockchain.ConfirmationTimeout,
	})
	defer clientFactory.Close()
	clients := usecases.NewChainClients(clientFactory)
	signers := blockchain.NewKeySignerProvider(cfg.Blockchain.EVMPrivateKey, cfg.Blockchain.SolanaPrivateKey)
	if _, err := signers.EVMSigner(ctx); err != nil {
		logger.Warn(ctx, "EVM signer unavailable", zap.Error(err))
	}
	if _, err := signers.SVMSigner(ctx); err != nil {
		logger.Warn(ctx, "Solana signer unavailable", zap.Error(err))
	}

	dispatcher := usecases.NewTransferDispatcher(chains, store, signers, clients, recorder)
	chainHealth := usecases.NewChainHealthUsecase(chains, clients)

	var jwtService *jwt.JWTService
	if cfg.Auth.JWTSecret != "" {
		jwtService = jwt.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	}
	if !cfg.Auth.Enabled() {
		logger.Warn(ctx, "Operator auth disabled (set JWT_SECRET or API_KEY_HASH)")
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pruneJob := jobs.NewTransferPruneJob(store, cfg.Transfers.HistoryLimit, cfg.Transfers.PruneInterval)
	go pruneJob.Start(jobCtx)

	r := newRouter(routeDeps{
		transferHandler: handlers.NewTransferHandler(dispatcher),
		chainHandler:    handlers.NewChainHandler(chainHealth),
		operatorAuth:    middleware.OperatorAuth(jwtService, cfg.Auth.APIKeyHash),
		recorder:        recorder,
		idempotencyLock: middleware.IdempotencyLockTTL(cfg.Blockchain.ConfirmationTimeout),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-jobCtx.Done():
			return
		}
		logger.Info(ctx, "Shutting down server...")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "CCIP relay starting",
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Transfers.Store),
		zap.Int("chains", len(configured)))

	if err := runServer(srv); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// openTransferStore picks the TRANSFER_STORE backend. The returned func
// releases it.
func openTransferStore(cfg *config.Config) (domainrepos.TransferRepository, func(), error) {
	switch cfg.Transfers.Store {
	case config.StoreMemory, "":
		return repositories.NewMemoryTransferRepository(), func() {}, nil
	case config.StorePostgres:
		db, err := openDB(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo := repositories.NewTransferRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			closeDB(db)
			return nil, nil, fmt.Errorf("failed to migrate transfers table: %w", err)
		}
		logger.Info(context.Background(), "Connected to PostgreSQL via GORM")
		return repo, func() { closeDB(db) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown TRANSFER_STORE %q (want %s or %s)", cfg.Transfers.Store, config.StoreMemory, config.StorePostgres)
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
