package main

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ccip-relay.backend/internal/config"
	"ccip-relay.backend/internal/infrastructure/registry"
	"ccip-relay.backend/internal/infrastructure/repositories"
	plog "ccip-relay.backend/pkg/logger"
)

func withMainHooks(t *testing.T) {
	t.Helper()
	origLoadDotenv := loadDotenv
	origLoadCfg := loadCfg
	origInitLog := initLog
	origInitRedis := initRedis
	origOpenDB := openDB
	origLoadChains := loadChains
	origRunServer := runServer

	t.Cleanup(func() {
		loadDotenv = origLoadDotenv
		loadCfg = origLoadCfg
		initLog = origInitLog
		initRedis = origInitRedis
		openDB = origOpenDB
		loadChains = origLoadChains
		runServer = origRunServer
	})

	loadDotenv = func(...string) error { return errors.New("no .env") }
	initLog = plog.Init
	initRedis = func(string, string) error { return nil }
	runServer = func(*http.Server) error { return nil }
}

func baseTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port: "18080",
			Env:  "development",
		},
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			DBName:   "ccip_relay",
			SSLMode:  "disable",
		},
		Auth: config.AuthConfig{
			JWTSecret: "secret",
			JWTExpiry: time.Hour,
		},
		Blockchain: config.BlockchainConfig{
			RPCURLs: map[string]string{
				"ethereum-sepolia": "http://127.0.0.1:8545",
				"solana-devnet":    "http://127.0.0.1:8899",
			},
			ReceiptPollInterval: time.Second,
		},
		Transfers: config.TransferConfig{
			Store:         config.StoreMemory,
			HistoryLimit:  50,
			PruneInterval: time.Hour,
		},
	}
}

func sqliteOpener(name string) func(config.DatabaseConfig) (*gorm.DB, error) {
	return func(config.DatabaseConfig) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	}
}

func TestRunMainProcess_SuccessPath(t *testing.T) {
	withMainHooks(t)
	loadCfg = baseTestConfig

	var addr string
	runServer = func(srv *http.Server) error {
		addr = srv.Addr
		require.NotNil(t, srv.Handler)
		return nil
	}

	require.NoError(t, runMainProcess())
	assert.Equal(t, ":18080", addr)
}

func TestRunMainProcess_RedisInitError(t *testing.T) {
	withMainHooks(t)
	loadCfg = func() *config.Config {
		cfg := baseTestConfig()
		cfg.Redis.URL = "redis://localhost:6379"
		return cfg
	}
	initRedis = func(string, string) error { return errors.New("redis down") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize redis")
}

func TestRunMainProcess_RedisSkippedWithoutURL(t *testing.T) {
	withMainHooks(t)
	loadCfg = baseTestConfig
	initRedis = func(string, string) error {
		t.Fatal("redis must not be initialised without REDIS_URL")
		return nil
	}

	require.NoError(t, runMainProcess())
}

func TestRunMainProcess_ChainsConfigError(t *testing.T) {
	withMainHooks(t)
	loadCfg = baseTestConfig
	loadChains = func(string) (*registry.FileConfig, error) { return nil, errors.New("bad toml") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load chains config")
}

func TestRunMainProcess_InvalidChainOverride(t *testing.T) {
	withMainHooks(t)
	loadCfg = baseTestConfig
	loadChains = func(string) (*registry.FileConfig, error) {
		return &registry.FileConfig{Chains: map[string]registry.ChainOverride{
			"mystery-chain": {RPCURL: "http://127.0.0.1:1"},
		}}, nil
	}

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build chain registry")
}

func TestRunMainProcess_UnknownStore(t *testing.T) {
	withMainHooks(t)
	loadCfg = func() *config.Config {
		cfg := baseTestConfig()
		cfg.Transfers.Store = "cassandra"
		return cfg
	}

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown TRANSFER_STORE")
}

func TestRunMainProcess_DBOpenError(t *testing.T) {
	withMainHooks(t)
	loadCfg = func() *config.Config {
		cfg := baseTestConfig()
		cfg.Transfers.Store = config.StorePostgres
		return cfg
	}
	openDB = func(config.DatabaseConfig) (*gorm.DB, error) { return nil, errors.New("db open failed") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestRunMainProcess_ServerRunError(t *testing.T) {
	withMainHooks(t)
	loadCfg = baseTestConfig
	runServer = func(*http.Server) error { return errors.New("listen failed") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen failed")
}

func TestOpenTransferStore(t *testing.T) {
	withMainHooks(t)

	cfg := baseTestConfig()
	store, closeFn, err := openTransferStore(cfg)
	require.NoError(t, err)
	closeFn()
	assert.IsType(t, &repositories.MemoryTransferRepository{}, store)

	cfg.Transfers.Store = config.StorePostgres
	openDB = sqliteOpener("main_store_pg")
	store, closeFn, err = openTransferStore(cfg)
	require.NoError(t, err)
	t.Cleanup(closeFn)
	assert.IsType(t, &repositories.TransferRepositoryImpl{}, store)
}
