package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Blockchain BlockchainConfig
	Transfers  TransferConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig is only used when TRANSFER_STORE=postgres.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig enables the Idempotency-Key replay cache when URL is set.
type RedisConfig struct {
	URL      string
	Password string
}

// AuthConfig guards the write endpoints. With neither value set the API is open.
type AuthConfig struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	APIKeyHash string
}

// Enabled reports whether any operator credential is configured.
func (c AuthConfig) Enabled() bool {
	return c.JWTSecret != "" || c.APIKeyHash != ""
}

type BlockchainConfig struct {
	EVMPrivateKey    string
	SolanaPrivateKey string
	// RPCURLs maps chain id (ethereum-sepolia) to its endpoint, collected from
	// <CHAIN_ID>_RPC_URL variables.
	RPCURLs             map[string]string
	ChainsConfigPath    string
	ConfirmationTimeout time.Duration
	ReceiptPollInterval time.Duration
}

type TransferConfig struct {
	Store         string
	HistoryLimit  int
	PruneInterval time.Duration
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	rpcURLSuffix  = "_RPC_URL"
)

var environ = os.Environ

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ccip_relay"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			JWTExpiry:  getEnvAsDuration("JWT_EXPIRY", 12*time.Hour),
			APIKeyHash: getEnv("API_KEY_HASH", ""),
		},
		Blockchain: BlockchainConfig{
			EVMPrivateKey:       getEnv("EVM_PRIVATE_KEY", ""),
			SolanaPrivateKey:    getEnv("SOLANA_PRIVATE_KEY", ""),
			RPCURLs:             loadRPCURLs(),
			ChainsConfigPath:    getEnv("CHAINS_CONFIG_PATH", ""),
			ConfirmationTimeout: getEnvAsDuration("CONFIRMATION_TIMEOUT", 0),
			ReceiptPollInterval: getEnvAsDuration("RECEIPT_POLL_INTERVAL", 2*time.Second),
		},
		Transfers: TransferConfig{
			Store:         strings.ToLower(getEnv("TRANSFER_STORE", StoreMemory)),
			HistoryLimit:  getEnvAsInt("TRANSFER_HISTORY_LIMIT", 50),
			PruneInterval: getEnvAsDuration("TRANSFER_PRUNE_INTERVAL", 10*time.Minute),
		},
	}
}

// RPCEnvKey is the variable that configures chainID's endpoint.
func RPCEnvKey(chainID string) string {
	return strings.ToUpper(strings.ReplaceAll(chainID, "-", "_")) + rpcURLSuffix
}

func loadRPCURLs() map[string]string {
	out := make(map[string]string)
	for _, kv := range environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasSuffix(key, rpcURLSuffix) {
			continue
		}
		id := strings.ToLower(strings.ReplaceAll(strings.TrimSuffix(key, rpcURLSuffix), "_", "-"))
		if id != "" {
			out[id] = strings.TrimSpace(value)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
