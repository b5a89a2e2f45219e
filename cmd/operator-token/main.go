package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ccip-relay.backend/internal/config"
	"ccip-relay.backend/pkg/jwt"
)

type operatorTokenDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	out     io.Writer
}

func defaultOperatorTokenDeps() operatorTokenDeps {
	return operatorTokenDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		out:     os.Stdout,
	}
}

// runOperatorToken signs a bearer token for POST /api/v1/transfers with the
// server's JWT_SECRET.
func runOperatorToken(args []string, deps operatorTokenDeps) error {
	if deps.loadEnv == nil {
		deps.loadEnv = func() error { return godotenv.Load() }
	}
	if deps.loadCfg == nil {
		deps.loadCfg = config.Load
	}
	if deps.out == nil {
		deps.out = os.Stdout
	}

	fs := flag.NewFlagSet("operator-token", flag.ContinueOnError)
	operatorFlag := fs.String("operator", "", "operator name recorded in the token (required)")
	scopeFlag := fs.String("scope", "transfers:write", "token scope")
	ttlFlag := fs.Duration("ttl", 0, "token lifetime (default: JWT_EXPIRY)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *operatorFlag == "" {
		return fmt.Errorf("--operator is required")
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := deps.loadCfg()
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}

	ttl := cfg.Auth.JWTExpiry
	if *ttlFlag > 0 {
		ttl = *ttlFlag
	}

	token, err := jwt.NewJWTService(cfg.Auth.JWTSecret, ttl).IssueToken(*operatorFlag, *scopeFlag)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	_, _ = fmt.Fprintf(deps.out, "operator=%s\n", *operatorFlag)
	_, _ = fmt.Fprintf(deps.out, "expires_at=%s\n", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	_, _ = fmt.Fprintf(deps.out, "TOKEN=%s\n", token)
	return nil
}

func main() {
	if err := runOperatorToken(os.Args[1:], defaultOperatorTokenDeps()); err != nil {
		log.Fatal(err)
	}
}
