package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"ccip-relay.backend/pkg/crypto"
)

var (
	newAPIKey  = crypto.GenerateAPIKey
	hashSecret = crypto.HashSecret
)

// runGenHash prints an operator API key and the API_KEY_HASH the server
// checks it against. Without -key a fresh key is generated.
func runGenHash(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("genhash", flag.ContinueOnError)
	keyFlag := fs.String("key", "", "existing API key to hash (default: generate one)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	key := *keyFlag
	if key == "" {
		generated, err := newAPIKey()
		if err != nil {
			return fmt.Errorf("failed to generate api key: %w", err)
		}
		key = generated
	}

	hash, err := hashSecret(key)
	if err != nil {
		return fmt.Errorf("failed to hash api key: %w", err)
	}

	_, _ = fmt.Fprintf(out, "API_KEY=%s\n", key)
	_, _ = fmt.Fprintf(out, "API_KEY_HASH=%s\n", hash)
	return nil
}

func main() {
	if err := runGenHash(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}
