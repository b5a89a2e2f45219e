package blockchain

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

var ErrSignerNotConfigured = errors.New("signer not configured")

// EVMSigner is a secp256k1 key and its address.
type EVMSigner struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

// SVMSigner is an ed25519 Solana keypair.
type SVMSigner struct {
	Key solana.PrivateKey
}

func (s *SVMSigner) PublicKey() solana.PublicKey {
	return s.Key.PublicKey()
}

// KeySignerProvider serves signers parsed from configured private keys.
// Parse failures are kept and surfaced when a signer is requested.
type KeySignerProvider struct {
	evm    *EVMSigner
	evmErr error
	svm    *SVMSigner
	svmErr error
}

func NewKeySignerProvider(evmKeyHex, solanaKey string) *KeySignerProvider {
	p := &KeySignerProvider{}
	p.evm, p.evmErr = ParseEVMSigner(evmKeyHex)
	p.svm, p.svmErr = ParseSVMSigner(solanaKey)
	return p
}

func (p *KeySignerProvider) EVMSigner(_ context.Context) (*EVMSigner, error) {
	return p.evm, p.evmErr
}

func (p *KeySignerProvider) SVMSigner(_ context.Context) (*SVMSigner, error) {
	return p.svm, p.svmErr
}

// ParseEVMSigner accepts a hex key with or without 0x.
func ParseEVMSigner(keyHex string) (*EVMSigner, error) {
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")
	if keyHex == "" {
		return nil, fmt.Errorf("%w: EVM_PRIVATE_KEY is empty", ErrSignerNotConfigured)
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid EVM private key: %w", err)
	}
	return &EVMSigner{Key: key, Address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// ParseSVMSigner accepts a base58 secret key or the JSON byte array written by
// solana-keygen.
func ParseSVMSigner(raw string) (*SVMSigner, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: SOLANA_PRIVATE_KEY is empty", ErrSignerNotConfigured)
	}

	if strings.HasPrefix(raw, "[") {
		var bytes []byte
		var ints []int
		if err := json.Unmarshal([]byte(raw), &ints); err != nil {
			return nil, fmt.Errorf("invalid Solana keypair json: %w", err)
		}
		for _, v := range ints {
			if v < 0 || v > 255 {
				return nil, errors.New("invalid Solana keypair json: byte out of range")
			}
			bytes = append(bytes, byte(v))
		}
		if len(bytes) != 64 {
			return nil, fmt.Errorf("invalid Solana keypair: want 64 bytes, got %d", len(bytes))
		}
		return &SVMSigner{Key: solana.PrivateKey(bytes)}, nil
	}

	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid Solana private key: %w", err)
	}
	if len(key) != 64 {
		return nil, fmt.Errorf("invalid Solana private key: want 64 bytes, got %d", len(key))
	}
	return &SVMSigner{Key: key}, nil
}
