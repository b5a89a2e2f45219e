package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	ErrTxReverted          = errors.New("transaction reverted")
	ErrConfirmationTimeout = errors.New("confirmation wait timed out")
	errReceiptPending      = errors.New("receipt not yet available")
	errDepthPending        = errors.New("confirmation depth not yet reached")
)

// evmBackend is the subset of *ethclient.Client the relay needs.
type evmBackend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

var (
	dialEVMBackend = func(ctx context.Context, rpcURL string) (evmBackend, error) {
		return ethclient.DialContext(ctx, rpcURL)
	}
	newKeyedTransactor = bind.NewKeyedTransactorWithChainID

	// calldata is packed by the caller, so the bound contract needs no methods.
	emptyABI abi.ABI
)

// WaitOptions bounds receipt polling.
type WaitOptions struct {
	PollInterval time.Duration
	// Timeout of zero waits until the caller's context ends.
	Timeout time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	return o
}

// EVMClient provides EVM blockchain interaction
type EVMClient struct {
	backend evmBackend
	chainID *big.Int
	rpcURL  string
	wait    WaitOptions

	// sendMu serialises nonce selection for transactions sent through this client.
	sendMu sync.Mutex
	// testCallView allows deterministic unit tests without network sockets.
	testCallView func(ctx context.Context, to string, data []byte) ([]byte, error)
}

func NewEVMClient(ctx context.Context, rpcURL string, wait WaitOptions) (*EVMClient, error) {
	backend, err := dialEVMBackend(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &EVMClient{
		backend: backend,
		chainID: chainID,
		rpcURL:  rpcURL,
		wait:    wait.withDefaults(),
	}, nil
}

// NewEVMClientWithCallView creates an EVM client that uses an injected CallView implementation.
// This is intended for unit tests where RPC sockets are unavailable.
func NewEVMClientWithCallView(chainID *big.Int, callViewFn func(ctx context.Context, to string, data []byte) ([]byte, error)) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{
		chainID:      chainID,
		testCallView: callViewFn,
		wait:         WaitOptions{}.withDefaults(),
	}
}

func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

func (c *EVMClient) RPCURL() string {
	return c.rpcURL
}

// RemoteChainID asks the node for its chain id (health checks).
func (c *EVMClient) RemoteChainID(ctx context.Context) (*big.Int, error) {
	if c.backend == nil {
		return nil, errors.New("evm backend not connected")
	}
	return c.backend.ChainID(ctx)
}

// CallView executes a read-only contract call
func (c *EVMClient) CallView(ctx context.Context, to string, data []byte) ([]byte, error) {
	if c.testCallView != nil {
		return c.testCallView(ctx, to, data)
	}
	addr := common.HexToAddress(to)
	return c.backend.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
}

// Transact signs and broadcasts a call to `to` with calldata and value. Gas,
// fee caps and nonce come from the node.
func (c *EVMClient) Transact(ctx context.Context, key *ecdsa.PrivateKey, to string, data []byte, value *big.Int) (string, error) {
	if c.backend == nil {
		return "", errors.New("evm backend not connected")
	}
	auth, err := newKeyedTransactor(key, c.chainID)
	if err != nil {
		return "", err
	}
	auth.Context = ctx
	if value != nil && value.Sign() > 0 {
		auth.Value = new(big.Int).Set(value)
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	contract := bind.NewBoundContract(common.HexToAddress(to), emptyABI, c.backend, c.backend, c.backend)
	tx, err := contract.RawTransact(auth, data)
	if err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

// WaitForReceipt polls until txHash is mined with at least confirmations
// blocks on top (the inclusion block counts as one). A reverted transaction
// returns its receipt together with ErrTxReverted.
func (c *EVMClient) WaitForReceipt(ctx context.Context, txHash string, confirmations uint64) (*types.Receipt, error) {
	if c.backend == nil {
		return nil, errors.New("evm backend not connected")
	}
	if confirmations == 0 {
		confirmations = 1
	}

	waitCtx := ctx
	if c.wait.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.wait.Timeout)
		defer cancel()
	}

	hash := common.HexToHash(txHash)
	var receipt *types.Receipt
	err := retry.Do(
		func() error {
			if receipt == nil {
				r, err := c.backend.TransactionReceipt(waitCtx, hash)
				if err != nil {
					if errors.Is(err, ethereum.NotFound) {
						return errReceiptPending
					}
					return err
				}
				receipt = r
				if r.Status != types.ReceiptStatusSuccessful {
					return retry.Unrecoverable(ErrTxReverted)
				}
			}
			if confirmations <= 1 || receipt.BlockNumber == nil {
				return nil
			}
			head, err := c.backend.BlockNumber(waitCtx)
			if err != nil {
				return err
			}
			if head+1 < receipt.BlockNumber.Uint64()+confirmations {
				return errDepthPending
			}
			return nil
		},
		retry.Context(waitCtx),
		retry.Attempts(0),
		retry.Delay(c.wait.PollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if errors.Is(err, ErrTxReverted) {
		return receipt, ErrTxReverted
	}
	if err != nil {
		if ctx.Err() == nil && waitCtx.Err() != nil {
			return receipt, fmt.Errorf("%w after %s: tx %s", ErrConfirmationTimeout, c.wait.Timeout, txHash)
		}
		return receipt, err
	}
	return receipt, nil
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.backend != nil {
		c.backend.Close()
	}
}
