package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// svmRPC is the subset of *rpc.Client the relay needs.
type svmRPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SimulateTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts *rpc.SimulateTransactionOpts) (*rpc.SimulateTransactionResponse, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetHealth(ctx context.Context) (string, error)
}

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrSimulation      = errors.New("simulation failed")
	errSigPending      = errors.New("signature not yet confirmed")

	newSVMRPC = func(rpcURL string) svmRPC { return rpc.New(rpcURL) }
)

const mintDecimalsOffset = 44

// SVMClient wraps the Solana JSON-RPC client.
type SVMClient struct {
	rpc    svmRPC
	rpcURL string
	wait   WaitOptions
}

func NewSVMClient(rpcURL string, wait WaitOptions) *SVMClient {
	return &SVMClient{rpc: newSVMRPC(rpcURL), rpcURL: rpcURL, wait: wait.withDefaults()}
}

func (c *SVMClient) RPCURL() string {
	return c.rpcURL
}

func (c *SVMClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, err
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, errors.New("empty latest blockhash response")
	}
	return out.Value.Blockhash, nil
}

// Simulate runs tx without broadcasting it and returns the program logs.
// A failed simulation returns ErrSimulation with the logs attached.
func (c *SVMClient) Simulate(ctx context.Context, tx *solana.Transaction) ([]string, error) {
	out, err := c.rpc.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		Commitment:             rpc.CommitmentConfirmed,
		ReplaceRecentBlockhash: true,
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, errors.New("empty simulation response")
	}
	if out.Value.Err != nil {
		return out.Value.Logs, fmt.Errorf("%w: %v (logs: %v)", ErrSimulation, out.Value.Err, out.Value.Logs)
	}
	return out.Value.Logs, nil
}

// Send broadcasts a signed transaction after preflight.
func (c *SVMClient) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
}

// WaitForSignature polls until sig reaches confirmed (or finalized when
// finalized is set). An on-chain failure is returned as ErrTxReverted.
func (c *SVMClient) WaitForSignature(ctx context.Context, sig solana.Signature, finalized bool) error {
	waitCtx := ctx
	if c.wait.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.wait.Timeout)
		defer cancel()
	}

	err := retry.Do(
		func() error {
			out, err := c.rpc.GetSignatureStatuses(waitCtx, true, sig)
			if err != nil {
				return err
			}
			if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
				return errSigPending
			}
			st := out.Value[0]
			if st.Err != nil {
				return retry.Unrecoverable(fmt.Errorf("%w: %v", ErrTxReverted, st.Err))
			}
			switch st.ConfirmationStatus {
			case rpc.ConfirmationStatusFinalized:
				return nil
			case rpc.ConfirmationStatusConfirmed:
				if !finalized {
					return nil
				}
			}
			return errSigPending
		},
		retry.Context(waitCtx),
		retry.Attempts(0),
		retry.Delay(c.wait.PollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil && !errors.Is(err, ErrTxReverted) && ctx.Err() == nil && waitCtx.Err() != nil {
		return fmt.Errorf("%w after %s: signature %s", ErrConfirmationTimeout, c.wait.Timeout, sig)
	}
	return err
}

// TransactionLogs returns the log messages of a confirmed transaction.
func (c *SVMClient) TransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error) {
	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Meta == nil {
		return nil, fmt.Errorf("transaction %s has no metadata", sig)
	}
	return out.Meta.LogMessages, nil
}

// Account returns the owner and raw data of an account.
func (c *SVMClient) Account(ctx context.Context, key solana.PublicKey) (solana.PublicKey, []byte, error) {
	out, err := c.rpc.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return solana.PublicKey{}, nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
		}
		return solana.PublicKey{}, nil, err
	}
	if out == nil || out.Value == nil || out.Value.Data == nil {
		return solana.PublicKey{}, nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	return out.Value.Owner, out.Value.Data.GetBinary(), nil
}

// AccountData returns the raw data of an account.
func (c *SVMClient) AccountData(ctx context.Context, key solana.PublicKey) ([]byte, error) {
	_, data, err := c.Account(ctx, key)
	return data, err
}

// MintInfo returns the owning token program and decimals of an SPL mint.
func (c *SVMClient) MintInfo(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	owner, data, err := c.Account(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	if len(data) <= mintDecimalsOffset {
		return solana.PublicKey{}, 0, fmt.Errorf("account %s is not a mint", mint)
	}
	return owner, data[mintDecimalsOffset], nil
}

// Health calls getHealth.
func (c *SVMClient) Health(ctx context.Context) error {
	status, err := c.rpc.GetHealth(ctx)
	if err != nil {
		return err
	}
	if status != rpc.HealthOk {
		return fmt.Errorf("node unhealthy: %s", status)
	}
	return nil
}
