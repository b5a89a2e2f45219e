package usecases

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ccip-relay.backend/internal/domain/entities"
	domainerrors "ccip-relay.backend/internal/domain/errors"
	"ccip-relay.backend/internal/infrastructure/blockchain"
	"ccip-relay.backend/pkg/logger"
)

// tokenSpend is an ERC20 amount the router must be allowed to pull.
type tokenSpend struct {
	token  common.Address
	amount *big.Int
}

func (d *TransferDispatcher) sendFromEVM(ctx context.Context, p *transferPlan) error {
	signer, err := d.signers.EVMSigner(ctx)
	if err != nil {
		return domainerrors.NewTransferError(domainerrors.KindSignerUnavailable, err)
	}
	p.sender = signer.Address.Hex()

	payload, err := d.buildPayload(p, false)
	if err != nil {
		return err
	}

	client, err := d.clients.EVM(ctx, p.src)
	if err != nil {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "failed to connect to %s: %v", p.src.ID, err)
	}

	if !common.IsHexAddress(payload.token.Address) {
		return domainerrors.Transferf(domainerrors.KindValidation, "invalid token address %q", payload.token.Address)
	}
	token := common.HexToAddress(payload.token.Address)
	decimals, err := d.evmDecimals(ctx, client, p.src, token, payload.token.Decimals)
	if err != nil {
		return domainerrors.Transferf(domainerrors.KindValidation, "failed to read decimals of %s: %v", token.Hex(), err)
	}
	amount, err := ScaleAmount(p.req.Amount, decimals)
	if err != nil {
		return domainerrors.NewTransferError(domainerrors.KindValidation, err)
	}

	feeToken := common.HexToAddress(p.feeToken)
	msg := evm2AnyMessage{
		Receiver:     payload.receiver,
		Data:         []byte{},
		TokenAmounts: []evmTokenAmount{{Token: token, Amount: amount}},
		FeeToken:     feeToken,
		ExtraArgs:    payload.extraArgs,
	}

	start := time.Now()
	fee, err := d.quoteEVMFee(ctx, client, p, msg)
	d.metrics.ObserveFeeQuote(string(entities.FamilyEVM), time.Since(start), err)
	if err != nil {
		return err
	}
	p.fee = fee.String()
	logger.Info(ctx, "Fee quoted", zap.String("fee", p.fee), zap.String("fee_token", p.feeToken))

	native := d.feeTokens.IsNative(p.src, p.feeToken)
	spends := []tokenSpend{{token: token, amount: amount}}
	if !native {
		if feeToken == token {
			spends[0].amount = new(big.Int).Add(amount, fee)
		} else {
			spends = append(spends, tokenSpend{token: feeToken, amount: fee})
		}
	}
	router := common.HexToAddress(p.src.Router)
	for _, s := range spends {
		if err := d.ensureAllowance(ctx, client, signer, s.token, router, s.amount); err != nil {
			return err
		}
	}

	data, err := CCIPRouterABI.Pack("ccipSend", p.dst.ChainSelector, msg)
	if err != nil {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "failed to encode ccipSend: %v", err)
	}
	var value *big.Int
	if native {
		value = fee
	}
	txHash, err := client.Transact(ctx, signer.Key, p.src.Router, data, value)
	if err != nil {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "ccipSend failed: %s", describeRPCError(err))
	}
	p.txHash = txHash
	logger.Info(ctx, "CCIP send submitted", zap.String("tx_hash", txHash))

	receipt, err := client.WaitForReceipt(ctx, txHash, confirmationDepth(p.src))
	if err != nil {
		return waitError(txHash, err)
	}
	messageID, ok := extractEVMMessageID(receipt)
	if !ok {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "no CCIP message id in receipt of %s", txHash)
	}
	p.messageID = messageID
	return nil
}

func (d *TransferDispatcher) quoteEVMFee(ctx context.Context, client EVMChainClient, p *transferPlan, msg evm2AnyMessage) (*big.Int, error) {
	data, err := CCIPRouterABI.Pack("getFee", p.dst.ChainSelector, msg)
	if err != nil {
		return nil, domainerrors.Transferf(domainerrors.KindFeeQuoteFailed, "failed to encode getFee: %v", err)
	}
	out, err := client.CallView(ctx, p.src.QuoteAddress(), data)
	if err != nil {
		return nil, domainerrors.Transferf(domainerrors.KindFeeQuoteFailed, "getFee on %s failed: %s", p.src.ID, describeRPCError(err))
	}
	fee, err := unpackSingle[*big.Int](CCIPRouterABI, "getFee", out)
	if err != nil {
		return nil, domainerrors.NewTransferError(domainerrors.KindFeeQuoteFailed, err)
	}
	return fee, nil
}

// ensureAllowance approves spender for amount when the current allowance
// falls short, and waits for the approval to be mined.
func (d *TransferDispatcher) ensureAllowance(ctx context.Context, client EVMChainClient, signer *blockchain.EVMSigner, token, spender common.Address, amount *big.Int) error {
	data, err := ERC20ABI.Pack("allowance", signer.Address, spender)
	if err != nil {
		return domainerrors.NewTransferError(domainerrors.KindSubmissionFailed, err)
	}
	out, err := client.CallView(ctx, token.Hex(), data)
	if err != nil {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "allowance check on %s failed: %s", token.Hex(), describeRPCError(err))
	}
	current, err := unpackSingle[*big.Int](ERC20ABI, "allowance", out)
	if err != nil {
		return domainerrors.NewTransferError(domainerrors.KindSubmissionFailed, err)
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}

	approve, err := ERC20ABI.Pack("approve", spender, amount)
	if err != nil {
		return domainerrors.NewTransferError(domainerrors.KindSubmissionFailed, err)
	}
	txHash, err := client.Transact(ctx, signer.Key, token.Hex(), approve, nil)
	if err != nil {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "approve on %s failed: %s", token.Hex(), describeRPCError(err))
	}
	logger.Info(ctx, "Token approval submitted", zap.String("token", token.Hex()), zap.String("tx_hash", txHash))
	if _, err := client.WaitForReceipt(ctx, txHash, approvalConfirmations); err != nil {
		return waitError(txHash, err)
	}
	return nil
}

// evmDecimals returns known decimals, or asks the token contract and caches
// the answer per chain.
func (d *TransferDispatcher) evmDecimals(ctx context.Context, client EVMChainClient, chain *entities.ChainDescriptor, token common.Address, known uint8) (uint8, error) {
	if known != 0 {
		return known, nil
	}
	key := chain.ID + "|" + token.Hex()
	if v, ok := d.decimals.Load(key); ok {
		return v.(uint8), nil
	}
	data, err := ERC20ABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	out, err := client.CallView(ctx, token.Hex(), data)
	if err != nil {
		return 0, err
	}
	dec, err := unpackSingle[uint8](ERC20ABI, "decimals", out)
	if err != nil {
		return 0, err
	}
	d.decimals.Store(key, dec)
	return dec, nil
}
