package usecases

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ccip-relay.backend/internal/domain/entities"
	domainerrors "ccip-relay.backend/internal/domain/errors"
	"ccip-relay.backend/internal/infrastructure/blockchain"
	"ccip-relay.backend/pkg/logger"
)

// svmSend is everything needed to quote and submit one ccip_send.
type svmSend struct {
	signer   *blockchain.SVMSigner
	accounts *ccipProgramAccounts
	message  svm2AnyMessage
	mint     solana.PublicKey
	mintProg solana.PublicKey
	feeMint  solana.PublicKey
	feeProg  solana.PublicKey
	native   bool
	pool     *tokenPoolRegistration
	linkMint solana.PublicKey
	amount   uint64
}

func (d *TransferDispatcher) sendFromSVM(ctx context.Context, p *transferPlan) error {
	signer, err := d.signers.SVMSigner(ctx)
	if err != nil {
		return domainerrors.NewTransferError(domainerrors.KindSignerUnavailable, err)
	}
	p.sender = signer.PublicKey().String()

	payload, err := d.buildPayload(p, true)
	if err != nil {
		return err
	}

	client, err := d.clients.SVM(ctx, p.src)
	if err != nil {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "failed to connect to %s: %v", p.src.ID, err)
	}

	send, err := d.buildSVMSend(ctx, client, p, payload, signer)
	if err != nil {
		return err
	}

	start := time.Now()
	fee, err := d.quoteSVMFee(ctx, client, p, send)
	d.metrics.ObserveFeeQuote(string(entities.FamilySVM), time.Since(start), err)
	if err != nil {
		return err
	}
	p.fee = strconv.FormatUint(fee, 10)
	logger.Info(ctx, "Fee quoted", zap.String("fee", p.fee), zap.String("fee_token", p.feeToken))

	tx, err := d.buildCCIPSendTx(ctx, client, send, fee)
	if err != nil {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "failed to build ccip_send transaction: %v", err)
	}
	sig, err := client.Send(ctx, tx)
	if err != nil {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "ccip_send failed: %v", err)
	}
	p.txHash = sig.String()
	logger.Info(ctx, "CCIP send submitted", zap.String("tx_hash", p.txHash))

	if err := client.WaitForSignature(ctx, sig, confirmationDepth(p.src) > 1); err != nil {
		return waitError(p.txHash, err)
	}

	logs, err := client.TransactionLogs(ctx, sig)
	if err != nil {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "failed to read logs of %s: %v", p.txHash, err)
	}
	ret, ok := programReturnData(logs, send.accounts.router)
	if !ok || len(ret) < 32 {
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "no CCIP message id in logs of %s", p.txHash)
	}
	p.messageID = "0x" + hex.EncodeToString(ret[:32])
	return nil
}

func (d *TransferDispatcher) buildSVMSend(ctx context.Context, client SVMChainClient, p *transferPlan, payload *messagePayload, signer *blockchain.SVMSigner) (*svmSend, error) {
	router, err := solana.PublicKeyFromBase58(p.src.Router)
	if err != nil {
		return nil, domainerrors.Transferf(domainerrors.KindSubmissionFailed, "invalid router program %q", p.src.Router)
	}
	feeQuoter, err := solana.PublicKeyFromBase58(p.src.QuoteAddress())
	if err != nil {
		return nil, domainerrors.Transferf(domainerrors.KindFeeQuoteFailed, "invalid fee quoter program %q", p.src.QuoteAddress())
	}
	rmn, err := solana.PublicKeyFromBase58(p.src.RMNRemote)
	if err != nil {
		return nil, domainerrors.Transferf(domainerrors.KindSubmissionFailed, "invalid RMN remote program %q", p.src.RMNRemote)
	}
	linkMint, err := solana.PublicKeyFromBase58(p.src.ProtocolToken)
	if err != nil {
		return nil, domainerrors.Transferf(domainerrors.KindFeeQuoteFailed, "invalid protocol token %q", p.src.ProtocolToken)
	}
	accounts, err := deriveCCIPAccounts(router, feeQuoter, rmn, p.dst.ChainSelector)
	if err != nil {
		return nil, domainerrors.NewTransferError(domainerrors.KindSubmissionFailed, err)
	}

	mint, err := solana.PublicKeyFromBase58(payload.token.Address)
	if err != nil {
		return nil, domainerrors.Transferf(domainerrors.KindValidation, "invalid token mint %q", payload.token.Address)
	}
	mintProg, decimals, err := client.MintInfo(ctx, mint)
	if err != nil {
		return nil, domainerrors.Transferf(domainerrors.KindValidation, "failed to read mint %s: %v", mint, err)
	}
	if payload.token.Decimals != 0 {
		decimals = payload.token.Decimals
	}
	amount, err := ScaleAmountU64(p.req.Amount, decimals)
	if err != nil {
		return nil, domainerrors.NewTransferError(domainerrors.KindValidation, err)
	}

	send := &svmSend{
		signer:   signer,
		accounts: accounts,
		mint:     mint,
		mintProg: mintProg,
		linkMint: linkMint,
		amount:   amount,
		native:   d.feeTokens.IsNative(p.src, p.feeToken),
	}

	feeToken, err := solana.PublicKeyFromBase58(p.feeToken)
	if err != nil {
		return nil, domainerrors.Transferf(domainerrors.KindFeeQuoteFailed, "invalid fee token %q", p.feeToken)
	}
	if send.native {
		send.feeMint = wrappedSOLMint
		send.feeProg = solana.TokenProgramID
	} else {
		send.feeMint = feeToken
		if feeToken.Equals(mint) {
			send.feeProg = mintProg
		} else if send.feeProg, _, err = client.MintInfo(ctx, feeToken); err != nil {
			return nil, domainerrors.Transferf(domainerrors.KindFeeQuoteFailed, "failed to read fee token %s: %v", feeToken, err)
		}
	}

	send.message = svm2AnyMessage{
		Receiver:     payload.receiver,
		Data:         []byte{},
		TokenAmounts: []svmTokenAmount{{Token: mint, Amount: amount}},
		FeeToken:     feeToken,
		ExtraArgs:    payload.extraArgs,
	}

	pool, err := d.loadTokenPool(ctx, client, accounts, mint)
	if err != nil {
		return nil, err
	}
	send.pool = pool
	return send, nil
}

// loadTokenPool reads the token admin registry and pool lookup table of mint.
func (d *TransferDispatcher) loadTokenPool(ctx context.Context, client SVMChainClient, accounts *ccipProgramAccounts, mint solana.PublicKey) (*tokenPoolRegistration, error) {
	registry, err := accounts.tokenAdminRegistry(mint)
	if err != nil {
		return nil, domainerrors.NewTransferError(domainerrors.KindSubmissionFailed, err)
	}
	_, data, err := client.Account(ctx, registry)
	if err != nil {
		if errors.Is(err, blockchain.ErrAccountNotFound) {
			return nil, domainerrors.Transferf(domainerrors.KindValidation, "token %s is not registered for CCIP", mint)
		}
		return nil, domainerrors.Transferf(domainerrors.KindSubmissionFailed, "failed to read token admin registry: %v", err)
	}
	table, bitmap, err := parseTokenAdminRegistry(data)
	if err != nil {
		return nil, domainerrors.NewTransferError(domainerrors.KindSubmissionFailed, err)
	}
	_, tableData, err := client.Account(ctx, table)
	if err != nil {
		return nil, domainerrors.Transferf(domainerrors.KindSubmissionFailed, "failed to read token pool lookup table %s: %v", table, err)
	}
	addresses, err := parseLookupTableAddresses(tableData)
	if err != nil {
		return nil, domainerrors.NewTransferError(domainerrors.KindSubmissionFailed, err)
	}
	return &tokenPoolRegistration{lookupTable: table, writable: bitmap, addresses: addresses}, nil
}

func (d *TransferDispatcher) quoteSVMFee(ctx context.Context, client SVMChainClient, p *transferPlan, send *svmSend) (uint64, error) {
	a := send.accounts
	billing, err := a.billingTokenConfig(send.feeMint)
	if err != nil {
		return 0, domainerrors.NewTransferError(domainerrors.KindFeeQuoteFailed, err)
	}
	linkBilling, err := a.billingTokenConfig(send.linkMint)
	if err != nil {
		return 0, domainerrors.NewTransferError(domainerrors.KindFeeQuoteFailed, err)
	}
	tokenBilling, err := a.billingTokenConfig(send.mint)
	if err != nil {
		return 0, domainerrors.NewTransferError(domainerrors.KindFeeQuoteFailed, err)
	}
	perChain, err := a.perChainPerTokenConfig(send.mint)
	if err != nil {
		return 0, domainerrors.NewTransferError(domainerrors.KindFeeQuoteFailed, err)
	}

	data, err := encodeInstructionData(getFeeDiscriminator, getFeeArgs{
		DestChainSelector: a.selector,
		Message:           send.message,
	})
	if err != nil {
		return 0, domainerrors.Transferf(domainerrors.KindFeeQuoteFailed, "failed to encode get_fee: %v", err)
	}
	ix := solana.NewInstruction(a.feeQuoter, solana.AccountMetaSlice{
		solana.NewAccountMeta(a.fqConfig, false, false),
		solana.NewAccountMeta(a.fqDestChain, false, false),
		solana.NewAccountMeta(billing, false, false),
		solana.NewAccountMeta(linkBilling, false, false),
		solana.NewAccountMeta(tokenBilling, false, false),
		solana.NewAccountMeta(perChain, false, false),
	}, data)

	tx, err := d.signedSVMTx(ctx, client, send.signer, nil, ix)
	if err != nil {
		return 0, domainerrors.Transferf(domainerrors.KindFeeQuoteFailed, "failed to build get_fee simulation: %v", err)
	}
	logs, err := client.Simulate(ctx, tx)
	if err != nil {
		return 0, domainerrors.Transferf(domainerrors.KindFeeQuoteFailed, "get_fee simulation on %s failed: %v", p.src.ID, err)
	}
	ret, ok := programReturnData(logs, a.feeQuoter)
	if !ok {
		return 0, domainerrors.Transferf(domainerrors.KindFeeQuoteFailed, "get_fee returned no data")
	}
	fee, err := parseGetFeeAmount(ret)
	if err != nil {
		return 0, domainerrors.NewTransferError(domainerrors.KindFeeQuoteFailed, err)
	}
	return fee, nil
}

// buildCCIPSendTx assembles delegate approvals and the ccip_send instruction.
// The router moves tokens and fees through its fee billing signer, which
// therefore needs a delegation on the sender's token accounts.
func (d *TransferDispatcher) buildCCIPSendTx(ctx context.Context, client SVMChainClient, send *svmSend, fee uint64) (*solana.Transaction, error) {
	a := send.accounts
	owner := send.signer.PublicKey()

	nonce, err := a.nonce(owner)
	if err != nil {
		return nil, err
	}
	userTokenAccount, err := associatedTokenAddress(owner, send.mintProg, send.mint)
	if err != nil {
		return nil, err
	}
	feeReceiver, err := associatedTokenAddress(a.feeBillingSigner, send.feeProg, send.feeMint)
	if err != nil {
		return nil, err
	}
	feeUserAccount := a.router
	if !send.native {
		if feeUserAccount, err = associatedTokenAddress(owner, send.feeProg, send.feeMint); err != nil {
			return nil, err
		}
	}
	billing, err := a.billingTokenConfig(send.feeMint)
	if err != nil {
		return nil, err
	}
	linkBilling, err := a.billingTokenConfig(send.linkMint)
	if err != nil {
		return nil, err
	}
	perChain, err := a.perChainPerTokenConfig(send.mint)
	if err != nil {
		return nil, err
	}
	poolProgram, err := send.pool.poolProgram()
	if err != nil {
		return nil, err
	}
	chainConfig, err := poolChainConfig(poolProgram, a.selector, send.mint)
	if err != nil {
		return nil, err
	}

	data, err := encodeInstructionData(ccipSendDiscriminator, ccipSendArgs{
		DestChainSelector: a.selector,
		Message:           send.message,
		TokenIndexes:      []byte{0},
	})
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(a.routerConfig, false, false),
		solana.NewAccountMeta(a.destChainState, true, false),
		solana.NewAccountMeta(nonce, true, false),
		solana.NewAccountMeta(owner, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(send.feeProg, false, false),
		solana.NewAccountMeta(send.feeMint, false, false),
		solana.NewAccountMeta(feeUserAccount, !send.native, false),
		solana.NewAccountMeta(feeReceiver, true, false),
		solana.NewAccountMeta(a.feeBillingSigner, false, false),
		solana.NewAccountMeta(a.feeQuoter, false, false),
		solana.NewAccountMeta(a.fqConfig, false, false),
		solana.NewAccountMeta(a.fqDestChain, false, false),
		solana.NewAccountMeta(billing, false, false),
		solana.NewAccountMeta(linkBilling, false, false),
		solana.NewAccountMeta(a.rmnRemote, false, false),
		solana.NewAccountMeta(a.rmnCurses, false, false),
		solana.NewAccountMeta(a.rmnConfig, false, false),
		// token 0
		solana.NewAccountMeta(userTokenAccount, true, false),
		solana.NewAccountMeta(perChain, false, false),
		solana.NewAccountMeta(chainConfig, true, false),
	}
	metas = append(metas, send.pool.accountMetas()...)

	approvals := []solana.Instruction{}
	if !send.native && send.feeMint.Equals(send.mint) {
		approvals = append(approvals, newApproveInstruction(send.mintProg, userTokenAccount, a.feeBillingSigner, owner, send.amount+fee))
	} else {
		approvals = append(approvals, newApproveInstruction(send.mintProg, userTokenAccount, a.feeBillingSigner, owner, send.amount))
		if !send.native {
			approvals = append(approvals, newApproveInstruction(send.feeProg, feeUserAccount, a.feeBillingSigner, owner, fee))
		}
	}

	instructions := append([]solana.Instruction{newComputeUnitLimitInstruction(DefaultSVMTxComputeLimit)}, approvals...)
	instructions = append(instructions, solana.NewInstruction(a.router, metas, data))

	tables := map[solana.PublicKey]solana.PublicKeySlice{send.pool.lookupTable: send.pool.addresses}
	return d.signedSVMTx(ctx, client, send.signer, tables, instructions...)
}

func (d *TransferDispatcher) signedSVMTx(ctx context.Context, client SVMChainClient, signer *blockchain.SVMSigner, tables map[solana.PublicKey]solana.PublicKeySlice, instructions ...solana.Instruction) (*solana.Transaction, error) {
	blockhash, err := client.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blockhash: %w", err)
	}
	opts := []solana.TransactionOption{solana.TransactionPayer(signer.PublicKey())}
	if len(tables) > 0 {
		opts = append(opts, solana.TransactionAddressTables(tables))
	}
	tx, err := solana.NewTransaction(instructions, blockhash, opts...)
	if err != nil {
		return nil, err
	}
	key := signer.Key
	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}
