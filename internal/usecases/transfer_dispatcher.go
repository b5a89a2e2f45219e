package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"ccip-relay.backend/internal/domain/entities"
	domainerrors "ccip-relay.backend/internal/domain/errors"
	"ccip-relay.backend/internal/domain/repositories"
	"ccip-relay.backend/internal/infrastructure/blockchain"
	"ccip-relay.backend/pkg/logger"
	"ccip-relay.backend/pkg/metrics"
	"ccip-relay.backend/pkg/utils"
)

// TransferDispatcher validates transfer requests, submits the CCIP send on
// the source chain and records the outcome.
type TransferDispatcher struct {
	registry  repositories.ChainRegistry
	store     repositories.TransferRepository
	signers   SignerProvider
	clients   ChainClients
	feeTokens *FeeTokenResolver
	codec     *AddressCodec
	metrics   *metrics.Recorder

	now           func() time.Time
	newID         func() string
	finalizeDelay time.Duration

	// token decimals read from chain, keyed by "<chain>|<token>"
	decimals sync.Map
}

func NewTransferDispatcher(
	registry repositories.ChainRegistry,
	store repositories.TransferRepository,
	signers SignerProvider,
	clients ChainClients,
	recorder *metrics.Recorder,
) *TransferDispatcher {
	return &TransferDispatcher{
		registry:  registry,
		store:     store,
		signers:   signers,
		clients:   clients,
		feeTokens: NewFeeTokenResolver(),
		codec:     NewAddressCodec(),
		metrics:   recorder,
		now:       time.Now,
		newID:     utils.NewTransferID,

		finalizeDelay: 250 * time.Millisecond,
	}
}

// transferPlan carries one in-flight transfer through its route. The trailing
// fields are filled in as the transfer progresses so a failure still records
// what was learned.
type transferPlan struct {
	id    string
	req   *entities.TransferRequest
	src   *entities.ChainDescriptor
	dst   *entities.ChainDescriptor
	route string

	sender    string
	feeToken  string
	fee       string
	txHash    string
	messageID string
}

type familyPair struct {
	src entities.ChainFamily
	dst entities.ChainFamily
}

func routeLabel(src, dst entities.ChainFamily) string {
	return string(src) + "->" + string(dst)
}

// ExecuteTransfer runs one transfer to a terminal state. Requests that fail
// validation return a ValidationError or UnknownChain and leave no record.
// Every later failure is captured in the returned failed record, with a nil
// error.
func (d *TransferDispatcher) ExecuteTransfer(ctx context.Context, req *entities.TransferRequest) (*entities.TransferRecord, error) {
	src, dst, err := d.validate(req)
	if err != nil {
		d.metrics.ObserveTransfer("unknown", transferStatusRejected)
		logger.Warn(ctx, "Transfer rejected", zap.Error(err))
		return nil, err
	}

	now := d.now().UTC()
	record := &entities.TransferRecord{
		ID:                   d.newID(),
		CreatedAt:            now,
		UpdatedAt:            now,
		Status:               entities.TransferStatusProcessing,
		SourceChain:          src.ID,
		SourceChainName:      src.Name,
		DestinationChain:     dst.ID,
		DestinationChainName: dst.Name,
		Amount:               strings.TrimSpace(req.Amount),
		Asset:                strings.TrimSpace(req.Asset),
		Sender:               entities.UnknownSender,
		Receiver:             strings.TrimSpace(req.Receiver),
		FeeToken:             strings.TrimSpace(req.FeeToken),
	}
	if err := d.store.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store transfer: %w", err)
	}

	// Once a record exists the transfer must finish even if the caller leaves.
	ctx = logger.ContextWithTransferID(context.WithoutCancel(ctx), record.ID)
	plan := &transferPlan{
		id:    record.ID,
		req:   req,
		src:   src,
		dst:   dst,
		route: routeLabel(src.Family, dst.Family),
	}
	logger.Info(ctx, "Transfer accepted",
		zap.String("route", plan.route),
		zap.String("source", src.ID),
		zap.String("destination", dst.ID),
	)

	return d.finish(ctx, plan, d.dispatch(ctx, plan))
}

func (d *TransferDispatcher) validate(req *entities.TransferRequest) (*entities.ChainDescriptor, *entities.ChainDescriptor, error) {
	if req == nil {
		return nil, nil, domainerrors.Transferf(domainerrors.KindValidation, "request is required")
	}
	for _, f := range []struct{ name, value string }{
		{"sourceChain", req.SourceChain},
		{"destinationChain", req.DestinationChain},
		{"amount", req.Amount},
		{"asset", req.Asset},
		{"receiver", req.Receiver},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, nil, domainerrors.Transferf(domainerrors.KindValidation, "%s is required", f.name)
		}
	}

	src, err := d.registry.Describe(strings.TrimSpace(req.SourceChain))
	if err != nil {
		return nil, nil, err
	}
	dst, err := d.registry.Describe(strings.TrimSpace(req.DestinationChain))
	if err != nil {
		return nil, nil, err
	}
	if _, err := ParseAmount(req.Amount); err != nil {
		return nil, nil, domainerrors.NewTransferError(domainerrors.KindValidation, err)
	}
	return src, dst, nil
}

// dispatch classifies the family pair and runs the matching route.
func (d *TransferDispatcher) dispatch(ctx context.Context, p *transferPlan) error {
	srcFamily, err := d.registry.FamilyOf(p.src.ID)
	if err != nil {
		return err
	}
	dstFamily, err := d.registry.FamilyOf(p.dst.ID)
	if err != nil {
		return err
	}
	if p.src.ID == p.dst.ID {
		return domainerrors.Transferf(domainerrors.KindUnsupportedRoute, "source and destination are both %s", p.src.ID)
	}

	switch (familyPair{src: srcFamily, dst: dstFamily}) {
	case familyPair{src: entities.FamilyEVM, dst: entities.FamilyEVM},
		familyPair{src: entities.FamilyEVM, dst: entities.FamilySVM}:
		return d.sendFromEVM(ctx, p)
	case familyPair{src: entities.FamilySVM, dst: entities.FamilyEVM}:
		return d.sendFromSVM(ctx, p)
	default:
		return domainerrors.Transferf(domainerrors.KindUnsupportedRoute, "%s to %s transfers are not supported", srcFamily, dstFamily)
	}
}

// finish moves the record to its terminal state.
func (d *TransferDispatcher) finish(ctx context.Context, p *transferPlan, runErr error) (*entities.TransferRecord, error) {
	upd := entities.TransferUpdate{}
	if p.sender != "" {
		upd.Sender = &p.sender
	}
	if p.feeToken != "" {
		upd.FeeToken = &p.feeToken
	}
	if p.fee != "" {
		upd.Fee = &p.fee
	}
	if p.txHash != "" {
		upd.TxHash = &p.txHash
		if url := p.src.ExplorerURL(p.txHash); url != "" {
			upd.ExplorerURL = &url
		}
	}

	status := entities.TransferStatusCompleted
	if runErr != nil {
		status = entities.TransferStatusFailed
		msg := asTransferError(runErr).Error()
		upd.Error = &msg
	} else {
		upd.MessageID = &p.messageID
	}

	record, err := d.writeTerminal(ctx, p.id, status, upd)
	if err != nil {
		logger.Error(ctx, "Failed to finalize transfer", zap.String("status", string(status)), zap.Error(err))
		return nil, fmt.Errorf("failed to finalize transfer %s: %w", p.id, err)
	}
	d.metrics.ObserveTransfer(p.route, string(status))

	if runErr != nil {
		logger.Warn(ctx, "Transfer failed",
			zap.String("route", p.route),
			zap.String("tx_hash", p.txHash),
			zap.String("kind", string(domainerrors.KindOf(runErr))),
			zap.Error(runErr),
		)
	} else {
		logger.Info(ctx, "Transfer completed",
			zap.String("route", p.route),
			zap.String("tx_hash", p.txHash),
			zap.String("message_id", p.messageID),
		)
	}
	return record, nil
}

// writeTerminal stores the terminal status, retrying a failed write once. A
// retry that finds the record already terminal means the first write landed.
func (d *TransferDispatcher) writeTerminal(ctx context.Context, id string, status entities.TransferStatus, upd entities.TransferUpdate) (*entities.TransferRecord, error) {
	var record *entities.TransferRecord
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			rec, err := d.store.Update(ctx, id, status, upd)
			switch {
			case err == nil:
				record = rec
				return nil
			case errors.Is(err, domainerrors.ErrTerminalState) && attempt > 1:
				stored, getErr := d.store.Get(ctx, id)
				if getErr == nil && stored.Status == status {
					record = stored
					return nil
				}
				return retry.Unrecoverable(err)
			case errors.Is(err, domainerrors.ErrNotFound), errors.Is(err, domainerrors.ErrTerminalState):
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(finalizeAttempts),
		retry.Delay(d.finalizeDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(_ uint, err error) {
			logger.Warn(ctx, "Retrying terminal transfer write", zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func asTransferError(err error) *domainerrors.TransferError {
	var te *domainerrors.TransferError
	if errors.As(err, &te) {
		return te
	}
	return domainerrors.NewTransferError(domainerrors.KindSubmissionFailed, err)
}

// messagePayload is the family-independent part of a CCIP message.
type messagePayload struct {
	receiver  []byte
	extraArgs []byte
	token     entities.TokenInfo
}

func (d *TransferDispatcher) buildPayload(p *transferPlan, explicitExtraArgs bool) (*messagePayload, error) {
	receiver, err := d.codec.EncodeReceiver(p.dst.Family, p.req.Receiver)
	if err != nil {
		return nil, err
	}
	opts := ExtraArgsOptions{
		GasLimit: p.req.GasLimit,
		Explicit: explicitExtraArgs,
	}
	// Every message carries the transferred token, and an SVM destination
	// refuses token amounts without a token receiver account.
	if p.dst.Family == entities.FamilySVM {
		copy(opts.TokenReceiver[:], receiver)
	}
	extraArgs, err := d.codec.BuildExtraArgs(p.dst.Family, opts)
	if err != nil {
		return nil, domainerrors.NewTransferError(domainerrors.KindValidation, err)
	}
	token, err := resolveAsset(p.src, p.req.Asset)
	if err != nil {
		return nil, err
	}
	p.feeToken = d.feeTokens.Resolve(p.src, p.req.FeeToken)
	return &messagePayload{receiver: receiver, extraArgs: extraArgs, token: token}, nil
}

// resolveAsset accepts a known symbol or a token address of the source chain.
func resolveAsset(chain *entities.ChainDescriptor, asset string) (entities.TokenInfo, error) {
	asset = strings.TrimSpace(asset)
	if tok, ok := chain.TokenBySymbol(asset); ok {
		return tok, nil
	}
	if IsTokenRef(chain.Family, asset) {
		if tok, ok := chain.TokenByAddress(asset); ok {
			return tok, nil
		}
		return entities.TokenInfo{Address: asset}, nil
	}
	return entities.TokenInfo{}, domainerrors.Transferf(domainerrors.KindValidation, "unknown asset %q on %s", asset, chain.ID)
}

func confirmationDepth(chain *entities.ChainDescriptor) uint64 {
	if chain.ConfirmationDepth == 0 {
		return 1
	}
	return chain.ConfirmationDepth
}

func waitError(txHash string, err error) error {
	switch {
	case errors.Is(err, blockchain.ErrConfirmationTimeout):
		return domainerrors.NewTransferError(domainerrors.KindConfirmationTimeout, err)
	case errors.Is(err, blockchain.ErrTxReverted):
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "transaction %s reverted", txHash)
	default:
		return domainerrors.Transferf(domainerrors.KindSubmissionFailed, "waiting for %s failed: %v", txHash, err)
	}
}

// GetTransfer returns one stored transfer.
func (d *TransferDispatcher) GetTransfer(ctx context.Context, id string) (*entities.TransferRecord, error) {
	return d.store.Get(ctx, strings.TrimSpace(id))
}

// ListTransfers returns the most recent transfers first.
func (d *TransferDispatcher) ListTransfers(ctx context.Context, limit int) ([]*entities.TransferRecord, error) {
	return d.store.List(ctx, utils.ClampLimit(limit))
}
