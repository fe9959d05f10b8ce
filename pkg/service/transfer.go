package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/metrics"
	"solana_wallet_dashboard/pkg/repository"
	"solana_wallet_dashboard/pkg/utils"
)

const (
	DefaultConfirmTimeout = 90 * time.Second
	DefaultExplorerURL    = "https://solscan.io/tx/%s?cluster=devnet"
)

type TransferConfig struct {
	ConfirmTimeout time.Duration
	Commitment     rpc.CommitmentType
	// ExplorerURL is a format string taking the signature.
	ExplorerURL string
}

// TransferSubmitter runs one transfer attempt at a time through
// validating, preparing (tokens only), signing, sending and confirmed.
type TransferSubmitter struct {
	session  *Session
	ledger   repository.Ledger
	accounts repository.TokenAccounts
	cfg      TransferConfig
	metrics  *metrics.Metrics
	now      func() time.Time

	mu        sync.Mutex
	status    models.TransferStatus
	listeners []func(models.TransferStatus)
}

func NewTransferSubmitter(session *Session, ledger repository.Ledger, accounts repository.TokenAccounts, cfg TransferConfig, m *metrics.Metrics) *TransferSubmitter {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}
	if cfg.ExplorerURL == "" {
		cfg.ExplorerURL = DefaultExplorerURL
	}
	return &TransferSubmitter{
		session:  session,
		ledger:   ledger,
		accounts: accounts,
		cfg:      cfg,
		metrics:  m,
		now:      time.Now,
		status:   models.TransferStatus{Stage: models.StageIdle},
	}
}

// transferPlan is what validation produces for the later stages.
type transferPlan struct {
	attemptID string
	signer    wallet.Signer
	from      solana.PublicKey
	to        solana.PublicKey
	asset     models.Holding
	raw       uint64
}

// Submit runs a transfer attempt to completion. The returned error is a
// *TransferError, or ErrTransferInProgress when another attempt is active.
func (t *TransferSubmitter) Submit(ctx context.Context, req models.TransferRequest) (models.TransferStatus, error) {
	if _, err := t.begin(); err != nil {
		return t.Status(), err
	}
	return t.run(ctx, req)
}

// SubmitAsync starts an attempt and returns once it is registered. The
// attempt keeps running after ctx ends.
func (t *TransferSubmitter) SubmitAsync(ctx context.Context, req models.TransferRequest) (models.TransferStatus, error) {
	status, err := t.begin()
	if err != nil {
		return status, err
	}
	go t.run(context.WithoutCancel(ctx), req)
	return status, nil
}

func (t *TransferSubmitter) begin() (models.TransferStatus, error) {
	t.mu.Lock()
	if t.status.Stage.Active() {
		st := t.status
		t.mu.Unlock()
		return st, ErrTransferInProgress
	}
	now := t.now()
	t.status = models.TransferStatus{
		AttemptID: uuid.NewString(),
		Stage:     models.StageValidating,
		Stages:    []models.TransferStage{models.StageValidating},
		StartedAt: &now,
		UpdatedAt: &now,
	}
	t.mu.Unlock()

	t.metrics.ObserveStage(string(models.StageValidating))
	return t.publish(), nil
}

func (t *TransferSubmitter) run(ctx context.Context, req models.TransferRequest) (models.TransferStatus, error) {
	plan, terr := t.validate(req)
	if terr != nil {
		return t.fail(terr)
	}
	log := logrus.WithFields(logrus.Fields{
		"attempt_id": plan.attemptID,
		"asset":      plan.asset.Symbol,
		"to":         plan.to.String(),
	})

	var instructions []solana.Instruction
	if plan.asset.IsNative() {
		instructions = []solana.Instruction{
			t.accounts.BuildNativeTransferInstruction(plan.from, plan.to, plan.raw),
		}
	} else {
		t.advance(models.StagePreparing, nil)
		instructions, terr = t.prepare(ctx, plan)
		if terr != nil {
			return t.fail(terr)
		}
	}

	// Past this point the caller cannot cancel; only the confirmation
	// timeout bounds the attempt.
	ctx = context.WithoutCancel(ctx)
	t.advance(models.StageSigning, nil)

	ref, err := t.ledger.LatestReference(ctx)
	if err != nil {
		return t.fail(newTransferError(models.ErrKindNetwork, "", err))
	}
	tx, err := solana.NewTransaction(instructions, ref.Blockhash, solana.TransactionPayer(plan.from))
	if err != nil {
		return t.fail(newTransferError(models.ErrKindNetwork, "", errors.Wrap(err, "assemble transaction")))
	}
	summary := models.TransferSummary{
		AttemptID: plan.attemptID,
		From:      plan.from.String(),
		To:        plan.to.String(),
		Symbol:    plan.asset.Symbol,
		Amount:    req.HumanAmount,
		Raw:       fmt.Sprint(plan.raw),
	}
	if err := plan.signer.SignTransaction(ctx, tx, summary); err != nil {
		return t.fail(classify(err))
	}

	t.advance(models.StageSending, nil)
	sig, err := t.ledger.Send(ctx, tx)
	if err != nil {
		return t.fail(classify(err))
	}
	t.update(func(s *models.TransferStatus) {
		s.Signature = sig.String()
		s.ExplorerURL = fmt.Sprintf(t.cfg.ExplorerURL, sig.String())
	})
	log.WithField("signature", sig.String()).Info("transfer sent, waiting for confirmation")

	waitCtx, cancel := context.WithTimeout(ctx, t.cfg.ConfirmTimeout)
	defer cancel()
	if err := t.ledger.AwaitConfirmation(waitCtx, sig, ref, t.cfg.Commitment); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return t.fail(newTransferError(models.ErrKindConfirmationTimeout, msgTimeout, err))
		}
		return t.fail(classify(err))
	}

	t.advance(models.StageConfirmed, nil)
	st := t.Status()
	t.metrics.ObserveTransfer(string(st.Kind), string(models.StageConfirmed))
	log.WithField("signature", sig.String()).Info("transfer confirmed")
	return st, nil
}

func (t *TransferSubmitter) validate(req models.TransferRequest) (transferPlan, *TransferError) {
	t.mu.Lock()
	attemptID := t.status.AttemptID
	t.mu.Unlock()
	plan := transferPlan{attemptID: attemptID}

	conn := t.session.Connection()
	signer := t.session.Signer()
	if !conn.Connected || signer == nil {
		return plan, newTransferError(models.ErrKindValidation, msgNotConnected, nil)
	}
	if req.Asset == nil {
		return plan, newTransferError(models.ErrKindValidation, msgNoAsset, nil)
	}
	asset := *req.Asset
	t.update(func(s *models.TransferStatus) {
		s.Kind = asset.Kind
		s.Symbol = asset.Symbol
		s.Destination = req.Destination
		s.HumanAmount = req.HumanAmount
	})

	to, err := wallet.ParseAddress(req.Destination)
	if err != nil {
		return plan, newTransferError(models.ErrKindValidation, msgInvalidAddress, err)
	}
	raw, err := utils.ToRawUint64(req.HumanAmount, asset.Decimals)
	if err != nil {
		return plan, newTransferError(models.ErrKindValidation, msgInvalidAmount, err)
	}
	t.update(func(s *models.TransferStatus) {
		s.RawAmount = fmt.Sprint(raw)
	})

	plan.signer = signer
	plan.from = signer.PublicKey()
	plan.to = to
	plan.asset = asset
	plan.raw = raw
	return plan, nil
}

// prepare resolves both token holding accounts and creates the destination's
// in the same transaction when it does not exist yet.
func (t *TransferSubmitter) prepare(ctx context.Context, plan transferPlan) ([]solana.Instruction, *TransferError) {
	mint, err := wallet.ParseAddress(plan.asset.AssetID)
	if err != nil {
		return nil, newTransferError(models.ErrKindUnresolvedAsset, msgUnresolvedAsset, err)
	}
	source, err := t.accounts.ResolveHoldingAccount(mint, plan.from)
	if err != nil {
		return nil, newTransferError(models.ErrKindUnresolvedAsset, msgUnresolvedAsset, err)
	}
	destination, err := t.accounts.ResolveHoldingAccount(mint, plan.to)
	if err != nil {
		return nil, newTransferError(models.ErrKindUnresolvedAsset, msgUnresolvedAsset, err)
	}
	exists, err := t.accounts.AccountExists(ctx, destination)
	if err != nil {
		return nil, newTransferError(models.ErrKindNetwork, "", err)
	}

	instructions := make([]solana.Instruction, 0, 2)
	if !exists {
		logrus.WithFields(logrus.Fields{
			"attempt_id": plan.attemptID,
			"account":    destination.String(),
		}).Info("destination token account missing, creating it with the transfer")
		instructions = append(instructions, t.accounts.BuildCreateAccountInstruction(plan.from, plan.to, mint))
	}
	instructions = append(instructions,
		t.accounts.BuildTransferInstruction(source, mint, destination, plan.from, plan.raw, plan.asset.Decimals))
	return instructions, nil
}

func (t *TransferSubmitter) advance(stage models.TransferStage, fn func(*models.TransferStatus)) {
	t.update(func(s *models.TransferStatus) {
		s.Stage = stage
		s.Stages = append(s.Stages, stage)
		if fn != nil {
			fn(s)
		}
	})
	t.metrics.ObserveStage(string(stage))
}

func (t *TransferSubmitter) fail(terr *TransferError) (models.TransferStatus, error) {
	t.advance(models.StageError, func(s *models.TransferStatus) {
		s.ErrorKind = terr.Kind
		s.Message = terr.Message
	})
	st := t.Status()
	t.metrics.ObserveTransfer(string(st.Kind), string(terr.Kind))

	entry := logrus.WithFields(logrus.Fields{
		"attempt_id": st.AttemptID,
		"kind":       terr.Kind,
	})
	if terr.Err != nil {
		entry = entry.WithError(terr.Err)
	}
	entry.Warn("transfer failed: " + terr.Message)
	return st, terr
}

func (t *TransferSubmitter) update(fn func(*models.TransferStatus)) {
	t.mu.Lock()
	fn(&t.status)
	now := t.now()
	t.status.UpdatedAt = &now
	t.mu.Unlock()
	t.publish()
}

func (t *TransferSubmitter) publish() models.TransferStatus {
	t.mu.Lock()
	st := t.statusLocked()
	listeners := append([]func(models.TransferStatus){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
	return st
}

func (t *TransferSubmitter) Status() models.TransferStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

func (t *TransferSubmitter) statusLocked() models.TransferStatus {
	st := t.status
	st.Stages = append([]models.TransferStage(nil), t.status.Stages...)
	return st
}

// Reset acknowledges a finished attempt and returns to idle.
func (t *TransferSubmitter) Reset() (models.TransferStatus, error) {
	t.mu.Lock()
	if t.status.Stage.Active() {
		st := t.statusLocked()
		t.mu.Unlock()
		return st, ErrTransferInProgress
	}
	t.status = models.TransferStatus{Stage: models.StageIdle}
	t.mu.Unlock()
	return t.publish(), nil
}

// OnTransition registers fn to receive every status change.
func (t *TransferSubmitter) OnTransition(fn func(models.TransferStatus)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}
