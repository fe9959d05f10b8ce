package service

import (
	"context"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"

	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/solclient"
)

type mockLedger struct {
	getBalance        func(ctx context.Context, owner solana.PublicKey) (uint64, error)
	listTokenHoldings func(ctx context.Context, owner solana.PublicKey) ([]models.TokenHolding, error)
	latestReference   func(ctx context.Context) (models.ReferencePoint, error)
	send              func(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	awaitConfirmation func(ctx context.Context, sig solana.Signature, ref models.ReferencePoint, level rpc.CommitmentType) error

	balanceCalls atomic.Int64
	sendCalls    atomic.Int64
}

func (m *mockLedger) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	m.balanceCalls.Add(1)
	if m.getBalance == nil {
		return 0, nil
	}
	return m.getBalance(ctx, owner)
}

func (m *mockLedger) ListTokenHoldings(ctx context.Context, owner solana.PublicKey) ([]models.TokenHolding, error) {
	if m.listTokenHoldings == nil {
		return nil, nil
	}
	return m.listTokenHoldings(ctx, owner)
}

func (m *mockLedger) LatestReference(ctx context.Context) (models.ReferencePoint, error) {
	if m.latestReference == nil {
		return models.ReferencePoint{Blockhash: solana.Hash{9}, LastValidBlockHeight: 100}, nil
	}
	return m.latestReference(ctx)
}

func (m *mockLedger) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	m.sendCalls.Add(1)
	if m.send == nil {
		return tx.Signatures[0], nil
	}
	return m.send(ctx, tx)
}

func (m *mockLedger) AwaitConfirmation(ctx context.Context, sig solana.Signature, ref models.ReferencePoint, level rpc.CommitmentType) error {
	if m.awaitConfirmation == nil {
		return nil
	}
	return m.awaitConfirmation(ctx, sig, ref, level)
}

// mockAccounts derives accounts through the real client and fakes existence.
type mockAccounts struct {
	*solclient.Client
	accountExists func(ctx context.Context, account solana.PublicKey) (bool, error)
	resolveErr    error
}

func (m *mockAccounts) ResolveHoldingAccount(mint, owner solana.PublicKey) (solana.PublicKey, error) {
	if m.resolveErr != nil {
		return solana.PublicKey{}, m.resolveErr
	}
	return m.Client.ResolveHoldingAccount(mint, owner)
}

func (m *mockAccounts) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	if m.accountExists == nil {
		return true, nil
	}
	return m.accountExists(ctx, account)
}

func newMockAccounts() *mockAccounts {
	return &mockAccounts{Client: solclient.New(solclient.Config{Endpoint: "http://127.0.0.1:0"})}
}

var errNodeDown = errors.New("connection refused")
