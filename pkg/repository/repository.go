package repository

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/solclient"
)

// Ledger reads balances from the chain and submits signed transactions.
type Ledger interface {
	GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	ListTokenHoldings(ctx context.Context, owner solana.PublicKey) ([]models.TokenHolding, error)
	LatestReference(ctx context.Context) (models.ReferencePoint, error)
	Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	AwaitConfirmation(ctx context.Context, sig solana.Signature, ref models.ReferencePoint, level rpc.CommitmentType) error
}

// TokenAccounts resolves token holding accounts and builds the instructions that move tokens.
type TokenAccounts interface {
	ResolveHoldingAccount(mint, owner solana.PublicKey) (solana.PublicKey, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
	BuildCreateAccountInstruction(payer, owner, mint solana.PublicKey) solana.Instruction
	BuildTransferInstruction(source, mint, destination, owner solana.PublicKey, amount uint64, decimals uint8) solana.Instruction
	BuildNativeTransferInstruction(from, to solana.PublicKey, lamports uint64) solana.Instruction
}

type Repository struct {
	Ledger
	TokenAccounts
	Endpoint string
}

func NewRepository(client *solclient.Client) *Repository {
	return &Repository{
		Ledger:        client,
		TokenAccounts: client,
		Endpoint:      client.Endpoint(),
	}
}
