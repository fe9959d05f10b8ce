package solclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"solana_wallet_dashboard/models"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBlockhashExpired  = errors.New("block height exceeded, transaction expired")
)

// TransactionFailedError carries the error a landed transaction reported.
type TransactionFailedError struct {
	Signature string
	Err       interface{}
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}

type Config struct {
	Endpoint            string
	BalanceCommitment   string
	ConfirmPollInterval time.Duration
	SkipPreflight       bool
	ReadAttempts        int
}

type Client struct {
	rpc *rpc.Client
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = rpc.DevNet_RPC
	}
	if cfg.BalanceCommitment == "" {
		cfg.BalanceCommitment = string(rpc.CommitmentProcessed)
	}
	if cfg.ConfirmPollInterval <= 0 {
		cfg.ConfirmPollInterval = time.Second
	}
	if cfg.ReadAttempts <= 0 {
		cfg.ReadAttempts = 1
	}
	return &Client{
		rpc: rpc.New(cfg.Endpoint),
		cfg: cfg,
	}
}

func (c *Client) Endpoint() string {
	return c.cfg.Endpoint
}

// Ping checks that the node answers and reports itself healthy.
func (c *Client) Ping(ctx context.Context) error {
	health, err := c.rpc.GetHealth(ctx)
	if err != nil {
		return errors.Wrap(err, "getHealth")
	}
	if health != "ok" {
		return errors.Errorf("node unhealthy: %s", health)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rpc.Close()
}

func (c *Client) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	var lamports uint64
	err := retry(ctx, c.cfg.ReadAttempts, 200*time.Millisecond, 2*time.Second, func() error {
		res, err := c.rpc.GetBalance(ctx, owner, rpc.CommitmentType(c.cfg.BalanceCommitment))
		if err != nil {
			return err
		}
		lamports = res.Value
		return nil
	})
	return lamports, errors.Wrap(err, "getBalance")
}

func (c *Client) ListTokenHoldings(ctx context.Context, owner solana.PublicKey) ([]models.TokenHolding, error) {
	programID := solana.TokenProgramID
	var res *rpc.GetTokenAccountsResult
	err := retry(ctx, c.cfg.ReadAttempts, 200*time.Millisecond, 2*time.Second, func() error {
		var err error
		res, err = c.rpc.GetTokenAccountsByOwner(ctx, owner,
			&rpc.GetTokenAccountsConfig{ProgramId: &programID},
			&rpc.GetTokenAccountsOpts{
				Commitment: rpc.CommitmentType(c.cfg.BalanceCommitment),
				Encoding:   solana.EncodingJSONParsed,
			},
		)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "getTokenAccountsByOwner")
	}

	holdings := make([]models.TokenHolding, 0, len(res.Value))
	for _, acc := range res.Value {
		if acc == nil || acc.Account.Data == nil {
			continue
		}
		h, err := parseTokenAccount(acc.Account.Data.GetRawJSON())
		if err != nil {
			return nil, errors.Wrapf(err, "token account %s", acc.Pubkey)
		}
		h.Account = acc.Pubkey.String()
		holdings = append(holdings, h)
	}
	return holdings, nil
}

type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount struct {
				Amount   string `json:"amount"`
				Decimals uint8  `json:"decimals"`
			} `json:"tokenAmount"`
		} `json:"info"`
		Type string `json:"type"`
	} `json:"parsed"`
}

func parseTokenAccount(raw json.RawMessage) (models.TokenHolding, error) {
	if len(raw) == 0 {
		return models.TokenHolding{}, errors.New("account data is not jsonParsed")
	}
	var p parsedTokenAccount
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.TokenHolding{}, errors.Wrap(err, "decode parsed token account")
	}
	info := p.Parsed.Info
	if info.Mint == "" {
		return models.TokenHolding{}, errors.New("parsed token account has no mint")
	}
	amount, ok := new(big.Int).SetString(info.TokenAmount.Amount, 10)
	if !ok || amount.Sign() < 0 {
		return models.TokenHolding{}, errors.Errorf("bad token amount %q", info.TokenAmount.Amount)
	}
	return models.TokenHolding{
		Mint:      info.Mint,
		RawAmount: amount,
		Decimals:  info.TokenAmount.Decimals,
	}, nil
}

func (c *Client) LatestReference(ctx context.Context) (models.ReferencePoint, error) {
	var ref models.ReferencePoint
	err := retry(ctx, c.cfg.ReadAttempts, 200*time.Millisecond, 2*time.Second, func() error {
		res, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			return err
		}
		if res == nil || res.Value == nil {
			return errors.New("empty getLatestBlockhash result")
		}
		ref = models.ReferencePoint{
			Blockhash:            res.Value.Blockhash,
			LastValidBlockHeight: res.Value.LastValidBlockHeight,
		}
		return nil
	})
	return ref, errors.Wrap(err, "getLatestBlockhash")
}

// Send broadcasts a signed transaction with preflight simulation.
func (c *Client) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       c.cfg.SkipPreflight,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return solana.Signature{}, classifySendError(err)
	}
	return sig, nil
}

func classifySendError(err error) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		text := strings.ToLower(rpcErr.Message + " " + fmt.Sprint(rpcErr.Data))
		if isInsufficientText(text) {
			return errors.Wrap(ErrInsufficientFunds, rpcErr.Message)
		}
		return errors.Wrap(err, "sendTransaction")
	}
	return errors.Wrap(err, "sendTransaction")
}

func isInsufficientText(text string) bool {
	text = strings.ToLower(text)
	return strings.Contains(text, "insufficient") ||
		strings.Contains(text, "no record of a prior credit")
}

// AwaitConfirmation polls the signature status until it reaches level,
// the transaction fails, its blockhash expires or ctx ends.
func (c *Client) AwaitConfirmation(ctx context.Context, sig solana.Signature, ref models.ReferencePoint, level rpc.CommitmentType) error {
	ticker := time.NewTicker(c.cfg.ConfirmPollInterval)
	defer ticker.Stop()

	for {
		res, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			logrus.WithError(err).WithField("signature", sig.String()).Debug("getSignatureStatuses failed, retrying")
		} else if res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				failed := &TransactionFailedError{Signature: sig.String(), Err: status.Err}
				if isInsufficientText(fmt.Sprint(status.Err)) {
					return errors.Wrap(ErrInsufficientFunds, failed.Error())
				}
				return failed
			}
			if reached(status.ConfirmationStatus, level) {
				return nil
			}
		}

		if ref.LastValidBlockHeight > 0 {
			height, err := c.rpc.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
			if err == nil && height > ref.LastValidBlockHeight {
				return ErrBlockhashExpired
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

var commitmentRank = map[string]int{
	string(rpc.ConfirmationStatusProcessed): 1,
	string(rpc.ConfirmationStatusConfirmed): 2,
	string(rpc.ConfirmationStatusFinalized): 3,
}

func reached(status rpc.ConfirmationStatusType, level rpc.CommitmentType) bool {
	want, ok := commitmentRank[string(level)]
	if !ok {
		want = commitmentRank[string(rpc.ConfirmationStatusConfirmed)]
	}
	return commitmentRank[string(status)] >= want
}

// ResolveHoldingAccount derives the associated token account of owner for mint.
func (c *Client) ResolveHoldingAccount(mint, owner solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, errors.Wrapf(err, "derive token account of %s for mint %s", owner, mint)
	}
	return ata, nil
}

func (c *Client) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	_, err := c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "getAccountInfo")
	}
	return true, nil
}

func (c *Client) BuildCreateAccountInstruction(payer, owner, mint solana.PublicKey) solana.Instruction {
	return associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
}

func (c *Client) BuildTransferInstruction(source, mint, destination, owner solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	return token.NewTransferCheckedInstruction(amount, decimals, source, mint, destination, owner, nil).Build()
}

func (c *Client) BuildNativeTransferInstruction(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, to).Build()
}
