package wallet

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"solana_wallet_dashboard/models"
)

const addressLength = 32

var (
	// ErrUserRejected is returned when the owner declines to sign.
	ErrUserRejected   = errors.New("user rejected the request")
	ErrInvalidAddress = errors.New("invalid public key input")
	ErrInvalidSecret  = errors.New("invalid keypair secret")
)

// Signer authorizes transactions on behalf of the connected address.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction, summary models.TransferSummary) error
}

// KeypairSigner signs with a local ed25519 keypair after the approver agrees.
type KeypairSigner struct {
	key      solana.PrivateKey
	approver Approver
}

func NewKeypairSigner(key solana.PrivateKey, approver Approver) *KeypairSigner {
	if approver == nil {
		approver = AutoApprove
	}
	return &KeypairSigner{key: key, approver: approver}
}

func (s *KeypairSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

func (s *KeypairSigner) SignTransaction(ctx context.Context, tx *solana.Transaction, summary models.TransferSummary) error {
	if tx == nil {
		return errors.New("nil transaction")
	}
	pub := s.key.PublicKey()
	if len(tx.Message.AccountKeys) == 0 || !tx.Message.AccountKeys[0].Equals(pub) {
		return errors.Errorf("fee payer is not %s", pub)
	}

	ok, err := s.approver.Approve(ctx, summary)
	if err != nil {
		return errors.Wrap(err, "approval failed")
	}
	if !ok {
		return ErrUserRejected
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(pub) {
			return &s.key
		}
		return nil
	})
	return errors.Wrap(err, "sign transaction")
}

// GenerateKeypair creates a new random wallet keypair.
func GenerateKeypair() (solana.PrivateKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate keypair")
	}
	return key, nil
}

// ParseSecret accepts a base58 secret key or a solana-keygen style JSON byte array.
func ParseSecret(secret string) (solana.PrivateKey, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrInvalidSecret
	}

	var raw []byte
	if strings.HasPrefix(secret, "[") {
		if err := json.Unmarshal([]byte(secret), &raw); err != nil {
			return nil, errors.Wrap(ErrInvalidSecret, err.Error())
		}
	} else {
		decoded, err := base58.Decode(secret)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidSecret, err.Error())
		}
		raw = decoded
	}

	if len(raw) != 64 {
		return nil, errors.Wrapf(ErrInvalidSecret, "want 64 bytes, got %d", len(raw))
	}
	return solana.PrivateKey(raw), nil
}

// LoadKeypairFile reads a solana-keygen JSON file.
func LoadKeypairFile(path string) (solana.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read keypair file")
	}
	return ParseSecret(string(b))
}

// SaveKeypairFile writes key in solana-keygen JSON format.
func SaveKeypairFile(path string, key solana.PrivateKey) error {
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	b, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, b, 0600), "write keypair file")
}

// ParseAddress decodes a base58 account address.
func ParseAddress(address string) (solana.PublicKey, error) {
	address = strings.TrimSpace(address)
	decoded, err := base58.Decode(address)
	if err != nil || address == "" {
		return solana.PublicKey{}, errors.Wrapf(ErrInvalidAddress, "%q is not base58", address)
	}
	if len(decoded) != addressLength {
		return solana.PublicKey{}, errors.Wrapf(ErrInvalidAddress, "%q decodes to %d bytes", address, len(decoded))
	}
	return solana.PublicKeyFromBytes(decoded), nil
}
