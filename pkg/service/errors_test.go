package service

import (
	"testing"

	"github.com/pkg/errors"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/solclient"
	"solana_wallet_dashboard/pkg/utils"
)

func TestFriendlyMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "declined", err: errors.Wrap(wallet.ErrUserRejected, "sign"), want: msgDeclined},
		{name: "insufficient", err: solclient.ErrInsufficientFunds, want: msgInsufficientFunds},
		{name: "bad address", err: wallet.ErrInvalidAddress, want: msgInvalidAddress},
		{name: "bad amount", err: utils.ErrInvalidAmount, want: msgInvalidAmount},
		{name: "in progress", err: ErrTransferInProgress, want: msgInProgress},
		{name: "typed", err: newTransferError(models.ErrKindConfirmationTimeout, msgTimeout, nil), want: msgTimeout},
		{name: "unknown passes through", err: errors.New("Blockhash not found"), want: "Blockhash not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FriendlyMessage(tt.err); got != tt.want {
				t.Errorf("FriendlyMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		kind models.ErrorKind
	}{
		{err: wallet.ErrUserRejected, kind: models.ErrKindSigningDeclined},
		{err: errors.Wrap(solclient.ErrInsufficientFunds, "preflight"), kind: models.ErrKindInsufficientFunds},
		{err: &solclient.TransactionFailedError{Signature: "x", Err: "InstructionError"}, kind: models.ErrKindNetwork},
		{err: solclient.ErrBlockhashExpired, kind: models.ErrKindNetwork},
	}
	for _, tt := range tests {
		if got := classify(tt.err).Kind; got != tt.kind {
			t.Errorf("classify(%v) = %s, want %s", tt.err, got, tt.kind)
		}
	}
}
