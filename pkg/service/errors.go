package service

import (
	"fmt"

	"github.com/pkg/errors"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/solclient"
	"solana_wallet_dashboard/pkg/utils"
)

var ErrTransferInProgress = errors.New("a transfer is already in progress")

const (
	msgNotConnected      = "Connect your wallet first."
	msgNoAsset           = "Select a token."
	msgInvalidAmount     = "Invalid amount."
	msgInvalidAddress    = "The destination address is not valid."
	msgDeclined          = "Signature declined in the wallet."
	msgInsufficientFunds = "Insufficient funds for this transfer."
	msgUnresolvedAsset   = "Could not resolve the token account for this asset."
	msgTimeout           = "Timed out waiting for confirmation."
	msgInProgress        = "A transfer is already in progress."
)

// TransferError is the typed failure of a transfer attempt. Message is
// already fit for display.
type TransferError struct {
	Kind    models.ErrorKind
	Message string
	Err     error
}

func (e *TransferError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func newTransferError(kind models.ErrorKind, message string, err error) *TransferError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &TransferError{Kind: kind, Message: message, Err: err}
}

// classify turns an error from the signing agent or the ledger into a TransferError.
func classify(err error) *TransferError {
	var te *TransferError
	switch {
	case errors.As(err, &te):
		return te
	case errors.Is(err, wallet.ErrUserRejected):
		return newTransferError(models.ErrKindSigningDeclined, msgDeclined, err)
	case errors.Is(err, solclient.ErrInsufficientFunds):
		return newTransferError(models.ErrKindInsufficientFunds, msgInsufficientFunds, err)
	default:
		return newTransferError(models.ErrKindNetwork, "", err)
	}
}

// FriendlyMessage returns the text to show for err, or the raw error text
// when nothing more specific is known.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TransferError
	switch {
	case errors.As(err, &te):
		return te.Message
	case errors.Is(err, ErrTransferInProgress):
		return msgInProgress
	case errors.Is(err, wallet.ErrUserRejected):
		return msgDeclined
	case errors.Is(err, solclient.ErrInsufficientFunds):
		return msgInsufficientFunds
	case errors.Is(err, wallet.ErrInvalidAddress):
		return msgInvalidAddress
	case errors.Is(err, utils.ErrInvalidAmount), errors.Is(err, utils.ErrAmountTooLarge):
		return msgInvalidAmount
	}
	return err.Error()
}
