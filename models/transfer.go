package models

import "time"

type TransferStage string

const (
	StageIdle       TransferStage = "idle"
	StageValidating TransferStage = "validating"
	StagePreparing  TransferStage = "preparing"
	StageSigning    TransferStage = "signing"
	StageSending    TransferStage = "sending"
	StageConfirmed  TransferStage = "confirmed"
	StageError      TransferStage = "error"
)

// Active reports whether an attempt in this stage is still running.
func (s TransferStage) Active() bool {
	switch s {
	case StageValidating, StagePreparing, StageSigning, StageSending:
		return true
	}
	return false
}

type ErrorKind string

const (
	ErrKindValidation          ErrorKind = "validation"
	ErrKindSigningDeclined     ErrorKind = "signing_declined"
	ErrKindInsufficientFunds   ErrorKind = "insufficient_funds"
	ErrKindNetwork             ErrorKind = "network"
	ErrKindUnresolvedAsset     ErrorKind = "unresolved_asset"
	ErrKindConfirmationTimeout ErrorKind = "confirmation_timeout"
)

// TransferRequest is built from user input at submit time and never stored.
type TransferRequest struct {
	Asset       *Holding
	Destination string
	HumanAmount string
}

type TransferInput struct {
	Asset  string `json:"asset"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// TransferSummary is what the signing agent shows before it signs.
type TransferSummary struct {
	AttemptID string `json:"attempt_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Symbol    string `json:"symbol"`
	Amount    string `json:"amount"`
	Raw       string `json:"raw_amount"`
}

type TransferStatus struct {
	AttemptID   string          `json:"attempt_id,omitempty"`
	Stage       TransferStage   `json:"stage"`
	Stages      []TransferStage `json:"stages,omitempty"`
	Kind        HoldingKind     `json:"kind,omitempty"`
	Symbol      string          `json:"symbol,omitempty"`
	Destination string          `json:"destination,omitempty"`
	HumanAmount string          `json:"amount,omitempty"`
	RawAmount   string          `json:"raw_amount,omitempty"`
	Signature   string          `json:"signature,omitempty"`
	ExplorerURL string          `json:"explorer_url,omitempty"`
	ErrorKind   ErrorKind       `json:"error_kind,omitempty"`
	Message     string          `json:"message,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// Visited reports whether the attempt passed through stage.
func (s TransferStatus) Visited(stage TransferStage) bool {
	for _, st := range s.Stages {
		if st == stage {
			return true
		}
	}
	return false
}
