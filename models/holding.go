package models

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

type HoldingKind string

const (
	HoldingNative HoldingKind = "native"
	HoldingToken  HoldingKind = "token"
)

const (
	NativeSymbol   = "SOL"
	NativeDecimals = 9
)

// Holding is one asset balance of the connected address.
// RawAmount is authoritative, DisplayAmount is only a projection of it.
type Holding struct {
	Kind          HoldingKind
	AssetID       string // mint, empty for native
	Account       string // token holding account, empty for native
	Symbol        string
	Decimals      uint8
	RawAmount     *big.Int
	DisplayAmount decimal.Decimal
}

func (h Holding) IsNative() bool {
	return h.Kind == HoldingNative
}

type holdingJSON struct {
	Kind          HoldingKind     `json:"kind"`
	AssetID       string          `json:"asset_id,omitempty"`
	Account       string          `json:"account,omitempty"`
	Symbol        string          `json:"symbol"`
	Decimals      uint8           `json:"decimals"`
	RawAmount     string          `json:"raw_amount"`
	DisplayAmount decimal.Decimal `json:"amount"`
}

func (h Holding) MarshalJSON() ([]byte, error) {
	raw := "0"
	if h.RawAmount != nil {
		raw = h.RawAmount.String()
	}
	return json.Marshal(holdingJSON{
		Kind:          h.Kind,
		AssetID:       h.AssetID,
		Account:       h.Account,
		Symbol:        h.Symbol,
		Decimals:      h.Decimals,
		RawAmount:     raw,
		DisplayAmount: h.DisplayAmount,
	})
}

// TokenHolding is a single token account as reported by the ledger.
type TokenHolding struct {
	Mint      string
	Account   string
	RawAmount *big.Int
	Decimals  uint8
}

// ReferencePoint pins a transaction to a recent block.
type ReferencePoint struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

type BalanceState struct {
	Address   string     `json:"address,omitempty"`
	Holdings  []Holding  `json:"holdings"`
	Loading   bool       `json:"loading"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type ValuedHolding struct {
	Holding
	FiatValue *decimal.Decimal `json:"fiat_value,omitempty"`
}

func (v ValuedHolding) MarshalJSON() ([]byte, error) {
	base, err := v.Holding.MarshalJSON()
	if err != nil || v.FiatValue == nil {
		return base, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	m["fiat_value"] = v.FiatValue.String()
	return json.Marshal(m)
}
