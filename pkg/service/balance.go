package service

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/metrics"
	"solana_wallet_dashboard/pkg/repository"
	"solana_wallet_dashboard/pkg/utils"
)

// BalanceReader owns the holdings shown for the connected address.
// Other components only read them.
type BalanceReader struct {
	ledger  repository.Ledger
	aliases map[string]string
	metrics *metrics.Metrics

	mu        sync.RWMutex
	address   string
	holdings  []models.Holding
	loading   bool
	lastErr   string
	updatedAt *time.Time
	started   uint64
	applied   uint64
	listeners []func(models.BalanceState)
}

// NewBalanceReader labels tokens whose mint is in aliases with the alias,
// others with a shortened mint.
func NewBalanceReader(ledger repository.Ledger, aliases map[string]string, m *metrics.Metrics) *BalanceReader {
	known := make(map[string]string, len(aliases))
	for mint, symbol := range aliases {
		known[mint] = symbol
	}
	return &BalanceReader{
		ledger:  ledger,
		aliases: known,
		metrics: m,
	}
}

// Refresh reads the holdings of address and publishes them. A nil address
// clears the holdings without touching the ledger. Failures end up in the
// state, never in a return value.
func (r *BalanceReader) Refresh(ctx context.Context, address *solana.PublicKey) models.BalanceState {
	if address == nil {
		r.Clear()
		return r.State()
	}
	addr := address.String()

	r.mu.Lock()
	r.started++
	seq := r.started
	if r.address != addr {
		r.address = addr
		r.holdings = nil
		r.lastErr = ""
		r.updatedAt = nil
	}
	r.loading = true
	r.mu.Unlock()

	started := time.Now()
	holdings, err := r.fetch(ctx, *address)

	state, applied := r.apply(ctx, addr, seq, started, holdings, err)
	if applied {
		r.notify(state)
	}
	return state
}

func (r *BalanceReader) apply(ctx context.Context, addr string, seq uint64, started time.Time, holdings []models.Holding, err error) (models.BalanceState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.address != addr || seq < r.applied {
		logrus.WithFields(logrus.Fields{"address": addr, "seq": seq}).Debug("discarding stale balance fetch")
		return r.stateLocked(), false
	}
	if err != nil && ctx.Err() != nil {
		// cancelled by the poller, not a ledger failure
		if seq == r.started {
			r.loading = false
		}
		return r.stateLocked(), false
	}

	r.applied = seq
	if seq == r.started {
		r.loading = false
	}
	now := time.Now()
	r.updatedAt = &now
	r.metrics.ObserveRefresh(started, err)

	if err != nil {
		logrus.WithError(err).WithField("address", addr).Warn("balance refresh failed")
		r.holdings = nil
		r.lastErr = err.Error()
		return r.stateLocked(), true
	}

	r.holdings = holdings
	r.lastErr = ""
	r.metrics.SetHoldings(len(holdings), nativeAmount(holdings))
	return r.stateLocked(), true
}

// OnUpdate registers fn to receive every applied refresh.
func (r *BalanceReader) OnUpdate(fn func(models.BalanceState)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *BalanceReader) notify(state models.BalanceState) {
	r.mu.RLock()
	listeners := append([]func(models.BalanceState){}, r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		fn(state)
	}
}

func (r *BalanceReader) fetch(ctx context.Context, owner solana.PublicKey) ([]models.Holding, error) {
	lamports, err := r.ledger.GetBalance(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "read native balance")
	}
	tokens, err := r.ledger.ListTokenHoldings(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "read token holdings")
	}

	raw := new(big.Int).SetUint64(lamports)
	holdings := make([]models.Holding, 0, len(tokens)+1)
	holdings = append(holdings, models.Holding{
		Kind:          models.HoldingNative,
		Symbol:        models.NativeSymbol,
		Decimals:      models.NativeDecimals,
		RawAmount:     raw,
		DisplayAmount: utils.ToDisplayAmount(raw, models.NativeDecimals),
	})
	for _, t := range tokens {
		holdings = append(holdings, models.Holding{
			Kind:          models.HoldingToken,
			AssetID:       t.Mint,
			Account:       t.Account,
			Symbol:        r.symbol(t.Mint),
			Decimals:      t.Decimals,
			RawAmount:     t.RawAmount,
			DisplayAmount: utils.ToDisplayAmount(t.RawAmount, t.Decimals),
		})
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].DisplayAmount.GreaterThan(holdings[j].DisplayAmount)
	})
	return holdings, nil
}

func (r *BalanceReader) symbol(mint string) string {
	if s, ok := r.aliases[mint]; ok {
		return s
	}
	return utils.ShortID(mint, 6, 6)
}

// Clear drops the holdings and invalidates fetches still in flight.
func (r *BalanceReader) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	r.applied = r.started
	r.address = ""
	r.holdings = nil
	r.lastErr = ""
	r.loading = false
	r.updatedAt = nil
}

func (r *BalanceReader) State() models.BalanceState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stateLocked()
}

func (r *BalanceReader) stateLocked() models.BalanceState {
	holdings := make([]models.Holding, len(r.holdings))
	copy(holdings, r.holdings)
	return models.BalanceState{
		Address:   r.address,
		Holdings:  holdings,
		Loading:   r.loading,
		Error:     r.lastErr,
		UpdatedAt: r.updatedAt,
	}
}

// Holding finds a displayed holding by mint, symbol, or "native"/"SOL" for
// the native balance.
func (r *BalanceReader) Holding(asset string) (models.Holding, bool) {
	asset = strings.TrimSpace(asset)
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.holdings {
		switch {
		case h.IsNative() && (asset == "" || strings.EqualFold(asset, string(models.HoldingNative)) || strings.EqualFold(asset, models.NativeSymbol)):
			return h, true
		case !h.IsNative() && (asset == h.AssetID || strings.EqualFold(asset, h.Symbol)):
			return h, true
		}
	}
	return models.Holding{}, false
}

func nativeAmount(holdings []models.Holding) float64 {
	for _, h := range holdings {
		if h.IsNative() {
			f, _ := h.DisplayAmount.Float64()
			return f
		}
	}
	return 0
}
