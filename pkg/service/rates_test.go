package service

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/cache"
)

func TestRateService_Value(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/simple/price" || r.URL.Query().Get("ids") != "solana" || r.URL.Query().Get("vs_currencies") != "usd" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"solana":{"usd":150.5}}`))
	}))
	defer srv.Close()

	rates := NewRateService(RatesConfig{BaseURL: srv.URL}, cache.NewRateCache(time.Minute))
	holdings := []models.Holding{
		{Kind: models.HoldingNative, Symbol: "SOL", Decimals: 9, RawAmount: big.NewInt(2500000000), DisplayAmount: decimal.RequireFromString("2.5")},
		{Kind: models.HoldingToken, Symbol: "4zMMC9…DncDU", Decimals: 6, RawAmount: big.NewInt(1), DisplayAmount: decimal.RequireFromString("0.000001")},
	}

	for i := 0; i < 2; i++ {
		valued := rates.Value(context.Background(), holdings)
		if len(valued) != 2 {
			t.Fatalf("got %d holdings", len(valued))
		}
		if valued[0].FiatValue == nil || !valued[0].FiatValue.Equal(decimal.RequireFromString("376.25")) {
			t.Errorf("SOL value = %v", valued[0].FiatValue)
		}
		if valued[1].FiatValue != nil {
			t.Errorf("unknown token priced at %v", valued[1].FiatValue)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("%d rate requests, want 1 (second served from cache)", hits.Load())
	}
}
