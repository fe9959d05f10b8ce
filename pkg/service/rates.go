package service

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/cache"
)

const DefaultRatesURL = "https://api.coingecko.com/api/v3"

type RatesConfig struct {
	BaseURL  string
	APIKey   string
	Currency string
}

// RateService prices holdings in a fiat currency using CoinGecko simple prices.
type RateService struct {
	client   *resty.Client
	cache    *cache.RateCache
	currency string
}

func NewRateService(cfg RatesConfig, c *cache.RateCache) *RateService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRatesURL
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("x-cg-demo-api-key", cfg.APIKey)
	}
	return &RateService{
		client:   client,
		cache:    c,
		currency: strings.ToLower(cfg.Currency),
	}
}

func (s *RateService) Currency() string {
	return s.currency
}

// Rate returns the price of one unit of symbol.
func (s *RateService) Rate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	id, ok := currencyID(symbol)
	if !ok {
		return decimal.Zero, errors.Errorf("no price source for %s", symbol)
	}
	key := id + "_" + s.currency
	if rate, found := s.cache.Get(key); found {
		return rate, nil
	}

	var data map[string]map[string]decimal.Decimal
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           id,
			"vs_currencies": s.currency,
		}).
		SetResult(&data).
		Get("/simple/price")
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "coingecko request")
	}
	if resp.IsError() {
		return decimal.Zero, errors.Errorf("coingecko answered %s", resp.Status())
	}

	rate, ok := data[id][s.currency]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, errors.Errorf("no %s rate for %s", s.currency, id)
	}
	s.cache.Set(key, rate)
	return rate, nil
}

// Value prices every holding it has a rate for. Holdings without one are
// returned unpriced.
func (s *RateService) Value(ctx context.Context, holdings []models.Holding) []models.ValuedHolding {
	valued := make([]models.ValuedHolding, 0, len(holdings))
	for _, h := range holdings {
		v := models.ValuedHolding{Holding: h}
		if _, ok := currencyID(h.Symbol); ok {
			rate, err := s.Rate(ctx, h.Symbol)
			if err != nil {
				logrus.WithError(err).WithField("symbol", h.Symbol).Warn("fiat rate unavailable")
			} else {
				value := h.DisplayAmount.Mul(rate).Round(2)
				v.FiatValue = &value
			}
		}
		valued = append(valued, v)
	}
	return valued
}

func currencyID(symbol string) (string, bool) {
	switch strings.ToLower(symbol) {
	case "sol":
		return "solana", true
	case "usdc":
		return "usd-coin", true
	case "usdt":
		return "tether", true
	case "btc":
		return "bitcoin", true
	case "eth":
		return "ethereum", true
	default:
		return "", false
	}
}
