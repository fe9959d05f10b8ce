package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/cache"
	"solana_wallet_dashboard/pkg/metrics"
	"solana_wallet_dashboard/pkg/repository"
)

type Config struct {
	PollInterval time.Duration
	KnownTokens  map[string]string
	Transfer     TransferConfig
	Rates        *RatesConfig
	RateTTL      time.Duration
}

type Service struct {
	Session  *Session
	Balance  *BalanceReader
	Poller   *Poller
	Transfer *TransferSubmitter
	Rates    *RateService
	Metrics  *metrics.Metrics
	Endpoint string

	// Keypair is the locally configured signer offered on connect, if any.
	Keypair wallet.Signer
	// Approvals is set when signature requests wait for an explicit decision.
	Approvals *wallet.ManualApprover
}

// NewService wires the session to polling: connecting starts it, disconnecting
// stops it and clears the holdings before Disconnect returns.
func NewService(repos *repository.Repository, cfg Config, m *metrics.Metrics) *Service {
	session := NewSession()
	reader := NewBalanceReader(repos.Ledger, cfg.KnownTokens, m)
	poller := NewPoller(reader, cfg.PollInterval)

	s := &Service{
		Session:  session,
		Balance:  reader,
		Poller:   poller,
		Transfer: NewTransferSubmitter(session, repos.Ledger, repos.TokenAccounts, cfg.Transfer, m),
		Metrics:  m,
		Endpoint: repos.Endpoint,
	}
	if cfg.Rates != nil {
		s.Rates = NewRateService(*cfg.Rates, cache.NewRateCache(cfg.RateTTL))
	}

	session.OnChange(func(conn models.Connection) {
		if !conn.Connected {
			poller.Stop()
			reader.Clear()
			return
		}
		addr, ok := session.Address()
		if !ok {
			return
		}
		poller.Start(addr)
	})
	return s
}

// Close stops background polling.
func (s *Service) Close() {
	s.Poller.Stop()
	logrus.Info("service closed")
}
