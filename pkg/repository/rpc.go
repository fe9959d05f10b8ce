package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"solana_wallet_dashboard/pkg/solclient"
)

type Config struct {
	Endpoint            string
	BalanceCommitment   string
	ConfirmPollInterval time.Duration
	SkipPreflight       bool
	ReadAttempts        int
	PingTimeout         time.Duration
}

// NewSolanaRPC connects to the RPC node and checks its health. An unhealthy
// node is only logged: balances surface their own errors on refresh.
func NewSolanaRPC(cfg Config) (*solclient.Client, error) {
	client := solclient.New(solclient.Config{
		Endpoint:            cfg.Endpoint,
		BalanceCommitment:   cfg.BalanceCommitment,
		ConfirmPollInterval: cfg.ConfirmPollInterval,
		SkipPreflight:       cfg.SkipPreflight,
		ReadAttempts:        cfg.ReadAttempts,
	})

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Wrapf(err, "rpc %s did not answer", client.Endpoint())
		}
		logrus.WithError(err).WithField("endpoint", client.Endpoint()).Warn("rpc node reports unhealthy")
	}
	return client, nil
}
