package main

import (
	"os"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/pkg/repository"
	"solana_wallet_dashboard/pkg/service"
	"solana_wallet_dashboard/pkg/utils"
)

type knownToken struct {
	Mint   string `mapstructure:"mint"`
	Symbol string `mapstructure:"symbol"`
}

func setDefaults() {
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.max_size_mb", 50)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age_days", 14)

	viper.SetDefault("rpc.endpoint", rpc.DevNet_RPC)
	viper.SetDefault("rpc.balance_commitment", string(rpc.CommitmentProcessed))
	viper.SetDefault("rpc.confirm_poll_interval", time.Second)
	viper.SetDefault("rpc.skip_preflight", false)
	viper.SetDefault("rpc.read_attempts", 3)

	viper.SetDefault("balance.poll_interval", service.DefaultPollInterval)

	viper.SetDefault("transfer.confirm_timeout", service.DefaultConfirmTimeout)
	viper.SetDefault("transfer.commitment", string(rpc.CommitmentConfirmed))
	viper.SetDefault("transfer.explorer_url", service.DefaultExplorerURL)
	viper.SetDefault("transfer.approval", "auto")
	viper.SetDefault("transfer.approval_timeout", 2*time.Minute)

	viper.SetDefault("rates.enabled", false)
	viper.SetDefault("rates.base_url", service.DefaultRatesURL)
	viper.SetDefault("rates.currency", "usd")
	viper.SetDefault("rates.ttl", 10*time.Minute)
}

func logConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      viper.GetString("log.level"),
		Format:     viper.GetString("log.format"),
		File:       viper.GetString("log.file"),
		MaxSizeMB:  viper.GetInt("log.max_size_mb"),
		MaxBackups: viper.GetInt("log.max_backups"),
		MaxAgeDays: viper.GetInt("log.max_age_days"),
	}
}

func rpcConfig() repository.Config {
	return repository.Config{
		Endpoint:            viper.GetString("rpc.endpoint"),
		BalanceCommitment:   viper.GetString("rpc.balance_commitment"),
		ConfirmPollInterval: viper.GetDuration("rpc.confirm_poll_interval"),
		SkipPreflight:       viper.GetBool("rpc.skip_preflight"),
		ReadAttempts:        viper.GetInt("rpc.read_attempts"),
	}
}

func serviceConfig() (service.Config, error) {
	var tokens []knownToken
	if err := viper.UnmarshalKey("tokens.known", &tokens); err != nil {
		return service.Config{}, errors.Wrap(err, "tokens.known")
	}
	known := make(map[string]string, len(tokens))
	for _, t := range tokens {
		if _, err := wallet.ParseAddress(t.Mint); err != nil {
			return service.Config{}, errors.Wrapf(err, "tokens.known mint for %s", t.Symbol)
		}
		known[t.Mint] = t.Symbol
	}

	cfg := service.Config{
		PollInterval: viper.GetDuration("balance.poll_interval"),
		KnownTokens:  known,
		Transfer: service.TransferConfig{
			ConfirmTimeout: viper.GetDuration("transfer.confirm_timeout"),
			Commitment:     rpc.CommitmentType(viper.GetString("transfer.commitment")),
			ExplorerURL:    viper.GetString("transfer.explorer_url"),
		},
		RateTTL: viper.GetDuration("rates.ttl"),
	}
	if viper.GetBool("rates.enabled") {
		cfg.Rates = &service.RatesConfig{
			BaseURL:  viper.GetString("rates.base_url"),
			APIKey:   os.Getenv("COINGECKO_API_KEY"),
			Currency: viper.GetString("rates.currency"),
		}
	}
	return cfg, nil
}

// loadKeypair reads the signing key from SOLANA_KEYPAIR or wallet.keypair_path.
// It returns nil when neither is set.
func loadKeypair(approver wallet.Approver) (*wallet.KeypairSigner, error) {
	if secret := os.Getenv("SOLANA_KEYPAIR"); secret != "" {
		key, err := wallet.ParseSecret(secret)
		if err != nil {
			return nil, errors.Wrap(err, "SOLANA_KEYPAIR")
		}
		return wallet.NewKeypairSigner(key, approver), nil
	}
	if path := viper.GetString("wallet.keypair_path"); path != "" {
		key, err := wallet.LoadKeypairFile(path)
		if err != nil {
			return nil, err
		}
		return wallet.NewKeypairSigner(key, approver), nil
	}
	return nil, nil
}

func listenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return "0.0.0.0:" + port
	}
	return "0.0.0.0:" + viper.GetString("server.port")
}
