package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	dashboard "solana_wallet_dashboard"
	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/pkg/handler"
	"solana_wallet_dashboard/pkg/metrics"
	"solana_wallet_dashboard/pkg/repository"
	"solana_wallet_dashboard/pkg/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := repository.NewSolanaRPC(rpcConfig())
		if err != nil {
			return err
		}
		defer client.Close()
		logrus.WithField("endpoint", client.Endpoint()).Info("rpc client ready")

		cfg, err := serviceConfig()
		if err != nil {
			return err
		}
		repos := repository.NewRepository(client)
		svc := service.NewService(repos, cfg, metrics.New())
		defer svc.Close()

		var approver wallet.Approver = wallet.AutoApprove
		if viper.GetString("transfer.approval") == "manual" {
			svc.Approvals = wallet.NewManualApprover(viper.GetDuration("transfer.approval_timeout"))
			approver = svc.Approvals
		}
		signer, err := loadKeypair(approver)
		if err != nil {
			return err
		}
		if signer != nil {
			svc.Keypair = signer
			logrus.WithField("address", signer.PublicKey().String()).Info("keypair loaded")
			if connect, _ := cmd.Flags().GetBool("connect"); connect {
				svc.Session.Connect(signer)
			}
		}

		if viper.GetString("log.level") != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		h := handler.NewHandler(svc, viper.GetStringSlice("server.allowed_origins"))

		srv := new(dashboard.Server)
		errChan := make(chan error, 1)
		addr := listenAddr()
		go func() {
			logrus.WithField("addr", addr).Info("dashboard listening")
			if err := srv.Run(addr, h.InitRoute()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-quit:
			logrus.Info("shutting down")
		case err := <-errChan:
			return errors.Wrap(err, "http server")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().Bool("connect", false, "connect the configured keypair on start")
	rootCmd.AddCommand(serveCmd)
}
