package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/repository"
	"solana_wallet_dashboard/pkg/service"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the holdings of an address once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeFn, err := newCLIService(nil)
		if err != nil {
			return err
		}
		defer closeFn()

		addr, err := targetAddress(cmd)
		if err != nil {
			return err
		}
		state := svc.Balance.Refresh(cmd.Context(), &addr)
		if state.Error != "" {
			return errors.New(state.Error)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), state)
		}
		printHoldings(cmd.OutOrStdout(), state)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the holdings of an address until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeFn, err := newCLIService(nil)
		if err != nil {
			return err
		}
		defer closeFn()

		addr, err := targetAddress(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		svc.Balance.OnUpdate(func(state models.BalanceState) {
			if state.Error != "" {
				fmt.Fprintf(out, "refresh failed: %s\n", state.Error)
				return
			}
			printHoldings(out, state)
		})
		if _, err := svc.Session.ConnectWatchOnly(addr.String()); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		svc.Session.Disconnect()
		return nil
	},
}

// newCLIService connects to the RPC node and builds the services for a one-off command.
func newCLIService(approver wallet.Approver) (*service.Service, func(), error) {
	client, err := repository.NewSolanaRPC(rpcConfig())
	if err != nil {
		return nil, nil, err
	}
	cfg, err := serviceConfig()
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	svc := service.NewService(repository.NewRepository(client), cfg, nil)

	signer, err := loadKeypair(approver)
	if err != nil {
		svc.Close()
		client.Close()
		return nil, nil, err
	}
	if signer != nil {
		svc.Keypair = signer
	}
	return svc, func() {
		svc.Close()
		client.Close()
	}, nil
}

// targetAddress is --address, or the configured keypair's address.
func targetAddress(cmd *cobra.Command) (solana.PublicKey, error) {
	if address, _ := cmd.Flags().GetString("address"); address != "" {
		return wallet.ParseAddress(address)
	}
	signer, err := loadKeypair(nil)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if signer == nil {
		return solana.PublicKey{}, errors.New("pass --address or configure a keypair")
	}
	return signer.PublicKey(), nil
}

func printHoldings(w io.Writer, state models.BalanceState) {
	fmt.Fprintf(w, "%s\n", state.Address)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ASSET\tAMOUNT\tMINT")
	for _, h := range state.Holdings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Symbol, h.DisplayAmount.String(), h.AssetID)
	}
	tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{balanceCmd, watchCmd} {
		c.Flags().String("address", "", "address to read (default: configured keypair)")
	}
	balanceCmd.Flags().Bool("json", false, "print JSON")
	rootCmd.AddCommand(balanceCmd, watchCmd)
}
