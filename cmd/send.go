package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/service"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transfer SOL or a token from the configured keypair",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var approver wallet.Approver = &wallet.PromptApprover{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
		if yes, _ := cmd.Flags().GetBool("yes"); yes {
			approver = wallet.AutoApprove
		}
		svc, closeFn, err := newCLIService(approver)
		if err != nil {
			return err
		}
		defer closeFn()
		if svc.Keypair == nil {
			return errors.New("no keypair configured: set SOLANA_KEYPAIR or wallet.keypair_path")
		}

		svc.Session.Connect(svc.Keypair)
		addr, _ := svc.Session.Address()
		if state := svc.Balance.Refresh(cmd.Context(), &addr); state.Error != "" {
			return errors.Errorf("read holdings: %s", state.Error)
		}

		asset, _ := cmd.Flags().GetString("asset")
		to, _ := cmd.Flags().GetString("to")
		amount, _ := cmd.Flags().GetString("amount")
		req := models.TransferRequest{Destination: to, HumanAmount: amount}
		if holding, ok := svc.Balance.Holding(asset); ok {
			req.Asset = &holding
		}

		out := cmd.OutOrStdout()
		printed := 0
		svc.Transfer.OnTransition(func(st models.TransferStatus) {
			if len(st.Stages) == printed {
				return
			}
			printed = len(st.Stages)
			if st.Message != "" {
				fmt.Fprintf(out, "[%s] %s\n", st.Stage, st.Message)
				return
			}
			fmt.Fprintf(out, "[%s]\n", st.Stage)
		})

		st, err := svc.Transfer.Submit(cmd.Context(), req)
		if st.Signature != "" {
			fmt.Fprintf(out, "signature: %s\nexplorer:  %s\n", st.Signature, st.ExplorerURL)
		}
		if err != nil {
			return errors.New(service.FriendlyMessage(err))
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().String("to", "", "destination address")
	sendCmd.Flags().String("amount", "", "amount in display units, e.g. 0.1")
	sendCmd.Flags().String("asset", models.NativeSymbol, "SOL, a token symbol or a mint")
	sendCmd.Flags().BoolP("yes", "y", false, "sign without asking")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(sendCmd)
}
