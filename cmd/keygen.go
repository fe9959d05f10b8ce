package main

import (
	"github.com/spf13/cobra"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/models"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new devnet keypair",
	RunE: func(cmd *cobra.Command, _ []string) error {
		key, err := wallet.GenerateKeypair()
		if err != nil {
			return err
		}

		out := models.KeypairFile{Address: key.PublicKey().String()}
		if path, _ := cmd.Flags().GetString("out"); path != "" {
			if err := wallet.SaveKeypairFile(path, key); err != nil {
				return err
			}
			cmd.PrintErrf("keypair written to %s\n", path)
		}
		if show, _ := cmd.Flags().GetBool("show-secret"); show {
			out.Secret = key.String()
		}
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	keygenCmd.Flags().String("out", "", "write the keypair to this file in solana-keygen format")
	keygenCmd.Flags().Bool("show-secret", false, "print the base58 secret key")
	rootCmd.AddCommand(keygenCmd)
}
