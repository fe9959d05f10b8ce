package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"solana_wallet_dashboard/pkg/utils"
)

const (
	Major = "1"
	Minor = "0"
	Fix   = "0"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "dashboard",
	Short:         "Solana devnet wallet dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil {
			logrus.Debugf("no .env file loaded: %s", err)
		}
		if err := InitConfig(); err != nil {
			return errors.Wrap(err, "init config")
		}
		return utils.InitLogger(logConfig())
	},
}

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

// InitConfig reads configs/config.yaml, or the file given with --config.
// A missing file leaves the defaults in place.
func InitConfig() error {
	setDefaults()

	viper.SetEnvPrefix("DASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		return viper.ReadInConfig()
	}
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logrus.Info("configs/config.yaml not found, using defaults")
			return nil
		}
		return err
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("dashboard %s.%s.%s\n", Major, Minor, Fix)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default configs/config.yaml)")
	rootCmd.PersistentFlags().String("rpc", "", "Solana JSON-RPC endpoint")
	rootCmd.PersistentFlags().String("log-level", "", "log level")
	_ = viper.BindPFlag("rpc.endpoint", rootCmd.PersistentFlags().Lookup("rpc"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}
