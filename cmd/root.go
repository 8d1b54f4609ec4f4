package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/viktsys/utsref/config"
	"github.com/viktsys/utsref/logger"
)

var (
	cfgFile  string
	cfg      *config.Config
	settings = viper.New()
)

var rootCMD = &cobra.Command{
	Use:   "utsref",
	Short: "Reference data tooling for the unified trading system",
	Long: `A CLI application that maintains the reference data the unified trading system reads:
CFFEX contract listings, CTP broker server addresses, the JSON system config and
market-data server latency. Tables are replaced wholesale on every run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(settings, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		l := cfg.Log
		if err := logger.Init(l.Level, l.File, l.MaxSize, l.MaxAge, l.Compress); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	err := rootCMD.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCMD.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./utsref.yaml or ./config/utsref.yaml)")
	flags.String("db", "", "SQLite database path (default db.sqlite3)")
	flags.String("log-level", "", "log level: debug, info, warn, error")

	_ = settings.BindPFlag("database.path", flags.Lookup("db"))
	_ = settings.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCMD.AddCommand(contractsCMD, genConfigCMD, brokersCMD, speedTestCMD, serverCMD)
}
