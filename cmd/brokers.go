package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/viktsys/utsref/database"
	"github.com/viktsys/utsref/ingest"
	"github.com/viktsys/utsref/logger"
)

var brokersCMD = &cobra.Command{
	Use:   "brokers [broker.xml] [db]",
	Short: "Load CTP broker servers from broker.xml into ctp_md_server and ctp_trade_server",
	Long: `Parse the vendor broker.xml (auto-discovered under %APPDATA% when no path is given)
and replace the ctp_md_server and ctp_trade_server tables. AppID and AuthCode are left
blank for manual entry.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		var path string
		if len(args) > 0 {
			path = args[0]
			if _, err := os.Stat(path); err != nil {
				logger.Fatalf("%v", ingest.ErrBrokerFileNotFound)
			}
		} else {
			located, err := ingest.LocateBrokerFile(os.Getenv("APPDATA"))
			if err != nil {
				logger.Fatalf("%v", err)
			}
			path = located
		}
		if len(args) > 1 {
			cfg.Database.Path = args[1]
		}

		logger.WithField("file", path).Info("Parsing broker file")
		bf, err := ingest.ParseBrokerFile(path)
		if err != nil {
			logger.Fatalf("Failed to parse broker file: %v", err)
		}

		if err := database.InitDB(cfg.Database); err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}

		if err := ingest.NewProcessor(database.DB).ReplaceBrokerTables(cmd.Context(), bf); err != nil {
			logger.Fatalf("Failed to store broker tables: %v", err)
		}
	},
}
