package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/viktsys/utsref/database"
	"github.com/viktsys/utsref/ingest"
	"github.com/viktsys/utsref/logger"
)

var contractsCMD = &cobra.Command{
	Use:   "contracts [products...]",
	Short: "Fetch today's CFFEX contracts into cffex_contracts",
	Long: `Download today's CFFEX trading-parameter CSV, keep the contracts whose code starts with
one of the given products (default IF IO) and replace the cffex_contracts table.`,
	Run: func(cmd *cobra.Command, args []string) {
		products := args
		if len(products) == 0 {
			products = cfg.CFFEX.Products
		}

		fetcher := ingest.NewFetcher(cfg.CFFEX.BaseURL, cfg.CFFEX.Timeout)
		logger.Infof("Fetching CFFEX contracts for %s from %s", strings.Join(products, ","), fetcher.URL(fetcher.Now()))

		contracts, err := fetcher.FetchCFFEXContracts(cmd.Context(), products...)
		if err != nil {
			logger.Fatalf("Failed to fetch contracts: %v", err)
		}

		if err := database.InitDB(cfg.Database); err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}

		if err := ingest.NewProcessor(database.DB).ReplaceContracts(cmd.Context(), contracts); err != nil {
			logger.Fatalf("Failed to store contracts: %v", err)
		}
	},
}
