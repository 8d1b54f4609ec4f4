package cmd

import (
	"github.com/spf13/cobra"
	"github.com/viktsys/utsref/api"
	"github.com/viktsys/utsref/database"
	"github.com/viktsys/utsref/logger"
)

var serverCMD = &cobra.Command{
	Use:   "server",
	Short: "Start the read-back API server",
	Long:  `Start the HTTP API server that exposes contracts, broker servers and md latency from the config database.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := database.InitDB(cfg.Database); err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}

		h := api.NewHandler(database.NewConfigDB(database.DB))
		r := api.SetupRoutes(h, cfg.Server.Mode, cfg.Server.PProf)

		logger.Infof("Starting server on %s", cfg.Server.Addr)
		if err := r.Run(cfg.Server.Addr); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	},
}
