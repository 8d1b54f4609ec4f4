package cmd

import (
	"github.com/spf13/cobra"
	"github.com/viktsys/utsref/database"
	"github.com/viktsys/utsref/logger"
	"github.com/viktsys/utsref/probe"
)

var speedTestAll bool

var speedTestCMD = &cobra.Command{
	Use:   "speedtest",
	Short: "Measure CTP market-data server latency into ctp_md_latency",
	Long: `Open a TCP connection to each market-data server that has no latency record yet
(or to every server with --all) and append the connect time to ctp_md_latency.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := database.InitDB(cfg.Database); err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		cdb := database.NewConfigDB(database.DB)
		ctx := cmd.Context()

		var addrs []string
		if speedTestAll {
			servers, err := cdb.MDServers(ctx)
			if err != nil {
				logger.Fatalf("Failed to list md servers: %v", err)
			}
			for _, s := range servers {
				addrs = append(addrs, s.Address)
			}
		} else {
			untested, err := cdb.UnSpeedTestedMDServers(ctx)
			if err != nil {
				logger.Fatalf("Failed to list untested md servers: %v", err)
			}
			addrs = untested
		}

		if len(addrs) == 0 {
			logger.Info("No md servers to test")
			return
		}

		prober := probe.NewProber(cfg.SpeedTest.Timeout, cfg.SpeedTest.Workers)
		for _, result := range prober.Run(ctx, addrs) {
			if result.Err != nil {
				logger.WithError(result.Err).WithField("address", result.Address).Debugf("md server unreachable")
			}
			if err := cdb.AppendSpeedTestResult(ctx, result.Address, result.Latency); err != nil {
				logger.Fatalf("Failed to record speed test: %v", err)
			}
		}

		fastest, err := cdb.FastestMDServers(ctx, 5)
		if err != nil {
			logger.Fatalf("Failed to query fastest md servers: %v", err)
		}
		if len(fastest) == 0 {
			logger.Warnf("No reachable md servers among %d tested", len(addrs))
			return
		}
		logger.Infof("Fastest md servers: %v", fastest)
	},
}

func init() {
	speedTestCMD.Flags().BoolVar(&speedTestAll, "all", false, "probe every md server, not only untested ones")
}
