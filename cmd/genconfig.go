package cmd

import (
	"github.com/spf13/cobra"
	"github.com/viktsys/utsref/configgen"
	"github.com/viktsys/utsref/logger"
)

var genConfigOutput string

var genConfigCMD = &cobra.Command{
	Use:   "genconfig [spreadsheet]",
	Short: "Generate config.json from the config spreadsheet",
	Long: `Read the UnifiedTradingSystemConfig, md_server, brokers and accounts sheets of the
spreadsheet (default config.xlsx) and write them as one JSON document.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input := configgen.DefaultInput
		if len(args) == 1 {
			input = args[0]
		}

		doc, err := configgen.Generate(input)
		if err != nil {
			logger.Fatalf("Failed to generate config from %s: %v", input, err)
		}

		if err := configgen.WriteFile(genConfigOutput, doc); err != nil {
			logger.Fatalf("Failed to write config: %v", err)
		}
		logger.Infof("Wrote %s from %s (%d top-level keys)", genConfigOutput, input, doc.Len())
	},
}

func init() {
	genConfigCMD.Flags().StringVarP(&genConfigOutput, "output", "o", configgen.DefaultOutput, "output JSON path")
}
