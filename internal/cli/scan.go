package cli

import (
	"github.com/spf13/cobra"

	"delisting-scanner/internal/app"
)

var (
	scanStart     string
	scanEnd       string
	scanThreshold float64
	scanAllCSV    string
	scanSmallCSV  string
	scanPNG       string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a full delisting collection over the configured date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ScanOptions{
			StartDate:    scanStart,
			EndDate:      scanEnd,
			MaxMarketCap: scanThreshold,
			AllPath:      scanAllCSV,
			SmallCapPath: scanSmallCSV,
			PNGPath:      scanPNG,
		}
		return getApp().Scan(cmd.Context(), opts)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanStart, "start", "", "Start date (YYYY-MM-DD, inclusive; defaults to config)")
	scanCmd.Flags().StringVar(&scanEnd, "end", "", "End date (YYYY-MM-DD, inclusive; defaults to config)")
	scanCmd.Flags().Float64Var(&scanThreshold, "max-market-cap", 0, "Small-cap threshold in USD (defaults to config)")
	scanCmd.Flags().StringVar(&scanAllCSV, "all-csv", "", "Path for the all-events CSV")
	scanCmd.Flags().StringVar(&scanSmallCSV, "small-cap-csv", "", "Path for the small-cap CSV")
	scanCmd.Flags().StringVar(&scanPNG, "png", "", "Path for an optional market-cap chart")
}
