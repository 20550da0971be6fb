package cli

import (
	"github.com/spf13/cobra"
)

var resolveDate string

var resolveCmd = &cobra.Command{
	Use:   "resolve TICKER",
	Short: "Run the market-cap cascade once for a single ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ResolveTicker(cmd.Context(), args[0], resolveDate)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveDate, "date", "", "Reference date (YYYY-MM-DD, defaults to today)")
}
