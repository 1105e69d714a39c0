package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruenh/tiktok-monitor/pkg/state"
	"github.com/ruenh/tiktok-monitor/pkg/ui"
)

var (
	historyLimit  int
	historyChecks bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent delivery records",
	Long: fmt.Sprintf(`Show the most recent delivery records from the persisted state,
newest first. At most %d records are returned regardless of --limit.`, state.MaxRecentRecords),
	Example: `  # Last 20 deliveries
  tiktok-monitor history --limit 20

  # Include per-author last-check times
  tiktok-monitor history --checks`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum records to show (0 means the cap)")
	historyCmd.Flags().BoolVar(&historyChecks, "checks", false, "also show per-author last-check times")
	historyCmd.Flags().StringVar(&stateFile, "state-file", "", "path of the JSON state file")
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfigForInspection()
	store := openStore(cfg)

	records := store.RecentRecords(historyLimit)
	fmt.Println(ui.RenderHistory(records))

	if historyChecks {
		fmt.Println(ui.RenderLastChecks(store.LastChecks()))
	}
}
