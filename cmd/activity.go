package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Movie-Song/sns-contents-tracker/internal/activity"
)

var flagActivityDays int

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Print per-day publishing counts",
	Long: `Print one "date<TAB>count" line per day that has stored items, oldest
first. Days without items are left out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		series, err := activity.Series(cmd.Context(), e.store, flagActivityDays, time.Now())
		if err != nil {
			return err
		}
		for _, dc := range series {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", dc.Date, dc.Count)
		}
		return nil
	},
}

func init() {
	activityCmd.Flags().IntVar(&flagActivityDays, "days", 365, "number of days to cover, today included")
}
