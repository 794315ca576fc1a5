package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var todayAll bool

// todayCmd shows the ranked outreach queue
var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show what needs attention today",
	Long: `Today ranks projects by urgency: overdue steps first, then upcoming ones,
then projects with nothing scheduled. Each row shows the next step to work.

By default only projects with a step due by the end of today are shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		items, err := env.Workflow.Today(cmd.Context(), !todayAll)
		if err != nil {
			return err
		}
		if outJSON {
			return printJSON(items)
		}
		printToday(os.Stdout, items, time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().BoolVar(&todayAll, "all", false, "show every project, not just those due today")
	todayCmd.Flags().BoolVar(&outJSON, "json", false, "print results as JSON")
}
