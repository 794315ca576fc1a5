package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/leadradar/internal/model"
	"github.com/ppiankov/leadradar/internal/store"
)

var (
	listStatus   string
	listSource   string
	listMinScore int
	listLimit    int
	snoozeUntil  string
	snoozeFor    time.Duration
	draftChannel string
)

// opportunitiesCmd reviews discovered opportunities
var opportunitiesCmd = &cobra.Command{
	Use:     "opportunities",
	Aliases: []string{"opps"},
	Short:   "Review, convert, snooze or discard opportunities",
	Long: `Opportunities move NEW -> SNOOZED -> NEW, or to CONVERTED / DISCARDED.
CONVERTED and DISCARDED are final. Converting creates a project.

Example:
  leadradar opportunities list --status new --min-score 40
  leadradar opportunities snooze <id> --for 72h
  leadradar opportunities convert <id>
  leadradar opportunities outreach <id> --channel telegram`,
}

var oppListCmd = &cobra.Command{
	Use:   "list",
	Short: "List opportunities, highest score first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		filter := store.OpportunityFilter{
			Status:     model.OpportunityStatus(strings.ToUpper(listStatus)),
			SourceType: model.SourceType(strings.ToUpper(listSource)),
			MinScore:   listMinScore,
			Limit:      listLimit,
		}
		board, err := env.Workflow.Board(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if outJSON {
			return printJSON(board)
		}

		printOpportunities(os.Stdout, board.Opportunities)
		fmt.Fprintln(os.Stderr)
		for _, st := range []model.OpportunityStatus{model.StatusNew, model.StatusSnoozed, model.StatusConverted, model.StatusDiscarded} {
			fmt.Fprintf(os.Stderr, "  %-10s %d\n", st, board.StatusCounts[st])
		}
		return nil
	},
}

var oppShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an opportunity with its score breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		opp, err := env.Store.GetOpportunity(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outJSON {
			return printJSON(opp)
		}
		printOpportunityDetail(os.Stdout, *opp)
		return nil
	},
}

var oppConvertCmd = &cobra.Command{
	Use:   "convert <id>",
	Short: "Convert an opportunity into a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		project, err := env.Workflow.Convert(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Created project %s (%s)\n", project.Name, project.ID)
		fmt.Printf("\nNext:\n  leadradar sequence build %s\n", project.ID)
		return nil
	},
}

var oppDiscardCmd = &cobra.Command{
	Use:   "discard <id>",
	Short: "Discard an opportunity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Workflow.Discard(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Discarded %s\n", args[0])
		return nil
	},
}

var oppSnoozeCmd = &cobra.Command{
	Use:   "snooze <id>",
	Short: "Hide a NEW opportunity until a later date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		until, err := snoozeTime(time.Now())
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Workflow.Snooze(cmd.Context(), args[0], until); err != nil {
			return err
		}
		fmt.Printf("✓ Snoozed %s until %s\n", args[0], until.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var oppExplainCmd = &cobra.Command{
	Use:   "explain <id>",
	Short: "Explain why an opportunity scored as it did",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		text, err := env.Workflow.Explain(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

var oppOutreachCmd = &cobra.Command{
	Use:   "outreach <id>",
	Short: "Draft a first-touch message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, ok := model.ParseChannel(strings.ToLower(draftChannel))
		if !ok {
			return eris.Errorf("unknown channel %q (email, linkedin, twitter, telegram)", draftChannel)
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		msg, err := env.Workflow.Outreach(cmd.Context(), args[0], ch)
		if err != nil {
			return err
		}
		if outJSON {
			return printJSON(msg)
		}
		if msg.Subject != "" {
			fmt.Printf("Subject: %s\n\n", msg.Subject)
		}
		fmt.Println(msg.Body)
		return nil
	},
}

var oppPlanCmd = &cobra.Command{
	Use:   "plan <id>",
	Short: "Draft an account plan: personas and angles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		plan, err := env.Workflow.AccountPlan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outJSON {
			return printJSON(plan)
		}
		fmt.Println("Personas:")
		for _, p := range plan.Personas {
			fmt.Printf("  • %s\n", p)
		}
		fmt.Println("Angles:")
		for _, a := range plan.Angles {
			fmt.Printf("  • %s\n", a)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(opportunitiesCmd)
	opportunitiesCmd.AddCommand(oppListCmd, oppShowCmd, oppConvertCmd, oppDiscardCmd, oppSnoozeCmd, oppExplainCmd, oppOutreachCmd, oppPlanCmd)

	opportunitiesCmd.PersistentFlags().BoolVar(&outJSON, "json", false, "print results as JSON")

	oppListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (new, snoozed, converted, discarded)")
	oppListCmd.Flags().StringVar(&listSource, "source", "", "filter by source (text_scan, page_scan, watchlist)")
	oppListCmd.Flags().IntVar(&listMinScore, "min-score", 0, "minimum lead score")
	oppListCmd.Flags().IntVar(&listLimit, "limit", 50, "max rows")

	oppSnoozeCmd.Flags().StringVar(&snoozeUntil, "until", "", "snooze until date (YYYY-MM-DD or RFC3339)")
	oppSnoozeCmd.Flags().DurationVar(&snoozeFor, "for", 7*24*time.Hour, "snooze for a duration")

	oppOutreachCmd.Flags().StringVar(&draftChannel, "channel", string(model.ChannelEmail), "channel (email, linkedin, twitter, telegram)")
}

// snoozeTime resolves --until or --for against now
func snoozeTime(now time.Time) (time.Time, error) {
	if snoozeUntil == "" {
		return now.Add(snoozeFor), nil
	}
	return parseDate(snoozeUntil)
}

// parseDate accepts RFC3339 or a local calendar date
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, eris.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}
