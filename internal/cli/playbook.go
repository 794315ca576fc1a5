package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/leadradar/internal/model"
)

var (
	pbBoosts    []string
	pbPenalties []string
)

// playbookCmd manages scoring playbooks
var playbookCmd = &cobra.Command{
	Use:   "playbook",
	Short: "Manage boost/penalty keyword playbooks",
	Long: `Playbooks adjust lead scores: each matching boost keyword adds 10 points,
each matching penalty keyword subtracts 10. Matching is case-insensitive.

Example:
  leadradar playbook add rollups --boost zk,rollup,sequencer --penalty meme
  leadradar playbook list
  leadradar playbook delete rollups`,
}

var playbookAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create or replace a playbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		pb := &model.Playbook{Name: args[0], Boosts: pbBoosts, Penalties: pbPenalties}
		existing, err := env.Workflow.ListPlaybooks(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.Name == pb.Name {
				pb.ID = e.ID
			}
		}

		if err := env.Workflow.SavePlaybook(cmd.Context(), pb); err != nil {
			return err
		}
		fmt.Printf("✓ Saved playbook %s (%s)\n", pb.Name, pb.ID)
		return nil
	},
}

var playbookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List playbooks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		pbs, err := env.Workflow.ListPlaybooks(cmd.Context())
		if err != nil {
			return err
		}
		if len(pbs) == 0 {
			fmt.Println("No playbooks.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tBOOSTS\tPENALTIES\tID")
		for _, pb := range pbs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", pb.Name, strings.Join(pb.Boosts, ","), strings.Join(pb.Penalties, ","), pb.ID)
		}
		return tw.Flush()
	},
}

var playbookDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Delete a playbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Workflow.DeletePlaybook(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted playbook %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playbookCmd)
	playbookCmd.AddCommand(playbookAddCmd, playbookListCmd, playbookDeleteCmd)

	playbookAddCmd.Flags().StringSliceVar(&pbBoosts, "boost", nil, "boost keywords (comma-separated)")
	playbookAddCmd.Flags().StringSliceVar(&pbPenalties, "penalty", nil, "penalty keywords (comma-separated)")
}
