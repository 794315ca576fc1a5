package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/leadradar/internal/model"
	"github.com/ppiankov/leadradar/internal/workflow"
)

var (
	seqContact string
	seqName    string
	seqTouches int
	seqStart   string

	contactName   string
	contactRole   string
	contactHandle string
)

// sequenceCmd builds and works outreach sequences
var sequenceCmd = &cobra.Command{
	Use:     "sequence",
	Aliases: []string{"seq"},
	Short:   "Build outreach sequences and mark steps sent or skipped",
	Long: `A sequence is a multi-touch outreach plan for a project. Steps start PENDING
and end SENT or SKIPPED; neither can be undone.

Example:
  leadradar sequence build <project-id> --touches 5 --start 2026-03-16
  leadradar sequence sent <step-id>
  leadradar sequence skip <step-id>`,
}

var seqBuildCmd = &cobra.Command{
	Use:   "build <project-id>",
	Short: "Generate a sequence for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := workflow.SequenceRequest{
			ProjectID: args[0],
			ContactID: seqContact,
			Name:      seqName,
			Touches:   seqTouches,
		}
		if seqStart != "" {
			start, err := parseDate(seqStart)
			if err != nil {
				return err
			}
			req.Start = start
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		seq, steps, err := env.Workflow.BuildSequence(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Created sequence %q (%s)\n\n", seq.Name, seq.ID)
		printSteps(os.Stdout, steps)
		return nil
	},
}

var seqSentCmd = &cobra.Command{
	Use:   "sent <step-id>",
	Short: "Mark a pending step as sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completeStep(cmd, args[0], model.StepSent)
	},
}

var seqSkipCmd = &cobra.Command{
	Use:   "skip <step-id>",
	Short: "Skip a pending step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completeStep(cmd, args[0], model.StepSkipped)
	},
}

func completeStep(cmd *cobra.Command, id string, to model.StepStatus) error {
	env, err := initEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	var step *model.SequenceStep
	switch to {
	case model.StepSent:
		step, err = env.Workflow.MarkSent(cmd.Context(), id)
	case model.StepSkipped:
		step, err = env.Workflow.Skip(cmd.Context(), id)
	default:
		return eris.Errorf("unsupported step status %s", to)
	}
	if err != nil {
		return err
	}
	fmt.Printf("✓ Step %d marked %s\n", step.StepNumber, step.Status)
	return nil
}

// contactCmd manages people at a project
var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Add or list contacts at a project",
}

var contactAddCmd = &cobra.Command{
	Use:   "add <project-id>",
	Short: "Add a contact to a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if contactName == "" {
			return eris.New("--name is required")
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		c := &model.Contact{ProjectID: args[0], Name: contactName, Role: contactRole, Handle: contactHandle}
		if err := env.Workflow.AddContact(cmd.Context(), c); err != nil {
			return err
		}
		fmt.Printf("✓ Added %s (%s)\n", c.Name, c.ID)
		return nil
	},
}

var contactListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List contacts at a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		contacts, err := env.Workflow.Contacts(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tROLE\tHANDLE\tID")
		for _, c := range contacts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.Role, c.Handle, c.ID)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sequenceCmd, contactCmd)
	sequenceCmd.AddCommand(seqBuildCmd, seqSentCmd, seqSkipCmd)
	contactCmd.AddCommand(contactAddCmd, contactListCmd)

	seqBuildCmd.Flags().StringVar(&seqContact, "contact", "", "contact id the sequence targets")
	seqBuildCmd.Flags().StringVar(&seqName, "name", "", "sequence name (default: \"<project> outreach\")")
	seqBuildCmd.Flags().IntVar(&seqTouches, "touches", 0, "number of touches (default 4, max 8)")
	seqBuildCmd.Flags().StringVar(&seqStart, "start", "", "first touch date (YYYY-MM-DD or RFC3339, default now)")

	contactAddCmd.Flags().StringVar(&contactName, "name", "", "contact name")
	contactAddCmd.Flags().StringVar(&contactRole, "role", "", "role, e.g. Head of BD")
	contactAddCmd.Flags().StringVar(&contactHandle, "handle", "", "email, Telegram or X handle")
}
