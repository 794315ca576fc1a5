package cli

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/leadradar/internal/model"
)

var (
	icpIndustries []string
	icpPainPoints []string
	icpFilters    []string
)

// icpCmd manages the ideal customer profile
var icpCmd = &cobra.Command{
	Use:   "icp",
	Short: "Show or set your ideal customer profile",
	Long: `The ICP biases analysis and scoring. A project whose categories contain
one of your industries gets a one-time +15 bonus.

Example:
  leadradar icp set --industry defi,infrastructure --pain-point "liquidity fragmentation"
  leadradar icp show`,
}

var icpSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the stored profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(icpIndustries) == 0 && len(icpPainPoints) == 0 {
			return eris.New("set at least one --industry or --pain-point")
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		icp := model.IcpProfile{Industries: icpIndustries, PainPoints: icpPainPoints, Filters: icpFilters}
		if err := env.Workflow.SetICP(cmd.Context(), icp); err != nil {
			return err
		}
		fmt.Println("✓ ICP profile saved")
		return nil
	},
}

var icpShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		icp, err := env.Workflow.ICP(cmd.Context())
		if err != nil {
			return err
		}
		if icp == nil {
			fmt.Println("No ICP profile set. Use 'leadradar icp set'.")
			return nil
		}
		fmt.Printf("Industries:   %s\n", strings.Join(icp.Industries, ", "))
		fmt.Printf("Pain points:  %s\n", strings.Join(icp.PainPoints, ", "))
		if len(icp.Filters) > 0 {
			fmt.Printf("Filters:      %s\n", strings.Join(icp.Filters, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(icpCmd)
	icpCmd.AddCommand(icpSetCmd, icpShowCmd)

	icpSetCmd.Flags().StringSliceVar(&icpIndustries, "industry", nil, "target industries (comma-separated)")
	icpSetCmd.Flags().StringSliceVar(&icpPainPoints, "pain-point", nil, "pain points you solve (comma-separated)")
	icpSetCmd.Flags().StringSliceVar(&icpFilters, "filter", nil, "free-form filters passed to analysis")
}
