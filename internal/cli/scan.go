package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/leadradar/internal/workflow"
)

var (
	outJSON       bool
	timeout       time.Duration
	userAgent     string
	noCache       bool
	noFollow      bool
	probe         bool
	maxCandidates int
	textFile      string
)

// scanCmd groups the discovery entry points
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover opportunities in text or on a listing page",
	Long: `Scan finds candidate project links, qualifies and scores each one, and
stores new candidates as opportunities. URLs you already track are skipped.

Example:
  leadradar scan text "new on testnet: https://example.xyz"
  leadradar scan text --file notes.txt
  pbpaste | leadradar scan text -
  leadradar scan page https://defillama.com/protocols
  leadradar scan page https://dappradar.com/rankings --no-follow --json`,
}

var scanTextCmd = &cobra.Command{
	Use:   "text [text...]",
	Short: "Scan pasted text for project links",
	RunE:  runScanText,
}

var scanPageCmd = &cobra.Command{
	Use:   "page <url>",
	Short: "Scan a listing or aggregator page for project links",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanPage,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.AddCommand(scanTextCmd)
	scanCmd.AddCommand(scanPageCmd)

	for _, c := range []*cobra.Command{scanTextCmd, scanPageCmd} {
		addScanFlags(c)
		c.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall scan timeout")
	}
	scanTextCmd.Flags().StringVarP(&textFile, "file", "f", "", "read text from file")
}

// addScanFlags registers the flags shared by every discovery command
func addScanFlags(c *cobra.Command) {
	c.Flags().BoolVar(&outJSON, "json", false, "print results as JSON")
	c.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	c.Flags().BoolVar(&noCache, "no-cache", false, "disable page cache (force fresh fetch)")
	c.Flags().BoolVar(&noFollow, "no-follow", false, "do not follow aggregator detail pages")
	c.Flags().BoolVar(&probe, "probe", false, "drop unreachable candidates before analysis")
	c.Flags().IntVar(&maxCandidates, "max-candidates", 0, "max candidates per scan (default from config)")
}

// applyScanFlags overlays explicitly set flags on the loaded config
func applyScanFlags(cmd *cobra.Command) {
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFollow {
		cfg.Discovery.FollowDetailPages = false
	}
	if probe {
		cfg.Discovery.ProbeCandidates = true
	}
	if cmd.Flags().Changed("max-candidates") {
		cfg.Discovery.MaxCandidates = maxCandidates
	}
}

func runScanText(cmd *cobra.Command, args []string) error {
	text, err := readScanText(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return eris.New("no text to scan: pass text, --file, or - for stdin")
	}

	return runScan(cmd, func(ctx context.Context, wf *workflow.Service) (*workflow.ScanResult, error) {
		return wf.ScanText(ctx, text)
	})
}

func runScanPage(cmd *cobra.Command, args []string) error {
	pageURL := args[0]
	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", pageURL)
	}
	return runScan(cmd, func(ctx context.Context, wf *workflow.Service) (*workflow.ScanResult, error) {
		return wf.ScanPage(ctx, pageURL)
	})
}

func runScan(cmd *cobra.Command, scan func(context.Context, *workflow.Service) (*workflow.ScanResult, error)) error {
	applyScanFlags(cmd)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := scan(ctx, env.Workflow)
	if err != nil {
		return eris.Wrap(err, "scan failed")
	}

	if outJSON {
		return printJSON(res)
	}
	printOpportunities(os.Stdout, res.Opportunities)
	fmt.Fprintf(os.Stderr, "\n✓ %d found, %d new\n", len(res.Opportunities), res.Saved)
	return nil
}

func readScanText(args []string) (string, error) {
	switch {
	case textFile != "":
		data, err := os.ReadFile(textFile)
		if err != nil {
			return "", eris.Wrapf(err, "read %s", textFile)
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", eris.Wrap(err, "read stdin")
		}
		return string(data), nil
	default:
		return strings.Join(args, " "), nil
	}
}
