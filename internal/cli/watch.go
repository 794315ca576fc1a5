package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/leadradar/internal/worker"
)

var (
	concurrency  int
	watchTimeout time.Duration
)

// watchCmd scans a watchlist file
var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Scan every URL on a watchlist in parallel",
	Long: `Watch reads a watchlist (one URL per line, # for comments), scans each
URL as a listing page, and stores new opportunities tagged WATCHLIST.
A failing URL is reported and skipped; the run fails only if every URL fails.

Example:
  leadradar watch watchlist.txt
  leadradar watch watchlist.txt --concurrency 8 --timeout 20m`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent page scans (default from config)")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 15*time.Minute, "total timeout for the watchlist run")
	addScanFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	applyScanFlags(cmd)
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	urls, err := worker.ReadWatchlist(file)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return eris.Errorf("watchlist %s has no valid URLs", file)
	}

	banner("LeadRadar Watchlist")
	fmt.Fprintf(os.Stderr, "  Watchlist:    %s\n", file)
	fmt.Fprintf(os.Stderr, "  URLs:         %d\n", len(urls))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", watchTimeout)
	fmt.Fprintln(os.Stderr)

	ctx, cancel := context.WithTimeout(cmd.Context(), watchTimeout)
	defer cancel()

	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := env.Workflow.ScanWatchlist(ctx, urls)
	if err != nil {
		return eris.Wrap(err, "watchlist scan failed")
	}

	if outJSON {
		return printJSON(res)
	}
	printOpportunities(os.Stdout, res.Opportunities)

	banner("Watchlist Complete")
	fmt.Fprintf(os.Stderr, "  Scanned:   %d URLs\n", len(urls))
	fmt.Fprintf(os.Stderr, "  Found:     %d\n", len(res.Opportunities))
	fmt.Fprintf(os.Stderr, "  New:       %d\n", res.Saved)
	fmt.Fprintln(os.Stderr)
	return nil
}
