package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ppiankov/leadradar/internal/extract"
	"github.com/ppiankov/leadradar/internal/model"
	"github.com/ppiankov/leadradar/internal/schedule"
)

const rule = "═══════════════════════════════════════════════════════════"

func banner(title string) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, rule)
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintln(os.Stderr, rule)
	fmt.Fprintln(os.Stderr)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printOpportunities(w io.Writer, opps []model.Opportunity) {
	if len(opps) == 0 {
		fmt.Fprintln(w, "No opportunities.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCORE\tSIGNAL\tSTATUS\tSOURCE\tURL\tSUMMARY")
	for _, o := range opps {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			o.ID, o.LeadScore, o.SignalStrength, o.Status, o.SourceType, o.URL,
			extract.Truncate(o.Analysis.Summary, 60))
	}
	_ = tw.Flush()
}

func printOpportunityDetail(w io.Writer, o model.Opportunity) {
	fmt.Fprintf(w, "%s  (%s, %s)\n", o.URL, o.Status, o.SourceType)
	fmt.Fprintf(w, "  Lead score:  %d/100   Signal: %d/50\n", o.LeadScore, o.SignalStrength)
	if o.Analysis.MQAScore != nil {
		fmt.Fprintf(w, "  MQA score:   %d/100\n", *o.Analysis.MQAScore)
	}
	fmt.Fprintf(w, "  Summary:     %s\n", o.Analysis.Summary)
	if len(o.Analysis.CategoryTags) > 0 {
		fmt.Fprintf(w, "  Categories:  %s\n", strings.Join(o.Analysis.CategoryTags, ", "))
	}
	for _, r := range o.LeadReasons {
		fmt.Fprintf(w, "    • %s\n", r)
	}
	if len(o.PlaybookMatches) > 0 {
		fmt.Fprintf(w, "  Playbooks:   %s\n", strings.Join(o.PlaybookMatches, ", "))
	}
}

func printSteps(w io.Writer, steps []model.SequenceStep) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tID\tCHANNEL\tSTATUS\tSCHEDULED\tCONTENT")
	for _, s := range steps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.StepNumber, s.ID, s.Channel, s.Status, formatTime(s.ScheduledAt), extract.Truncate(s.Content, 60))
	}
	_ = tw.Flush()
}

func printToday(w io.Writer, items []schedule.TodayItem, now time.Time) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Nothing needs attention.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT\tICP\tOVERDUE\tNEXT STEP\tCHANNEL\tDUE")
	for _, it := range items {
		next, channel, due := "-", "-", "-"
		if it.NextStep != nil {
			next = fmt.Sprintf("#%d %s", it.NextStep.StepNumber, it.NextStep.ID)
			channel = string(it.NextStep.Channel)
			due = formatDue(it.NextStep.ScheduledAt, now)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			it.Project.Name, it.Project.IcpScore, it.Meta.OverdueCount, next, channel, due)
	}
	_ = tw.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "unscheduled"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDue(t *time.Time, now time.Time) string {
	if t == nil {
		return "unscheduled"
	}
	if t.Before(now) {
		return "overdue since " + t.Local().Format("Jan 2")
	}
	return t.Local().Format("Mon Jan 2 15:04")
}
