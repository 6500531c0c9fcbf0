package report

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	lo "github.com/samber/lo"

	"jira-stats/command/dataset"
	"jira-stats/connectors/config"
	ccsv "jira-stats/connectors/csv"
	"jira-stats/domain/charts"
	"jira-stats/domain/jira"
	"jira-stats/domain/pipeline"
)

// payload is the JSON form of a run.
type payload struct {
	RunID       string              `json:"run_id"`
	LoadedAt    string              `json:"loaded_at"`
	DroppedRows int                 `json:"dropped_rows"`
	Discarded   int                 `json:"discarded"`
	Filters     charts.FilterValues `json:"filters"`
	Dashboard   charts.Dashboard    `json:"dashboard"`
	Issues      []jira.Issue        `json:"issues"`
	Warnings    []jira.Warning      `json:"warnings"`
}

// Run executes the report subcommand: full pipeline, then the processed table as CSV or the
// chart payload as JSON.
//
// Usage:
//
//	jira-stats report [-out data/report.csv] [-format csv|json] [-issues data/issues.csv]
func Run(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	out := fs.String("out", filepath.Join("data", "report.csv"), "output file")
	format := fs.String("format", "csv", "output format: csv or json")
	issuesOut := fs.String("issues", "", "also write one typed row per issue to this CSV (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "csv" && *format != "json" {
		return fmt.Errorf("report: unknown format %q", *format)
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	res, err := dataset.Load(cfg)
	if err != nil {
		slog.Error("report.pipeline.error", "error", err)
		return err
	}

	switch *format {
	case "csv":
		err = ccsv.WriteRecordSet(*out, res.Records)
	case "json":
		opts := cfg.ChartOptions()
		err = writeJSON(*out, res, charts.Build(res.Bound, charts.Filter{}, opts), opts.Filters)
	}
	if err != nil {
		slog.Error("report.write.error", "out", *out, "error", err)
		return err
	}
	if *issuesOut != "" {
		if err := ccsv.WriteIssues(*issuesOut, res.Issues()); err != nil {
			slog.Error("report.issues.write.error", "out", *issuesOut, "error", err)
			return err
		}
	}
	slog.Info("report.done", "run", res.RunID, "out", *out, "format", *format)
	printSummary(os.Stdout, res)
	return nil
}

func writeJSON(path string, res *pipeline.Result, d charts.Dashboard, filters []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(payload{
		RunID:       res.RunID,
		LoadedAt:    res.LoadedAt.UTC().Format(time.RFC3339),
		DroppedRows: res.DroppedRows,
		Discarded:   res.Discarded,
		Filters:     charts.Distinct(res.Issues()).Only(filters),
		Dashboard:   d,
		Issues:      res.Issues(),
		Warnings:    append(append([]jira.Warning{}, res.Warnings...), d.Warnings...),
	})
}

// printSummary writes per item type counts and mean latencies followed by the warnings.
func printSummary(w io.Writer, res *pipeline.Result) {
	issues := res.Issues()
	fmt.Fprintf(w, "run %s: %d issues, %d dropped rows, %d discarded\n", res.RunID, len(issues), res.DroppedRows, res.Discarded)
	byType := lo.GroupBy(issues, func(is jira.Issue) string { return is.ItemType })
	types := lo.Keys(byType)
	sort.Strings(types)
	for _, t := range types {
		group := byType[t]
		n := float64(len(group))
		fmt.Fprintf(w, "  %-20s %5d  first response %.1fd  resolution %.1fd\n", t, len(group),
			float64(lo.SumBy(group, func(is jira.Issue) int { return is.FirstResponseDays }))/n,
			float64(lo.SumBy(group, func(is jira.Issue) int { return is.ResolutionDays }))/n)
	}
	for _, wn := range res.Warnings {
		fmt.Fprintf(w, "warning [%s] %s\n", wn.Code, wn.Message)
	}
}
