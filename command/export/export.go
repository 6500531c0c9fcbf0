package export

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"jira-stats/connectors/config"
	ccsv "jira-stats/connectors/csv"
	"jira-stats/connectors/jirahtml"
)

// Run executes the export subcommand: the raw report table is written as semicolon CSV.
//
// Usage:
//
//	jira-stats export [-report "Jira (3).html"] [-table issuetable] [-out Jira_Issues_Export_Semicolon_UTF8.csv]
//
// Flags default to the values of the config file at CONFIG_PATH.
func Run(args []string) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	report := fs.String("report", cfg.Report.Path, "Jira HTML export to read")
	tableID := fs.String("table", cfg.Report.TableID, "id of the issue table in the HTML page")
	out := fs.String("out", cfg.Export.Path, "CSV file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}

	slog.Info("export.start", "report", *report, "table", *tableID)
	rs, stats, err := jirahtml.ExtractFile(*report, *tableID)
	if err != nil {
		slog.Error("export.extract.error", "error", err)
		return err
	}
	if err := ccsv.WriteRecordSet(*out, rs); err != nil {
		slog.Error("export.csv.write.error", "error", err)
		return err
	}
	slog.Info("export.done", "out", *out, "records", rs.Len(), "dropped", stats.DroppedRows)
	fmt.Printf("Arquivo CSV salvo em: %s\n", *out)
	return nil
}
