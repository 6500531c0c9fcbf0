package main

import (
	"fmt"
	"log/slog"
	"os"

	cmdexport "jira-stats/command/export"
	cmdreport "jira-stats/command/report"
	cmdweb "jira-stats/command/web"
)

// Jira issue statistics from an HTML issue export and a backlog workbook.
// Usage:
//   jira-stats export [-report "Jira (3).html"] [-table issuetable] [-out file.csv]
//   jira-stats report [-out data/report.csv] [-format csv|json] [-issues data/issues.csv]
//   jira-stats web [-addr :8080] [-watch] [-cron "@every 15m"]
// Notes:
// - Settings come from the YAML file at CONFIG_PATH (default ./config.yml); JIRASTATS_* environment
//   variables override it, e.g. JIRASTATS_REPORT_PATH or JIRASTATS_PIPELINE_RETENTION.

const usage = `usage: jira-stats export [-report <html>] [-table <id>] [-out <csv>] | report [-out <file>] [-format csv|json] [-issues <csv>] | web [-addr :8080] [-watch] [-cron <spec>]
ENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml); JIRASTATS_<SECTION>_<KEY> overrides single values`

func main() {
	args := os.Args
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	commands := map[string]func([]string) error{
		"export": cmdexport.Run,
		"report": cmdreport.Run,
		"web":    cmdweb.Run,
	}
	if len(args) > 1 {
		if run, ok := commands[args[1]]; ok {
			if err := run(append([]string{}, args[2:]...)); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, usage)
	os.Exit(2)
}
