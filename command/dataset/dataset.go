// Package dataset wires the configured sources into a pipeline run.
package dataset

import (
	"jira-stats/connectors/excel"
	"jira-stats/connectors/jirahtml"
	domcfg "jira-stats/domain/config"
	"jira-stats/domain/pipeline"
)

// Sources builds the report and backlog sources named in the config. The backlog is left nil
// when no path is configured.
func Sources(cfg *domcfg.Config) pipeline.Sources {
	src := pipeline.Sources{
		Report: &jirahtml.Source{Path: cfg.Report.Path, TableID: cfg.Report.TableID},
	}
	if cfg.Backlog.Path != "" {
		src.Backlog = excel.Source{Path: cfg.Backlog.Path}
	}
	return src
}

// Load runs the pipeline once over the configured sources.
func Load(cfg *domcfg.Config) (*pipeline.Result, error) {
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return nil, err
	}
	return pipeline.Run(Sources(cfg), opts)
}
