package config

import (
	"errors"
	"fmt"

	"jira-stats/domain/charts"
	"jira-stats/domain/dates"
	"jira-stats/domain/jira"
	"jira-stats/domain/pipeline"
	"jira-stats/domain/table"
)

// Config represents the structure of config.yml used by the tool.
type Config struct {
	Report struct {
		Path    string `yaml:"path"`
		TableID string `yaml:"table_id"`
	} `yaml:"report"`
	Backlog struct {
		Path     string `yaml:"path"`
		KeyField string `yaml:"key_field"`
		Required bool   `yaml:"required"`
	} `yaml:"backlog"`
	Pipeline struct {
		Locale     string `yaml:"locale"`
		Layout     string `yaml:"layout"`
		Retention  string `yaml:"retention"`
		JoinKey    string `yaml:"join_key"`
		JoinSuffix string `yaml:"join_suffix"`
	} `yaml:"pipeline"`
	Fields    jira.Fields `yaml:"fields"`
	Dashboard struct {
		Filters        []string `yaml:"filters"`
		DetailColumns  []string `yaml:"detail_columns"`
		MilestoneTypes []string `yaml:"milestone_types"`
	} `yaml:"dashboard"`
	Web struct {
		Addr        string   `yaml:"addr"`
		Watch       bool     `yaml:"watch"`
		RefreshCron string   `yaml:"refresh_cron"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"web"`
	Export struct {
		Path string `yaml:"path"`
	} `yaml:"export"`
}

// Default returns the settings of a Portuguese Jira export next to a backlog workbook.
func Default() Config {
	var c Config
	c.Report.Path = "Jira (3).html"
	c.Report.TableID = "issuetable"
	c.Backlog.Path = "backlog.xlsx"
	c.Backlog.KeyField = "#JIRA\nCard"
	c.Pipeline.Locale = dates.Portuguese.Tag
	c.Pipeline.Layout = dates.JiraLayout
	c.Pipeline.Retention = string(pipeline.RetainAll)
	c.Pipeline.JoinSuffix = table.DefaultJoinSuffix
	c.Fields = jira.DefaultFields()
	c.Dashboard.Filters = append([]string{}, charts.Dimensions...)
	c.Dashboard.DetailColumns = []string{"Chave", "Status", "Resumo", "Descrição", "Análise x Documentação/Desenvolvimento/QA/Entrega", "Responsável"}
	c.Dashboard.MilestoneTypes = charts.DefaultOptions().MilestoneTypes
	c.Web.Addr = ":8080"
	c.Web.Watch = true
	c.Export.Path = "Jira_Issues_Export_Semicolon_UTF8.csv"
	return c
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error
	if c.Report.Path == "" {
		errs = append(errs, errors.New("report.path is required"))
	}
	if _, err := dates.LocaleFor(c.Pipeline.Locale); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.locale: %w", err))
	}
	if _, err := pipeline.ParseRetention(c.Pipeline.Retention); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.retention: %w", err))
	}
	if err := charts.ValidateDimensions(c.Dashboard.Filters); err != nil {
		errs = append(errs, fmt.Errorf("dashboard.filters: %w", err))
	}
	if c.Backlog.Required && c.Backlog.Path == "" {
		errs = append(errs, errors.New("backlog.path is required when backlog.required is set"))
	}
	return errors.Join(errs...)
}

// PipelineOptions translates the config into pipeline options.
func (c Config) PipelineOptions() (pipeline.Options, error) {
	locale, err := dates.LocaleFor(c.Pipeline.Locale)
	if err != nil {
		return pipeline.Options{}, err
	}
	retention, err := pipeline.ParseRetention(c.Pipeline.Retention)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.DefaultOptions()
	opts.Parser = dates.NewParser(locale)
	if c.Pipeline.Layout != "" {
		opts.Parser.Layout = c.Pipeline.Layout
	}
	opts.Retention = retention
	opts.Fields = c.Fields.Merge(jira.DefaultFields())
	opts.JoinKey = c.Pipeline.JoinKey
	if c.Backlog.KeyField != "" {
		opts.BacklogKey = c.Backlog.KeyField
	}
	if c.Pipeline.JoinSuffix != "" {
		opts.JoinSuffix = c.Pipeline.JoinSuffix
	}
	opts.BacklogRequired = c.Backlog.Required
	return opts, nil
}

// ChartOptions translates the dashboard section. A null filter list enables every filter,
// an empty one disables them all.
func (c Config) ChartOptions() charts.Options {
	opts := charts.DefaultOptions()
	if len(c.Dashboard.MilestoneTypes) > 0 {
		opts.MilestoneTypes = c.Dashboard.MilestoneTypes
	}
	if c.Dashboard.Filters != nil {
		opts.Filters = c.Dashboard.Filters
	}
	return opts
}
