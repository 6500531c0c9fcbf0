package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	domcfg "jira-stats/domain/config"
	"jira-stats/domain/jira"
)

// EnvPrefix prefixes environment overrides, e.g. JIRASTATS_REPORT_PATH.
const EnvPrefix = "JIRASTATS"

// Path returns CONFIG_PATH or ./config.yml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "./config.yml"
}

// Load parses the YAML configuration file at path over the defaults, then applies environment
// overrides. A missing file leaves the defaults in place.
func Load(path string) (*domcfg.Config, error) {
	c := domcfg.Default()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Info("config.defaults", "path", path)
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
		slog.Info("config.loaded", "path", path)
	}
	c.Fields = c.Fields.Merge(jira.DefaultFields())
	applyEnv(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func list(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// overrides maps config keys to their setters.
var overrides = map[string]func(c *domcfg.Config, v *viper.Viper, key string){
	"report.path":        func(c *domcfg.Config, v *viper.Viper, k string) { c.Report.Path = v.GetString(k) },
	"report.table_id":    func(c *domcfg.Config, v *viper.Viper, k string) { c.Report.TableID = v.GetString(k) },
	"backlog.path":       func(c *domcfg.Config, v *viper.Viper, k string) { c.Backlog.Path = v.GetString(k) },
	"backlog.key_field":  func(c *domcfg.Config, v *viper.Viper, k string) { c.Backlog.KeyField = v.GetString(k) },
	"backlog.required":   func(c *domcfg.Config, v *viper.Viper, k string) { c.Backlog.Required = v.GetBool(k) },
	"pipeline.locale":    func(c *domcfg.Config, v *viper.Viper, k string) { c.Pipeline.Locale = v.GetString(k) },
	"pipeline.layout":    func(c *domcfg.Config, v *viper.Viper, k string) { c.Pipeline.Layout = v.GetString(k) },
	"pipeline.retention": func(c *domcfg.Config, v *viper.Viper, k string) { c.Pipeline.Retention = v.GetString(k) },
	"pipeline.join_key":  func(c *domcfg.Config, v *viper.Viper, k string) { c.Pipeline.JoinKey = v.GetString(k) },
	"dashboard.filters":  func(c *domcfg.Config, v *viper.Viper, k string) { c.Dashboard.Filters = append([]string{}, list(v.GetString(k))...) },
	"web.addr":           func(c *domcfg.Config, v *viper.Viper, k string) { c.Web.Addr = v.GetString(k) },
	"web.watch":          func(c *domcfg.Config, v *viper.Viper, k string) { c.Web.Watch = v.GetBool(k) },
	"web.refresh_cron":   func(c *domcfg.Config, v *viper.Viper, k string) { c.Web.RefreshCron = v.GetString(k) },
	"web.cors_origins":   func(c *domcfg.Config, v *viper.Viper, k string) { c.Web.CORSOrigins = list(v.GetString(k)) },
	"export.path":        func(c *domcfg.Config, v *viper.Viper, k string) { c.Export.Path = v.GetString(k) },
}

func applyEnv(c *domcfg.Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, set := range overrides {
		_ = v.BindEnv(key)
		if v.IsSet(key) {
			set(c, v, key)
			slog.Info("config.env.override", "key", key)
		}
	}
}
