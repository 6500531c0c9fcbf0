package web

import (
	"context"
	"errors"
	"flag"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
	lo "github.com/samber/lo"

	"jira-stats/command/dataset"
	"jira-stats/connectors/config"
	ccsv "jira-stats/connectors/csv"
	"jira-stats/domain/charts"
	domcfg "jira-stats/domain/config"
	"jira-stats/domain/jira"
	"jira-stats/domain/pipeline"
)

// LoadFunc produces a fresh dataset.
type LoadFunc func() (*pipeline.Result, error)

// Server serves the dashboard over the latest successfully loaded dataset.
type Server struct {
	cfg  *domcfg.Config
	load LoadFunc
	echo *echo.Echo
	page *template.Template

	reloadMu sync.Mutex

	mu      sync.RWMutex
	res     *pipeline.Result
	loadErr error
}

// Run starts the dashboard server.
//
// Usage:
//
//	jira-stats web [-addr :8080] [-watch] [-cron "@every 15m"] [-ui ./ui/dist]
//
// Endpoints:
//
//	GET  /api/filters          -> selectable item types, priorities, assignees
//	GET  /api/charts           -> every chart for ?item_type=&priority=&assignee=&metric=mean|total
//	GET  /api/issues           -> detail table for ?table_type=
//	GET  /api/warnings         -> warnings of the current dataset
//	GET  /api/export           -> the CSV written by the export command, as JSON
//	POST /api/reload           -> re-run the pipeline
//	GET  /                     -> HTML dashboard
func Run(args []string) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", cfg.Web.Addr, "http listen address (host:port)")
	watch := fs.Bool("watch", cfg.Web.Watch, "reload when the report or backlog file changes")
	cronSpec := fs.String("cron", cfg.Web.RefreshCron, "cron spec for periodic reloads, e.g. \"@every 15m\" (optional)")
	uiDir := fs.String("ui", "", "directory containing a built UI served instead of the bundled page (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := New(cfg, func() (*pipeline.Result, error) { return dataset.Load(cfg) })
	if err != nil {
		return err
	}
	if *uiDir != "" {
		s.serveUI(*uiDir)
	}
	if err := s.Reload(); err != nil {
		slog.Error("web.load.error", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch {
		paths := []string{cfg.Report.Path}
		if cfg.Backlog.Path != "" {
			paths = append(paths, cfg.Backlog.Path)
		}
		w, err := watchFiles(ctx, paths, 500*time.Millisecond, func(path string) {
			slog.Info("web.watch.changed", "path", path)
			_ = s.Reload()
		})
		if err != nil {
			slog.Warn("web.watch.error", "error", err)
		} else {
			defer w.Close()
		}
	}
	if *cronSpec != "" {
		c, err := schedule(*cronSpec, func() { _ = s.Reload() })
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("web.start", "addr", *addr)
		errc <- s.echo.Start(*addr)
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("web.shutdown")
	return s.echo.Shutdown(shutdownCtx)
}

// New builds the server and its routes. The dataset stays empty until Reload succeeds.
func New(cfg *domcfg.Config, load LoadFunc) (*Server, error) {
	page, err := template.New("index").Funcs(template.FuncMap{"json": toJS}).Parse(pageTemplate)
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, load: load, page: page, echo: echo.New()}
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				slog.Error("web.request", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("web.request", attrs...)
			return nil
		},
	}))
	if len(cfg.Web.CORSOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: cfg.Web.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		})
		e.Use(echo.WrapMiddleware(c.Handler))
	}

	e.GET("/", s.index)
	api := e.Group("/api")
	api.GET("/filters", s.withDataset(s.getFilters))
	api.GET("/charts", s.withDataset(s.getCharts))
	api.GET("/issues", s.withDataset(s.getIssues))
	api.GET("/warnings", s.withDataset(s.getWarnings))
	api.GET("/export", s.getExport)
	api.POST("/reload", s.postReload)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Reload runs the pipeline and swaps the dataset on success. On failure the previous dataset
// keeps being served.
func (s *Server) Reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	res, err := s.load()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.loadErr = err
		slog.Error("web.reload.error", "error", err)
		return err
	}
	s.res, s.loadErr = res, nil
	slog.Info("web.reload.done", "run", res.RunID, "issues", len(res.Issues()), "warnings", len(res.Warnings))
	return nil
}

func (s *Server) current() (*pipeline.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.res, s.loadErr
}

type datasetHandler func(c echo.Context, res *pipeline.Result) error

func (s *Server) withDataset(h datasetHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := s.current()
		if res == nil {
			msg := "dataset not loaded"
			if err != nil {
				msg = err.Error()
			}
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"error":   msg,
				"message": "no dataset available yet",
			})
		}
		c.Response().Header().Set("X-Run-Id", res.RunID)
		return h(c, res)
	}
}

// queryList reads a repeated query parameter. An absent parameter selects every value, unless
// the dimension is listed in ?none=, which selects nothing. Blank values are kept: they match
// issues with an empty cell.
func queryList(c echo.Context, name string) []string {
	q := c.QueryParams()
	values, ok := q[name]
	if !ok {
		if lo.Contains(q["none"], name) {
			return []string{}
		}
		return nil
	}
	return lo.Map(values, func(v string, _ int) string { return strings.TrimSpace(v) })
}

func (s *Server) getFilters(c echo.Context, res *pipeline.Result) error {
	return c.JSON(http.StatusOK, charts.Distinct(res.Issues()).Only(s.cfg.ChartOptions().Filters))
}

func (s *Server) getCharts(c echo.Context, res *pipeline.Result) error {
	metric, err := charts.ParseMetric(c.QueryParam("metric"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	f := charts.Filter{
		ItemTypes:  queryList(c, charts.DimItemType),
		Priorities: queryList(c, charts.DimPriority),
		Assignees:  queryList(c, charts.DimAssignee),
		Metric:     metric,
	}
	return c.JSON(http.StatusOK, charts.Build(res.Bound, f, s.cfg.ChartOptions()))
}

func (s *Server) getIssues(c echo.Context, res *pipeline.Result) error {
	return c.JSON(http.StatusOK, charts.Detail(res.Bound, c.QueryParam("table_type"), s.cfg.Dashboard.DetailColumns))
}

func (s *Server) getWarnings(c echo.Context, res *pipeline.Result) error {
	return c.JSON(http.StatusOK, map[string]any{
		"run_id":       res.RunID,
		"loaded_at":    res.LoadedAt,
		"dropped_rows": res.DroppedRows,
		"discarded":    res.Discarded,
		"warnings":     append([]jira.Warning{}, res.Warnings...),
	})
}

func (s *Server) postReload(c echo.Context) error {
	if err := s.Reload(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error":   err.Error(),
			"message": "reload failed, previous dataset kept",
		})
	}
	res, _ := s.current()
	return c.JSON(http.StatusOK, map[string]any{"run_id": res.RunID, "issues": len(res.Issues())})
}

func (s *Server) getExport(c echo.Context) error {
	path := s.cfg.Export.Path
	rows, err := ccsv.ReadRows(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c.JSON(http.StatusNotFound, map[string]any{
				"error":   "file not found",
				"path":    path,
				"message": "run the export command first",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error":   err.Error(),
			"path":    path,
			"message": "failed to read CSV",
		})
	}
	return c.JSON(http.StatusOK, rows)
}

// pageData feeds the dashboard template.
type pageData struct {
	RunID     string
	LoadedAt  string
	Issues    int
	Error     string
	Enabled   map[string]bool
	Filters   charts.FilterValues
	ItemTypes []string
	Warnings  []jira.Warning
}

func (s *Server) index(c echo.Context) error {
	res, err := s.current()
	enabled := s.cfg.ChartOptions().Filters
	data := pageData{Enabled: lo.Associate(enabled, func(d string) (string, bool) { return d, true })}
	if err != nil {
		data.Error = err.Error()
	}
	if res != nil {
		all := charts.Distinct(res.Issues())
		data.RunID = res.RunID
		data.LoadedAt = res.LoadedAt.Format("02/01/2006 15:04")
		data.Issues = len(res.Issues())
		data.Filters = all.Only(enabled)
		data.ItemTypes = all.ItemTypes
		data.Warnings = res.Warnings
	}
	var b strings.Builder
	if err := s.page.Execute(&b, data); err != nil {
		return err
	}
	return c.HTML(http.StatusOK, b.String())
}

// serveUI serves a built single page app from dir. Unknown non-API paths fall back to its
// index.html.
func (s *Server) serveUI(dir string) {
	if fi, err := os.Stat(filepath.Join(dir, "index.html")); err != nil || fi.IsDir() {
		slog.Warn("web.ui.missing", "dir", dir)
		return
	}
	s.echo.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Root:  dir,
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api")
		},
	}))
}
