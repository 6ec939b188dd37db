package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/piwi3910/RollSlit/internal/config"
	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/importer"
	"github.com/piwi3910/RollSlit/internal/logger"
	"github.com/piwi3910/RollSlit/internal/metrics"
	"github.com/piwi3910/RollSlit/internal/model"
	"github.com/piwi3910/RollSlit/internal/project"
	"github.com/piwi3910/RollSlit/internal/store"
)

// app is the wired engine a command runs against.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	store    engine.Store
	slitter  *engine.Slitter
	catalog  model.Catalog
	registry *prometheus.Registry
	out      printer
	closers  []func() error

	// counters allocated outside the store, raised after a restore
	sequencers []engine.SequenceAdvancer
}

// openApp loads config, opens the configured store and builds a Slitter.
func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg: cfg,
		log: logger.NewText(cmd.ErrOrStderr(), opts.Verbose),
		out: printer{format: opts.Format, w: cmd.OutOrStdout()},
	}

	switch cfg.Store.Driver {
	case "memory":
		a.store = store.NewMemory()
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		db, err := store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		a.store = db
		a.closers = append(a.closers, db.Close)
	}
	a.log.Debug("store opened", "driver", cfg.Store.Driver, "path", cfg.Store.Path)

	cat, _, err := project.LoadOrCreateCatalog()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	a.catalog = cat

	a.registry = prometheus.NewRegistry()
	engineOpts := []engine.Option{
		engine.WithLogger(a.log),
		engine.WithMachines(cat.Machines),
		engine.WithRecorder(metrics.New(a.registry)),
	}
	if cfg.Redis.URL != "" {
		client, err := store.ConnectRedis(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		seq := store.NewRedisSequencer(client, "")
		engineOpts = append(engineOpts, engine.WithSequencer(seq))
		a.sequencers = append(a.sequencers, seq)
		a.log.Debug("job numbers allocated by redis", "url", redactURL(cfg.Redis.URL))
	}
	a.slitter = engine.NewSlitter(a.store, cfg.Slitter(), engineOpts...)

	if err := a.slitter.AddMasters(ctx, cat.Masters); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed roll masters: %w", err)
	}
	return a, nil
}

// Close releases the store and any client connections.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Error("close failed", "err", err)
		}
	}
}

// outputPath places a bare file name in the configured export directory.
func (a *app) outputPath(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.Dir(path) == "." && !strings.HasPrefix(path, ".") {
		return filepath.Join(a.cfg.Export.Dir, path)
	}
	return path
}

func redactURL(raw string) string {
	opt, err := redis.ParseURL(raw)
	if err != nil {
		return "invalid"
	}
	return opt.Addr
}

// planFlags collects cutting plans from --plan, --plans and --template.
type planFlags struct {
	plans    []string
	file     string
	template string
}

func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.plans, "plan", nil, "cutting plan row WIDTHxQTY, e.g. 600x2 (repeatable)")
	cmd.Flags().StringVar(&f.file, "plans", "", "CSV or Excel file of cutting plan rows")
	cmd.Flags().StringVar(&f.template, "template", "", "name of a saved plan template")
}

func (f *planFlags) resolve() ([]model.CuttingPlan, error) {
	var plans []model.CuttingPlan
	for _, s := range f.plans {
		p, err := parsePlanFlag(s)
		if err != nil {
			return nil, NewExitError(ExitFailure, err.Error())
		}
		plans = append(plans, p)
	}
	if f.file != "" {
		res := importer.ImportPlans(f.file)
		if len(res.Errors) > 0 {
			return nil, &engine.ValidationError{Messages: res.Errors}
		}
		plans = append(plans, res.Plans...)
	}
	if f.template != "" {
		ts, err := project.LoadDefaultTemplates()
		if err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
		t := ts.FindByName(f.template)
		if t == nil {
			return nil, NewExitError(ExitFailure, fmt.Sprintf("template %q not found", f.template))
		}
		plans = append(plans, t.ToPlans()...)
	}
	return plans, nil
}

// parsePlanFlag reads "600x2" or "600" (quantity 1).
func parsePlanFlag(s string) (model.CuttingPlan, error) {
	widthStr, qtyStr, hasQty := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	width, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(widthStr), "mm"), 64)
	if err != nil {
		return model.CuttingPlan{}, fmt.Errorf("invalid plan %q: width must be a number", s)
	}
	qty := 1
	if hasQty {
		if qty, err = strconv.Atoi(strings.TrimSpace(qtyStr)); err != nil {
			return model.CuttingPlan{}, fmt.Errorf("invalid plan %q: quantity must be a whole number", s)
		}
	}
	return model.NewCuttingPlan(width, qty), nil
}

// parseManual reads a quantity with a unit suffix, e.g. "2.5kg" or "40m".
func parseManual(s string) (model.ManualQuantity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i <= 0 {
		return model.ManualQuantity{}, fmt.Errorf("invalid quantity %q: expected a number followed by kg, m or m2", s)
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return model.ManualQuantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	unit, err := model.ParseUnit(s[i:])
	if err != nil {
		return model.ManualQuantity{}, err
	}
	return model.ManualQuantity{Value: v, Unit: unit}, nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}

// parseTime accepts RFC 3339 or a local "YYYY-MM-DD HH:MM". Empty gives fallback.
func parseTime(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD HH:MM", s)
}

func writeLines(w io.Writer, lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
