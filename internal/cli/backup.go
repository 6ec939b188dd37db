package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/RollSlit/internal/model"
	"github.com/piwi3910/RollSlit/internal/project"
)

// BackupSummary counts the records in a backup.
type BackupSummary struct {
	Path      string `json:"path"`
	GRNLots   int    `json:"grn_lots"`
	StockLots int    `json:"stock_lots"`
	Jobs      int    `json:"jobs"`
	Masters   int    `json:"masters"`
}

func summarize(path string, b project.BackupData) BackupSummary {
	return BackupSummary{
		Path:      path,
		GRNLots:   len(b.GRNLots),
		StockLots: len(b.StockLots),
		Jobs:      len(b.Jobs),
		Masters:   len(b.Catalog.Masters),
	}
}

func (s BackupSummary) print(w io.Writer, verb string) {
	fmt.Fprintf(w, "✓ %s %s: %d GRN lots, %d stock lots, %d jobs, %d roll masters\n",
		verb, s.Path, s.GRNLots, s.StockLots, s.Jobs, s.Masters)
}

// NewBackupCommand creates the backup command group.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore all ledger data as JSON",
	}
	cmd.AddCommand(newBackupExportCommand(rootOpts))
	cmd.AddCommand(newBackupRestoreCommand(rootOpts))
	return cmd
}

func newBackupExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write lots, jobs, masters, machines and templates to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			ts, err := project.LoadDefaultTemplates()
			if err != nil {
				return a.out.failure(fmt.Errorf("load templates: %w", err))
			}
			b, err := project.CollectBackup(cmd.Context(), a.store, a.catalog.Machines, ts.Templates)
			if err != nil {
				return a.out.failure(err)
			}
			if err := project.ExportAllData(args[0], b); err != nil {
				return a.out.failure(err)
			}
			sum := summarize(args[0], b)
			return a.out.result(sum, func(w io.Writer) { sum.print(w, "Exported") })
		},
	}
}

func newBackupRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Load a backup into an empty ledger",
		Long: `Load a backup into the configured store. Lots and jobs must not already
exist; roll masters already present are kept. Machines and templates are
merged into the local catalog and template files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			b, err := project.ImportAllData(args[0])
			if err != nil {
				return a.out.failure(err)
			}
			if err := project.ValidateTemplates(b.Templates); err != nil {
				return a.out.failure(fmt.Errorf("backup templates: %w", err))
			}

			present, err := a.slitter.Masters(ctx)
			if err != nil {
				return a.out.failure(err)
			}
			b.Catalog.Masters = newMasters(present, b.Catalog.Masters)
			if err := project.RestoreBackup(ctx, a.store, b, a.sequencers...); err != nil {
				return a.out.failure(err)
			}

			if err := mergeLocalFiles(a.catalog, b); err != nil {
				return a.out.failure(err)
			}
			a.log.Info("backup restored", "file", args[0], "jobs", len(b.Jobs))
			sum := summarize(args[0], b)
			return a.out.result(sum, func(w io.Writer) { sum.print(w, "Restored") })
		},
	}
}

// newMasters returns the entries of incoming whose id is not in present.
func newMasters(present, incoming []model.RollMaster) []model.RollMaster {
	seen := make(map[string]bool, len(present))
	for _, m := range present {
		seen[m.ID] = true
	}
	var out []model.RollMaster
	for _, m := range incoming {
		if !seen[m.ID] {
			out = append(out, m)
			seen[m.ID] = true
		}
	}
	return out
}

func mergeLocalFiles(cat model.Catalog, b project.BackupData) error {
	merged := project.MergeCatalog(cat, model.Catalog{Machines: b.Catalog.Machines})
	path, err := project.DefaultCatalogPath()
	if err != nil {
		return err
	}
	if err := project.SaveCatalog(path, merged); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}

	ts, err := project.LoadDefaultTemplates()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	for _, t := range b.Templates {
		if ts.FindByID(t.ID) == nil {
			ts.Add(t)
		}
	}
	if err := project.SaveDefaultTemplates(ts); err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	return nil
}
