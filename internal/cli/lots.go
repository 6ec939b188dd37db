package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/importer"
	"github.com/piwi3910/RollSlit/internal/model"
)

// NewLotsCommand creates the lots command.
func NewLotsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		storeArg string
		motherOf string
	)
	cmd := &cobra.Command{
		Use:   "lots [lot-id]",
		Short: "List the lots of a store or show one",
		Example: `  rollslit lots --store grn
  rollslit lots --store stock --mother-of RM-1A2B3C4D`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			kind, err := model.ParseLotStore(storeArg)
			if err != nil {
				return a.out.failure(NewExitError(ExitCommandError, err.Error()))
			}

			if len(args) == 1 {
				lot, err := a.slitter.GetLot(ctx, kind, args[0])
				if err != nil {
					return a.out.failure(err)
				}
				return a.out.result(lot, func(w io.Writer) { printLots(w, []model.Lot{*lot}) })
			}

			var lots []model.Lot
			if motherOf != "" {
				lots, err = a.slitter.MotherLots(ctx, kind, motherOf)
			} else {
				lots, err = a.slitter.ListLots(ctx, kind)
			}
			if err != nil {
				return a.out.failure(err)
			}
			return a.out.result(lots, func(w io.Writer) {
				if len(lots) == 0 {
					fmt.Fprintf(w, "No lots in %s store.\n", kind)
					return
				}
				printLots(w, lots)
			})
		},
	}
	cmd.Flags().StringVar(&storeArg, "store", "grn", "lot store (grn|stock)")
	cmd.Flags().StringVar(&motherOf, "mother-of", "", "only lots that can be slit for this roll master id")
	return cmd
}

func printLots(w io.Writer, lots []model.Lot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOT\tITEM\tBATCH\tKIND\tWIDTH\tGSM\tKG\tLENGTH\tSTATUS")
	for _, l := range lots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s / %s\t%s\t%s\n",
			l.ID, l.ItemName, l.BatchNo, l.Spec.Kind, fmtQty(l.Spec.WidthMM), fmtQty(l.Spec.BasisWeight),
			fmtQty(l.RemainingQty), fmtQty(l.ReceivedQty), fmtQty(l.LengthM), l.Status)
	}
	tw.Flush()
}

// NewMastersCommand creates the masters command.
func NewMastersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "masters",
		Short: "List roll masters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			masters, err := a.slitter.Masters(ctx)
			if err != nil {
				return a.out.failure(err)
			}
			return a.out.result(masters, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCODE\tNAME\tKIND\tWIDTH\tGSM\tPARENT")
				for _, m := range masters {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						m.ID, m.Code, m.Name, m.Spec.Kind, fmtQty(m.Spec.WidthMM), fmtQty(m.Spec.BasisWeight), m.ParentID)
				}
				tw.Flush()
			})
		},
	}
}

// ImportReport summarizes an import command.
type ImportReport struct {
	Imported int                 `json:"imported"`
	Warnings []string            `json:"warnings,omitempty"`
	Plans    []model.CuttingPlan `json:"plans,omitempty"`
}

// NewImportCommand creates the import command group.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import lots or cutting plans from CSV or Excel",
	}
	cmd.AddCommand(newImportLotsCommand(rootOpts))
	cmd.AddCommand(newImportPlansCommand(rootOpts))
	return cmd
}

func newImportLotsCommand(rootOpts *RootOptions) *cobra.Command {
	var storeArg string
	cmd := &cobra.Command{
		Use:   "lots <file>",
		Short: "Receive lots from a CSV or Excel file",
		Long: `Receive lots into a store. Each row needs a width and either a mass in
kg or a length in metres; the missing quantity is derived from the roll
spec. The whole file is rejected when any row is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			kind, err := model.ParseLotStore(storeArg)
			if err != nil {
				return a.out.failure(NewExitError(ExitCommandError, err.Error()))
			}
			res := importer.ImportLots(args[0])
			if len(res.Errors) > 0 {
				return a.out.failure(&engine.ValidationError{Messages: res.Errors})
			}
			if err := a.slitter.ReceiveLots(ctx, kind, res.Lots); err != nil {
				return a.out.failure(err)
			}
			a.log.Info("lots received", "store", kind.String(), "count", len(res.Lots), "file", args[0])

			report := ImportReport{Imported: len(res.Lots), Warnings: res.Warnings}
			return a.out.result(report, func(w io.Writer) {
				for _, warn := range res.Warnings {
					fmt.Fprintf(w, "! %s\n", warn)
				}
				fmt.Fprintf(w, "✓ Received %d lots into %s store\n", len(res.Lots), kind)
			})
		},
	}
	cmd.Flags().StringVar(&storeArg, "store", "grn", "destination store (grn|stock)")
	return cmd
}

func newImportPlansCommand(rootOpts *RootOptions) *cobra.Command {
	var width float64
	cmd := &cobra.Command{
		Use:   "plans <file>",
		Short: "Read cutting plan rows from a file and check them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			res := importer.ImportPlans(args[0])
			if len(res.Errors) > 0 {
				return out.failure(&engine.ValidationError{Messages: res.Errors})
			}

			var check *engine.ValidationResult
			if width > 0 {
				r := engine.ValidateCuttingPlans(width, res.Plans)
				check = &r
			}
			report := ImportReport{Imported: len(res.Plans), Warnings: res.Warnings, Plans: res.Plans}
			if err := out.result(report, func(w io.Writer) {
				for _, warn := range res.Warnings {
					fmt.Fprintf(w, "! %s\n", warn)
				}
				for _, p := range res.Plans {
					fmt.Fprintf(w, "  %s mm × %d\n", fmtQty(p.ChildWidthMM), p.Quantity)
				}
				fmt.Fprintf(w, "%d plan rows, %s mm total\n", len(res.Plans), fmtQty(model.TotalUsedWidth(res.Plans)))
				if check != nil && check.Message != "" {
					fmt.Fprintf(w, "✗ %s\n", check.Message)
				}
			}); err != nil {
				return err
			}
			if check != nil && !check.Valid {
				return NewExitError(ExitFailure, check.Message)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "mother width to check the plans against")
	return cmd
}
