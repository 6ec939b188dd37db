package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/RollSlit/internal/config"
	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

// PlanCheck is the validate command's result.
type PlanCheck struct {
	Result engine.ValidationResult `json:"result"`
	Layout model.KnifeLayout       `json:"layout"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		pf    planFlags
		width float64
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check cutting plans against a mother roll width",
		Long: `Check cutting plan rows against a mother roll width without touching
any lot. Exits 1 when the plans overflow the web or a row is invalid.`,
		Example: `  rollslit validate --width 1200 --plan 500 --plan 300x2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			cfg, err := config.Load(rootOpts.Config)
			if err != nil {
				return out.failure(err)
			}
			plans, err := pf.resolve()
			if err != nil {
				return out.failure(err)
			}
			if msgs := engine.ValidatePlanRows(plans); len(msgs) > 0 {
				return out.failure(&engine.ValidationError{Messages: msgs})
			}

			check := PlanCheck{
				Result: engine.ValidateCuttingPlansWithThreshold(width, plans, cfg.Slitting.WarnUnusedPercent),
				Layout: model.BuildKnifeLayout(width, plans),
			}
			if err := out.result(check, func(w io.Writer) { printCheck(w, check) }); err != nil {
				return err
			}
			if !check.Result.Valid {
				return NewExitError(ExitFailure, check.Result.Message)
			}
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().Float64Var(&width, "width", 0, "mother roll width in mm")
	return cmd
}

func printCheck(w io.Writer, c PlanCheck) {
	r := c.Result
	mark := "✓"
	if !r.Valid {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s Used %s mm of %s mm\n", mark, fmtQty(r.TotalUsedWidthMM), fmtQty(c.Layout.MotherWidthMM))
	if r.Message != "" {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
	if r.WarningMessage != "" {
		fmt.Fprintf(w, "  ! %s\n", r.WarningMessage)
	}
	if r.Valid {
		fmt.Fprintf(w, "  Knives: %d  Trim: %s mm\n", c.Layout.Knives(), fmtQty(c.Layout.TrimMM))
	}
}
