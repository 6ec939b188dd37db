package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

// specFlags describe a roll on the command line.
type specFlags struct {
	width   float64
	gsm     float64
	micron  float64
	density float64
	kind    string
}

func (f *specFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "roll width in mm")
	cmd.Flags().Float64Var(&f.gsm, "gsm", 0, "basis weight in g/m²")
	cmd.Flags().Float64Var(&f.micron, "micron", 0, "film thickness in microns")
	cmd.Flags().Float64Var(&f.density, "density", 0, "film density in g/cm³")
	cmd.Flags().StringVar(&f.kind, "kind", "paper", "material kind (paper|film|sticker|foil|board)")
}

func (f *specFlags) spec() (model.RollSpec, error) {
	kind, ok := model.ParseMaterialKind(f.kind)
	if !ok {
		return model.RollSpec{}, fmt.Errorf("unknown material kind %q", f.kind)
	}
	return model.RollSpec{
		WidthMM:         f.width,
		BasisWeight:     f.gsm,
		ThicknessMicron: f.micron,
		Density:         f.density,
		Kind:            kind,
	}, nil
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		sf    specFlags
		value float64
		unit  string
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Express a roll quantity in kg, metres and m²",
		Example: `  rollslit convert --value 100 --unit kg --width 1200 --gsm 40
  rollslit convert --value 6000 --unit m --width 1050 --kind film --micron 12 --density 1.4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			spec, err := sf.spec()
			if err != nil {
				return out.failure(NewExitError(ExitCommandError, err.Error()))
			}
			u, err := model.ParseUnit(unit)
			if err != nil {
				return out.failure(NewExitError(ExitCommandError, err.Error()))
			}
			q, err := engine.ConvertRollQuantity(value, u, spec)
			if err != nil {
				return out.failure(err)
			}
			return out.result(q, func(w io.Writer) {
				fmt.Fprintf(w, "Length: %s m\nArea:   %s m²\nMass:   %s kg\n",
					fmtQty(q.LengthM), fmtQty(q.AreaM2), fmtQty(q.MassKg))
				if !q.Complete {
					fmt.Fprintln(w, "Mass not computable: roll has no GSM or film thickness/density")
				}
			})
		},
	}
	sf.register(cmd)
	cmd.Flags().Float64Var(&value, "value", 0, "quantity to convert")
	cmd.Flags().StringVar(&unit, "unit", "kg", "unit of --value (kg|m|m2)")
	return cmd
}
