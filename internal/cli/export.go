package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/export"
	"github.com/piwi3910/RollSlit/internal/gcode"
	"github.com/piwi3910/RollSlit/internal/model"
)

// Written reports a file produced by an export command.
type Written struct {
	Path string `json:"path"`
	Jobs int    `json:"jobs"`
}

func (a *app) loadJobs(cmd *cobra.Command, ids []string) ([]model.SlittingJob, error) {
	if len(ids) == 0 {
		return a.slitter.ListJobs(cmd.Context())
	}
	jobs := make([]model.SlittingJob, 0, len(ids))
	for _, id := range ids {
		job, err := a.slitter.GetJob(cmd.Context(), id)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", id, err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

func (a *app) written(path string, jobs int) error {
	return a.out.result(Written{Path: path, Jobs: jobs}, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Wrote %s\n", path)
	})
}

// NewLabelsCommand creates the labels command.
func NewLabelsCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "labels <job-id>...",
		Short: "Print QR roll labels for the output rolls of jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			jobs, err := a.loadJobs(cmd, args)
			if err != nil {
				return a.out.failure(err)
			}
			path := a.outputPath(output, "labels.pdf")
			if err := export.ExportLabels(path, jobs...); err != nil {
				return a.out.failure(err)
			}
			return a.written(path, len(jobs))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output PDF (default labels.pdf in the export directory)")
	return cmd
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "report [job-id]...",
		Short: "Write an Excel job register or a PDF job sheet",
		Long: `Write the job register as an Excel workbook (all jobs when none are
named), or with an output ending in .pdf, the printable job sheet of one job.`,
		Example: `  rollslit report -o register.xlsx
  rollslit report SL00012/2025-26 -o sl12.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			path := a.outputPath(output, "slitting-report.xlsx")
			pdf := strings.EqualFold(filepath.Ext(path), ".pdf")
			if pdf && len(args) != 1 {
				return a.out.failure(NewExitError(ExitCommandError, "a PDF job sheet needs exactly one job id"))
			}

			jobs, err := a.loadJobs(cmd, args)
			if err != nil {
				return a.out.failure(err)
			}
			if pdf {
				err = export.ExportJobSheet(path, jobs[0])
			} else {
				err = export.ExportJobReport(path, jobs)
			}
			if err != nil {
				return a.out.failure(err)
			}
			return a.written(path, len(jobs))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output .xlsx or .pdf file")
	return cmd
}

// NewLayoutCommand creates the layout command.
func NewLayoutCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		pf      planFlags
		jobID   string
		width   float64
		output  string
		program string
		dialect string
		machine string
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Write the knife layout of a job or plan set as DXF",
		Long: `Write the knife layout of a job or plan set as DXF. With --program, also
write a knife positioning program for slitters with servo knife carriages;
--machine takes carriage count, travel and holder width from the catalog.`,
		Example: `  rollslit layout --job SL00012/2025-26 -o sl12.dxf
  rollslit layout --width 1200 --plan 400x3
  rollslit layout --job SL00012/2025-26 --program sl12.nc --machine "Slitter SR-1300"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			var layout model.KnifeLayout
			title := "plan"
			if jobID != "" {
				title = jobID
				job, err := a.slitter.GetJob(cmd.Context(), jobID)
				if err != nil {
					return a.out.failure(err)
				}
				layout = model.BuildKnifeLayout(job.InputRoll.Spec.WidthMM, job.CuttingPlans)
			} else {
				plans, err := pf.resolve()
				if err != nil {
					return a.out.failure(err)
				}
				layout = model.BuildKnifeLayout(width, plans)
			}

			if program != "" {
				settings := gcode.Settings{Profile: dialect}
				if machine != "" {
					m := a.catalog.FindMachineByName(machine)
					if m == nil {
						return a.out.failure(NewExitError(ExitCommandError, fmt.Sprintf("machine %q not found", machine)))
					}
					settings = gcode.SettingsFor(*m, dialect)
				}
				if err := writeKnifeProgram(a.outputPath(program, ""), layout, title, settings); err != nil {
					return a.out.failure(err)
				}
			}

			path := a.outputPath(output, "layout.dxf")
			if err := export.ExportKnifeLayoutDXF(path, layout); err != nil {
				return a.out.failure(err)
			}
			return a.written(path, 0)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&program, "program", "", "also write a knife positioning program to this file")
	cmd.Flags().StringVar(&dialect, "dialect", "Generic", fmt.Sprintf("program dialect %v", gcode.ProfileNames()))
	cmd.Flags().StringVar(&machine, "machine", "", "slitter name from the catalog")
	cmd.Flags().StringVar(&jobID, "job", "", "take width and plans from a committed job")
	cmd.Flags().Float64Var(&width, "width", 0, "mother roll width in mm")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output DXF file")
	return cmd
}

func writeKnifeProgram(path string, layout model.KnifeLayout, title string, settings gcode.Settings) error {
	if clashes := gcode.CheckKnifeClearance(layout, settings); len(clashes) > 0 {
		msgs := make([]string, 0, len(clashes))
		for _, c := range clashes {
			if c.OutOfWeb {
				msgs = append(msgs, fmt.Sprintf("Knife %d is %s mm past the machine's travel", c.Knife, fmtQty(-c.GapMM)))
				continue
			}
			msgs = append(msgs, fmt.Sprintf("Knives %d and %d are %s mm apart, closer than the %s mm holder width",
				c.Knife, c.Next, fmtQty(c.GapMM), fmtQty(settings.HolderWidthMM)))
		}
		return &engine.ValidationError{Messages: msgs}
	}
	code, err := gcode.New(settings).Generate(layout, title)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(code), 0644)
}
