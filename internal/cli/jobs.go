package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

// Preview is the commit --preview result.
type Preview struct {
	Job   model.SlittingJob       `json:"job"`
	Check engine.ValidationResult `json:"check"`
}

// NewCommitCommand creates the commit command.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		pf       planFlags
		lotID    string
		storeArg string
		length   float64
		operator string
		machine  string
		start    string
		end      string
		remarks  string
		wastage  string
		preview  bool
	)
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Slit a mother lot and post the job to the ledger",
		Long: `Slit a mother lot into child rolls. The input lot is reduced by the
consumed mass and one stock lot is created per output roll, all in a
single transaction. Use --preview to see the result without writing.`,
		Example: `  rollslit commit --lot GRN-1042 --length 2000 --plan 600x2 --operator ravi
  rollslit commit --lot SL00003/2025-26-OUT-01 --store stock --length 500 --template "Half web"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			d, err := buildDraft(lotID, storeArg, length, operator, machine, start, end, remarks, wastage)
			if err != nil {
				return a.out.failure(NewExitError(ExitCommandError, err.Error()))
			}
			if d.CuttingPlans, err = pf.resolve(); err != nil {
				return a.out.failure(err)
			}

			if preview {
				job, check, err := a.slitter.PreviewSlittingJob(ctx, d)
				if err != nil {
					return a.out.failure(err)
				}
				return a.out.result(Preview{Job: job, Check: check}, func(w io.Writer) {
					printJob(w, job)
					if check.WarningMessage != "" {
						fmt.Fprintf(w, "! %s\n", check.WarningMessage)
					}
					fmt.Fprintln(w, "(preview, nothing written)")
				})
			}

			job, err := a.slitter.CommitSlittingJob(ctx, d)
			if err != nil {
				return a.out.failure(err)
			}
			return a.out.result(job, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Committed %s\n", job.ID)
				printJob(w, job)
			})
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&lotID, "lot", "", "mother lot id")
	cmd.Flags().StringVar(&storeArg, "store", "grn", "store holding the mother lot (grn|stock)")
	cmd.Flags().Float64Var(&length, "length", 0, "length to run through the slitter in metres")
	cmd.Flags().StringVar(&operator, "operator", "", "machine operator")
	cmd.Flags().StringVar(&machine, "machine", "", "slitter name")
	cmd.Flags().StringVar(&start, "start", "", "start time (RFC 3339 or YYYY-MM-DD HH:MM, default now)")
	cmd.Flags().StringVar(&end, "end", "", "end time (default now)")
	cmd.Flags().StringVar(&remarks, "remarks", "", "free text remarks")
	cmd.Flags().StringVar(&wastage, "wastage", "", "measured wastage, e.g. 2.5kg or 40m")
	cmd.Flags().BoolVar(&preview, "preview", false, "show the job without committing")
	_ = cmd.MarkFlagRequired("lot")
	return cmd
}

func buildDraft(lotID, storeArg string, length float64, operator, machine, start, end, remarks, wastage string) (model.JobDraft, error) {
	kind, err := model.ParseLotStore(storeArg)
	if err != nil {
		return model.JobDraft{}, err
	}
	now := time.Now()
	d := model.JobDraft{
		LotID:          lotID,
		Store:          kind,
		ProcessLengthM: length,
		Operator:       operator,
		Machine:        machine,
		Remarks:        remarks,
	}
	if d.StartTime, err = parseTime(start, now); err != nil {
		return model.JobDraft{}, err
	}
	if d.EndTime, err = parseTime(end, now); err != nil {
		return model.JobDraft{}, err
	}
	if wastage != "" {
		q, err := parseManual(wastage)
		if err != nil {
			return model.JobDraft{}, err
		}
		d.WastageOverride = &q
	}
	return d, nil
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <job-id>",
		Aliases: []string{"reverse"},
		Short:   "Reverse a committed slitting job",
		Long: `Reverse a committed job: the mother lot gets its material back and the
job's output lots are removed. Fails without changes when any output lot
has been consumed since the commit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			if err := a.slitter.DeleteSlittingJob(ctx, args[0]); err != nil {
				return a.out.failure(err)
			}
			job, err := a.slitter.GetJob(ctx, args[0])
			if err != nil {
				return a.out.failure(err)
			}
			return a.out.result(job, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Reversed %s (%d output lots removed, %s kg restored to %s)\n",
					job.ID, len(job.OutputRolls), fmtQty(job.ConsumedKg), job.InputRoll.LotID)
			})
		},
	}
}

// NewJobsCommand creates the jobs command.
func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs [job-id]",
		Short: "List slitting jobs or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			if len(args) == 1 {
				job, err := a.slitter.GetJob(ctx, args[0])
				if err != nil {
					return a.out.failure(err)
				}
				return a.out.result(job, func(w io.Writer) { printJob(w, *job) })
			}

			jobs, err := a.slitter.ListJobs(ctx)
			if err != nil {
				return a.out.failure(err)
			}
			return a.out.result(jobs, func(w io.Writer) {
				if len(jobs) == 0 {
					fmt.Fprintln(w, "No slitting jobs.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "JOB\tSTATE\tLOT\tWIDTH\tLENGTH\tROLLS\tCONSUMED KG\tWASTAGE KG")
				for _, j := range jobs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
						j.ID, j.State, j.InputRoll.LotID, fmtQty(j.InputRoll.Spec.WidthMM),
						fmtQty(j.InputRoll.ProcessLengthM), len(j.OutputRolls),
						fmtQty(j.ConsumedKg), fmtQty(j.WastageKg))
				}
				tw.Flush()
			})
		},
	}
}

func printJob(w io.Writer, j model.SlittingJob) {
	in := j.InputRoll
	id := j.ID
	if id == "" {
		id = "(draft)"
	}
	writeLines(w,
		fmt.Sprintf("Job:      %s [%s]", id, j.State),
		fmt.Sprintf("Input:    %s %s (%s store, batch %s)", in.LotID, in.ItemName, in.Store, in.BatchNo),
		fmt.Sprintf("Process:  %s m of %s m at %s mm", fmtQty(in.ProcessLengthM), fmtQty(in.TotalLengthM), fmtQty(in.Spec.WidthMM)),
		fmt.Sprintf("Consumed: %s kg  Wastage: %s kg / %s m / %s m²",
			fmtQty(j.ConsumedKg), fmtQty(j.WastageKg), fmtQty(j.WastageM), fmtQty(j.WastageM2)),
	)
	if j.Operator != "" || j.Machine != "" {
		fmt.Fprintf(w, "Operator: %s  Machine: %s\n", j.Operator, j.Machine)
	}
	if len(j.OutputRolls) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLOT\tBATCH\tITEM\tWIDTH\tLENGTH\tKG\tM²")
	for _, r := range j.OutputRolls {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Seq, r.LotID, r.BatchNo, r.ItemName, fmtQty(r.Spec.WidthMM),
			fmtQty(r.LengthM), fmtQty(r.MassKg), fmtQty(r.AreaM2))
	}
	tw.Flush()
}
