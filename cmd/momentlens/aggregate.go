package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/aggregate"
	"github.com/sanspareilsmyn/momentlens/internal/moment"
	"github.com/sanspareilsmyn/momentlens/internal/pipeline"
	"github.com/sanspareilsmyn/momentlens/internal/report"
)

// AggregateCommand holds the flags for the aggregate command.
type AggregateCommand struct {
	query      string
	mode       string
	pre        float64
	post       float64
	moments    string
	selections string
	csvOut     string
	htmlOut    string
}

func newAggregateCommand() *cobra.Command {
	c := &AggregateCommand{}

	cobraCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate moments from a JSON file",
		Long: `Aggregate measures over the moments listed in a JSON file and print a
summary table. --moments takes an array of {video_id,start_time,end_time,ad_name}
objects; --selections takes an array of "video|start|end|thumbnail|label" strings.`,
		RunE: c.Run,
	}

	cobraCmd.Flags().StringVarP(&c.query, "query", "q", "", "Search query the moments came from")
	cobraCmd.Flags().StringVarP(&c.mode, "mode", "m", "", "Aggregation mode: box or line (default from config)")
	cobraCmd.Flags().Float64Var(&c.pre, "pre", 0, "Seconds before each moment start (line mode)")
	cobraCmd.Flags().Float64Var(&c.post, "post", 0, "Seconds after the shortest moment duration (line mode)")
	cobraCmd.Flags().StringVar(&c.moments, "moments", "", "JSON file of moment objects")
	cobraCmd.Flags().StringVar(&c.selections, "selections", "", "JSON file of selection strings")
	cobraCmd.Flags().StringVar(&c.csvOut, "csv", "", "Write the CSV export to this path")
	cobraCmd.Flags().StringVar(&c.htmlOut, "html", "", "Write the chart page to this path")

	return cobraCmd
}

// Run executes the aggregate command.
func (c *AggregateCommand) Run(cmd *cobra.Command, _ []string) error {
	inputs, err := c.readInputs()
	if err != nil {
		return err
	}

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, done, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open dataset store: %w", err)
	}
	defer done()

	recorder := pipeline.NewRecorder(cfg.Metrics.Namespace, prometheus.NewRegistry(), logger)
	pipe, err := pipeline.New(cfg.Aggregation, store, recorder, nil, logger)
	if err != nil {
		return err
	}

	out, err := pipe.Execute(ctx, pipeline.Request{
		Query:       c.query,
		Mode:        c.mode,
		PreDuration: c.pre,
		PostExtra:   c.post,
		Inputs:      inputs,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printOutcome(w, out)

	if c.csvOut != "" {
		if err := writeFile(c.csvOut, func(f io.Writer) error { return report.WriteCSV(f, out.Result, out.Query) }); err != nil {
			return err
		}
		logger.Info("CSV export written", zap.String("path", c.csvOut))
	}
	if c.htmlOut != "" {
		charts, err := report.Charts(out.Result, out.Query)
		if err != nil {
			return err
		}
		if err := writeFile(c.htmlOut, func(f io.Writer) error {
			return report.RenderHTML(f, "Aggregated Moments - Query: "+out.Query, charts)
		}); err != nil {
			return err
		}
		logger.Info("Chart page written", zap.String("path", c.htmlOut))
	}
	return nil
}

func (c *AggregateCommand) readInputs() ([]moment.Input, error) {
	if c.moments == "" && c.selections == "" {
		return nil, fmt.Errorf("one of --moments or --selections is required")
	}

	var inputs []moment.Input
	if c.moments != "" {
		data, err := os.ReadFile(c.moments)
		if err != nil {
			return nil, err
		}
		parsed, err := moment.ParseInputsJSON(data)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, parsed...)
	}
	if c.selections != "" {
		data, err := os.ReadFile(c.selections)
		if err != nil {
			return nil, err
		}
		selections, err := moment.ParseSelectionsJSON(data)
		if err != nil {
			return nil, err
		}
		resolved, malformed := moment.Resolve(selections)
		for _, s := range malformed {
			fmt.Fprintf(os.Stderr, "WARN: dropping malformed selection %q\n", s)
		}
		inputs = append(inputs, resolved...)
	}
	return inputs, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// printOutcome renders the aggregate as a summary table followed by any
// moments that did not contribute.
func printOutcome(w io.Writer, out *pipeline.Outcome) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)

	switch res := out.Result.(type) {
	case *aggregate.PooledResult:
		tbl.SetTitle(fmt.Sprintf("Pooled (%d moments, pure duration %ss)", res.Segments, formatFloat(res.PureDuration)))
		tbl.AppendHeader(table.Row{"Measure", "N", "Min", "Max", "Mean", "Std"})
		for _, m := range res.Measures {
			st := res.Stats[m]
			tbl.AppendRow(table.Row{string(m), st.Count, formatFloat(st.Min), formatFloat(st.Max),
				formatFloat(st.Mean), formatFloat(st.Std)})
		}
	case *aggregate.AlignedResult:
		tbl.SetTitle(fmt.Sprintf("Aligned (%d moments, %ss to %ss)", res.Included,
			formatFloat(-res.PreDuration), formatFloat(res.EffectivePost())))
		tbl.AppendHeader(table.Row{"Measure", "Min", "Max", "Mean", "At 0s"})
		for _, m := range res.Measures {
			curve, _ := res.Curve(m)
			st := aggregate.Describe(curve)
			at, _ := res.At(m, 0)
			tbl.AppendRow(table.Row{string(m), formatFloat(st.Min), formatFloat(st.Max), formatFloat(st.Mean), formatFloat(at)})
		}
	}
	tbl.Render()

	drops := out.Drops()
	if len(drops) == 0 && len(out.Rejected) == 0 {
		return
	}
	dt := table.NewWriter()
	dt.SetOutputMirror(w)
	dt.SetStyle(table.StyleLight)
	dt.SetTitle("Left out")
	dt.AppendHeader(table.Row{"Moment", "Reason"})
	for _, r := range out.Rejected {
		dt.AppendRow(table.Row{r.Input.VideoID, r.Err.Error()})
	}
	for _, d := range drops {
		reason := string(d.Reason)
		if d.Detail != "" {
			reason += ": " + d.Detail
		}
		dt.AppendRow(table.Row{d.Label(), reason})
	}
	dt.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
