package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/sysdyn/internal/config"
	"github.com/san-kum/sysdyn/internal/dynamo"
	"github.com/san-kum/sysdyn/internal/export"
	"github.com/san-kum/sysdyn/internal/graph"
	"github.com/san-kum/sysdyn/internal/sim"
	"github.com/san-kum/sysdyn/internal/storage"
	"github.com/san-kum/sysdyn/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	startTime float64
	stopTime  float64
	dt        float64
	report    float64
	sets      []string
	saveRun   bool
	// plot/export selection
	varNames []string
	outPath  string
	svgW     int
	svgH     int
	// sweep
	sweepParam  string
	sweepValues []string
	// frame rate for live view
	frameRate int
)

// main is the entry point for the sysdyn CLI; it registers commands and
// flags and executes the root command, exiting with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "sysdyn",
		Short: "stock and flow simulation lab",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".sysdyn", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a model (preset name or yaml file)",
		Args:  cobra.ExactArgs(1),
		RunE:  runModel,
	}
	runCmd.Flags().Float64Var(&startTime, "start", 0, "start time")
	runCmd.Flags().Float64Var(&stopTime, "stop", 0, "stop time")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "time step")
	runCmd.Flags().Float64Var(&report, "report", 0, "reporting interval")
	runCmd.Flags().StringArrayVar(&sets, "set", nil, "override a variable, name=expression")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "save the run to the data directory")

	validateCmd := &cobra.Command{
		Use:   "validate [model]",
		Short: "compile a model and print its evaluation order",
		Args:  cobra.ExactArgs(1),
		RunE:  validateModel,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringArrayVar(&varNames, "var", nil, "variable to plot (repeatable, default: all stocks)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export run series as an SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringArrayVar(&varNames, "var", nil, "variable to chart (repeatable, default: all)")
	exportSVGCmd.Flags().StringVar(&outPath, "out", "", "output file (default: stdout)")
	exportSVGCmd.Flags().IntVar(&svgW, "width", 800, "chart width")
	exportSVGCmd.Flags().IntVar(&svgH, "height", 400, "chart height")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "run a model across parameter values in parallel",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepModel,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "variable to sweep")
	sweepCmd.Flags().StringArrayVar(&sweepValues, "values", nil, "values to sweep over (repeatable)")
	sweepCmd.Flags().StringArrayVar(&sets, "set", nil, "base override, name=expression")
	sweepCmd.MarkFlagRequired("param")
	sweepCmd.MarkFlagRequired("values")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in models",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVARIABLES\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				f := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(f.Variables), f.Doc)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [preset]",
		Short: "write a preset out as a yaml model file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := config.GetPreset(args[0])
			if f == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			path := outPath
			if path == "" {
				path = args[0] + ".yaml"
			}
			if err := config.Save(path, f); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&outPath, "out", "", "output file (default: <preset>.yaml)")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run a model with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&dt, "dt", 0, "time step")
	liveCmd.Flags().Float64Var(&stopTime, "stop", 0, "stop time")
	liveCmd.Flags().StringArrayVar(&sets, "set", nil, "override a variable, name=expression")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	rootCmd.AddCommand(runCmd, validateCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, sweepCmd, presetsCmd, initCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadModel resolves the argument as a preset name first, then as a yaml
// file path.
func loadModel(arg string) (*dynamo.Model, dynamo.Config, string, error) {
	f := config.GetPreset(arg)
	if f == nil {
		var err error
		f, err = config.Load(arg)
		if err != nil {
			return nil, dynamo.Config{}, "", fmt.Errorf("not a preset or readable file: %s: %w", arg, err)
		}
	}
	model, cfg, err := f.Build()
	if err != nil {
		return nil, dynamo.Config{}, "", err
	}
	name := f.Name
	if name == "" {
		name = arg
	}
	return model, cfg, name, nil
}

func applyFlags(cmd *cobra.Command, cfg *dynamo.Config) error {
	if cmd.Flags().Changed("start") {
		cfg.StartTime = startTime
	}
	if cmd.Flags().Changed("stop") {
		cfg.EndTime = stopTime
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("report") {
		cfg.ReportInterval = report
	}
	for _, s := range sets {
		name, eq, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("bad --set %q, want name=expression", s)
		}
		if cfg.Overrides == nil {
			cfg.Overrides = make(map[string]string)
		}
		cfg.Overrides[strings.ToLower(strings.TrimSpace(name))] = eq
	}
	return cfg.Validate()
}

func runModel(cmd *cobra.Command, args []string) error {
	model, cfg, name, err := loadModel(args[0])
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}

	rt, err := sim.New(model, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("running %s...\n", name)
	start := time.Now()
	result, err := rt.Run(context.Background())
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d, snapshots: %d\n\n", result.StepsTaken, len(result.Snapshots))
	fmt.Println(viz.Summary(result))

	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(name, cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func validateModel(cmd *cobra.Command, args []string) error {
	model, _, name, err := loadModel(args[0])
	if err != nil {
		return err
	}
	plan, err := graph.Build(model)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d variables, %d edges\n\n", name, len(plan.Vars), len(plan.Edges))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tNAME\tKIND")
	for pos, i := range plan.Order {
		v := plan.Vars[i].Var
		fmt.Fprintf(w, "%d\t%s\t%s\n", pos, v.Name, v.Kind)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSPAN\tDT\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4g-%.4g\t%.4g\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.StartTime,
			run.EndTime,
			run.Dt,
			run.Steps,
		)
	}
	return w.Flush()
}

// loadResult rebuilds a Result from a saved run so the export and plot
// paths work the same for fresh and stored runs.
func loadResult(st *storage.Store, runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}

	names := meta.Variables
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}
	result := &dynamo.Result{Names: names, Times: times, StepsTaken: meta.Steps}
	for row, t := range times {
		values := make([]float64, len(names))
		for i, name := range names {
			values[i] = series[name][row]
		}
		result.Snapshots = append(result.Snapshots, dynamo.NewSnapshot(names, index, values, t))
	}
	return meta, result, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, result, err := loadResult(st, args[0])
	if err != nil {
		return err
	}

	names := varNames
	if len(names) == 0 {
		names = meta.Variables
		if len(names) > 6 {
			names = names[:6]
		}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(result.Snapshots))

	chart, err := viz.Plot(result, names, 80, 12)
	if err != nil {
		return err
	}
	fmt.Println(chart)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	return export.WriteJSONValue(os.Stdout, meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	_, result, err := loadResult(st, args[0])
	if err != nil {
		return err
	}
	return export.WriteCSV(os.Stdout, result)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, result, err := loadResult(st, args[0])
	if err != nil {
		return err
	}
	cfg := dynamo.Config{StartTime: meta.StartTime, EndTime: meta.EndTime, Dt: meta.Dt, ReportInterval: meta.Report}
	return export.WriteJSON(os.Stdout, meta.Model, cfg, result)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, result, err := loadResult(st, args[0])
	if err != nil {
		return err
	}
	names := varNames
	if len(names) == 0 {
		names = meta.Variables
	}
	if outPath != "" {
		return export.SVGFile(outPath, result, names, svgW, svgH)
	}
	return export.WriteSVG(os.Stdout, result, names, svgW, svgH)
}

func sweepModel(cmd *cobra.Command, args []string) error {
	model, cfg, name, err := loadModel(args[0])
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}

	param := strings.ToLower(sweepParam)
	scenarios := make([]sim.Scenario, len(sweepValues))
	for i, v := range sweepValues {
		scenarios[i] = sim.Scenario{
			Name:      fmt.Sprintf("%s=%s", param, v),
			Overrides: map[string]string{param: v},
		}
	}

	fmt.Printf("sweeping %s over %s (%d runs)...\n\n", name, param, len(scenarios))
	ensemble := sim.NewEnsemble(model, cfg)
	results, err := ensemble.Run(context.Background(), scenarios)
	if err != nil {
		return err
	}

	stocks := stockNames(model)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\t"+strings.ToUpper(strings.Join(stocks, "\t")))
	for i, res := range results {
		if len(res.Snapshots) == 0 {
			continue
		}
		last := res.Snapshots[len(res.Snapshots)-1]
		row := []string{scenarios[i].Name}
		for _, s := range stocks {
			v, _ := last.Value(s)
			row = append(row, fmt.Sprintf("%.6g", v))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func stockNames(model *dynamo.Model) []string {
	var names []string
	for _, name := range model.Names() {
		v, _ := model.Get(name)
		if v.Kind == dynamo.KindStock {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func runLive(cmd *cobra.Command, args []string) error {
	model, cfg, name, err := loadModel(args[0])
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}

	m, err := viz.NewModel(model, cfg, name, frameRate)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
