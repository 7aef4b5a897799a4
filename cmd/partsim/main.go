package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/export"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/particle"
	"github.com/san-kum/partsim/internal/storage"
	"github.com/san-kum/partsim/internal/viz"
)

var (
	dataDir     string
	configFile  string
	preset      string
	events      int
	particles   int
	seed        int64
	smear       bool
	quiet       bool
	metricsFile string
	batch       int
	histName    string
	plotAll     bool
	outFile     string
	px, py, pz  float64
	decayCount  int
	listQuery   storage.Query
	listSince   time.Duration
	reindex     bool
	svgFile     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "partsim",
		Short:         "particle event generator with resonance decays",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config, then "+config.DefaultDataDir+")")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-event log messages")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "generate events and save histograms",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write run counters in Prometheus text format to this file")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "generate events with live histograms",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().IntVar(&batch, "batch", 200, "events per refresh")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	addSourceFlags(listCmd)
	listCmd.Flags().StringVar(&listQuery.Name, "name", "", "only runs with this preset or config name")
	listCmd.Flags().Int64Var(&listQuery.Seed, "seed", 0, "only runs with this seed")
	listCmd.Flags().IntVar(&listQuery.MinEvents, "min-events", 0, "only runs with at least this many events")
	listCmd.Flags().DurationVar(&listSince, "since", 0, "only runs started within this duration (e.g. 24h)")
	listCmd.Flags().BoolVar(&listQuery.SmearOnly, "smeared", false, "only runs with mass smearing")
	listCmd.Flags().IntVar(&listQuery.Limit, "limit", 0, "show at most this many runs, newest first")
	listCmd.Flags().BoolVar(&reindex, "reindex", false, "rebuild the run catalog from the data directory")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run histograms",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	addSourceFlags(plotCmd)
	plotCmd.Flags().StringVar(&histName, "hist", metrics.HistInvMassDecay, "histogram to plot")
	plotCmd.Flags().BoolVar(&plotAll, "all", false, "plot every histogram")
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write the plotted histograms as SVG; with --all each file is suffixed with the histogram name")

	exportCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and histograms as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	addSourceFlags(exportCmd)
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	speciesCmd := &cobra.Command{
		Use:   "species",
		Short: "show the configured species table",
		Args:  cobra.NoArgs,
		RunE:  listSpecies,
	}
	addSourceFlags(speciesCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	decayCmd := &cobra.Command{
		Use:   "decay [parent] [product_a] [product_b]",
		Short: "decay a single particle and show the products",
		Args:  cobra.ExactArgs(3),
		RunE:  decayOne,
	}
	addSourceFlags(decayCmd)
	decayCmd.Flags().Float64Var(&px, "px", 0, "parent momentum x")
	decayCmd.Flags().Float64Var(&py, "py", 0, "parent momentum y")
	decayCmd.Flags().Float64Var(&pz, "pz", 0, "parent momentum z")
	decayCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	decayCmd.Flags().BoolVar(&smear, "smear", false, "sample the parent mass from its width")
	decayCmd.Flags().IntVarP(&decayCount, "n", "n", 1, "number of decays")
	decayCmd.Flags().StringVar(&svgFile, "svg", "", "write the product directions as SVG to this file")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, speciesCmd, presetsCmd, decayCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// addSourceFlags registers the flags that select a configuration.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

func addConfigFlags(cmd *cobra.Command) {
	addSourceFlags(cmd)
	cmd.Flags().IntVar(&events, "events", config.DefaultEvents, "number of events")
	cmd.Flags().IntVar(&particles, "particles", config.DefaultParticlesPerEvent, "particles generated per event")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().BoolVar(&smear, "smear", false, "sample resonance masses from their width")
}

// baseConfig layers the --config file over the --preset (or reference)
// configuration and names the result.
func baseConfig() (*config.Config, string, error) {
	name := "reference"
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		name = preset
	}

	if configFile != "" {
		if err := config.Overlay(configFile, cfg); err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		name = "custom"
	}
	return cfg, name, nil
}

// resolveConfig layers preset, config file, environment and flags, each
// overriding the previous.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, name, err := baseConfig()
	if err != nil {
		return nil, "", err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, "", err
	}

	flags := cmd.Flags()
	if flags.Changed("events") {
		cfg.Events = events
	}
	if flags.Changed("particles") {
		cfg.ParticlesPerEvent = particles
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("smear") {
		cfg.Smear = smear
	}
	applyDataDir(cfg)

	return cfg, name, cfg.Validate()
}

func applyDataDir(cfg *config.Config) {
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.DefaultDataDir
	}
}

// runDir resolves the data directory with the same precedence as run:
// --data, PARTSIM_DATA_DIR, then data_dir from --config or --preset.
func runDir() (string, error) {
	cfg, _, err := baseConfig()
	if err != nil {
		return "", err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return "", err
	}
	applyDataDir(cfg)
	return cfg.DataDir, nil
}

func newLogger() *log.Logger {
	if quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "partsim: ", log.LstdFlags)
}

func store() (*storage.Store, error) {
	dir, err := runDir()
	if err != nil {
		return nil, err
	}
	return storage.New(dir), nil
}

// saveRun writes the run directory and records it in the catalog.
func saveRun(ctx context.Context, cfg *config.Config, name string, res *experiment.Result) (string, error) {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	runID, err := st.Save(storage.RunMetadata{
		Name:              name,
		Seed:              cfg.Seed,
		Events:            cfg.Events,
		ParticlesPerEvent: cfg.ParticlesPerEvent,
		Smear:             cfg.Smear,
		Elapsed:           res.Elapsed,
		Summary:           res.Summary,
	}, res.Histograms)
	if err != nil {
		return "", err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return "", err
	}
	cat, err := st.Catalog()
	if err != nil {
		return "", err
	}
	defer cat.Close()
	if err := cat.Record(ctx, *meta); err != nil {
		return "", err
	}
	return runID, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, newLogger())
	if err != nil {
		return err
	}

	fmt.Printf("generating %s events (%d particles each, seed %d)...\n",
		viz.FormatCount(cfg.Events), cfg.ParticlesPerEvent, cfg.Seed)

	res, runErr := exp.Run(cmd.Context())
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		fmt.Println("interrupted, saving partial run")
	}

	runID, err := saveRun(context.WithoutCancel(cmd.Context()), cfg, name, res)
	if err != nil {
		return err
	}

	if metricsFile != "" {
		if err := exp.Counters().WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	fmt.Printf("completed in %v\n", res.Elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n\n", runID)
	fmt.Print(viz.SummaryTable(res.Summary))

	if h, ok := exp.Analysis().Get(metrics.HistInvMassDecay); ok && h.Entries > 0 {
		fmt.Printf("\ndecay invariant mass: mean %.5f  std %.5f\n", h.Mean(), h.StdDev())
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// Per-slot messages would corrupt the terminal UI.
	exp, err := experiment.New(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(viz.NewLiveModel(exp, batch), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(viz.LiveModel); ok && m.Err() != nil {
		return m.Err()
	}

	res := exp.Result()
	if res.Summary.Events == 0 {
		return nil
	}
	runID, err := saveRun(context.WithoutCancel(cmd.Context()), cfg, name, res)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s (%s events)\n", runID, viz.FormatCount(res.Summary.Events))
	return nil
}

// catalogQuery is the list filter built from the flags.
func catalogQuery(now time.Time) storage.Query {
	q := listQuery
	if listSince > 0 {
		q.Since = now.Add(-listSince)
	}
	return q
}

// queryRuns reads the run directories directly unless a filter or --reindex
// needs the catalog.
func queryRuns(ctx context.Context, st *storage.Store) ([]storage.RunMetadata, error) {
	q := catalogQuery(time.Now())
	if !reindex && q == (storage.Query{}) {
		return st.List()
	}

	cat, err := st.Catalog()
	if err != nil {
		return nil, err
	}
	defer cat.Close()
	if reindex {
		n, err := cat.Reindex(ctx, st)
		if err != nil {
			return nil, err
		}
		fmt.Printf("indexed %d runs into %s\n", n, cat.Path())
	}
	return cat.Runs(ctx, q)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := store()
	if err != nil {
		return err
	}
	runs, err := queryRuns(cmd.Context(), st)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tEVENTS\tSEED\tSMEAR\tDECAYS\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%v\t%s\t%v\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			viz.FormatCount(run.Summary.Events),
			run.Seed,
			run.Smear,
			viz.FormatCount(run.Summary.Decays),
			run.Elapsed.Round(time.Millisecond),
		)
	}

	return w.Flush()
}

// svgPath names the SVG for one histogram. When several are written the
// histogram name is inserted before the extension.
func svgPath(base, hist string, many bool) string {
	if !many {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + hist + ext
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st, err := store()
	if err != nil {
		return err
	}
	hists, err := st.LoadHistograms(runID)
	if err != nil {
		return err
	}

	found := false
	for _, h := range hists {
		if !plotAll && h.Name != histName {
			continue
		}
		found = true
		fmt.Println(viz.PlotHistogram(h, viz.PlotOptions{Width: 70, Height: 12}))
		fmt.Println()

		if svgFile != "" {
			path := svgPath(svgFile, h.Name, plotAll)
			if err := os.WriteFile(path, []byte(export.HistogramSVG(h, 800, 500, "#00ff88")), 0644); err != nil {
				return err
			}
			fmt.Printf("saved %s\n", path)
		}
	}
	if !found {
		names := make([]string, len(hists))
		for i, h := range hists {
			names[i] = h.Name
		}
		return fmt.Errorf("run %s has no histogram %q (available: %v)", runID, histName, names)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	w := io.Writer(os.Stdout)
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	st, err := store()
	if err != nil {
		return err
	}
	return st.ExportJSON(w, args[0])
}

func loadRegistry() (*particle.Registry, *config.Config, error) {
	cfg, _, err := baseConfig()
	if err != nil {
		return nil, nil, err
	}
	reg, err := experiment.BuildRegistry(cfg)
	return reg, cfg, err
}

func listSpecies(cmd *cobra.Command, args []string) error {
	reg, cfg, err := loadRegistry()
	if err != nil {
		return err
	}

	fmt.Print(viz.SpeciesTable(reg))
	if len(cfg.Channels) > 0 {
		fmt.Println("\nchannels:")
		for _, ch := range cfg.Channels {
			fmt.Printf("  %s -> %s %s  (weight %g)\n", ch.Parent, ch.A, ch.B, ch.Weight)
		}
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tEVENTS\tPARTICLES\tSMEAR")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\n", name, viz.FormatCount(cfg.Events), cfg.ParticlesPerEvent, cfg.Smear)
	}
	return w.Flush()
}

func decayOne(cmd *cobra.Command, args []string) error {
	reg, _, err := loadRegistry()
	if err != nil {
		return err
	}

	parent, err := particle.NewWith(reg, args[0], px, py, pz)
	if err != nil {
		return err
	}
	ia, err := reg.IndexOf(args[1])
	if err != nil {
		return err
	}
	ib, err := reg.IndexOf(args[2])
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	decayer := particle.Decayer{Smear: smear}
	display := viz.EventSnapshot{}
	fmt.Printf("parent: %s\n", parent)
	for i := 0; i < decayCount; i++ {
		a, b, err := decayer.Decay(parent, ia, ib, rng)
		if err != nil {
			return err
		}
		m, err := a.InvariantMass(b)
		if err != nil {
			return err
		}
		display.Products = append(display.Products, viz.DirectionOf(a.Momentum()), viz.DirectionOf(b.Momentum()))
		if i < 10 {
			fmt.Printf("\n[%d] %s\n    %s\n    invariant mass %.6f\n", i, a, b, m)
		}
	}

	canvas := viz.NewCanvas(40, 12)
	viz.DrawEvent(canvas, display)
	if decayCount > 1 {
		fmt.Printf("\nproduct directions, phi vs theta (%d decays):\n%s", decayCount, canvas.String())
	}
	if svgFile != "" {
		if err := os.WriteFile(svgFile, []byte(export.CanvasToSVG(canvas, 6)), 0644); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", svgFile)
	}
	return nil
}
