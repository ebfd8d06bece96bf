package main

import (
	"context"
	"errors"
	goflag "flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

func main() {
	config := &Config{
		QualityCheck:        true,
		BrightnessThreshold: defaultBrightnessThreshold,
	}

	klogFlags := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(klogFlags)
	pflag.CommandLine.AddGoFlagSet(klogFlags)

	configPath := pflag.String("config", getConfigPath(), "Path to the YAML config file")
	pflag.StringVarP(&config.SourcePath, "source", "s", "", "Directory to organize")
	pflag.StringVarP(&config.DestPath, "dest", "d", "", "Root of the organized YYYY/MM tree (must exist)")
	pflag.StringVar(&config.OpenCageKey, "opencage-key", "", "OpenCage API key for reverse geocoding (disabled when empty)")
	pflag.StringVar(&config.ReportDB, "report-db", "", "Export the run report to this SQLite file")
	noQuality := pflag.Bool("no-quality", false, "Disable the low-brightness image check")
	pflag.Float64Var(&config.BrightnessThreshold, "brightness-threshold", config.BrightnessThreshold, "Mean luma below which an image is low quality")
	pflag.BoolVar(&config.DryRun, "dry-run", false, "Plan every move without touching the filesystem")
	noTUI := pflag.Bool("no-tui", false, "Disable TUI, use simple CLI output")
	save := pflag.Bool("save-config", false, "Write the effective settings to the config file")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [SOURCE DEST]\n\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()

	args := pflag.Args()
	if len(args) > 2 {
		pflag.Usage()
		os.Exit(2)
	}
	set := func(name string) bool {
		switch {
		case name == "source" && len(args) > 0:
			return true
		case name == "dest" && len(args) > 1:
			return true
		}
		return pflag.CommandLine.Changed(name)
	}

	cf, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	cf.apply(config, set)

	if len(args) > 0 {
		config.SourcePath = args[0]
	}
	if len(args) > 1 {
		config.DestPath = args[1]
	}
	if *noQuality {
		config.QualityCheck = false
	}

	if config.SourcePath == "" || config.DestPath == "" {
		fmt.Fprintln(os.Stderr, "Error: both a source and a destination directory are required")
		pflag.Usage()
		os.Exit(2)
	}

	// Absolute roots keep the destination-inside-source skip exact
	for _, p := range []*string{&config.SourcePath, &config.DestPath} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: resolve %s: %v\n", *p, err)
			os.Exit(1)
		}
		*p = abs
	}

	if *save {
		if err := saveConfig(*configPath, configFileFrom(config)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
		} else {
			fmt.Printf("Configuration saved to %s\n", *configPath)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	var code int
	if *noTUI {
		code = runCLI(ctx, config)
	} else {
		code = runTUI(ctx, config)
	}
	stop()
	klog.Flush()
	os.Exit(code)
}

// buildOrganizer wires the optional collaborators selected by config
func buildOrganizer(config *Config) (*Organizer, *Journal, error) {
	var geocoder Geocoder
	if config.OpenCageKey != "" {
		geocoder = NewOpenCageClient(config.OpenCageKey)
	}

	var scorer QualityScorer
	if config.QualityCheck {
		scorer = BrightnessScorer{Threshold: config.BrightnessThreshold}
	}

	organizer := NewOrganizer(afero.NewOsFs(), config, geocoder, scorer)

	if config.ReportDB == "" {
		return organizer, nil, nil
	}
	journal, err := OpenJournal(config.ReportDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open report db: %w", err)
	}
	organizer.SetJournal(journal)
	return organizer, journal, nil
}

func runCLI(ctx context.Context, config *Config) int {
	fmt.Println("Tidy Media")
	fmt.Println("==========")
	fmt.Println()

	fmt.Println("Configuration:")
	fmt.Printf("  Source:       %s\n", config.SourcePath)
	fmt.Printf("  Destination:  %s\n", config.DestPath)
	if config.OpenCageKey != "" {
		fmt.Printf("  Geocoding:    OpenCage\n")
	} else {
		fmt.Printf("  Geocoding:    Disabled\n")
	}
	if config.QualityCheck {
		fmt.Printf("  Quality:      brightness < %.0f\n", config.BrightnessThreshold)
	} else {
		fmt.Printf("  Quality:      Disabled\n")
	}
	if config.ReportDB != "" {
		fmt.Printf("  Report DB:    %s\n", config.ReportDB)
	}

	fmt.Println()
	if config.DryRun {
		fmt.Println("Mode: DRY RUN (no changes will be made)")
	} else {
		fmt.Println("Mode: EXECUTE (files will be moved)")
	}
	fmt.Println()

	organizer, journal, err := buildOrganizer(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if journal != nil {
		defer journal.Close()
	}

	report, err := organizer.Run(ctx)
	if report == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Println()
	report.Print(os.Stdout)
	printJournalStats(journal, report)

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted: remaining files were left in place")
		return 130
	}
	return 0
}

func runTUI(ctx context.Context, config *Config) int {
	// The TUI owns the terminal
	klog.SetOutput(io.Discard)
	klog.LogToStderr(false)

	organizer, journal, err := buildOrganizer(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if journal != nil {
		defer journal.Close()
	}

	p := tea.NewProgram(initialModel(ctx, config, organizer), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	m, ok := final.(model)
	if !ok {
		return 1
	}
	if m.report == nil {
		if m.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", m.err)
			return 1
		}
		// Quit before the run started
		return 130
	}

	m.report.Print(os.Stdout)
	printJournalStats(journal, m.report)
	if errors.Is(m.err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted: remaining files were left in place")
		return 130
	}
	return 0
}

func printJournalStats(journal *Journal, report *Report) {
	if journal == nil {
		return
	}
	journal.Flush()
	stats, err := journal.RunStats(report.RunID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: report export unreadable: %v\n", err)
		return
	}
	fmt.Printf("Report %s exported: %d moved, %d removed, %d skipped\n",
		report.RunID, stats[OutcomeMoved.String()], stats[OutcomeRemoved.String()], stats[OutcomeSkipped.String()])
}
