// Command raumwerk evaluates one exchange document offline: it imports
// the model, runs the full analysis and writes the report, the
// schedule workbook and the GAEB bill next to each other in the output
// directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raumwerk/raumwerk/pkg/analysis"
	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/export"
	"github.com/raumwerk/raumwerk/pkg/importer"
	"github.com/raumwerk/raumwerk/pkg/logging"
	"github.com/raumwerk/raumwerk/pkg/metrics"
	"github.com/raumwerk/raumwerk/pkg/model"
	"github.com/raumwerk/raumwerk/pkg/quantity"
	"github.com/raumwerk/raumwerk/pkg/schedule"
	"github.com/raumwerk/raumwerk/pkg/store"
)

func main() {
	inPath := flag.String("in", "", "Path to the exchange document (JSON)")
	outDir := flag.String("out", ".", "Output directory for report and exports")
	configPath := flag.String("config", "", "Path to rules YAML (default: built-in rule set)")
	dbPath := flag.String("db", "", "Persist snapshot and report to this SQLite database")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	strict := flag.Bool("strict", false, "Exit nonzero when the checks report errors")
	flag.Parse()

	if *inPath == "" {
		fmt.Println("Usage: raumwerk -in model.json [-out dir] [-config rules.yaml] [-db raumwerk.db] [-strict]")
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(*logLevel))
	logging.SetDefaultLogger(logger)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", logging.Error(err))
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(cfg, *inPath, *outDir, *dbPath, *strict, logger); err != nil {
		logger.Error("run failed", logging.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, inPath, outDir, dbPath string, strict bool, logger logging.Logger) error {
	start := time.Now()
	reg := metrics.DefaultRegistry()

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	snap, result, err := importer.New(logger, reg).Import(in)
	if err != nil {
		return err
	}
	for _, rej := range result.Rejections {
		logger.Warn("entity rejected",
			logging.String("entity", rej.Entity),
			logging.String("id", rej.ID),
			logging.String("reason", rej.Reason),
		)
	}

	engine := analysis.NewEngine(cfg.Rules, logger, reg)
	report, err := engine.Run(context.Background(), snap, analysis.DefaultOptions())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeOutputs(snap, report, cfg, outDir, logger); err != nil {
		return err
	}

	if dbPath != "" {
		if err := persist(snap, report, dbPath, logger, reg); err != nil {
			return err
		}
	}

	s := report.Checks.Summary
	logger.Info("analysis complete",
		logging.ProjectID(snap.Project.ID),
		logging.Int("spaces", result.Spaces),
		logging.Int("errors", s.Errors),
		logging.Int("warnings", s.Warnings),
		logging.Int("hazardous_spaces", report.ExZones.HazardousCount),
		logging.Int("fire_compartments", len(report.FireCompartments.Compartments)),
		logging.Latency(time.Since(start)),
	)

	if strict && s.Errors > 0 {
		return fmt.Errorf("checks reported %d errors", s.Errors)
	}
	return nil
}

func writeOutputs(snap *model.Snapshot, report *analysis.Report, cfg config.Config, outDir string, logger logging.Logger) error {
	reportPath := filepath.Join(outDir, snap.Project.ID+"-report.json")
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(reportPath, payload, 0o640); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("report written", logging.Path(reportPath))

	builder := schedule.NewBuilder(quantity.NewCalculator(cfg.Rules))
	schedules := make(map[schedule.Kind]*schedule.Schedule, len(schedule.Kinds))
	for _, kind := range schedule.Kinds {
		sched, err := builder.Build(snap, kind, schedule.DefaultOptions())
		if err != nil {
			return err
		}
		schedules[kind] = sched
	}

	xlsxPath := filepath.Join(outDir, snap.Project.ID+"-schedules.xlsx")
	xlsx, err := os.Create(xlsxPath)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := export.WriteWorkbook(xlsx, snap, schedules); err != nil {
		_ = xlsx.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := xlsx.Close(); err != nil {
		return err
	}
	logger.Info("workbook written", logging.Path(xlsxPath))

	gaebPath := filepath.Join(outDir, snap.Project.ID+".x83")
	gaeb, err := os.Create(gaebPath)
	if err != nil {
		return fmt.Errorf("create gaeb file: %w", err)
	}
	if err := export.WriteGAEB(gaeb, export.BuildBill(snap, schedules)); err != nil {
		_ = gaeb.Close()
		return fmt.Errorf("write gaeb: %w", err)
	}
	if err := gaeb.Close(); err != nil {
		return err
	}
	logger.Info("gaeb bill written", logging.Path(gaebPath))
	return nil
}

func persist(snap *model.Snapshot, report *analysis.Report, dbPath string, logger logging.Logger, reg *metrics.Registry) error {
	st, err := store.Open(dbPath, logger, reg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	if err := st.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	if err := st.SaveReport(ctx, report); err != nil {
		return err
	}
	logger.Info("snapshot persisted",
		logging.ProjectID(snap.Project.ID),
		logging.Path(dbPath),
	)
	return nil
}
