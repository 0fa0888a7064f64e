// Package analysis orchestrates a full evaluation of one snapshot:
// area and volume quantities, Ex-zone and fire-compartment
// classification, and the consistency and accessibility checks. The
// snapshot is treated as immutable; stages that only read it run
// concurrently, stages consuming earlier results run after them.
package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/raumwerk/raumwerk/pkg/check"
	"github.com/raumwerk/raumwerk/pkg/classify"
	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/logging"
	"github.com/raumwerk/raumwerk/pkg/metrics"
	"github.com/raumwerk/raumwerk/pkg/model"
	"github.com/raumwerk/raumwerk/pkg/quantity"
)

// Report bundles every analysis result for one snapshot.
type Report struct {
	ProjectID   string    `json:"project_id"`
	ProjectName string    `json:"project_name,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`

	DIN277 *quantity.AreaResult `json:"din277,omitempty"`
	WoFlV  *quantity.AreaResult `json:"woflv,omitempty"`

	Volumes map[string]quantity.VolumeResult `json:"volumes,omitempty"`

	ExZones          *classify.ZoneResult        `json:"ex_zones,omitempty"`
	FireCompartments *classify.CompartmentResult `json:"fire_compartments,omitempty"`

	Checks *check.Report `json:"checks,omitempty"`
}

// Options controls a run.
type Options struct {
	// ApplyDerived writes derived volumes back onto the snapshot after
	// the run. This is the only snapshot mutation the engine performs.
	ApplyDerived bool
}

// DefaultOptions returns the options used by the server endpoints.
func DefaultOptions() Options {
	return Options{ApplyDerived: true}
}

// Engine wires the analysis packages to one rule set.
type Engine struct {
	rules      config.RuleSet
	calc       *quantity.Calculator
	classifier *classify.Classifier
	checker    *check.Checker
	logger     logging.Logger
	metrics    *metrics.Registry
}

// NewEngine returns an engine bound to the given rule set. A nil
// logger or registry falls back to the package defaults.
func NewEngine(rules config.RuleSet, logger logging.Logger, reg *metrics.Registry) *Engine {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Engine{
		rules:      rules,
		calc:       quantity.NewCalculator(rules),
		classifier: classify.NewClassifier(rules),
		checker:    check.NewChecker(rules),
		logger:     logger.With(logging.Component("analysis")),
		metrics:    reg,
	}
}

// Run evaluates the snapshot. The first phase computes volumes, the
// second runs the area standards and both classifications in parallel,
// the third runs the checks over the combined inputs. Run returns the
// context error if the context is cancelled between phases; a phase
// already started runs to completion.
func (e *Engine) Run(ctx context.Context, snap *model.Snapshot, opts Options) (*Report, error) {
	start := time.Now()
	spaces := len(snap.Spaces)
	report := &Report{
		ProjectID:   snap.Project.ID,
		ProjectName: snap.Project.Name,
		GeneratedAt: start.UTC(),
	}

	report.Volumes = timed(e, "volumes", spaces, func() map[string]quantity.VolumeResult {
		return e.calc.ComputeVolumes(snap)
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	netVolumes := netVolumeMap(report.Volumes)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		report.DIN277 = e.timedArea(snap, quantity.StandardDIN277, spaces)
	}()
	go func() {
		defer wg.Done()
		report.WoFlV = e.timedArea(snap, quantity.StandardWoFlV, spaces)
	}()
	go func() {
		defer wg.Done()
		report.ExZones = timed(e, "ex_zones", spaces, func() *classify.ZoneResult {
			return e.classifier.ClassifyExZones(snap, netVolumes)
		})
	}()
	go func() {
		defer wg.Done()
		report.FireCompartments = timed(e, "fire_compartments", spaces, func() *classify.CompartmentResult {
			return e.classifier.ClassifyFireCompartments(snap)
		})
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	consistency := timed(e, "check", spaces, func() *check.Report {
		return e.checker.Run(snap, check.Inputs{
			Volumes: report.Volumes,
			Zones:   report.ExZones,
		})
	})
	accessibility := e.checker.CheckAccessibility(snap, e.rules.Accessibility)
	report.Checks = check.Merge(snap.Project.ID, consistency, accessibility)

	if opts.ApplyDerived {
		e.calc.ApplyDerived(snap, report.Volumes)
	}

	e.recordRun(report, spaces)
	e.logger.Info("analysis run complete",
		logging.ProjectID(snap.Project.ID),
		logging.Count(spaces),
		logging.Int("findings", report.Checks.Summary.Total),
		logging.Int("hazardous_spaces", report.ExZones.HazardousCount),
		logging.Int("fire_compartments", len(report.FireCompartments.Compartments)),
		logging.Latency(time.Since(start)),
	)
	return report, nil
}

// timed runs one stage and records its metrics.
func timed[T any](e *Engine, analysis string, spaces int, fn func() T) T {
	start := time.Now()
	out := fn()
	e.metrics.RecordAnalysis(analysis, "success", time.Since(start), spaces)
	return out
}

func (e *Engine) timedArea(snap *model.Snapshot, standard string, spaces int) *quantity.AreaResult {
	start := time.Now()
	result, err := e.calc.ComputeAreas(snap, standard)
	if err != nil {
		e.metrics.RecordAnalysis(standard, "error", time.Since(start), spaces)
		e.logger.Error("area computation failed",
			logging.Standard(standard), logging.Error(err))
		return nil
	}
	e.metrics.RecordAnalysis(standard, "success", time.Since(start), spaces)
	return result
}

func (e *Engine) recordRun(report *Report, spaces int) {
	s := report.Checks.Summary
	e.metrics.RecordFindings(s.Errors, s.Warnings, s.Infos)
	e.metrics.UpdateClassificationMetrics(
		report.ExZones.HazardousCount,
		len(report.FireCompartments.Compartments),
	)
	incomplete := 0
	for _, v := range report.Volumes {
		if v.Incomplete {
			incomplete++
		}
	}
	if incomplete > 0 {
		e.metrics.IncompleteEntities.WithLabelValues("volumes").Add(float64(incomplete))
	}
}

// netVolumeMap reduces volume results to the values the ventilation
// check consumes, dropping incomplete entries.
func netVolumeMap(volumes map[string]quantity.VolumeResult) map[string]float64 {
	out := make(map[string]float64, len(volumes))
	for id, v := range volumes {
		if v.Incomplete {
			continue
		}
		out[id] = v.VolumeM3
	}
	return out
}
