package analysis

import (
	"context"
	"reflect"
	"testing"

	"github.com/raumwerk/raumwerk/pkg/check"
	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/logging"
	"github.com/raumwerk/raumwerk/pkg/metrics"
	"github.com/raumwerk/raumwerk/pkg/model"
)

func f(v float64) *float64 { return &v }

func newEngine() *Engine {
	return NewEngine(config.Default().Rules, logging.NewNopLogger(), metrics.NewRegistry())
}

// plantSnapshot is a two-storey model with one declared gas zone, one
// gas-tight wall and one fire-rated wall.
func plantSnapshot() *model.Snapshot {
	snap := model.NewSnapshot(model.Project{ID: "p1", Name: "Werk Nord"})
	snap.Storeys["st1"] = &model.Storey{ID: "st1", ProjectID: "p1", Name: "EG", Elevation: 0}
	snap.Storeys["st2"] = &model.Storey{ID: "st2", ProjectID: "p1", Name: "OG", Elevation: 3.2}

	snap.Spaces["s1"] = &model.Space{
		ID: "s1", StoreyID: "st1", Name: "Lager Lösemittel", Usage: "lager",
		FootprintM2: f(24), HeightM: f(3.0),
		Hazard: &model.HazardMarker{Zone: model.Zone1, Substances: "Aceton", Explicit: true},
	}
	snap.Spaces["s2"] = &model.Space{
		ID: "s2", StoreyID: "st1", Name: "Flur", Usage: "flur",
		FootprintM2: f(12), HeightM: f(3.0),
	}
	snap.Spaces["s3"] = &model.Space{
		ID: "s3", StoreyID: "st2", Name: "Büro", Usage: "büro",
		FootprintM2: f(18), HeightM: f(2.8), VolumeM3: f(50.4),
	}

	snap.Elements["w12"] = &model.Element{
		ID: "w12", StoreyID: "st1", Kind: model.KindWall, Name: "Wand s1/s2",
		LengthM: f(4), WidthM: f(0.24), HeightM: f(3.0),
		FireClass:      model.ParseFireRating("F90"),
		BoundsSpaceIDs: []string{"s1", "s2"},
	}
	snap.Elements["w23"] = &model.Element{
		ID: "w23", StoreyID: "st1", Kind: model.KindWall, Name: "Wand s2/s3",
		LengthM: f(4), WidthM: f(0.24), HeightM: f(3.0),
		GasTight:       true,
		BoundsSpaceIDs: []string{"s2", "s3"},
	}
	snap.Elements["d1"] = &model.Element{
		ID: "d1", StoreyID: "st1", Kind: model.KindDoor, Name: "Tür Flur",
		WidthM: f(0.95), HeightM: f(2.13),
		BoundsSpaceIDs: []string{"s2"},
	}

	snap.Adjacency = []model.AdjacencyEdge{
		{From: "s1", To: "s2", ElementID: "w12"},
		{From: "s2", To: "s3", ElementID: "w23"},
	}
	return snap
}

func TestRunProducesAllSections(t *testing.T) {
	snap := plantSnapshot()
	report, err := newEngine().Run(context.Background(), snap, DefaultOptions())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.ProjectID != "p1" {
		t.Errorf("ProjectID = %q, want p1", report.ProjectID)
	}
	if report.DIN277 == nil || report.WoFlV == nil {
		t.Fatal("expected both area results")
	}
	if report.DIN277.Standard != "din277" {
		t.Errorf("DIN277.Standard = %q", report.DIN277.Standard)
	}
	if len(report.Volumes) != 3 {
		t.Errorf("Volumes count = %d, want 3", len(report.Volumes))
	}
	if report.ExZones == nil || report.FireCompartments == nil {
		t.Fatal("expected classification results")
	}
	if report.Checks == nil {
		t.Fatal("expected check report")
	}
	if report.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestRunClassification(t *testing.T) {
	snap := plantSnapshot()
	report, err := newEngine().Run(context.Background(), snap, DefaultOptions())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Declared Zone 1 in s1, decayed to Zone 2 in s2 through the
	// fire-rated but not gas-tight wall, blocked before s3.
	zones := report.ExZones.Assignments
	if zones["s1"].Gas != model.Zone1 {
		t.Errorf("s1 gas zone = %v, want zone_1", zones["s1"].Gas)
	}
	if zones["s2"].Gas != model.Zone2 {
		t.Errorf("s2 gas zone = %v, want zone_2", zones["s2"].Gas)
	}
	if zones["s3"].Gas != model.ZoneNone {
		t.Errorf("s3 gas zone = %v, want none", zones["s3"].Gas)
	}
	if report.ExZones.HazardousCount != 2 {
		t.Errorf("HazardousCount = %d, want 2", report.ExZones.HazardousCount)
	}

	// The F90 wall splits s1 from s2; the unrated gas-tight wall does
	// not split s2 from s3.
	fc := report.FireCompartments
	if len(fc.Compartments) != 2 {
		t.Fatalf("compartments = %d, want 2", len(fc.Compartments))
	}
	if fc.SpaceCompartment["s2"] != fc.SpaceCompartment["s3"] {
		t.Error("s2 and s3 should share a compartment")
	}
	if fc.SpaceCompartment["s1"] == fc.SpaceCompartment["s2"] {
		t.Error("s1 and s2 should be separated")
	}
}

func TestRunMergesAccessibilityFindings(t *testing.T) {
	snap := plantSnapshot()
	// Narrow the door below the DIN 18040-1 clear width.
	snap.Elements["d1"].WidthM = f(0.75)

	report, err := newEngine().Run(context.Background(), snap, DefaultOptions())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	found := false
	for _, fd := range report.Checks.Findings {
		if fd.Rule == "din18040.door_width" && fd.SubjectID == "d1" {
			found = true
		}
	}
	if !found {
		t.Error("expected din18040.door_width finding for d1 in merged report")
	}

	// Merged findings stay ordered by severity.
	lastRank := -1
	rank := map[check.Severity]int{
		check.SeverityError: 0, check.SeverityWarning: 1, check.SeverityInfo: 2,
	}
	for _, fd := range report.Checks.Findings {
		if rank[fd.Severity] < lastRank {
			t.Fatalf("findings not ordered by severity at rule %s", fd.Rule)
		}
		lastRank = rank[fd.Severity]
	}
}

func TestRunApplyDerived(t *testing.T) {
	snap := plantSnapshot()
	if _, err := newEngine().Run(context.Background(), snap, Options{ApplyDerived: true}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// s1 has no modeled volume, so the derived 24*3.0 is written back.
	if snap.Spaces["s1"].DerivedVolumeM3 == nil {
		t.Fatal("expected derived volume on s1")
	}
	if got := *snap.Spaces["s1"].DerivedVolumeM3; got != 72 {
		t.Errorf("derived volume = %v, want 72", got)
	}
	// s3 has a modeled volume and keeps it untouched.
	if snap.Spaces["s3"].DerivedVolumeM3 != nil {
		t.Error("modeled volume must not gain a derived value")
	}
}

func TestRunWithoutApplyDerived(t *testing.T) {
	snap := plantSnapshot()
	if _, err := newEngine().Run(context.Background(), snap, Options{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if snap.Spaces["s1"].DerivedVolumeM3 != nil {
		t.Error("snapshot mutated although ApplyDerived was off")
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine().Run(ctx, plantSnapshot(), DefaultOptions())
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunDeterministic(t *testing.T) {
	e := newEngine()
	first, err := e.Run(context.Background(), plantSnapshot(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Run(context.Background(), plantSnapshot(), DefaultOptions())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !reflect.DeepEqual(again.Checks.Findings, first.Checks.Findings) {
			t.Fatal("findings differ between identical runs")
		}
		if !reflect.DeepEqual(again.ExZones.Assignments, first.ExZones.Assignments) {
			t.Fatal("zone assignments differ between identical runs")
		}
	}
}
