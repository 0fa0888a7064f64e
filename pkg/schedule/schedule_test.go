package schedule

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/model"
	"github.com/raumwerk/raumwerk/pkg/quantity"
)

func f(v float64) *float64 { return &v }
func b(v bool) *bool       { return &v }

func newBuilder() *Builder {
	return NewBuilder(quantity.NewCalculator(config.Default().Rules))
}

func houseSnapshot() *model.Snapshot {
	snap := model.NewSnapshot(model.Project{ID: "p1", Name: "Testhaus"})
	snap.Storeys["st2"] = &model.Storey{ID: "st2", ProjectID: "p1", Name: "OG", Elevation: 3.0}
	snap.Storeys["st1"] = &model.Storey{ID: "st1", ProjectID: "p1", Name: "EG", Elevation: 0.0}

	snap.Spaces["s2"] = &model.Space{
		ID: "s2", StoreyID: "st2", Name: "Schlafzimmer", Number: "2.01",
		FootprintM2: f(16.0), HeightM: f(2.50),
	}
	snap.Spaces["s1"] = &model.Space{
		ID: "s1", StoreyID: "st1", Name: "Wohnzimmer", Number: "1.01",
		FootprintM2: f(24.0), HeightM: f(2.50), VolumeM3: f(60.0),
	}

	snap.Elements["d1"] = &model.Element{
		ID: "d1", StoreyID: "st1", Kind: model.KindDoor, Name: "Tür EG",
		WidthM: f(0.91), HeightM: f(2.135),
		FireClass: model.ParseFireRating("T30"),
	}
	snap.Elements["w1"] = &model.Element{
		ID: "w1", StoreyID: "st1", Kind: model.KindWall, Name: "Außenwand",
		LengthM: f(8.0), HeightM: f(2.75), AreaM2: f(22.0),
		LoadBearing: b(true), External: b(true), Material: "Stahlbeton",
	}
	snap.Elements["w2"] = &model.Element{
		ID: "w2", StoreyID: "st2", Kind: model.KindWall, Name: "Trennwand",
		LengthM: f(4.0), HeightM: f(2.50), AreaM2: f(10.0),
		LoadBearing: b(false), Material: "Gipskarton",
	}
	return snap
}

func TestRoomScheduleOrderAndTotals(t *testing.T) {
	sched, err := newBuilder().Build(houseSnapshot(), KindRooms, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if sched.TotalCount != 2 {
		t.Fatalf("count = %d, want 2", sched.TotalCount)
	}
	// Ordered by storey elevation: EG before OG.
	if sched.Rows[0].ID != "s1" || sched.Rows[1].ID != "s2" {
		t.Errorf("row order = %s, %s; want s1, s2", sched.Rows[0].ID, sched.Rows[1].ID)
	}
	if sched.TotalAreaM2 != 40.0 {
		t.Errorf("total area = %.2f, want 40.00", sched.TotalAreaM2)
	}
	// s1 modeled 60, s2 derived 16*2.5 = 40.
	if sched.TotalVolumeM3 != 100.0 {
		t.Errorf("total volume = %.2f, want 100.00", sched.TotalVolumeM3)
	}
}

func TestScheduleIdempotent(t *testing.T) {
	snap := houseSnapshot()
	builder := newBuilder()
	first, err := builder.Build(snap, KindRooms, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := builder.Build(snap, KindRooms, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same snapshot differ")
	}
}

func TestWallScheduleFilters(t *testing.T) {
	builder := newBuilder()
	snap := houseSnapshot()

	all, _ := builder.Build(snap, KindWalls, DefaultOptions())
	if all.TotalCount != 2 {
		t.Fatalf("walls = %d, want 2", all.TotalCount)
	}
	if all.TotalLengthM != 12.0 {
		t.Errorf("total length = %.2f, want 12.00", all.TotalLengthM)
	}

	lb, _ := builder.Build(snap, KindWalls, Options{LoadBearingOnly: true})
	if lb.TotalCount != 1 || lb.Rows[0].ID != "w1" {
		t.Errorf("load-bearing filter returned %+v", lb.Rows)
	}

	ext, _ := builder.Build(snap, KindWalls, Options{ExternalOnly: true})
	if ext.TotalCount != 1 || ext.Rows[0].ID != "w1" {
		t.Errorf("external filter returned %+v", ext.Rows)
	}
}

func TestDrywallScheduleSelectsPartitions(t *testing.T) {
	sched, _ := newBuilder().Build(houseSnapshot(), KindDrywall, DefaultOptions())
	if sched.TotalCount != 1 || sched.Rows[0].ID != "w2" {
		t.Errorf("drywall schedule = %+v, want only w2", sched.Rows)
	}
	if sched.Rows[0].Properties["drywall"] != "yes" {
		t.Errorf("drywall property = %q, want yes", sched.Rows[0].Properties["drywall"])
	}
}

func TestStoreyFilter(t *testing.T) {
	sched, _ := newBuilder().Build(houseSnapshot(), KindRooms, Options{StoreyID: "st2"})
	if sched.TotalCount != 1 || sched.Rows[0].ID != "s2" {
		t.Errorf("storey filter returned %+v", sched.Rows)
	}
}

func TestUnknownKind(t *testing.T) {
	_, err := newBuilder().Build(houseSnapshot(), Kind("beams"), DefaultOptions())
	if !errors.Is(err, model.ErrRuleVersionMismatch) {
		t.Errorf("expected ErrRuleVersionMismatch, got %v", err)
	}
}

func TestMarkdownRendering(t *testing.T) {
	sched, _ := newBuilder().Build(houseSnapshot(), KindDoors, DefaultOptions())
	md := sched.Markdown()
	for _, want := range []string{"# Door Schedule", "Tür EG", "0.91", "T30"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}
