package export

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/model"
	"github.com/raumwerk/raumwerk/pkg/quantity"
	"github.com/raumwerk/raumwerk/pkg/schedule"
)

func f(v float64) *float64 { return &v }
func b(v bool) *bool       { return &v }

func exportSnapshot() *model.Snapshot {
	snap := model.NewSnapshot(model.Project{ID: "p1", Name: "Werk Nord", Number: "2024-017"})
	snap.Storeys["st1"] = &model.Storey{ID: "st1", ProjectID: "p1", Name: "EG", Elevation: 0}

	snap.Spaces["s1"] = &model.Space{
		ID: "s1", StoreyID: "st1", Name: "Lager", Number: "EG.01",
		FootprintM2: f(24), HeightM: f(3.0),
	}
	snap.Spaces["s2"] = &model.Space{
		ID: "s2", StoreyID: "st1", Name: "Flur", Number: "EG.02",
		FootprintM2: f(12), HeightM: f(3.0),
	}

	snap.Elements["d1"] = &model.Element{
		ID: "d1", StoreyID: "st1", Kind: model.KindDoor, Name: "Tür EG", Tag: "T-01",
		WidthM: f(0.91), HeightM: f(2.13),
		FireClass: model.ParseFireRating("T30"),
	}
	snap.Elements["w1"] = &model.Element{
		ID: "w1", StoreyID: "st1", Kind: model.KindWall, Name: "Außenwand",
		LengthM: f(8), WidthM: f(0.36), HeightM: f(3.0), AreaM2: f(24),
		Material: "Kalksandstein", LoadBearing: b(true), External: b(true),
	}
	snap.Elements["f1"] = &model.Element{
		ID: "f1", StoreyID: "st1", Kind: model.KindWindow, Name: "Fenster Süd", Tag: "F-01",
		WidthM: f(1.2), HeightM: f(1.4),
	}
	return snap
}

func buildSchedules(t *testing.T, snap *model.Snapshot) map[schedule.Kind]*schedule.Schedule {
	t.Helper()
	builder := schedule.NewBuilder(quantity.NewCalculator(config.Default().Rules))
	schedules := make(map[schedule.Kind]*schedule.Schedule)
	for _, kind := range schedule.Kinds {
		sched, err := builder.Build(snap, kind, schedule.DefaultOptions())
		if err != nil {
			t.Fatalf("Build(%s) error = %v", kind, err)
		}
		schedules[kind] = sched
	}
	return schedules
}

func TestBuildBill(t *testing.T) {
	snap := exportSnapshot()
	bill := BuildBill(snap, buildSchedules(t, snap))

	if bill.ProjectName != "Werk Nord" || bill.Currency != "EUR" {
		t.Errorf("bill header = %q %q", bill.ProjectName, bill.Currency)
	}

	// Rooms, doors, windows and walls each contribute a group; the
	// drywall schedule is empty and contributes none.
	if len(bill.Groups) != 4 {
		t.Fatalf("groups = %d, want 4", len(bill.Groups))
	}
	if bill.Groups[0].Label != "Bodenbeläge" || len(bill.Groups[0].Positions) != 2 {
		t.Errorf("group 0 = %q with %d positions", bill.Groups[0].Label, len(bill.Groups[0].Positions))
	}
	if got := bill.Groups[0].Positions[0].OZ; got != "01.01.0001" {
		t.Errorf("first OZ = %q", got)
	}
	if got := bill.Groups[0].Positions[0].Quantity; got != 24 {
		t.Errorf("first quantity = %v, want 24", got)
	}

	doors := bill.Groups[1]
	if doors.Label != "Türen" || doors.Positions[0].Unit != UnitPiece {
		t.Errorf("doors group = %+v", doors)
	}
	if doors.Positions[0].LongText != "0.91 x 2.13 m" {
		t.Errorf("door long text = %q", doors.Positions[0].LongText)
	}
}

func TestBillTotals(t *testing.T) {
	bill := &Bill{Groups: []Group{{
		OZ: "01", Label: "Test",
		Positions: []Position{
			{Quantity: 10, UnitPrice: 5},
			{Quantity: 2, UnitPrice: 25},
		},
	}}}

	if got := bill.NetTotal(); got != 100 {
		t.Errorf("NetTotal = %v, want 100", got)
	}
	if got := bill.VAT(); math.Abs(got-19) > 1e-9 {
		t.Errorf("VAT = %v, want 19", got)
	}
	if got := bill.GrossTotal(); math.Abs(got-119) > 1e-9 {
		t.Errorf("GrossTotal = %v, want 119", got)
	}
	if got := bill.PositionCount(); got != 2 {
		t.Errorf("PositionCount = %v, want 2", got)
	}
}

func TestWriteGAEB(t *testing.T) {
	snap := exportSnapshot()
	bill := BuildBill(snap, buildSchedules(t, snap))

	var buf bytes.Buffer
	if err := WriteGAEB(&buf, bill); err != nil {
		t.Fatalf("WriteGAEB() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`xmlns="http://www.gaeb.de/GAEB_DA_XML/200407"`,
		"<Version>GAEB XML 3.2</Version>",
		"<VersNo>32</VersNo>",
		"<NamePrj>Werk Nord</NamePrj>",
		"<LblPrj>2024-017</LblPrj>",
		"<Cur>EUR</Cur>",
		"<Headline>Bodenbeläge</Headline>",
		"<OutlineText>Bodenbelag EG.01 Lager</OutlineText>",
		"<Qty>24.000</Qty>",
		"<QU>m2</QU>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("GAEB output missing %q", want)
		}
	}
	if !strings.HasPrefix(out, "<?xml") {
		t.Error("missing XML declaration")
	}
}

func TestWriteWorkbook(t *testing.T) {
	snap := exportSnapshot()
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, snap, buildSchedules(t, snap)); err != nil {
		t.Fatalf("WriteWorkbook() error = %v", err)
	}

	wb, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer func() { _ = wb.Close() }()

	for _, sheet := range []string{"Summary", "Rooms", "Doors", "Windows", "Walls", "Drywall"} {
		if idx, _ := wb.GetSheetIndex(sheet); idx < 0 {
			t.Errorf("missing sheet %s", sheet)
		}
	}

	name, err := wb.GetCellValue("Summary", "B2")
	if err != nil || name != "Werk Nord" {
		t.Errorf("Summary!B2 = %q, err %v", name, err)
	}

	// Door sheet carries the row with its tag and fire rating.
	tag, _ := wb.GetCellValue("Doors", "B2")
	if tag != "T-01" {
		t.Errorf("Doors!B2 = %q, want T-01", tag)
	}
	rating, _ := wb.GetCellValue("Doors", "L2")
	if rating != "T30" {
		t.Errorf("Doors!L2 = %q, want T30", rating)
	}
}
