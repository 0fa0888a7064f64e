// Package export renders analysis output into exchange formats: an
// Excel workbook of schedules and a GAEB DA XML 3.2 bill of
// quantities (Leistungsverzeichnis).
package export

import (
	"fmt"
	"time"

	"github.com/raumwerk/raumwerk/pkg/model"
	"github.com/raumwerk/raumwerk/pkg/schedule"
)

// Quantity units per GAEB.
const (
	UnitPiece       = "Stk"
	UnitMeter       = "m"
	UnitSquareMeter = "m2"
	UnitCubicMeter  = "m3"
)

// vatRate is the German standard rate applied to the net total.
const vatRate = 0.19

// Position is one bill-of-quantities line.
type Position struct {
	OZ        string  `json:"oz"`
	ShortText string  `json:"short_text"`
	LongText  string  `json:"long_text,omitempty"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unit_price"`
}

// Total returns the position total.
func (p Position) Total() float64 { return p.Quantity * p.UnitPrice }

// Group is one lot (Los) of positions.
type Group struct {
	OZ        string     `json:"oz"`
	Label     string     `json:"label"`
	Positions []Position `json:"positions"`
}

// Total sums the group's position totals.
func (g Group) Total() float64 {
	var sum float64
	for _, p := range g.Positions {
		sum += p.Total()
	}
	return sum
}

// Bill is a complete Leistungsverzeichnis.
type Bill struct {
	ProjectName   string    `json:"project_name"`
	ProjectNumber string    `json:"project_number,omitempty"`
	Currency      string    `json:"currency"`
	Date          time.Time `json:"date"`
	Groups        []Group   `json:"groups"`
}

// NetTotal sums all group totals.
func (b *Bill) NetTotal() float64 {
	var sum float64
	for _, g := range b.Groups {
		sum += g.Total()
	}
	return sum
}

// VAT returns the value-added tax on the net total.
func (b *Bill) VAT() float64 { return b.NetTotal() * vatRate }

// GrossTotal returns net plus VAT.
func (b *Bill) GrossTotal() float64 { return b.NetTotal() + b.VAT() }

// PositionCount returns the number of positions across all groups.
func (b *Bill) PositionCount() int {
	n := 0
	for _, g := range b.Groups {
		n += len(g.Positions)
	}
	return n
}

// BuildBill derives a bill of quantities from the assembled schedules:
// floor coverings per room, doors and windows by piece, walls by face
// area. Unit prices are left at zero for the tender request phase.
func BuildBill(snap *model.Snapshot, schedules map[schedule.Kind]*schedule.Schedule) *Bill {
	bill := &Bill{
		ProjectName:   snap.Project.Name,
		ProjectNumber: snap.Project.Number,
		Currency:      "EUR",
		Date:          time.Now().UTC(),
	}

	if rooms := schedules[schedule.KindRooms]; rooms != nil && len(rooms.Rows) > 0 {
		g := Group{OZ: "01", Label: "Bodenbeläge"}
		for i, row := range rooms.Rows {
			var qty float64
			if row.AreaM2 != nil {
				qty = *row.AreaM2
			}
			g.Positions = append(g.Positions, Position{
				OZ:        fmt.Sprintf("01.01.%04d", i+1),
				ShortText: trimJoin("Bodenbelag", row.Tag, row.Name),
				Quantity:  qty,
				Unit:      UnitSquareMeter,
			})
		}
		bill.Groups = append(bill.Groups, g)
	}

	bill.appendPieceGroup(schedules[schedule.KindDoors], "02", "Türen", "Tür")
	bill.appendPieceGroup(schedules[schedule.KindWindows], "03", "Fenster", "Fenster")

	if walls := schedules[schedule.KindWalls]; walls != nil && len(walls.Rows) > 0 {
		g := Group{OZ: "04", Label: "Wände"}
		for i, row := range walls.Rows {
			pos := Position{
				OZ:        fmt.Sprintf("04.01.%04d", i+1),
				ShortText: trimJoin("Wand", row.Tag, row.Name),
				Unit:      UnitSquareMeter,
			}
			if row.AreaM2 != nil {
				pos.Quantity = *row.AreaM2
			} else if row.LengthM != nil {
				pos.Quantity = *row.LengthM
				pos.Unit = UnitMeter
			}
			g.Positions = append(g.Positions, pos)
		}
		bill.Groups = append(bill.Groups, g)
	}

	return bill
}

func (b *Bill) appendPieceGroup(sched *schedule.Schedule, oz, label, prefix string) {
	if sched == nil || len(sched.Rows) == 0 {
		return
	}
	g := Group{OZ: oz, Label: label}
	for i, row := range sched.Rows {
		pos := Position{
			OZ:        fmt.Sprintf("%s.01.%04d", oz, i+1),
			ShortText: trimJoin(prefix, row.Tag, row.Name),
			Quantity:  1,
			Unit:      UnitPiece,
		}
		if row.WidthM != nil && row.HeightM != nil {
			pos.LongText = fmt.Sprintf("%.2f x %.2f m", *row.WidthM, *row.HeightM)
		}
		g.Positions = append(g.Positions, pos)
	}
	b.Groups = append(b.Groups, g)
}

func trimJoin(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
