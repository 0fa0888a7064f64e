package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/raumwerk/raumwerk/pkg/model"
	"github.com/raumwerk/raumwerk/pkg/schedule"
)

var sheetTitles = map[schedule.Kind]string{
	schedule.KindRooms:   "Rooms",
	schedule.KindDoors:   "Doors",
	schedule.KindWindows: "Windows",
	schedule.KindWalls:   "Walls",
	schedule.KindDrywall: "Drywall",
}

var scheduleColumns = []string{
	"ID", "Tag", "Name", "Type", "Storey",
	"Width [m]", "Height [m]", "Length [m]", "Area [m²]", "Volume [m³]",
	"Material", "Fire Rating",
}

// WriteWorkbook writes one Excel workbook with a summary sheet and one
// sheet per assembled schedule, in schedule.Kinds order.
func WriteWorkbook(w io.Writer, snap *model.Snapshot, schedules map[schedule.Kind]*schedule.Schedule) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	_ = f.SetCellValue(summary, "A1", "Schedule Export")
	_ = f.SetCellStyle(summary, "A1", "A1", headerStyle)
	_ = f.SetCellValue(summary, "A2", "Project")
	_ = f.SetCellValue(summary, "B2", snap.Project.Name)
	_ = f.SetCellValue(summary, "A3", "Project Number")
	_ = f.SetCellValue(summary, "B3", snap.Project.Number)
	_ = f.SetCellValue(summary, "A4", "Storeys")
	_ = f.SetCellValue(summary, "B4", len(snap.Storeys))
	_ = f.SetCellValue(summary, "A5", "Spaces")
	_ = f.SetCellValue(summary, "B5", len(snap.Spaces))
	_ = f.SetCellValue(summary, "A6", "Elements")
	_ = f.SetCellValue(summary, "B6", len(snap.Elements))

	row := 8
	_ = f.SetCellValue(summary, fmt.Sprintf("A%d", row), "Schedule")
	_ = f.SetCellValue(summary, fmt.Sprintf("B%d", row), "Rows")
	_ = f.SetCellValue(summary, fmt.Sprintf("C%d", row), "Total Area [m²]")
	_ = f.SetCellStyle(summary, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), headerStyle)
	row++

	for _, kind := range schedule.Kinds {
		sched := schedules[kind]
		if sched == nil {
			continue
		}
		_ = f.SetCellValue(summary, fmt.Sprintf("A%d", row), sheetTitles[kind])
		_ = f.SetCellValue(summary, fmt.Sprintf("B%d", row), sched.TotalCount)
		if sched.TotalAreaM2 > 0 {
			_ = f.SetCellValue(summary, fmt.Sprintf("C%d", row), sched.TotalAreaM2)
		}
		row++

		if err := writeScheduleSheet(f, sched, headerStyle); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(summary, "A", "A", 20)
	_ = f.SetColWidth(summary, "B", "C", 16)

	return f.Write(w)
}

func writeScheduleSheet(f *excelize.File, sched *schedule.Schedule, headerStyle int) error {
	title := sheetTitles[sched.Kind]
	if _, err := f.NewSheet(title); err != nil {
		return err
	}

	for col, name := range scheduleColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		_ = f.SetCellValue(title, cell, name)
		_ = f.SetCellStyle(title, cell, cell, headerStyle)
	}
	_ = f.SetColWidth(title, "A", "A", 24)
	_ = f.SetColWidth(title, "B", "E", 18)
	_ = f.SetColWidth(title, "F", "J", 11)
	_ = f.SetColWidth(title, "K", "L", 16)

	for i, r := range sched.Rows {
		rowNum := i + 2
		values := []any{
			r.ID, r.Tag, r.Name, r.TypeName, r.StoreyName,
			num(r.WidthM), num(r.HeightM), num(r.LengthM), num(r.AreaM2), num(r.VolumeM3),
			r.Properties["material"], r.Properties["fire_rating"],
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			_ = f.SetCellValue(title, cell, v)
		}
	}
	return nil
}

func num(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
