package schedule

import (
	"fmt"
	"strings"
)

const markdownRowLimit = 100

// Markdown renders the schedule as a markdown table. Rows beyond the
// limit are summarized in a trailing note.
func (s *Schedule) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", titleFor(s.Kind))
	fmt.Fprintf(&b, "**Total Items:** %d\n", s.TotalCount)
	if s.TotalAreaM2 > 0 {
		fmt.Fprintf(&b, "**Total Area:** %.2f m²\n", s.TotalAreaM2)
	}
	if s.TotalLengthM > 0 {
		fmt.Fprintf(&b, "**Total Length:** %.2f m\n", s.TotalLengthM)
	}
	if s.TotalVolumeM3 > 0 {
		fmt.Fprintf(&b, "**Total Volume:** %.2f m³\n", s.TotalVolumeM3)
	}
	b.WriteString("\n")

	if s.Kind == KindRooms {
		b.WriteString("| Number | Name | Storey | Area (m²) | Volume (m³) |\n")
		b.WriteString("|--------|------|--------|-----------|-------------|\n")
		for i, row := range s.Rows {
			if i == markdownRowLimit {
				break
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				dash(row.Tag), dash(row.Name), dash(row.StoreyName),
				num(row.AreaM2), num(row.VolumeM3))
		}
	} else {
		b.WriteString("| Name | Type | Storey | Width (m) | Height (m) | Length (m) | Fire |\n")
		b.WriteString("|------|------|--------|-----------|------------|------------|------|\n")
		for i, row := range s.Rows {
			if i == markdownRowLimit {
				break
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				dash(row.Name), dash(row.TypeName), dash(row.StoreyName),
				num(row.WidthM), num(row.HeightM), num(row.LengthM),
				dash(row.Properties["fire_rating"]))
		}
	}
	if s.TotalCount > markdownRowLimit {
		fmt.Fprintf(&b, "\n*... and %d more items*\n", s.TotalCount-markdownRowLimit)
	}
	return b.String()
}

func titleFor(kind Kind) string {
	switch kind {
	case KindRooms:
		return "Room Schedule (Raumbuch)"
	case KindDoors:
		return "Door Schedule"
	case KindWindows:
		return "Window Schedule"
	case KindWalls:
		return "Wall Schedule"
	case KindDrywall:
		return "Drywall Schedule (Trockenbauliste)"
	default:
		return "Schedule"
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
