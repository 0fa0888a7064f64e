package check

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/model"
)

var (
	corridorKeywords = []string{"flur", "gang", "corridor", "hall", "diele"}
	bathroomKeywords = []string{"bad", "wc", "dusch", "bath", "toilet", "sanit"}
)

func nameMatches(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CheckAccessibility checks the snapshot against a DIN 18040
// requirement set. Pass reqs.Residential() for DIN 18040-2. Entities
// without the data a check needs are reported as info findings, not
// violations.
func (c *Checker) CheckAccessibility(snap *model.Snapshot, reqs config.AccessibilityRules) *Report {
	var findings []Finding

	for _, id := range snap.ElementIDs() {
		el := snap.Elements[id]
		switch el.Kind {
		case model.KindDoor:
			findings = append(findings, checkDoor(el, reqs)...)
		case model.KindStair:
			findings = append(findings, checkStair(el, reqs)...)
		}
	}

	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		findings = append(findings, checkSpaceAccessibility(sp, reqs)...)
	}

	findings = append(findings, checkLevelChanges(snap, reqs)...)

	sortFindings(findings)
	return &Report{
		ProjectID: snap.Project.ID,
		Findings:  findings,
		Summary:   summarize(findings),
	}
}

func checkDoor(el *model.Element, reqs config.AccessibilityRules) []Finding {
	var findings []Finding
	if el.WidthM == nil {
		findings = append(findings, Finding{
			Severity:  SeverityInfo,
			Rule:      "din18040.door_width",
			SubjectID: el.ID,
			Message:   fmt.Sprintf("door %s has no width data for the %s check", el.ID, reqs.Standard),
		})
	} else if *el.WidthM < reqs.DoorClearWidthM {
		findings = append(findings, Finding{
			Severity:      SeverityError,
			Rule:          "din18040.door_width",
			SubjectID:     el.ID,
			MeasuredValue: el.WidthM,
			RequiredValue: fptr(reqs.DoorClearWidthM),
			Unit:          "m",
			Message: fmt.Sprintf("door %s clear width %.2f m is below the %s minimum of %.2f m",
				el.ID, *el.WidthM, reqs.Standard, reqs.DoorClearWidthM),
		})
	}
	if el.HeightM != nil && *el.HeightM < reqs.DoorClearHeightM {
		findings = append(findings, Finding{
			Severity:      SeverityError,
			Rule:          "din18040.door_height",
			SubjectID:     el.ID,
			MeasuredValue: el.HeightM,
			RequiredValue: fptr(reqs.DoorClearHeightM),
			Unit:          "m",
			Message: fmt.Sprintf("door %s clear height %.2f m is below the %s minimum of %.2f m",
				el.ID, *el.HeightM, reqs.Standard, reqs.DoorClearHeightM),
		})
	}
	if raw, ok := el.Properties["threshold_m"]; ok {
		if threshold, err := strconv.ParseFloat(raw, 64); err == nil && threshold > reqs.MaxThresholdM {
			findings = append(findings, Finding{
				Severity:      SeverityError,
				Rule:          "din18040.door_threshold",
				SubjectID:     el.ID,
				MeasuredValue: fptr(threshold),
				RequiredValue: fptr(reqs.MaxThresholdM),
				Unit:          "m",
				Message: fmt.Sprintf("door %s threshold %.3f m exceeds the %s maximum of %.3f m",
					el.ID, threshold, reqs.Standard, reqs.MaxThresholdM),
			})
		}
	}
	return findings
}

func checkStair(el *model.Element, reqs config.AccessibilityRules) []Finding {
	if el.WidthM == nil {
		return []Finding{{
			Severity:  SeverityInfo,
			Rule:      "din18040.stair_width",
			SubjectID: el.ID,
			Message:   fmt.Sprintf("stair %s has no width data for the %s check", el.ID, reqs.Standard),
		}}
	}
	if *el.WidthM < reqs.StairWidthM {
		return []Finding{{
			Severity:      SeverityError,
			Rule:          "din18040.stair_width",
			SubjectID:     el.ID,
			MeasuredValue: el.WidthM,
			RequiredValue: fptr(reqs.StairWidthM),
			Unit:          "m",
			Message: fmt.Sprintf("stair %s width %.2f m is below the %s minimum of %.2f m",
				el.ID, *el.WidthM, reqs.Standard, reqs.StairWidthM),
		}}
	}
	return nil
}

// checkLevelChanges requires a step-free route for every storey
// transition above the configured level change. Stairs alone do not
// satisfy it; a ramp on either storey of the transition (or one not
// assigned to a storey) does.
func checkLevelChanges(snap *model.Snapshot, reqs config.AccessibilityRules) []Finding {
	ids := snap.StoreyIDs()
	if len(ids) < 2 {
		return nil
	}

	ramps := make(map[string]bool)
	rampAnywhere := false
	for _, el := range snap.Elements {
		if el.Kind != model.KindRamp {
			continue
		}
		if el.StoreyID == "" {
			rampAnywhere = true
		} else {
			ramps[el.StoreyID] = true
		}
	}

	var findings []Finding
	for i := 1; i < len(ids); i++ {
		prev, cur := snap.Storeys[ids[i-1]], snap.Storeys[ids[i]]
		rise := math.Abs(cur.Elevation - prev.Elevation)
		if rise <= reqs.RampRequiredAboveM {
			continue
		}
		if rampAnywhere || ramps[prev.ID] || ramps[cur.ID] {
			continue
		}
		findings = append(findings, Finding{
			Severity:      SeverityError,
			Rule:          "din18040.ramp_required",
			SubjectID:     cur.ID,
			MeasuredValue: fptr(rise),
			RequiredValue: fptr(reqs.RampRequiredAboveM),
			Unit:          "m",
			Message: fmt.Sprintf("level change of %.2f m from %s to %s has no step-free route (%s)",
				rise, prev.Name, cur.Name, reqs.Standard),
		})
	}
	return findings
}

func checkSpaceAccessibility(sp *model.Space, reqs config.AccessibilityRules) []Finding {
	var findings []Finding
	name := sp.DisplayName() + " " + sp.Usage

	if sp.HeightM != nil && *sp.HeightM > 0 && *sp.HeightM < reqs.MinClearHeightM {
		findings = append(findings, Finding{
			Severity:      SeverityError,
			Rule:          "din18040.clear_height",
			SubjectID:     sp.ID,
			MeasuredValue: sp.HeightM,
			RequiredValue: fptr(reqs.MinClearHeightM),
			Unit:          "m",
			Message: fmt.Sprintf("space %s clear height %.2f m is below the minimum of %.2f m",
				sp.DisplayName(), *sp.HeightM, reqs.MinClearHeightM),
		})
	}

	if nameMatches(name, bathroomKeywords) {
		if area, ok := sp.Area(); ok && area < reqs.BathroomMinAreaM2 {
			findings = append(findings, Finding{
				Severity:      SeverityError,
				Rule:          "din18040.bathroom_area",
				SubjectID:     sp.ID,
				MeasuredValue: fptr(area),
				RequiredValue: fptr(reqs.BathroomMinAreaM2),
				Unit:          "m²",
				Message: fmt.Sprintf("bathroom %s with %.2f m² is below the %s minimum of %.2f m²",
					sp.DisplayName(), area, reqs.Standard, reqs.BathroomMinAreaM2),
			})
		}
	}

	if nameMatches(name, corridorKeywords) {
		if area, ok := sp.Area(); ok && area > 0 {
			// Width is not modeled on spaces, estimate from the footprint.
			estimated := math.Sqrt(area)
			if estimated < reqs.CorridorWidthM {
				findings = append(findings, Finding{
					Severity:      SeverityWarning,
					Rule:          "din18040.corridor_width",
					SubjectID:     sp.ID,
					MeasuredValue: fptr(estimated),
					RequiredValue: fptr(reqs.CorridorWidthM),
					Unit:          "m",
					Message: fmt.Sprintf("corridor %s estimated width %.2f m may be below the minimum of %.2f m",
						sp.DisplayName(), estimated, reqs.CorridorWidthM),
				})
			}
		}
	}
	return findings
}
