package model

import (
	"regexp"
	"strings"
)

// ExZone is an ATEX explosive-atmosphere classification. Gas zones
// (0/1/2, IEC 60079-10-1) and dust zones (20/21/22, IEC 60079-10-2)
// are separate tracks and are never merged or compared across tracks.
type ExZone string

const (
	ZoneNone ExZone = "none"
	Zone0    ExZone = "zone_0"
	Zone1    ExZone = "zone_1"
	Zone2    ExZone = "zone_2"
	Zone20   ExZone = "zone_20"
	Zone21   ExZone = "zone_21"
	Zone22   ExZone = "zone_22"
)

// ExTrack distinguishes the gas and dust zone scales.
type ExTrack string

const (
	TrackGas  ExTrack = "gas"
	TrackDust ExTrack = "dust"
	TrackNone ExTrack = "none"
)

// Track returns which scale the zone belongs to.
func (z ExZone) Track() ExTrack {
	switch z {
	case Zone0, Zone1, Zone2:
		return TrackGas
	case Zone20, Zone21, Zone22:
		return TrackDust
	default:
		return TrackNone
	}
}

// Severity returns the hazard tier: 0 for Zone 0/20 (most hazardous),
// 1 for Zone 1/21, 2 for Zone 2/22, 3 for none.
func (z ExZone) Severity() int {
	switch z {
	case Zone0, Zone20:
		return 0
	case Zone1, Zone21:
		return 1
	case Zone2, Zone22:
		return 2
	default:
		return 3
	}
}

// Hazardous reports whether the zone carries any explosion risk.
func (z ExZone) Hazardous() bool { return z != ZoneNone }

// Decay lowers the zone by one tier toward none, staying on its track:
// Zone0 -> Zone1 -> Zone2 -> none and Zone20 -> Zone21 -> Zone22 -> none.
func (z ExZone) Decay() ExZone {
	switch z {
	case Zone0:
		return Zone1
	case Zone1:
		return Zone2
	case Zone20:
		return Zone21
	case Zone21:
		return Zone22
	default:
		return ZoneNone
	}
}

// MaxZone returns the more hazardous of two zones on the same track.
// Zones from different tracks must not be combined; callers keep one
// value per track.
func MaxZone(a, b ExZone) ExZone {
	if a.Severity() <= b.Severity() {
		return a
	}
	return b
}

// EquipmentCategory returns the required ATEX equipment category
// (1 for Zone 0/20, 2 for Zone 1/21, 3 for Zone 2/22), or 0 when the
// zone is not hazardous.
func (z ExZone) EquipmentCategory() int {
	switch z.Severity() {
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 3
	default:
		return 0
	}
}

// String renders the zone in report notation ("Zone 1", "Zone 22").
func (z ExZone) String() string {
	if z == ZoneNone || z == "" {
		return "No Ex-Zone"
	}
	return "Zone " + strings.TrimPrefix(string(z), "zone_")
}

var zoneNumberPattern = regexp.MustCompile(`(\d{1,2})`)

var zonesByNumber = map[string]ExZone{
	"0": Zone0, "1": Zone1, "2": Zone2,
	"20": Zone20, "21": Zone21, "22": Zone22,
}

// ParseExZone parses zone declarations in the formats that occur in
// imported property bags: "Zone 1", "zone_22", "Ex-Zone 2", "21".
// It returns ZoneNone and false when the value cannot be parsed.
func ParseExZone(value string) (ExZone, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" || normalized == "none" || normalized == "no ex-zone" {
		return ZoneNone, normalized != ""
	}
	if m := zoneNumberPattern.FindString(normalized); m != "" {
		if z, ok := zonesByNumber[m]; ok {
			return z, true
		}
	}
	return ZoneNone, false
}
