package model

import (
	"fmt"
	"regexp"
	"strings"
)

// FireRating is a fire resistance classification normalized to
// minutes. German (F30..F180, T30 for doors), European (EI30, REI90)
// and bare-minutes notations are accepted; comparison is by minutes.
type FireRating struct {
	Minutes int
	Class   string
}

// Class letters and minutes may be joined directly (F30, REI90) or
// separated by a dash, underscore or single space (REI-120, "F 90").
var (
	germanRatingPattern   = regexp.MustCompile(`^[FTGSW][-_ ]?(\d+)$`)
	europeanRatingPattern = regexp.MustCompile(`^[REIWMC]+[-_ ]?(\d+)(?:[-/]\d+)?$`)
	minutesRatingPattern  = regexp.MustCompile(`^(\d+)(?:\s*MIN)?$`)
)

// ParseFireRating parses a fire rating string. It returns nil when the
// value is empty or not a recognizable rating.
func ParseFireRating(value string) *FireRating {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return nil
	}
	for _, p := range []*regexp.Regexp{germanRatingPattern, europeanRatingPattern} {
		if m := p.FindStringSubmatch(v); m != nil {
			return &FireRating{Minutes: atoiDigits(m[1]), Class: v}
		}
	}
	if m := minutesRatingPattern.FindStringSubmatch(v); m != nil {
		min := atoiDigits(m[1])
		return &FireRating{Minutes: min, Class: fmt.Sprintf("F%d", min)}
	}
	return nil
}

// Meets reports whether the rating provides at least the required
// resistance duration.
func (r *FireRating) Meets(requiredMinutes int) bool {
	return r != nil && r.Minutes >= requiredMinutes
}

func (r *FireRating) String() string {
	if r == nil {
		return ""
	}
	return r.Class
}

func atoiDigits(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
