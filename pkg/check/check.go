// Package check runs consistency and compliance checks over a model
// snapshot. Checks never mutate the snapshot and never abort on bad
// data: every violation becomes a Finding, and a run over a broken
// model reports the breakage instead of failing.
package check

import (
	"sort"

	"github.com/raumwerk/raumwerk/pkg/classify"
	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/quantity"
)

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Finding is one violation on one subject. Rule is a stable dotted
// identifier ("graph.element_space", "din18040.door_width") clients
// can filter on.
type Finding struct {
	Severity  Severity `json:"severity"`
	Rule      string   `json:"rule"`
	SubjectID string   `json:"subject_id,omitempty"`
	Message   string   `json:"message"`

	MeasuredValue *float64 `json:"measured_value,omitempty"`
	RequiredValue *float64 `json:"required_value,omitempty"`
	Unit          string   `json:"unit,omitempty"`
}

// Summary counts findings by severity.
type Summary struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// Report is the outcome of a check run, findings ordered by severity
// (errors first), then subject, then rule.
type Report struct {
	ProjectID string    `json:"project_id"`
	Findings  []Finding `json:"findings"`
	Summary   Summary   `json:"summary"`
}

// Inputs carries previously computed analysis results into the run.
// All fields are optional; checks needing a missing input are skipped.
type Inputs struct {
	Volumes map[string]quantity.VolumeResult
	Zones   *classify.ZoneResult
}

// Checker evaluates the check rules from a rule set.
type Checker struct {
	rules config.RuleSet
}

// NewChecker returns a checker bound to the given rule set.
func NewChecker(rules config.RuleSet) *Checker {
	return &Checker{rules: rules}
}

// Merge combines reports into one, re-sorting and re-summarizing the
// combined findings.
func Merge(projectID string, reports ...*Report) *Report {
	var findings []Finding
	for _, r := range reports {
		if r == nil {
			continue
		}
		findings = append(findings, r.Findings...)
	}
	sortFindings(findings)
	return &Report{
		ProjectID: projectID,
		Findings:  findings,
		Summary:   summarize(findings),
	}
}

func sortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if ra, rb := severityRank(a.Severity), severityRank(b.Severity); ra != rb {
			return ra < rb
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		return a.Rule < b.Rule
	})
}

func summarize(findings []Finding) Summary {
	s := Summary{Total: len(findings)}
	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		default:
			s.Infos++
		}
	}
	return s
}

func fptr(v float64) *float64 { return &v }
