// Package analysis holds the result model shared by the matching, scoring and pipeline packages.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SkillTerm names one skill, technology or competency.
type SkillTerm string

// Key returns the case-insensitive identity of the term.
func (t SkillTerm) Key() string {
	return strings.ToLower(strings.TrimSpace(string(t)))
}

func (t SkillTerm) String() string { return string(t) }

// MatchStatus is the closed set of per-skill outcomes.
type MatchStatus int

const (
	StatusMissing MatchStatus = iota
	StatusPartial
	StatusMatched
)

func (s MatchStatus) String() string {
	switch s {
	case StatusMatched:
		return "Matched"
	case StatusPartial:
		return "Partial"
	case StatusMissing:
		return "Missing"
	default:
		return fmt.Sprintf("MatchStatus(%d)", int(s))
	}
}

// ParseMatchStatus accepts the wire names case-insensitively.
func ParseMatchStatus(raw string) (MatchStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "matched", "match":
		return StatusMatched, nil
	case "partial", "partially matched":
		return StatusPartial, nil
	case "missing", "not found":
		return StatusMissing, nil
	default:
		return StatusMissing, fmt.Errorf("unknown match status %q", raw)
	}
}

func (s MatchStatus) MarshalJSON() ([]byte, error) {
	switch s {
	case StatusMatched, StatusPartial, StatusMissing:
		return json.Marshal(s.String())
	default:
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
}

func (s *MatchStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMatchStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Verdict is the categorical recommendation derived from the overall score.
type Verdict int

const (
	VerdictSkillGap Verdict = iota
	VerdictPotentialMatch
	VerdictStrongHire
)

const (
	strongHireFloor     = 80.0
	potentialMatchFloor = 50.0
)

// VerdictFor maps a score in [0,100] to its verdict band.
func VerdictFor(score float64) Verdict {
	switch {
	case score >= strongHireFloor:
		return VerdictStrongHire
	case score >= potentialMatchFloor:
		return VerdictPotentialMatch
	default:
		return VerdictSkillGap
	}
}

func (v Verdict) String() string {
	switch v {
	case VerdictStrongHire:
		return "STRONG_HIRE"
	case VerdictPotentialMatch:
		return "POTENTIAL_MATCH"
	case VerdictSkillGap:
		return "SKILL_GAP_DETECTED"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// ParseVerdict accepts both the underscore wire names and the spaced labels.
func ParseVerdict(raw string) (Verdict, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(raw, "_", " ")), "_"))
	switch normalized {
	case "STRONG_HIRE":
		return VerdictStrongHire, nil
	case "POTENTIAL_MATCH":
		return VerdictPotentialMatch, nil
	case "SKILL_GAP_DETECTED":
		return VerdictSkillGap, nil
	default:
		return VerdictSkillGap, fmt.Errorf("unknown verdict %q", raw)
	}
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictStrongHire, VerdictPotentialMatch, VerdictSkillGap:
		return json.Marshal(v.String())
	default:
		return nil, fmt.Errorf("cannot marshal %s", v)
	}
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseVerdict(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// SkillMatch is the verdict for one job-description skill.
type SkillMatch struct {
	Skill         SkillTerm   `json:"skill"`
	Status        MatchStatus `json:"match_status"`
	Justification string      `json:"justification"`
}

// Analysis is the public result payload. Field names are the wire contract.
type Analysis struct {
	CandidateName   string       `json:"candidate_name"`
	OverallScore    float64      `json:"overall_score"`
	Verdict         Verdict      `json:"verdict"`
	DetailedMatches []SkillMatch `json:"detailed_matches"`
	ImprovementTips []string     `json:"improvement_tips"`
}

// Clone returns a deep copy so callers cannot mutate a constructed analysis through shared slices.
func (a Analysis) Clone() Analysis {
	out := a
	out.DetailedMatches = append([]SkillMatch(nil), a.DetailedMatches...)
	out.ImprovementTips = append([]string(nil), a.ImprovementTips...)
	return out
}

// Report wraps an analysis with the degradation signal callers must surface.
type Report struct {
	Analysis
	Degraded         bool     `json:"degraded,omitempty"`
	DegradationNotes []string `json:"degradation_notes,omitempty"`
	RequestID        string   `json:"-"`
}

// Degrade marks the report as degraded with a reason.
func (r *Report) Degrade(note string) {
	r.Degraded = true
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	for _, existing := range r.DegradationNotes {
		if existing == note {
			return
		}
	}
	r.DegradationNotes = append(r.DegradationNotes, note)
}
