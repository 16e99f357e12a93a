package model

import "strings"

// SBARDocument is the structured clinical handover note produced by the
// summarization stage. Created fresh per pipeline run, never persisted.
type SBARDocument struct {
	Situation      string `json:"situation"`
	Background     string `json:"background"`
	Assessment     string `json:"assessment"`
	Recommendation string `json:"recommendation"`
}

// Complete reports whether all four sections carry text.
func (d SBARDocument) Complete() bool {
	return d.Situation != "" && d.Background != "" && d.Assessment != "" && d.Recommendation != ""
}

// Mentions does a case-insensitive scan of the Assessment and Situation
// sections for the given term. Used as the fallback justification check
// when structured records are not available.
func (d SBARDocument) Mentions(term string) bool {
	if term == "" {
		return false
	}
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(d.Assessment), t) ||
		strings.Contains(strings.ToLower(d.Situation), t)
}

// Escalation is a matched rule carried through validation. Justified is
// set by the consolidation stage; candidates that fail the cross-check
// are dropped, never downgraded.
type Escalation struct {
	RuleID    string   `json:"rule_id"`
	Category  string   `json:"category"`
	Priority  Priority `json:"priority"`
	Signal    string   `json:"signal"`
	Operator  Operator `json:"operator"`
	Observed  string   `json:"observed"`
	Threshold string   `json:"threshold"`
	Unit      string   `json:"unit,omitempty"`
	Action    string   `json:"action"`
	Message   string   `json:"message"`
	DedupeKey string   `json:"dedupe_key,omitempty"`
	Justified bool     `json:"justified"`
}

// ReportSummary is the consolidated assessment block of a Report.
// Error carries the degraded-output marker when an upstream stage could
// not produce its data.
type ReportSummary struct {
	TotalEscalations           int      `json:"total_escalations"`
	PriorityLevel              Priority `json:"priority_level"`
	RequiresImmediateAttention bool     `json:"requires_immediate_attention"`
	NextActions                []string `json:"next_actions"`
	Timestamp                  string   `json:"timestamp"`
	Error                      string   `json:"error,omitempty"`
}

// Report is the terminal artifact of a pipeline run. Field names are the
// wire contract consumed downstream and must not change.
type Report struct {
	PatientID   string        `json:"patient_id"`
	SBAR        *SBARDocument `json:"sbar"`
	Escalations []Escalation  `json:"escalations"`
	Summary     ReportSummary `json:"summary"`
}
