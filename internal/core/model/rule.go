package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Priority orders escalation severity. The clinical_rules table stores it
// as free text ("High", "CRITICAL", ...), parsed case-insensitively.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	}
	return PriorityLow, fmt.Errorf("unknown priority: %q", s)
}

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "Critical"
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	default:
		return "Low"
	}
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("priority must be a string: %w", err)
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Operator is the comparison kind a rule applies to its signal.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
)

func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.TrimSpace(s))
	switch op {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpEqual, OpNotEqual:
		return op, nil
	}
	return "", fmt.Errorf("unknown operator: %q", s)
}

// Evaluate applies the operator to an observed value against the rule's
// threshold. Both sides numeric gives numeric comparison; otherwise only
// equality operators apply, as case-insensitive string compare. Ordering
// operators on non-numeric values never match.
func (op Operator) Evaluate(observed, threshold string) bool {
	lhs, lerr := strconv.ParseFloat(strings.TrimSpace(observed), 64)
	rhs, rerr := strconv.ParseFloat(strings.TrimSpace(threshold), 64)
	if lerr == nil && rerr == nil {
		switch op {
		case OpGreater:
			return lhs > rhs
		case OpLess:
			return lhs < rhs
		case OpGreaterEqual:
			return lhs >= rhs
		case OpLessEqual:
			return lhs <= rhs
		case OpEqual:
			return lhs == rhs
		case OpNotEqual:
			return lhs != rhs
		}
		return false
	}

	eq := strings.EqualFold(strings.TrimSpace(observed), strings.TrimSpace(threshold))
	switch op {
	case OpEqual:
		return eq
	case OpNotEqual:
		return !eq
	}
	return false
}

// Rule is one escalation policy row from the clinical_rules table.
// Rules are loaded in bulk and never mutated by the pipeline.
type Rule struct {
	RuleID      string   `json:"rule_id"`
	Category    string   `json:"category"`
	Priority    Priority `json:"priority"`
	Signal      string   `json:"signal"`
	Operator    Operator `json:"operator"`
	Value       string   `json:"value"`
	Unit        string   `json:"unit,omitempty"`
	TimeWindowH float64  `json:"time_window_h,omitempty"`
	Action      string   `json:"action"`
	Message     string   `json:"message"`
	DedupeKey   string   `json:"dedupe_key"`
}

// Matches reports whether the rule's condition holds for the record.
func (r Rule) Matches(rec PatientRecord) bool {
	observed, ok := rec.Signal(r.Signal)
	if !ok {
		return false
	}
	return r.Operator.Evaluate(observed, r.Value)
}
