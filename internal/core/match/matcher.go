package match

import (
	"context"
	"sort"
	"time"

	"github.com/wardline/handover/internal/core/model"
	"github.com/wardline/handover/internal/store"
)

// Matcher is the second pipeline stage. Rules are evaluated against
// structured record values, never against the SBAR prose, so matching
// stays deterministic.
//
// Time-windowed rules use the patient's most recent record datetime as
// the anchor instant, not wall-clock time: the same stores always give
// the same matches regardless of when the pipeline runs.
type Matcher struct {
	Policies store.PolicyStore
}

func NewMatcher(policies store.PolicyStore) *Matcher {
	return &Matcher{Policies: policies}
}

// Match evaluates every rule in the policy store against the record set
// and returns the surviving candidates ordered by priority descending,
// rule_id ascending. Zero matches is success with an empty slice.
// Candidates are not yet justified; that is the consolidation stage's
// call.
func (m *Matcher) Match(ctx context.Context, records []model.PatientRecord) ([]model.Escalation, error) {
	rules, err := m.Policies.FetchAllRules(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []model.Escalation{}, nil
	}

	anchor := records[len(records)-1].Datetime

	var candidates []model.Escalation
	for _, rule := range rules {
		observed, ok := evaluate(rule, records, anchor)
		if !ok {
			continue
		}
		candidates = append(candidates, model.Escalation{
			RuleID:    rule.RuleID,
			Category:  rule.Category,
			Priority:  rule.Priority,
			Signal:    rule.Signal,
			Operator:  rule.Operator,
			Observed:  observed,
			Threshold: rule.Value,
			Unit:      rule.Unit,
			Action:    rule.Action,
			Message:   rule.Message,
			DedupeKey: rule.DedupeKey,
		})
	}

	candidates = dedupe(candidates)

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].RuleID < candidates[j].RuleID
	})

	if candidates == nil {
		candidates = []model.Escalation{}
	}
	return candidates, nil
}

// evaluate reports whether the rule fires for at least one eligible
// record and returns the observed value from the most recent one that
// does. A time_window_h of zero means the rule is not time-bounded.
func evaluate(rule model.Rule, records []model.PatientRecord, anchor time.Time) (string, bool) {
	cutoff := time.Time{}
	if rule.TimeWindowH > 0 {
		cutoff = anchor.Add(-time.Duration(rule.TimeWindowH * float64(time.Hour)))
	}

	observed := ""
	matched := false
	for _, rec := range records { // datetime ascending, so the last hit is the most recent
		if rule.TimeWindowH > 0 && (rec.Datetime.Before(cutoff) || rec.Datetime.After(anchor)) {
			continue
		}
		if !rule.Matches(rec) {
			continue
		}
		value, _ := rec.Signal(rule.Signal)
		observed = value
		matched = true
	}
	return observed, matched
}

// dedupe collapses candidates sharing a dedupe_key, keeping the highest
// priority one (rule_id ascending breaks ties). Candidates without a
// key are kept as-is.
func dedupe(candidates []model.Escalation) []model.Escalation {
	best := map[string]int{}
	var out []model.Escalation
	for _, cand := range candidates {
		if cand.DedupeKey == "" {
			out = append(out, cand)
			continue
		}
		idx, ok := best[cand.DedupeKey]
		if !ok {
			best[cand.DedupeKey] = len(out)
			out = append(out, cand)
			continue
		}
		kept := out[idx]
		if cand.Priority > kept.Priority || (cand.Priority == kept.Priority && cand.RuleID < kept.RuleID) {
			out[idx] = cand
		}
	}
	return out
}
