package match

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardline/handover/internal/core/model"
)

func recordAt(hoursAgo float64, vitals map[string]string) model.PatientRecord {
	anchor := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.PatientRecord{
		PatientID: "ER101",
		Datetime:  anchor.Add(-time.Duration(hoursAgo * float64(time.Hour))),
		Vitals:    vitals,
	}
}

func hrRule(id string, prio model.Priority, threshold string) model.Rule {
	return model.Rule{
		RuleID:    id,
		Category:  "vitals",
		Priority:  prio,
		Signal:    "vitals_HR",
		Operator:  model.OpGreater,
		Value:     threshold,
		Action:    "Notify physician",
		Message:   "Heart rate above threshold",
		DedupeKey: "hr",
	}
}

func TestMatchSingleRule(t *testing.T) {
	policies := &MockPolicyStore{Rules: []model.Rule{hrRule("HR_HIGH", model.PriorityHigh, "120")}}
	m := NewMatcher(policies)

	records := []model.PatientRecord{recordAt(0, map[string]string{"vitals_HR": "130"})}
	out, err := m.Match(context.Background(), records)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "HR_HIGH", out[0].RuleID)
	assert.Equal(t, "130", out[0].Observed)
	assert.Equal(t, "120", out[0].Threshold)
	assert.False(t, out[0].Justified, "justification is the consolidation stage's call")
}

func TestMatchZeroRulesIsSuccess(t *testing.T) {
	m := NewMatcher(&MockPolicyStore{Rules: []model.Rule{}})

	out, err := m.Match(context.Background(), []model.PatientRecord{recordAt(0, map[string]string{"vitals_HR": "130"})})

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestMatchZeroMatchesIsSuccess(t *testing.T) {
	policies := &MockPolicyStore{Rules: []model.Rule{hrRule("HR_HIGH", model.PriorityHigh, "120")}}
	m := NewMatcher(policies)

	out, err := m.Match(context.Background(), []model.PatientRecord{recordAt(0, map[string]string{"vitals_HR": "90"})})

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestMatchStoreUnavailable(t *testing.T) {
	m := NewMatcher(&MockPolicyStore{Err: fmt.Errorf("%w: locked", model.ErrUnavailable)})

	_, err := m.Match(context.Background(), []model.PatientRecord{recordAt(0, nil)})

	assert.True(t, errors.Is(err, model.ErrUnavailable))
}

func TestMatchTimeWindowAnchoredOnMostRecentRecord(t *testing.T) {
	rule := hrRule("HR_HIGH", model.PriorityHigh, "120")
	rule.TimeWindowH = 6
	m := NewMatcher(&MockPolicyStore{Rules: []model.Rule{rule}})

	// The only elevated reading is 8h before the most recent record, so
	// a 6h window must exclude it no matter when the test runs.
	records := []model.PatientRecord{
		recordAt(8, map[string]string{"vitals_HR": "130"}),
		recordAt(0, map[string]string{"vitals_HR": "100"}),
	}
	out, err := m.Match(context.Background(), records)

	require.NoError(t, err)
	assert.Empty(t, out)

	// Same reading 4h back falls inside the window.
	records[0] = recordAt(4, map[string]string{"vitals_HR": "130"})
	out, err = m.Match(context.Background(), records)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "130", out[0].Observed)
}

func TestMatchObservedIsMostRecentHit(t *testing.T) {
	m := NewMatcher(&MockPolicyStore{Rules: []model.Rule{hrRule("HR_HIGH", model.PriorityHigh, "120")}})

	records := []model.PatientRecord{
		recordAt(4, map[string]string{"vitals_HR": "125"}),
		recordAt(2, map[string]string{"vitals_HR": "135"}),
		recordAt(0, map[string]string{"vitals_HR": "110"}),
	}
	out, err := m.Match(context.Background(), records)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "135", out[0].Observed)
}

func TestMatchDedupeKeepsHighestPriority(t *testing.T) {
	// Scenario: two rules share a dedupe key, one High one Medium, both
	// fire. Only the High one survives.
	rules := []model.Rule{
		hrRule("HR_ELEVATED", model.PriorityMedium, "100"),
		hrRule("HR_HIGH", model.PriorityHigh, "120"),
	}
	m := NewMatcher(&MockPolicyStore{Rules: rules})

	out, err := m.Match(context.Background(), []model.PatientRecord{recordAt(0, map[string]string{"vitals_HR": "130"})})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "HR_HIGH", out[0].RuleID)
	assert.Equal(t, model.PriorityHigh, out[0].Priority)
}

func TestMatchOrderingAndDeterminism(t *testing.T) {
	rules := []model.Rule{
		{RuleID: "C_RULE", Priority: model.PriorityMedium, Signal: "vitals_HR", Operator: model.OpGreater, Value: "50", DedupeKey: "c"},
		{RuleID: "A_RULE", Priority: model.PriorityCritical, Signal: "vitals_HR", Operator: model.OpGreater, Value: "50", DedupeKey: "a"},
		{RuleID: "B_RULE", Priority: model.PriorityMedium, Signal: "vitals_HR", Operator: model.OpGreater, Value: "50", DedupeKey: "b"},
	}
	m := NewMatcher(&MockPolicyStore{Rules: rules})
	records := []model.PatientRecord{recordAt(0, map[string]string{"vitals_HR": "90"})}

	first, err := m.Match(context.Background(), records)
	require.NoError(t, err)

	ids := func(es []model.Escalation) []string {
		var out []string
		for _, e := range es {
			out = append(out, e.RuleID)
		}
		return out
	}
	assert.Equal(t, []string{"A_RULE", "B_RULE", "C_RULE"}, ids(first))

	// Identical inputs, identical ordered output.
	second, err := m.Match(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMatchNoRecords(t *testing.T) {
	m := NewMatcher(&MockPolicyStore{Rules: []model.Rule{hrRule("HR_HIGH", model.PriorityHigh, "120")}})

	out, err := m.Match(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, out)
}
