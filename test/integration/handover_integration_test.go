//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardline/handover/internal/config"
	"github.com/wardline/handover/internal/core"
	"github.com/wardline/handover/internal/core/model"
	"github.com/wardline/handover/internal/ingest"
	"github.com/wardline/handover/internal/store"
)

const recordsCSV = `patient_id,datetime,condition,vitals_HR,vitals_BP,medications
ER101,2024-03-01 08:00:00,Chest Pain,110,135/85,Aspirin
ER101,2024-03-01 12:00:00,Tachycardia,130,150/95,
ER103,2024-03-01 09:00:00,Stable,72,120/80,
`

const rulesCSV = `rule_id,category,priority,signal,operator,value,unit,time_window_h,action,message,dedupe_key
HR_HIGH,vitals,High,vitals_HR,>,120,bpm,0,Notify physician,Heart rate above threshold,hr
HR_ELEVATED,vitals,Medium,vitals_HR,>,100,bpm,0,Recheck in 1h,Heart rate elevated,hr
`

const sbarJSON = `{
	"situation": "Admitted with tachycardia.",
	"background": "Earlier chest pain, on Aspirin.",
	"assessment": "vitals_HR 130 and rising.",
	"recommendation": "Escalate to physician."
}`

type scriptedGenerator struct {
	response string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.response, nil
}

func buildStores(t *testing.T) (*store.SQLiteRecordStore, *store.SQLitePolicyStore) {
	t.Helper()
	dir := t.TempDir()

	recCSV := filepath.Join(dir, "records.csv")
	require.NoError(t, os.WriteFile(recCSV, []byte(recordsCSV), 0o644))
	ruleCSV := filepath.Join(dir, "rules.csv")
	require.NoError(t, os.WriteFile(ruleCSV, []byte(rulesCSV), 0o644))

	recDB := filepath.Join(dir, "medical_records.db")
	ruleDB := filepath.Join(dir, "policy_rules.db")

	_, err := ingest.Load(recCSV, recDB, "medical_records", ingest.KindRecords)
	require.NoError(t, err)
	_, err = ingest.Load(ruleCSV, ruleDB, "clinical_rules", ingest.KindRules)
	require.NoError(t, err)

	records, err := store.NewSQLiteRecordStore(recDB, "medical_records")
	require.NoError(t, err)
	t.Cleanup(func() { records.Close() })

	policies, err := store.NewSQLitePolicyStore(ruleDB, "clinical_rules")
	require.NoError(t, err)
	t.Cleanup(func() { policies.Close() })

	return records, policies
}

func TestFullFlow(t *testing.T) {
	records, policies := buildStores(t)
	gen := &scriptedGenerator{response: sbarJSON}

	p := core.NewPipeline(records, policies, gen, config.DefaultSBARPrompt, 30*time.Second)

	report, err := p.Run(context.Background(), "ER101")
	require.NoError(t, err)

	assert.Equal(t, "ER101", report.PatientID)
	require.NotNil(t, report.SBAR)
	assert.True(t, report.SBAR.Complete())

	// HR_HIGH and HR_ELEVATED share a dedupe key; only the High rule
	// survives, and it is justified by the ingested HR 130 reading.
	require.Len(t, report.Escalations, 1)
	assert.Equal(t, "HR_HIGH", report.Escalations[0].RuleID)
	assert.True(t, report.Escalations[0].Justified)
	assert.Equal(t, "130", report.Escalations[0].Observed)

	assert.Equal(t, 1, report.Summary.TotalEscalations)
	assert.Equal(t, model.PriorityHigh, report.Summary.PriorityLevel)
	assert.True(t, report.Summary.RequiresImmediateAttention)
	assert.Equal(t, []string{"Notify physician"}, report.Summary.NextActions)

	_, err = time.Parse(time.RFC3339, report.Summary.Timestamp)
	assert.NoError(t, err)
}

func TestFullFlowStablePatient(t *testing.T) {
	records, policies := buildStores(t)
	gen := &scriptedGenerator{response: `{"situation":"Stable.","background":"None.","assessment":"vitals_HR 72.","recommendation":"Routine follow-up."}`}

	p := core.NewPipeline(records, policies, gen, config.DefaultSBARPrompt, 30*time.Second)

	report, err := p.Run(context.Background(), "ER103")
	require.NoError(t, err)

	assert.Empty(t, report.Escalations)
	assert.Equal(t, model.PriorityLow, report.Summary.PriorityLevel)
	assert.False(t, report.Summary.RequiresImmediateAttention)
}

func TestFullFlowUnknownPatientDegrades(t *testing.T) {
	records, policies := buildStores(t)
	gen := &scriptedGenerator{response: sbarJSON}

	p := core.NewPipeline(records, policies, gen, config.DefaultSBARPrompt, 30*time.Second)

	report, err := p.Run(context.Background(), "ER999")
	require.NoError(t, err)

	assert.Nil(t, report.SBAR)
	assert.Empty(t, report.Escalations)
	assert.NotEmpty(t, report.Summary.Error)
}
