package consolidate

import (
	"time"

	"github.com/wardline/handover/internal/core/model"
)

// Consolidator is the final pipeline stage. It cross-checks each
// escalation candidate against the data the SBAR was derived from,
// drops the unsupported ones (drop only, never downgrade), and emits
// the terminal Report.
//
// The justification check prefers the structured record values over the
// SBAR prose; the prose scan is only the fallback when no records made
// it into the pipeline context. This stage never fails: when upstream
// data is missing it emits a degraded Report with the error recorded in
// the summary instead.
type Consolidator struct {
	// Now is swappable for tests; zero value means time.Now.
	Now func() time.Time
}

func NewConsolidator() *Consolidator {
	return &Consolidator{}
}

// Consolidate builds the Report. stageErr carries the human-readable
// reason when an earlier stage degraded the run; it lands in
// summary.error so the caller still gets a well-formed Report.
func (c *Consolidator) Consolidate(patientID string, sbarDoc *model.SBARDocument, records []model.PatientRecord, candidates []model.Escalation, stageErr string) *model.Report {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	report := &model.Report{
		PatientID:   patientID,
		SBAR:        sbarDoc,
		Escalations: []model.Escalation{},
		Summary: model.ReportSummary{
			PriorityLevel: model.PriorityLow,
			NextActions:   []string{},
			Timestamp:     now().UTC().Format(time.RFC3339),
			Error:         stageErr,
		},
	}

	if sbarDoc == nil || !sbarDoc.Complete() {
		if report.Summary.Error == "" {
			report.Summary.Error = "SBAR data missing or incomplete"
		}
		return report
	}

	seenActions := map[string]bool{}
	for _, cand := range candidates {
		if !justified(cand, sbarDoc, records) {
			continue
		}
		cand.Justified = true
		report.Escalations = append(report.Escalations, cand)

		if cand.Priority > report.Summary.PriorityLevel {
			report.Summary.PriorityLevel = cand.Priority
		}
		if cand.Action != "" && !seenActions[cand.Action] {
			seenActions[cand.Action] = true
			report.Summary.NextActions = append(report.Summary.NextActions, cand.Action)
		}
	}

	report.Summary.TotalEscalations = len(report.Escalations)
	report.Summary.RequiresImmediateAttention = report.Summary.PriorityLevel >= model.PriorityHigh

	return report
}

// justified verifies the candidate's triggering condition against the
// records it claims to describe. With records at hand this re-applies
// the comparison; without them the SBAR text must at least mention the
// signal or the observed value.
func justified(cand model.Escalation, sbarDoc *model.SBARDocument, records []model.PatientRecord) bool {
	if len(records) == 0 {
		return sbarDoc.Mentions(cand.Signal) || sbarDoc.Mentions(cand.Observed)
	}
	for _, rec := range records {
		observed, ok := rec.Signal(cand.Signal)
		if !ok {
			continue
		}
		if cand.Operator.Evaluate(observed, cand.Threshold) {
			return true
		}
	}
	return false
}
