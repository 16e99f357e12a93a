package sbar

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wardline/handover/internal/core/common"
	"github.com/wardline/handover/internal/core/model"
	"github.com/wardline/handover/internal/llm"
	"github.com/wardline/handover/internal/store"
)

// Summarizer is the first pipeline stage. It reads one patient's full
// record history and has the generator synthesize an SBAR handover note.
//
// Which fields feed which section is fixed here, not left to the model:
// the most recent record's condition and vitals are the Assessment and
// Situation inputs, the earliest record plus accumulated medications are
// the Background inputs, and Recommendation draws on the Assessment
// inputs. The prompt enumerates only those values, so nothing outside
// the record set can appear in the note.
type Summarizer struct {
	Records store.RecordStore
	LLM     llm.Generator
	Prompt  string
}

func NewSummarizer(records store.RecordStore, gen llm.Generator, prompt string) *Summarizer {
	return &Summarizer{
		Records: records,
		LLM:     gen,
		Prompt:  prompt,
	}
}

// Summarize produces the SBAR document for a patient, returning the
// records it was derived from so later stages can cross-check against
// structured values rather than prose.
func (s *Summarizer) Summarize(ctx context.Context, patientID string) (*model.SBARDocument, []model.PatientRecord, error) {
	if patientID == "" {
		return nil, nil, fmt.Errorf("patient id must not be empty")
	}

	records, err := s.Records.FetchRecords(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", model.ErrNoData, patientID)
	}

	prompt := fmt.Sprintf(s.Prompt, patientID, factsBlock(records))

	response, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrGenerationFailure, err)
	}

	doc, err := common.ParseJSON[model.SBARDocument](response)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrGenerationFailure, err)
	}
	if !doc.Complete() {
		return nil, records, fmt.Errorf("%w: document missing one or more SBAR sections", model.ErrGenerationFailure)
	}

	return &doc, records, nil
}

// factsBlock renders the section-eligible values in a stable order.
// Records arrive datetime-ascending from the store; vitals keys are
// sorted so two runs over the same data build the same prompt.
func factsBlock(records []model.PatientRecord) string {
	latest := records[len(records)-1]
	earliest := records[0]

	var b strings.Builder

	fmt.Fprintf(&b, "[situation] current condition: %s (observed %s)\n",
		orUnknown(latest.Condition), latest.Datetime.Format("2006-01-02 15:04"))

	fmt.Fprintf(&b, "[background] first observed %s with condition: %s\n",
		earliest.Datetime.Format("2006-01-02 15:04"), orUnknown(earliest.Condition))
	if meds := medicationHistory(records); len(meds) > 0 {
		fmt.Fprintf(&b, "[background] medications on record: %s\n", strings.Join(meds, "; "))
	}
	fmt.Fprintf(&b, "[background] observations on record: %d\n", len(records))

	for _, key := range sortedVitalKeys(latest) {
		fmt.Fprintf(&b, "[assessment] latest %s: %s\n", key, latest.Vitals[key])
	}
	fmt.Fprintf(&b, "[assessment] latest condition: %s\n", orUnknown(latest.Condition))

	fmt.Fprintf(&b, "[recommendation] base next steps on the assessment values above\n")

	return b.String()
}

func medicationHistory(records []model.PatientRecord) []string {
	seen := map[string]bool{}
	var meds []string
	for _, rec := range records {
		if rec.Medications == "" || seen[rec.Medications] {
			continue
		}
		seen[rec.Medications] = true
		meds = append(meds, rec.Medications)
	}
	return meds
}

func sortedVitalKeys(rec model.PatientRecord) []string {
	keys := make([]string, 0, len(rec.Vitals))
	for k := range rec.Vitals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
