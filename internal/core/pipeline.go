package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/wardline/handover/internal/core/consolidate"
	"github.com/wardline/handover/internal/core/match"
	"github.com/wardline/handover/internal/core/model"
	"github.com/wardline/handover/internal/core/sbar"
	"github.com/wardline/handover/internal/llm"
	"github.com/wardline/handover/internal/store"
)

// State names a coordinator phase. Transitions are strictly sequential;
// Failed is absorbing.
type State string

const (
	StateSummarizing   State = "Summarizing"
	StateMatching      State = "Matching"
	StateConsolidating State = "Consolidating"
	StateDone          State = "Done"
	StateFailed        State = "Failed"
)

// Pipeline sequences the three handover stages for one patient request,
// threading the cumulative context (records, SBAR, candidates) forward
// so consolidation can cross-check the earlier stages.
//
// Failure policy: a generation failure while summarizing is fatal, since
// without an SBAR there is nothing to match or consolidate. Every other
// stage failure skips ahead to consolidation, which always produces a
// well-formed Report with the error recorded in its summary.
//
// A Pipeline holds no per-run state; concurrent Run calls are safe as
// long as the stores are.
type Pipeline struct {
	Summarizer      *sbar.Summarizer
	Matcher         *match.Matcher
	Consolidator    *consolidate.Consolidator
	GenerateTimeout time.Duration
}

func NewPipeline(records store.RecordStore, policies store.PolicyStore, gen llm.Generator, sbarPrompt string, generateTimeout time.Duration) *Pipeline {
	return &Pipeline{
		Summarizer:      sbar.NewSummarizer(records, gen, sbarPrompt),
		Matcher:         match.NewMatcher(policies),
		Consolidator:    consolidate.NewConsolidator(),
		GenerateTimeout: generateTimeout,
	}
}

// Run executes Summarizing -> Matching -> Consolidating -> Done for one
// patient and returns the Report. The returned error is non-nil only
// for the Failed state and always carries a human-readable reason.
func (p *Pipeline) Run(ctx context.Context, patientID string) (*model.Report, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient id must not be empty")
	}

	runID := uuid.New().String()

	var (
		sbarDoc    *model.SBARDocument
		records    []model.PatientRecord
		candidates []model.Escalation
		stageErr   string
	)

	state := StateSummarizing
	for {
		switch state {
		case StateSummarizing:
			sctx, cancel := p.stageContext(ctx)
			doc, recs, err := p.Summarizer.Summarize(sctx, patientID)
			cancel()

			switch {
			case err == nil:
				sbarDoc, records = doc, recs
				state = StateMatching
			case errors.Is(err, model.ErrGenerationFailure):
				log.Printf("run %s: %s: summarization failed: %v", runID, StateFailed, err)
				return nil, fmt.Errorf("summarization failed: %w", err)
			default:
				// NoData / NotFound / Unavailable degrade rather than
				// crash: consolidation still gets to emit a Report.
				log.Printf("run %s: degraded, skipping to consolidation: %v", runID, err)
				stageErr = err.Error()
				state = StateConsolidating
			}

		case StateMatching:
			cands, err := p.Matcher.Match(ctx, records)
			if err != nil {
				log.Printf("run %s: matching degraded: %v", runID, err)
				stageErr = err.Error()
			} else {
				candidates = cands
			}
			state = StateConsolidating

		case StateConsolidating:
			report := p.Consolidator.Consolidate(patientID, sbarDoc, records, candidates, stageErr)
			log.Printf("run %s: %s, %d escalation(s), priority %s", runID, StateDone, report.Summary.TotalEscalations, report.Summary.PriorityLevel)
			return report, nil
		}
	}
}

func (p *Pipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.GenerateTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.GenerateTimeout)
}
