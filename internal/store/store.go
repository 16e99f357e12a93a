package store

import (
	"context"

	"github.com/wardline/handover/internal/core/model"
)

// RecordStore answers patient observation queries. Results are ordered
// by datetime ascending and deterministic for a given patient at a given
// point in time.
type RecordStore interface {
	FetchRecords(ctx context.Context, patientID string) ([]model.PatientRecord, error)
}

// PolicyStore answers escalation rule queries. Implementations must only
// return rules that exist in the backing table, never fabricate one.
type PolicyStore interface {
	FetchAllRules(ctx context.Context) ([]model.Rule, error)
}
