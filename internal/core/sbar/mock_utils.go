package sbar

import (
	"context"

	"github.com/wardline/handover/internal/core/model"
)

type MockGenerator struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

type MockRecordStore struct {
	Records []model.PatientRecord
	Err     error
}

func (m *MockRecordStore) FetchRecords(ctx context.Context, patientID string) ([]model.PatientRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records, nil
}
