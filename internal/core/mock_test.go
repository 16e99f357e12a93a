package core

import (
	"context"

	"github.com/wardline/handover/internal/core/model"
)

type mockRecordStore struct {
	Records []model.PatientRecord
	Err     error
}

func (m *mockRecordStore) FetchRecords(ctx context.Context, patientID string) ([]model.PatientRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records, nil
}

type mockPolicyStore struct {
	Rules []model.Rule
	Err   error
}

func (m *mockPolicyStore) FetchAllRules(ctx context.Context) ([]model.Rule, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Rules, nil
}

type mockGenerator struct {
	Response string
	Err      error
	Calls    int
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
