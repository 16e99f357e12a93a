package match

import (
	"context"

	"github.com/wardline/handover/internal/core/model"
)

type MockPolicyStore struct {
	Rules []model.Rule
	Err   error
}

func (m *MockPolicyStore) FetchAllRules(ctx context.Context) ([]model.Rule, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Rules, nil
}
