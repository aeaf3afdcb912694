package inventory

import (
	"context"

	"frontdesk-backend/internal/models"
)

// MockClient is an in-memory inventory for tests and local development.
type MockClient struct {
	Numbers []models.CandidateNumber
	Err     error

	LastQuery models.NumberSearchQuery
	Assigned  []string
}

func NewMockClient(numbers ...models.CandidateNumber) *MockClient {
	return &MockClient{Numbers: numbers}
}

func (m *MockClient) SearchNumbers(_ context.Context, q models.NumberSearchQuery) ([]models.CandidateNumber, error) {
	m.LastQuery = q
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Numbers, nil
}

func (m *MockClient) InstantAssign(_ context.Context, areaCode, _ string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if areaCode == "" {
		return "", ErrNoNumberAvailable
	}
	number := "+1" + areaCode + "5550100"
	m.Assigned = append(m.Assigned, number)
	return number, nil
}
