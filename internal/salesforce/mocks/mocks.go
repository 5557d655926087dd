package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
)

// API is a mock for salesforce.API.
type API struct {
	mock.Mock
}

func (m *API) Query(ctx context.Context, soql string) (*salesforce.QueryResult, error) {
	args := m.Called(ctx, soql)
	if result, ok := args.Get(0).(*salesforce.QueryResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *API) GetRecord(ctx context.Context, sobject, id string, fields []string) (salesforce.Record, error) {
	args := m.Called(ctx, sobject, id, fields)
	if rec, ok := args.Get(0).(salesforce.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *API) CreateRecord(ctx context.Context, sobject string, data map[string]any) (string, error) {
	args := m.Called(ctx, sobject, data)
	return args.String(0), args.Error(1)
}

func (m *API) UpdateRecord(ctx context.Context, sobject, id string, data map[string]any) error {
	args := m.Called(ctx, sobject, id, data)
	return args.Error(0)
}
