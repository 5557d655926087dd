package salesforce

import "context"

// Record is a flat field map as returned by the REST API. Relationship
// fields (e.g. Account__r) appear as nested maps.
type Record map[string]any

// QueryResult is the response shape of the query endpoint.
type QueryResult struct {
	TotalSize int      `json:"totalSize"`
	Done      bool     `json:"done"`
	Records   []Record `json:"records"`
}

// API is the subset of the Salesforce REST contract the gateway consumes.
// Implemented by *Client; mocked in mocks for domain tests.
type API interface {
	// Query runs a SOQL query and returns the matching records.
	Query(ctx context.Context, soql string) (*QueryResult, error)
	// GetRecord fetches one record by ID, restricted to the given fields.
	GetRecord(ctx context.Context, sobject, id string, fields []string) (Record, error)
	// CreateRecord creates a record and returns its new ID.
	CreateRecord(ctx context.Context, sobject string, data map[string]any) (string, error)
	// UpdateRecord applies a partial update. Only supplied fields are sent.
	UpdateRecord(ctx context.Context, sobject, id string, data map[string]any) error
}
