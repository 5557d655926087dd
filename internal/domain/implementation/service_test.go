package implementation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mwhitt/impltrack-mcp/internal/access"
	"github.com/mwhitt/impltrack-mcp/internal/domain/identity"
	"github.com/mwhitt/impltrack-mcp/internal/ratelimit"
	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
	"github.com/mwhitt/impltrack-mcp/internal/salesforce/mocks"
)

const (
	adminUserSOQL = "SELECT Id, Profile.Name FROM User WHERE Email = 'admin@example.com' AND IsActive = true LIMIT 1"
	cdeUserSOQL   = "SELECT Id, Profile.Name FROM User WHERE Email = 'cde@example.com' AND IsActive = true LIMIT 1"
)

func newTestService(sf salesforce.API, email string) *Service {
	resolver := identity.NewResolver(sf, email, nil)
	enforcer := access.NewEnforcer(sf, resolver, nil)
	limiter := ratelimit.New(5, time.Minute)
	svc := NewService(sf, limiter, enforcer, nil)
	svc.now = func() time.Time { return time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_Create_BuildsNameFromAccountAndDate(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	sf.On("Query", ctx, "SELECT Id, Name, AccountId, Account.Name FROM Opportunity WHERE Id = '006000000000001AAA'").
		Return(&salesforce.QueryResult{TotalSize: 1, Records: []salesforce.Record{{
			"Id":        "006000000000001AAA",
			"Name":      "Acme Expansion",
			"AccountId": "001000000000001AAA",
			"Account":   map[string]any{"Name": "Acme Corp"},
		}}}, nil)
	sf.On("CreateRecord", ctx, "Implementation__c", mock.MatchedBy(func(data map[string]any) bool {
		return data["Name"] == "Acme Corp - Join - 2026-02-27" &&
			data["Implementation_Stage__c"] == "00 - Kick Off Call" &&
			data["Program_Health__c"] == "Healthy" &&
			data["In_Production__c"] == false
	})).Return("a00000000000001AAA", nil)

	svc := newTestService(sf, "cde@example.com")
	result, err := svc.Create(ctx, CreateRequest{
		OpportunityID: "006000000000001AAA",
		Type:          "Join",
		ContractType:  "Annual",
	})
	require.NoError(t, err)
	require.Equal(t, "a00000000000001AAA", result.ID)
	require.Equal(t, "Acme Corp - Join - 2026-02-27", result.Name)
	require.Equal(t, "00 - Kick Off Call", result.Stage)
	require.Equal(t, "Healthy", result.Health)
	sf.AssertExpectations(t)
}

func TestService_Create_InvalidPicklistSkipsRemoteCalls(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	svc := newTestService(sf, "cde@example.com")
	_, err := svc.Create(ctx, CreateRequest{
		OpportunityID: "006000000000001AAA",
		Type:          "Bogus",
		ContractType:  "Sometimes",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Problems, 2)
	sf.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	sf.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Create_RejectedPayloadDoesNotChargeLimiter(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	svc := newTestService(sf, "cde@example.com")
	for i := 0; i < 10; i++ {
		_, err := svc.Create(ctx, CreateRequest{
			OpportunityID: "006000000000001AAA",
			Type:          "Bogus",
			ContractType:  "Annual",
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}

	// The limiter still has its full allowance.
	ok, _ := svc.limiter.TryAcquire()
	require.True(t, ok)
}

func TestService_Create_RateLimited(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	svc := newTestService(sf, "cde@example.com")
	for i := 0; i < 5; i++ {
		ok, _ := svc.limiter.TryAcquire()
		require.True(t, ok)
	}

	_, err := svc.Create(ctx, CreateRequest{
		OpportunityID: "006000000000001AAA",
		Type:          "Join",
		ContractType:  "Annual",
	})
	var rerr *ratelimit.Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, 5, rerr.Limit)
	sf.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestService_Create_OpportunityNotFound(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	sf.On("Query", ctx, mock.Anything).
		Return(&salesforce.QueryResult{TotalSize: 0, Done: true}, nil)

	svc := newTestService(sf, "cde@example.com")
	_, err := svc.Create(ctx, CreateRequest{
		OpportunityID: "006000000000009AAA",
		Type:          "Join",
		ContractType:  "Annual",
	})
	var nferr *salesforce.NotFoundError
	require.ErrorAs(t, err, &nferr)
	require.Equal(t, "Opportunity", nferr.Object)
}

func TestService_ResolveRef(t *testing.T) {
	ctx := context.Background()

	t.Run("record ID passes through without a query", func(t *testing.T) {
		sf := &mocks.API{}
		svc := newTestService(sf, "cde@example.com")

		id, err := svc.ResolveRef(ctx, "a00000000000001AAA")
		require.NoError(t, err)
		require.Equal(t, "a00000000000001AAA", id)
		sf.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	})

	t.Run("name resolves to the single match", func(t *testing.T) {
		sf := &mocks.API{}
		sf.On("Query", ctx, "SELECT Id FROM Implementation__c WHERE Name = 'IMPL-0042' LIMIT 2").
			Return(&salesforce.QueryResult{TotalSize: 1, Records: []salesforce.Record{{"Id": "a00000000000002AAA"}}}, nil)
		svc := newTestService(sf, "cde@example.com")

		id, err := svc.ResolveRef(ctx, "IMPL-0042")
		require.NoError(t, err)
		require.Equal(t, "a00000000000002AAA", id)
	})

	t.Run("ambiguous name is rejected", func(t *testing.T) {
		sf := &mocks.API{}
		sf.On("Query", ctx, mock.Anything).
			Return(&salesforce.QueryResult{TotalSize: 2, Records: []salesforce.Record{
				{"Id": "a00000000000002AAA"}, {"Id": "a00000000000003AAA"},
			}}, nil)
		svc := newTestService(sf, "cde@example.com")

		_, err := svc.ResolveRef(ctx, "IMPL-0042")
		var aerr *AmbiguousNameError
		require.ErrorAs(t, err, &aerr)
		require.Equal(t, "IMPL-0042", aerr.Name)
	})

	t.Run("unknown name is not found", func(t *testing.T) {
		sf := &mocks.API{}
		sf.On("Query", ctx, mock.Anything).
			Return(&salesforce.QueryResult{TotalSize: 0, Done: true}, nil)
		svc := newTestService(sf, "cde@example.com")

		_, err := svc.ResolveRef(ctx, "IMPL-9999")
		var nferr *salesforce.NotFoundError
		require.ErrorAs(t, err, &nferr)
	})

	t.Run("name with quote is escaped", func(t *testing.T) {
		sf := &mocks.API{}
		sf.On("Query", ctx, `SELECT Id FROM Implementation__c WHERE Name = 'O\'Brien Co' LIMIT 2`).
			Return(&salesforce.QueryResult{TotalSize: 1, Records: []salesforce.Record{{"Id": "a00000000000004AAA"}}}, nil)
		svc := newTestService(sf, "cde@example.com")

		id, err := svc.ResolveRef(ctx, "O'Brien Co")
		require.NoError(t, err)
		require.Equal(t, "a00000000000004AAA", id)
	})
}

func TestService_Update_DeniedForNonOwner(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	sf.On("Query", ctx, cdeUserSOQL).
		Return(&salesforce.QueryResult{TotalSize: 1, Records: []salesforce.Record{{
			"Id":      "005000000000001AAA",
			"Profile": map[string]any{"Name": "Standard User"},
		}}}, nil)
	sf.On("GetRecord", ctx, "Implementation__c", "a00000000000001AAA", []string{"CDE__c"}).
		Return(salesforce.Record{"CDE__c": "005000000000099AAA"}, nil)

	svc := newTestService(sf, "cde@example.com")
	_, err := svc.Update(ctx, "a00000000000001AAA", map[string]any{"Comments__c": "hi"})

	var derr *access.DeniedError
	require.ErrorAs(t, err, &derr)
	sf.AssertNotCalled(t, "UpdateRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Update_AdminBypassesOwnership(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	sf.On("Query", ctx, adminUserSOQL).
		Return(&salesforce.QueryResult{TotalSize: 1, Records: []salesforce.Record{{
			"Id":      "005000000000002AAA",
			"Profile": map[string]any{"Name": "System Administrator"},
		}}}, nil)
	sf.On("UpdateRecord", ctx, "Implementation__c", "a00000000000001AAA",
		map[string]any{"Comments__c": "updated"}).Return(nil)

	svc := newTestService(sf, "admin@example.com")
	result, err := svc.Update(ctx, "a00000000000001AAA", map[string]any{"Comments__c": "updated"})
	require.NoError(t, err)
	require.Equal(t, "a00000000000001AAA", result.ID)
	// Admin path never reads the owner field.
	sf.AssertNotCalled(t, "GetRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Update_EmptyPayload(t *testing.T) {
	sf := &mocks.API{}
	svc := newTestService(sf, "cde@example.com")

	_, err := svc.Update(context.Background(), "a00000000000001AAA", nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestService_Update_AllFieldsComputed(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	sf.On("Query", ctx, adminUserSOQL).
		Return(&salesforce.QueryResult{TotalSize: 1, Records: []salesforce.Record{{
			"Id":      "005000000000002AAA",
			"Profile": map[string]any{"Name": "System Administrator"},
		}}}, nil)

	svc := newTestService(sf, "admin@example.com")
	_, err := svc.Update(ctx, "a00000000000001AAA", map[string]any{"Stale_Days__c": 5.0})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	sf.AssertNotCalled(t, "UpdateRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Query_Presets(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	sf.On("Query", ctx, mock.MatchedBy(func(soql string) bool {
		return soql == presetQueries["at_risk"]
	})).Return(&salesforce.QueryResult{TotalSize: 1, Records: []salesforce.Record{{"Name": "IMPL-0001"}}}, nil)

	svc := newTestService(sf, "cde@example.com")
	result, err := svc.Query(ctx, "at_risk", "")
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalSize)
}

func TestService_Query_UnknownType(t *testing.T) {
	sf := &mocks.API{}
	svc := newTestService(sf, "cde@example.com")

	_, err := svc.Query(context.Background(), "everything", "")
	var uerr *UnknownQueryError
	require.ErrorAs(t, err, &uerr)
	require.Contains(t, uerr.Valid, "at_risk")
	require.Contains(t, uerr.Valid, "custom")
}

func TestService_Query_Custom(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}
	svc := newTestService(sf, "cde@example.com")

	t.Run("requires custom_soql", func(t *testing.T) {
		_, err := svc.Query(ctx, "custom", "  ")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects non-SELECT", func(t *testing.T) {
		_, err := svc.Query(ctx, "custom", "DELETE FROM Implementation__c")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		sf.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	})

	t.Run("runs SELECT", func(t *testing.T) {
		soql := "SELECT Id FROM Implementation__c LIMIT 5"
		sf.On("Query", ctx, soql).
			Return(&salesforce.QueryResult{TotalSize: 0, Done: true}, nil)
		result, err := svc.Query(ctx, "custom", soql)
		require.NoError(t, err)
		require.Equal(t, 0, result.TotalSize)
	})
}

func TestService_CreateThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	var created map[string]any
	sf.On("Query", ctx, "SELECT Id, Name, AccountId, Account.Name FROM Opportunity WHERE Id = '006000000000001AAA'").
		Return(&salesforce.QueryResult{TotalSize: 1, Records: []salesforce.Record{{
			"Id":        "006000000000001AAA",
			"AccountId": "001000000000001AAA",
			"Account":   map[string]any{"Name": "Acme Corp"},
		}}}, nil)
	sf.On("CreateRecord", ctx, "Implementation__c", mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(2).(map[string]any)
		}).
		Return("a00000000000005AAA", nil)
	sf.On("Query", ctx, "SELECT Id FROM Implementation__c WHERE Name = 'Acme Corp - Join - 2026-02-27' LIMIT 2").
		Return(&salesforce.QueryResult{TotalSize: 1, Records: []salesforce.Record{{"Id": "a00000000000005AAA"}}}, nil)

	svc := newTestService(sf, "cde@example.com")
	result, err := svc.Create(ctx, CreateRequest{
		OpportunityID: "006000000000001AAA",
		Type:          "Join",
		ContractType:  "Annual",
		Features:      "Compression;Hypertables",
	})
	require.NoError(t, err)

	// Fetching by the generated name resolves to the created record, and the
	// created payload carries the supplied fields unchanged.
	sf.On("GetRecord", ctx, "Implementation__c", "a00000000000005AAA", detailFields).
		Return(salesforce.Record(created), nil)

	rec, err := svc.Get(ctx, result.Name)
	require.NoError(t, err)
	require.Equal(t, "Acme Corp - Join - 2026-02-27", rec["Name"])
	require.Equal(t, "Join", rec["Type__c"])
	require.Equal(t, "Annual", rec["Contract_Type__c"])
	require.Equal(t, "Compression;Hypertables", rec["Features__c"])
}

func TestService_Get_FetchesDetailFields(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}

	sf.On("GetRecord", ctx, "Implementation__c", "a00000000000001AAA", detailFields).
		Return(salesforce.Record{"Id": "a00000000000001AAA", "Name": "IMPL-0042"}, nil)

	svc := newTestService(sf, "cde@example.com")
	rec, err := svc.Get(ctx, "a00000000000001AAA")
	require.NoError(t, err)
	require.Equal(t, "IMPL-0042", rec["Name"])
}
