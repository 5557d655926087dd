package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mwhitt/impltrack-mcp/internal/access"
	"github.com/mwhitt/impltrack-mcp/internal/domain/identity"
	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
	"github.com/mwhitt/impltrack-mcp/internal/salesforce/mocks"
)

const recordID = "a00000000000001AAA"

func userResult(id, profile string) *salesforce.QueryResult {
	return &salesforce.QueryResult{TotalSize: 1, Records: []salesforce.Record{{
		"Id":      id,
		"Profile": map[string]any{"Name": profile},
	}}}
}

func TestEnforcer_AdminAlwaysAllowed(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}
	sf.On("Query", ctx, mock.Anything).Return(userResult("005000000000001AAA", "System Administrator"), nil)

	resolver := identity.NewResolver(sf, "admin@example.com", nil)
	enforcer := access.NewEnforcer(sf, resolver, nil)

	require.NoError(t, enforcer.AuthorizeUpdate(ctx, recordID))
	sf.AssertNotCalled(t, "GetRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnforcer_OwnerAllowed(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}
	sf.On("Query", ctx, mock.Anything).Return(userResult("005000000000001AAA", "Standard User"), nil)
	sf.On("GetRecord", ctx, "Implementation__c", recordID, []string{"CDE__c"}).
		Return(salesforce.Record{"CDE__c": "005000000000001AAA"}, nil)

	resolver := identity.NewResolver(sf, "cde@example.com", nil)
	enforcer := access.NewEnforcer(sf, resolver, nil)

	require.NoError(t, enforcer.AuthorizeUpdate(ctx, recordID))
}

func TestEnforcer_NonOwnerDenied(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}
	sf.On("Query", ctx, mock.Anything).Return(userResult("005000000000001AAA", "Standard User"), nil)
	sf.On("GetRecord", ctx, "Implementation__c", recordID, []string{"CDE__c"}).
		Return(salesforce.Record{"CDE__c": "005000000000099AAA"}, nil)

	resolver := identity.NewResolver(sf, "cde@example.com", nil)
	enforcer := access.NewEnforcer(sf, resolver, nil)

	err := enforcer.AuthorizeUpdate(ctx, recordID)
	var derr *access.DeniedError
	require.ErrorAs(t, err, &derr)
	require.NotContains(t, derr.Error(), "005000000000099AAA", "denial must not leak record contents")
}

func TestEnforcer_EmptyOwnerDenied(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}
	sf.On("Query", ctx, mock.Anything).Return(userResult("005000000000001AAA", "Standard User"), nil)
	sf.On("GetRecord", ctx, "Implementation__c", recordID, []string{"CDE__c"}).
		Return(salesforce.Record{"CDE__c": nil}, nil)

	resolver := identity.NewResolver(sf, "cde@example.com", nil)
	enforcer := access.NewEnforcer(sf, resolver, nil)

	err := enforcer.AuthorizeUpdate(ctx, recordID)
	var derr *access.DeniedError
	require.ErrorAs(t, err, &derr)
}

func TestEnforcer_UnresolvedIdentityFailsClosed(t *testing.T) {
	ctx := context.Background()
	sf := &mocks.API{}
	sf.On("Query", ctx, mock.Anything).Return(nil, errors.New("network down"))

	resolver := identity.NewResolver(sf, "cde@example.com", nil)
	enforcer := access.NewEnforcer(sf, resolver, nil)

	err := enforcer.AuthorizeUpdate(ctx, recordID)
	var ierr *identity.Error
	require.ErrorAs(t, err, &ierr)
	sf.AssertNotCalled(t, "GetRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
