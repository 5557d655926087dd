// Package access decides whether the resolved caller may mutate an
// implementation record. Only the update path is gated: create, query, get,
// and hours logging are deliberately unrestricted by design.
package access

import (
	"context"
	"log/slog"

	"github.com/mwhitt/impltrack-mcp/internal/domain/identity"
	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
)

// ownerField is the assigned-owner reference on Implementation__c.
const ownerField = "CDE__c"

// DeniedError is an authorization denial. It intentionally carries no record
// field values; denial must not leak record contents to the caller.
type DeniedError struct{}

func (e *DeniedError) Error() string {
	return "access denied: you are not the assigned CDE on this record; only the assigned CDE or an administrator can update it"
}

// Enforcer authorizes updates against record ownership.
type Enforcer struct {
	sf       salesforce.API
	resolver *identity.Resolver
	logger   *slog.Logger
}

// NewEnforcer creates an enforcer backed by the identity resolver.
func NewEnforcer(sf salesforce.API, resolver *identity.Resolver, logger *slog.Logger) *Enforcer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Enforcer{sf: sf, resolver: resolver, logger: logger}
}

// AuthorizeUpdate returns nil when the caller may update the record.
// Administrators are authorized unconditionally. Standard callers are
// authorized only when the record's owner field equals their user ID; an
// empty owner field always denies. An unresolved identity fails closed.
func (e *Enforcer) AuthorizeUpdate(ctx context.Context, implementationID string) error {
	id, err := e.resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	if id.Role == identity.RoleAdministrator {
		return nil
	}

	// Ownership check requires reading the current owner before the
	// mutation; every standard-role update pays this extra read.
	rec, err := e.sf.GetRecord(ctx, "Implementation__c", implementationID, []string{ownerField})
	if err != nil {
		return err
	}

	owner, _ := rec[ownerField].(string)
	if owner == "" || owner != id.UserID {
		e.logger.Info("update denied", "record_id", implementationID, "caller", id.Email)
		return &DeniedError{}
	}
	return nil
}
