// Package identity maps the configured operator email to a Salesforce user
// and a role. Resolution happens at most once per process; the result is
// cached for the process lifetime.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
)

// Role is the caller's authorization level.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleStandard      Role = "standard"
)

// adminProfileName is the Salesforce profile that grants administrator role.
const adminProfileName = "System Administrator"

// Identity is the resolved caller.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// Error indicates the caller identity could not be resolved. Privileged
// paths must treat this as unauthorized, never as administrator.
type Error struct {
	Email string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolving identity for %s: %v", e.Email, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Resolver looks up the configured caller in the remote store once and
// caches the administrator/standard determination.
type Resolver struct {
	sf     salesforce.API
	email  string
	logger *slog.Logger

	mu     sync.Mutex
	cached *Identity
}

// NewResolver creates a resolver for the given caller email.
func NewResolver(sf salesforce.API, email string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		sf:     sf,
		email:  strings.ToLower(strings.TrimSpace(email)),
		logger: logger,
	}
}

// Resolve returns the cached identity, performing the remote lookup on the
// first call. A failed lookup is not cached; the next call retries.
func (r *Resolver) Resolve(ctx context.Context) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return *r.cached, nil
	}

	soql := fmt.Sprintf(
		"SELECT Id, Profile.Name FROM User WHERE Email = '%s' AND IsActive = true LIMIT 1",
		salesforce.EscapeSOQL(r.email),
	)
	result, err := r.sf.Query(ctx, soql)
	if err != nil {
		return Identity{}, &Error{Email: r.email, Err: err}
	}
	if len(result.Records) == 0 {
		return Identity{}, &Error{Email: r.email, Err: fmt.Errorf("no active user found")}
	}

	user := result.Records[0]
	userID, _ := user["Id"].(string)
	if userID == "" {
		return Identity{}, &Error{Email: r.email, Err: fmt.Errorf("user record missing Id")}
	}

	// Unknown or missing profile resolves to standard, never administrator.
	role := RoleStandard
	profileName := ""
	if profile, ok := user["Profile"].(map[string]any); ok {
		profileName, _ = profile["Name"].(string)
	}
	if profileName == adminProfileName {
		role = RoleAdministrator
	}

	r.cached = &Identity{UserID: userID, Email: r.email, Role: role}
	r.logger.Info("caller identity resolved",
		"email", r.email, "user_id", userID, "profile", profileName, "role", role)

	return *r.cached, nil
}
