package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwhitt/impltrack-mcp/internal/audit"
	"github.com/mwhitt/impltrack-mcp/internal/domain/hours"
	"github.com/mwhitt/impltrack-mcp/internal/domain/implementation"
	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
)

// ImplementationService defines implementation-record operations needed by MCP.
type ImplementationService interface {
	Create(ctx context.Context, req implementation.CreateRequest) (*implementation.CreateResult, error)
	Update(ctx context.Context, ref string, updates map[string]any) (*implementation.UpdateResult, error)
	Get(ctx context.Context, ref string) (salesforce.Record, error)
	Query(ctx context.Context, queryType, customSOQL string) (*salesforce.QueryResult, error)
}

// HoursService defines hours-logging operations needed by MCP.
type HoursService interface {
	Log(ctx context.Context, req hours.LogRequest) (*hours.LogResult, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Implementations ImplementationService
	Hours           HoursService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Recorder audit.Recorder // optional
	Actor    string         // caller email for audit entries
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "impltrack",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg)

	return server
}
