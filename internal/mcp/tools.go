package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwhitt/impltrack-mcp/internal/audit"
	"github.com/mwhitt/impltrack-mcp/internal/domain/hours"
	"github.com/mwhitt/impltrack-mcp/internal/domain/implementation"
)

type createImplementationInput struct {
	OpportunityID   string   `json:"opportunity_id" jsonschema:"The 15 or 18-char Salesforce Opportunity ID (starts with 006)"`
	Type            string   `json:"type" jsonschema:"Implementation type. Must be one of: Join, Pure Migration, Join - Lite, Join - Quickstart, Other"`
	ContractType    string   `json:"contract_type" jsonschema:"Contract type. Must be one of: Annual, Free Trial, Pay as you go"`
	ContractedHours *float64 `json:"contracted_hours,omitempty" jsonschema:"Optional number of contracted hours"`
	Features        string   `json:"features,omitempty" jsonschema:"Optional semicolon-separated features (e.g. Compression;Hypertables). Valid values: Read Replicas, HA Replicas, Data Tiering, Caggs, Compression, Migration, Vector, Hypertables"`
	MigrationType   string   `json:"migration_type,omitempty" jsonschema:"Optional migration type. Valid values: Customer Tooling, Dual-write and backfill, Parallel Copy, pg_dump and pg_restore, NA, TS Tooling, Live Migration"`
}

type updateImplementationInput struct {
	Ref     string         `json:"record_name_or_id" jsonschema:"Implementation record Name (e.g. IMPL-0042) or Salesforce ID"`
	Updates map[string]any `json:"updates" jsonschema:"Field API names to new values. Dates must be YYYY-MM-DD. Remote-computed fields are skipped with a warning"`
}

type logHoursInput struct {
	Ref         string  `json:"record_name_or_id" jsonschema:"Implementation record Name (e.g. IMPL-0042) or Salesforce ID"`
	Hours       float64 `json:"hours" jsonschema:"Number of hours worked"`
	ProjectTask string  `json:"project_task,omitempty" jsonschema:"The task category. MUST be confirmed by the user before calling; present the valid list and let the user choose. Multiple values can be semicolon-separated"`
	Notes       string  `json:"notes,omitempty" jsonschema:"Optional description of work done"`
	TaskDate    string  `json:"task_date,omitempty" jsonschema:"Optional date in YYYY-MM-DD format. Defaults to today"`
	ProjectType string  `json:"project_type,omitempty" jsonschema:"Optional project type. Valid values: Churn, Implementation, Internal Meetings, Join, Join - Lite, Join - QS, Pre-Sales, Pre-Sales (Discover Call), Projects, Support, Training"`
	RecordStage string  `json:"record_stage,omitempty" jsonschema:"Optional record stage. Valid values: Trial, Pre-Production, Production"`
}

type queryImplementationsInput struct {
	QueryType  string `json:"query_type" jsonschema:"One of: at_risk (health Risk/High Risk/Churn), active (not Complete/Passive/Unsuccessful), bandwidth (hours remaining on active), stale (Stale_Days > 14), by_stage (counts grouped by stage), custom (run custom_soql)"`
	CustomSOQL string `json:"custom_soql,omitempty" jsonschema:"Required when query_type is custom. A SOQL SELECT query against Implementation__c"`
}

type getImplementationInput struct {
	Ref string `json:"record_name_or_id" jsonschema:"Implementation record Name (e.g. IMPL-0042) or Salesforce ID"`
}

// registerTools wires the five gateway tools into the server. Each handler
// maps domain errors to tool errors and records an audit entry regardless
// of outcome.
func registerTools(server *sdkmcp.Server, cfg Config) {
	svcs := cfg.Services

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_implementation",
		Description: "Create a new Implementation record from an Opportunity ID",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in createImplementationInput) (*sdkmcp.CallToolResult, any, error) {
		result, err := svcs.Implementations.Create(ctx, implementation.CreateRequest{
			OpportunityID:   in.OpportunityID,
			Type:            in.Type,
			ContractType:    in.ContractType,
			ContractedHours: in.ContractedHours,
			Features:        in.Features,
			MigrationType:   in.MigrationType,
		})
		if err != nil {
			return toolError(ctx, cfg, "create_implementation", in.OpportunityID, err)
		}
		recordAudit(ctx, cfg, "create_implementation", result.ID, audit.OutcomeOK, result.Name)

		text := fmt.Sprintf(
			"Implementation created successfully.\n"+
				"  Record ID: %s\n"+
				"  Name: %s\n"+
				"  Account: %s\n"+
				"  Type: %s\n"+
				"  Contract: %s\n"+
				"  Stage: %s\n"+
				"  Health: %s",
			result.ID, result.Name, result.AccountName, result.Type,
			result.ContractType, result.Stage, result.Health,
		)
		return textResult(text), nil, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_implementation",
		Description: "Update fields on an existing Implementation record. Only the assigned CDE or an administrator can update a record",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in updateImplementationInput) (*sdkmcp.CallToolResult, any, error) {
		result, err := svcs.Implementations.Update(ctx, in.Ref, in.Updates)
		if err != nil {
			return toolError(ctx, cfg, "update_implementation", in.Ref, err)
		}
		recordAudit(ctx, cfg, "update_implementation", result.ID, audit.OutcomeOK,
			fmt.Sprintf("%d fields", len(result.Applied)))

		var sb strings.Builder
		fmt.Fprintf(&sb, "Updated %s (ID: %s):", result.Ref, result.ID)
		for field, value := range result.Applied {
			fmt.Fprintf(&sb, "\n  %s = %v", field, value)
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(&sb, "\nWarning: %s", warning)
		}
		return textResult(sb.String()), nil, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "log_hours",
		Description: "Log hours on an Implementation by creating a time entry. Do NOT call until the user has selected a project_task from the valid values; always present the list and let the user choose",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in logHoursInput) (*sdkmcp.CallToolResult, any, error) {
		result, err := svcs.Hours.Log(ctx, hours.LogRequest{
			Ref:         in.Ref,
			Hours:       in.Hours,
			ProjectTask: in.ProjectTask,
			Notes:       in.Notes,
			TaskDate:    in.TaskDate,
			ProjectType: in.ProjectType,
			RecordStage: in.RecordStage,
		})
		if err != nil {
			return toolError(ctx, cfg, "log_hours", in.Ref, err)
		}
		recordAudit(ctx, cfg, "log_hours", result.ImplementationID, audit.OutcomeOK,
			fmt.Sprintf("%g hours: %s", result.Hours, result.Task))

		text := fmt.Sprintf(
			"Hours logged successfully.\n"+
				"  Hours Record ID: %s\n"+
				"  Implementation: %s (ID: %s)\n"+
				"  Hours: %g\n"+
				"  Task: %s\n"+
				"  Date: %s",
			result.ID, result.Ref, result.ImplementationID, result.Hours, result.Task, result.Date,
		)
		if in.Notes != "" {
			text += "\n  Notes: " + in.Notes
		}
		return textResult(text), nil, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "query_implementations",
		Description: "Query Implementation records with a preset report (at_risk, active, bandwidth, stale, by_stage) or a custom SOQL SELECT",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in queryImplementationsInput) (*sdkmcp.CallToolResult, any, error) {
		result, err := svcs.Implementations.Query(ctx, in.QueryType, in.CustomSOQL)
		if err != nil {
			return toolError(ctx, cfg, "query_implementations", in.QueryType, err)
		}
		recordAudit(ctx, cfg, "query_implementations", in.QueryType, audit.OutcomeOK,
			fmt.Sprintf("%d records", result.TotalSize))
		return textResult(formatQueryResult(in.QueryType, result)), nil, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_implementation",
		Description: "Get full details of a single Implementation record",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in getImplementationInput) (*sdkmcp.CallToolResult, any, error) {
		rec, err := svcs.Implementations.Get(ctx, in.Ref)
		if err != nil {
			return toolError(ctx, cfg, "get_implementation", in.Ref, err)
		}
		id, _ := rec["Id"].(string)
		recordAudit(ctx, cfg, "get_implementation", id, audit.OutcomeOK, "")
		return textResult(formatImplementation(rec)), nil, nil
	})
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}

// toolError maps a domain error, records the failed operation, and returns
// it as a tool error result.
func toolError(ctx context.Context, cfg Config, operation, target string, err error) (*sdkmcp.CallToolResult, any, error) {
	apiErr := MapError(err)
	recordAudit(ctx, cfg, operation, target, apiErr.Code, apiErr.Message)

	text := apiErr.Message
	if apiErr.RecoveryHint != "" {
		text += "\n" + apiErr.RecoveryHint
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: fmt.Sprintf("[%s] %s", apiErr.Code, text)}},
	}, nil, nil
}

// recordAudit is best-effort; a failing recorder never fails the operation.
func recordAudit(ctx context.Context, cfg Config, operation, target, outcome, detail string) {
	if cfg.Recorder == nil {
		return
	}
	entry := audit.Entry{
		Operation: operation,
		Target:    target,
		Actor:     cfg.Actor,
		Outcome:   outcome,
		Detail:    detail,
	}
	if err := cfg.Recorder.Record(ctx, entry); err != nil && cfg.Logger != nil {
		cfg.Logger.Warn("audit record failed", "operation", operation, "error", err)
	}
}
