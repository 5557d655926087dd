// Package hours logs time worked against an implementation by creating
// Implementation_Hours__c records.
package hours

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mwhitt/impltrack-mcp/internal/domain/implementation"
	"github.com/mwhitt/impltrack-mcp/internal/ratelimit"
	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
)

// SObject is the time-tracking child object of Implementation__c.
const SObject = "Implementation_Hours__c"

// ValidProjectTasks are the Project_Task__c multi-select picklist values.
var ValidProjectTasks = []string{
	"CAGG", "Case work", "Compression", "Connection Pooling", "HA Replica",
	"Hypershift", "Ingest", "Internal Meetings - Non Customer", "Internal Testing",
	"Migration", "POC", "Project Plan", "Query Optimization", "Read Replica",
	"Replica", "Retention", "CNS", "Sales", "Sales Call", "Schema Design",
	"Security", "Sizing", "Troubleshooting", "VPC",
}

// ValidProjectTypes are the Project_Type__c picklist values.
var ValidProjectTypes = []string{
	"Churn", "Implementation", "Internal Meetings", "Join", "Join - Lite",
	"Join - QS", "Pre-Sales", "Pre-Sales (Discover Call)", "Projects",
	"Support", "Training",
}

// ValidRecordStages are the Record_Stage__c picklist values.
var ValidRecordStages = []string{"Trial", "Pre-Production", "Production"}

// Resolver resolves an implementation reference to a record ID.
type Resolver interface {
	ResolveRef(ctx context.Context, ref string) (string, error)
}

// Service logs hours entries.
type Service struct {
	sf       salesforce.API
	resolver Resolver
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the hours service. The limiter is shared with the
// implementation-create path; both operations create records and draw from
// the same window.
func NewService(sf salesforce.API, resolver Resolver, limiter *ratelimit.Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		sf:       sf,
		resolver: resolver,
		limiter:  limiter,
		logger:   logger,
		now:      time.Now,
	}
}

// LogRequest describes one hours entry.
type LogRequest struct {
	Ref         string
	Hours       float64
	ProjectTask string
	Notes       string
	TaskDate    string
	ProjectType string
	RecordStage string
}

// LogResult reports a logged entry.
type LogResult struct {
	ID               string
	ImplementationID string
	Ref              string
	Hours            float64
	Task             string
	Date             string
}

// Log validates the entry, charges the creation rate limit, resolves the
// implementation reference, and creates the record. A missing project task
// is a validation failure; the caller is expected to confirm the task with
// the user first.
func (s *Service) Log(ctx context.Context, req LogRequest) (*LogResult, error) {
	var problems []implementation.FieldProblem

	if req.ProjectTask == "" {
		problems = append(problems, implementation.FieldProblem{
			Field:   "project_task",
			Message: "required; ask the user to pick a task before logging hours",
		})
	} else if p := implementation.CheckMultiPicklist("Project_Task__c", req.ProjectTask, ValidProjectTasks); p != nil {
		problems = append(problems, *p)
	}
	if req.ProjectType != "" {
		if p := implementation.CheckPicklist("Project_Type__c", req.ProjectType, ValidProjectTypes); p != nil {
			problems = append(problems, *p)
		}
	}
	if req.RecordStage != "" {
		if p := implementation.CheckPicklist("Record_Stage__c", req.RecordStage, ValidRecordStages); p != nil {
			problems = append(problems, *p)
		}
	}
	if req.TaskDate != "" {
		if _, err := time.Parse("2006-01-02", req.TaskDate); err != nil {
			problems = append(problems, implementation.FieldProblem{
				Field:   "task_date",
				Message: fmt.Sprintf("invalid date %q; expected YYYY-MM-DD", req.TaskDate),
			})
		}
	}
	if len(problems) > 0 {
		return nil, &implementation.ValidationError{Problems: problems}
	}

	if ok, wait := s.limiter.TryAcquire(); !ok {
		return nil, s.limiter.Err(wait)
	}

	implID, err := s.resolver.ResolveRef(ctx, req.Ref)
	if err != nil {
		return nil, err
	}

	taskDate := req.TaskDate
	if taskDate == "" {
		taskDate = s.now().Format("2006-01-02")
	}

	data := map[string]any{
		"Implementation__c": implID,
		"Hours_Worked__c":   req.Hours,
		"Project_Task__c":   req.ProjectTask,
		"Task_Date__c":      taskDate,
	}
	if req.Notes != "" {
		data["Notes__c"] = req.Notes
	}
	if req.ProjectType != "" {
		data["Project_Type__c"] = req.ProjectType
	}
	if req.RecordStage != "" {
		data["Record_Stage__c"] = req.RecordStage
	}

	id, err := s.sf.CreateRecord(ctx, SObject, data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("hours logged", "id", id, "implementation", implID, "hours", req.Hours)

	return &LogResult{
		ID:               id,
		ImplementationID: implID,
		Ref:              req.Ref,
		Hours:            req.Hours,
		Task:             req.ProjectTask,
		Date:             taskDate,
	}, nil
}
