package implementation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mwhitt/impltrack-mcp/internal/access"
	"github.com/mwhitt/impltrack-mcp/internal/ratelimit"
	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
)

// Service implements the implementation-record operations.
type Service struct {
	sf       salesforce.API
	limiter  *ratelimit.Limiter
	enforcer *access.Enforcer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the implementation service.
func NewService(sf salesforce.API, limiter *ratelimit.Limiter, enforcer *access.Enforcer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		sf:       sf,
		limiter:  limiter,
		enforcer: enforcer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateRequest describes a new implementation record.
type CreateRequest struct {
	OpportunityID   string
	Type            string
	ContractType    string
	ContractedHours *float64
	Features        string
	MigrationType   string
}

// CreateResult reports what was created.
type CreateResult struct {
	ID           string
	Name         string
	AccountName  string
	Type         string
	ContractType string
	Stage        string
	Health       string
}

// Create validates the request, charges the creation rate limit, resolves
// the opportunity, and creates the record. Validation runs before the
// limiter so a rejected payload never consumes a limiter slot.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	var problems []FieldProblem
	if p := CheckPicklist("Type__c", req.Type, ValidTypes); p != nil {
		problems = append(problems, *p)
	}
	if p := CheckPicklist("Contract_Type__c", req.ContractType, ValidContractTypes); p != nil {
		problems = append(problems, *p)
	}
	if req.MigrationType != "" {
		if p := CheckPicklist("Migration_Type__c", req.MigrationType, ValidMigrationTypes); p != nil {
			problems = append(problems, *p)
		}
	}
	if req.Features != "" {
		if p := CheckMultiPicklist("Features__c", req.Features, ValidFeatures); p != nil {
			problems = append(problems, *p)
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	if ok, wait := s.limiter.TryAcquire(); !ok {
		return nil, s.limiter.Err(wait)
	}

	soql := fmt.Sprintf(
		"SELECT Id, Name, AccountId, Account.Name FROM Opportunity WHERE Id = '%s'",
		salesforce.EscapeSOQL(req.OpportunityID),
	)
	result, err := s.sf.Query(ctx, soql)
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, &salesforce.NotFoundError{Object: "Opportunity", Ref: req.OpportunityID}
	}
	opp := result.Records[0]
	accountID, _ := opp["AccountId"].(string)
	accountName := "Unknown"
	if acct, ok := opp["Account"].(map[string]any); ok {
		if n, ok := acct["Name"].(string); ok && n != "" {
			accountName = n
		}
	}

	name := fmt.Sprintf("%s - %s - %s", accountName, req.Type, s.now().Format(dateLayout))

	data := map[string]any{
		"Name":                    name,
		"Opportunity__c":          req.OpportunityID,
		"Account__c":              accountID,
		"Type__c":                 req.Type,
		"Contract_Type__c":        req.ContractType,
		"Implementation_Stage__c": ValidStages[0],
		"Program_Health__c":       "Healthy",
		"In_Production__c":        false,
	}
	if req.ContractedHours != nil {
		data["Contracted_Hours__c"] = *req.ContractedHours
	}
	if req.Features != "" {
		data["Features__c"] = req.Features
	}
	if req.MigrationType != "" {
		data["Migration_Type__c"] = req.MigrationType
	}

	id, err := s.sf.CreateRecord(ctx, SObject, data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("implementation created", "id", id, "name", name)

	return &CreateResult{
		ID:           id,
		Name:         name,
		AccountName:  accountName,
		Type:         req.Type,
		ContractType: req.ContractType,
		Stage:        ValidStages[0],
		Health:       "Healthy",
	}, nil
}

// UpdateResult reports an applied update.
type UpdateResult struct {
	ID       string
	Ref      string
	Applied  map[string]any
	Warnings []string
}

// Update resolves the record reference, checks authorization, validates the
// payload, and applies it.
func (s *Service) Update(ctx context.Context, ref string, updates map[string]any) (*UpdateResult, error) {
	if len(updates) == 0 {
		return nil, &ValidationError{Problems: []FieldProblem{
			{Field: "updates", Message: "no fields to update"},
		}}
	}

	id, err := s.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := s.enforcer.AuthorizeUpdate(ctx, id); err != nil {
		return nil, err
	}

	checked, err := ValidateUpdate(updates)
	if err != nil {
		return nil, err
	}
	if len(checked.Fields) == 0 {
		return nil, &ValidationError{Problems: []FieldProblem{
			{Field: "updates", Message: "every supplied field was stripped as remote-computed"},
		}}
	}

	if err := s.sf.UpdateRecord(ctx, SObject, id, checked.Fields); err != nil {
		return nil, err
	}
	s.logger.Info("implementation updated", "id", id, "fields", len(checked.Fields))

	return &UpdateResult{ID: id, Ref: ref, Applied: checked.Fields, Warnings: checked.Warnings}, nil
}

// Get fetches the full detail field set for one record.
func (s *Service) Get(ctx context.Context, ref string) (salesforce.Record, error) {
	id, err := s.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.sf.GetRecord(ctx, SObject, id, detailFields)
}

// presetQueries are the named report queries.
var presetQueries = map[string]string{
	"at_risk": "SELECT Name, Id, Account__r.Name, Program_Health__c, Risks__c, Implementation_Stage__c " +
		"FROM Implementation__c " +
		"WHERE Program_Health__c IN ('Risk', 'High Risk', 'Churn') " +
		"ORDER BY Program_Health__c",
	"active": "SELECT Name, Id, Account__r.Name, Implementation_Stage__c, Percent_Complete__c, " +
		"Program_Health__c, Stale_Days__c " +
		"FROM Implementation__c " +
		"WHERE Implementation_Stage__c NOT IN ('05 - Complete', '06 - Passive', '08 - Unsuccessful') " +
		"ORDER BY Implementation_Stage__c",
	"bandwidth": "SELECT Name, Id, Contracted_Hours__c, Actual_Hours_Spent__c, Contracted_Hours_Remaining__c " +
		"FROM Implementation__c " +
		"WHERE Implementation_Stage__c IN ('01 - Explore', '02 - Planning', '03 - In Progress') " +
		"ORDER BY Contracted_Hours_Remaining__c ASC",
	"stale": "SELECT Name, Id, Stale_Days__c, Next_Step_Date__c, Implementation_Stage__c, Account__r.Name " +
		"FROM Implementation__c " +
		"WHERE Stale_Days__c > 14 " +
		"ORDER BY Stale_Days__c DESC",
	"by_stage": "SELECT Implementation_Stage__c, COUNT(Id) total " +
		"FROM Implementation__c " +
		"GROUP BY Implementation_Stage__c " +
		"ORDER BY Implementation_Stage__c",
}

// QueryTypes lists the valid query types, sorted, with "custom" last.
func QueryTypes() []string {
	types := make([]string, 0, len(presetQueries)+1)
	for t := range presetQueries {
		types = append(types, t)
	}
	sort.Strings(types)
	return append(types, "custom")
}

// Query runs a preset or custom report query. Custom queries must be SELECT
// statements.
func (s *Service) Query(ctx context.Context, queryType, customSOQL string) (*salesforce.QueryResult, error) {
	var soql string
	switch {
	case queryType == "custom":
		customSOQL = strings.TrimSpace(customSOQL)
		if customSOQL == "" {
			return nil, &ValidationError{Problems: []FieldProblem{
				{Field: "custom_soql", Message: "required when query_type is \"custom\""},
			}}
		}
		if !strings.HasPrefix(strings.ToUpper(customSOQL), "SELECT") {
			return nil, &ValidationError{Problems: []FieldProblem{
				{Field: "custom_soql", Message: "only SELECT queries are allowed"},
			}}
		}
		soql = customSOQL
	default:
		preset, ok := presetQueries[queryType]
		if !ok {
			return nil, &UnknownQueryError{QueryType: queryType, Valid: QueryTypes()}
		}
		soql = preset
	}

	return s.sf.Query(ctx, soql)
}

// ResolveRef turns a record reference into a record ID. A value shaped like
// a Salesforce ID passes through; anything else is a Name lookup. A name
// matching more than one record is ambiguous rather than silently picking
// one.
func (s *Service) ResolveRef(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if salesforce.IsRecordID(ref, IDPrefix) {
		return ref, nil
	}

	soql := fmt.Sprintf(
		"SELECT Id FROM Implementation__c WHERE Name = '%s' LIMIT 2",
		salesforce.EscapeSOQL(ref),
	)
	result, err := s.sf.Query(ctx, soql)
	if err != nil {
		return "", err
	}
	switch len(result.Records) {
	case 0:
		return "", &salesforce.NotFoundError{Object: SObject, Ref: ref}
	case 1:
		id, _ := result.Records[0]["Id"].(string)
		return id, nil
	default:
		return "", &AmbiguousNameError{Name: ref}
	}
}
