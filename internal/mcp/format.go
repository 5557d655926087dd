package mcp

import (
	"fmt"
	"strings"

	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
)

// fieldLabels maps record API names to display labels, in display order.
var fieldLabels = []struct {
	API   string
	Label string
}{
	{"Implementation_Stage__c", "Stage"},
	{"Program_Health__c", "Health"},
	{"Type__c", "Type"},
	{"Contract_Type__c", "Contract"},
	{"Percent_Complete__c", "% Complete"},
	{"In_Production__c", "In Production"},
	{"Contracted_Hours__c", "Contracted Hours"},
	{"Actual_Hours_Spent__c", "Hours Spent"},
	{"Contracted_Hours_Remaining__c", "Hours Remaining"},
	{"Days_In_Program__c", "Days In Program"},
	{"Stale_Days__c", "Stale Days"},
	{"Features__c", "Features"},
	{"Migration_Type__c", "Migration Type"},
	{"Risks__c", "Risks"},
	{"Comments__c", "Comments"},
	{"Next_Step_Date__c", "Next Step Date"},
	{"Estimated_Graduation_Date__c", "Graduation Date"},
	{"Production_Date__c", "Production Date"},
	{"Potential_ARR__c", "Potential ARR"},
	{"Projected_Amount__c", "Projected Amount"},
	{"Grafana__c", "Grafana"},
	{"Project_Doc__c", "Exec Summary"},
}

// formatImplementation renders one record as a readable summary, skipping
// empty fields.
func formatImplementation(rec salesforce.Record) string {
	var lines []string
	name, _ := rec["Name"].(string)
	if name == "" {
		name = "Unknown"
	}
	id, ok := rec["Id"].(string)
	if !ok {
		id = "N/A"
	}
	lines = append(lines, fmt.Sprintf("**%s** (ID: %s)", name, id))

	for _, fl := range fieldLabels {
		val, ok := rec[fl.API]
		if !ok || val == nil || val == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %v", fl.Label, val))
	}

	if account, ok := rec["Account__r"].(map[string]any); ok {
		lines = append(lines, fmt.Sprintf("  Account: %v", relName(account)))
	}
	if opp, ok := rec["Opportunity__r"].(map[string]any); ok {
		lines = append(lines, fmt.Sprintf("  Opportunity: %v", relName(opp)))
	}

	return strings.Join(lines, "\n")
}

func relName(rel map[string]any) string {
	if n, ok := rel["Name"].(string); ok && n != "" {
		return n
	}
	return "N/A"
}

// formatQueryResult renders a query result set. Aggregate by_stage results
// are rendered as stage counts; everything else as record summaries.
func formatQueryResult(queryType string, result *salesforce.QueryResult) string {
	if result.TotalSize == 0 || len(result.Records) == 0 {
		return fmt.Sprintf("No results found for query type %q.", queryType)
	}

	if queryType == "by_stage" {
		lines := []string{fmt.Sprintf("Implementations by stage (%d groups):", result.TotalSize)}
		for _, rec := range result.Records {
			stage := "Unknown"
			if s, ok := rec["Implementation_Stage__c"].(string); ok && s != "" {
				stage = s
			}
			count := rec["total"]
			if count == nil {
				count = 0
			}
			lines = append(lines, fmt.Sprintf("  %s: %v", stage, count))
		}
		return strings.Join(lines, "\n")
	}

	lines := []string{fmt.Sprintf("Found %d record(s):", result.TotalSize)}
	for _, rec := range result.Records {
		delete(rec, "attributes")
		lines = append(lines, "", formatImplementation(rec))
	}
	return strings.Join(lines, "\n")
}
