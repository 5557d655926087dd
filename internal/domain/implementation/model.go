// Package implementation holds the Implementation__c field model and the
// gateway operations against it: create, update, query, and get.
package implementation

const (
	// SObject is the custom object this package manages.
	SObject = "Implementation__c"

	// IDPrefix is the Salesforce key prefix for Implementation__c IDs.
	IDPrefix = "a0"

	// MultiValueSeparator joins multi-select picklist values on the wire.
	MultiValueSeparator = ";"
)

// ValidStages are the Implementation_Stage__c picklist values, in program
// order.
var ValidStages = []string{
	"00 - Kick Off Call",
	"01 - Explore",
	"02 - Planning",
	"03 - In Progress",
	"04 - Final Review",
	"05 - Complete",
	"06 - Passive",
	"07 - Paused",
	"08 - Unsuccessful",
}

// ValidProgramHealth are the Program_Health__c picklist values.
var ValidProgramHealth = []string{
	"Healthy", "Passive", "Paused", "Unresponsive", "Risk", "Churn", "High Risk",
}

// ValidContractTypes are the Contract_Type__c picklist values.
var ValidContractTypes = []string{"Annual", "Free Trial", "Pay as you go"}

// ValidTypes are the Type__c picklist values.
var ValidTypes = []string{"Join", "Pure Migration", "Join - Lite", "Join - Quickstart", "Other"}

// ValidMigrationTypes are the Migration_Type__c picklist values.
var ValidMigrationTypes = []string{
	"Customer Tooling", "Dual-write and backfill", "Parallel Copy",
	"pg_dump and pg_restore", "NA", "TS Tooling", "Live Migration",
}

// ValidFeatures are the Features__c multi-select picklist values.
var ValidFeatures = []string{
	"Read Replicas", "HA Replicas", "Data Tiering", "Caggs",
	"Compression", "Migration", "Vector", "Hypertables",
}

// picklistFields maps single-select picklist fields to their valid values.
var picklistFields = map[string][]string{
	"Implementation_Stage__c": ValidStages,
	"Program_Health__c":       ValidProgramHealth,
	"Contract_Type__c":        ValidContractTypes,
	"Type__c":                 ValidTypes,
	"Migration_Type__c":       ValidMigrationTypes,
}

// multiPicklistFields maps multi-select picklist fields to their valid
// member values.
var multiPicklistFields = map[string][]string{
	"Features__c": ValidFeatures,
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindDouble
	kindBoolean
	kindDate
)

// updatableFields lists every field the update operation accepts, with the
// value kind each expects.
var updatableFields = map[string]fieldKind{
	"Implementation_Stage__c": kindString,
	"Program_Health__c":       kindString,
	"Type__c":                 kindString,
	"Contract_Type__c":        kindString,
	"Migration_Type__c":       kindString,
	"Features__c":             kindString,
	"Risks__c":                kindString,
	"Comments__c":             kindString,
	"Post_Mortem__c":          kindString,
	"Migration_Source__c":     kindString,
	"Support_Tier__c":         kindString,
	"Grafana__c":              kindString,
	"Project_Doc__c":          kindString,
	"CDE__c":                  kindString,
	"CSM__c":                  kindString,
	"Contract__c":             kindString,
	"Billing_Category__c":     kindString,

	"In_Production__c": kindBoolean,
	"Technical_Win__c": kindBoolean,

	"Contracted_Hours__c":                    kindDouble,
	"Percent_Complete__c":                    kindDouble,
	"Adjustment_Days__c":                     kindDouble,
	"ARR_Start_of_Program__c":                kindDouble,
	"ARR_End_of_Program__c":                  kindDouble,
	"Hypertables_Start_of_Program__c":        kindDouble,
	"Hypertables_End_of_Program__c":          kindDouble,
	"Caggs_Start_of_Program__c":              kindDouble,
	"Caggs_End_of_Program__c":                kindDouble,
	"Compression_Ratio_Start_of_Program__c":  kindDouble,
	"Compression_Ratio_End_of_Program__c":    kindDouble,
	"DUM_Start_of_Program__c":                kindDouble,
	"DUM_End_of_Program__c":                  kindDouble,
	"Number_of_Services_Start_of_Program__c": kindDouble,
	"Number_of_Services_End_of_Program__c":   kindDouble,
	"Tiered_Data_Start_of_Program__c":        kindDouble,
	"Tiered_Data_End_of_Program__c":          kindDouble,

	"Customer_Start_Date__c":       kindDate,
	"Kick_Off_Call__c":             kindDate,
	"Estimated_Graduation_Date__c": kindDate,
	"Production_Date__c":           kindDate,
	"Final_Review_Call__c":         kindDate,
	"Next_Step_Date__c":            kindDate,
	"X3_Month_Check_In__c":         kindDate,
}

// computedFields are formula or rollup fields maintained by Salesforce.
// They are stripped from updates rather than rejected.
var computedFields = map[string]struct{}{
	"Actual_Hours_Spent__c":         {},
	"Contracted_Hours_Remaining__c": {},
	"Days_In_Program__c":            {},
	"Join_Days__c":                  {},
	"Contracted_Days_Remaining__c":  {},
	"Stale_Days__c":                 {},
	"Implementation_Create_Date__c": {},
	"Program_Start_Date__c":         {},
	"Calculated_Graduation_Date__c": {},
	"Potential_ARR__c":              {},
	"Projected_Amount__c":           {},
}

// detailFields is the full field list fetched by the get operation.
var detailFields = []string{
	"Id", "Name", "Implementation_Stage__c", "Program_Health__c",
	"Type__c", "Contract_Type__c", "Percent_Complete__c", "In_Production__c",
	"Account__c", "Opportunity__c", "CDE__c", "CSM__c", "SA__c",
	"Contracted_Hours__c", "Actual_Hours_Spent__c", "Contracted_Hours_Remaining__c",
	"Days_In_Program__c", "Join_Days__c", "Contracted_Days_Remaining__c",
	"Stale_Days__c", "Features__c", "Migration_Type__c",
	"Risks__c", "Comments__c", "Post_Mortem__c", "Technical_Win__c",
	"Customer_Start_Date__c", "Implementation_Create_Date__c",
	"Kick_Off_Call__c", "Program_Start_Date__c",
	"Estimated_Graduation_Date__c", "Calculated_Graduation_Date__c",
	"Production_Date__c", "Final_Review_Call__c", "Next_Step_Date__c",
	"Potential_ARR__c", "Projected_Amount__c", "Contract__c",
	"ARR_Start_of_Program__c", "ARR_End_of_Program__c",
	"Grafana__c", "Project_Doc__c", "Migration_Source__c", "Support_Tier__c",
}
