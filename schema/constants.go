package schema

// Custom string types for type safety.
type (
	// Severity represents how serious a finding is.
	Severity string

	// Flag represents the kind of rule breach a finding reports.
	Flag string

	// Status represents the coarse compliance tier of a score.
	Status string

	// RiskCategory represents the risk tier of a subject's violations.
	RiskCategory string

	// RiskPolicy selects how violations are reduced to a risk category.
	RiskPolicy string

	// Priority represents the urgency of a work order.
	Priority string

	// Department represents the team a work order is routed to.
	Department string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for storage.
	DatabaseBackend string

	// LLMProvider represents the language model service used for analysis.
	LLMProvider string

	// PayloadKind tags which producer a result payload came from.
	PayloadKind string
)

// All finding severities.
const (
	MinorSeverity    Severity = "Minor"
	ModerateSeverity Severity = "Moderate"
	SevereSeverity   Severity = "Severe"
)

// Fixed finding flags. Expected-value flags are built with ExpectedFlag.
const (
	NonCompliantFlag Flag = "Non-Compliant"
	AboveLimitFlag   Flag = "Above Limit"
	BelowLimitFlag   Flag = "Below Limit"
)

// MissingValue is the finding value reported for absent required fields.
const MissingValue = "Missing"

// All compliance statuses.
const (
	CompliantStatus Status = "compliant"
	ReviewStatus    Status = "review"
	CriticalStatus  Status = "critical"
)

// All risk categories across both policies.
const (
	GoodStanding RiskCategory = "Good Standing"
	WarningRisk  RiskCategory = "Warning"
	ModerateRisk RiskCategory = "Moderate Risk"
	MediumRisk   RiskCategory = "Medium Risk"
	HighRisk     RiskCategory = "High Risk"
)

// All risk policies supported.
const (
	AveragePolicy    RiskPolicy = "average" // default
	CumulativePolicy RiskPolicy = "cumulative"
)

// All work order priorities.
const (
	HighPriority   Priority = "High"
	MediumPriority Priority = "Medium"
	LowPriority    Priority = "Low"
)

// All work order departments.
const (
	MaintenanceDept Department = "Maintenance"
	EHSDept         Department = "EHS"
	ComplianceDept  Department = "Compliance"
	GeneralDept     Department = "General"
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // cache only
	NoneBackend       DatabaseBackend = "none"
)

// All LLM providers supported.
const (
	GatewayProvider LLMProvider = "gateway"
	GeminiProvider  LLMProvider = "gemini"
	NoProvider      LLMProvider = "none" // default
)

// All payload kinds.
const (
	AuditPayload       PayloadKind = "audit"
	RiskPayload        PayloadKind = "risk"
	LLMFindingsPayload PayloadKind = "llm_findings"
	LLMIssuePayload    PayloadKind = "llm_issue"
)

// SeverityWeight maps each severity to its risk points.
var SeverityWeight = map[Severity]int{
	MinorSeverity:    1,
	ModerateSeverity: 3,
	SevereSeverity:   5,
}

// MaxSeverityWeight is the largest weight a single check can contribute.
const MaxSeverityWeight = 5

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidAuditBackends lists all valid audit history backends.
var ValidAuditBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidRiskPolicies lists all valid risk policies.
var ValidRiskPolicies = map[RiskPolicy]struct{}{
	AveragePolicy:    {},
	CumulativePolicy: {},
}

// ValidLLMProviders lists all valid LLM providers.
var ValidLLMProviders = map[LLMProvider]struct{}{
	GatewayProvider: {},
	GeminiProvider:  {},
	NoProvider:      {},
}

// ValidWebhookCategories lists the notification categories a webhook can be keyed by.
var ValidWebhookCategories = map[string]struct{}{
	"compliance": {},
	"facility":   {},
	"employee":   {},
}

// ExpectedFlag builds the flag for a value that differs from the expected one.
func ExpectedFlag(expected string) Flag {
	return Flag("Expected: " + expected)
}
