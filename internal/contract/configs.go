package contract

import (
	"fmt"
	"maps"
	"net/url"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/auditor/core/engine"
	"github.com/huangsam/auditor/schema"
)

// Default values for configuration.
const (
	DefaultPrecision      = 1
	DefaultMinScore       = engine.ReviewThreshold
	DefaultCatalogTTL     = 24 * time.Hour
	DefaultLLMTimeout     = 60 * time.Second
	DefaultWebhookRPS     = 5.0
	DefaultWebhookRetries = 3
	MaxWebhookRetries     = 10
	DefaultGatewayURL     = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultGatewayModel   = "google/gemini-2.5-flash"
	DefaultGeminiModel    = "gemini-1.5-flash"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateFormat is the accepted short form for subject dates.
const DateFormat = time.DateOnly

// DateTimeFormat is used when printing store timestamps.
const DateTimeFormat = time.DateTime

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for auditor.
// This struct remains the "final, validated" config.
type Config struct {
	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	Excludes   []string
	Inputs     []string // Positional file arguments, set by the command

	SystemType string
	RulesFile  string
	Rules      engine.RuleTable
	MinScore   int

	RiskPolicy schema.RiskPolicy
	Subject    schema.Subject

	Facility string
	Auditor  string

	LLMProvider schema.LLMProvider
	LLMModel    string
	LLMEndpoint string
	LLMAPIKey   string // Please use env var as this is plaintext
	LLMTimeout  time.Duration
	UseAI       bool
	Images      []string

	IssueDescription string
	IssueLocation    string
	IssueDepartment  string

	Publish        bool
	ReportURL      string
	Webhooks       map[string]string
	WebhookGzip    bool
	WebhookRPS     float64
	WebhookRetries int
	KafkaBrokers   []string
	KafkaTopic     string

	CatalogURL string
	CatalogTTL time.Duration

	MetricsFile string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AuditBackend   schema.DatabaseBackend
	AuditDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Workers        int    `mapstructure:"workers"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	Exclude        string `mapstructure:"exclude"`
	RulesFile      string `mapstructure:"rules-file"`
	Facility       string `mapstructure:"facility"`
	Auditor        string `mapstructure:"auditor"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	AuditBackend   string `mapstructure:"audit-backend"`
	AuditDBConnect string `mapstructure:"audit-db-connect"`
	MetricsFile    string `mapstructure:"metrics-file"`
	Emoji          string `mapstructure:"emoji"`
	Color          string `mapstructure:"color"`

	// --- LLM settings ---
	LLMProvider string `mapstructure:"llm-provider"`
	LLMModel    string `mapstructure:"llm-model"`
	LLMEndpoint string `mapstructure:"llm-endpoint"`
	LLMAPIKey   string `mapstructure:"llm-api-key"`
	LLMTimeout  string `mapstructure:"llm-timeout"`

	// --- Sink settings ---
	Publish        bool              `mapstructure:"publish"`
	ReportURL      string            `mapstructure:"report-url"`
	WebhookGzip    bool              `mapstructure:"webhook-gzip"`
	WebhookRPS     float64           `mapstructure:"webhook-rps"`
	WebhookRetries int               `mapstructure:"webhook-retries"`
	KafkaBrokers   string            `mapstructure:"kafka-brokers"`
	KafkaTopic     string            `mapstructure:"kafka-topic"`
	Webhooks       map[string]string `mapstructure:"webhooks"`

	// --- Catalog settings ---
	CatalogURL string `mapstructure:"catalog-url"`
	CatalogTTL string `mapstructure:"catalog-ttl"`

	// --- Fields from auditCmd.Flags() and checkCmd.Flags() ---
	SystemType string   `mapstructure:"system-type"`
	AI         bool     `mapstructure:"ai"`
	Images     []string `mapstructure:"image"`
	MinScore   int      `mapstructure:"min-score"`

	// --- Fields from riskCmd.Flags() ---
	RiskPolicy  string  `mapstructure:"risk-policy"`
	Salary      float64 `mapstructure:"salary"`
	EmployeeID  string  `mapstructure:"employee-id"`
	Name        string  `mapstructure:"name"`
	Department  string  `mapstructure:"department"`
	Supervisor  string  `mapstructure:"supervisor"`
	Shift       string  `mapstructure:"shift"`
	SubjectDate string  `mapstructure:"date"`

	// --- Fields from issueCmd.Flags() ---
	Description string `mapstructure:"description"`
	Location    string `mapstructure:"location"`
	IssueDept   string `mapstructure:"issue-department"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Excludes = slices.Clone(c.Excludes)
	clone.Inputs = slices.Clone(c.Inputs)
	clone.Images = slices.Clone(c.Images)
	clone.KafkaBrokers = slices.Clone(c.KafkaBrokers)
	if c.Webhooks != nil {
		clone.Webhooks = make(map[string]string, len(c.Webhooks))
		maps.Copy(clone.Webhooks, c.Webhooks)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processSubject(cfg, input); err != nil {
		return err
	}
	if err := processLLM(cfg, input); err != nil {
		return err
	}
	if err := processSinks(cfg, input); err != nil {
		return err
	}
	return processCatalog(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must start with 'redis://' or 'rediss://'")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and audit backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	// --- Audit Backend Validation ---
	cfg.AuditBackend = schema.DatabaseBackend(strings.ToLower(input.AuditBackend))
	if cfg.AuditBackend == "" {
		return nil
	}
	if _, ok := schema.ValidAuditBackends[cfg.AuditBackend]; !ok {
		return fmt.Errorf("invalid audit backend '%s'. must be sqlite, mysql, postgresql, none", input.AuditBackend)
	}
	cfg.AuditDBConnect = input.AuditDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AuditBackend, cfg.AuditDBConnect); err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	// Cache and audit history must not share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AuditBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		auditDBPath := cfg.AuditDBConnect
		if auditDBPath == "" {
			auditDBPath = GetAuditDBFilePath()
		}
		if cacheDBPath == auditDBPath {
			return fmt.Errorf("cache and audit storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the general output and engine fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.RulesFile = strings.TrimSpace(input.RulesFile)
	cfg.SystemType = strings.ToLower(strings.TrimSpace(input.SystemType))
	cfg.Facility = input.Facility
	cfg.Auditor = input.Auditor
	cfg.MetricsFile = input.MetricsFile
	cfg.UseAI = input.AI
	cfg.Images = slices.Clone(input.Images)
	cfg.IssueDescription = strings.TrimSpace(input.Description)
	cfg.IssueLocation = input.Location
	cfg.IssueDepartment = input.IssueDept

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	// --- 3. Score gate ---
	if input.MinScore < 0 || input.MinScore > 100 {
		return fmt.Errorf("min-score must be between 0 and 100 (received %d)", input.MinScore)
	}
	cfg.MinScore = input.MinScore

	// --- 4. Risk policy ---
	policy := strings.ToLower(strings.TrimSpace(input.RiskPolicy))
	if policy == "" {
		policy = string(schema.AveragePolicy)
	}
	cfg.RiskPolicy = schema.RiskPolicy(policy)
	if _, ok := schema.ValidRiskPolicies[cfg.RiskPolicy]; !ok {
		return fmt.Errorf("invalid risk policy '%s'. must be average, cumulative", input.RiskPolicy)
	}

	// --- 5. Excludes ---
	cfg.Excludes = nil
	for p := range strings.SplitSeq(input.Exclude, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cfg.Excludes = append(cfg.Excludes, trimmed)
		}
	}
	return nil
}

// processSubject fills the subject of a risk assessment.
func processSubject(cfg *Config, input *ConfigRawInput) error {
	if input.Salary < 0 {
		return fmt.Errorf("salary cannot be negative (received %.2f)", input.Salary)
	}
	date := time.Now()
	if input.SubjectDate != "" {
		t, err := ParseDate(input.SubjectDate)
		if err != nil {
			return fmt.Errorf("invalid --date value: %w", err)
		}
		date = t
	}
	cfg.Subject = schema.Subject{
		EmployeeID: input.EmployeeID,
		Name:       input.Name,
		Department: input.Department,
		Salary:     input.Salary,
		Supervisor: input.Supervisor,
		Facility:   input.Facility,
		Date:       date,
		Shift:      input.Shift,
	}
	return nil
}

// processLLM validates the provider and fills model defaults.
func processLLM(cfg *Config, input *ConfigRawInput) error {
	provider := strings.ToLower(strings.TrimSpace(input.LLMProvider))
	if provider == "" {
		provider = string(schema.NoProvider)
	}
	cfg.LLMProvider = schema.LLMProvider(provider)
	if _, ok := schema.ValidLLMProviders[cfg.LLMProvider]; !ok {
		return fmt.Errorf("invalid llm provider '%s'. must be gateway, gemini, none", input.LLMProvider)
	}
	cfg.LLMAPIKey = input.LLMAPIKey
	cfg.LLMModel = input.LLMModel
	cfg.LLMEndpoint = input.LLMEndpoint

	cfg.LLMTimeout = DefaultLLMTimeout
	if input.LLMTimeout != "" {
		d, err := time.ParseDuration(input.LLMTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid --llm-timeout value '%s'", input.LLMTimeout)
		}
		cfg.LLMTimeout = d
	}

	switch cfg.LLMProvider {
	case schema.GatewayProvider:
		if cfg.LLMModel == "" {
			cfg.LLMModel = DefaultGatewayModel
		}
		if cfg.LLMEndpoint == "" {
			cfg.LLMEndpoint = DefaultGatewayURL
		}
		if err := validateURL("llm-endpoint", cfg.LLMEndpoint); err != nil {
			return err
		}
	case schema.GeminiProvider:
		if cfg.LLMModel == "" {
			cfg.LLMModel = DefaultGeminiModel
		}
	}

	if cfg.LLMProvider != schema.NoProvider && cfg.LLMAPIKey == "" {
		return fmt.Errorf("llm-api-key is required when using %s provider", cfg.LLMProvider)
	}
	if cfg.UseAI && cfg.LLMProvider == schema.NoProvider {
		return fmt.Errorf("--ai requires an llm provider (gateway or gemini)")
	}
	return nil
}

// processSinks validates report, webhook and Kafka settings.
func processSinks(cfg *Config, input *ConfigRawInput) error {
	cfg.Publish = input.Publish
	cfg.WebhookGzip = input.WebhookGzip
	cfg.ReportURL = strings.TrimSpace(input.ReportURL)
	if cfg.ReportURL != "" {
		if err := validateURL("report-url", cfg.ReportURL); err != nil {
			return err
		}
	}

	cfg.Webhooks = make(map[string]string, len(input.Webhooks))
	for category, target := range input.Webhooks {
		key := strings.ToLower(strings.TrimSpace(category))
		if _, ok := schema.ValidWebhookCategories[key]; !ok {
			return fmt.Errorf("invalid webhook category '%s'. must be compliance, facility, employee", category)
		}
		if err := validateURL("webhook "+key, target); err != nil {
			return err
		}
		cfg.Webhooks[key] = target
	}

	cfg.WebhookRPS = input.WebhookRPS
	if cfg.WebhookRPS <= 0 {
		cfg.WebhookRPS = DefaultWebhookRPS
	}
	if input.WebhookRetries < 0 || input.WebhookRetries > MaxWebhookRetries {
		return fmt.Errorf("webhook-retries must be between 0 and %d (received %d)", MaxWebhookRetries, input.WebhookRetries)
	}
	cfg.WebhookRetries = input.WebhookRetries

	cfg.KafkaBrokers = nil
	for b := range strings.SplitSeq(input.KafkaBrokers, ",") {
		if trimmed := strings.TrimSpace(b); trimmed != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, trimmed)
		}
	}
	cfg.KafkaTopic = strings.TrimSpace(input.KafkaTopic)
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return fmt.Errorf("kafka-topic is required when kafka-brokers is set")
	}
	return nil
}

// processCatalog validates the violation-type catalog source.
func processCatalog(cfg *Config, input *ConfigRawInput) error {
	cfg.CatalogURL = strings.TrimSpace(input.CatalogURL)
	if cfg.CatalogURL != "" {
		if err := validateURL("catalog-url", cfg.CatalogURL); err != nil {
			return err
		}
	}
	cfg.CatalogTTL = DefaultCatalogTTL
	if input.CatalogTTL != "" {
		d, err := time.ParseDuration(input.CatalogTTL)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid --catalog-ttl value '%s'", input.CatalogTTL)
		}
		cfg.CatalogTTL = d
	}
	return nil
}

// ProcessProfilingConfig enables profiling when a file prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL (received %q)", name, raw)
	}
	return nil
}

// ParseDate parses an RFC3339 timestamp or a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(DateFormat, s)
}
