package contract

import (
	"testing"
	"time"

	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input matching the CLI defaults.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Workers:      4,
		Precision:    1,
		Output:       "text",
		Emoji:        "no",
		Color:        "yes",
		CacheBackend: "sqlite",
		MinScore:     DefaultMinScore,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{"valid minimal config", func(*ConfigRawInput) {}, false},
		{"invalid workers (zero)", func(in *ConfigRawInput) { in.Workers = 0 }, true},
		{"invalid precision (too high)", func(in *ConfigRawInput) { in.Precision = 3 }, true},
		{"invalid output format", func(in *ConfigRawInput) { in.Output = "xml" }, true},
		{"invalid color", func(in *ConfigRawInput) { in.Color = "maybe" }, true},
		{"invalid min score", func(in *ConfigRawInput) { in.MinScore = 101 }, true},
		{"invalid risk policy", func(in *ConfigRawInput) { in.RiskPolicy = "median" }, true},
		{"cumulative risk policy", func(in *ConfigRawInput) { in.RiskPolicy = "Cumulative" }, false},
		{"negative salary", func(in *ConfigRawInput) { in.Salary = -1 }, true},
		{"invalid subject date", func(in *ConfigRawInput) { in.SubjectDate = "yesterday" }, true},
		{"invalid cache backend", func(in *ConfigRawInput) { in.CacheBackend = "mongo" }, true},
		{"redis cache without url", func(in *ConfigRawInput) { in.CacheBackend = "redis" }, true},
		{"redis cache with url", func(in *ConfigRawInput) {
			in.CacheBackend = "redis"
			in.CacheDBConnect = "redis://localhost:6379/0"
		}, false},
		{"redis is not an audit backend", func(in *ConfigRawInput) {
			in.AuditBackend = "redis"
			in.AuditDBConnect = "redis://localhost:6379/0"
		}, true},
		{"sqlite cache and audit share file", func(in *ConfigRawInput) {
			in.AuditBackend = "sqlite"
			in.CacheDBConnect = "/tmp/same.db"
			in.AuditDBConnect = "/tmp/same.db"
		}, true},
		{"sqlite cache and audit default paths", func(in *ConfigRawInput) { in.AuditBackend = "sqlite" }, false},
		{"invalid llm provider", func(in *ConfigRawInput) { in.LLMProvider = "other" }, true},
		{"llm provider without key", func(in *ConfigRawInput) { in.LLMProvider = "gateway" }, true},
		{"ai without provider", func(in *ConfigRawInput) { in.AI = true }, true},
		{"invalid llm timeout", func(in *ConfigRawInput) {
			in.LLMProvider = "gemini"
			in.LLMAPIKey = "k"
			in.LLMTimeout = "soon"
		}, true},
		{"invalid webhook category", func(in *ConfigRawInput) {
			in.Webhooks = map[string]string{"billing": "https://hooks.example.com/x"}
		}, true},
		{"invalid webhook url", func(in *ConfigRawInput) {
			in.Webhooks = map[string]string{"employee": "ftp://hooks.example.com/x"}
		}, true},
		{"invalid report url", func(in *ConfigRawInput) { in.ReportURL = "not a url" }, true},
		{"too many retries", func(in *ConfigRawInput) { in.WebhookRetries = 50 }, true},
		{"kafka brokers without topic", func(in *ConfigRawInput) { in.KafkaBrokers = "localhost:9092" }, true},
		{"invalid catalog url", func(in *ConfigRawInput) { in.CatalogURL = "docs/sheet" }, true},
		{"invalid catalog ttl", func(in *ConfigRawInput) { in.CatalogTTL = "-5m" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, schema.AveragePolicy, cfg.RiskPolicy)
	assert.Equal(t, schema.NoProvider, cfg.LLMProvider)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, DefaultCatalogTTL, cfg.CatalogTTL)
	assert.Equal(t, DefaultLLMTimeout, cfg.LLMTimeout)
	assert.InDelta(t, DefaultWebhookRPS, cfg.WebhookRPS, 0)
	assert.True(t, cfg.UseColors)
	assert.False(t, cfg.UseEmojis)
	assert.Empty(t, cfg.Webhooks)
	assert.False(t, cfg.Subject.Date.IsZero())
}

func TestProcessAndValidateFull(t *testing.T) {
	input := validInput()
	input.SystemType = " Boiler "
	input.Exclude = "archive/, *.bak ,"
	input.LLMProvider = "gateway"
	input.LLMAPIKey = "secret"
	input.Salary = 80000
	input.Name = "Dana Whitfield"
	input.SubjectDate = "2024-03-15"
	input.Webhooks = map[string]string{"Employee": "https://hooks.example.com/emp"}
	input.KafkaBrokers = "k1:9092, k2:9092"
	input.KafkaTopic = "audits"
	input.CatalogTTL = "30m"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, "boiler", cfg.SystemType)
	assert.Equal(t, []string{"archive/", "*.bak"}, cfg.Excludes)
	assert.Equal(t, DefaultGatewayModel, cfg.LLMModel)
	assert.Equal(t, DefaultGatewayURL, cfg.LLMEndpoint)
	assert.InDelta(t, 80000.0, cfg.Subject.Salary, 0)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), cfg.Subject.Date)
	assert.Equal(t, "https://hooks.example.com/emp", cfg.Webhooks["employee"])
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.CatalogTTL)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/auditor", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/auditor", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=auditor", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"redis valid", schema.RedisBackend, "redis://localhost:6379/0", false},
		{"redis tls", schema.RedisBackend, "rediss://cache:6380", false},
		{"redis bad scheme", schema.RedisBackend, "localhost:6379", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	orig := &Config{
		Excludes:     []string{"a"},
		Images:       []string{"img.png"},
		KafkaBrokers: []string{"k:9092"},
		Webhooks:     map[string]string{"employee": "https://x"},
		MinScore:     70,
	}
	clone := orig.Clone()

	clone.Excludes[0] = "b"
	clone.Images[0] = "other.png"
	clone.Webhooks["employee"] = "https://y"
	clone.MinScore = 10

	assert.Equal(t, "a", orig.Excludes[0])
	assert.Equal(t, "img.png", orig.Images[0])
	assert.Equal(t, "https://x", orig.Webhooks["employee"])
	assert.Equal(t, 70, orig.MinScore)
}
