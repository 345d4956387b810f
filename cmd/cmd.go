// Package cmd defines the command-line interface for auditor.
package cmd

import (
	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(riskCmd)
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyProfileCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("system-type", "", "System type for every input, overriding the one in the file")
	rootCmd.PersistentFlags().String("rules-file", "", "Path to a YAML or JSON rule table replacing the built-in rules")
	rootCmd.PersistentFlags().String("facility", "", "Facility name attached to reports and issues")
	rootCmd.PersistentFlags().String("auditor", "", "Auditor name attached to reports")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Connection string for mysql/postgresql/redis (e.g., redis://localhost:6379/0)")
	rootCmd.PersistentFlags().String("audit-backend", "", "Audit history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("audit-db-connect", "", "Connection string for audit history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics in textfile format to this path")
	rootCmd.PersistentFlags().String("llm-provider", string(schema.NoProvider), "Language model provider: gateway or gemini or none")
	rootCmd.PersistentFlags().String("llm-model", "", "Language model name (provider default when empty)")
	rootCmd.PersistentFlags().String("llm-endpoint", "", "Chat completions endpoint for the gateway provider")
	rootCmd.PersistentFlags().String("llm-api-key", "", "Language model API key (prefer AUDITOR_LLM_API_KEY)")
	rootCmd.PersistentFlags().String("llm-timeout", "", "Timeout for one language model request (e.g., 45s)")
	rootCmd.PersistentFlags().Bool("publish", false, "Publish results to the configured report URL, webhooks and Kafka topic")
	rootCmd.PersistentFlags().String("report-url", "", "Endpoint receiving compliance report payloads")
	rootCmd.PersistentFlags().StringToString("webhooks", nil, "Webhook URL per category (compliance=URL,facility=URL,employee=URL)")
	rootCmd.PersistentFlags().Bool("webhook-gzip", false, "Gzip webhook request bodies")
	rootCmd.PersistentFlags().Float64("webhook-rps", contract.DefaultWebhookRPS, "Maximum webhook requests per second")
	rootCmd.PersistentFlags().Int("webhook-retries", contract.DefaultWebhookRetries, "Retries for a failed webhook delivery")
	rootCmd.PersistentFlags().String("kafka-brokers", "", "Comma-separated Kafka brokers for the event bus")
	rootCmd.PersistentFlags().String("kafka-topic", "", "Kafka topic receiving every published payload")
	rootCmd.PersistentFlags().String("catalog-url", "", "CSV export URL of the violation-type table")
	rootCmd.PersistentFlags().String("catalog-ttl", contract.DefaultCatalogTTL.String(), "How long a fetched violation-type table stays fresh")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in output headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of auditCmd to Viper
	auditCmd.Flags().Bool("ai", false, "Ask the language model for an advisory analysis of the findings")
	auditCmd.Flags().StringSlice("image", nil, "Inspection photo passed to the language model (repeatable)")
	if err := viper.BindPFlags(auditCmd.Flags()); err != nil {
		contract.LogFatal("Error binding audit flags", err)
	}

	// Bind all flags of checkCmd to Viper
	checkCmd.Flags().Int("min-score", contract.DefaultMinScore, "Minimum compliance score every source must reach")
	if err := viper.BindPFlags(checkCmd.Flags()); err != nil {
		contract.LogFatal("Error binding check flags", err)
	}

	// Bind all flags of riskCmd to Viper
	riskCmd.Flags().String("risk-policy", string(schema.AveragePolicy), "Risk policy: average or cumulative")
	riskCmd.Flags().Float64("salary", 0, "Annual salary used for the risk cost impact")
	riskCmd.Flags().String("employee-id", "", "Employee identifier")
	riskCmd.Flags().String("name", "", "Employee name")
	riskCmd.Flags().String("department", "", "Employee department")
	riskCmd.Flags().String("supervisor", "", "Employee supervisor")
	riskCmd.Flags().String("shift", "", "Shift the violations happened on")
	riskCmd.Flags().String("date", "", "Date of the violations (YYYY-MM-DD or RFC3339)")
	if err := viper.BindPFlags(riskCmd.Flags()); err != nil {
		contract.LogFatal("Error binding risk flags", err)
	}

	// Bind all flags of issueCmd to Viper
	issueCmd.Flags().String("description", "", "Free-text description of the issue")
	issueCmd.Flags().String("location", "", "Where in the facility the issue was seen")
	issueCmd.Flags().String("issue-department", "", "Department that reported the issue")
	if err := viper.BindPFlags(issueCmd.Flags()); err != nil {
		contract.LogFatal("Error binding issue flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
