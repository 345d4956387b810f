package cmd

import (
	"fmt"

	"github.com/huangsam/auditor/core"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/iocache"
	"github.com/huangsam/auditor/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// auditBackendFromConfig reads and validates the audit history backend settings.
func auditBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backendStr := viper.GetString("audit-backend")
	connStr := viper.GetString("audit-db-connect")

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	if _, ok := schema.ValidAuditBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid audit backend '%s'. must be sqlite, mysql, postgresql, none", backendStr)
	}

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for audit history operations.
func historySetup() error {
	backend, connStr, err := auditBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no cache for history commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize audit history: %w", err)
	}

	cfg.AuditBackend = backend
	cfg.AuditDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads the configuration needed for migrations. It does NOT
// initialize stores or create tables, allowing migrations to run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := auditBackendFromConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetAuditDBFilePath()
	}

	cfg.AuditBackend = backend
	cfg.AuditDBConnect = connStr
	return nil
}

// historyCmd focused on audit history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by audit commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the audit history and exports",
	Long: `Manage the stored history of audit and risk runs.

When --audit-backend is set, every audit and risk run is recorded:
- Run metadata (kind, timestamps, configuration)
- Findings of each audited source with score and status
- Risk profiles with category, cost impact and integrity index

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show audit history statistics
  profile - Show the recorded risk profiles of one employee
  export  - Export data to Parquet for analytics
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Check history status
  auditor history status --audit-backend sqlite

  # Export for analysis in pandas/DuckDB
  auditor history export --audit-backend sqlite --output-file audits.parquet`,
}

// historyProfileSetup prepares a risk profile lookup for one employee.
func historyProfileSetup(_ *cobra.Command, args []string) error {
	if err := historySetup(); err != nil {
		return err
	}
	output := schema.OutputMode(viper.GetString("output"))
	if _, ok := schema.ValidOutputModes[output]; !ok {
		return fmt.Errorf("invalid output mode '%s'. must be text, csv, json", output)
	}
	cfg.Output = output
	cfg.Precision = viper.GetInt("precision")
	cfg.Inputs = args
	return nil
}

// historyProfileCmd shows the recorded risk profiles of one employee.
var historyProfileCmd = &cobra.Command{
	Use:   "profile <employee-id>",
	Short: "Show the recorded risk profiles of one employee",
	Long: `Look up every risk profile recorded for an employee, oldest first.

The latest profile reflects the most recent risk run for the employee.

Examples:
  # Show the risk history of an employee
  auditor history profile E-42 --audit-backend sqlite

  # Same data as JSON
  auditor history profile E-42 --audit-backend sqlite --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: historyProfileSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRiskHistory(rootCtx, cfg, iocache.Manager); err != nil {
			contract.LogFatal("Failed to look up risk profiles", err)
		}
	},
}

// historyClearCmd clears the audit history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all audit history",
	Long: `Delete all stored runs, findings and risk profiles.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  auditor history export --output-file backup.parquet
  auditor history clear`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseStores()
		dbPath := cfg.AuditDBConnect
		if dbPath == "" {
			dbPath = contract.GetAuditDBFilePath()
		}
		if err := iocache.ClearAudit(cfg.AuditBackend, dbPath, cfg.AuditDBConnect); err != nil {
			contract.LogFatal("Failed to clear audit history", err)
		}
		fmt.Println("Audit history cleared successfully.")
	},
}

// historyStatusCmd shows audit history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display audit history statistics and connection details",
	Long: `Show detailed information about the audit history.

Displays:
- Backend type and connection status
- Total number of runs, findings and risk profiles
- Last and oldest run timestamps

Examples:
  # Check audit history status
  auditor history status --audit-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetAuditStore()
		if store == nil {
			fmt.Println("Audit history is disabled. Set --audit-backend to enable it.")
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get audit history status", err)
		}
		iocache.PrintAuditStatus(status)
	},
}

// historyExportCmd exports the audit history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the audit history to Parquet for BI tools",
	Long: `Export all stored audit history to Parquet format.

Exports three datasets:
- Runs - metadata and summary of each audit or risk run
- Findings - every finding with its field, value, flag and severity
- Risk profiles - every assessed profile

Requires: --output-file parameter

Examples:
  # Export all data
  auditor history export --output-file audits.parquet

  # Use with DuckDB for analysis
  duckdb -c "SELECT status, count(*) FROM read_parquet('audits.parquet.runs.parquet') GROUP BY 1"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteAuditExport(iocache.Manager.GetAuditStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export audit history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the audit store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the audit history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  auditor history migrate --audit-backend postgresql

  # Rollback to initial state
  auditor history migrate --audit-backend postgresql --target-version 0`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateAudit(cfg.AuditBackend, cfg.AuditDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
