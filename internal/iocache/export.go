package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/parquet"
)

// ExecuteAuditExport exports the audit history held by store to Parquet files
// named outputFile plus a per-table suffix.
func ExecuteAuditExport(store contract.AuditStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("audit store is not configured. Set --audit-backend to enable history")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get audit status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no audit data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total findings: %d\n", status.TableSizes[findingsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	findings, err := store.GetAllFindings()
	if err != nil {
		return fmt.Errorf("failed to retrieve findings: %w", err)
	}
	profiles, err := store.GetAllRiskProfiles()
	if err != nil {
		return fmt.Errorf("failed to retrieve risk profiles: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteAuditRunsParquet(parquet.ConvertAuditRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(runs), runsFile)

	findingsFile := outputFile + ".findings.parquet"
	if err := parquet.WriteFindingsParquet(parquet.ConvertFindingRecords(findings), findingsFile); err != nil {
		return fmt.Errorf("failed to write findings: %w", err)
	}
	fmt.Printf("Exported %d findings to: %s\n", len(findings), findingsFile)

	profilesFile := outputFile + ".risk_profiles.parquet"
	if err := parquet.WriteRiskProfilesParquet(parquet.ConvertRiskProfileRecords(profiles), profilesFile); err != nil {
		return fmt.Errorf("failed to write risk profiles: %w", err)
	}
	fmt.Printf("Exported %d risk profiles to: %s\n", len(profiles), profilesFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
