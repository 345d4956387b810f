package iocache

import (
	"fmt"
	"sort"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
)

// PrintCacheStatus prints cache status information.
func PrintCacheStatus(status schema.CacheStatus) {
	fmt.Printf("Cache Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		fmt.Printf("Last Entry: %s\n", status.LastEntryTime.Format(contract.DateTimeFormat))
		fmt.Printf("Oldest Entry: %s\n", status.OldestEntryTime.Format(contract.DateTimeFormat))
	}
	fmt.Printf("Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintAuditStatus prints audit history status information.
func PrintAuditStatus(status schema.AuditStatus) {
	fmt.Printf("Audit Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		fmt.Printf("Last Run ID: %d\n", status.LastRunID)
		fmt.Printf("Last Run: %s\n", status.LastRunTime.Format(contract.DateTimeFormat))
		fmt.Printf("Oldest Run: %s\n", status.OldestRunTime.Format(contract.DateTimeFormat))
		fmt.Printf("Total Findings: %d\n", status.TotalFindings)
		fmt.Printf("Average Score: %.1f\n", status.AverageScore)
		fmt.Println("Runs By Kind:")
		for _, kind := range sortedKeys(status.RunsByKind) {
			fmt.Printf("  %s: %d\n", kind, status.RunsByKind[kind])
		}
	}
	fmt.Println("Table Sizes:")
	for _, table := range sortedKeys(status.TableSizes) {
		fmt.Printf("  %s: %d rows\n", table, status.TableSizes[table])
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
