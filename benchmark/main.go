// Package main provides a performance benchmarking tool for the Auditor CLI.
// It generates synthetic observation logs of increasing size, audits each dataset with
// several worker counts, treats the first successful run as cold and averages the rest
// as warm, and writes the timings to a CSV file.
//
// Prerequisites:
// - auditor binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the synthetic datasets are generated
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the result of one dataset and worker count.
type BenchmarkResult struct {
	Dataset  string
	Workers  int
	ColdTime string
	WarmTime string
}

// Dataset describes one synthetic input folder.
type Dataset struct {
	Name         string
	Files        int
	Observations int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir  string
	Timeout  time.Duration
	Runs     int
	Workers  []int
	Datasets []Dataset
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir: os.Args[1],
		Timeout: 5 * time.Minute,
		Runs:    4,
		Workers: []int{1, 4, 14},
		Datasets: []Dataset{
			{Name: "small", Files: 10, Observations: 100},
			{Name: "medium", Files: 100, Observations: 1000},
			{Name: "large", Files: 500, Observations: 5000},
		},
	}

	if _, err := exec.LookPath("auditor"); err != nil {
		fmt.Printf("Prerequisites check failed: auditor binary not found in PATH\n")
		os.Exit(1)
	}

	for _, ds := range config.Datasets {
		fmt.Printf("Generating %s dataset (%d files x %d observations)\n", ds.Name, ds.Files, ds.Observations)
		if err := generateDataset(filepath.Join(config.WorkDir, ds.Name), ds); err != nil {
			fmt.Printf("Failed to generate %s: %v\n", ds.Name, err)
			os.Exit(1)
		}
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// generateDataset writes ds.Files observation logs, cycling through the built-in system types.
func generateDataset(dir string, ds Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(uint64(ds.Files), uint64(ds.Observations)))
	systems := []string{"boiler", "chiller", "compressor"}

	for i := range ds.Files {
		systemType := systems[i%len(systems)]
		observations := make([]map[string]any, ds.Observations)
		for j := range observations {
			observations[j] = syntheticObservation(rng, systemType)
		}
		data, err := json.Marshal(map[string]any{
			"systemType":   systemType,
			"observations": observations,
		})
		if err != nil {
			return err
		}
		name := filepath.Join(dir, systemType+"-"+strconv.Itoa(i)+".json")
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// syntheticObservation returns readings that breach a limit roughly one time in ten.
func syntheticObservation(rng *rand.Rand, systemType string) map[string]any {
	level := func() string {
		if rng.IntN(10) == 0 {
			return "Low"
		}
		return "Normal"
	}
	switch systemType {
	case "boiler":
		return map[string]any{
			"steamPressure": 100 + rng.Float64()*60,
			"stackTemp":     400 + rng.Float64()*160,
			"waterLevel":    level(),
		}
	case "chiller":
		return map[string]any{
			"suctionPressure": 35 + rng.Float64()*190,
			"condenserTemp":   68 + rng.Float64()*40,
			"oilTemp":         120 + rng.Float64()*75,
		}
	default:
		return map[string]any{"oilLevel": level()}
	}
}

// runBenchmarks audits every dataset with every worker count.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, workers %v, %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.Runs)

	for _, ds := range config.Datasets {
		for _, workers := range config.Workers {
			fmt.Printf("Auditing %s with %d workers\n", ds.Name, workers)
			cold, warm := runBenchmark(config, filepath.Join(config.WorkDir, ds.Name), workers)

			result := BenchmarkResult{Dataset: ds.Name, Workers: workers, ColdTime: "TIMEOUT", WarmTime: "TIMEOUT"}
			if cold > 0 {
				result.ColdTime = fmt.Sprintf("%.3fs", cold)
			}
			if len(warm) > 0 {
				var sum float64
				for _, t := range warm {
					sum += t
				}
				result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(warm)))
			}
			fmt.Printf("  Cold time: %s, Warm average: %s\n", result.ColdTime, result.WarmTime)
			results = append(results, result)
		}
	}

	return results
}

// runBenchmark executes the audit command several times and returns cold time and warm times.
func runBenchmark(config BenchmarkConfig, dir string, workers int) (coldTime float64, warmTimes []float64) {
	out := filepath.Join(config.WorkDir, "audit.csv")
	args := []string{"audit", dir, "--workers", strconv.Itoa(workers), "--output", "csv", "--output-file", out, "--cache-backend", "none"}

	var times []float64
	for range config.Runs {
		start := time.Now()

		cmd := exec.Command("auditor", args...)
		done := make(chan error, 1)
		go func() {
			done <- cmd.Run()
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/auditor_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "workers", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, strconv.Itoa(result.Workers), result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s %3d workers: Cold: %s, Warm: %s\n", result.Dataset, result.Workers, result.ColdTime, result.WarmTime)
	}
}
