// Package catalog maintains the reference table of violation types. The table is fetched
// as a CSV export, cached in a CacheStore and replaced by a built-in list when neither the
// remote source nor the cache can provide it.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
)

// currentCacheVersion defines the version of the cached table layout.
const currentCacheVersion = 1

// cacheKeyPrefix namespaces catalog entries in the shared cache table.
const cacheKeyPrefix = "violation_types"

// maxBodyBytes caps how much of the remote export is read.
const maxBodyBytes = 4 << 20

// ErrEmptyTable is returned when a CSV export contains no usable rows.
var ErrEmptyTable = errors.New("violation type table is empty")

// Source tells where a table came from.
type Source string

// All table sources.
const (
	RemoteSource   Source = "remote"
	CacheSource    Source = "cache"
	FallbackSource Source = "fallback"
)

// Table is a resolved violation-type table.
type Table struct {
	Entries   []schema.ViolationType `json:"entries"`
	Source    Source                 `json:"source"`
	FetchedAt time.Time              `json:"fetchedAt"`
	FetchErr  error                  `json:"-"` // set when the remote fetch failed
}

// Fallback returns the built-in table used when no remote export is reachable.
func Fallback() []schema.ViolationType {
	return []schema.ViolationType{
		{Type: "Safety PPE Non-Compliance", Percent: 0.05, Category: "Safety"},
		{Type: "Late Inspection Log", Percent: 0.03, Category: "Compliance"},
		{Type: "Unauthorized Equipment Use", Percent: 0.06, Category: "Equipment"},
		{Type: "Missed Training", Percent: 0.04, Category: "Compliance"},
		{Type: "Procedure Violation", Percent: 0.05, Category: "Safety"},
	}
}

// Client loads the violation-type table.
type Client struct {
	url   string
	ttl   time.Duration
	cache contract.CacheStore
	http  *http.Client
	now   func() time.Time
}

// NewClient creates a catalog client. An empty url always yields the fallback table;
// a nil cache disables caching.
func NewClient(url string, ttl time.Duration, cache contract.CacheStore) *Client {
	return &Client{
		url:   url,
		ttl:   ttl,
		cache: cache,
		http:  &http.Client{Timeout: 30 * time.Second},
		now:   time.Now,
	}
}

// Load returns the freshest table available: cached if within the TTL, otherwise fetched.
// A failed fetch falls back to the built-in list and records the error in FetchErr.
func (c *Client) Load(ctx context.Context) Table {
	if c.url == "" {
		return Table{Entries: Fallback(), Source: FallbackSource}
	}

	key := c.cacheKey()
	if table, ok := c.checkCacheHit(key); ok {
		return table
	}

	entries, err := c.Fetch(ctx)
	if err != nil {
		return Table{Entries: Fallback(), Source: FallbackSource, FetchErr: err}
	}

	now := c.now()
	if c.cache != nil {
		if data, err := json.Marshal(entries); err == nil {
			_ = c.cache.Set(key, data, currentCacheVersion, now.Unix())
		}
	}
	return Table{Entries: entries, Source: RemoteSource, FetchedAt: now}
}

// Fetch downloads and parses the remote CSV export.
func (c *Client) Fetch(ctx context.Context) ([]schema.ViolationType, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch catalog: unexpected status %s", resp.Status)
	}
	return ParseCSV(io.LimitReader(resp.Body, maxBodyBytes))
}

func (c *Client) cacheKey() string {
	return fmt.Sprintf("%s:%x", cacheKeyPrefix, sha256.Sum256([]byte(c.url)))
}

// checkCacheHit returns the cached table when it is current and within the TTL.
func (c *Client) checkCacheHit(key string) (Table, bool) {
	if c.cache == nil {
		return Table{}, false
	}
	data, version, ts, err := c.cache.Get(key)
	if err != nil || version != currentCacheVersion {
		return Table{}, false // Cache miss
	}
	fetchedAt := time.Unix(ts, 0)
	if c.now().Sub(fetchedAt) > c.ttl {
		return Table{}, false // Stale
	}
	var entries []schema.ViolationType
	if err := json.Unmarshal(data, &entries); err != nil || len(entries) == 0 {
		return Table{}, false
	}
	return Table{Entries: entries, Source: CacheSource, FetchedAt: fetchedAt}, true
}

// ParseCSV reads a violation-type export. Columns are matched by header name when the
// first row has a "type" column; otherwise rows are read positionally as type,percent.
// Percent cells may be fractions (0.05) or percentages (5%).
func ParseCSV(r io.Reader) ([]schema.ViolationType, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid catalog CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	columns, hasHeader := headerColumns(records[0])
	rows := records
	if hasHeader {
		rows = records[1:]
	} else {
		columns = map[string]int{"type": 0, "percent": 1}
		if _, ok := parsePercent(cell(records[0], columns, "percent")); !ok {
			rows = records[1:] // unnamed header row
		}
	}

	var entries []schema.ViolationType
	for _, row := range rows {
		entry := schema.ViolationType{
			Type:        cell(row, columns, "type"),
			Code:        cell(row, columns, "code"),
			Severity:    cell(row, columns, "severity"),
			Category:    cell(row, columns, "category"),
			Notes:       cell(row, columns, "notes"),
			Description: cell(row, columns, "description"),
		}
		if entry.Type == "" {
			continue
		}
		if p, ok := parsePercent(cell(row, columns, "percent")); ok {
			entry.Percent = p
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyTable
	}
	return entries, nil
}

func headerColumns(row []string) (map[string]int, bool) {
	columns := make(map[string]int, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.TrimSuffix(strings.TrimPrefix(key, "violation "), " %")
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	_, ok := columns["type"]
	return columns, ok
}

func cell(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parsePercent(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	scale := 1.0
	if trimmed, ok := strings.CutSuffix(raw, "%"); ok {
		raw = strings.TrimSpace(trimmed)
		scale = 100
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || p < 0 {
		return 0, false
	}
	return p / scale, true
}
