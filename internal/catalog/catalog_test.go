package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/auditor/internal/iocache"
	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const exportCSV = "Violation Type,Code,Percent,Category,Notes\n" +
	"Boiler Overpressure,BO-1,0.7,Equipment Safety,check relief valve\n" +
	"Late Inspection Log,LIL-01,3%,Compliance,\n"

func newServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestParseCSV(t *testing.T) {
	t.Run("header names", func(t *testing.T) {
		entries, err := ParseCSV(strings.NewReader(exportCSV))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, schema.ViolationType{
			Type: "Boiler Overpressure", Code: "BO-1", Percent: 0.7,
			Category: "Equipment Safety", Notes: "check relief valve",
		}, entries[0])
		assert.InDelta(t, 0.03, entries[1].Percent, 1e-9)
	})

	t.Run("positional without header", func(t *testing.T) {
		entries, err := ParseCSV(strings.NewReader("Missed Training,0.04\nProcedure Violation,0.05\n"))
		require.NoError(t, err)
		assert.Equal(t, []schema.ViolationType{
			{Type: "Missed Training", Percent: 0.04},
			{Type: "Procedure Violation", Percent: 0.05},
		}, entries)
	})

	t.Run("positional with unnamed header", func(t *testing.T) {
		entries, err := ParseCSV(strings.NewReader("Name,Weight\nMissed Training,0.04\n"))
		require.NoError(t, err)
		assert.Equal(t, []schema.ViolationType{{Type: "Missed Training", Percent: 0.04}}, entries)
	})

	t.Run("skips rows without type", func(t *testing.T) {
		entries, err := ParseCSV(strings.NewReader("type,percent\n,0.5\nA,bad\n"))
		require.NoError(t, err)
		assert.Equal(t, []schema.ViolationType{{Type: "A"}}, entries)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyTable)
		_, err = ParseCSV(strings.NewReader("type,percent\n"))
		assert.ErrorIs(t, err, ErrEmptyTable)
	})
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"0.05", 0.05, true},
		{"5%", 0.05, true},
		{" 65 % ", 0.65, true},
		{"-1", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePercent(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.InDelta(t, tt.want, got, 1e-9, tt.raw)
	}
}

func TestLoadWithoutURL(t *testing.T) {
	table := NewClient("", time.Hour, nil).Load(context.Background())
	assert.Equal(t, FallbackSource, table.Source)
	assert.Equal(t, Fallback(), table.Entries)
	assert.NoError(t, table.FetchErr)
}

func TestLoadRemote(t *testing.T) {
	srv, hits := newServer(t, http.StatusOK, exportCSV)

	table := NewClient(srv.URL, time.Hour, nil).Load(context.Background())
	assert.Equal(t, RemoteSource, table.Source)
	assert.Len(t, table.Entries, 2)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoadFallsBackOnFailure(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, "boom")

	table := NewClient(srv.URL, time.Hour, nil).Load(context.Background())
	assert.Equal(t, FallbackSource, table.Source)
	assert.Equal(t, Fallback(), table.Entries)
	assert.ErrorContains(t, table.FetchErr, "500")

	srv, _ = newServer(t, http.StatusOK, "")
	table = NewClient(srv.URL, time.Hour, nil).Load(context.Background())
	assert.ErrorIs(t, table.FetchErr, ErrEmptyTable)
}

func TestLoadUsesCache(t *testing.T) {
	srv, hits := newServer(t, http.StatusOK, exportCSV)
	now := time.Unix(1_700_000_000, 0)

	cached, err := json.Marshal([]schema.ViolationType{{Type: "Cached", Percent: 0.2}})
	require.NoError(t, err)

	t.Run("fresh entry", func(t *testing.T) {
		store := &iocache.MockCacheStore{}
		client := NewClient(srv.URL, time.Hour, store)
		client.now = func() time.Time { return now }
		store.On("Get", client.cacheKey()).Return(cached, currentCacheVersion, now.Add(-time.Minute).Unix(), nil)

		table := client.Load(context.Background())
		assert.Equal(t, CacheSource, table.Source)
		assert.Equal(t, "Cached", table.Entries[0].Type)
		assert.Equal(t, int32(0), hits.Load())
		store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stale entry refetches and stores", func(t *testing.T) {
		store := &iocache.MockCacheStore{}
		client := NewClient(srv.URL, time.Hour, store)
		client.now = func() time.Time { return now }
		store.On("Get", client.cacheKey()).Return(cached, currentCacheVersion, now.Add(-2*time.Hour).Unix(), nil)
		store.On("Set", client.cacheKey(), mock.Anything, currentCacheVersion, now.Unix()).Return(nil)

		table := client.Load(context.Background())
		assert.Equal(t, RemoteSource, table.Source)
		assert.Equal(t, int32(1), hits.Load())
		store.AssertExpectations(t)
	})

	t.Run("version mismatch", func(t *testing.T) {
		store := &iocache.MockCacheStore{}
		client := NewClient(srv.URL, time.Hour, store)
		client.now = func() time.Time { return now }
		store.On("Get", client.cacheKey()).Return(cached, currentCacheVersion+1, now.Unix(), nil)
		store.On("Set", client.cacheKey(), mock.Anything, currentCacheVersion, now.Unix()).Return(nil)

		table := client.Load(context.Background())
		assert.Equal(t, RemoteSource, table.Source)
		store.AssertExpectations(t)
	})
}

func TestCacheKeyDependsOnURL(t *testing.T) {
	a := NewClient("https://example.com/a.csv", time.Hour, nil).cacheKey()
	b := NewClient("https://example.com/b.csv", time.Hour, nil).cacheKey()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, cacheKeyPrefix+":"))
}
