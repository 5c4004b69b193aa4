package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityecology/redline/internal/config"
	"github.com/cityecology/redline/internal/fetcher"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KiB"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanSize(tt.n), "humanSize(%d)", tt.n)
	}
}

func TestSourcePath(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = &config.Config{Data: config.DataConfig{Dir: "data"}}

	assert.Equal(t, filepath.Join("data", "ejscreen_la.gpkg"), sourcePath("ejscreen"))
	assert.Equal(t, filepath.Join("data", "holc_la.geojson"), sourcePath("holc"))
	assert.Equal(t, filepath.Join("data", "bird_observations.shp"), sourcePath("birds"))
	assert.Equal(t, filepath.Join("data", "species_codes.csv"), sourcePath("species"))

	cfg.Data.HOLCGeoJSON = filepath.Join("elsewhere", "districts.json")
	assert.Equal(t, filepath.Join("elsewhere", "districts.json"), sourcePath("holc"))
}

func TestUpstreamState(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	dir := t.TempDir()
	cfg = &config.Config{
		Data:  config.DataConfig{Dir: dir},
		Fetch: config.FetchConfig{Timeout: 5 * time.Second, RateLimit: 100},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v2"`)
	}))
	defer srv.Close()

	h := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, RatePerHost: 100, Burst: 100})
	src := fetcher.Source{Name: "holc", URL: srv.URL, File: "holc_la.geojson"}

	// No sidecar saved yet: upstream counts as changed.
	assert.Equal(t, "changed", upstreamState(context.Background(), h, src))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "holc_la.geojson.etag"), []byte("\"v2\"\n"), 0o644))
	assert.Equal(t, "current", upstreamState(context.Background(), h, src))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "holc_la.geojson.etag"), []byte("\"v1\"\n"), 0o644))
	assert.Equal(t, "changed", upstreamState(context.Background(), h, src))

	// Archives and FTP sources are never checked.
	src.Archive = true
	assert.Equal(t, "-", upstreamState(context.Background(), h, src))
	assert.Equal(t, "-", upstreamState(context.Background(), h, fetcher.Source{URL: "ftp://gaftp.epa.gov/x"}))
}
