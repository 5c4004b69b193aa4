// Package fetcher acquires the upstream datasets the pipeline reads: the
// EJScreen GeoPackage from the EPA FTP mirror, the Mapping Inequality HOLC
// polygons, the bird observation shapefile bundle, and the optional species
// code list. Downloads are cached in the data directory and verified with
// sha256 sidecar files.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Downloader streams a remote URL. Both the HTTP and FTP fetchers satisfy it.
type Downloader interface {
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Source describes one upstream dataset.
//
// File is the basename the payload is stored under in the data directory.
// For archives, Want lists the extensions to pull out of the ZIP: the first
// entry is the payload and must be present, the rest are sidecars (a
// shapefile's .dbf/.shx/.prj) renamed to share File's stem.
type Source struct {
	Name    string
	URL     string
	File    string
	Archive bool
	Want    []string
}

// DefaultSources returns the registry of upstream datasets.
func DefaultSources() []Source {
	return []Source{
		{
			Name:    "ejscreen",
			URL:     "ftp://gaftp.epa.gov/EJSCREEN/2024/EJSCREEN_2024_Tracts.gpkg.zip",
			File:    "ejscreen_la.gpkg",
			Archive: true,
			Want:    []string{".gpkg"},
		},
		{
			Name: "holc",
			URL:  "https://dsl.richmond.edu/panorama/redlining/static/citiesData/CALosAngeles1939/geojson.json",
			File: "holc_la.geojson",
		},
		{
			Name:    "birds",
			URL:     "https://opendata.arcgis.com/api/v3/datasets/8f2a3b0c0e4d4e92b1f1f4a7d3f9b2a1_0/downloads/data?format=shp&spatialRefId=4326",
			File:    "bird_observations.shp",
			Archive: true,
			Want:    []string{".shp", ".dbf", ".shx", ".prj"},
		},
		{
			Name: "species",
			URL:  "https://www.birdpop.org/docs/misc/IBP-AOS-LIST24.csv",
			File: "species_codes.csv",
		},
	}
}

// Select filters sources by name, preserving registry order. An unknown
// name is an error. With no names it returns all sources.
func Select(sources []Source, names []string) ([]Source, error) {
	if len(names) == 0 {
		return sources, nil
	}
	byName := make(map[string]Source, len(sources))
	for _, s := range sources {
		byName[s.Name] = s
	}
	var out []Source
	for _, s := range sources {
		for _, n := range names {
			if s.Name == n {
				out = append(out, s)
				break
			}
		}
	}
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			return nil, eris.Errorf("fetcher: unknown source %q", n)
		}
	}
	return out, nil
}

// Options configures the fetcher.
type Options struct {
	Dir         string // data directory
	Concurrency int
	Force       bool // re-download even when the file is already present
	HTTP        HTTPOptions
	FTP         FTPOptions
}

// Fetcher downloads sources into the data directory.
type Fetcher struct {
	http        *HTTPFetcher
	ftp         *FTPFetcher
	dir         string
	concurrency int
	force       bool
	log         *zap.Logger
}

// New creates a Fetcher with the given options.
func New(opts Options) *Fetcher {
	if opts.Dir == "" {
		opts.Dir = "data"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	return &Fetcher{
		http:        NewHTTPFetcher(opts.HTTP),
		ftp:         NewFTPFetcher(opts.FTP),
		dir:         opts.Dir,
		concurrency: opts.Concurrency,
		force:       opts.Force,
		log:         zap.L().With(zap.String("component", "fetcher")),
	}
}

// HTTP returns the underlying HTTP fetcher, for callers that need conditional
// requests (the status command's upstream freshness check).
func (f *Fetcher) HTTP() *HTTPFetcher {
	return f.http
}

// FetchAll downloads the given sources concurrently. Failure of any source
// fails the whole run.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return eris.Wrapf(err, "fetcher: create data dir %s", f.dir)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, src := range sources {
		g.Go(func() error {
			if err := f.fetchOne(gctx, src); err != nil {
				return eris.Wrapf(err, "fetch %s", src.Name)
			}
			return nil
		})
	}

	return g.Wait()
}

func (f *Fetcher) fetchOne(ctx context.Context, src Source) error {
	dest := filepath.Join(f.dir, src.File)
	log := f.log.With(zap.String("source", src.Name))
	start := time.Now()

	if !f.force {
		if _, err := os.Stat(dest); err == nil {
			etag := readETag(dest)
			if src.Archive || etag == "" || !isHTTP(src.URL) {
				log.Info("already present, skipping", zap.String("path", dest))
				return nil
			}
			return f.refetchIfChanged(ctx, src, dest, etag, log, start)
		}
	}

	var n int64
	switch {
	case src.Archive:
		body, err := f.downloaderFor(src.URL).Download(ctx, src.URL)
		if err != nil {
			return err
		}
		defer body.Close() //nolint:errcheck
		n, err = f.extractArchive(src, body)
		if err != nil {
			return err
		}
	case isHTTP(src.URL):
		// DownloadIfChanged with an empty tag is a plain GET that also
		// hands back the ETag for the next run.
		body, etag, _, err := f.http.DownloadIfChanged(ctx, src.URL, "")
		if err != nil {
			return err
		}
		defer body.Close() //nolint:errcheck
		if n, err = writeAtomic(dest, body); err != nil {
			return err
		}
		saveETag(dest, etag)
	default:
		body, err := f.ftp.Download(ctx, src.URL)
		if err != nil {
			return err
		}
		defer body.Close() //nolint:errcheck
		if n, err = writeAtomic(dest, body); err != nil {
			return err
		}
	}

	if err := writeChecksum(dest); err != nil {
		return err
	}

	log.Info("downloaded",
		zap.String("url", src.URL),
		zap.String("path", dest),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// refetchIfChanged re-downloads a cached plain HTTP file only when the
// upstream ETag no longer matches.
func (f *Fetcher) refetchIfChanged(ctx context.Context, src Source, dest, etag string, log *zap.Logger, start time.Time) error {
	body, newETag, changed, err := f.http.DownloadIfChanged(ctx, src.URL, etag)
	if err != nil {
		return err
	}
	if !changed {
		log.Info("unchanged upstream, keeping cached copy", zap.String("path", dest))
		return nil
	}
	defer body.Close() //nolint:errcheck

	n, err := writeAtomic(dest, body)
	if err != nil {
		return err
	}
	saveETag(dest, newETag)
	if err := writeChecksum(dest); err != nil {
		return err
	}

	log.Info("refreshed",
		zap.String("url", src.URL),
		zap.String("path", dest),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// extractArchive spools the archive body to a temp directory, extracts it,
// and moves the wanted entries into the data directory under src.File's stem.
func (f *Fetcher) extractArchive(src Source, body io.Reader) (int64, error) {
	tmpDir, err := os.MkdirTemp(f.dir, src.Name+"-*")
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create temp dir")
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	zipPath := filepath.Join(tmpDir, src.Name+".zip")
	n, err := writeAtomic(zipPath, body)
	if err != nil {
		return n, err
	}

	paths, err := ExtractZIP(zipPath, tmpDir)
	if err != nil {
		return n, eris.Wrapf(err, "fetcher: extract %s", src.Name)
	}

	stem := strings.TrimSuffix(src.File, filepath.Ext(src.File))
	for i, ext := range src.Want {
		matches := FindByExt(paths, ext)
		if len(matches) == 0 {
			if i == 0 {
				return n, eris.Errorf("fetcher: archive for %s has no %s entry", src.Name, ext)
			}
			f.log.Debug("optional sidecar missing from archive",
				zap.String("source", src.Name),
				zap.String("ext", ext),
			)
			continue
		}
		if len(matches) > 1 {
			f.log.Warn("multiple archive entries match, taking the first",
				zap.String("source", src.Name),
				zap.String("ext", ext),
				zap.Int("matches", len(matches)),
			)
		}
		target := filepath.Join(f.dir, stem+strings.ToLower(ext))
		if err := os.Rename(matches[0], target); err != nil {
			return n, eris.Wrapf(err, "fetcher: move %s into place", filepath.Base(matches[0]))
		}
	}

	return n, nil
}

func (f *Fetcher) downloaderFor(rawURL string) Downloader {
	if strings.HasPrefix(rawURL, "ftp://") {
		return f.ftp
	}
	return f.http
}

func isHTTP(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// writeAtomic streams r into path via a same-directory temp file and rename,
// so a killed download never leaves a truncated dataset behind.
func writeAtomic(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, eris.Wrapf(err, "fetcher: create dir for %s", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".partial-*")
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create temp file")
	}
	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return n, eris.Wrapf(err, "fetcher: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return n, eris.Wrap(err, "fetcher: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return n, eris.Wrapf(err, "fetcher: rename into %s", path)
	}
	return n, nil
}

// SHA256File returns the hex sha256 digest of the file at path.
func SHA256File(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer fh.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return "", eris.Wrapf(err, "fetcher: hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeChecksum records the sha256 of path next to it, in the two-column
// format shasum -c accepts.
func writeChecksum(path string) error {
	sum, err := SHA256File(path)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(path))
	if err := os.WriteFile(path+".sha256", []byte(line), 0o644); err != nil {
		return eris.Wrapf(err, "fetcher: write checksum for %s", path)
	}
	return nil
}

func readETag(dest string) string {
	b, err := os.ReadFile(dest + ".etag")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func saveETag(dest, etag string) {
	if etag == "" {
		os.Remove(dest + ".etag") //nolint:errcheck
		return
	}
	_ = os.WriteFile(dest+".etag", []byte(etag+"\n"), 0o644)
}
