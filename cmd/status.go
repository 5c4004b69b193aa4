package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cityecology/redline/internal/dataset"
	"github.com/cityecology/redline/internal/fetcher"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the source datasets",
	Long: "Reports, per source, whether the file is present along with its size, " +
		"feature count, and declared CRS, all read from headers and catalog tables " +
		"without decoding geometry. With --remote each HTTP source is also checked " +
		"upstream against the ETag saved at download time.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("status"); err != nil {
			return err
		}
		remote, _ := cmd.Flags().GetBool("remote")

		var httpClient *fetcher.HTTPFetcher
		if remote {
			httpClient = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				UserAgent:   "redline/" + version,
				Timeout:     cfg.Fetch.Timeout,
				RatePerHost: cfg.Fetch.RateLimit,
			})
		}

		fmt.Println("=== Source Datasets ===")
		fmt.Println()
		if remote {
			fmt.Printf("%-10s %-26s %-9s %10s %10s %10s  %s\n",
				"SOURCE", "FILE", "STATUS", "SIZE", "FEATURES", "SRID", "UPSTREAM")
			fmt.Println(strings.Repeat("-", 90))
		} else {
			fmt.Printf("%-10s %-26s %-9s %10s %10s %10s\n",
				"SOURCE", "FILE", "STATUS", "SIZE", "FEATURES", "SRID")
			fmt.Println(strings.Repeat("-", 80))
		}

		for _, src := range fetcher.DefaultSources() {
			path := sourcePath(src.Name)

			status, size, features, srid := "missing", "-", "-", "-"
			if info, err := os.Stat(path); err == nil {
				status = "present"
				size = humanSize(info.Size())
				features, srid = probeSource(src.Name, path)
			}

			if remote {
				fmt.Printf("%-10s %-26s %-9s %10s %10s %10s  %s\n",
					src.Name, filepath.Base(path), status, size, features, srid,
					upstreamState(ctx, httpClient, src))
			} else {
				fmt.Printf("%-10s %-26s %-9s %10s %10s %10s\n",
					src.Name, filepath.Base(path), status, size, features, srid)
			}
		}

		return nil
	},
}

// sourcePath resolves a source name to its configured file location.
func sourcePath(name string) string {
	switch name {
	case "ejscreen":
		return cfg.Data.EJGPKGPath()
	case "holc":
		return cfg.Data.HOLCGeoJSONPath()
	case "birds":
		return cfg.Data.BirdsSHPPath()
	case "species":
		return cfg.Data.SpeciesCSVPath()
	}
	return filepath.Join(cfg.Data.Dir, name)
}

// probeSource reads feature count and declared SRID for a present file.
// Probe failures show up as "?" rather than aborting the whole table.
func probeSource(name, path string) (features, srid string) {
	switch name {
	case "ejscreen":
		n, epsg, err := dataset.ProbeGeoPackage(path, cfg.Data.EJLayer)
		if err != nil {
			return "?", "?"
		}
		return fmt.Sprintf("%d", n), fmt.Sprintf("EPSG:%d", epsg)
	case "holc":
		n, epsg, err := dataset.ProbeGeoJSON(path)
		if err != nil {
			return "?", "?"
		}
		return fmt.Sprintf("%d", n), fmt.Sprintf("EPSG:%d", epsg)
	case "birds":
		n, epsg, err := dataset.ProbeShapefile(path)
		if err != nil {
			return "?", "?"
		}
		return fmt.Sprintf("%d", n), fmt.Sprintf("EPSG:%d", epsg)
	case "species":
		names, err := dataset.ReadSpeciesNames(path)
		if err != nil {
			return "?", "-"
		}
		return fmt.Sprintf("%d", len(names)), "-"
	}
	return "-", "-"
}

// upstreamState compares the upstream ETag against the sidecar saved at
// download time. Archives and FTP sources have no cheap change check.
func upstreamState(ctx context.Context, h *fetcher.HTTPFetcher, src fetcher.Source) string {
	if src.Archive || !strings.HasPrefix(src.URL, "http") {
		return "-"
	}
	remoteTag, err := h.HeadETag(ctx, src.URL)
	if err != nil || remoteTag == "" {
		return "?"
	}
	saved, err := os.ReadFile(filepath.Join(cfg.Data.Dir, src.File) + ".etag")
	if err != nil || strings.TrimSpace(string(saved)) != remoteTag {
		return "changed"
	}
	return "current"
}

// humanSize formats a byte count with binary prefixes.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

func init() {
	statusCmd.Flags().Bool("remote", false, "check each HTTP source upstream for changes")

	rootCmd.AddCommand(statusCmd)
}
