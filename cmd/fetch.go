package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cityecology/redline/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [source...]",
	Short: "Download the source datasets",
	Long: "Downloads the EJScreen GeoPackage, the HOLC district GeoJSON, the bird " +
		"observation shapefile bundle, and the species code list into the data " +
		"directory. Named sources restrict the run; files already present are " +
		"kept unless --force is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency <= 0 {
			concurrency = cfg.Fetch.Concurrency
		}

		sources, err := fetcher.Select(fetcher.DefaultSources(), args)
		if err != nil {
			return err
		}

		zap.L().Info("fetching sources",
			zap.Int("count", len(sources)),
			zap.String("dir", cfg.Data.Dir),
			zap.Int("concurrency", concurrency),
			zap.Bool("force", force),
		)

		f := fetcher.New(fetcher.Options{
			Dir:         cfg.Data.Dir,
			Concurrency: concurrency,
			Force:       force,
			HTTP: fetcher.HTTPOptions{
				UserAgent:   "redline/" + version,
				Timeout:     cfg.Fetch.Timeout,
				RatePerHost: cfg.Fetch.RateLimit,
			},
			FTP: fetcher.FTPOptions{
				Timeout: cfg.Fetch.Timeout,
			},
		})

		if err := f.FetchAll(ctx, sources); err != nil {
			return eris.Wrap(err, "fetch")
		}

		fmt.Printf("Fetched %d source(s) into %s\n", len(sources), cfg.Data.Dir)
		return nil
	},
}

func init() {
	fetchCmd.Flags().Bool("force", false, "re-download files that are already present")
	fetchCmd.Flags().Int("concurrency", 0, "parallel downloads (default from config)")

	rootCmd.AddCommand(fetchCmd)
}
