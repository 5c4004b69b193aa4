package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/cityecology/redline/internal/analysis"
	"github.com/cityecology/redline/internal/crs"
	"github.com/cityecology/redline/internal/dataset"
	"github.com/cityecology/redline/internal/model"
	"github.com/cityecology/redline/internal/report"
	"github.com/cityecology/redline/internal/spatial"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the analysis and write the report artifacts",
	Long: "Loads the three datasets, checks polygon validity, reprojects " +
		"everything to the shared planar CRS, joins census blocks and bird " +
		"observations against HOLC districts, prints the summary tables, and " +
		"writes the report, maps, charts, and run manifest to the output " +
		"directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Flags beat file and environment. Year 0 means all years, so the
		// flag only applies when set.
		if cmd.Flags().Changed("year") {
			cfg.Analysis.Year, _ = cmd.Flags().GetInt("year")
		}
		if city, _ := cmd.Flags().GetString("city"); city != "" {
			cfg.Analysis.City = city
		}
		if epsg, _ := cmd.Flags().GetInt("target-epsg"); epsg != 0 {
			cfg.CRS.Target = epsg
		}
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			cfg.Output.Dir = out
		}
		if cmd.Flags().Changed("formats") {
			cfg.Output.Formats, _ = cmd.Flags().GetStringSlice("formats")
		}

		if err := cfg.Validate("report"); err != nil {
			return err
		}
		return runReport()
	},
}

func runReport() error {
	log := zap.L().With(zap.String("command", "report"))
	start := time.Now()

	target := cfg.CRS.Target
	if !crs.Supported(target) {
		return eris.Errorf("report: no projection registered for epsg:%d", target)
	}

	// Load. Any missing or corrupt source aborts the run here.
	blocks, blockSRID, err := dataset.ReadGeoPackage(cfg.Data.EJGPKGPath(), cfg.Data.EJLayer)
	if err != nil {
		return err
	}
	districts, distSRID, err := dataset.ReadHOLCGeoJSON(cfg.Data.HOLCGeoJSONPath())
	if err != nil {
		return err
	}
	obs, obsSRID, err := dataset.ReadObservations(cfg.Data.BirdsSHPPath())
	if err != nil {
		return err
	}

	// The species lookup is a nicety, not an input.
	species, err := dataset.ReadSpeciesNames(cfg.Data.SpeciesCSVPath())
	if err != nil {
		log.Debug("species lookup unavailable", zap.Error(err))
		species = nil
	}

	if city := cfg.Analysis.City; city != "" {
		districts = filterCity(districts, city)
		if len(districts) == 0 {
			return eris.Errorf("report: no districts tagged for city %q", city)
		}
	}

	log.Info("sources loaded",
		zap.Int("blocks", len(blocks)),
		zap.Int("districts", len(districts)),
		zap.Int("observations", len(obs)),
	)

	// Validity is reported, never repaired; the join proceeds on the
	// original geometry.
	geoms := make([]geom.T, len(districts))
	ids := make([]string, len(districts))
	for i, d := range districts {
		geoms[i] = d.Geom
		ids[i] = d.ID
	}
	validity := spatial.CheckValidity(geoms, ids)
	if !validity.Valid {
		log.Warn("proceeding on invalid polygons", zap.String("detail", validity.Message))
	}

	// Reproject all three layers into the shared planar CRS.
	blockLayer, err := crs.ReprojectBlocks(model.BlockLayer{Blocks: blocks, SRID: blockSRID}, blockSRID, target)
	if err != nil {
		return err
	}
	distLayer, err := crs.ReprojectDistricts(model.DistrictLayer{Districts: districts, SRID: distSRID}, distSRID, target)
	if err != nil {
		return err
	}
	obsLayer, err := crs.ReprojectObservations(model.ObservationLayer{Observations: obs, SRID: obsSRID}, obsSRID, target)
	if err != nil {
		return err
	}

	// Join.
	blockRows, err := analysis.JoinBlocksDistricts(blockLayer, distLayer)
	if err != nil {
		return err
	}
	obsRows, err := analysis.JoinObservationsDistricts(obsLayer, distLayer)
	if err != nil {
		return err
	}

	// Aggregate.
	year := cfg.Analysis.Year
	shares, err := analysis.BlockGradeShares(blockRows, len(blockLayer.Blocks))
	if err != nil {
		return err
	}
	means := analysis.IndicatorMeans(blockRows)
	obsShares, err := analysis.ObservationGradeShares(obsRows, year)
	if err != nil {
		return err
	}
	bins, err := analysis.NewBins(cfg.Analysis.Breaks)
	if err != nil {
		return err
	}
	counts, err := analysis.DistrictBirdCounts(distLayer, obsLayer, year, bins)
	if err != nil {
		return err
	}

	tables := []report.Table{
		report.GradeShareTable("Census blocks by HOLC grade", "Blocks", shares),
		report.IndicatorMeanTable("EJ indicator means by HOLC grade", means),
		report.GradeShareTable(yearTitle("Bird observations by HOLC grade", year), "Observations", obsShares),
		report.GradeCountTable(yearTitle("Total bird observations by HOLC grade", year), "Observations", obsShares),
	}
	appendix := report.DistrictCountTable(yearTitle("Bird observations per district", year), counts)

	for _, t := range tables {
		fmt.Println(report.Render(t))
	}

	outputs, m, err := writeArtifacts(reportData{
		tables:    tables,
		appendix:  appendix,
		validity:  validity,
		dist:      distLayer,
		counts:    counts,
		bins:      bins,
		shares:    shares,
		obsShares: obsShares,
		obsRows:   obsRows,
		species:   species,
		inputs: []report.InputFile{
			{Name: "ejscreen", Path: cfg.Data.EJGPKGPath(), Features: len(blocks), SRID: blockSRID},
			{Name: "holc", Path: cfg.Data.HOLCGeoJSONPath(), Features: len(districts), SRID: distSRID},
			{Name: "birds", Path: cfg.Data.BirdsSHPPath(), Features: len(obs), SRID: obsSRID},
		},
	})
	if err != nil {
		return err
	}

	log.Info("report complete",
		zap.String("run_id", m.RunID),
		zap.Int("outputs", len(outputs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Printf("Wrote %d artifact(s) to %s\n", len(outputs), cfg.Output.Dir)
	return nil
}

// reportData is everything writeArtifacts needs from the pipeline run.
type reportData struct {
	tables    []report.Table
	appendix  report.Table
	validity  spatial.Validity
	dist      model.DistrictLayer
	counts    []model.DistrictCount
	bins      analysis.Bins
	shares    []analysis.GradeShare
	obsShares []analysis.GradeShare
	obsRows   []model.ObservationDistrictRow
	species   map[string]string
	inputs    []report.InputFile
}

// writeArtifacts renders every configured output format into output.dir and
// finishes with the run manifest listing what was written.
func writeArtifacts(d reportData) ([]string, report.Manifest, error) {
	outDir := cfg.Output.Dir
	year := cfg.Analysis.Year

	m := report.NewManifest(cfg.Analysis.City, year, cfg.CRS.Target)
	m.Inputs = d.inputs
	m.Validity = map[string]string{"holc": d.validity.Message}
	m.Denominators = map[string]string{
		"block_table":       "left_total",
		"observation_table": "matched",
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, m, eris.Wrapf(err, "report: create output dir %s", outDir)
	}

	allTables := append(append([]report.Table{}, d.tables...), d.appendix)

	var outputs []string
	for _, format := range cfg.Output.Formats {
		switch format {
		case "markdown":
			doc := report.Document{
				Title:      "Redlining, environmental justice, and birds",
				RunID:      m.RunID,
				Generated:  m.GeneratedAt,
				City:       cfg.Analysis.City,
				Year:       year,
				TargetEPSG: cfg.CRS.Target,
				Validity:   []string{d.validity.Message},
				Tables:     allTables,
				Notes:      reportNotes(d.obsRows, d.species, year),
			}
			path := filepath.Join(outDir, "report.md")
			if err := os.WriteFile(path, []byte(report.Markdown(doc)), 0o644); err != nil {
				return nil, m, eris.Wrapf(err, "report: write %s", path)
			}
			outputs = append(outputs, "report.md")

		case "xlsx":
			path := filepath.Join(outDir, "report.xlsx")
			if err := report.WriteWorkbook(path, allTables); err != nil {
				return nil, m, err
			}
			outputs = append(outputs, "report.xlsx")

		case "svg":
			svgs := []struct {
				name string
				body string
			}{
				{"map_holc_grades.svg", report.ChoroplethByGrade(d.dist, "HOLC districts by grade")},
				{"map_bird_bins.svg", report.ChoroplethByBin(d.dist, d.counts, d.bins, yearTitle("Bird observations per district", year))},
				{"chart_block_shares.svg", shareChart("Census blocks by HOLC grade", "% of blocks", d.shares)},
				{"chart_observation_shares.svg", shareChart(yearTitle("Bird observations by HOLC grade", year), "% of observations", d.obsShares)},
			}
			for _, s := range svgs {
				path := filepath.Join(outDir, s.name)
				if err := os.WriteFile(path, []byte(s.body), 0o644); err != nil {
					return nil, m, eris.Wrapf(err, "report: write %s", path)
				}
				outputs = append(outputs, s.name)
			}
		}
	}

	sort.Strings(outputs)
	m.Outputs = outputs
	if err := report.WriteManifest(filepath.Join(outDir, "run.yaml"), m); err != nil {
		return nil, m, err
	}
	return outputs, m, nil
}

// filterCity keeps districts tagged with the requested city. Districts with
// no city tag at all are kept too; some HOLC exports leave the field blank.
func filterCity(districts []model.District, city string) []model.District {
	var out []model.District
	for _, d := range districts {
		if d.City == "" || strings.EqualFold(d.City, city) {
			out = append(out, d)
		}
	}
	return out
}

// yearTitle appends the year filter to a table title when one is active.
func yearTitle(base string, year int) string {
	if year == 0 {
		return base
	}
	return fmt.Sprintf("%s (%d)", base, year)
}

func shareChart(title, unit string, shares []analysis.GradeShare) string {
	labels := make([]string, len(shares))
	values := make([]float64, len(shares))
	fills := make([]string, len(shares))
	for i, s := range shares {
		labels[i] = s.Grade
		values[i] = s.Percent
		fills[i] = report.GradeFill(s.Grade)
	}
	return report.BarChart(title, unit, labels, values, fills)
}

// reportNotes carries the denominator-policy footnotes and, when the species
// lookup resolved, the most-recorded species.
func reportNotes(rows []model.ObservationDistrictRow, species map[string]string, year int) []string {
	notes := []string{
		"Block percentages divide by the pre-join block count, so a block straddling two districts cannot raise its grade's share twice.",
		"Observation percentages divide by the observations that landed in a graded district; points outside every district are excluded.",
	}
	if top := topSpecies(rows, species, year, 3); top != "" {
		notes = append(notes, "Most recorded species: "+top+".")
	}
	return notes
}

// topSpecies names the n most-recorded species among graded observations,
// falling back to the raw species code when the lookup has no common name.
func topSpecies(rows []model.ObservationDistrictRow, names map[string]string, year, n int) string {
	counts := make(map[string]int)
	for _, r := range rows {
		if r.Grade == "" {
			continue
		}
		if year != 0 && r.Observation.Year != year {
			continue
		}
		counts[r.Observation.Species]++
	}
	if len(counts) == 0 {
		return ""
	}

	type speciesCount struct {
		code string
		n    int
	}
	ranked := make([]speciesCount, 0, len(counts))
	for code, c := range counts {
		ranked = append(ranked, speciesCount{code, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].code < ranked[j].code
	})
	if n > len(ranked) {
		n = len(ranked)
	}

	parts := make([]string, 0, n)
	for _, s := range ranked[:n] {
		label := s.code
		if name, ok := names[s.code]; ok && name != "" {
			label = name
		}
		parts = append(parts, fmt.Sprintf("%s (%d)", label, s.n))
	}
	return strings.Join(parts, ", ")
}

func init() {
	reportCmd.Flags().Int("year", 0, "restrict observations to one year (0 = all years)")
	reportCmd.Flags().String("city", "", "restrict HOLC districts to one city")
	reportCmd.Flags().Int("target-epsg", 0, "shared planar CRS for the analysis")
	reportCmd.Flags().String("out", "", "output directory for report artifacts")
	reportCmd.Flags().StringSlice("formats", nil, "artifact formats (markdown, xlsx, svg)")

	rootCmd.AddCommand(reportCmd)
}
