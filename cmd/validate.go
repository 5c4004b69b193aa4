package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	geom "github.com/twpayne/go-geom"

	"github.com/cityecology/redline/internal/dataset"
	"github.com/cityecology/redline/internal/spatial"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check HOLC district polygons for validity",
	Long: "Loads the HOLC district GeoJSON and runs a simple-features validity " +
		"check over every polygon. Failures are reported, never repaired. With " +
		"--strict any invalid polygon makes the command exit non-zero.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("validate"); err != nil {
			return err
		}
		strict, _ := cmd.Flags().GetBool("strict")

		path := cfg.Data.HOLCGeoJSONPath()
		districts, srid, err := dataset.ReadHOLCGeoJSON(path)
		if err != nil {
			return err
		}

		geoms := make([]geom.T, len(districts))
		ids := make([]string, len(districts))
		for i, d := range districts {
			geoms[i] = d.Geom
			ids[i] = d.ID
		}

		v := spatial.CheckValidity(geoms, ids)

		fmt.Println("=== HOLC Polygon Validity ===")
		fmt.Println()
		fmt.Printf("%-10s %s\n", "File:", path)
		fmt.Printf("%-10s EPSG:%d\n", "SRID:", srid)
		fmt.Printf("%-10s %d\n", "Polygons:", v.Checked)
		fmt.Printf("%-10s %s\n", "Result:", v.Message)

		if len(v.Failures) > 0 {
			fmt.Println()
			fmt.Println("Failures:")
			for _, f := range v.Failures {
				fmt.Printf("  %s\n", f)
			}
		}

		if strict && !v.Valid {
			return eris.Errorf("validate: %d invalid polygon(s)", v.Invalid)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("strict", false, "exit non-zero when any polygon is invalid")

	rootCmd.AddCommand(validateCmd)
}
