// Package report renders the analysis outputs: fixed-width terminal tables,
// a markdown document, an xlsx workbook, SVG choropleth maps and bar charts,
// and a yaml run manifest describing what went in and what came out.
package report

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// InputFile records one source dataset as the run saw it.
type InputFile struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Features int    `yaml:"features"`
	SRID     int    `yaml:"srid"`
}

// Manifest is the machine-readable record of one report run, written next
// to the report outputs.
type Manifest struct {
	RunID        string            `yaml:"run_id"`
	GeneratedAt  time.Time         `yaml:"generated_at"`
	City         string            `yaml:"city"`
	Year         int               `yaml:"year,omitempty"`
	TargetEPSG   int               `yaml:"target_epsg"`
	Inputs       []InputFile       `yaml:"inputs"`
	Validity     map[string]string `yaml:"validity,omitempty"`
	Denominators map[string]string `yaml:"denominators,omitempty"`
	Outputs      []string          `yaml:"outputs"`
}

// NewManifest starts a manifest with a fresh run ID and UTC timestamp.
func NewManifest(city string, year, targetEPSG int) Manifest {
	return Manifest{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		City:        city,
		Year:        year,
		TargetEPSG:  targetEPSG,
	}
}

// WriteManifest marshals the manifest to yaml at the given path.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "report: marshal manifest")
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "report: write manifest %s", path)
}
