package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	CRS      CRSConfig      `yaml:"crs" mapstructure:"crs"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the source datasets. Empty path overrides resolve to
// well-known filenames under Dir, the same names the fetch command writes.
type DataConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	EJGPKG      string `yaml:"ej_gpkg" mapstructure:"ej_gpkg"`
	EJLayer     string `yaml:"ej_layer" mapstructure:"ej_layer"`
	HOLCGeoJSON string `yaml:"holc_geojson" mapstructure:"holc_geojson"`
	BirdsSHP    string `yaml:"birds_shp" mapstructure:"birds_shp"`
	SpeciesCSV  string `yaml:"species_csv" mapstructure:"species_csv"`
}

// EJGPKGPath returns the configured GeoPackage path or its default under Dir.
func (d DataConfig) EJGPKGPath() string {
	if d.EJGPKG != "" {
		return d.EJGPKG
	}
	return filepath.Join(d.Dir, "ejscreen_la.gpkg")
}

// HOLCGeoJSONPath returns the configured HOLC GeoJSON path or its default.
func (d DataConfig) HOLCGeoJSONPath() string {
	if d.HOLCGeoJSON != "" {
		return d.HOLCGeoJSON
	}
	return filepath.Join(d.Dir, "holc_la.geojson")
}

// BirdsSHPPath returns the configured observation shapefile path or its default.
func (d DataConfig) BirdsSHPPath() string {
	if d.BirdsSHP != "" {
		return d.BirdsSHP
	}
	return filepath.Join(d.Dir, "bird_observations.shp")
}

// SpeciesCSVPath returns the configured species lookup path or its default.
// The lookup is optional; callers tolerate the file being absent.
func (d DataConfig) SpeciesCSVPath() string {
	if d.SpeciesCSV != "" {
		return d.SpeciesCSV
	}
	return filepath.Join(d.Dir, "species_codes.csv")
}

// CRSConfig names the shared planar CRS for the analysis.
type CRSConfig struct {
	Target int `yaml:"target" mapstructure:"target"`
}

// AnalysisConfig holds the city/year filters and choropleth bin edges.
type AnalysisConfig struct {
	City   string `yaml:"city" mapstructure:"city"`
	Year   int    `yaml:"year" mapstructure:"year"`
	Breaks []int  `yaml:"breaks" mapstructure:"breaks"`
}

// FetchConfig configures the dataset downloader.
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RateLimit   float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
}

// OutputConfig configures where and in which formats reports are written.
type OutputConfig struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"`
	Formats []string `yaml:"formats" mapstructure:"formats"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. With a non-empty path
// the named file must exist; otherwise config.yaml in the working directory
// is read when present.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.redline")
	}

	// Environment
	v.SetEnvPrefix("REDLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.ej_layer", "ejscreen")
	v.SetDefault("crs.target", 3310)
	v.SetDefault("analysis.city", "Los Angeles")
	v.SetDefault("analysis.year", 2022)
	v.SetDefault("analysis.breaks", []int{0, 51, 151, 251, 350})
	v.SetDefault("fetch.timeout", "120s")
	v.SetDefault("fetch.rate_limit", 2.0)
	v.SetDefault("fetch.concurrency", 3)
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.formats", []string{"markdown", "xlsx", "svg"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional unless explicitly named)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields the given command depends on. Modes are the
// subcommand names: fetch, status, validate, report.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Data.Dir == "" && c.Data.EJGPKG == "" {
		problems = append(problems, "data.dir is required")
	}

	switch mode {
	case "fetch":
		if c.Fetch.Concurrency < 1 || c.Fetch.Concurrency > 16 {
			problems = append(problems, "fetch.concurrency must be between 1 and 16")
		}
		if c.Fetch.RateLimit <= 0 {
			problems = append(problems, "fetch.rate_limit must be > 0")
		}
		if c.Fetch.Timeout <= 0 {
			problems = append(problems, "fetch.timeout must be > 0")
		}
	case "status", "validate":
		// Only the data paths matter, checked above.
	case "report":
		if c.CRS.Target <= 0 {
			problems = append(problems, "crs.target must be a positive EPSG code")
		}
		if c.Analysis.Year < 0 {
			problems = append(problems, "analysis.year must be >= 0 (0 means all years)")
		}
		if len(c.Analysis.Breaks) < 2 {
			problems = append(problems, "analysis.breaks needs at least 2 edges")
		}
		for i := 1; i < len(c.Analysis.Breaks); i++ {
			if c.Analysis.Breaks[i] <= c.Analysis.Breaks[i-1] {
				problems = append(problems, "analysis.breaks must be strictly ascending")
				break
			}
		}
		if c.Output.Dir == "" {
			problems = append(problems, "output.dir is required")
		}
		for _, f := range c.Output.Formats {
			switch f {
			case "markdown", "xlsx", "svg":
			default:
				problems = append(problems, "output.formats entries must be markdown, xlsx, or svg")
			}
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
