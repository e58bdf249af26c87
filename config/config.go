package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del advisor.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Data    DataConfig    `yaml:"data"`
	Scoring ScoringConfig `yaml:"scoring"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// CatalogConfig apunta al artefacto de carteras modelo.
type CatalogConfig struct {
	Path            string  `yaml:"path"`             // vacío = catálogo embebido
	WeightTolerance float64 `yaml:"weight_tolerance"` // 0 = la del archivo
}

// Fuentes de datos soportadas.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// Unidades de las estadísticas en origen.
const (
	UnitsFraction = "fraction"
	UnitsPercent  = "percent"
)

// DataConfig controla de dónde salen estadísticas y backtests.
type DataConfig struct {
	Source     string            `yaml:"source"`      // csv | sqlite
	SQLitePath string            `yaml:"sqlite_path"` // usado con source=sqlite y por -import
	StatsUnits string            `yaml:"stats_units"` // fraction | percent
	Stats      StatsPaths        `yaml:"stats"`
	Backtests  map[string]string `yaml:"backtests"` // "<risk>_<horizon>" → archivo
	Cache      *bool             `yaml:"cache"`
}

// StatsPaths tiene un archivo de estadísticas por horizonte.
type StatsPaths struct {
	Short string `yaml:"short"`
	Long  string `yaml:"long"`
}

// ScoringConfig controla la validación de respuestas.
type ScoringConfig struct {
	// Strict=true: respuestas fuera de dominio son error explícito.
	// Strict=false: aportan 0 al score, como el formulario original.
	Strict *bool `yaml:"strict"`
}

// ServerConfig controla la API HTTP.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	RatePerSec     float64  `yaml:"rate_per_sec"`
	Burst          int      `yaml:"burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un archivo de configuración ausente no es error: se usan los defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate comprueba los valores enumerados.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceCSV, SourceSQLite:
	default:
		return fmt.Errorf("data.source must be %q or %q, got %q", SourceCSV, SourceSQLite, c.Data.Source)
	}
	switch c.Data.StatsUnits {
	case UnitsFraction, UnitsPercent:
	default:
		return fmt.Errorf("data.stats_units must be %q or %q, got %q", UnitsFraction, UnitsPercent, c.Data.StatsUnits)
	}
	if c.Catalog.WeightTolerance < 0 {
		return fmt.Errorf("catalog.weight_tolerance must not be negative")
	}
	return nil
}

// BacktestPath devuelve el archivo de backtest para (risk, horizon), o "".
func (c *Config) BacktestPath(risk, horizon string) string {
	return c.Data.Backtests[BacktestKey(risk, horizon)]
}

// BacktestKey es la clave de Data.Backtests: "<risk>_<horizon>".
func BacktestKey(risk, horizon string) string {
	return strings.ToLower(risk) + "_" + strings.ToLower(horizon)
}

// StatsPath devuelve el archivo de estadísticas del horizonte, o "".
func (c *Config) StatsPath(horizon string) string {
	switch strings.ToLower(horizon) {
	case "short":
		return c.Data.Stats.Short
	case "long":
		return c.Data.Stats.Long
	}
	return ""
}

// StrictScoring devuelve scoring.strict (default true).
func (c *Config) StrictScoring() bool {
	return c.Scoring.Strict == nil || *c.Scoring.Strict
}

// CacheEnabled devuelve data.cache (default true).
func (c *Config) CacheEnabled() bool {
	return c.Data.Cache == nil || *c.Data.Cache
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ADVISOR_DATA_SOURCE"); v != "" {
		cfg.Data.Source = v
	}
	if v := os.Getenv("ADVISOR_SQLITE_PATH"); v != "" {
		cfg.Data.SQLitePath = v
	}
	if v := os.Getenv("ADVISOR_CATALOG"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("ADVISOR_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Data.Source == "" {
		cfg.Data.Source = SourceCSV
	}
	if cfg.Data.SQLitePath == "" {
		cfg.Data.SQLitePath = "data/riskfolio.db"
	}
	if cfg.Data.StatsUnits == "" {
		cfg.Data.StatsUnits = UnitsFraction
	}
	if cfg.Data.Stats.Short == "" {
		cfg.Data.Stats.Short = "data/stats_short.csv"
	}
	if cfg.Data.Stats.Long == "" {
		cfg.Data.Stats.Long = "data/stats_long.csv"
	}
	if cfg.Data.Backtests == nil {
		cfg.Data.Backtests = make(map[string]string)
	}
	for _, risk := range []string{"conservative", "neutral", "aggressive"} {
		for _, horizon := range []string{"short", "long"} {
			key := BacktestKey(risk, horizon)
			if cfg.Data.Backtests[key] == "" {
				cfg.Data.Backtests[key] = fmt.Sprintf("data/backtest_%s.csv", key)
			}
		}
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RatePerSec <= 0 {
		cfg.Server.RatePerSec = 20
	}
	if cfg.Server.Burst <= 0 {
		cfg.Server.Burst = 40
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
