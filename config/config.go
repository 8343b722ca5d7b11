package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/lotwatch/internal/domain"
)

// Config es la configuración completa del motor analítico.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig controla el scheduler y los pases analíticos.
type EngineConfig struct {
	TickSeconds         int     `yaml:"tick_seconds"`          // pulso base del scheduler
	SlowCadence         int     `yaml:"slow_cadence"`          // las vistas 2h/24h refrescan cada N ticks
	HistoryWindowDays   int     `yaml:"history_window_days"`   // baseline anual de ventas
	RecentWindowDays    int     `yaml:"recent_window_days"`    // ventana reciente de ventas
	VelocityWindowHours int     `yaml:"velocity_window_hours"` // ventana trailing de price ticks
	Workers             int     `yaml:"workers"`               // goroutines del pool (0 = NumCPU×2)
	CompsPerSecond      float64 `yaml:"comps_per_second"`      // rate limit de búsquedas de comps (0 = sin límite)
	TopSegments         int     `yaml:"top_segments"`          // segmentos en el readout

	Weights domain.HotnessWeights `yaml:"weights"`
}

// StorageConfig controla dónde se persiste el inventario.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// MetricsConfig controla el endpoint Prometheus.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // ej. ":9090"; vacío = deshabilitado
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// TickInterval devuelve el pulso base como time.Duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Engine.TickSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LOTWATCH_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.TickSeconds <= 0 {
		cfg.Engine.TickSeconds = 15
	}
	if cfg.Engine.SlowCadence <= 0 {
		cfg.Engine.SlowCadence = 4
	}
	if cfg.Engine.HistoryWindowDays <= 0 {
		cfg.Engine.HistoryWindowDays = 365
	}
	if cfg.Engine.RecentWindowDays <= 0 {
		cfg.Engine.RecentWindowDays = 30
	}
	if cfg.Engine.VelocityWindowHours <= 0 {
		cfg.Engine.VelocityWindowHours = 24
	}
	if cfg.Engine.TopSegments <= 0 {
		cfg.Engine.TopSegments = 10
	}
	if cfg.Engine.Weights == (domain.HotnessWeights{}) {
		cfg.Engine.Weights = domain.DefaultHotnessWeights()
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "lotwatch.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
