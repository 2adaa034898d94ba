package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Strategy StrategyConfig `yaml:"strategy"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Web      WebConfig      `yaml:"web"`
	Log      LogConfig      `yaml:"log"`
}

// StrategyConfig controla las dos estrategias de entrada y la simulación de fills.
type StrategyConfig struct {
	UndervaluedThreshold  float64 `yaml:"undervalued_threshold"`   // compra si el precio <= threshold
	MomentumThreshold     float64 `yaml:"momentum_threshold"`      // compra si el precio >= threshold
	OrderSizeShares       float64 `yaml:"order_size_shares"`
	EntryCountdownSeconds int     `yaml:"entry_countdown_seconds"` // cuánto antes del inicio de la ventana se puede entrar
	ExitCountdownSeconds  int     `yaml:"exit_countdown_seconds"`
	SimFillProbability    float64 `yaml:"sim_fill_probability"` // probabilidad de fill por tick en paper mode
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	GammaBase string `yaml:"gamma_base"`
	CLOBBase  string `yaml:"clob_base"`
}

// StorageConfig controla dónde se persiste el journal de órdenes y trades.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// WebConfig controla el servidor del dashboard.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Si el YAML no existe se arranca con los defaults; las variables de entorno
// sobreescriben los valores del archivo para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// Sin archivo de config: defaults + entorno.
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// EntryCountdown devuelve la ventana de entrada como time.Duration.
func (c *Config) EntryCountdown() time.Duration {
	return time.Duration(c.Strategy.EntryCountdownSeconds) * time.Second
}

// ExitCountdown devuelve el margen de salida como time.Duration.
func (c *Config) ExitCountdown() time.Duration {
	return time.Duration(c.Strategy.ExitCountdownSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
// Usa los mismos nombres de variable que la versión original del bot.
func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupFloat("UNDERVALUED_THRESHOLD"); ok {
		cfg.Strategy.UndervaluedThreshold = v
	}
	if v, ok := lookupFloat("MOMENTUM_THRESHOLD"); ok {
		cfg.Strategy.MomentumThreshold = v
	}
	if v, ok := lookupFloat("ORDER_SIZE_SHARES"); ok {
		cfg.Strategy.OrderSizeShares = v
	}
	if v, ok := lookupInt("ENTRY_COUNTDOWN_SECONDS"); ok {
		cfg.Strategy.EntryCountdownSeconds = v
	}
	if v, ok := lookupInt("EXIT_COUNTDOWN_SECONDS"); ok {
		cfg.Strategy.ExitCountdownSeconds = v
	}
	if v, ok := lookupFloat("SIM_FILL_PROBABILITY"); ok {
		cfg.Strategy.SimFillProbability = v
	}
	if v := os.Getenv("GAMMA_API_URL"); v != "" {
		cfg.API.GammaBase = v
	}
	if v := os.Getenv("CLOB_API_URL"); v != "" {
		cfg.API.CLOBBase = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("WEB_ADDR"); v != "" {
		cfg.Web.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// lookupFloat lee una variable de entorno numérica. Valores no parseables se ignoran.
func lookupFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// lookupInt lee una variable de entorno entera. Valores no parseables se ignoran.
func lookupInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Strategy.UndervaluedThreshold <= 0 {
		cfg.Strategy.UndervaluedThreshold = 0.48
	}
	if cfg.Strategy.MomentumThreshold <= 0 {
		cfg.Strategy.MomentumThreshold = 0.52
	}
	if cfg.Strategy.OrderSizeShares <= 0 {
		cfg.Strategy.OrderSizeShares = 10
	}
	if cfg.Strategy.EntryCountdownSeconds <= 0 {
		cfg.Strategy.EntryCountdownSeconds = 1200
	}
	if cfg.Strategy.ExitCountdownSeconds <= 0 {
		cfg.Strategy.ExitCountdownSeconds = 930
	}
	if cfg.Strategy.SimFillProbability <= 0 || cfg.Strategy.SimFillProbability > 1 {
		cfg.Strategy.SimFillProbability = 0.7
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "updownbot.db"
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
