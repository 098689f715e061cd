package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del maker.
type Config struct {
	Maker    MakerConfig    `yaml:"maker"`
	Markets  []MarketConfig `yaml:"markets"`
	API      APIConfig      `yaml:"api"`
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// MakerConfig controla el loop de monitoreo.
type MakerConfig struct {
	IntervalSeconds    int     `yaml:"interval_seconds"`
	SettlePauseMillis  int     `yaml:"settle_pause_millis"`  // espera tras cancelar antes de re-colocar
	StartupPauseMillis int     `yaml:"startup_pause_millis"` // pausa entre placements iniciales
	MinProtection      float64 `yaml:"min_protection"`       // umbral global, overrideable por mercado
	OrderAmount        float64 `yaml:"order_amount"`         // notional global en quote
	MaxRank            int     `yaml:"max_rank"`             // 0 = sin límite
}

// MarketConfig son los parámetros de un mercado a cubrir. Los campos en
// cero heredan los globales de MakerConfig.
type MarketConfig struct {
	MarketID      int64   `yaml:"market_id"`
	MinProtection float64 `yaml:"min_protection"`
	OrderAmount   float64 `yaml:"order_amount"`
	MaxRank       int     `yaml:"max_rank"`
}

// APIConfig contiene la conexión al venue.
type APIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"-"` // solo por env: OPINION_APIKEY
	WalletAddr  string `yaml:"-"` // OPINION_WALLET_ADDRESS
	WalletAlias string `yaml:"-"` // OPINION_WALLET_ALIAS
}

// TelegramConfig controla las alertas. Token y chat ID van por env.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"-"` // TELEGRAM_BOT_TOKEN
	ChatID   string `yaml:"-"` // TELEGRAM_CHAT_ID
}

// StorageConfig controla dónde se persiste el journal de órdenes.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los secretos (API key, token de Telegram) viven solo en variables de entorno.
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rechaza configuraciones con las que el maker no puede operar.
func (c *Config) Validate() error {
	if c.API.APIKey == "" {
		return fmt.Errorf("config.Validate: OPINION_APIKEY is not set")
	}
	if len(c.Markets) == 0 {
		return fmt.Errorf("config.Validate: no markets configured")
	}
	for i, m := range c.Markets {
		if m.MarketID <= 0 {
			return fmt.Errorf("config.Validate: markets[%d]: market_id must be positive", i)
		}
		if c.Maker.MinProtection <= 0 && m.MinProtection <= 0 {
			return fmt.Errorf("config.Validate: markets[%d]: min_protection must be positive", i)
		}
		if c.Maker.OrderAmount <= 0 && m.OrderAmount <= 0 {
			return fmt.Errorf("config.Validate: markets[%d]: order_amount must be positive", i)
		}
	}
	return nil
}

// PollInterval devuelve el periodo del tick como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Maker.IntervalSeconds) * time.Second
}

// SettlePause devuelve la espera post-cancel como time.Duration.
func (c *Config) SettlePause() time.Duration {
	return time.Duration(c.Maker.SettlePauseMillis) * time.Millisecond
}

// StartupPause devuelve la pausa entre placements iniciales.
func (c *Config) StartupPause() time.Duration {
	return time.Duration(c.Maker.StartupPauseMillis) * time.Millisecond
}

// ResolvedMarket completa los campos en cero de un mercado con los
// valores globales.
func (c *Config) ResolvedMarket(m MarketConfig) MarketConfig {
	if m.MinProtection <= 0 {
		m.MinProtection = c.Maker.MinProtection
	}
	if m.OrderAmount <= 0 {
		m.OrderAmount = c.Maker.OrderAmount
	}
	if m.MaxRank <= 0 {
		m.MaxRank = c.Maker.MaxRank
	}
	return m
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPINION_APIKEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("OPINION_WALLET_ADDRESS"); v != "" {
		cfg.API.WalletAddr = v
	}
	if v := os.Getenv("OPINION_WALLET_ALIAS"); v != "" {
		cfg.API.WalletAlias = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Maker.IntervalSeconds <= 0 {
		cfg.Maker.IntervalSeconds = 1
	}
	if cfg.Maker.SettlePauseMillis <= 0 {
		cfg.Maker.SettlePauseMillis = 500
	}
	if cfg.Maker.StartupPauseMillis <= 0 {
		cfg.Maker.StartupPauseMillis = 1000
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://proxy.opinion.trade:8443"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "solomaker.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
