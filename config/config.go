package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del scanner.
// Se construye una vez en main y se pasa por referencia a cada componente;
// ningún paquete hace lookups globales.
type Config struct {
	Bankroll    BankrollConfig    `yaml:"bankroll"`
	PriceWindow PriceWindowConfig `yaml:"price_window"`
	Spread      SpreadConfig      `yaml:"spread"`
	Correlation CorrelationConfig `yaml:"correlation"`
	LockIn      LockInConfig      `yaml:"lock_in"`
	Stability   StabilityConfig   `yaml:"stability"`
	Fees        FeeConfig         `yaml:"fees"`
	Picks       PickLimitsConfig  `yaml:"picks"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Spike       SpikeConfig       `yaml:"spike"`
	API         APIConfig         `yaml:"api"`
	Storage     StorageConfig     `yaml:"storage"`
	Output      OutputConfig      `yaml:"output"`
	Log         LogConfig         `yaml:"log"`
}

// BankrollConfig controla el capital total y los límites por pick.
type BankrollConfig struct {
	TotalUSD        float64 `yaml:"total_usd"`
	MaxPickFraction float64 `yaml:"max_pick_fraction"` // fracción máxima del bankroll por pick
}

// PriceWindowConfig define las ventanas de precio (implied NO ask, en cents)
// para la clasificación en buckets.
type PriceWindowConfig struct {
	PrimaryLow  int `yaml:"primary_low"`
	PrimaryHigh int `yaml:"primary_high"`
	ScanLow     int `yaml:"scan_low"`
	ScanHigh    int `yaml:"scan_high"`
}

// SpreadConfig contiene los umbrales de spread y liquidez.
type SpreadConfig struct {
	MaxSpreadCents     int     `yaml:"max_spread_cents"`
	MinBidRoomPrimary  int     `yaml:"min_bid_room_primary"`
	MinTop3Depth       int     `yaml:"min_top3_depth"`       // debajo de esto: REJECT
	ThinTop3Depth      int     `yaml:"thin_top3_depth"`      // debajo de esto: THIN
	WideExceptionEdge  float64 `yaml:"wide_exception_edge"`  // edge % mínimo para WIDE_EXCEPTION
	WideImprovementMax int     `yaml:"wide_improvement_max"` // mejora > esto: LOW_FILL_PROBABILITY
}

// CorrelationConfig limita picks simultáneos por grupo regional y metro.
type CorrelationConfig struct {
	MaxPerGroup int `yaml:"max_per_group"`
	MaxPerMetro int `yaml:"max_per_metro"`
}

// LockInConfig define los umbrales de lock-in para brackets LOW y HIGH.
type LockInConfig struct {
	SunriseBufferHours float64 `yaml:"sunrise_buffer_hours"`
	PeakBufferHours    float64 `yaml:"peak_buffer_hours"`
	RejectThreshold    float64 `yaml:"reject_threshold"` // P(nuevo extremo) < umbral → reject
}

// StabilityConfig controla la supresión de cambios entre runs del mismo día.
type StabilityConfig struct {
	MinPriceMoveCents int `yaml:"min_price_move_cents"`
}

// FeeConfig es el fee schedule de Kalshi.
// fee = ceil(rate × contratos × P × (1 − P)) con P = precio en dólares.
type FeeConfig struct {
	TakerRate float64 `yaml:"taker_rate"`
	MakerRate float64 `yaml:"maker_rate"`
}

// PickLimitsConfig limita el número de picks PRIMARY por slate.
type PickLimitsConfig struct {
	MaxPrimary int `yaml:"max_primary"`
}

// ScheduleConfig define las horas ET de los runs programados.
type ScheduleConfig struct {
	RunHoursET []int `yaml:"run_hours_et"`
}

// SpikeConfig contiene los umbrales del spike monitor.
type SpikeConfig struct {
	ThresholdCents      int      `yaml:"threshold_cents"`
	WindowSeconds       int      `yaml:"window_seconds"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	BurstCount          int      `yaml:"burst_count"`
	BurstIntervalSecs   int      `yaml:"burst_interval_seconds"`
	CooldownSeconds     int      `yaml:"cooldown_seconds"`
	TrackedCities       []string `yaml:"tracked_cities"`
}

// APIConfig contiene los base URLs de las APIs externas.
type APIConfig struct {
	KalshiBase  string `yaml:"kalshi_base"`
	WeatherBase string `yaml:"weather_base"`
}

// StorageConfig controla dónde se persiste el historial de runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// OutputConfig controla dónde se escriben los artifacts de cada run.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Valida los invariantes de configuración: un valor inválido es fatal antes de
// procesar ningún candidato.
func Load(path string) (*Config, error) {
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
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Default devuelve la configuración por defecto, lista para tests y dry-runs.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

// Validate comprueba los invariantes que deben ser fatales en el arranque.
func (c *Config) Validate() error {
	if c.Bankroll.TotalUSD <= 0 {
		return fmt.Errorf("bankroll.total_usd must be > 0, got %.2f", c.Bankroll.TotalUSD)
	}
	if c.Bankroll.MaxPickFraction <= 0 || c.Bankroll.MaxPickFraction > 1 {
		return fmt.Errorf("bankroll.max_pick_fraction must be in (0,1], got %.2f", c.Bankroll.MaxPickFraction)
	}
	if c.PriceWindow.PrimaryLow > c.PriceWindow.PrimaryHigh {
		return fmt.Errorf("price_window: primary_low %d > primary_high %d", c.PriceWindow.PrimaryLow, c.PriceWindow.PrimaryHigh)
	}
	if c.PriceWindow.ScanLow > c.PriceWindow.PrimaryLow || c.PriceWindow.ScanHigh < c.PriceWindow.PrimaryHigh {
		return fmt.Errorf("price_window: scan window [%d,%d] must contain primary window [%d,%d]",
			c.PriceWindow.ScanLow, c.PriceWindow.ScanHigh, c.PriceWindow.PrimaryLow, c.PriceWindow.PrimaryHigh)
	}
	if c.Correlation.MaxPerGroup <= 0 || c.Correlation.MaxPerMetro <= 0 {
		return fmt.Errorf("correlation caps must be > 0")
	}
	if c.Picks.MaxPrimary <= 0 {
		return fmt.Errorf("picks.max_primary must be > 0, got %d", c.Picks.MaxPrimary)
	}
	if c.Fees.TakerRate < 0 || c.Fees.MakerRate < 0 {
		return fmt.Errorf("fee rates must be >= 0")
	}
	return nil
}

// SpikePollInterval devuelve el intervalo de polling del spike monitor.
func (c *Config) SpikePollInterval() time.Duration {
	return time.Duration(c.Spike.PollIntervalSeconds) * time.Second
}

// SpikeWindow devuelve la ventana de detección de spikes.
func (c *Config) SpikeWindow() time.Duration {
	return time.Duration(c.Spike.WindowSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("WXSLATE_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// Solo rellena valores ausentes (cero): un valor negativo en el YAML no se
// corrige aquí, llega a Validate y es fatal.
func setDefaults(cfg *Config) {
	if cfg.Bankroll.TotalUSD == 0 {
		cfg.Bankroll.TotalUSD = 42.00
	}
	if cfg.Bankroll.MaxPickFraction == 0 {
		cfg.Bankroll.MaxPickFraction = 0.25
	}
	if cfg.PriceWindow.PrimaryLow == 0 {
		cfg.PriceWindow.PrimaryLow = 90
	}
	if cfg.PriceWindow.PrimaryHigh == 0 {
		cfg.PriceWindow.PrimaryHigh = 93
	}
	if cfg.PriceWindow.ScanLow == 0 {
		cfg.PriceWindow.ScanLow = 88
	}
	if cfg.PriceWindow.ScanHigh == 0 {
		cfg.PriceWindow.ScanHigh = 95
	}
	if cfg.Spread.MaxSpreadCents == 0 {
		cfg.Spread.MaxSpreadCents = 6
	}
	if cfg.Spread.MinBidRoomPrimary == 0 {
		cfg.Spread.MinBidRoomPrimary = 2
	}
	if cfg.Spread.MinTop3Depth == 0 {
		cfg.Spread.MinTop3Depth = 5
	}
	if cfg.Spread.ThinTop3Depth == 0 {
		cfg.Spread.ThinTop3Depth = 20
	}
	if cfg.Spread.WideExceptionEdge == 0 {
		cfg.Spread.WideExceptionEdge = 3.0
	}
	if cfg.Spread.WideImprovementMax == 0 {
		cfg.Spread.WideImprovementMax = 6
	}
	if cfg.Correlation.MaxPerGroup == 0 {
		cfg.Correlation.MaxPerGroup = 3
	}
	if cfg.Correlation.MaxPerMetro == 0 {
		cfg.Correlation.MaxPerMetro = 2
	}
	if cfg.LockIn.SunriseBufferHours == 0 {
		cfg.LockIn.SunriseBufferHours = 2.0
	}
	if cfg.LockIn.PeakBufferHours == 0 {
		cfg.LockIn.PeakBufferHours = 2.0
	}
	if cfg.LockIn.RejectThreshold == 0 {
		cfg.LockIn.RejectThreshold = 0.05
	}
	if cfg.Stability.MinPriceMoveCents == 0 {
		cfg.Stability.MinPriceMoveCents = 2
	}
	if cfg.Fees.TakerRate == 0 {
		cfg.Fees.TakerRate = 0.07
	}
	if cfg.Fees.MakerRate == 0 {
		cfg.Fees.MakerRate = 0.0175
	}
	if cfg.Picks.MaxPrimary == 0 {
		cfg.Picks.MaxPrimary = 10
	}
	if len(cfg.Schedule.RunHoursET) == 0 {
		cfg.Schedule.RunHoursET = []int{7, 8, 9}
	}
	if cfg.Spike.ThresholdCents == 0 {
		cfg.Spike.ThresholdCents = 15
	}
	if cfg.Spike.WindowSeconds == 0 {
		cfg.Spike.WindowSeconds = 360
	}
	if cfg.Spike.PollIntervalSeconds == 0 {
		cfg.Spike.PollIntervalSeconds = 30
	}
	if cfg.Spike.BurstCount == 0 {
		cfg.Spike.BurstCount = 5
	}
	if cfg.Spike.BurstIntervalSecs == 0 {
		cfg.Spike.BurstIntervalSecs = 60
	}
	if cfg.Spike.CooldownSeconds == 0 {
		cfg.Spike.CooldownSeconds = 600
	}
	if cfg.API.KalshiBase == "" {
		cfg.API.KalshiBase = "https://api.elections.kalshi.com/trade-api/v2"
	}
	if cfg.API.WeatherBase == "" {
		cfg.API.WeatherBase = "https://api.weather.gov"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "wxslate.db"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
