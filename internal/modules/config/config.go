package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	// путь, из которого прочитан конфиг (нужен viper-провайдеру)
	Path string `yaml:"-"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host      string `yaml:"host"`
		AdminPort int    `yaml:"admin_port"`
	} `yaml:"service"`
	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Runner struct {
		Cron        string        `yaml:"cron"`
		RunOnStart  bool          `yaml:"run_on_start"`
		BarsDir     string        `yaml:"bars_dir"`
		MaxBars     int           `yaml:"max_bars"`
		Parallelism int           `yaml:"parallelism"`
		MaxLagBars  int           `yaml:"max_lag_bars"`
		Timeout     time.Duration `yaml:"timeout"` // дедлайн одного прохода по всем монетам
	} `yaml:"runner"`

	Strategy StrategySettings `yaml:"strategy_settings"`
	Risk     RiskSettings     `yaml:"risk_settings"`
	Coins    []Coin           `yaml:"coins"`
}

type StrategySettings struct {
	Name    string `yaml:"strategy_name"`
	MinBars int    `yaml:"minimum_bars_for_strategy_calculation"`

	// z2 должен быть на текущем баре или не дальше Z2Offset баров назад
	Z2Offset      int  `yaml:"z2_index_offset"`
	Z2ExactOffset bool `yaml:"z2_exact_offset"`

	ZigZagDepth     int     `yaml:"zigzag_depth"`
	ZigZagDeviation float64 `yaml:"zigzag_deviation"` // в процентах, 1.0 => 1%
	ZigZagBackstep  int     `yaml:"zigzag_backstep"`
	ATRPeriod       int     `yaml:"atr_period"`
	ATRMult         float64 `yaml:"atr_mult"`

	GoldenLevel     float64 `yaml:"golden_level"`
	StopLossLevel   float64 `yaml:"stop_loss_level"`
	TakeProfitLevel float64 `yaml:"take_profit_level"`
	EntryAtLevel    bool    `yaml:"entry_at_level"`

	LiveEnabled bool `yaml:"live_enabled"`
	DryRun      bool `yaml:"dry_run"`

	// меньше на счёте: сигналы не считаем, 0 = выкл
	MinBalanceUSDT float64 `yaml:"min_balance_usdt"`

	FibonacciLevels []FiboLevel `yaml:"fibonacci_levels"`
}

// FiboLevel уровень из FIBONACCI_LEVELS: ratio + флаги tp/sl.
type FiboLevel struct {
	Level     float64 `yaml:"level"`
	Volume    float64 `yaml:"volume"`
	TP        bool    `yaml:"tp"`
	SL        bool    `yaml:"sl"`
	TPToBreak bool    `yaml:"tp_to_break"`
}

type RiskSettings struct {
	// Сколько от депозита теряем по СТОПУ: 1.0 => 1% equity
	RiskPct        float64  `yaml:"risk_pct"`
	MaxPositions   int      `yaml:"max_positions"`
	MaxNotional    float64  `yaml:"max_notional"`
	MaxRiskPct     float64  `yaml:"max_risk_pct"` // потолок notional от баланса, 0 = выкл
	AllowedSymbols []string `yaml:"allowed_symbols"`
}

// Coin одна торгуемая пара (элемент COINS).
type Coin struct {
	Symbol           string  `yaml:"symbol"`
	Timeframe        string  `yaml:"timeframe"`
	AutoTrading      bool    `yaml:"auto_trading"`
	StartDepositUSDT float64 `yaml:"start_deposit_usdt"`
	Leverage         int     `yaml:"leverage"`
	MinimalTickSize  float64 `yaml:"minimal_tick_size"`
	VolumeSize       float64 `yaml:"volume_size"` // минимальный объём ордера
	LotSize          float64 `yaml:"lot_size"`
	CtVal            float64 `yaml:"ct_val"`
	MaxMktSize       float64 `yaml:"max_mkt_size"`
	BarsFile         string  `yaml:"bars_file"`
}

// Pair "BTC" -> "BTC/USDT".
func (c Coin) Pair() string {
	s := strings.ToUpper(strings.TrimSpace(c.Symbol))
	if strings.Contains(s, "/") {
		return s
	}
	return s + "/USDT"
}

func defaultConfig() Config {
	cfg := Config{
		Strategy: StrategySettings{
			Name:            getenvDefault("STRATEGY_NAME", "zigzag_fibo"),
			MinBars:         intFromEnv("MIN_BARS", 50),
			Z2Offset:        intFromEnv("Z2_INDEX_OFFSET", 3),
			ZigZagDepth:     12,
			ZigZagDeviation: 5,
			ZigZagBackstep:  3,
			ATRPeriod:       14,
			GoldenLevel:     0.786,
			StopLossLevel:   1.0,
			TakeProfitLevel: -0.272,
			DryRun:          boolFromEnv("DRY_RUN", true),
		},
		Risk: RiskSettings{
			RiskPct:      floatFromEnv("RISK_PCT", 1.0),
			MaxPositions: intFromEnv("MAX_OPEN_POSITIONS", 1),
		},
	}
	cfg.Logging.Level = getenvDefault("LOG_LEVEL", "info")
	cfg.Service.AdminPort = intFromEnv("ADMIN_PORT", 8080)
	cfg.Runner.Cron = getenvDefault("RUNNER_CRON", "0 * * * * *")
	cfg.Runner.BarsDir = getenvDefault("BARS_DIR", "data")
	cfg.Runner.MaxBars = intFromEnv("RUNNER_MAX_BARS", 500)
	cfg.Runner.Parallelism = intFromEnv("RUNNER_PARALLELISM", 4)
	cfg.Runner.Timeout = durationFromEnv("RUNNER_TIMEOUT", "30s")
	return cfg
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	return LoadConfig(filepath.Join(getenvDefault(configDirENV, "configs"), configFileName))
}

// LoadConfig читает yaml, накладывает env и валидирует.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config file")
	}
	defer func() {
		_ = file.Close()
	}()

	config := defaultConfig()
	if err = yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}
	config.Path = path

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if v := os.Getenv(chatTelegramENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ValidationError собирает все проблемы конфига разом.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Problems, "\n- ")
}

func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	s := c.Strategy
	if s.MinBars < 0 {
		add("strategy_settings.minimum_bars_for_strategy_calculation must be >= 0")
	}
	if s.Z2Offset < 0 {
		add("strategy_settings.z2_index_offset must be >= 0")
	}
	if s.ZigZagDepth < 1 {
		add("strategy_settings.zigzag_depth must be >= 1")
	}
	if s.ZigZagBackstep < 0 {
		add("strategy_settings.zigzag_backstep must be >= 0")
	}
	// пивот подтверждается только через backstep баров, z2 моложе не бывает
	if s.Z2Offset >= 0 && s.Z2Offset < s.ZigZagBackstep {
		add("strategy_settings.z2_index_offset (%d) must be >= zigzag_backstep (%d), otherwise every swing is stale",
			s.Z2Offset, s.ZigZagBackstep)
	}
	if s.ZigZagDeviation < 0 || s.ATRMult < 0 {
		add("strategy_settings.zigzag_deviation/atr_mult must be >= 0")
	}
	if s.GoldenLevel <= 0 || s.GoldenLevel >= 1 {
		add("strategy_settings.golden_level must be in (0,1), got %v", s.GoldenLevel)
	}
	if s.StopLossLevel <= s.GoldenLevel {
		add("strategy_settings.stop_loss_level must be beyond golden_level")
	}
	if s.TakeProfitLevel >= s.GoldenLevel {
		add("strategy_settings.take_profit_level must be below golden_level")
	}
	if s.MinBalanceUSDT < 0 {
		add("strategy_settings.min_balance_usdt must be >= 0")
	}
	for j, lvl := range s.FibonacciLevels {
		if lvl.Volume < 0 || lvl.Volume > 1 {
			add("strategy_settings.fibonacci_levels[%d].volume must be in [0,1]", j)
		}
	}

	if c.Risk.RiskPct <= 0 || c.Risk.RiskPct > 100 {
		add("risk_settings.risk_pct must be in (0,100]")
	}
	if c.Risk.MaxPositions < 0 {
		add("risk_settings.max_positions must be >= 0")
	}

	if len(c.Coins) == 0 {
		add("coins must not be empty")
	}
	for i, coin := range c.Coins {
		if strings.TrimSpace(coin.Symbol) == "" {
			add("coins[%d]: symbol is required", i)
		}
		if strings.TrimSpace(coin.Timeframe) == "" {
			add("coins[%d] (%s): timeframe must be a non-empty string", i, coin.Symbol)
		}
		if coin.Leverage < 0 || coin.MinimalTickSize < 0 || coin.LotSize < 0 || coin.CtVal < 0 {
			add("coins[%d] (%s): leverage/minimal_tick_size/lot_size/ct_val must not be negative", i, coin.Symbol)
		}
		if coin.VolumeSize < 0 {
			add("coins[%d] (%s): volume_size must not be negative", i, coin.Symbol)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		add("logging.level %q is not one of debug|info|warn|error", c.Logging.Level)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
