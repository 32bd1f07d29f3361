package main

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fibo_bot/internal/models"
	barsource "fibo_bot/internal/modules/barsource/service"
	"fibo_bot/internal/modules/config"
	strategy "fibo_bot/internal/modules/strategy/service"
	"fibo_bot/pkg/logger"
)

type result struct {
	models.SignalOutcome
	Executable bool   `json:"executable"`
	Verdict    string `json:"verdict,omitempty"`
}

var rootCmd = &cobra.Command{
	Use:   "signal",
	Short: "Evaluate the zigzag fibo strategy on a CSV of bars",
	Long: `Loads the bot config, reads closed bars for one coin from CSV and prints
the strategy outcome as JSON. With --scan every bar of the file is evaluated
as if it were the current one and only entries are printed.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		symbol, _ := cmd.Flags().GetString("symbol")
		barsPath, _ := cmd.Flags().GetString("bars")
		balance, _ := cmd.Flags().GetFloat64("balance")
		scan, _ := cmd.Flags().GetBool("scan")
		level, _ := cmd.Flags().GetString("log-level")
		dump, _ := cmd.Flags().GetString("dump-bars")

		log, err := logger.Init(level)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		settings, err := config.NewSettings(cfg)
		if err != nil {
			return err
		}

		coin, err := findCoin(cfg, symbol)
		if err != nil {
			return err
		}
		if balance <= 0 {
			balance = coin.StartDepositUSDT
		}

		strat, err := strategy.NewStrategy(cfg, coin, settings, log)
		if err != nil {
			return err
		}

		src := barsource.NewCSVSource(cfg.Runner.BarsDir, 0).WithFile(coin.Pair(), coin.BarsFile)
		if barsPath != "" {
			src.WithFile(coin.Pair(), barsPath)
		}
		bars, err := src.Bars(cmd.Context(), coin.Pair(), strat.Config().Timeframe)
		if err != nil {
			return err
		}
		log.Debug("bars loaded", zap.String("symbol", coin.Pair()), zap.Int("count", len(bars)))
		if dump != "" {
			if err := dumpBars(dump, bars); err != nil {
				return err
			}
		}

		limits := strategy.LimitsFor(cfg)
		evaluate := func(window models.Bars) (result, error) {
			last, _ := window.Last()
			tc := models.TradingContext{
				Symbol:           coin.Pair(),
				Timeframe:        strat.Config().Timeframe,
				AvailableBalance: balance,
				Now:              last.Time,
			}
			out, err := strat.Run(window, nil, tc)
			if err != nil {
				return result{}, err
			}
			res := result{SignalOutcome: out}
			if out.IsEntry() {
				res.Executable, res.Verdict = strategy.CanExecute(strat.Live(), out, nil, tc, limits)
			}
			return res, nil
		}

		enc := sonic.ConfigStd.NewEncoder(cmd.OutOrStdout())
		if !scan {
			res, err := evaluate(bars)
			if err != nil {
				return err
			}
			return enc.Encode(res)
		}

		from := max(strat.Config().MinBars, 2)
		for i := from; i <= len(bars); i++ {
			res, err := evaluate(bars[:i])
			if err != nil {
				return err
			}
			if !res.IsEntry() {
				continue
			}
			if err := enc.Encode(res); err != nil {
				return err
			}
		}
		return nil
	},
}

// dumpBars пишет разобранные бары обратно в CSV с нормализованным timestamp.
func dumpBars(path string, bars models.Bars) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create dump file")
	}
	if err := barsource.WriteBars(f, bars); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func findCoin(cfg *config.Config, symbol string) (config.Coin, error) {
	if symbol == "" {
		return cfg.Coins[0], nil
	}
	want := config.Coin{Symbol: symbol}.Pair()
	for _, c := range cfg.Coins {
		if c.Pair() == want {
			return c, nil
		}
	}
	return config.Coin{}, errors.Errorf("coin %s is not in config", symbol)
}

func main() {
	rootCmd.Flags().StringP("config", "c", "configs/values_local.yaml", "Path to the bot yaml config.")
	rootCmd.Flags().StringP("symbol", "s", "", "Coin symbol from the config, e.g. BTC. Defaults to the first coin.")
	rootCmd.Flags().StringP("bars", "b", "", "CSV file with timestamp,open,high,low,close columns. Defaults to the coin bars_file.")
	rootCmd.Flags().Float64("balance", 0, "Available balance in USDT. Defaults to start_deposit_usdt of the coin.")
	rootCmd.Flags().Bool("scan", false, "Evaluate every bar of the file and print entries only.")
	rootCmd.Flags().String("dump-bars", "", "Write the parsed bars to this CSV file before evaluating.")
	rootCmd.Flags().String("log-level", "warn", "Log level: debug|info|warn|error.")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
