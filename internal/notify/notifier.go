package notify

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"fibo_bot/internal/models"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// StatusFunc отдаёт текст для команды /status.
type StatusFunc func() string

// Telegram пассивный нотифайер + команда /status.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	log    *zap.Logger
	status StatusFunc
}

func NewTelegram(token string, chatID int64, log *zap.Logger) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot api")
	}
	return &Telegram{bot: b, chatID: chatID, log: log}, nil
}

func (t *Telegram) SetStatus(fn StatusFunc) { t.status = fn }

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		t.log.Warn("telegram send failed", zap.Error(err))
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// Start long-polling, отвечаем только своему чату.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				switch upd.Message.Command() {
				case "status":
					if t.status != nil {
						t.Send(t.status())
					}
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}

// Log заглушка без токена: пишет сообщения в лог.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log               { return &Log{log: log} }
func (l *Log) Send(msg string)                  { l.log.Info("notify", zap.String("msg", msg)) }
func (l *Log) Sendf(format string, args ...any) { l.Send(fmt.Sprintf(format, args...)) }

// FormatSignal текст сообщения о входе.
func FormatSignal(o models.SignalOutcome, verdict string) string {
	if !o.IsEntry() {
		return fmt.Sprintf("%s %s: нет сигнала (%s)", o.Symbol, o.Timeframe, o.Reason)
	}

	emoji := "🟢"
	if o.Direction == models.DirectionShort {
		emoji = "🔴"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s [%s]\n", emoji, o.Direction, o.Symbol, o.Timeframe)
	fmt.Fprintf(&b, "Вход: %s\n", fmtPrice(o.Entry))
	fmt.Fprintf(&b, "SL: %s\n", fmtPrice(o.StopLoss))
	fmt.Fprintf(&b, "TP: %s\n", fmtPrice(o.TakeProfit))
	fmt.Fprintf(&b, "Объём: %s\n", fmtPrice(o.Quantity))
	for _, tg := range o.Targets {
		fmt.Fprintf(&b, "  цель %.3f → %s", tg.Level, fmtPrice(tg.Price))
		if tg.Volume > 0 {
			fmt.Fprintf(&b, " (%.0f%%)", tg.Volume*100)
		}
		b.WriteString("\n")
	}
	if o.Z2Time != nil {
		fmt.Fprintf(&b, "z2: %s\n", o.Z2Time.UTC().Format("2006-01-02 15:04"))
	}

	switch {
	case verdict == "ok":
		b.WriteString("✅ к исполнению")
	case verdict != "":
		fmt.Fprintf(&b, "ℹ️ только сигнал: %s", verdict)
	}
	return strings.TrimRight(b.String(), "\n")
}

func fmtPrice(v float64) string {
	s := fmt.Sprintf("%.8f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
