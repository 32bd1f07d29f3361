package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"fibo_bot/internal/models"
)

// ErrNoBars файл есть, но строк в нём нет.
var ErrNoBars = errors.New("no bars")

// Source отдаёт закрытые бары по символу и таймфрейму.
type Source interface {
	Bars(ctx context.Context, symbol, timeframe string) (models.Bars, error)
}

// barRow: строка выгрузки: timestamp,open,high,low,close. Лишние колонки игнорируются.
type barRow struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
}

// CSVSource читает бары из файлов <dir>/<BASE>_<tf>.csv, например data/BTC_1h.csv.
type CSVSource struct {
	dir   string
	files map[string]string // symbol -> явный путь из конфига
	limit int               // хвост серии, 0 = всё
}

func NewCSVSource(dir string, limit int) *CSVSource {
	return &CSVSource{dir: dir, files: map[string]string{}, limit: limit}
}

// WithFile закрепляет за символом конкретный файл.
func (s *CSVSource) WithFile(symbol, path string) *CSVSource {
	if path != "" {
		s.files[symbol] = path
	}
	return s
}

func (s *CSVSource) Path(symbol, timeframe string) string {
	if p, ok := s.files[symbol]; ok {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(s.dir, p)
	}
	base := strings.ToUpper(strings.SplitN(symbol, "/", 2)[0])
	return filepath.Join(s.dir, base+"_"+timeframe+".csv")
}

func (s *CSVSource) Bars(ctx context.Context, symbol, timeframe string) (models.Bars, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(symbol, timeframe)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open bars file %s", path)
	}
	defer func() {
		_ = f.Close()
	}()

	bars, err := ReadBars(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if s.limit > 0 && len(bars) > s.limit {
		bars = bars[len(bars)-s.limit:]
	}
	return bars, nil
}

// ReadBars парсит CSV и проверяет серию.
func ReadBars(r io.Reader) (models.Bars, error) {
	var rows []*barRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, ErrNoBars
		}
		return nil, errors.Wrap(err, "unmarshal csv")
	}
	if len(rows) == 0 {
		return nil, ErrNoBars
	}

	bars := make(models.Bars, 0, len(rows))
	for i, row := range rows {
		ts, err := ParseTimestamp(row.Timestamp)
		if err != nil {
			return nil, errors.Wrapf(models.ErrMalformedBars, "row %d: %v", i+1, err)
		}
		bars = append(bars, models.Bar{Time: ts, Open: row.Open, High: row.High, Low: row.Low, Close: row.Close})
	}
	if err := bars.Validate(); err != nil {
		return nil, err
	}
	return bars, nil
}

// ParseTimestamp понимает unix-секунды, unix-миллисекунды и RFC3339.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("bad timestamp %q", raw)
}

// WriteBars обратная операция, нужна для выгрузок и фикстур.
func WriteBars(w io.Writer, bars models.Bars) error {
	rows := make([]*barRow, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, &barRow{
			Timestamp: b.Time.UTC().Format(time.RFC3339),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
		})
	}
	return gocsv.Marshal(&rows, w)
}
