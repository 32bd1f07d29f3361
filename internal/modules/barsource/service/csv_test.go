package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fibo_bot/internal/models"
)

const sample = `timestamp,open,high,low,close,volume
1704067200,100,101,99,100.5,10
1704070800000,100.5,102,100,101.5,12
2024-01-01T02:00:00Z,101.5,103,101,102,9
`

func TestReadBars(t *testing.T) {
	bars, err := ReadBars(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), bars[1].Time)
	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), bars[2].Time)
	assert.Equal(t, 103.0, bars[2].High)
	assert.Equal(t, 102.0, bars[2].Close)
}

func TestReadBarsMalformed(t *testing.T) {
	unordered := `timestamp,open,high,low,close
1704070800,100,101,99,100.5
1704067200,100.5,102,100,101.5
`
	_, err := ReadBars(strings.NewReader(unordered))
	assert.True(t, errors.Is(err, models.ErrMalformedBars))

	badTS := `timestamp,open,high,low,close
yesterday,100,101,99,100.5
`
	_, err = ReadBars(strings.NewReader(badTS))
	assert.True(t, errors.Is(err, models.ErrMalformedBars))

	nan := `timestamp,open,high,low,close
1704067200,100,101,99,NaN
`
	_, err = ReadBars(strings.NewReader(nan))
	assert.True(t, errors.Is(err, models.ErrMalformedBars))

	_, err = ReadBars(strings.NewReader("timestamp,open,high,low,close\n"))
	assert.True(t, errors.Is(err, ErrNoBars))
}

func TestWriteBarsRoundTrip(t *testing.T) {
	bars, err := ReadBars(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBars(&buf, bars))
	again, err := ReadBars(&buf)
	require.NoError(t, err)
	assert.Equal(t, bars, again)
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BTC_1h.csv"), []byte(sample), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "eth.csv"), []byte(sample), 0o600))

	src := NewCSVSource(dir, 2).WithFile("ETH/USDT", "eth.csv")

	bars, err := src.Bars(context.Background(), "BTC/USDT", "1h")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 102.0, bars[1].Close)

	bars, err = src.Bars(context.Background(), "ETH/USDT", "15m")
	require.NoError(t, err)
	assert.Len(t, bars, 2)

	_, err = src.Bars(context.Background(), "SOL/USDT", "1h")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Bars(ctx, "BTC/USDT", "1h")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"1704067200", "1704067200000", "2024-01-01T00:00:00Z", "2024-01-01 00:00:00", "2024-01-01 00:00"} {
		got, err := ParseTimestamp(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}
