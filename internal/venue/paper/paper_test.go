package paper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalrelay/internal/core"
)

const table = `
symbols:
  - name: US30
    volume_min: 0.1
    volume_max: 20
    volume_step: 0.1
    digits: 1
  - name: XAUUSD
    volume_min: 0.01
    volume_max: 50
`

func TestParseSymbols(t *testing.T) {
	syms, err := parseSymbols([]byte(table))
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, "US30", syms[0].Name)
	assert.True(t, syms[0].VolumeMin.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, syms[0].VolumeMax.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 1, syms[0].Digits)
	assert.True(t, syms[1].VolumeMin.Equal(decimal.RequireFromString("0.01")))
}

func TestParseSymbols_Invalid(t *testing.T) {
	tests := map[string]string{
		"not yaml":     "symbols: [",
		"missing name": "symbols:\n  - volume_min: 1\n",
		"inverted":     "symbols:\n  - name: X\n    volume_min: 2\n    volume_max: 1\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseSymbols([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadSymbols(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte(table), 0o644))

	syms, err := LoadSymbols(path)
	require.NoError(t, err)
	assert.Len(t, syms, 2)

	_, err = LoadSymbols(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestVenue_Flow(t *testing.T) {
	ctx := context.Background()
	v := New(DefaultSymbols())
	assert.Equal(t, []string{"EURUSD", "GBPUSD", "XAUUSD"}, v.Symbols())

	ok, err := v.SelectSymbol(ctx, "XAUUSD")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = v.SelectSymbol(ctx, "BTCUSD")
	assert.False(t, ok)

	info, err := v.SymbolInfo(ctx, "BTCUSD")
	require.NoError(t, err)
	assert.Nil(t, info)

	first, err := v.SubmitOrder(ctx, core.OrderRequest{Symbol: "XAUUSD"})
	require.NoError(t, err)
	second, _ := v.SubmitOrder(ctx, core.OrderRequest{Symbol: "EURUSD"})
	assert.Equal(t, core.RetcodeDone, first.Retcode)
	assert.Equal(t, first.OrderID+1, second.OrderID)
	assert.Len(t, v.Orders(), 2)
}

func TestVenue_RejectWith(t *testing.T) {
	ctx := context.Background()
	v := New(DefaultSymbols())
	v.RejectWith(10019, "(10019, 'No money')")

	res, err := v.SubmitOrder(ctx, core.OrderRequest{Symbol: "XAUUSD"})
	require.NoError(t, err)
	assert.Equal(t, 10019, res.Retcode)
	assert.Empty(t, v.Orders())
	last, _ := v.LastError(ctx)
	assert.Equal(t, "(10019, 'No money')", last)

	v.RejectWith(0, "")
	res, _ = v.SubmitOrder(ctx, core.OrderRequest{Symbol: "XAUUSD"})
	assert.Equal(t, core.RetcodeDone, res.Retcode)
}

func TestVenue_PlacerIntegration(t *testing.T) {
	v := New(DefaultSymbols())
	in := core.TradeIntent{
		Direction: core.Buy, Kind: core.Limit, Symbol: "XAUUSD",
		Volume:     decimal.RequireFromString("60"),
		EntryPrice: decimal.NewFromInt(2500), StopLoss: decimal.NewFromInt(2490), TakeProfit: decimal.NewFromInt(2550),
	}
	_, err := core.NewPlacer(v).Place(context.Background(), in)
	assert.True(t, core.IsCode(err, core.ErrVolumeOutOfRange))
	assert.Empty(t, v.Orders())
}

func TestVenue_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultSymbols()).SelectSymbol(ctx, "XAUUSD")
	assert.ErrorIs(t, err, context.Canceled)
}
