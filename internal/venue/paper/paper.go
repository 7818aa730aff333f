// Package paper is an in-memory venue that accepts every well-formed order
// for the symbols it knows about.
package paper

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"signalrelay/internal/core"
)

type symbolEntry struct {
	Name      string  `yaml:"name"`
	VolumeMin float64 `yaml:"volume_min"`
	VolumeMax float64 `yaml:"volume_max"`
	Step      float64 `yaml:"volume_step"`
	Digits    int     `yaml:"digits"`
}

type symbolFile struct {
	Symbols []symbolEntry `yaml:"symbols"`
}

// DefaultSymbols is the table used when no PAPER_SYMBOLS file is configured.
func DefaultSymbols() []core.SymbolInfo {
	return []core.SymbolInfo{
		{Name: "XAUUSD", VolumeMin: decimal.RequireFromString("0.01"), VolumeMax: decimal.RequireFromString("50"), VolumeStep: decimal.RequireFromString("0.01"), Digits: 2},
		{Name: "EURUSD", VolumeMin: decimal.RequireFromString("0.01"), VolumeMax: decimal.RequireFromString("100"), VolumeStep: decimal.RequireFromString("0.01"), Digits: 5},
		{Name: "GBPUSD", VolumeMin: decimal.RequireFromString("0.01"), VolumeMax: decimal.RequireFromString("100"), VolumeStep: decimal.RequireFromString("0.01"), Digits: 5},
	}
}

// LoadSymbols reads a symbol table like
//
//	symbols:
//	  - name: XAUUSD
//	    volume_min: 0.01
//	    volume_max: 50
func LoadSymbols(path string) ([]core.SymbolInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read paper symbols: %w", err)
	}
	return parseSymbols(data)
}

func parseSymbols(data []byte) ([]core.SymbolInfo, error) {
	var f symbolFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse paper symbols: %w", err)
	}
	out := make([]core.SymbolInfo, 0, len(f.Symbols))
	for i, s := range f.Symbols {
		if s.Name == "" {
			return nil, fmt.Errorf("paper symbols: entry %d has no name", i)
		}
		if s.VolumeMax < s.VolumeMin {
			return nil, fmt.Errorf("paper symbols: %s volume_max below volume_min", s.Name)
		}
		out = append(out, core.SymbolInfo{
			Name:       s.Name,
			VolumeMin:  decimal.NewFromFloat(s.VolumeMin),
			VolumeMax:  decimal.NewFromFloat(s.VolumeMax),
			VolumeStep: decimal.NewFromFloat(s.Step),
			Digits:     s.Digits,
		})
	}
	return out, nil
}

type Venue struct {
	mu      sync.Mutex
	symbols map[string]core.SymbolInfo
	orders  []core.OrderRequest
	ticket  uint64
	reject  int
	lastErr string
}

func New(symbols []core.SymbolInfo) *Venue {
	v := &Venue{symbols: make(map[string]core.SymbolInfo, len(symbols)), ticket: 1000, lastErr: "(1, 'Success')"}
	for _, s := range symbols {
		v.symbols[s.Name] = s
	}
	return v
}

// RejectWith makes every following submission return retcode with lastErr
// as the terminal error. A zero retcode restores normal behaviour.
func (v *Venue) RejectWith(retcode int, lastErr string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reject = retcode
	if lastErr != "" {
		v.lastErr = lastErr
	}
}

// Orders returns a copy of every accepted request.
func (v *Venue) Orders() []core.OrderRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]core.OrderRequest(nil), v.orders...)
}

func (v *Venue) Symbols() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	names := make([]string, 0, len(v.symbols))
	for n := range v.symbols {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (v *Venue) SelectSymbol(ctx context.Context, symbol string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.symbols[symbol]
	return ok, nil
}

func (v *Venue) SymbolInfo(ctx context.Context, symbol string) (*core.SymbolInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	info, ok := v.symbols[symbol]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (v *Venue) SubmitOrder(ctx context.Context, req core.OrderRequest) (core.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return core.OrderResult{}, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.reject != 0 {
		return core.OrderResult{Retcode: v.reject, Comment: "rejected by paper venue"}, nil
	}
	v.ticket++
	v.orders = append(v.orders, req)
	return core.OrderResult{Retcode: core.RetcodeDone, OrderID: v.ticket, Comment: "Request executed"}, nil
}

func (v *Venue) LastError(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr, nil
}

var _ core.Venue = (*Venue)(nil)
