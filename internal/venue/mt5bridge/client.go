// Package mt5bridge talks to a MetaTrader 5 terminal through a small Expert
// Advisor that exposes the trading functions over a named pipe or a TCP
// socket as line-delimited JSON.
package mt5bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signalrelay/internal/core"
)

type Config struct {
	Network string // pipe | tcp
	Address string
	// Timeout bounds connecting and the ping handshake only.
	Timeout time.Duration
}

var ErrClosed = errors.New("mt5 bridge: connection closed")

type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	r      *bufio.Reader
	log    zerolog.Logger
	broken error
	lost   chan struct{}
}

// Dial connects to the bridge and pings it. Any failure is a
// CONNECTION_ERROR.
func Dial(ctx context.Context, cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	conn, err := dial(ctx, cfg.Network, cfg.Address)
	if err != nil {
		return nil, core.WrapError(core.ErrConnection, "connect to mt5 bridge", err).
			WithDetail("network", cfg.Network).
			WithDetail("address", cfg.Address)
	}
	c := NewClient(conn, logger)
	if err := c.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, core.WrapError(core.ErrConnection, "mt5 bridge handshake", err).
			WithDetail("address", cfg.Address)
	}
	logger.Info().Str("network", cfg.Network).Str("address", cfg.Address).Msg("connected to mt5 bridge")
	return c, nil
}

// NewClient wraps an established connection without a handshake.
func NewClient(conn net.Conn, logger zerolog.Logger) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn), log: logger, lost: make(chan struct{})}
}

// Lost is closed when the stream breaks. It is not closed by Close.
func (c *Client) Lost() <-chan struct{} { return c.lost }

// Err returns why the client stopped accepting calls, or nil.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, typePing, nil, nil)
}

func (c *Client) SelectSymbol(ctx context.Context, symbol string) (bool, error) {
	var res selectResult
	if err := c.call(ctx, typeSymbolSelect, symbolPayload{Symbol: symbol}, &res); err != nil {
		return false, err
	}
	return res.Selected, nil
}

func (c *Client) SymbolInfo(ctx context.Context, symbol string) (*core.SymbolInfo, error) {
	var res *symbolInfoResult
	if err := c.call(ctx, typeSymbolInfo, symbolPayload{Symbol: symbol}, &res); err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	name := res.Name
	if name == "" {
		name = symbol
	}
	return &core.SymbolInfo{
		Name:       name,
		VolumeMin:  res.VolumeMin,
		VolumeMax:  res.VolumeMax,
		VolumeStep: res.VolumeStep,
		Digits:     res.Digits,
	}, nil
}

func (c *Client) SubmitOrder(ctx context.Context, req core.OrderRequest) (core.OrderResult, error) {
	p := orderPayload{
		Action:      int(req.Action),
		Symbol:      req.Symbol,
		Volume:      req.Volume,
		Type:        int(req.Type),
		Price:       req.Price,
		SL:          req.StopLoss,
		TP:          req.TakeProfit,
		Deviation:   req.Deviation,
		Magic:       req.Magic,
		Comment:     req.Comment,
		TypeTime:    int(req.TimeInForce),
		TypeFilling: int(req.Filling),
	}
	var res orderResult
	if err := c.call(ctx, typeOrderSend, p, &res); err != nil {
		return core.OrderResult{}, err
	}
	return core.OrderResult{Retcode: res.Retcode, OrderID: res.Order, Comment: res.Comment}, nil
}

// LastError renders the terminal's last error as "(code, 'message')".
func (c *Client) LastError(ctx context.Context) (string, error) {
	var res lastErrorResult
	if err := c.call(ctx, typeLastError, nil, &res); err != nil {
		return "", err
	}
	return fmt.Sprintf("(%d, '%s')", res.Code, res.Message), nil
}

// Close asks the bridge to release the terminal and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken == nil {
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		if line, err := json.Marshal(request{ID: uuid.NewString(), Type: typeShutdown}); err == nil {
			_, _ = c.conn.Write(append(line, '\n'))
		}
	}
	c.broken = ErrClosed
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, typ string, payload, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken != nil {
		return c.broken
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
	}
	expired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
		close(expired)
	})
	defer func() {
		if !stop() {
			<-expired
		}
		_ = c.conn.SetDeadline(time.Time{})
	}()

	start := time.Now()
	id := uuid.NewString()
	line, err := json.Marshal(request{ID: id, Type: typ, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}
	if _, err := c.conn.Write(append(line, '\n')); err != nil {
		return c.fail(fmt.Errorf("write %s: %w", typ, err))
	}
	raw, err := c.r.ReadBytes('\n')
	if err != nil {
		return c.fail(fmt.Errorf("read %s: %w", typ, err))
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return c.fail(fmt.Errorf("decode %s response: %w", typ, err))
	}
	if resp.ID != id {
		return c.fail(fmt.Errorf("%s: response id %q does not match request %q", typ, resp.ID, id))
	}
	c.log.Debug().Str("type", typ).Str("id", id).Dur("took", time.Since(start)).Bool("ok", resp.OK).Msg("bridge call")

	if !resp.OK {
		return fmt.Errorf("mt5 bridge %s: %w: %s", typ, core.ErrRefused, resp.Error)
	}
	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", typ, err)
		}
	}
	return nil
}

// fail marks the stream unusable; after a partial exchange the next line
// read would belong to the wrong request.
func (c *Client) fail(err error) error {
	c.broken = err
	close(c.lost)
	c.log.Error().Err(err).Msg("mt5 bridge connection lost")
	return err
}

var _ core.Venue = (*Client)(nil)
