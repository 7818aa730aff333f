package core

import (
	"context"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

type OrderKind string

const (
	Market OrderKind = "MARKET"
	Limit  OrderKind = "LIMIT"
	Stop   OrderKind = "STOP"
)

// TradeIntent is one parsed signal line. EntryPrice is carried for MARKET
// orders too; the venue ignores it there.
type TradeIntent struct {
	Direction  Direction
	Kind       OrderKind
	Symbol     string
	Volume     decimal.Decimal
	EntryPrice decimal.Decimal
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
}

// OrderType values match the MT5 ORDER_TYPE_* codes.
type OrderType int

const (
	OrderBuy OrderType = iota
	OrderSell
	OrderBuyLimit
	OrderSellLimit
	OrderBuyStop
	OrderSellStop
)

func (t OrderType) String() string {
	switch t {
	case OrderBuy:
		return "buy-market"
	case OrderSell:
		return "sell-market"
	case OrderBuyLimit:
		return "buy-limit"
	case OrderSellLimit:
		return "sell-limit"
	case OrderBuyStop:
		return "buy-stop"
	case OrderSellStop:
		return "sell-stop"
	default:
		return "unknown"
	}
}

// TradeAction values match MT5 TRADE_ACTION_*.
type TradeAction int

const (
	ActionDeal    TradeAction = 1
	ActionPending TradeAction = 5
)

// TimeInForce values match MT5 ORDER_TIME_*.
type TimeInForce int

const TimeGTC TimeInForce = 0

// FillPolicy values match MT5 ORDER_FILLING_*.
type FillPolicy int

const (
	FillFOK    FillPolicy = 0
	FillIOC    FillPolicy = 1
	FillReturn FillPolicy = 2
)

// RetcodeDone is TRADE_RETCODE_DONE; every other retcode is a failure.
const RetcodeDone = 10009

const (
	OrderDeviation = 20
	OrderMagic     = 234000
	OrderComment   = "signal relay trade"
)

type SymbolInfo struct {
	Name       string
	VolumeMin  decimal.Decimal
	VolumeMax  decimal.Decimal
	VolumeStep decimal.Decimal
	Digits     int
}

type OrderRequest struct {
	Action      TradeAction
	Symbol      string
	Volume      decimal.Decimal
	Type        OrderType
	Price       decimal.Decimal
	StopLoss    decimal.Decimal
	TakeProfit  decimal.Decimal
	Deviation   int
	Magic       int
	Comment     string
	TimeInForce TimeInForce
	Filling     FillPolicy
}

type OrderResult struct {
	Retcode int
	OrderID uint64
	Comment string
}

// Venue is the trading terminal session. Errors mean the call itself failed
// (transport, bridge), not that the venue said no.
type Venue interface {
	SelectSymbol(ctx context.Context, symbol string) (bool, error)
	// SymbolInfo returns nil when the venue has no data for the symbol.
	SymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	LastError(ctx context.Context) (string, error)
}

// Message is one inbound chat event.
type Message struct {
	ChannelID string
	AuthorID  string
	Content   string
	FromSelf  bool
}

// Reporter sends text back into a chat channel.
type Reporter interface {
	Report(ctx context.Context, channelID, text string) error
}
