package core

import (
	"context"
	"errors"
	"fmt"
)

type orderKey struct {
	dir  Direction
	kind OrderKind
}

var orderTypes = map[orderKey]OrderType{
	{Buy, Limit}:   OrderBuyLimit,
	{Sell, Limit}:  OrderSellLimit,
	{Buy, Stop}:    OrderBuyStop,
	{Sell, Stop}:   OrderSellStop,
	{Buy, Market}:  OrderBuy,
	{Sell, Market}: OrderSell,
}

// OrderTypeFor maps a signal's direction and kind to the venue order type.
func OrderTypeFor(dir Direction, kind OrderKind) (OrderType, error) {
	t, ok := orderTypes[orderKey{dir, kind}]
	if !ok {
		return 0, fmt.Errorf("no order type for %s %s", dir, kind)
	}
	return t, nil
}

// BuildRequest fills the fixed order fields around an intent.
func BuildRequest(in TradeIntent, typ OrderType) OrderRequest {
	action := ActionPending
	if in.Kind == Market {
		action = ActionDeal
	}
	return OrderRequest{
		Action:      action,
		Symbol:      in.Symbol,
		Volume:      in.Volume,
		Type:        typ,
		Price:       in.EntryPrice,
		StopLoss:    in.StopLoss,
		TakeProfit:  in.TakeProfit,
		Deviation:   OrderDeviation,
		Magic:       OrderMagic,
		Comment:     OrderComment,
		TimeInForce: TimeGTC,
		Filling:     FillReturn,
	}
}

// Placer validates an intent against the venue and submits it once.
type Placer struct {
	venue Venue
}

func NewPlacer(v Venue) *Placer { return &Placer{venue: v} }

func (p *Placer) Place(ctx context.Context, in TradeIntent) (uint64, error) {
	selected, err := p.venue.SelectSymbol(ctx, in.Symbol)
	if errors.Is(err, ErrRefused) {
		return 0, WrapError(ErrSymbolUnavailable, "failed to select symbol "+in.Symbol, err).
			WithDetail("symbol", in.Symbol)
	}
	if err != nil {
		return 0, WrapError(ErrConnection, "select symbol", err).WithDetail("symbol", in.Symbol)
	}
	if !selected {
		return 0, NewError(ErrSymbolUnavailable, "failed to select symbol "+in.Symbol).
			WithDetail("symbol", in.Symbol)
	}

	info, err := p.venue.SymbolInfo(ctx, in.Symbol)
	if errors.Is(err, ErrRefused) {
		return 0, WrapError(ErrSymbolUnavailable, "symbol info not found for "+in.Symbol, err).
			WithDetail("symbol", in.Symbol)
	}
	if err != nil {
		return 0, WrapError(ErrConnection, "symbol info", err).WithDetail("symbol", in.Symbol)
	}
	if info == nil {
		return 0, NewError(ErrSymbolUnavailable, "symbol info not found for "+in.Symbol).
			WithDetail("symbol", in.Symbol)
	}
	if in.Volume.LessThan(info.VolumeMin) || in.Volume.GreaterThan(info.VolumeMax) {
		return 0, NewError(ErrVolumeOutOfRange, fmt.Sprintf("invalid volume %s for %s", in.Volume, in.Symbol)).
			WithDetail("volume", in.Volume.String()).
			WithDetail("volume_min", info.VolumeMin.String()).
			WithDetail("volume_max", info.VolumeMax.String())
	}

	typ, err := OrderTypeFor(in.Direction, in.Kind)
	if err != nil {
		return 0, err
	}
	req := BuildRequest(in, typ)

	res, err := p.venue.SubmitOrder(ctx, req)
	if errors.Is(err, ErrRefused) {
		return 0, WrapError(ErrVenueRejected, "order refused", err).
			WithDetail("last_error", p.lastError(ctx)).
			WithDetail("order_type", typ.String())
	}
	if err != nil {
		return 0, WrapError(ErrConnection, "order send", err).WithDetail("symbol", in.Symbol)
	}
	if res.Retcode != RetcodeDone {
		return 0, NewError(ErrVenueRejected, fmt.Sprintf("order failed: %d", res.Retcode)).
			WithDetail("retcode", res.Retcode).
			WithDetail("last_error", p.lastError(ctx)).
			WithDetail("comment", res.Comment).
			WithDetail("order_type", typ.String())
	}
	return res.OrderID, nil
}

func (p *Placer) lastError(ctx context.Context) string {
	msg, err := p.venue.LastError(ctx)
	if err != nil {
		return err.Error()
	}
	return msg
}
