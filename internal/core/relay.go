package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	replyPlaced  = "Trade placed successfully for: %s"
	replyFailed  = "Failed to place trade for: %s. Check logs for details."
	replyInvalid = "Invalid signal format: %s"
)

// Outcome is the result of handling one line of a message.
type Outcome struct {
	Line    string
	Intent  *TradeIntent
	OrderID uint64
	Err     error
}

func (o Outcome) Parsed() bool { return o.Intent != nil }
func (o Outcome) Placed() bool { return o.Intent != nil && o.Err == nil }

// Reply is the chat text for this line; "" for lines that never parsed.
func (o Outcome) Reply() string {
	switch {
	case o.Placed():
		return fmt.Sprintf(replyPlaced, o.Line)
	case o.Parsed():
		return fmt.Sprintf(replyFailed, o.Line)
	default:
		return ""
	}
}

// Recorder receives per-line counters. metrics.Metrics implements it.
type Recorder interface {
	LineParsed()
	LineInvalid()
	OrderPlaced(elapsed time.Duration)
	OrderFailed(code ErrorCode, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) LineParsed() {}
func (nopRecorder) LineInvalid() {}
func (nopRecorder) OrderPlaced(time.Duration) {}
func (nopRecorder) OrderFailed(ErrorCode, time.Duration) {}

type ParseFunc func(line string) (TradeIntent, error)

type RelayOpts struct {
	Parse             ParseFunc
	Placer            *Placer
	Logger            *zerolog.Logger
	Recorder          Recorder
	ReportParseErrors bool
	OnOutcome         func(Message, Outcome)
}

// Relay turns chat messages into orders, one line at a time. Process is
// serialized so that adapters running on their own goroutines still see
// strictly ordered handling.
type Relay struct {
	mu                sync.Mutex
	parse             ParseFunc
	placer            *Placer
	log               zerolog.Logger
	rec               Recorder
	reportParseErrors bool
	onOutcome         func(Message, Outcome)
}

func NewRelay(opts RelayOpts) *Relay {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.OnOutcome == nil {
		opts.OnOutcome = func(Message, Outcome) {}
	}
	return &Relay{
		parse:             opts.Parse,
		placer:            opts.Placer,
		log:               log,
		rec:               opts.Recorder,
		reportParseErrors: opts.ReportParseErrors,
		onOutcome:         opts.OnOutcome,
	}
}

// SplitLines trims the message and splits it into signal lines.
func SplitLines(content string) []string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Process handles every line of msg in order. When rep is non-nil each
// line's reply is sent before the next line is parsed.
func (r *Relay) Process(ctx context.Context, msg Message, rep Reporter) []Outcome {
	if msg.FromSelf {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Outcome
	for _, line := range SplitLines(msg.Content) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		o := r.handleLine(ctx, line)
		out = append(out, o)
		r.onOutcome(msg, o)
		if rep == nil {
			continue
		}
		text := r.replyFor(o)
		if text == "" {
			continue
		}
		if err := rep.Report(ctx, msg.ChannelID, text); err != nil {
			r.log.Error().Err(err).Str("channel", msg.ChannelID).Msg("send reply")
		}
	}
	return out
}

func (r *Relay) replyFor(o Outcome) string {
	if !o.Parsed() && r.reportParseErrors {
		return fmt.Sprintf(replyInvalid, o.Line)
	}
	return o.Reply()
}

func (r *Relay) handleLine(ctx context.Context, line string) Outcome {
	intent, err := r.parse(line)
	if err != nil {
		r.rec.LineInvalid()
		r.log.Warn().Err(err).Str("line", line).Msg("invalid signal format received")
		return Outcome{Line: line, Err: err}
	}
	r.rec.LineParsed()
	r.log.Info().
		Str("direction", string(intent.Direction)).
		Str("kind", string(intent.Kind)).
		Str("symbol", intent.Symbol).
		Str("volume", intent.Volume.String()).
		Str("entry", intent.EntryPrice.String()).
		Str("sl", intent.StopLoss.String()).
		Str("tp", intent.TakeProfit.String()).
		Msg("received trade signal")

	start := time.Now()
	id, err := r.placer.Place(ctx, intent)
	elapsed := time.Since(start)
	o := Outcome{Line: line, Intent: &intent, OrderID: id, Err: err}
	if err != nil {
		code := CodeOf(err)
		r.rec.OrderFailed(code, elapsed)
		r.log.Error().Err(err).
			Str("code", string(code)).
			Fields(DetailsOf(err)).
			Str("line", line).
			Msg("order failed")
		return o
	}
	r.rec.OrderPlaced(elapsed)
	r.log.Info().Str("order", strconv.FormatUint(id, 10)).Str("symbol", intent.Symbol).Msg("order placed successfully")
	return o
}
