package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"signalrelay/internal/cfg"
	"signalrelay/internal/core"
	"signalrelay/internal/discord"
	"signalrelay/internal/logx"
	"signalrelay/internal/metrics"
	"signalrelay/internal/signal"
	"signalrelay/internal/tg"
	"signalrelay/internal/venue/mt5bridge"
	"signalrelay/internal/venue/paper"
	"signalrelay/internal/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Fields(core.DetailsOf(err)).Msg("signalrelay stopped")
	}
}

func run() error {
	config := cfg.Load()
	logger := logx.Setup(config.LogLevel, config.LogFormat)
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info().Str("mode", config.Mode).Str("platform", config.ChatPlatform).Msg("signalrelay starting")

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openVenue(ctx, config, logger)
	if err != nil {
		return err
	}
	defer sess.close()

	// A broken bridge stream fails every later order, so it ends the process.
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go func() {
		select {
		case <-sess.lost:
			cancel(core.WrapError(core.ErrConnection, "mt5 bridge session lost", sess.err()))
		case <-ctx.Done():
		}
	}()

	m := metrics.New()
	var wsrv *web.Server
	relayLog := logger.With().Str("component", "relay").Logger()
	relay := core.NewRelay(core.RelayOpts{
		Parse:             signal.Parse,
		Placer:            core.NewPlacer(sess.venue),
		Logger:            &relayLog,
		Recorder:          m,
		ReportParseErrors: config.ReportParseErrors,
		OnOutcome: func(msg core.Message, o core.Outcome) {
			if wsrv != nil {
				wsrv.Publish(msg, o)
			}
		},
	})

	if config.WebAddr != "" {
		wsrv = web.NewServer(config.WebAddr, web.Deps{
			Relay:   relay,
			Metrics: m.Handler(),
			Status: web.Status{
				Mode:     config.Mode,
				Platform: config.ChatPlatform,
				Venue:    sess.kind,
				Started:  time.Now().UTC(),
			},
			WebhookSecret: config.WebhookSecret,
			Logger:        logger.With().Str("component", "web").Logger(),
		})
		go func() {
			if err := wsrv.Serve(ctx); err != nil {
				logger.Error().Err(err).Msg("web server stopped")
			}
		}()
	}

	err = runChat(ctx, config, relay, logger)
	if cause := context.Cause(ctx); core.IsCode(cause, core.ErrConnection) {
		return cause
	}
	logger.Info().Msg("shutdown")
	return err
}

type session struct {
	venue core.Venue
	kind  string
	lost  <-chan struct{} // nil for venues that cannot disconnect
	err   func() error
	close func()
}

func openVenue(ctx context.Context, config cfg.Config, logger zerolog.Logger) (session, error) {
	if config.Mode == "live" {
		client, err := mt5bridge.Dial(ctx, mt5bridge.Config{
			Network: config.BridgeNetwork,
			Address: config.BridgeAddress,
			Timeout: config.BridgeTimeout,
		}, logger.With().Str("component", "mt5bridge").Logger())
		if err != nil {
			return session{}, err
		}
		return session{
			venue: client,
			kind:  "mt5",
			lost:  client.Lost(),
			err:   client.Err,
			close: func() { _ = client.Close() },
		}, nil
	}

	symbols := paper.DefaultSymbols()
	if config.PaperSymbols != "" {
		loaded, err := paper.LoadSymbols(config.PaperSymbols)
		if err != nil {
			return session{}, err
		}
		symbols = loaded
	}
	v := paper.New(symbols)
	logger.Info().Strs("symbols", v.Symbols()).Msg("paper venue ready")
	return session{venue: v, kind: "paper", err: func() error { return nil }, close: func() {}}, nil
}

func runChat(ctx context.Context, config cfg.Config, relay *core.Relay, logger zerolog.Logger) error {
	switch config.ChatPlatform {
	case "discord":
		bot := discord.NewBot(config.DiscordToken, relay, config.AllowedChats, logger.With().Str("component", "discord").Logger())
		return bot.Run(ctx)
	default:
		bot, err := tg.NewBot(config.TgToken, relay, config.AllowedChats, logger.With().Str("component", "tg").Logger())
		if err != nil {
			return err
		}
		return bot.Run(ctx)
	}
}
