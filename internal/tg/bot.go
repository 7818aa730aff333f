package tg

import (
	"context"
	"fmt"
	"strconv"

	gobot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"signalrelay/internal/core"
)

const helpText = "Post one signal per line:\n" +
	"<BUY|SELL> <LIMIT|STOP|MARKET> <SYMBOL> <VOLUME> <ENTRY> <SL> <TP>\n" +
	"Example: SELL LIMIT XAUUSD 0.5 2558 2573.6 2520"

type sender interface {
	Send(c gobot.Chattable) (gobot.Message, error)
}

// Bot feeds Telegram messages and channel posts into the relay and posts
// the per-line replies back to the same chat.
type Bot struct {
	token   string
	relay   *core.Relay
	allowed map[int64]bool
	log     zerolog.Logger

	api    sender
	selfID int64
}

// NewBot builds a bot. An empty allowed list accepts every chat.
func NewBot(token string, relay *core.Relay, allowed []string, logger zerolog.Logger) (*Bot, error) {
	b := &Bot{token: token, relay: relay, allowed: map[int64]bool{}, log: logger}
	for _, raw := range allowed {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("allowed chat %q: %w", raw, err)
		}
		b.allowed[id] = true
	}
	return b, nil
}

func (b *Bot) Run(ctx context.Context) error {
	api, err := gobot.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("telegram login: %w", err)
	}
	api.Debug = false
	b.api = api
	b.selfID = api.Self.ID
	b.log.Info().Str("@", api.Self.UserName).Msg("telegram connected")

	u := gobot.NewUpdate(0)
	u.Timeout = 30
	updates := api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			b.handle(ctx, up)
		}
	}
}

func (b *Bot) handle(ctx context.Context, up gobot.Update) {
	m := up.Message
	if m == nil {
		m = up.ChannelPost
	}
	if m == nil || m.Chat == nil {
		return
	}
	if len(b.allowed) > 0 && !b.allowed[m.Chat.ID] {
		b.log.Debug().Int64("chat", m.Chat.ID).Msg("message from chat outside allow list")
		return
	}
	if m.IsCommand() {
		switch m.Command() {
		case "start", "help":
			if err := b.send(m.Chat.ID, helpText); err != nil {
				b.log.Error().Err(err).Msg("send tg msg")
			}
		}
		return
	}
	b.relay.Process(ctx, toMessage(m, b.selfID), b)
}

// Report implements core.Reporter.
func (b *Bot) Report(ctx context.Context, channelID, text string) error {
	id, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat id %q: %w", channelID, err)
	}
	return b.send(id, text)
}

func (b *Bot) send(chatID int64, text string) error {
	_, err := b.api.Send(gobot.NewMessage(chatID, text))
	return err
}

func toMessage(m *gobot.Message, selfID int64) core.Message {
	out := core.Message{
		ChannelID: strconv.FormatInt(m.Chat.ID, 10),
		Content:   m.Text,
	}
	if m.From != nil {
		out.AuthorID = strconv.FormatInt(m.From.ID, 10)
		out.FromSelf = m.From.ID == selfID
	}
	return out
}
