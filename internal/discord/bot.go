// Package discord relays messages from Discord channels.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"signalrelay/internal/core"
)

const intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

type sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type event struct {
	msg    *discordgo.MessageCreate
	selfID string
}

type Bot struct {
	token   string
	relay   *core.Relay
	allowed map[string]bool
	log     zerolog.Logger

	api    sender
	events chan event
}

// NewBot builds a bot. An empty allowed list accepts every channel.
func NewBot(token string, relay *core.Relay, allowed []string, logger zerolog.Logger) *Bot {
	b := &Bot{token: token, relay: relay, allowed: map[string]bool{}, log: logger, events: make(chan event, 64)}
	for _, id := range allowed {
		b.allowed[id] = true
	}
	return b
}

// Run opens the gateway session and blocks until ctx is done. Messages are
// queued in gateway order and handled by a single consumer.
func (b *Bot) Run(ctx context.Context) error {
	s, err := discordgo.New("Bot " + b.token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = intents
	s.SyncEvents = true
	b.api = s
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Info().Str("@", r.User.Username).Msg("discord connected")
	})
	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		selfID := ""
		if s.State != nil && s.State.User != nil {
			selfID = s.State.User.ID
		}
		b.enqueue(ctx, m, selfID)
	})
	if err := s.Open(); err != nil {
		return fmt.Errorf("discord gateway: %w", err)
	}
	b.consume(ctx)
	return s.Close()
}

func (b *Bot) enqueue(ctx context.Context, m *discordgo.MessageCreate, selfID string) {
	select {
	case b.events <- event{msg: m, selfID: selfID}:
	case <-ctx.Done():
	}
}

func (b *Bot) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.events:
			b.handle(ctx, ev.msg, ev.selfID)
		}
	}
}

func (b *Bot) handle(ctx context.Context, m *discordgo.MessageCreate, selfID string) {
	if m == nil || m.Message == nil {
		return
	}
	if len(b.allowed) > 0 && !b.allowed[m.ChannelID] {
		b.log.Debug().Str("channel", m.ChannelID).Msg("message from channel outside allow list")
		return
	}
	b.relay.Process(ctx, toMessage(m.Message, selfID), b)
}

// Report implements core.Reporter.
func (b *Bot) Report(ctx context.Context, channelID, text string) error {
	_, err := b.api.ChannelMessageSend(channelID, text)
	return err
}

func toMessage(m *discordgo.Message, selfID string) core.Message {
	out := core.Message{ChannelID: m.ChannelID, Content: m.Content}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
		out.FromSelf = selfID != "" && m.Author.ID == selfID
	}
	return out
}
