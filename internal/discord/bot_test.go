package discord

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalrelay/internal/core"
	"signalrelay/internal/signal"
	"signalrelay/internal/venue/paper"
)

type post struct{ channel, text string }

type fakeAPI struct {
	mu   sync.Mutex
	sent []post
}

func (f *fakeAPI) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, post{channelID, content})
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) posts() []post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]post(nil), f.sent...)
}

func newTestBot(opts core.RelayOpts, allowed ...string) (*Bot, *fakeAPI, *paper.Venue) {
	v := paper.New(paper.DefaultSymbols())
	opts.Parse = signal.Parse
	opts.Placer = core.NewPlacer(v)
	b := NewBot("token", core.NewRelay(opts), allowed, zerolog.Nop())
	api := &fakeAPI{}
	b.api = api
	return b, api, v
}

func create(channel, author, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: channel,
		Content:   content,
		Author:    &discordgo.User{ID: author},
	}}
}

func TestHandle_MultiLineMessage(t *testing.T) {
	b, api, v := newTestBot(core.RelayOpts{})
	content := "SELL LIMIT XAUUSD 0.5 2558 2573.6 2520\nnot a signal\nBUY MARKET EURUSD 1.0 1.1000 1.0950 1.1100"
	b.handle(context.Background(), create("c1", "u1", content), "bot")

	orders := v.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, core.OrderSellLimit, orders[0].Type)
	assert.Equal(t, core.OrderBuy, orders[1].Type)
	assert.Equal(t, []post{
		{"c1", "Trade placed successfully for: SELL LIMIT XAUUSD 0.5 2558 2573.6 2520"},
		{"c1", "Trade placed successfully for: BUY MARKET EURUSD 1.0 1.1000 1.0950 1.1100"},
	}, api.sent)
}

func TestHandle_ReportParseErrors(t *testing.T) {
	b, api, _ := newTestBot(core.RelayOpts{ReportParseErrors: true})
	b.handle(context.Background(), create("c1", "u1", "HOLD XAUUSD"), "bot")
	assert.Equal(t, []post{{"c1", "Invalid signal format: HOLD XAUUSD"}}, api.sent)
}

func TestHandle_OwnMessageIgnored(t *testing.T) {
	b, api, v := newTestBot(core.RelayOpts{})
	b.handle(context.Background(), create("c1", "bot", "Trade placed successfully for: SELL LIMIT XAUUSD 0.5 2558 2573.6 2520"), "bot")
	assert.Empty(t, v.Orders())
	assert.Empty(t, api.sent)
}

func TestHandle_AllowList(t *testing.T) {
	b, api, v := newTestBot(core.RelayOpts{}, "signals")
	b.handle(context.Background(), create("offtopic", "u1", "BUY LIMIT XAUUSD 1 2500 2490 2550"), "bot")
	assert.Empty(t, v.Orders())
	assert.Empty(t, api.sent)

	b.handle(context.Background(), create("signals", "u1", "BUY LIMIT XAUUSD 1 2500 2490 2550"), "bot")
	assert.Len(t, v.Orders(), 1)
}

func TestToMessage(t *testing.T) {
	tests := []struct {
		name     string
		author   *discordgo.User
		selfID   string
		fromSelf bool
	}{
		{"other user", &discordgo.User{ID: "u1"}, "bot", false},
		{"self", &discordgo.User{ID: "bot"}, "bot", true},
		{"unknown self", &discordgo.User{ID: "u1"}, "", false},
		{"no author", nil, "bot", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := toMessage(&discordgo.Message{ChannelID: "c", Content: "x", Author: tc.author}, tc.selfID)
			assert.Equal(t, tc.fromSelf, m.FromSelf)
			assert.Equal(t, "c", m.ChannelID)
		})
	}
}

func TestConsume_KeepsArrivalOrder(t *testing.T) {
	b, api, v := newTestBot(core.RelayOpts{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := []string{
		"BUY LIMIT XAUUSD 1 2500 2490 2550",
		"SELL STOP EURUSD 2 1.05 1.06 1.02",
		"BUY MARKET GBPUSD 0.5 1.25 1.24 1.27",
	}
	for _, l := range lines {
		b.enqueue(ctx, create("c1", "u1", l), "bot")
	}
	go b.consume(ctx)

	require.Eventually(t, func() bool { return len(api.posts()) == 3 }, 2*time.Second, 10*time.Millisecond)
	orders := v.Orders()
	require.Len(t, orders, 3)
	assert.Equal(t, []string{"XAUUSD", "EURUSD", "GBPUSD"}, []string{orders[0].Symbol, orders[1].Symbol, orders[2].Symbol})
	for i, l := range lines {
		assert.Equal(t, "Trade placed successfully for: "+l, api.posts()[i].text)
	}
}
