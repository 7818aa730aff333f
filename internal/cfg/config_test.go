package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TG_TOKEN", "123:abc")
	c := Load()

	assert.Equal(t, "telegram", c.ChatPlatform)
	assert.Equal(t, "paper", c.Mode)
	assert.Equal(t, "tcp", c.BridgeNetwork)
	assert.Equal(t, 5*time.Second, c.BridgeTimeout)
	assert.False(t, c.ReportParseErrors)
	assert.Empty(t, c.AllowedChats)
	require.NoError(t, c.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CHAT_PLATFORM", "Discord")
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("ALLOWED_CHATS", " 111, 222 ,,333")
	t.Setenv("MODE", "live")
	t.Setenv("BRIDGE_NETWORK", "pipe")
	t.Setenv("BRIDGE_ADDRESS", "mt5_bridge")
	t.Setenv("BRIDGE_TIMEOUT", "1500ms")
	t.Setenv("REPORT_PARSE_ERRORS", "true")
	c := Load()

	assert.Equal(t, "discord", c.ChatPlatform)
	assert.Equal(t, []string{"111", "222", "333"}, c.AllowedChats)
	assert.Equal(t, "live", c.Mode)
	assert.Equal(t, "pipe", c.BridgeNetwork)
	assert.Equal(t, "mt5_bridge", c.BridgeAddress)
	assert.Equal(t, 1500*time.Millisecond, c.BridgeTimeout)
	assert.True(t, c.ReportParseErrors)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"telegram without token", Config{ChatPlatform: "telegram", Mode: "paper"}, "TG_TOKEN"},
		{"discord without token", Config{ChatPlatform: "discord", Mode: "paper"}, "DISCORD_TOKEN"},
		{"unknown platform", Config{ChatPlatform: "slack", Mode: "paper"}, "CHAT_PLATFORM"},
		{"unknown mode", Config{ChatPlatform: "telegram", TgToken: "x", Mode: "demo"}, "MODE"},
		{"live without bridge", Config{ChatPlatform: "telegram", TgToken: "x", Mode: "live", BridgeNetwork: "tcp"}, "BRIDGE_ADDRESS"},
		{"live bad network", Config{ChatPlatform: "telegram", TgToken: "x", Mode: "live", BridgeNetwork: "udp", BridgeAddress: "a"}, "BRIDGE_NETWORK"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
