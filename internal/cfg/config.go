package cfg

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ChatPlatform string // telegram | discord
	TgToken      string
	DiscordToken string
	AllowedChats []string

	Mode          string // paper | live
	BridgeNetwork string // pipe | tcp
	BridgeAddress string
	BridgeTimeout time.Duration
	PaperSymbols  string

	ReportParseErrors bool

	WebAddr       string
	WebhookSecret string

	LogLevel  string
	LogFormat string
}

// Load reads .env from the working directory if present, then the
// environment. Environment wins.
func Load() Config {
	v := viper.New()
	v.SetConfigFile(".env")
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	v.SetDefault("CHAT_PLATFORM", "telegram")
	v.SetDefault("MODE", "paper")
	v.SetDefault("BRIDGE_NETWORK", "tcp")
	v.SetDefault("BRIDGE_ADDRESS", "127.0.0.1:7788")
	v.SetDefault("BRIDGE_TIMEOUT", "5s")
	v.SetDefault("REPORT_PARSE_ERRORS", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	return Config{
		ChatPlatform:      strings.ToLower(v.GetString("CHAT_PLATFORM")),
		TgToken:           v.GetString("TG_TOKEN"),
		DiscordToken:      v.GetString("DISCORD_TOKEN"),
		AllowedChats:      splitList(v.GetString("ALLOWED_CHATS")),
		Mode:              strings.ToLower(v.GetString("MODE")),
		BridgeNetwork:     strings.ToLower(v.GetString("BRIDGE_NETWORK")),
		BridgeAddress:     v.GetString("BRIDGE_ADDRESS"),
		BridgeTimeout:     v.GetDuration("BRIDGE_TIMEOUT"),
		PaperSymbols:      v.GetString("PAPER_SYMBOLS"),
		ReportParseErrors: v.GetBool("REPORT_PARSE_ERRORS"),
		WebAddr:           v.GetString("WEB_ADDR"),
		WebhookSecret:     v.GetString("WEBHOOK_SECRET"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
	}
}

func (c Config) Validate() error {
	var errs []error
	switch c.ChatPlatform {
	case "telegram":
		if c.TgToken == "" {
			errs = append(errs, errors.New("TG_TOKEN is required for telegram"))
		}
	case "discord":
		if c.DiscordToken == "" {
			errs = append(errs, errors.New("DISCORD_TOKEN is required for discord"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid CHAT_PLATFORM %q: use telegram or discord", c.ChatPlatform))
	}
	switch c.Mode {
	case "paper":
	case "live":
		if c.BridgeAddress == "" {
			errs = append(errs, errors.New("BRIDGE_ADDRESS is required in live mode"))
		}
		if c.BridgeNetwork != "pipe" && c.BridgeNetwork != "tcp" {
			errs = append(errs, fmt.Errorf("invalid BRIDGE_NETWORK %q: use pipe or tcp", c.BridgeNetwork))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid MODE %q: use paper or live", c.Mode))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
