package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"venusstore/internal/lightning"
	"venusstore/internal/rates"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	// Gateway.
	DiscordToken string
	GuildID      string
	OwnerID      string

	// Guild surface.
	CategoryID          string
	CustomerRoleID      string
	ReviewsChannelID    string
	DeliveriesChannelID string
	SalesLogChannelID   string
	ReactionEmojis      []string

	// Payments.
	PixKey        string
	ReceiverName  string
	ReceiverCity  string
	BlinkAPIKey   string
	BlinkWalletID string
	BlinkURL      string
	FXURL         string

	// Orders.
	OrderTimeout time.Duration
	WarnGrace    time.Duration
	CloseDelay   time.Duration

	// Storage. DBConnString empty means the JSON file ledger.
	LedgerPath   string
	DBConnString string

	// Keep-alive HTTP server.
	HTTPAddr        string
	ShutdownTimeout time.Duration
}

// FromEnv builds Config with defaults, overridden by environment variables.
func FromEnv() Config {
	return Config{
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		GuildID:      os.Getenv("GUILD_ID"),
		OwnerID:      os.Getenv("OWNER_ID"),

		CategoryID:          os.Getenv("ORDER_CATEGORY_ID"),
		CustomerRoleID:      os.Getenv("CUSTOMER_ROLE_ID"),
		ReviewsChannelID:    os.Getenv("REVIEWS_CHANNEL_ID"),
		DeliveriesChannelID: os.Getenv("DELIVERIES_CHANNEL_ID"),
		SalesLogChannelID:   os.Getenv("SALES_LOG_CHANNEL_ID"),
		ReactionEmojis:      envList("REVIEW_REACTIONS", []string{"⭐", "🥰"}),

		PixKey:        os.Getenv("PIX_KEY"),
		ReceiverName:  envOrDefault("RECEIVER_NAME", "Venus Store"),
		ReceiverCity:  envOrDefault("RECEIVER_CITY", "SAO PAULO"),
		BlinkAPIKey:   os.Getenv("BLINK_API_KEY"),
		BlinkWalletID: os.Getenv("BLINK_WALLET_ID"),
		BlinkURL:      envOrDefault("BLINK_URL", lightning.DefaultEndpoint),
		FXURL:         envOrDefault("FX_URL", rates.DefaultEndpoint),

		OrderTimeout: envDuration("ORDER_TIMEOUT_SECONDS", time.Hour),
		WarnGrace:    envDuration("ORDER_WARN_GRACE_SECONDS", time.Minute),
		CloseDelay:   envDuration("ORDER_CLOSE_DELAY_SECONDS", 15*time.Second),

		LedgerPath:   envOrDefault("LEDGER_PATH", "vendas.json"),
		DBConnString: os.Getenv("DB_DSN"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
	}
}

// Validate reports the settings the bot cannot start without.
func (c Config) Validate() error {
	var missing []string
	if c.DiscordToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if c.GuildID == "" {
		missing = append(missing, "GUILD_ID")
	}
	if c.OwnerID == "" {
		missing = append(missing, "OWNER_ID")
	}
	if c.PixKey == "" {
		missing = append(missing, "PIX_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
