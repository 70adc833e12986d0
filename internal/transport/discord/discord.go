// Package discord adapts the order state machine to the Discord gateway:
// slash commands, buttons, modals, private order channels, role grants, and
// the notification channels.
package discord

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"venusstore/internal/domain"
	"venusstore/internal/invoicecache"
	"venusstore/internal/service/ledger"
	ordersvc "venusstore/internal/service/order"
)

// Config identifies the guild surface the bot operates on.
type Config struct {
	GuildID             string
	OwnerID             string
	CategoryID          string
	CustomerRoleID      string
	ReviewsChannelID    string
	DeliveriesChannelID string
	SalesLogChannelID   string
	ReactionEmojis      []string
}

// Bot owns the gateway session and implements the transport the order
// service consumes.
type Bot struct {
	session  *discordgo.Session
	cfg      Config
	orders   *ordersvc.Service
	ledger   *ledger.Service
	invoices *invoicecache.Cache
	logger   *log.Logger
}

// New wraps an authenticated (but not yet opened) session.
func New(session *discordgo.Session, cfg Config, logger *log.Logger) *Bot {
	return &Bot{session: session, cfg: cfg, logger: logger}
}

// Attach wires the order service, report ledger, and invoice cache, and
// registers the gateway handlers. Call before Open.
func (b *Bot) Attach(o *ordersvc.Service, l *ledger.Service, invoices *invoicecache.Cache) {
	b.orders = o
	b.ledger = l
	b.invoices = invoices
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteraction)
	b.session.AddHandler(b.onMessageCreate)
}

// Open connects to the gateway. Failure here is the one fatal error of the
// process.
func (b *Bot) Open() error {
	b.session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	return b.session.Open()
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

// RegisterCommands overwrites the guild's slash commands with the bot's
// three: the public calculator and the owner's report and reset.
func (b *Bot) RegisterCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{Name: "calculadora", Description: "Abre a calculadora de preços da loja"},
		{Name: "vendas", Description: "Mostra o relatório de vendas (apenas dono)"},
		{Name: "zerar_vendas", Description: "Zera todas as estatísticas de vendas (apenas dono)"},
	}
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.cfg.GuildID, commands)
	return err
}

func (b *Bot) onReady(s *discordgo.Session, _ *discordgo.Ready) {
	b.logger.Printf("gateway ready as %s", s.State.User.Username)
}

// onMessageCreate auto-reacts to buyer posts in the reviews channel.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.ChannelID != b.cfg.ReviewsChannelID || m.Author == nil || m.Author.Bot {
		return
	}
	for _, emoji := range b.cfg.ReactionEmojis {
		if err := s.MessageReactionAdd(m.ChannelID, m.ID, emoji); err != nil {
			b.logger.Printf("react to review %s: %v", m.ID, err)
		}
	}
}

const memberPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// CreateOrderChannel opens a private text channel visible only to the buyer,
// the bot, and the owner.
func (b *Bot) CreateOrderChannel(ctx context.Context, buyerID, buyerName string) (string, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			// The @everyone role shares the guild's ID.
			ID:   b.cfg.GuildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    buyerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberPermissions,
		},
		{
			ID:    b.session.State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberPermissions,
		},
		{
			ID:    b.cfg.OwnerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberPermissions,
		},
	}

	ch, err := b.session.GuildChannelCreateComplex(b.cfg.GuildID, discordgo.GuildChannelCreateData{
		Name:                 channelName(buyerName),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             b.cfg.CategoryID,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

// DeleteChannel removes an order channel. Deleting an already-deleted
// channel reports an error the callers tolerate.
func (b *Bot) DeleteChannel(ctx context.Context, channelID, reason string) error {
	_, err := b.session.ChannelDelete(channelID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	return err
}

// SendChannelMessage posts plain content to a channel.
func (b *Bot) SendChannelMessage(ctx context.Context, channelID, content string) error {
	_, err := b.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

// ResolveBuyer finds the member with an explicit grant on the order channel
// who is neither the bot nor the owner. Returns "" when the channel has no
// such member.
func (b *Bot) ResolveBuyer(ctx context.Context, channelID string) (string, error) {
	ch, err := b.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	for _, ow := range ch.PermissionOverwrites {
		if ow.Type != discordgo.PermissionOverwriteTypeMember {
			continue
		}
		if ow.ID == b.session.State.User.ID || ow.ID == b.cfg.OwnerID {
			continue
		}
		if ow.Allow&discordgo.PermissionViewChannel != 0 {
			return ow.ID, nil
		}
	}
	return "", nil
}

// GrantCustomerRole marks the buyer as a recognized customer.
func (b *Bot) GrantCustomerRole(ctx context.Context, buyerID string) error {
	return b.session.GuildMemberRoleAdd(b.cfg.GuildID, buyerID, b.cfg.CustomerRoleID, discordgo.WithContext(ctx))
}

// NotifyBuyer DMs the buyer their settlement confirmation.
func (b *Bot) NotifyBuyer(ctx context.Context, buyerID string, s domain.Sale) error {
	dm, err := b.session.UserChannelCreate(buyerID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = b.session.ChannelMessageSendEmbed(dm.ID, buyerConfirmationEmbed(s), discordgo.WithContext(ctx))
	return err
}

// AnnounceDelivery posts the delivery notice to the deliveries channel and
// the internal sales log. Each failure is independent.
func (b *Bot) AnnounceDelivery(ctx context.Context, s domain.Sale) error {
	embed := deliveryEmbed(s)
	var errs []error
	for _, channelID := range []string{b.cfg.DeliveriesChannelID, b.cfg.SalesLogChannelID} {
		if channelID == "" {
			continue
		}
		if _, err := b.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RequestReview mentions the buyer in the reviews channel.
func (b *Bot) RequestReview(ctx context.Context, buyerID string) error {
	if b.cfg.ReviewsChannelID == "" {
		return nil
	}
	content := "<@" + buyerID + ">, por favor, avalie sua experiência de compra!"
	_, err := b.session.ChannelMessageSend(b.cfg.ReviewsChannelID, content, discordgo.WithContext(ctx))
	return err
}

// channelName derives a channel name from the buyer's username the way
// Discord requires: lowercase, alphanumerics and dashes only.
func channelName(buyerName string) string {
	var sb strings.Builder
	sb.WriteString("pedido-")
	for _, r := range strings.ToLower(buyerName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
