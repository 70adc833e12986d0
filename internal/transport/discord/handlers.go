package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"venusstore/internal/domain"
	"venusstore/internal/lightning"
	"venusstore/internal/qr"
	ordersvc "venusstore/internal/service/order"
	"venusstore/internal/transport/action"
)

const qrFileName = "pix-qrcode.png"

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(i)
	case discordgo.InteractionModalSubmit:
		b.handleModal(i)
	}
}

// interactionUser works for both guild and DM interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

func (b *Bot) handleCommand(i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if user == nil {
		return
	}
	data := i.ApplicationCommandData()

	switch data.Name {
	case "calculadora":
		embed, components := calculatorPanel()
		b.respond(i, &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		})
	case "vendas":
		if user.ID != b.cfg.OwnerID {
			b.respondEphemeral(i, "❌ Apenas o dono da loja pode usar este comando.")
			return
		}
		now := time.Now()
		b.respond(i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{reportEmbed(b.ledger.Report(now), now)},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
	case "zerar_vendas":
		if user.ID != b.cfg.OwnerID {
			b.respondEphemeral(i, "❌ Apenas o dono da loja pode usar este comando.")
			return
		}
		if err := b.ledger.Clear(context.Background()); err != nil {
			b.logger.Printf("clear sales ledger: %v", err)
			b.respondEphemeral(i, "❌ Não foi possível zerar as vendas. Tente novamente.")
			return
		}
		b.respondEphemeral(i, "✅ Estatísticas de vendas zeradas.")
	}
}

func (b *Bot) handleComponent(i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if user == nil {
		return
	}
	a, err := action.Parse(i.MessageComponentData().CustomID)
	if err != nil {
		b.logger.Printf("parse component id %q: %v", i.MessageComponentData().CustomID, err)
		b.respondEphemeral(i, "❌ Este botão não é mais válido.")
		return
	}

	ctx := context.Background()
	channelID := i.ChannelID

	switch a.Kind {
	case action.OpenCalculator:
		b.respondModal(i, calculatorModal(a.Product))

	case action.Buy:
		o, err := b.orders.Open(ctx, user.ID, user.Username, a.Product, a.Quantity)
		if err != nil {
			b.logger.Printf("open order for %s: %v", user.ID, err)
			b.respondEphemeral(i, "❌ Não foi possível abrir seu pedido. Tente novamente.")
			return
		}
		embed, components := orderEmbed(o)
		if _, err := b.session.ChannelMessageSendComplex(o.ChannelID, &discordgo.MessageSend{
			Content:    "<@" + o.BuyerID + ">",
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		}); err != nil {
			b.logger.Printf("post order embed to %s: %v", o.ChannelID, err)
		}
		b.respondEphemeral(i, fmt.Sprintf("🛒 Seu pedido foi aberto em <#%s>!", o.ChannelID))

	case action.PayPix:
		o, err := b.orders.SelectPix(ctx, channelID, user.ID)
		if err != nil {
			b.respondEphemeral(i, userMessage(err))
			return
		}
		embed, components := pixEmbed(o)
		data := &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		}
		if png, err := qr.PNG(o.Pix.Payload); err != nil {
			b.logger.Printf("render pix QR for order %s: %v", o.ID, err)
			embed.Image = nil
		} else {
			data.Files = []*discordgo.File{{
				Name:        qrFileName,
				ContentType: "image/png",
				Reader:      bytes.NewReader(png),
			}}
		}
		b.update(i, data)

	case action.PayLightning:
		// Invoice creation goes over the network; acknowledge first.
		if err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			b.logger.Printf("defer lightning select: %v", err)
			return
		}
		o, err := b.orders.SelectLightning(ctx, channelID, user.ID)
		if err != nil {
			b.followupEphemeral(i, userMessage(err))
			return
		}
		b.invoices.Put(o.Lightning.PaymentHash, o.Lightning.PaymentRequest)
		embed, components := lightningEmbed(o)
		embeds := []*discordgo.MessageEmbed{embed}
		if _, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Embeds:     &embeds,
			Components: &components,
		}); err != nil {
			b.logger.Printf("edit lightning embed: %v", err)
		}

	case action.Back:
		o, err := b.orders.Back(ctx, channelID, user.ID)
		if err != nil {
			b.respondEphemeral(i, userMessage(err))
			return
		}
		embed, components := orderEmbed(o)
		b.update(i, &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		})

	case action.Cancel:
		// Respond before Cancel deletes the channel out from under the
		// interaction.
		b.update(i, &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
			Content:    "❌ Pedido cancelado. Este canal será excluído.",
		})
		if err := b.orders.Cancel(ctx, channelID, user.ID); err != nil {
			b.logger.Printf("cancel order in %s: %v", channelID, err)
		}

	case action.ConfirmPix:
		sale, err := b.orders.ConfirmManual(ctx, channelID, user.ID)
		if err != nil {
			b.respondEphemeral(i, userMessage(err))
			return
		}
		b.respondEphemeral(i, "✅ Pagamento confirmado!")
		b.announceClosure(ctx, channelID, sale)

	case action.VerifyLightning:
		if err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		}); err != nil {
			b.logger.Printf("defer lightning verify: %v", err)
			return
		}
		status, sale, err := b.orders.VerifyLightning(ctx, channelID)
		switch {
		case errors.Is(err, domain.ErrAlreadySettled):
			b.editResponse(i, "✅ Este pedido já foi confirmado.")
		case err != nil:
			b.editResponse(i, userMessage(err))
		case status == lightning.StatusPaid:
			b.editResponse(i, "✅ Pagamento confirmado! 🎉")
			b.announceClosure(ctx, channelID, sale)
		case status == lightning.StatusExpired:
			b.editResponse(i, "⌛ A invoice expirou. Volte e gere uma nova.")
		default:
			b.editResponse(i, "⏳ Pagamento ainda não detectado. Aguarde alguns instantes e verifique novamente.")
		}

	case action.CopyPix:
		o, ok := b.orders.Get(channelID)
		if !ok || o.Pix == nil {
			b.respondEphemeral(i, "❌ Pedido não encontrado.")
			return
		}
		b.respondEphemeral(i, o.Pix.Payload)

	case action.CopyLightning:
		invoice, ok := b.invoices.Get(a.Token)
		if !ok {
			b.respondEphemeral(i, "❌ Invoice não encontrada. Volte e gere uma nova.")
			return
		}
		b.respondEphemeral(i, invoice)
	}
}

func (b *Bot) handleModal(i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	a, err := action.Parse(data.CustomID)
	if err != nil {
		b.logger.Printf("parse modal id %q: %v", data.CustomID, err)
		return
	}
	if a.Kind != action.SubmitCalculator {
		b.logger.Printf("unexpected modal action %s in %q", a.Kind, data.CustomID)
		return
	}

	raw := modalValue(data, "valor")
	q, err := b.orders.BuildQuote(a.Product, raw)
	if err != nil {
		b.respondEphemeral(i, "❌ Valor inválido! Coloque apenas números maiores que zero.")
		return
	}

	embed, components := quoteEmbed(q)
	b.respond(i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

// announceClosure tells the order channel it is about to be removed. The
// channel may already be gone; that only costs a log line.
func (b *Bot) announceClosure(ctx context.Context, channelID string, sale *domain.Sale) {
	if sale == nil {
		return
	}
	notice := fmt.Sprintf("✅ Pagamento de %s confirmado! Este canal será fechado em %d segundos.",
		brl(sale.Price), int(b.orders.CloseDelay().Seconds()))
	if err := b.SendChannelMessage(ctx, channelID, notice); err != nil {
		b.logger.Printf("announce closure in %s: %v", channelID, err)
	}
}

func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if input, ok := c.(*discordgo.TextInput); ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "❌ Valor inválido! Coloque apenas números maiores que zero."
	case errors.Is(err, domain.ErrNotOwner):
		return "❌ Apenas o dono da loja pode confirmar pagamentos."
	case errors.Is(err, domain.ErrNotBuyer):
		return "❌ Este pedido não é seu."
	case errors.Is(err, domain.ErrAlreadySettled):
		return "✅ Este pedido já foi confirmado."
	case errors.Is(err, domain.ErrNotFound):
		return "❌ Pedido não encontrado ou já encerrado."
	case ordersvc.IsProviderError(err):
		return "⚡ O provedor Lightning está indisponível no momento. Tente novamente em instantes."
	default:
		return "❌ Algo deu errado. Tente novamente."
	}
}

func (b *Bot) respond(i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	if err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		b.logger.Printf("respond to interaction %s: %v", i.ID, err)
	}
}

func (b *Bot) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	b.respond(i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) respondModal(i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	if err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	}); err != nil {
		b.logger.Printf("open modal for interaction %s: %v", i.ID, err)
	}
}

func (b *Bot) update(i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	if err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	}); err != nil {
		b.logger.Printf("update interaction %s: %v", i.ID, err)
	}
}

func (b *Bot) editResponse(i *discordgo.InteractionCreate, content string) {
	if _, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}); err != nil {
		b.logger.Printf("edit interaction response %s: %v", i.ID, err)
	}
}

func (b *Bot) followupEphemeral(i *discordgo.InteractionCreate, content string) {
	if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		b.logger.Printf("followup on interaction %s: %v", i.ID, err)
	}
}
