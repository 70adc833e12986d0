package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"venusstore/internal/domain"
	"venusstore/internal/service/ledger"
	ordersvc "venusstore/internal/service/order"
	"venusstore/internal/transport/action"
)

const (
	colorStore     = 0x00FF99
	colorLightning = 0xF7931A
	colorPanel     = 0xFFA7FA
)

func kindLabel(kind domain.ProductKind) string {
	if kind == domain.KindBundle {
		return "Gamepass"
	}
	return "Robux"
}

func methodLabel(method domain.PaymentMethod) string {
	if method == domain.MethodLightning {
		return "⚡ Lightning"
	}
	return "💳 PIX"
}

func brl(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}

func calculatorPanel() (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title:       "💰 Calculadora de Robux e Gamepass",
		Description: "Converta rapidamente valores de Robux ou Gamepasses para reais (R$).\n\nEscolha abaixo o que deseja calcular e veja o valor atualizado!",
		Color:       colorPanel,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "📦 Vantagens da Loja",
				Value: "✅ Entrega rápida\n✅ Pagamento via Pix ou Bitcoin Lightning\n✅ Suporte dedicado",
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Vênus Community • robux seguros e baratos"},
	}
	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			CustomID: action.Action{Kind: action.OpenCalculator, Product: domain.KindCurrency}.Encode(),
			Label:    "Calcular Robux",
			Style:    discordgo.PrimaryButton,
		},
		discordgo.Button{
			CustomID: action.Action{Kind: action.OpenCalculator, Product: domain.KindBundle}.Encode(),
			Label:    "Calcular Gamepass",
			Style:    discordgo.SecondaryButton,
		},
	}}
	return embed, []discordgo.MessageComponent{row}
}

func calculatorModal(kind domain.ProductKind) *discordgo.InteractionResponseData {
	label := "Valor de Robux desejado"
	if kind == domain.KindBundle {
		label = "Quantia de robux do produto"
	}
	return &discordgo.InteractionResponseData{
		CustomID: action.Action{Kind: action.SubmitCalculator, Product: kind}.Encode(),
		Title:    "Calculadora de Robux",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    "valor",
					Label:       label,
					Placeholder: "Coloque apenas números!",
					Style:       discordgo.TextInputShort,
					Required:    true,
				},
			}},
		},
	}
}

func quoteEmbed(q ordersvc.Quote) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	fields := []*discordgo.MessageEmbedField{
		{Name: kindLabel(q.Kind), Value: fmt.Sprintf("%v", q.Quantity), Inline: true},
	}
	if q.BundleQuantity > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Valor da Gamepass", Value: fmt.Sprintf("%d", q.BundleQuantity), Inline: true,
		})
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "Preço", Value: brl(q.Price), Inline: true})
	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("🧮 Calculadora de %s", kindLabel(q.Kind)),
		Color:  colorStore,
		Footer: &discordgo.MessageEmbedFooter{Text: "© Vênus Community"},
		Fields: fields,
	}
	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			CustomID: action.Action{Kind: action.Buy, Product: q.Kind, Quantity: q.Quantity}.Encode(),
			Label:    "💰 Comprar",
			Style:    discordgo.SuccessButton,
		},
	}}
	return embed, []discordgo.MessageComponent{row}
}

func orderEmbed(o *domain.Order) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title:       "🛒 Confirme seu pedido",
		Description: fmt.Sprintf("Pedido de **%s** no valor de **%v**", kindLabel(o.Kind), o.Quantity),
		Color:       colorStore,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Preço a pagar (R$)", Value: brl(o.Price), Inline: true},
			{Name: "Cliente", Value: "<@" + o.BuyerID + ">", Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Escolha seu método de pagamento ou cancele o pedido."},
	}
	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			CustomID: action.Action{Kind: action.PayPix}.Encode(),
			Label:    "💳 Pagar com PIX",
			Style:    discordgo.PrimaryButton,
		},
		discordgo.Button{
			CustomID: action.Action{Kind: action.PayLightning}.Encode(),
			Label:    "⚡ Pagar com Lightning",
			Style:    discordgo.SecondaryButton,
		},
		cancelButton(),
	}}
	return embed, []discordgo.MessageComponent{row}
}

func pixEmbed(o *domain.Order) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title:       "📲 Pagamento via PIX",
		Description: fmt.Sprintf("Pague o valor de %s usando o QR Code abaixo ou copie o código Pix.", brl(o.Price)),
		Color:       colorStore,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Código Pix (copiar e colar):", Value: "```" + o.Pix.Payload + "```"},
		},
		Image: &discordgo.MessageEmbedImage{URL: "attachment://pix-qrcode.png"},
	}
	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			CustomID: action.Action{Kind: action.CopyPix}.Encode(),
			Label:    "📋 Copiar código Pix",
			Style:    discordgo.PrimaryButton,
		},
		discordgo.Button{
			CustomID: action.Action{Kind: action.ConfirmPix}.Encode(),
			Label:    "✅ Confirmar Pagamento PIX",
			Style:    discordgo.SuccessButton,
		},
		backButton(),
		cancelButton(),
	}}
	return embed, []discordgo.MessageComponent{row}
}

func lightningEmbed(o *domain.Order) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	ln := o.Lightning
	preview := ln.PaymentRequest
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	embed := &discordgo.MessageEmbed{
		Title:       "⚡ Pagamento via Lightning Network",
		Description: fmt.Sprintf("Pague o valor de %s (≈ $%.2f USD) usando sua carteira Lightning.", brl(ln.AmountBRL), ln.AmountUSD),
		Color:       colorLightning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Invoice Lightning (copiar e colar):", Value: "```" + preview + "```"},
			{Name: "Valor em BRL:", Value: brl(ln.AmountBRL), Inline: true},
			{Name: "Valor em USD:", Value: fmt.Sprintf("$%.2f", ln.AmountUSD), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Use uma carteira Lightning como Phoenix, Wallet of Satoshi, etc."},
	}
	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			CustomID: action.Action{Kind: action.CopyLightning, Token: ln.PaymentHash}.Encode(),
			Label:    "📋 Copiar Invoice",
			Style:    discordgo.PrimaryButton,
		},
		discordgo.Button{
			CustomID: action.Action{Kind: action.VerifyLightning}.Encode(),
			Label:    "🔍 Verificar Pagamento",
			Style:    discordgo.SuccessButton,
		},
		backButton(),
		cancelButton(),
	}}
	return embed, []discordgo.MessageComponent{row}
}

func buyerConfirmationEmbed(s domain.Sale) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎉 Pedido Confirmado!",
		Description: fmt.Sprintf("Seu pedido de %v %s foi confirmado!", s.Quantity, kindLabel(s.Kind)),
		Color:       colorStore,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Método de Pagamento", Value: methodLabel(s.Method), Inline: true},
			{Name: "Valor Pago", Value: brl(s.Price), Inline: true},
			{Name: "Próximo Passo", Value: "Por favor, abra um ticket para realizar o resgate."},
		},
	}
}

func deliveryEmbed(s domain.Sale) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🚀 Nova Entrega Realizada!",
		Color: colorStore,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Cliente", Value: "<@" + s.BuyerID + ">", Inline: true},
			{Name: "Produto", Value: fmt.Sprintf("%v %s", s.Quantity, kindLabel(s.Kind)), Inline: true},
			{Name: "Valor", Value: brl(s.Price), Inline: true},
			{Name: "Pagamento", Value: methodLabel(s.Method), Inline: true},
			{Name: "Data/Hora", Value: fmt.Sprintf("<t:%d:F>", s.SoldAt.Unix()), Inline: true},
		},
	}
}

func reportEmbed(r ledger.Report, now time.Time) *discordgo.MessageEmbed {
	window := func(w ledger.Window) string {
		return fmt.Sprintf("%s (%d vendas)", brl(w.Total), w.Count)
	}
	return &discordgo.MessageEmbed{
		Title: "📊 Relatório de Vendas",
		Color: colorStore,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Hoje", Value: window(r.Today), Inline: true},
			{Name: "Últimos 7 dias", Value: window(r.Last7d), Inline: true},
			{Name: "Últimos 30 dias", Value: window(r.Last30d), Inline: true},
			{Name: "Total Geral", Value: window(r.AllTime)},
		},
		Timestamp: now.Format(time.RFC3339),
	}
}

func backButton() discordgo.Button {
	return discordgo.Button{
		CustomID: action.Action{Kind: action.Back}.Encode(),
		Label:    "🔙 Voltar",
		Style:    discordgo.SecondaryButton,
	}
}

func cancelButton() discordgo.Button {
	return discordgo.Button{
		CustomID: action.Action{Kind: action.Cancel}.Encode(),
		Label:    "❌ Cancelar",
		Style:    discordgo.DangerButton,
	}
}
