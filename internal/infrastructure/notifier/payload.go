package notifier

import (
	"fmt"
	"time"

	"buybox_tracker/internal/domain/entity"
)

// Discord webhook payload shapes.
type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Fields      []field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp"`
}

type field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

const (
	colorGain = 0x00ff00
	colorLoss = 0xff0000
	colorSale = 0xffa500
)

func newEventPayload(event entity.Event) webhookPayload {
	switch event.Kind {
	case entity.EventSaleEstimate:
		return newSalePayload(event)
	default:
		return newOwnershipPayload(event)
	}
}

func newOwnershipPayload(event entity.Event) webhookPayload {
	title := "❌ BuyBox LOST"
	color := colorLoss
	if event.IsGain {
		title = "✅ BuyBox GAINED"
		color = colorGain
	}

	e := embed{
		Title:       title,
		Description: fmt.Sprintf("**Item:** %s", event.ItemID),
		Color:       color,
		Fields: []field{
			{Name: "Previous Holder", Value: holderLabel(event.OldHolderName, event.OldHolderID), Inline: true},
			{Name: "New Holder", Value: holderLabel(event.NewHolderName, event.NewHolderID), Inline: true},
		},
		Timestamp: event.OccurredAt.Format(time.RFC3339),
	}

	if event.ItemLabel != "" {
		e.Description += fmt.Sprintf("\n**Product:** %s", event.ItemLabel)
	}

	if event.Price != nil {
		e.Fields = append(e.Fields, field{
			Name:   "Price",
			Value:  fmt.Sprintf("%s %.2f", event.Currency, *event.Price),
			Inline: true,
		})
	}

	return webhookPayload{Embeds: []embed{e}}
}

func newSalePayload(event entity.Event) webhookPayload {
	e := embed{
		Title:       "📉 Estimated Sale Detected",
		Description: fmt.Sprintf("**Item:** %s", event.ItemID),
		Color:       colorSale,
		Fields: []field{
			{Name: "Seller", Value: event.HolderName, Inline: true},
			{Name: "Stock Change", Value: fmt.Sprintf("%d → %d", event.StockBefore, event.StockAfter), Inline: true},
			{Name: "Estimated Units Sold", Value: fmt.Sprintf("%d", event.UnitsEstimated), Inline: true},
		},
		Timestamp: event.OccurredAt.Format(time.RFC3339),
	}

	if event.ItemLabel != "" {
		e.Description += fmt.Sprintf("\n**Product:** %s", event.ItemLabel)
	}

	return webhookPayload{Embeds: []embed{e}}
}

func holderLabel(name, id string) string {
	switch {
	case name != "":
		return name
	case id != "":
		return id
	default:
		return "None"
	}
}
