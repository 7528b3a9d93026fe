package chat

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/go-chat-orders/internal/menu"
	"github.com/ariefcatur/go-chat-orders/internal/orders"
)

// Top-level commands understood while idle.
const (
	cmdCancel     = 0
	cmdPlaceOrder = 1
	cmdCurrent    = 97
	cmdHistory    = 98
	cmdCheckout   = 99
)

const mainMenu = `Select 1 to Place an order
Select 99 to checkout order
Select 98 to see order history
Select 97 to see current order
Select 0 to cancel order`

const scheduleHint = `(e.g., "Now" or "2025-04-29 12:00")`

// Reply is one answer to one message. PaymentURL is set only when the client should redirect.
type Reply struct {
	Text       string `json:"response"`
	PaymentURL string `json:"paymentUrl,omitempty"`
}

func text(lines ...string) Reply { return Reply{Text: strings.Join(lines, "\n")} }

func optionList(it menu.Item) string {
	lines := make([]string, 0, len(it.Options))
	for i, o := range it.Options {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, o))
	}
	return strings.Join(lines, "\n")
}

func describe(l orders.OrderLine) string {
	return fmt.Sprintf("%s (%s)", l.Item.Name, l.Option)
}

func cartListing(lines []orders.OrderLine) string {
	out := make([]string, 0, len(lines)+1)
	for _, l := range lines {
		out = append(out, fmt.Sprintf("%s - %s - Scheduled: %s", describe(l), menu.FormatPrice(l.Item.Price), l.Schedule))
	}
	out = append(out, "Total: "+menu.FormatPrice(orders.Total(lines)))
	return strings.Join(out, "\n")
}

func historyListing(entries []orders.HistoryEntry) string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s - Scheduled: %s at %s",
			describe(e.OrderLine), e.Schedule, e.CompletedAt.UTC().Format("2006-01-02T15:04:05Z")))
	}
	return strings.Join(out, "\n")
}
