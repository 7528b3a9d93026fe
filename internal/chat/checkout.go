package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-chat-orders/internal/menu"
	"github.com/ariefcatur/go-chat-orders/internal/orders"
	"github.com/ariefcatur/go-chat-orders/internal/payment"
	"github.com/ariefcatur/go-chat-orders/internal/session"
	"github.com/sirupsen/logrus"
)

// checkout starts a payment for the whole cart. The cart stays as it is until
// the provider callback confirms the payment.
func (c *Controller) checkout(ctx context.Context, sessionID string, st session.State) (session.State, Reply) {
	if len(st.Cart) == 0 {
		return st, text("No order to place.", mainMenu)
	}

	total := orders.Total(st.Cart)
	ref := c.newRef()
	log := c.log.WithFields(logrus.Fields{"session": sessionID, "reference": ref, "amount": total})

	res, err := c.gateway.Initialize(ctx, payment.InitializeRequest{
		Reference:   ref,
		AmountMinor: total,
		Email:       fmt.Sprintf("user_%s@%s", sessionID, c.opts.EmailDomain),
		CallbackURL: c.opts.CallbackURL,
	})
	if err != nil {
		log.WithError(err).Warn("payment initialize failed")
		if errors.Is(err, payment.ErrRejected) {
			return st, text("Payment was rejected by the provider. Try again later.")
		}
		return st, text("Payment initiation failed. Try again.")
	}
	if res.Reference != "" {
		ref = res.Reference
	}

	tx := payment.PendingTransaction{
		Reference:   ref,
		SessionID:   sessionID,
		Lines:       append([]orders.OrderLine(nil), st.Cart...),
		AmountMinor: total,
		Status:      orders.StatusPendingPayment,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.pending.Save(ctx, tx); err != nil {
		// the customer never sees the URL, so the provider transaction is never paid
		log.WithError(err).Error("save pending transaction")
		return st, text("Payment initiation failed. Try again.")
	}

	c.events.emit(orders.TopicCheckoutInitiated, orders.EventCheckoutInitiated, sessionID, ref,
		orders.CheckoutInitiatedPayload{
			Reference:   ref,
			SessionID:   sessionID,
			AmountMinor: total,
			Status:      orders.StatusPendingPayment,
			Items:       orders.LineItems(tx.Lines),
		})
	log.Info("checkout initiated")

	return st, Reply{
		Text: fmt.Sprintf("Order placed! Pay %s here: %s\nYour order is confirmed once the payment completes.",
			menu.FormatPrice(total), res.RedirectURL),
		PaymentURL: res.RedirectURL,
	}
}
