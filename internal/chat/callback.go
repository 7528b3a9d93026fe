package chat

import (
	"context"
	"errors"
	"time"

	kafkax "github.com/ariefcatur/go-chat-orders/internal/kafka"
	"github.com/ariefcatur/go-chat-orders/internal/orders"
	"github.com/ariefcatur/go-chat-orders/internal/payment"
	"github.com/ariefcatur/go-chat-orders/internal/session"
	"github.com/sirupsen/logrus"
)

type Outcome int

const (
	// OutcomeUnverified leaves every piece of state untouched; the callback can be retried.
	OutcomeUnverified Outcome = iota
	OutcomePaid
	OutcomeDeclined
)

func (o Outcome) String() string {
	switch o {
	case OutcomePaid:
		return "paid"
	case OutcomeDeclined:
		return "declined"
	default:
		return "unverified"
	}
}

type Redirect struct {
	Outcome Outcome
	Message string
}

var (
	redirectPaid       = Redirect{OutcomePaid, "Payment successful! Select 1 to place a new order."}
	redirectDeclined   = Redirect{OutcomeDeclined, "Payment failed. Try again."}
	redirectUnverified = Redirect{OutcomeUnverified, "Payment verification failed."}
	redirectProcessing = Redirect{OutcomeUnverified, "Payment is still processing. Check again shortly."}
)

// Callbacks finalizes or rolls back a checkout when the provider sends the customer back.
type Callbacks struct {
	store   session.Store
	locker  *session.Locker
	gateway payment.Gateway
	pending payment.PendingStore
	events  emitter
	log     *logrus.Logger
	now     func() time.Time
}

func NewCallbacks(store session.Store, locker *session.Locker, gw payment.Gateway, pending payment.PendingStore,
	pub kafkax.Publisher, serviceName string, log *logrus.Logger) *Callbacks {
	return &Callbacks{
		store:   store,
		locker:  locker,
		gateway: gw,
		pending: pending,
		events:  emitter{pub: pub, producer: serviceName},
		log:     log,
		now:     time.Now,
	}
}

func (h *Callbacks) OnCallback(ctx context.Context, reference string) Redirect {
	log := h.log.WithField("reference", reference)
	if reference == "" {
		log.Warn("callback without reference")
		return redirectUnverified
	}

	tx, err := h.pending.Get(ctx, reference)
	if err != nil {
		if errors.Is(err, payment.ErrUnknownReference) {
			log.Warn("callback for unknown reference")
		} else {
			log.WithError(err).Error("load pending transaction")
		}
		return redirectUnverified
	}
	log = log.WithField("session", tx.SessionID)

	v, err := h.gateway.Verify(ctx, reference)
	if err != nil {
		log.WithError(err).Warn("payment verify failed")
		return redirectUnverified
	}

	switch {
	case v.Status == payment.StatusPending:
		log.WithField("provider_status", v.ProviderStatus).Info("payment not settled yet")
		return redirectProcessing
	case v.Status == payment.StatusFailed:
		return h.decline(ctx, log, tx, "DECLINED")
	case v.AmountMinor != tx.AmountMinor:
		log.WithFields(logrus.Fields{"expected": tx.AmountMinor, "verified": v.AmountMinor}).Error("verified amount mismatch")
		return h.decline(ctx, log, tx, "AMOUNT_MISMATCH")
	}
	return h.finalize(ctx, log, tx)
}

func (h *Callbacks) decline(ctx context.Context, log *logrus.Entry, tx payment.PendingTransaction, reason string) Redirect {
	if err := h.pending.Delete(ctx, tx.Reference); err != nil {
		log.WithError(err).Error("delete pending transaction")
	}
	h.events.emit(orders.TopicPaymentFailed, orders.EventPaymentFailed, tx.SessionID, tx.Reference,
		orders.PaymentFailedPayload{
			Reference: tx.Reference,
			SessionID: tx.SessionID,
			Status:    orders.StatusFailed,
			Reason:    reason,
		})
	log.WithField("reason", reason).Info("payment declined")
	return redirectDeclined
}

func (h *Callbacks) finalize(ctx context.Context, log *logrus.Entry, tx payment.PendingTransaction) Redirect {
	unlock := h.locker.Lock(tx.SessionID)
	defer unlock()

	// a concurrent callback for the same reference may have finished first
	current, err := h.pending.Get(ctx, tx.Reference)
	if errors.Is(err, payment.ErrUnknownReference) {
		return redirectPaid
	}
	if err != nil {
		log.WithError(err).Error("reload pending transaction")
		return redirectUnverified
	}
	if !orders.CanTransition(current.Status, orders.StatusPaid) {
		log.WithField("status", current.Status).Error("pending transaction cannot be paid")
		return redirectUnverified
	}

	st, err := h.store.Get(ctx, tx.SessionID)
	if errors.Is(err, session.ErrCorruptState) {
		log.WithError(err).Warn("resetting corrupt session")
		st, err = session.New(), nil
	}
	if err != nil {
		log.WithError(err).Error("load session")
		return redirectUnverified
	}

	paidAt := h.now().UTC()
	st.AddHistory(orders.Archive(tx.Lines, tx.Reference, paidAt)...)
	if orders.HasPrefix(st.Cart, tx.Lines) {
		st.Cart = append([]orders.OrderLine(nil), st.Cart[len(tx.Lines):]...)
	}
	if err := h.store.Put(ctx, tx.SessionID, st); err != nil {
		log.WithError(err).Error("store paid session")
		return redirectUnverified
	}
	if err := h.pending.Delete(ctx, tx.Reference); err != nil {
		log.WithError(err).Error("delete pending transaction")
	}

	h.events.emit(orders.TopicOrderPaid, orders.EventOrderPaid, tx.SessionID, tx.Reference,
		orders.OrderPaidPayload{
			Reference:   tx.Reference,
			SessionID:   tx.SessionID,
			AmountMinor: tx.AmountMinor,
			Status:      orders.StatusPaid,
			Items:       orders.LineItems(tx.Lines),
			PaidAt:      paidAt,
		})
	log.Info("order paid")
	return redirectPaid
}
