package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-chat-orders/internal/orders"
	"github.com/ariefcatur/go-chat-orders/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkedOut leaves session s1 with one $15 Pizza line and pending reference ref-1.
func checkedOut(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.send(t, "s1", "2", "1", "Now", "99")
	h.callbacks.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	h.gw.verify = payment.Verification{Status: payment.StatusSuccess, AmountMinor: 1500}
	return h
}

func TestCallback_SuccessMovesCartToHistory(t *testing.T) {
	h := checkedOut(t)

	red := h.callbacks.OnCallback(context.Background(), "ref-1")
	assert.Equal(t, OutcomePaid, red.Outcome)
	assert.Equal(t, "Payment successful! Select 1 to place a new order.", red.Message)

	st := h.state(t, "s1")
	assert.Empty(t, st.Cart)
	require.Len(t, st.History, 1)
	assert.Equal(t, "Pizza", st.History[0].Item.Name)
	assert.Equal(t, "Pepperoni", st.History[0].Option)
	assert.Equal(t, orders.ScheduleNow, st.History[0].Schedule)
	assert.Equal(t, "ref-1", st.History[0].Reference)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), st.History[0].CompletedAt)

	_, err := h.pending.Get(context.Background(), "ref-1")
	assert.ErrorIs(t, err, payment.ErrUnknownReference)

	assert.Equal(t, []string{orders.TopicCheckoutInitiated, orders.TopicOrderPaid}, h.pub.topics())
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(h.pub.events[1].value, &env))
	assert.Equal(t, orders.EventOrderPaid, env.EventType)
	var p orders.OrderPaidPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, int64(1500), p.AmountMinor)
	require.Len(t, p.Items, 1)
	assert.Equal(t, 2, p.Items[0].ItemID)

	r := h.send(t, "s1", "98")
	assert.Contains(t, r.Text, "Pizza (Pepperoni) - Scheduled: now at 2026-03-01T12:00:00Z")
}

func TestCallback_DeclinedKeepsCartAndHistory(t *testing.T) {
	h := checkedOut(t)
	h.gw.verify = payment.Verification{Status: payment.StatusFailed, ProviderStatus: "failed"}

	red := h.callbacks.OnCallback(context.Background(), "ref-1")
	assert.Equal(t, OutcomeDeclined, red.Outcome)
	assert.Equal(t, "Payment failed. Try again.", red.Message)

	st := h.state(t, "s1")
	assert.Len(t, st.Cart, 1)
	assert.Empty(t, st.History)

	_, err := h.pending.Get(context.Background(), "ref-1")
	assert.ErrorIs(t, err, payment.ErrUnknownReference)
	assert.Equal(t, []string{orders.TopicCheckoutInitiated, orders.TopicPaymentFailed}, h.pub.topics())

	// user may check out again
	r := h.send(t, "s1", "99")
	assert.NotEmpty(t, r.PaymentURL)
}

func TestCallback_VerifyErrorLeavesEverything(t *testing.T) {
	h := checkedOut(t)
	h.gw.verifyErr = &payment.Error{Op: "verify", Kind: payment.ErrNetwork, Err: errors.New("timeout")}

	red := h.callbacks.OnCallback(context.Background(), "ref-1")
	assert.Equal(t, OutcomeUnverified, red.Outcome)
	assert.Equal(t, "Payment verification failed.", red.Message)

	st := h.state(t, "s1")
	assert.Len(t, st.Cart, 1)
	assert.Empty(t, st.History)
	_, err := h.pending.Get(context.Background(), "ref-1")
	require.NoError(t, err, "pending transaction kept for a retry")

	h.gw.verifyErr = nil
	red = h.callbacks.OnCallback(context.Background(), "ref-1")
	assert.Equal(t, OutcomePaid, red.Outcome)
	assert.Len(t, h.state(t, "s1").History, 1)
}

func TestCallback_UnknownReference(t *testing.T) {
	h := checkedOut(t)

	for _, ref := range []string{"", "nope"} {
		red := h.callbacks.OnCallback(context.Background(), ref)
		assert.Equal(t, OutcomeUnverified, red.Outcome)
		assert.Equal(t, "Payment verification failed.", red.Message)
	}
	assert.Empty(t, h.gw.verifyCalls)
	assert.Len(t, h.state(t, "s1").Cart, 1)
}

func TestCallback_SecondCallbackAfterSuccess(t *testing.T) {
	h := checkedOut(t)
	require.Equal(t, OutcomePaid, h.callbacks.OnCallback(context.Background(), "ref-1").Outcome)

	red := h.callbacks.OnCallback(context.Background(), "ref-1")
	assert.Equal(t, OutcomeUnverified, red.Outcome)
	assert.Len(t, h.state(t, "s1").History, 1, "history grows once")
}

func TestCallback_AmountMismatchIsDeclined(t *testing.T) {
	h := checkedOut(t)
	h.gw.verify = payment.Verification{Status: payment.StatusSuccess, AmountMinor: 100}

	red := h.callbacks.OnCallback(context.Background(), "ref-1")
	assert.Equal(t, OutcomeDeclined, red.Outcome)
	assert.Empty(t, h.state(t, "s1").History)
	assert.Len(t, h.state(t, "s1").Cart, 1)
}

func TestCallback_PendingAtProviderIsRetryable(t *testing.T) {
	h := checkedOut(t)
	h.gw.verify = payment.Verification{Status: payment.StatusPending, ProviderStatus: "ongoing"}

	red := h.callbacks.OnCallback(context.Background(), "ref-1")
	assert.Equal(t, OutcomeUnverified, red.Outcome)
	assert.Equal(t, "Payment is still processing. Check again shortly.", red.Message)
	_, err := h.pending.Get(context.Background(), "ref-1")
	assert.NoError(t, err)
	assert.Len(t, h.state(t, "s1").Cart, 1)
}

func TestCallback_RebuiltCartIsLeftAlone(t *testing.T) {
	h := checkedOut(t)
	// cancel and build a different order while the payment is outstanding
	h.send(t, "s1", "0", "3", "1", "tonight")

	red := h.callbacks.OnCallback(context.Background(), "ref-1")
	require.Equal(t, OutcomePaid, red.Outcome)

	st := h.state(t, "s1")
	require.Len(t, st.History, 1)
	assert.Equal(t, "Pizza", st.History[0].Item.Name)
	require.Len(t, st.Cart, 1)
	assert.Equal(t, "Salad", st.Cart[0].Item.Name)
}

func TestCallback_LinesAddedAfterCheckoutSurvive(t *testing.T) {
	h := checkedOut(t)
	h.send(t, "s1", "3", "2", "Now")

	require.Equal(t, OutcomePaid, h.callbacks.OnCallback(context.Background(), "ref-1").Outcome)

	st := h.state(t, "s1")
	require.Len(t, st.Cart, 1)
	assert.Equal(t, "Salad", st.Cart[0].Item.Name)
	assert.Len(t, st.History, 1)
}
