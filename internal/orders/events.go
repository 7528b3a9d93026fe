package orders

import (
	"encoding/json"
	"time"

	kafkax "github.com/ariefcatur/go-chat-orders/internal/kafka"
	"github.com/google/uuid"
)

const (
	EventCheckoutInitiated = "CheckoutInitiated"
	EventOrderPaid         = "OrderPaid"
	EventPaymentFailed     = "PaymentFailed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // payment reference
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload in a v1 envelope with a fresh event id.
func NewEnvelope(eventType, producer, correlationID string, payload any) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
}

// ---- payloads ----

type LineItem struct {
	ItemID   int    `json:"item_id"`
	Name     string `json:"name"`
	Option   string `json:"option"`
	Schedule string `json:"schedule"`
	Price    int64  `json:"price"`
}

func LineItems(lines []OrderLine) []LineItem {
	out := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineItem{
			ItemID:   l.Item.ID,
			Name:     l.Item.Name,
			Option:   l.Option,
			Schedule: l.Schedule,
			Price:    l.Item.Price,
		})
	}
	return out
}

type CheckoutInitiatedPayload struct {
	Reference   string     `json:"reference"`
	SessionID   string     `json:"session_id"`
	AmountMinor int64      `json:"amount_minor"`
	Status      Status     `json:"status"`
	Items       []LineItem `json:"items"`
}

type OrderPaidPayload struct {
	Reference   string     `json:"reference"`
	SessionID   string     `json:"session_id"`
	AmountMinor int64      `json:"amount_minor"`
	Status      Status     `json:"status"`
	Items       []LineItem `json:"items"`
	PaidAt      time.Time  `json:"paid_at"`
}

type PaymentFailedPayload struct {
	Reference string `json:"reference"`
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`
	Reason    string `json:"reason"` // e.g. DECLINED, AMOUNT_MISMATCH
}
