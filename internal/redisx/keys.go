package redisx

import "time"

const (
	// Conversation state: chat:session:{session_id} -> JSON session.State
	KeySession = "chat:session:%s"

	// Pending payment: paytx:{reference} -> JSON payment.PendingTransaction
	KeyPendingTx = "paytx:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLSession   = 24 * time.Hour
	TTLPendingTx = 2 * time.Hour
	TTLDedup     = 48 * time.Hour
)
