package orders

const (
	TopicCheckoutInitiated = "order.checkout.initiated"
	TopicOrderPaid         = "order.paid"
	TopicPaymentFailed     = "order.payment.failed"
)

// Partition key = session id, so every event of one conversation stays ordered.
func PartitionKey(sessionID string) []byte { return []byte(sessionID) }
