package orders

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaid           Status = "PAID"
	StatusFailed         Status = "FAILED"
)

var validNext = map[Status]map[Status]bool{
	StatusPendingPayment: {StatusPaid: true, StatusFailed: true},
	StatusPaid:           {},
	StatusFailed:         {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
