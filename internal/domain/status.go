package domain

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusProcessing     OrderStatus = "processing"
	StatusShipped        OrderStatus = "shipped"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusReturned       OrderStatus = "returned"
	StatusRefunded       OrderStatus = "refunded"
)

// validNext encodes the legal order-status transitions. A delivered order can
// never be cancelled, and refunded is reachable only after the money side has
// something to give back (cancelled/returned, or a paid order in processing).
var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:        {StatusConfirmed: true, StatusProcessing: true, StatusCancelled: true},
	StatusConfirmed:      {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing:     {StatusShipped: true, StatusCancelled: true, StatusRefunded: true},
	StatusShipped:        {StatusOutForDelivery: true, StatusDelivered: true, StatusReturned: true},
	StatusOutForDelivery: {StatusDelivered: true, StatusReturned: true},
	StatusDelivered:      {StatusReturned: true},
	StatusCancelled:      {StatusRefunded: true},
	StatusReturned:       {StatusRefunded: true},
	StatusRefunded:       {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

func ValidStatus(s OrderStatus) bool {
	_, ok := validNext[s]
	return ok
}
