package entity

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCard           PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentCard
}

// Status is the payment status an order is created with for this method.
func (m PaymentMethod) Status() PaymentStatus {
	if m == PaymentCard {
		return PaymentPaid
	}
	return PaymentPending
}
