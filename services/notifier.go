package services

// Notifier pushes state changes to a client's open tabs.
type Notifier interface {
	Publish(clientID, kind string, payload any)
}

// event kinds
const (
	EventKindSession  = "session"
	EventKindCart     = "cart"
	EventKindCheckout = "checkout"
)

type NopNotifier struct{}

func (NopNotifier) Publish(string, string, any) {}
