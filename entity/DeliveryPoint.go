package entity

// DeliveryPoint is static reference data offered during checkout.
// A point with a TableID is served at that table; otherwise Address is used.
type DeliveryPoint struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
	TableID string `json:"tableId,omitempty" yaml:"tableId,omitempty"`
}
