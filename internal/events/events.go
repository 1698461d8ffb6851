package events

// Portal event types emitted through the outbox.
const (
	EventPortAssigned     = "port.assigned"
	EventPortReassigned   = "port.reassigned"
	EventPortReleased     = "port.released"
	EventSubscriptionPaid = "subscription.paid"
	EventLeadCaptured     = "lead.captured"
	EventTicketOpened     = "ticket.opened"
)

// PortEventPayload captures the minimal data for port lifecycle events.
type PortEventPayload struct {
	PortID         string `json:"port_id"`
	SubscriptionID string `json:"subscription_id"`
	PerformedBy    string `json:"performed_by,omitempty"`
}

// SubscriptionEventPayload captures the minimal data for subscription events.
type SubscriptionEventPayload struct {
	SubscriptionID string `json:"subscription_id"`
	CustomerID     string `json:"customer_id"`
	PlanID         string `json:"plan_id"`
}
