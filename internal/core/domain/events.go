package domain

import "time"

// EventType names a loan application lifecycle transition
type EventType string

const (
	EventSubmitted EventType = "submitted"
	EventDecided   EventType = "decided"
	EventWithdrawn EventType = "withdrawn"
)

// LifecycleEvent is emitted after a loan application transition has been stored
type LifecycleEvent struct {
	Type          EventType         `json:"type"`
	ApplicationID string            `json:"application_id"`
	ProductID     string            `json:"product_id"`
	OwnerEmail    string            `json:"owner_email"`
	Status        ApplicationStatus `json:"status"`
	Actor         string            `json:"actor"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// RoutingKey is the topic routing key for the event
func (e LifecycleEvent) RoutingKey() string {
	return "loan_application." + string(e.Type)
}
