package events

import (
	"encoding/json"
	"time"
)

// Change kinds carried on the wire.
const (
	KindUserSignedUp   = "user_signed_up"
	KindExpenseAdded   = "expense_added"
	KindExpenseDeleted = "expense_deleted"
	KindCategoryAdded  = "category_added"
	KindBudgetUpdated  = "budget_updated"
)

// ChangeEvent describes one mutation to a user's dataset. It carries
// identifiers only; consumers that need the data fetch it themselves.
type ChangeEvent struct {
	Email      string    `json:"email"`
	Kind       string    `json:"kind"`
	EntityID   string    `json:"entity_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewChangeEvent stamps an event with the current time.
func NewChangeEvent(email, kind, entityID string) ChangeEvent {
	return ChangeEvent{
		Email:      email,
		Kind:       kind,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON serializes the event for publishing.
func (e ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON deserializes an event from a delivery body.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
