package model

import "time"

// EventType identifies a store mutation pushed to subscribers and onto the
// event stream.
type EventType string

const (
	EventDonationSubmitted EventType = "donation_submitted"
	EventDonationApproved  EventType = "donation_approved"
	EventDonationRejected  EventType = "donation_rejected"
	EventListingCreated    EventType = "listing_created"
	EventListingPurchased  EventType = "listing_purchased"
)

// Event is emitted after a store operation commits. Readers never observe a
// partially applied mutation; the event always describes fully committed
// state.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	DonationID    int64     `json:"donation_id,omitempty"`
	ListingID     int64     `json:"listing_id,omitempty"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	ActorID       int64     `json:"actor_id,omitempty"`
	OwnerID       int64     `json:"owner_id,omitempty"`
	Amount        uint      `json:"amount,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
