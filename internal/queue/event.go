// Package queue defines message payloads exchanged over the message
// broker, the publisher used by the services, and the background
// consumer that turns events into notifications.
package queue

// Queue names.  One queue per event type; both are declared durable.
const (
	FeeSettledQueue            = "fee.settled"
	DisbursementCompletedQueue = "disbursement.completed"
)

// FeeSettledEvent is published when a fee reaches full settlement.  It
// carries enough information for downstream consumers to notify the
// user or feed analytics without querying the primary database.
type FeeSettledEvent struct {
	FeeID      uint64 `json:"fee_id"`
	UserID     uint64 `json:"user_id"`
	RoomID     uint64 `json:"room_id"`
	HostelID   uint64 `json:"hostel_id"`
	AmountPaid string `json:"amount_paid"`
	BookingID  uint64 `json:"booking_id,omitempty"`
	SettledAt  string `json:"settled_at"`
}

// DisbursementCompletedEvent is published when a payout is approved
// and the income record is written.
type DisbursementCompletedEvent struct {
	DisbursementID uint64 `json:"disbursement_id"`
	HostelID       uint64 `json:"hostel_id"`
	OwnerID        uint64 `json:"owner_id"`
	NetAmount      string `json:"net_amount"`
	ServiceFee     string `json:"service_fee"`
	CompletedAt    string `json:"completed_at"`
}
