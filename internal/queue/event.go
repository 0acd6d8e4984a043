// Package queue defines message payloads exchanged over the message broker.
package queue

// EventsQueueName is the durable queue carrying reservation lifecycle events.
const EventsQueueName = "reservation.events"

// ReservationEvent is published after every committed reservation
// lifecycle transition (create, cancel, simulatePay, start, complete).
// It carries enough information for downstream consumers to log,
// notify, or reconcile the machine mirror without querying the primary
// database.  Publishing is best-effort: a lost event never unwinds the
// transition it describes.
type ReservationEvent struct {
    ReservationID string  `json:"reservation_id"`
    UserID        string  `json:"user_id"`
    MachineID     string  `json:"machine_id"`
    MachineName   string  `json:"machine_name"`
    Action        string  `json:"action"`
    FromStatus    string  `json:"from_status,omitempty"`
    ToStatus      string  `json:"to_status"`
    PaymentStatus string  `json:"payment_status"`
    TotalPrice    float64 `json:"total_price"`
    OccurredAt    string  `json:"occurred_at"`
}
