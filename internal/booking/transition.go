package booking

import (
    "fmt"

    "github.com/dormwash/laundry-reservation/internal/model"
)

// Actions accepted by the status-update operation.
const (
    ActionCreate        = "create"
    ActionCancel        = "cancel"
    ActionSimulatePay   = "simulatePay"
    ActionStart         = "start"
    ActionComplete      = "complete"
    ActionAdminComplete = "adminComplete"
)

// Transition describes the writes a successful status action requires.
// The handler applies the field changes, appends one audit entry,
// adjusts credit when CreditDelta is non-zero and flips the machine
// mirror when MachineStatus is non-empty.
type Transition struct {
    NewStatus        string // status after the transition
    NewPaymentStatus string // payment status after the transition
    StampPayment     bool   // record payment_time = now
    StampWorkStart   bool   // record work_start_time = now, end_time = now + duration
    StampComplete    bool   // record complete_time = now
    MachineStatus    string // machine mirror target, empty for no flip
    CreditDelta      int    // credit adjustment, 0 for none
    CreditReason     string // ledger reason when CreditDelta != 0
}

// Outcome is the decision for one status action against one
// reservation.  Exactly one of three shapes comes back: a failure
// (Success false), an idempotent no-op (Success true, Transition nil),
// or a transition to apply (Success true, Transition set).
type Outcome struct {
    Success    bool
    Message    string
    Transition *Transition
}

// ApplyAction evaluates the status × payment-status state machine for
// the given action.  It never mutates the reservation; the returned
// transition carries the target values.  Repeating an action that
// already took effect is reported as success without a transition so
// callers stay idempotent.
func ApplyAction(action string, res *model.Reservation) Outcome {
    switch action {
    case ActionSimulatePay:
        if res.PaymentStatus == model.PaymentPaid {
            return Outcome{Success: true, Message: "already paid, nothing to do"}
        }
        t := &Transition{
            NewStatus:        res.Status,
            NewPaymentStatus: model.PaymentPaid,
            StampPayment:     true,
        }
        // Paying a pending (or lazily-expired) reservation confirms it.
        if res.Status == model.StatusPending || res.Status == model.StatusExpired {
            t.NewStatus = model.StatusConfirmed
        }
        return Outcome{Success: true, Message: "payment recorded", Transition: t}

    case ActionStart:
        if res.PaymentStatus != model.PaymentPaid {
            return Outcome{Success: false, Message: "please complete payment first"}
        }
        if res.Status == model.StatusWorking {
            return Outcome{Success: true, Message: "wash cycle already in progress"}
        }
        return Outcome{Success: true, Message: "wash cycle started", Transition: &Transition{
            NewStatus:        model.StatusWorking,
            NewPaymentStatus: res.PaymentStatus,
            StampWorkStart:   true,
            MachineStatus:    model.MachineWorking,
        }}

    case ActionComplete, ActionAdminComplete:
        if res.Status == model.StatusCompleted {
            return Outcome{Success: true, Message: "reservation already completed"}
        }
        t := &Transition{
            NewStatus:        model.StatusCompleted,
            NewPaymentStatus: res.PaymentStatus,
            StampComplete:    true,
            MachineStatus:    model.MachineAvailable,
            CreditDelta:      CompleteReward,
            CreditReason:     ReasonComplete,
        }
        if action == ActionAdminComplete {
            t.CreditReason = ReasonAdminComplete
        }
        // Completion settles the bill regardless of payment state.
        if res.PaymentStatus != model.PaymentPaid {
            t.NewPaymentStatus = model.PaymentPaid
            t.StampPayment = true
        }
        return Outcome{Success: true, Message: "reservation completed", Transition: t}

    default:
        return Outcome{Success: false, Message: fmt.Sprintf("unsupported action: %s", action)}
    }
}
