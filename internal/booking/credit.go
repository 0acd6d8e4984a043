package booking

import (
    "time"

    "github.com/dormwash/laundry-reservation/internal/model"
)

// Credit deltas and ledger reasons for reservation lifecycle events.
const (
    CancelPenalty  = -8
    CompleteReward = 5

    ReasonCancel        = "cancelReservation"
    ReasonCancelEarly   = "cancelReservationEarly"
    ReasonComplete      = "completeReservation"
    ReasonAdminComplete = "adminCompleteReservation"
)

// ClampScore bounds a credit score into [model.CreditMin, model.CreditMax].
func ClampScore(score int) int {
    if score < model.CreditMin {
        return model.CreditMin
    }
    if score > model.CreditMax {
        return model.CreditMax
    }
    return score
}

// CancelAdjustment decides the credit consequence of cancelling a
// reservation.  The default is the cancellation penalty.  The penalty
// is waived when the reservation is still unpaid and pending and the
// cancellation happens within the payment window the user would have
// had anyway: elapsed time since creation must not exceed
// paymentDeadline − createdAt.
func CancelAdjustment(res *model.Reservation, now time.Time) (delta int, reason string) {
    delta, reason = CancelPenalty, ReasonCancel
    if res.PaymentStatus != model.PaymentUnpaid || res.Status != model.StatusPending {
        return delta, reason
    }
    sinceCreate := now.Sub(res.CreatedAt)
    window := res.PaymentDeadline.Sub(res.CreatedAt)
    if window > 0 && sinceCreate <= window {
        return 0, ReasonCancelEarly
    }
    return delta, reason
}
