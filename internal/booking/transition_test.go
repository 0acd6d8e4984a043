package booking

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/dormwash/laundry-reservation/internal/model"
)

func pendingUnpaid() *model.Reservation {
    return &model.Reservation{Status: model.StatusPending, PaymentStatus: model.PaymentUnpaid}
}

func TestApplyActionSimulatePay(t *testing.T) {
    t.Run("pending becomes confirmed", func(t *testing.T) {
        out := ApplyAction(ActionSimulatePay, pendingUnpaid())
        require.True(t, out.Success)
        require.NotNil(t, out.Transition)
        assert.Equal(t, model.StatusConfirmed, out.Transition.NewStatus)
        assert.Equal(t, model.PaymentPaid, out.Transition.NewPaymentStatus)
        assert.True(t, out.Transition.StampPayment)
    })

    t.Run("expired revives to confirmed", func(t *testing.T) {
        res := pendingUnpaid()
        res.Status = model.StatusExpired
        out := ApplyAction(ActionSimulatePay, res)
        require.NotNil(t, out.Transition)
        assert.Equal(t, model.StatusConfirmed, out.Transition.NewStatus)
    })

    t.Run("idempotent when already paid", func(t *testing.T) {
        res := pendingUnpaid()
        res.PaymentStatus = model.PaymentPaid
        out := ApplyAction(ActionSimulatePay, res)
        assert.True(t, out.Success)
        assert.Nil(t, out.Transition)
    })
}

func TestApplyActionStart(t *testing.T) {
    t.Run("rejected while unpaid", func(t *testing.T) {
        out := ApplyAction(ActionStart, pendingUnpaid())
        assert.False(t, out.Success)
        assert.Nil(t, out.Transition)
    })

    t.Run("paid reservation starts working", func(t *testing.T) {
        res := pendingUnpaid()
        res.Status = model.StatusConfirmed
        res.PaymentStatus = model.PaymentPaid
        out := ApplyAction(ActionStart, res)
        require.True(t, out.Success)
        require.NotNil(t, out.Transition)
        assert.Equal(t, model.StatusWorking, out.Transition.NewStatus)
        assert.True(t, out.Transition.StampWorkStart)
        assert.Equal(t, model.MachineWorking, out.Transition.MachineStatus)
        assert.Zero(t, out.Transition.CreditDelta)
    })

    t.Run("idempotent when already working", func(t *testing.T) {
        res := pendingUnpaid()
        res.Status = model.StatusWorking
        res.PaymentStatus = model.PaymentPaid
        out := ApplyAction(ActionStart, res)
        assert.True(t, out.Success)
        assert.Nil(t, out.Transition)
    })
}

func TestApplyActionComplete(t *testing.T) {
    t.Run("completes and rewards credit", func(t *testing.T) {
        res := pendingUnpaid()
        res.Status = model.StatusWorking
        res.PaymentStatus = model.PaymentPaid
        out := ApplyAction(ActionComplete, res)
        require.True(t, out.Success)
        require.NotNil(t, out.Transition)
        assert.Equal(t, model.StatusCompleted, out.Transition.NewStatus)
        assert.Equal(t, model.PaymentPaid, out.Transition.NewPaymentStatus)
        assert.Equal(t, model.MachineAvailable, out.Transition.MachineStatus)
        assert.Equal(t, CompleteReward, out.Transition.CreditDelta)
        assert.Equal(t, ReasonComplete, out.Transition.CreditReason)
        assert.False(t, out.Transition.StampPayment)
    })

    t.Run("forces payment when still unpaid", func(t *testing.T) {
        out := ApplyAction(ActionComplete, pendingUnpaid())
        require.NotNil(t, out.Transition)
        assert.Equal(t, model.PaymentPaid, out.Transition.NewPaymentStatus)
        assert.True(t, out.Transition.StampPayment)
    })

    t.Run("admin completion uses admin reason", func(t *testing.T) {
        out := ApplyAction(ActionAdminComplete, pendingUnpaid())
        require.NotNil(t, out.Transition)
        assert.Equal(t, ReasonAdminComplete, out.Transition.CreditReason)
    })

    t.Run("idempotent when already completed without second reward", func(t *testing.T) {
        res := pendingUnpaid()
        res.Status = model.StatusCompleted
        res.PaymentStatus = model.PaymentPaid
        out := ApplyAction(ActionComplete, res)
        assert.True(t, out.Success)
        assert.Nil(t, out.Transition)
    })
}

func TestApplyActionUnknown(t *testing.T) {
    out := ApplyAction("teleport", pendingUnpaid())
    assert.False(t, out.Success)
    assert.Contains(t, out.Message, "unsupported action")
}
