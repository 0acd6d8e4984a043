package booking

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"

    "github.com/dormwash/laundry-reservation/internal/model"
)

func TestClampScore(t *testing.T) {
    assert.Equal(t, 100, ClampScore(100))
    assert.Equal(t, 0, ClampScore(-5))
    assert.Equal(t, 0, ClampScore(0))
    assert.Equal(t, 200, ClampScore(200))
    assert.Equal(t, 200, ClampScore(231))
}

func TestClampScoreUnderRepeatedDeltas(t *testing.T) {
    // Any sequence of adjustments keeps the score within bounds.
    score := model.CreditDefault
    for i := 0; i < 50; i++ {
        score = ClampScore(score + CancelPenalty)
    }
    assert.Equal(t, model.CreditMin, score)
    for i := 0; i < 100; i++ {
        score = ClampScore(score + CompleteReward)
    }
    assert.Equal(t, model.CreditMax, score)
}

func TestCancelAdjustment(t *testing.T) {
    created := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
    base := model.Reservation{
        Status:          model.StatusPending,
        PaymentStatus:   model.PaymentUnpaid,
        CreatedAt:       created,
        PaymentDeadline: created.Add(15 * time.Minute),
    }

    t.Run("waived within payment window", func(t *testing.T) {
        res := base
        delta, reason := CancelAdjustment(&res, created.Add(2*time.Minute))
        assert.Zero(t, delta)
        assert.Equal(t, ReasonCancelEarly, reason)
    })

    t.Run("waived exactly at window edge", func(t *testing.T) {
        res := base
        delta, _ := CancelAdjustment(&res, created.Add(15*time.Minute))
        assert.Zero(t, delta)
    })

    t.Run("penalty after window elapsed", func(t *testing.T) {
        res := base
        delta, reason := CancelAdjustment(&res, created.Add(20*time.Minute))
        assert.Equal(t, CancelPenalty, delta)
        assert.Equal(t, ReasonCancel, reason)
    })

    t.Run("penalty once paid", func(t *testing.T) {
        res := base
        res.PaymentStatus = model.PaymentPaid
        res.Status = model.StatusConfirmed
        delta, reason := CancelAdjustment(&res, created.Add(2*time.Minute))
        assert.Equal(t, CancelPenalty, delta)
        assert.Equal(t, ReasonCancel, reason)
    })

    t.Run("penalty when no longer pending", func(t *testing.T) {
        res := base
        res.Status = model.StatusConfirmed
        delta, _ := CancelAdjustment(&res, created.Add(2*time.Minute))
        assert.Equal(t, CancelPenalty, delta)
    })
}
