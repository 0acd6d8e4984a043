package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/dormwash/laundry-reservation/internal/booking"
    "github.com/dormwash/laundry-reservation/internal/model"
    "github.com/dormwash/laundry-reservation/internal/queue"
    "github.com/dormwash/laundry-reservation/internal/repository"
    queue_publisher "github.com/dormwash/laundry-reservation/internal/service"
)

// Default request values when the caller omits them.
const (
    defaultDurationMin    = 60 // machine usage, minutes
    defaultPayDurationMin = 15 // payment window, minutes
)

// ReservationHandler implements the reservation lifecycle operations:
// create, cancel, status transitions and the caller's reservation list.
// Each operation takes one "now" snapshot at entry and derives every
// deadline from it.  Primary writes run inside a transaction; the
// machine-mirror flip and the event publish afterwards are best-effort
// and never unwind a committed reservation mutation.
type ReservationHandler struct {
    Reservations *repository.ReservationRepo // reservation rows + status history
    Machines     *repository.MachineRepo     // denormalized availability mirror
    Users        *repository.UserRepo        // profiles + credit ledger
    Logger       *zap.Logger                 // records swallowed secondary failures
}

// NewReservationHandler constructs a ReservationHandler.  All
// dependencies must be non-nil.
func NewReservationHandler(res *repository.ReservationRepo, mach *repository.MachineRepo, users *repository.UserRepo, logger *zap.Logger) *ReservationHandler {
    if res == nil || mach == nil || users == nil || logger == nil {
        panic("nil dependency passed to NewReservationHandler")
    }
    return &ReservationHandler{Reservations: res, Machines: mach, Users: users, Logger: logger}
}

// flipMachine updates the machine mirror after a committed reservation
// write.  Failures are logged only — the primary operation already
// succeeded.
func (h *ReservationHandler) flipMachine(ctx context.Context, machineID, status string, now time.Time) {
    if machineID == "" {
        return
    }
    if err := h.Machines.UpdateStatus(ctx, machineID, status, now); err != nil {
        h.Logger.Warn("machine mirror update failed",
            zap.String("machine_id", machineID),
            zap.String("status", status),
            zap.Error(err))
    }
}

// publishEvent emits a lifecycle event to the broker.  Failures are
// logged by the publisher and ignored here.
func (h *ReservationHandler) publishEvent(ctx context.Context, ev queue.ReservationEvent) {
    if err := queue_publisher.PublishReservationEvent(ctx, ev); err != nil {
        h.Logger.Warn("event publish failed",
            zap.String("reservation_id", ev.ReservationID),
            zap.String("action", ev.Action))
    }
}

// Create handles POST /v1/reservations.  Validation order: required
// fields, time format, slot not in the past, then the conflict check.
// The duplicate-slot check and the insert share one transaction so two
// creates for the same (machine, date, start) slot cannot both commit.
func (h *ReservationHandler) Create(c echo.Context) error {
    caller, err := callerID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "not logged in"})
    }
    var body struct {
        MachineID       string  `json:"machineId"`
        MachineName     string  `json:"machineName"`
        MachineLocation string  `json:"machineLocation"`
        MachineType     string  `json:"machineType"`
        ReservationDate string  `json:"reservationDate"`
        ReservationTime string  `json:"reservationTime"`
        Duration        int     `json:"duration"`
        PricePerHour    float64 `json:"pricePerHour"`
        PayDuration     int     `json:"payDuration"`
        UserID          string  `json:"userId"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
    }
    if body.MachineID == "" || body.MachineName == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing required field: machineId or machineName"})
    }
    slot := booking.ParseSlot(body.ReservationTime)
    if !booking.ValidStart(slot.Start) {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false,
            "message": fmt.Sprintf("invalid time format: %s, expected HH:mm", slot.Start)})
    }
    slotStart, err := booking.ComposeDateTime(body.ReservationDate, slot.Start)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false,
            "message": fmt.Sprintf("invalid reservation date: %s", body.ReservationDate)})
    }

    now := time.Now().UTC()
    if booking.InPast(slotStart, now) {
        return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "cannot book a time in the past"})
    }

    duration := body.Duration
    if duration <= 0 {
        duration = defaultDurationMin
    }
    payDuration := body.PayDuration
    if payDuration <= 0 {
        payDuration = defaultPayDurationMin
    }
    usageEnd := slotStart.Add(time.Duration(duration) * time.Minute)
    paymentDeadline := now.Add(time.Duration(payDuration) * time.Minute)
    timeRange := booking.TimeRange(slot.Start, slot.ExplicitEnd, usageEnd)

    owner := body.UserID
    if owner == "" {
        owner = caller
    }
    res := model.Reservation{
        UserID:              owner,
        MachineID:           body.MachineID,
        MachineName:         body.MachineName,
        MachineLocation:     body.MachineLocation,
        MachineType:         body.MachineType,
        ReservationDate:     body.ReservationDate,
        ReservationTime:     slot.Start,
        TimeRange:           timeRange,
        ReservationDateTime: slotStart,
        EndTime:             usageEnd,
        PaymentDeadline:     paymentDeadline,
        Duration:            duration,
        PayDuration:         payDuration,
        PricePerHour:        body.PricePerHour,
        TotalPrice:          booking.TotalPrice(body.PricePerHour, duration),
        Status:              model.StatusPending,
        PaymentStatus:       model.PaymentUnpaid,
        LatestDisplayTime:   fmt.Sprintf("%s %s", body.ReservationDate, timeRange),
        CreatedAt:           now,
        UpdatedAt:           now,
    }

    ctx := c.Request().Context()
    tx, err := h.Reservations.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := h.Reservations.EnsureSlotFreeTx(ctx, tx, body.MachineID, body.ReservationDate, slot.Start); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "time slot already booked, please choose another"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to check slot availability"})
    }
    if err := h.Reservations.CreateTx(ctx, tx, &res); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to create reservation"})
    }
    if err := h.Reservations.AppendHistoryTx(ctx, tx, model.StatusHistoryEntry{
        ReservationID:   res.ID,
        Action:          booking.ActionCreate,
        ToStatus:        model.StatusPending,
        ToPaymentStatus: model.PaymentUnpaid,
        Operator:        "system",
        CreatedAt:       now,
    }); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to record reservation history"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to commit transaction"})
    }
    committed = true

    // The reservation is committed; the mirror flip and the event are
    // best-effort from here on.
    h.flipMachine(ctx, res.MachineID, model.MachineReserved, now)
    h.publishEvent(ctx, queue.ReservationEvent{
        ReservationID: res.ID,
        UserID:        res.UserID,
        MachineID:     res.MachineID,
        MachineName:   res.MachineName,
        Action:        booking.ActionCreate,
        ToStatus:      model.StatusPending,
        PaymentStatus: model.PaymentUnpaid,
        TotalPrice:    res.TotalPrice,
        OccurredAt:    now.Format(time.RFC3339),
    })

    return c.JSON(http.StatusCreated, echo.Map{
        "success":         true,
        "reservationId":   res.ID,
        "totalPrice":      res.TotalPrice,
        "paymentDeadline": paymentDeadline.Format(time.RFC3339),
        "message":         fmt.Sprintf("reservation created, please pay within %d minutes", payDuration),
    })
}

// ownedBy reports whether the caller may operate on the reservation.
// Rows imported from the old system may carry the owner in the legacy
// field instead of user_id, so both are accepted.
func ownedBy(res *model.Reservation, caller string) bool {
    if res.UserID == caller {
        return true
    }
    return res.LegacyOpenID != nil && *res.LegacyOpenID == caller
}

// Cancel handles POST /v1/reservations/:id/cancel.  Cancellation is a
// status flip, never a delete.  The credit penalty is waived when an
// unpaid pending reservation is cancelled within its original payment
// window; otherwise the default penalty applies.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    caller, err := callerID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "not logged in"})
    }
    reservationID := c.Param("id")
    if reservationID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing required field: reservationId"})
    }
    var body struct {
        MachineID string `json:"machineId"`
    }
    _ = c.Bind(&body) // body is optional

    now := time.Now().UTC()
    ctx := c.Request().Context()
    tx, err := h.Reservations.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := h.Reservations.GetByIDTx(ctx, tx, reservationID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load reservation"})
    }
    if !ownedBy(res, caller) {
        return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "not allowed to cancel this reservation"})
    }
    if res.Status == model.StatusCancelled {
        return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "reservation already cancelled"})
    }
    if res.Status == model.StatusCompleted {
        return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "a completed reservation cannot be cancelled"})
    }
    if err := h.Reservations.ApplyTransitionTx(ctx, tx, res.ID, repository.StatusUpdate{
        Status:        model.StatusCancelled,
        PaymentStatus: res.PaymentStatus,
        UpdatedAt:     now,
    }); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to cancel reservation"})
    }
    if err := h.Reservations.AppendHistoryTx(ctx, tx, model.StatusHistoryEntry{
        ReservationID:     res.ID,
        Action:            booking.ActionCancel,
        FromStatus:        res.Status,
        ToStatus:          model.StatusCancelled,
        FromPaymentStatus: res.PaymentStatus,
        ToPaymentStatus:   res.PaymentStatus,
        Operator:          "user",
        CreatedAt:         now,
    }); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to record reservation history"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to commit transaction"})
    }
    committed = true

    if delta, reason := booking.CancelAdjustment(res, now); delta != 0 {
        if _, err := h.Users.AdjustCredit(ctx, res.UserID, delta, reason, now); err != nil {
            h.Logger.Error("credit adjustment failed",
                zap.String("user_id", res.UserID),
                zap.Int("delta", delta),
                zap.Error(err))
            return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "reservation cancelled but credit adjustment failed"})
        }
    }

    targetMachine := body.MachineID
    if targetMachine == "" {
        targetMachine = res.MachineID
    }
    h.flipMachine(ctx, targetMachine, model.MachineAvailable, now)
    h.publishEvent(ctx, queue.ReservationEvent{
        ReservationID: res.ID,
        UserID:        res.UserID,
        MachineID:     res.MachineID,
        MachineName:   res.MachineName,
        Action:        booking.ActionCancel,
        FromStatus:    res.Status,
        ToStatus:      model.StatusCancelled,
        PaymentStatus: res.PaymentStatus,
        TotalPrice:    res.TotalPrice,
        OccurredAt:    now.Format(time.RFC3339),
    })

    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "reservation cancelled"})
}

// UpdateStatus handles POST /v1/reservations/:id/status (and the admin
// variant).  The body carries an action (simulatePay, start, complete,
// adminComplete) and an optional operatorRole.  Admin authority
// requires both operatorRole=admin in the body and an admin role claim
// in the token.  Repeating an action that already took effect succeeds
// without a second write.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
    caller, err := callerID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "not logged in"})
    }
    reservationID := c.Param("id")
    var body struct {
        Action       string `json:"action"`
        OperatorRole string `json:"operatorRole"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
    }
    if reservationID == "" || body.Action == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing required field: reservationId or action"})
    }
    isAdmin := body.OperatorRole == "admin" && callerRole(c) == "admin"
    operator := "user"
    if isAdmin {
        operator = "admin"
    }

    now := time.Now().UTC()
    ctx := c.Request().Context()
    tx, err := h.Reservations.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := h.Reservations.GetByIDTx(ctx, tx, reservationID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load reservation"})
    }
    if !ownedBy(res, caller) && !isAdmin {
        return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "not allowed to operate this reservation"})
    }

    out := booking.ApplyAction(body.Action, res)
    if !out.Success {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": out.Message})
    }
    if out.Transition == nil {
        // Idempotent repeat: nothing to write.
        return c.JSON(http.StatusOK, echo.Map{
            "success":       true,
            "message":       out.Message,
            "newStatus":     res.Status,
            "paymentStatus": res.PaymentStatus,
        })
    }
    t := out.Transition
    upd := repository.StatusUpdate{
        Status:        t.NewStatus,
        PaymentStatus: t.NewPaymentStatus,
        UpdatedAt:     now,
    }
    if t.StampPayment {
        upd.PaymentTime = &now
    }
    if t.StampWorkStart {
        duration := res.Duration
        if duration <= 0 {
            duration = defaultDurationMin
        }
        actualEnd := now.Add(time.Duration(duration) * time.Minute)
        upd.WorkStartTime = &now
        upd.EndTime = &actualEnd
    }
    if t.StampComplete {
        upd.CompleteTime = &now
    }
    if err := h.Reservations.ApplyTransitionTx(ctx, tx, res.ID, upd); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to update reservation status"})
    }
    if err := h.Reservations.AppendHistoryTx(ctx, tx, model.StatusHistoryEntry{
        ReservationID:     res.ID,
        Action:            body.Action,
        FromStatus:        res.Status,
        ToStatus:          t.NewStatus,
        FromPaymentStatus: res.PaymentStatus,
        ToPaymentStatus:   t.NewPaymentStatus,
        Operator:          operator,
        CreatedAt:         now,
    }); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to record reservation history"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to commit transaction"})
    }
    committed = true

    if t.CreditDelta != 0 {
        if _, err := h.Users.AdjustCredit(ctx, res.UserID, t.CreditDelta, t.CreditReason, now); err != nil {
            h.Logger.Error("credit adjustment failed",
                zap.String("user_id", res.UserID),
                zap.Int("delta", t.CreditDelta),
                zap.Error(err))
            return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "status updated but credit adjustment failed"})
        }
    }
    if t.MachineStatus != "" {
        h.flipMachine(ctx, res.MachineID, t.MachineStatus, now)
    }
    h.publishEvent(ctx, queue.ReservationEvent{
        ReservationID: res.ID,
        UserID:        res.UserID,
        MachineID:     res.MachineID,
        MachineName:   res.MachineName,
        Action:        body.Action,
        FromStatus:    res.Status,
        ToStatus:      t.NewStatus,
        PaymentStatus: t.NewPaymentStatus,
        TotalPrice:    res.TotalPrice,
        OccurredAt:    now.Format(time.RFC3339),
    })

    return c.JSON(http.StatusOK, echo.Map{
        "success":       true,
        "message":       out.Message,
        "newStatus":     t.NewStatus,
        "paymentStatus": t.NewPaymentStatus,
    })
}
