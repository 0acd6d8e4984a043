package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/dormwash/laundry-reservation/internal/model"
    "github.com/dormwash/laundry-reservation/internal/repository"
)

// reservationView is the JSON shape returned for one reservation.  The
// field names follow the client contract (camelCase, RFC3339 instants).
type reservationView struct {
    ID                  string   `json:"id"`
    UserID              string   `json:"userId"`
    MachineID           string   `json:"machineId"`
    MachineName         string   `json:"machineName"`
    MachineLocation     string   `json:"machineLocation"`
    MachineType         string   `json:"machineType"`
    ReservationDate     string   `json:"reservationDate"`
    ReservationTime     string   `json:"reservationTime"`
    TimeRange           string   `json:"timeRange"`
    ReservationDateTime string   `json:"reservationDateTime"`
    EndTime             string   `json:"endTime"`
    PaymentDeadline     string   `json:"paymentDeadline"`
    Duration            int      `json:"duration"`
    PayDuration         int      `json:"payDuration"`
    PricePerHour        float64  `json:"pricePerHour"`
    TotalPrice          float64  `json:"totalPrice"`
    Status              string   `json:"status"`
    PaymentStatus       string   `json:"paymentStatus"`
    WorkStartTime       *string  `json:"workStartTime,omitempty"`
    PaymentTime         *string  `json:"paymentTime,omitempty"`
    CompleteTime        *string  `json:"completeTime,omitempty"`
    LatestDisplayTime   string   `json:"latestDisplayTime"`
    CreatedAt           string   `json:"createdAt"`
    UpdatedAt           string   `json:"updatedAt"`

    // Populated on the detail read only.
    StatusHistory []historyEntryView `json:"statusHistory,omitempty"`
}

// historyEntryView is one audit-trail entry of a reservation as
// returned on the detail read.
type historyEntryView struct {
    Action            string `json:"action"`
    FromStatus        string `json:"fromStatus,omitempty"`
    ToStatus          string `json:"toStatus"`
    FromPaymentStatus string `json:"fromPaymentStatus,omitempty"`
    ToPaymentStatus   string `json:"toPaymentStatus"`
    Operator          string `json:"operator"`
    Timestamp         string `json:"timestamp"`
}

func optionalTime(t *time.Time) *string {
    if t == nil {
        return nil
    }
    s := t.UTC().Format(time.RFC3339)
    return &s
}

func toReservationView(r *model.Reservation) reservationView {
    return reservationView{
        ID:                  r.ID,
        UserID:              r.UserID,
        MachineID:           r.MachineID,
        MachineName:         r.MachineName,
        MachineLocation:     r.MachineLocation,
        MachineType:         r.MachineType,
        ReservationDate:     r.ReservationDate,
        ReservationTime:     r.ReservationTime,
        TimeRange:           r.TimeRange,
        ReservationDateTime: r.ReservationDateTime.UTC().Format(time.RFC3339),
        EndTime:             r.EndTime.UTC().Format(time.RFC3339),
        PaymentDeadline:     r.PaymentDeadline.UTC().Format(time.RFC3339),
        Duration:            r.Duration,
        PayDuration:         r.PayDuration,
        PricePerHour:        r.PricePerHour,
        TotalPrice:          r.TotalPrice,
        Status:              r.Status,
        PaymentStatus:       r.PaymentStatus,
        WorkStartTime:       optionalTime(r.WorkStartTime),
        PaymentTime:         optionalTime(r.PaymentTime),
        CompleteTime:        optionalTime(r.CompleteTime),
        LatestDisplayTime:   r.LatestDisplayTime,
        CreatedAt:           r.CreatedAt.UTC().Format(time.RFC3339),
        UpdatedAt:           r.UpdatedAt.UTC().Format(time.RFC3339),
    }
}

// ListMyReservations handles GET /v1/reservations?status=.  The status
// query is "all" (default), "active" (pending, confirmed, working) or
// an exact status literal.  Results are the caller's own reservations
// newest-first by slot start.  Without a caller identity the endpoint
// fails closed with an empty list.
func (h *ReservationHandler) ListMyReservations(c echo.Context) error {
    caller, err := callerID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{
            "success": false,
            "message": "not logged in",
            "data":    []reservationView{},
            "total":   0,
        })
    }
    filter := c.QueryParam("status")
    if filter == "" {
        filter = "all"
    }
    records, err := h.Reservations.ListByOwner(c.Request().Context(), caller, filter)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{
            "success": false,
            "message": "failed to load reservations",
            "data":    []reservationView{},
            "total":   0,
        })
    }
    views := make([]reservationView, 0, len(records))
    for i := range records {
        views = append(views, toReservationView(&records[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "data":    views,
        "total":   len(views),
    })
}

// GetReservation handles GET /v1/reservations/:id: one reservation with
// its full status history, readable only by its owner.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
    caller, err := callerID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "not logged in"})
    }
    reservationID := c.Param("id")
    if reservationID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing required field: reservationId"})
    }
    ctx := c.Request().Context()
    res, err := h.Reservations.GetOwned(ctx, reservationID, caller)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "reservation not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "not allowed to view this reservation"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load reservation"})
        }
    }
    history, err := h.Reservations.ListHistory(ctx, res.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load reservation history"})
    }
    view := toReservationView(res)
    view.StatusHistory = make([]historyEntryView, 0, len(history))
    for _, e := range history {
        view.StatusHistory = append(view.StatusHistory, historyEntryView{
            Action:            e.Action,
            FromStatus:        e.FromStatus,
            ToStatus:          e.ToStatus,
            FromPaymentStatus: e.FromPaymentStatus,
            ToPaymentStatus:   e.ToPaymentStatus,
            Operator:          e.Operator,
            Timestamp:         e.CreatedAt.UTC().Format(time.RFC3339),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": view})
}
