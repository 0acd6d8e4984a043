package handler

import (
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/dormwash/laundry-reservation/internal/model"
    "github.com/dormwash/laundry-reservation/internal/repository"
)

var errSQLDown = errors.New("connection reset by peer")

var resCols = []string{
    "id", "user_id", "legacy_open_id", "machine_id", "machine_name", "machine_location",
    "machine_type", "reservation_date", "reservation_time", "time_range", "reservation_datetime",
    "end_time", "payment_deadline", "duration", "pay_duration", "price_per_hour", "total_price",
    "status", "payment_status", "work_start_time", "payment_time", "complete_time",
    "latest_display_time", "created_at", "updated_at",
}

// storedRow builds one reservation row as the lifecycle handlers would
// load it.  The payment window runs from createdAt for payDuration
// minutes.
func storedRow(id, owner, status, payStatus string, createdAt time.Time, payDuration int) *sqlmock.Rows {
    start := createdAt.Add(2 * time.Hour)
    return sqlmock.NewRows(resCols).AddRow(
        id, owner, nil, "machine-1", "Washer 1", "Building A",
        "standard", start.Format("2006-01-02"), start.Format("15:04"),
        start.Format("15:04")+"-"+start.Add(time.Hour).Format("15:04"), start,
        start.Add(time.Hour), createdAt.Add(time.Duration(payDuration)*time.Minute), 60, payDuration, 4.0, 4.0,
        status, payStatus, nil, nil, nil,
        start.Add(time.Hour), createdAt, createdAt,
    )
}

func newHandlerMock(t *testing.T) (*ReservationHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    h := NewReservationHandler(
        repository.NewReservationRepo(db),
        repository.NewMachineRepo(db),
        repository.NewUserRepo(db),
        zap.NewNop(),
    )
    return h, mock
}

// request builds an authenticated echo context for the given JSON body.
func request(method, target, body, caller string) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if caller != "" {
        c.Set("user_id", caller)
    }
    return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var out map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    return out
}

func TestCreateReservation(t *testing.T) {
    futureDate := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")

    t.Run("45 minutes at 4 per hour charges the hourly minimum", func(t *testing.T) {
        h, mock := newHandlerMock(t)

        mock.ExpectBegin()
        mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).
            WithArgs("machine-1", futureDate, "14:00", model.StatusPending).
            WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
        mock.ExpectExec(`INSERT INTO reservations`).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectExec(`INSERT INTO reservation_status_history`).
            WillReturnResult(sqlmock.NewResult(1, 1))
        mock.ExpectCommit()
        mock.ExpectExec(`UPDATE machines SET status = \?`).
            WithArgs(model.MachineReserved, sqlmock.AnyArg(), "machine-1").
            WillReturnResult(sqlmock.NewResult(0, 1))

        body := `{"machineId":"machine-1","machineName":"Washer 1","reservationDate":"` + futureDate +
            `","reservationTime":"14:00","duration":45,"pricePerHour":4}`
        c, rec := request(http.MethodPost, "/v1/reservations", body, "user-1")
        require.NoError(t, h.Create(c))

        assert.Equal(t, http.StatusCreated, rec.Code)
        out := decode(t, rec)
        assert.Equal(t, true, out["success"])
        assert.Equal(t, 4.0, out["totalPrice"])
        assert.NotEmpty(t, out["reservationId"])
        deadline, err := time.Parse(time.RFC3339, out["paymentDeadline"].(string))
        require.NoError(t, err)
        assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), deadline, time.Minute)
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("booked slot is rejected", func(t *testing.T) {
        h, mock := newHandlerMock(t)

        mock.ExpectBegin()
        mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).
            WithArgs("machine-1", futureDate, "14:00", model.StatusPending).
            WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
        mock.ExpectRollback()

        body := `{"machineId":"machine-1","machineName":"Washer 1","reservationDate":"` + futureDate +
            `","reservationTime":"14:00"}`
        c, rec := request(http.MethodPost, "/v1/reservations", body, "user-1")
        require.NoError(t, h.Create(c))

        assert.Equal(t, http.StatusConflict, rec.Code)
        out := decode(t, rec)
        assert.Equal(t, false, out["success"])
        assert.Contains(t, out["message"], "already booked")
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("past slot is rejected before touching the database", func(t *testing.T) {
        h, mock := newHandlerMock(t)

        body := `{"machineId":"machine-1","machineName":"Washer 1","reservationDate":"2020-01-01","reservationTime":"10:00"}`
        c, rec := request(http.MethodPost, "/v1/reservations", body, "user-1")
        require.NoError(t, h.Create(c))

        assert.Equal(t, http.StatusConflict, rec.Code)
        assert.Contains(t, decode(t, rec)["message"], "in the past")
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("malformed start time is rejected", func(t *testing.T) {
        h, _ := newHandlerMock(t)

        body := `{"machineId":"machine-1","machineName":"Washer 1","reservationDate":"` + futureDate +
            `","reservationTime":"9am"}`
        c, rec := request(http.MethodPost, "/v1/reservations", body, "user-1")
        require.NoError(t, h.Create(c))

        assert.Equal(t, http.StatusBadRequest, rec.Code)
        assert.Contains(t, decode(t, rec)["message"], "invalid time format")
    })

    t.Run("anonymous caller gets 401", func(t *testing.T) {
        h, _ := newHandlerMock(t)

        c, rec := request(http.MethodPost, "/v1/reservations", `{}`, "")
        require.NoError(t, h.Create(c))
        assert.Equal(t, http.StatusUnauthorized, rec.Code)
    })
}

func cancelContext(body, caller, id string) (echo.Context, *httptest.ResponseRecorder) {
    c, rec := request(http.MethodPost, "/v1/reservations/"+id+"/cancel", body, caller)
    c.SetParamNames("id")
    c.SetParamValues(id)
    return c, rec
}

func TestCancelReservation(t *testing.T) {
    t.Run("stranger cannot cancel", func(t *testing.T) {
        h, mock := newHandlerMock(t)
        now := time.Now().UTC()

        mock.ExpectBegin()
        mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
            WithArgs("r-1").
            WillReturnRows(storedRow("r-1", "somebody-else", model.StatusPending, model.PaymentUnpaid, now, 15))
        mock.ExpectRollback()

        c, rec := cancelContext(`{}`, "user-1", "r-1")
        require.NoError(t, h.Cancel(c))

        assert.Equal(t, http.StatusForbidden, rec.Code)
        assert.Equal(t, false, decode(t, rec)["success"])
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("cancel inside the payment window waives the penalty", func(t *testing.T) {
        h, mock := newHandlerMock(t)
        now := time.Now().UTC()

        mock.ExpectBegin()
        mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
            WithArgs("r-1").
            WillReturnRows(storedRow("r-1", "user-1", model.StatusPending, model.PaymentUnpaid, now, 15))
        mock.ExpectExec(`UPDATE reservations SET status = \?`).
            WithArgs(model.StatusCancelled, model.PaymentUnpaid, sqlmock.AnyArg(), "r-1").
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectExec(`INSERT INTO reservation_status_history`).
            WillReturnResult(sqlmock.NewResult(1, 1))
        mock.ExpectCommit()
        // No credit statements: the penalty is waived.
        mock.ExpectExec(`UPDATE machines SET status = \?`).
            WithArgs(model.MachineAvailable, sqlmock.AnyArg(), "machine-1").
            WillReturnResult(sqlmock.NewResult(0, 1))

        c, rec := cancelContext(`{}`, "user-1", "r-1")
        require.NoError(t, h.Cancel(c))

        assert.Equal(t, http.StatusOK, rec.Code)
        assert.Equal(t, true, decode(t, rec)["success"])
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("cancelling twice is rejected", func(t *testing.T) {
        h, mock := newHandlerMock(t)
        now := time.Now().UTC()

        mock.ExpectBegin()
        mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
            WithArgs("r-1").
            WillReturnRows(storedRow("r-1", "user-1", model.StatusCancelled, model.PaymentUnpaid, now, 15))
        mock.ExpectRollback()

        c, rec := cancelContext(`{}`, "user-1", "r-1")
        require.NoError(t, h.Cancel(c))

        assert.Equal(t, http.StatusConflict, rec.Code)
        assert.Contains(t, decode(t, rec)["message"], "already cancelled")
        require.NoError(t, mock.ExpectationsWereMet())
    })
}

func TestGetReservation(t *testing.T) {
    detailContext := func(caller, id string) (echo.Context, *httptest.ResponseRecorder) {
        c, rec := request(http.MethodGet, "/v1/reservations/"+id, "", caller)
        c.SetParamNames("id")
        c.SetParamValues(id)
        return c, rec
    }
    historyCols := []string{
        "id", "reservation_id", "action", "from_status", "to_status",
        "from_payment_status", "to_payment_status", "operator", "created_at",
    }

    t.Run("owner sees the reservation with its status history", func(t *testing.T) {
        h, mock := newHandlerMock(t)
        now := time.Now().UTC()

        mock.ExpectQuery(`FROM reservations WHERE id = \?$`).
            WithArgs("r-1").
            WillReturnRows(storedRow("r-1", "user-1", model.StatusConfirmed, model.PaymentPaid, now, 15))
        mock.ExpectQuery(`FROM reservation_status_history WHERE reservation_id = \?`).
            WithArgs("r-1").
            WillReturnRows(sqlmock.NewRows(historyCols).
                AddRow(1, "r-1", "create", "", model.StatusPending, "", model.PaymentUnpaid, "system", now).
                AddRow(2, "r-1", "simulatePay", model.StatusPending, model.StatusConfirmed, model.PaymentUnpaid, model.PaymentPaid, "user", now))

        c, rec := detailContext("user-1", "r-1")
        require.NoError(t, h.GetReservation(c))

        assert.Equal(t, http.StatusOK, rec.Code)
        out := decode(t, rec)
        assert.Equal(t, true, out["success"])
        data := out["data"].(map[string]any)
        assert.Equal(t, "r-1", data["id"])
        history := data["statusHistory"].([]any)
        require.Len(t, history, 2)
        first := history[0].(map[string]any)
        assert.Equal(t, "create", first["action"])
        assert.Equal(t, model.StatusPending, first["toStatus"])
        last := history[1].(map[string]any)
        assert.Equal(t, model.StatusConfirmed, last["toStatus"])
        assert.Equal(t, model.PaymentPaid, last["toPaymentStatus"])
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("stranger is refused", func(t *testing.T) {
        h, mock := newHandlerMock(t)
        now := time.Now().UTC()

        mock.ExpectQuery(`FROM reservations WHERE id = \?$`).
            WithArgs("r-1").
            WillReturnRows(storedRow("r-1", "somebody-else", model.StatusConfirmed, model.PaymentPaid, now, 15))

        c, rec := detailContext("user-1", "r-1")
        require.NoError(t, h.GetReservation(c))

        assert.Equal(t, http.StatusForbidden, rec.Code)
        assert.Equal(t, false, decode(t, rec)["success"])
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("missing reservation is 404", func(t *testing.T) {
        h, mock := newHandlerMock(t)

        mock.ExpectQuery(`FROM reservations WHERE id = \?$`).
            WithArgs("missing").
            WillReturnRows(sqlmock.NewRows(resCols))

        c, rec := detailContext("user-1", "missing")
        require.NoError(t, h.GetReservation(c))

        assert.Equal(t, http.StatusNotFound, rec.Code)
        require.NoError(t, mock.ExpectationsWereMet())
    })
}

func statusContext(body, caller, id string) (echo.Context, *httptest.ResponseRecorder) {
    c, rec := request(http.MethodPost, "/v1/reservations/"+id+"/status", body, caller)
    c.SetParamNames("id")
    c.SetParamValues(id)
    return c, rec
}

func TestUpdateStatus(t *testing.T) {
    t.Run("unsupported action is rejected", func(t *testing.T) {
        h, mock := newHandlerMock(t)
        now := time.Now().UTC()

        mock.ExpectBegin()
        mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
            WithArgs("r-1").
            WillReturnRows(storedRow("r-1", "user-1", model.StatusPending, model.PaymentUnpaid, now, 15))
        mock.ExpectRollback()

        c, rec := statusContext(`{"action":"teleport"}`, "user-1", "r-1")
        require.NoError(t, h.UpdateStatus(c))

        assert.Equal(t, http.StatusBadRequest, rec.Code)
        assert.Contains(t, decode(t, rec)["message"], "unsupported action")
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("starting an unpaid reservation is rejected", func(t *testing.T) {
        h, mock := newHandlerMock(t)
        now := time.Now().UTC()

        mock.ExpectBegin()
        mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
            WithArgs("r-1").
            WillReturnRows(storedRow("r-1", "user-1", model.StatusPending, model.PaymentUnpaid, now, 15))
        mock.ExpectRollback()

        c, rec := statusContext(`{"action":"start"}`, "user-1", "r-1")
        require.NoError(t, h.UpdateStatus(c))

        assert.Equal(t, http.StatusBadRequest, rec.Code)
        assert.Contains(t, decode(t, rec)["message"], "complete payment first")
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("repeated simulatePay succeeds without a write", func(t *testing.T) {
        h, mock := newHandlerMock(t)
        now := time.Now().UTC()

        mock.ExpectBegin()
        mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
            WithArgs("r-1").
            WillReturnRows(storedRow("r-1", "user-1", model.StatusConfirmed, model.PaymentPaid, now, 15))
        mock.ExpectRollback()

        c, rec := statusContext(`{"action":"simulatePay"}`, "user-1", "r-1")
        require.NoError(t, h.UpdateStatus(c))

        assert.Equal(t, http.StatusOK, rec.Code)
        out := decode(t, rec)
        assert.Equal(t, true, out["success"])
        assert.Equal(t, model.StatusConfirmed, out["newStatus"])
        assert.Equal(t, model.PaymentPaid, out["paymentStatus"])
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("complete reports failure when the credit write fails", func(t *testing.T) {
        h, mock := newHandlerMock(t)
        now := time.Now().UTC()

        mock.ExpectBegin()
        mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
            WithArgs("r-1").
            WillReturnRows(storedRow("r-1", "user-1", model.StatusWorking, model.PaymentPaid, now, 15))
        mock.ExpectExec(`UPDATE reservations SET status = \?`).
            WithArgs(model.StatusCompleted, model.PaymentPaid, sqlmock.AnyArg(), sqlmock.AnyArg(), "r-1").
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectExec(`INSERT INTO reservation_status_history`).
            WillReturnResult(sqlmock.NewResult(1, 1))
        mock.ExpectCommit()
        mock.ExpectQuery(`FROM users WHERE id = \?`).
            WithArgs("user-1").
            WillReturnError(errSQLDown)

        c, rec := statusContext(`{"action":"complete"}`, "user-1", "r-1")
        require.NoError(t, h.UpdateStatus(c))

        assert.Equal(t, http.StatusInternalServerError, rec.Code)
        out := decode(t, rec)
        assert.Equal(t, false, out["success"])
        assert.Contains(t, out["message"], "credit adjustment failed")
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("paying a pending reservation confirms it", func(t *testing.T) {
        h, mock := newHandlerMock(t)
        now := time.Now().UTC()

        mock.ExpectBegin()
        mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
            WithArgs("r-1").
            WillReturnRows(storedRow("r-1", "user-1", model.StatusPending, model.PaymentUnpaid, now, 15))
        mock.ExpectExec(`UPDATE reservations SET status = \?, payment_status = \?, updated_at = \?, payment_time = \?`).
            WithArgs(model.StatusConfirmed, model.PaymentPaid, sqlmock.AnyArg(), sqlmock.AnyArg(), "r-1").
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectExec(`INSERT INTO reservation_status_history`).
            WillReturnResult(sqlmock.NewResult(1, 1))
        mock.ExpectCommit()

        c, rec := statusContext(`{"action":"simulatePay"}`, "user-1", "r-1")
        require.NoError(t, h.UpdateStatus(c))

        assert.Equal(t, http.StatusOK, rec.Code)
        out := decode(t, rec)
        assert.Equal(t, true, out["success"])
        assert.Equal(t, model.StatusConfirmed, out["newStatus"])
        require.NoError(t, mock.ExpectationsWereMet())
    })
}
