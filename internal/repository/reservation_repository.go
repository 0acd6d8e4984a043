package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/dormwash/laundry-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// status history.  Every lifecycle transition appends one row to the
// reservation_status_history table; reservations themselves are never
// physically deleted (cancellation is a status flip).  All timestamp
// fields are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, user_id, legacy_open_id, machine_id, machine_name, machine_location,
       machine_type, reservation_date, reservation_time, time_range, reservation_datetime,
       end_time, payment_deadline, duration, pay_duration, price_per_hour, total_price,
       status, payment_status, work_start_time, payment_time, complete_time,
       latest_display_time, created_at, updated_at`

// scanReservation reads one reservation row from either *sql.Row or *sql.Rows.
func scanReservation(scan func(dest ...any) error) (*model.Reservation, error) {
    var res model.Reservation
    var legacy sql.NullString
    var workStart, paymentTime, completeTime sql.NullTime
    err := scan(
        &res.ID, &res.UserID, &legacy, &res.MachineID, &res.MachineName, &res.MachineLocation,
        &res.MachineType, &res.ReservationDate, &res.ReservationTime, &res.TimeRange,
        &res.ReservationDateTime, &res.EndTime, &res.PaymentDeadline, &res.Duration,
        &res.PayDuration, &res.PricePerHour, &res.TotalPrice, &res.Status, &res.PaymentStatus,
        &workStart, &paymentTime, &completeTime, &res.LatestDisplayTime,
        &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if legacy.Valid {
        v := legacy.String
        res.LegacyOpenID = &v
    }
    if workStart.Valid {
        t := workStart.Time
        res.WorkStartTime = &t
    }
    if paymentTime.Valid {
        t := paymentTime.Time
        res.PaymentTime = &t
    }
    if completeTime.Valid {
        t := completeTime.Time
        res.CompleteTime = &t
    }
    return &res, nil
}

// EnsureSlotFreeTx returns ErrConflict when a pending reservation
// already holds the exact (machine, date, start) slot.  The matching
// rows are locked FOR UPDATE so a concurrent create for the same slot
// blocks until this transaction commits, closing the check-then-act
// race.
func (r *ReservationRepo) EnsureSlotFreeTx(ctx context.Context, tx *sql.Tx, machineID, date, start string) error {
    const q = `SELECT COUNT(*) FROM reservations
               WHERE machine_id = ? AND reservation_date = ? AND reservation_time = ? AND status = ?
               FOR UPDATE`
    var n int
    if err := tx.QueryRowContext(ctx, q, machineID, date, start, model.StatusPending).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    return nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction.  The record id is assigned here (an opaque UUID) and
// populated on the provided struct.  The caller must commit or
// rollback the transaction and append the initial history entry via
// AppendHistoryTx.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    if res.ID == "" {
        res.ID = uuid.NewString()
    }
    const q = `INSERT INTO reservations
        (id, user_id, machine_id, machine_name, machine_location, machine_type,
         reservation_date, reservation_time, time_range, reservation_datetime, end_time,
         payment_deadline, duration, pay_duration, price_per_hour, total_price,
         status, payment_status, latest_display_time, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := tx.ExecContext(ctx, q,
        res.ID, res.UserID, res.MachineID, res.MachineName, res.MachineLocation, res.MachineType,
        res.ReservationDate, res.ReservationTime, res.TimeRange, res.ReservationDateTime, res.EndTime,
        res.PaymentDeadline, res.Duration, res.PayDuration, res.PricePerHour, res.TotalPrice,
        res.Status, res.PaymentStatus, res.LatestDisplayTime, res.CreatedAt, res.UpdatedAt,
    )
    return err
}

// GetByID loads a single reservation.  ErrNotFound is returned when no
// row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    res, err := scanReservation(r.db.QueryRowContext(ctx, q, id).Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return res, err
}

// GetOwned loads a reservation on behalf of a caller.  ErrForbidden is
// returned when the row exists but belongs to someone else; ownership
// accepts the canonical user_id or the legacy owner id on imported
// rows.
func (r *ReservationRepo) GetOwned(ctx context.Context, id, caller string) (*model.Reservation, error) {
    res, err := r.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if res.UserID != caller && (res.LegacyOpenID == nil || *res.LegacyOpenID != caller) {
        return nil, ErrForbidden
    }
    return res, nil
}

// GetByIDTx loads a reservation within a transaction and locks the row
// FOR UPDATE so concurrent transitions on the same reservation
// serialize.  ErrNotFound is returned when no row exists.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
    res, err := scanReservation(tx.QueryRowContext(ctx, q, id).Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return res, err
}

// StatusUpdate carries the field changes of one lifecycle transition.
// Nil pointer fields are left untouched; the dynamic SET clause is
// built from the fields actually present.
type StatusUpdate struct {
    Status        string
    PaymentStatus string
    WorkStartTime *time.Time
    EndTime       *time.Time
    PaymentTime   *time.Time
    CompleteTime  *time.Time
    UpdatedAt     time.Time
}

// ApplyTransitionTx updates a reservation's status fields within a
// transaction.  Only the columns present in the update are written.
func (r *ReservationRepo) ApplyTransitionTx(ctx context.Context, tx *sql.Tx, id string, upd StatusUpdate) error {
    sets := []string{"status = ?", "payment_status = ?", "updated_at = ?"}
    args := []any{upd.Status, upd.PaymentStatus, upd.UpdatedAt}
    if upd.WorkStartTime != nil {
        sets = append(sets, "work_start_time = ?")
        args = append(args, *upd.WorkStartTime)
    }
    if upd.EndTime != nil {
        sets = append(sets, "end_time = ?")
        args = append(args, *upd.EndTime)
    }
    if upd.PaymentTime != nil {
        sets = append(sets, "payment_time = ?")
        args = append(args, *upd.PaymentTime)
    }
    if upd.CompleteTime != nil {
        sets = append(sets, "complete_time = ?")
        args = append(args, *upd.CompleteTime)
    }
    args = append(args, id)
    q := "UPDATE reservations SET " + strings.Join(sets, ", ") + " WHERE id = ?"
    _, err := tx.ExecContext(ctx, q, args...)
    return err
}

// AppendHistoryTx appends one audit entry to a reservation's status
// history within a transaction.
func (r *ReservationRepo) AppendHistoryTx(ctx context.Context, tx *sql.Tx, e model.StatusHistoryEntry) error {
    const q = `INSERT INTO reservation_status_history
        (reservation_id, action, from_status, to_status, from_payment_status, to_payment_status, operator, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := tx.ExecContext(ctx, q,
        e.ReservationID, e.Action, e.FromStatus, e.ToStatus,
        e.FromPaymentStatus, e.ToPaymentStatus, e.Operator, e.CreatedAt,
    )
    return err
}

// ListHistory returns a reservation's audit trail in insertion order.
func (r *ReservationRepo) ListHistory(ctx context.Context, reservationID string) ([]model.StatusHistoryEntry, error) {
    const q = `SELECT id, reservation_id, action, from_status, to_status,
                      from_payment_status, to_payment_status, operator, created_at
               FROM reservation_status_history WHERE reservation_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, reservationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    entries := make([]model.StatusHistoryEntry, 0)
    for rows.Next() {
        var e model.StatusHistoryEntry
        if err := rows.Scan(&e.ID, &e.ReservationID, &e.Action, &e.FromStatus, &e.ToStatus,
            &e.FromPaymentStatus, &e.ToPaymentStatus, &e.Operator, &e.CreatedAt); err != nil {
            return nil, err
        }
        entries = append(entries, e)
    }
    return entries, rows.Err()
}

// ActiveStatuses are the non-terminal states matched by the "active"
// list filter.
var ActiveStatuses = []string{model.StatusPending, model.StatusConfirmed, model.StatusWorking}

// ListByOwner returns the caller's reservations newest-first by slot
// start.  The owner match accepts either the canonical user_id or the
// legacy_open_id carried on rows imported from the old system.  The
// filter is "all" (no status condition), "active" (pending, confirmed
// or working) or an exact status literal.
func (r *ReservationRepo) ListByOwner(ctx context.Context, callerID, filter string) ([]model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations
          WHERE (user_id = ? OR legacy_open_id = ?)`
    args := []any{callerID, callerID}
    switch filter {
    case "", "all":
        // no status condition
    case "active":
        placeholders := make([]string, len(ActiveStatuses))
        for i, s := range ActiveStatuses {
            placeholders[i] = "?"
            args = append(args, s)
        }
        q += " AND status IN (" + strings.Join(placeholders, ",") + ")"
    default:
        q += " AND status = ?"
        args = append(args, filter)
    }
    q += " ORDER BY reservation_datetime DESC"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows.Scan)
        if err != nil {
            return nil, err
        }
        out = append(out, *res)
    }
    return out, rows.Err()
}
