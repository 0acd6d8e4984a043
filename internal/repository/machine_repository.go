package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/dormwash/laundry-reservation/internal/model"
)

// MachineRepo provides point lookup and status updates for machines.
// The machine status is a denormalized mirror of the reservation
// lifecycle and is only ever written as a best-effort side effect after
// the reservation write committed; callers log failures instead of
// propagating them.
type MachineRepo struct {
    db *sql.DB
}

// NewMachineRepo returns a new MachineRepo bound to the given database.
func NewMachineRepo(db *sql.DB) *MachineRepo { return &MachineRepo{db: db} }

// GetByID loads a single machine.  ErrNotFound is returned when no row
// exists.
func (r *MachineRepo) GetByID(ctx context.Context, id string) (*model.Machine, error) {
    const q = `SELECT id, name, location, type, status, created_at, updated_at
               FROM machines WHERE id = ?`
    var m model.Machine
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &m.ID, &m.Name, &m.Location, &m.Type, &m.Status, &m.CreatedAt, &m.UpdatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &m, nil
}

// UpdateStatus flips the machine's availability mirror.  ErrNotFound is
// returned when the machine does not exist so callers can tell a stale
// id from an I/O failure.
func (r *MachineRepo) UpdateStatus(ctx context.Context, id, status string, now time.Time) error {
    const q = `UPDATE machines SET status = ?, updated_at = ? WHERE id = ?`
    result, err := r.db.ExecContext(ctx, q, status, now, id)
    if err != nil {
        return err
    }
    if n, err := result.RowsAffected(); err == nil && n == 0 {
        return ErrNotFound
    }
    return nil
}
