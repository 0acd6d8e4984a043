package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/dormwash/laundry-reservation/internal/booking"
    "github.com/dormwash/laundry-reservation/internal/model"
)

// UserRepo provides get-or-create access to user profiles and the
// credit ledger.  Profiles are keyed by the opaque caller identifier
// and created lazily on first touch with the default score.
type UserRepo struct {
    db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, nick_name, phone, building_id, building_name, room_number,
       student_id, credit_score, created_at, updated_at`

func (r *UserRepo) get(ctx context.Context, id string) (*model.UserProfile, error) {
    const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
    var u model.UserProfile
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &u.ID, &u.NickName, &u.Phone, &u.BuildingID, &u.BuildingName,
        &u.RoomNumber, &u.StudentID, &u.CreditScore, &u.CreatedAt, &u.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    return &u, nil
}

// ProfileUpdate carries the caller-editable subset of a profile.  Nil
// fields are left untouched.  The credit score and history are never
// writable through this type.
type ProfileUpdate struct {
    NickName     *string
    Phone        *string
    BuildingID   *string
    BuildingName *string
    RoomNumber   *string
    StudentID    *string
}

// Ensure returns the profile for id, creating it with defaults when it
// does not exist yet.  A non-nil seed pre-fills the editable fields of
// a freshly created profile; it never modifies an existing one.
func (r *UserRepo) Ensure(ctx context.Context, id string, seed *ProfileUpdate, now time.Time) (*model.UserProfile, error) {
    u, err := r.get(ctx, id)
    if err == nil {
        return u, nil
    }
    if !errors.Is(err, sql.ErrNoRows) {
        return nil, err
    }
    fresh := model.UserProfile{
        ID:          id,
        NickName:    model.DefaultNickName,
        CreditScore: model.CreditDefault,
        CreatedAt:   now,
        UpdatedAt:   now,
    }
    if seed != nil {
        if seed.NickName != nil && *seed.NickName != "" {
            fresh.NickName = *seed.NickName
        }
        if seed.Phone != nil {
            fresh.Phone = *seed.Phone
        }
        if seed.BuildingID != nil {
            fresh.BuildingID = *seed.BuildingID
        }
        if seed.BuildingName != nil {
            fresh.BuildingName = *seed.BuildingName
        }
        if seed.RoomNumber != nil {
            fresh.RoomNumber = *seed.RoomNumber
        }
        if seed.StudentID != nil {
            fresh.StudentID = *seed.StudentID
        }
    }
    const ins = `INSERT INTO users
        (id, nick_name, phone, building_id, building_name, room_number, student_id,
         credit_score, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    if _, err := r.db.ExecContext(ctx, ins,
        fresh.ID, fresh.NickName, fresh.Phone, fresh.BuildingID, fresh.BuildingName,
        fresh.RoomNumber, fresh.StudentID, fresh.CreditScore, fresh.CreatedAt, fresh.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    return &fresh, nil
}

// UpdateProfile merges the provided subset of editable fields into an
// existing profile and stamps updated_at.  Passing an update with no
// fields set is a no-op.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, now time.Time) error {
    sets := make([]string, 0, 7)
    args := make([]any, 0, 8)
    add := func(col string, v *string) {
        if v != nil {
            sets = append(sets, col+" = ?")
            args = append(args, *v)
        }
    }
    add("nick_name", upd.NickName)
    add("phone", upd.Phone)
    add("building_id", upd.BuildingID)
    add("building_name", upd.BuildingName)
    add("room_number", upd.RoomNumber)
    add("student_id", upd.StudentID)
    if len(sets) == 0 {
        return nil
    }
    sets = append(sets, "updated_at = ?")
    args = append(args, now, id)
    q := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
    _, err := r.db.ExecContext(ctx, q, args...)
    return err
}

// AdjustCredit applies a score delta: read or initialize the profile,
// clamp the new score into bounds, persist it and append one ledger
// entry.  There is deliberately no transaction around the
// read-modify-write — concurrent adjustments to one user are
// last-write-wins on the materialized score, while the append-only
// history rows keep the score recomputable and auditable.
func (r *UserRepo) AdjustCredit(ctx context.Context, userID string, delta int, reason string, now time.Time) (int, error) {
    u, err := r.Ensure(ctx, userID, nil, now)
    if err != nil {
        return 0, err
    }
    newScore := booking.ClampScore(u.CreditScore + delta)
    const upd = `UPDATE users SET credit_score = ?, updated_at = ? WHERE id = ?`
    if _, err := r.db.ExecContext(ctx, upd, newScore, now, userID); err != nil {
        return 0, err
    }
    const ins = `INSERT INTO credit_history (user_id, reason, delta, score_after, created_at)
                 VALUES (?, ?, ?, ?, ?)`
    if _, err := r.db.ExecContext(ctx, ins, userID, reason, delta, newScore, now); err != nil {
        return 0, err
    }
    return newScore, nil
}

// ListCreditHistory returns a user's credit ledger in insertion order.
func (r *UserRepo) ListCreditHistory(ctx context.Context, userID string) ([]model.CreditHistoryEntry, error) {
    const q = `SELECT id, user_id, reason, delta, score_after, created_at
               FROM credit_history WHERE user_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    entries := make([]model.CreditHistoryEntry, 0)
    for rows.Next() {
        var e model.CreditHistoryEntry
        if err := rows.Scan(&e.ID, &e.UserID, &e.Reason, &e.Delta, &e.ScoreAfter, &e.CreatedAt); err != nil {
            return nil, err
        }
        entries = append(entries, e)
    }
    return entries, rows.Err()
}
