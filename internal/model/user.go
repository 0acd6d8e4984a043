package model

import "time"

// Credit score bounds and default.  The score is clamped into
// [CreditMin, CreditMax] on every adjustment and starts at
// CreditDefault when a profile is first touched.
const (
    CreditMin     = 0
    CreditMax     = 200
    CreditDefault = 100
)

// DefaultNickName is assigned to a profile created lazily before the
// user ever submitted one.
const DefaultNickName = "新用户"

// UserProfile holds one user's profile and materialized credit score.
// Profiles are created lazily on first touch and never deleted.  The
// score is last-write-wins under concurrent adjustments; the credit
// history rows are the auditable source of truth.  Corresponds to the
// `users` table, keyed by the opaque caller identifier.
//
// Fields:
//  ID           – opaque external user identifier.
//  NickName     – display name, defaults to DefaultNickName.
//  Phone        – contact phone, empty by default.
//  BuildingID   – dormitory building id.
//  BuildingName – dormitory building name.
//  RoomNumber   – dormitory room.
//  StudentID    – student number.
//  CreditScore  – bounded reputation integer, see constants above.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type UserProfile struct {
    ID           string    // users.id
    NickName     string    // users.nick_name
    Phone        string    // users.phone
    BuildingID   string    // users.building_id
    BuildingName string    // users.building_name
    RoomNumber   string    // users.room_number
    StudentID    string    // users.student_id
    CreditScore  int       // users.credit_score
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// CreditHistoryEntry is one row of a user's append-only credit ledger.
// Each score adjustment appends exactly one entry carrying the delta
// and the clamped score after it, so the score is recomputable from
// history alone.  Corresponds to the `credit_history` table.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user the entry belongs to.
//  Reason     – why the score changed (cancelReservation,
//               cancelReservationEarly, completeReservation,
//               adminCompleteReservation).
//  Delta      – signed change applied.
//  ScoreAfter – materialized score after clamping.
//  CreatedAt  – when the adjustment happened.
type CreditHistoryEntry struct {
    ID         uint64    // credit_history.id
    UserID     string    // credit_history.user_id
    Reason     string    // credit_history.reason
    Delta      int       // credit_history.delta
    ScoreAfter int       // credit_history.score_after
    CreatedAt  time.Time // credit_history.created_at
}
