package model

import "time"

// Reservation statuses.  A reservation only ever moves forward through
// these states; cancelled and completed are terminal.  The expired
// status is never written by a background job: an overdue unpaid
// reservation stays pending in storage and clients infer expiry from
// the payment deadline.  Paying a reservation stored as expired revives
// it to confirmed.
const (
    StatusPending   = "pending"
    StatusConfirmed = "confirmed"
    StatusWorking   = "working"
    StatusCompleted = "completed"
    StatusCancelled = "cancelled"
    StatusExpired   = "expired"
)

// Payment statuses.  Payment is simulated: simulatePay flips unpaid to
// paid, and completing a reservation forces paid as well.
const (
    PaymentUnpaid = "unpaid"
    PaymentPaid   = "paid"
)

// Reservation records a user's booking of one washing machine for one
// time window.  Machine name/location/type are denormalized copies
// captured at creation time and never re-joined.  This struct
// corresponds to a row in the `reservations` table.
//
// Fields:
//  ID                  – opaque record id assigned at insert (UUID).
//  UserID              – canonical owner identifier.
//  LegacyOpenID        – alternate owner id on rows imported from the old
//                        system; authorization accepts a match on either.
//  MachineID           – machine being reserved.
//  MachineName         – denormalized machine name.
//  MachineLocation     – denormalized machine location.
//  MachineType         – denormalized machine type.
//  ReservationDate     – calendar date of the slot (YYYY-MM-DD).
//  ReservationTime     – slot start (HH:mm).
//  TimeRange           – display string "start-end".
//  ReservationDateTime – absolute slot start instant.
//  EndTime             – usage end; start + duration at creation, rewritten
//                        to now + duration when the cycle actually starts.
//  PaymentDeadline     – creation instant + pay duration.
//  Duration            – machine usage in minutes.
//  PayDuration         – payment window in minutes.
//  PricePerHour        – hourly rate.
//  TotalPrice          – price charged (sub-hour bookings floored at one hour).
//  Status              – lifecycle status, see constants above.
//  PaymentStatus       – unpaid or paid.
//  WorkStartTime       – when the cycle started (nil until then).
//  PaymentTime         – when payment was recorded (nil until then).
//  CompleteTime        – when the reservation completed (nil until then).
//  LatestDisplayTime   – "date start-end" convenience string for clients.
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Reservation struct {
    ID                  string     // reservations.id
    UserID              string     // reservations.user_id
    LegacyOpenID        *string    // reservations.legacy_open_id (nullable)
    MachineID           string     // reservations.machine_id
    MachineName         string     // reservations.machine_name
    MachineLocation     string     // reservations.machine_location
    MachineType         string     // reservations.machine_type
    ReservationDate     string     // reservations.reservation_date
    ReservationTime     string     // reservations.reservation_time
    TimeRange           string     // reservations.time_range
    ReservationDateTime time.Time  // reservations.reservation_datetime
    EndTime             time.Time  // reservations.end_time
    PaymentDeadline     time.Time  // reservations.payment_deadline
    Duration            int        // reservations.duration (minutes)
    PayDuration         int        // reservations.pay_duration (minutes)
    PricePerHour        float64    // reservations.price_per_hour
    TotalPrice          float64    // reservations.total_price
    Status              string     // reservations.status
    PaymentStatus       string     // reservations.payment_status
    WorkStartTime       *time.Time // reservations.work_start_time (nullable)
    PaymentTime         *time.Time // reservations.payment_time (nullable)
    CompleteTime        *time.Time // reservations.complete_time (nullable)
    LatestDisplayTime   string     // reservations.latest_display_time
    CreatedAt           time.Time  // reservations.created_at
    UpdatedAt           time.Time  // reservations.updated_at
}

// StatusHistoryEntry is one row of a reservation's append-only audit
// trail.  Every lifecycle transition (including creation) appends
// exactly one entry.  Corresponds to the `reservation_status_history`
// table.
//
// Fields:
//  ID                – primary key identifier.
//  ReservationID     – reservation the entry belongs to.
//  Action            – operation that caused the transition (create,
//                      cancel, simulatePay, start, complete, adminComplete).
//  FromStatus        – status before the transition (empty on create).
//  ToStatus          – status after the transition.
//  FromPaymentStatus – payment status before (empty on create).
//  ToPaymentStatus   – payment status after.
//  Operator          – who performed it (system, user or admin).
//  CreatedAt         – when the transition happened.
type StatusHistoryEntry struct {
    ID                uint64    // reservation_status_history.id
    ReservationID     string    // reservation_status_history.reservation_id
    Action            string    // reservation_status_history.action
    FromStatus        string    // reservation_status_history.from_status
    ToStatus          string    // reservation_status_history.to_status
    FromPaymentStatus string    // reservation_status_history.from_payment_status
    ToPaymentStatus   string    // reservation_status_history.to_payment_status
    Operator          string    // reservation_status_history.operator
    CreatedAt         time.Time // reservation_status_history.created_at
}
