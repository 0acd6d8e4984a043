package model

import "time"

// Machine states.  The machine row mirrors the lifecycle of whichever
// reservation currently holds it: reserved on create, working when the
// cycle starts, available again on cancel/complete.  Maintenance is set
// by operators, never by the reservation flow.
const (
    MachineAvailable   = "available"
    MachineReserved    = "reserved"
    MachineWorking     = "working"
    MachineMaintenance = "maintenance"
)

// Machine is a washing machine resource.  The status column is a
// denormalized availability flag written only as a best-effort side
// effect of reservation transitions, so it can lag behind the
// reservation table after a partial failure.  Corresponds to the
// `machines` table.
//
// Fields:
//  ID        – machine identifier (assigned by the inventory system).
//  Name      – display name, e.g. "WM-3F-02".
//  Location  – building/floor description.
//  Type      – machine type (e.g. standard, quick, dryer).
//  Status    – availability flag, see constants above.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Machine struct {
    ID        string    // machines.id
    Name      string    // machines.name
    Location  string    // machines.location
    Type      string    // machines.type
    Status    string    // machines.status
    CreatedAt time.Time // machines.created_at
    UpdatedAt time.Time // machines.updated_at
}
