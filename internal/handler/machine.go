package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/dormwash/laundry-reservation/internal/model"
    "github.com/dormwash/laundry-reservation/internal/repository"
)

// MachineHandler serves reads of the machine availability mirror.  The
// mirror is written only by reservation transitions, so the status
// returned here can lag briefly behind the reservation table after a
// partial failure.
type MachineHandler struct {
    Machines *repository.MachineRepo
}

// NewMachineHandler constructs a MachineHandler.
func NewMachineHandler(machines *repository.MachineRepo) *MachineHandler {
    if machines == nil {
        panic("nil repository passed to NewMachineHandler")
    }
    return &MachineHandler{Machines: machines}
}

type machineView struct {
    ID        string `json:"id"`
    Name      string `json:"name"`
    Location  string `json:"location"`
    Type      string `json:"type"`
    Status    string `json:"status"`
    UpdatedAt string `json:"updatedAt"`
}

func toMachineView(m *model.Machine) machineView {
    return machineView{
        ID:        m.ID,
        Name:      m.Name,
        Location:  m.Location,
        Type:      m.Type,
        Status:    m.Status,
        UpdatedAt: m.UpdatedAt.UTC().Format(time.RFC3339),
    }
}

// Get handles GET /v1/machines/:id.
func (h *MachineHandler) Get(c echo.Context) error {
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing machine id"})
    }
    m, err := h.Machines.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "machine not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load machine"})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": toMachineView(m)})
}
