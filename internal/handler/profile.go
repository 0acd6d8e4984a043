package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/dormwash/laundry-reservation/internal/model"
    "github.com/dormwash/laundry-reservation/internal/repository"
)

// ProfileHandler implements get-or-create access to the caller's
// profile.  Upsert merges only the editable subset of fields; the
// credit score and ledger are never writable through this surface.
type ProfileHandler struct {
    Users  *repository.UserRepo
    Logger *zap.Logger
}

// NewProfileHandler constructs a ProfileHandler.  Dependencies must be non-nil.
func NewProfileHandler(users *repository.UserRepo, logger *zap.Logger) *ProfileHandler {
    if users == nil || logger == nil {
        panic("nil dependency passed to NewProfileHandler")
    }
    return &ProfileHandler{Users: users, Logger: logger}
}

type profileView struct {
    ID            string            `json:"id"`
    NickName      string            `json:"nickName"`
    Phone         string            `json:"phone"`
    BuildingID    string            `json:"buildingId"`
    BuildingName  string            `json:"buildingName"`
    RoomNumber    string            `json:"roomNumber"`
    StudentID     string            `json:"studentId"`
    CreditScore   int               `json:"creditScore"`
    CreditHistory []creditEntryView `json:"creditHistory"`
    CreatedAt     string            `json:"createdAt"`
    UpdatedAt     string            `json:"updatedAt"`
}

type creditEntryView struct {
    Reason     string `json:"reason"`
    Delta      int    `json:"delta"`
    ScoreAfter int    `json:"scoreAfter"`
    Timestamp  string `json:"timestamp"`
}

func (h *ProfileHandler) view(c echo.Context, u *model.UserProfile) (profileView, error) {
    history, err := h.Users.ListCreditHistory(c.Request().Context(), u.ID)
    if err != nil {
        return profileView{}, err
    }
    entries := make([]creditEntryView, 0, len(history))
    for _, e := range history {
        entries = append(entries, creditEntryView{
            Reason:     e.Reason,
            Delta:      e.Delta,
            ScoreAfter: e.ScoreAfter,
            Timestamp:  e.CreatedAt.UTC().Format(time.RFC3339),
        })
    }
    return profileView{
        ID:            u.ID,
        NickName:      u.NickName,
        Phone:         u.Phone,
        BuildingID:    u.BuildingID,
        BuildingName:  u.BuildingName,
        RoomNumber:    u.RoomNumber,
        StudentID:     u.StudentID,
        CreditScore:   u.CreditScore,
        CreditHistory: entries,
        CreatedAt:     u.CreatedAt.UTC().Format(time.RFC3339),
        UpdatedAt:     u.UpdatedAt.UTC().Format(time.RFC3339),
    }, nil
}

// Get handles GET /v1/profile.  The profile is created with defaults on
// first touch.
func (h *ProfileHandler) Get(c echo.Context) error {
    caller, err := callerID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "not logged in"})
    }
    now := time.Now().UTC()
    u, err := h.Users.Ensure(c.Request().Context(), caller, nil, now)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load profile"})
    }
    v, err := h.view(c, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load credit history"})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": v})
}

// Upsert handles PUT /v1/profile.  Only the provided subset of editable
// fields is merged; updatedAt is stamped when anything changed.
func (h *ProfileHandler) Upsert(c echo.Context) error {
    caller, err := callerID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "not logged in"})
    }
    var body struct {
        NickName     *string `json:"nickName"`
        Phone        *string `json:"phone"`
        BuildingID   *string `json:"buildingId"`
        BuildingName *string `json:"buildingName"`
        RoomNumber   *string `json:"roomNumber"`
        StudentID    *string `json:"studentId"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
    }
    upd := repository.ProfileUpdate{
        NickName:     body.NickName,
        Phone:        body.Phone,
        BuildingID:   body.BuildingID,
        BuildingName: body.BuildingName,
        RoomNumber:   body.RoomNumber,
        StudentID:    body.StudentID,
    }
    now := time.Now().UTC()
    ctx := c.Request().Context()
    if _, err := h.Users.Ensure(ctx, caller, &upd, now); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load profile"})
    }
    if err := h.Users.UpdateProfile(ctx, caller, upd, now); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to update profile"})
    }
    u, err := h.Users.Ensure(ctx, caller, nil, now)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to reload profile"})
    }
    v, err := h.view(c, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load credit history"})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": v})
}
