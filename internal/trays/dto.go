package trays

import (
	"time"

	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

// Input creates or updates a tray. Nil fields are left unchanged on update.
type Input struct {
	TrayCode   *string
	LocationID *int64
	Name       *string
	Capacity   *int
	Status     *string
}

type TrayDTO struct {
	ID           int64              `json:"id"`
	TrayCode     string             `json:"tray_code"`
	LocationID   int64              `json:"location_id"`
	LocationCode string             `json:"location_code,omitempty"`
	Name         string             `json:"name"`
	Capacity     int                `json:"capacity"`
	Status       enums.RecordStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func toDTO(m models.Tray) TrayDTO {
	dto := TrayDTO{
		ID:         m.ID,
		TrayCode:   m.TrayCode,
		LocationID: m.LocationID,
		Name:       m.Name,
		Capacity:   m.Capacity,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.Location != nil {
		dto.LocationCode = m.Location.LocationCode
	}
	return dto
}

// Filter narrows tray lists.
type Filter struct {
	LocationID *int64
	Status     *enums.RecordStatus
}
