package locations

import (
	"time"

	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

// Input creates or updates a location. Nil fields are left unchanged on update.
type Input struct {
	LocationCode *string
	Name         *string
	Address      *string
	Status       *string
}

type LocationDTO struct {
	ID           int64              `json:"id"`
	LocationCode string             `json:"location_code"`
	Name         string             `json:"name"`
	Address      *string            `json:"address,omitempty"`
	Status       enums.RecordStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func toDTO(m models.Location) LocationDTO {
	return LocationDTO{
		ID:           m.ID,
		LocationCode: m.LocationCode,
		Name:         m.Name,
		Address:      m.Address,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
