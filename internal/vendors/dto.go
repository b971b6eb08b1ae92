package vendors

import (
	"time"

	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

// Input creates or updates a vendor. Nil fields are left unchanged on update.
type Input struct {
	VendorCode    *string
	Name          *string
	ContactPerson *string
	Email         *string
	Phone         *string
	GSTIN         *string
	Address       *string
	Status        *string
}

type VendorDTO struct {
	ID            int64              `json:"id"`
	VendorCode    string             `json:"vendor_code"`
	Name          string             `json:"name"`
	ContactPerson *string            `json:"contact_person,omitempty"`
	Email         *string            `json:"email,omitempty"`
	Phone         *string            `json:"phone,omitempty"`
	GSTIN         *string            `json:"gstin,omitempty"`
	Address       *string            `json:"address,omitempty"`
	Status        enums.RecordStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func toDTO(m models.Vendor) VendorDTO {
	return VendorDTO{
		ID:            m.ID,
		VendorCode:    m.VendorCode,
		Name:          m.Name,
		ContactPerson: m.ContactPerson,
		Email:         m.Email,
		Phone:         m.Phone,
		GSTIN:         m.GSTIN,
		Address:       m.Address,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
