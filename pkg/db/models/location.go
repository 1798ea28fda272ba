package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is keyed by camera identifier with get-or-create semantics.
type Location struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CameraID string    `gorm:"column:camera_id;not null;unique"`

	Latitude  *float64 `gorm:"column:latitude"`
	Longitude *float64 `gorm:"column:longitude"`
	Altitude  *float64 `gorm:"column:altitude"`

	LocationName *string `gorm:"column:location_name"`
	Country      *string `gorm:"column:country"`
	HabitatType  *string `gorm:"column:habitat_type"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
