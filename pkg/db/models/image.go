package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wildscope/wildscope-backend/pkg/enums"
)

// Image is the durable record for one ingested camera-trap file, keyed by
// its storage key. Metadata fields are pointers because EXIF is best-effort
// and frequently absent or corrupt on trail cameras.
type Image struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StorageBucket string    `gorm:"column:storage_bucket;not null"`
	StorageKey    string    `gorm:"column:storage_key;not null;unique"`
	FileName      *string   `gorm:"column:file_name"`
	FileSize      int64     `gorm:"column:file_size;not null"`
	FileHash      string    `gorm:"column:file_hash;not null"`

	Width  *int    `gorm:"column:width"`
	Height *int    `gorm:"column:height"`
	Format *string `gorm:"column:format"`

	CameraID    *string    `gorm:"column:camera_id"`
	LocationID  *uuid.UUID `gorm:"column:location_id;type:uuid"`
	ProjectName *string    `gorm:"column:project_name"`
	Client      *string    `gorm:"column:client"`
	Country     *string    `gorm:"column:country"`

	CapturedAt   *time.Time `gorm:"column:captured_at"`
	CameraMake   *string    `gorm:"column:camera_make"`
	CameraModel  *string    `gorm:"column:camera_model"`
	GPSLatitude  *float64   `gorm:"column:gps_latitude"`
	GPSLongitude *float64   `gorm:"column:gps_longitude"`
	GPSAltitude  *float64   `gorm:"column:gps_altitude"`
	ExifData     *string    `gorm:"column:exif_data;type:jsonb"`

	BrightnessScore *float64 `gorm:"column:brightness_score"`
	SharpnessScore  *float64 `gorm:"column:sharpness_score"`
	QualityScore    *float64 `gorm:"column:quality_score"`

	ProcessingStatus enums.ProcessingStatus `gorm:"column:processing_status;not null;default:received"`
	ErrorMessage     *string                `gorm:"column:error_message"`
	ProcessedAt      *time.Time             `gorm:"column:processed_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
