package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wildscope/wildscope-backend/pkg/enums"
)

// Detection is one bounding box produced by the detector for an image.
// Rows are append-only; there is no update path. Species fields are set
// only when the category is animal and the classifier cleared its
// confidence threshold.
type Detection struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ImageID   uuid.UUID  `gorm:"column:image_id;type:uuid;not null;index"`
	SpeciesID *uuid.UUID `gorm:"column:species_id;type:uuid"`

	Category enums.DetectionCategory `gorm:"column:category;not null"`

	// Normalized to [0,1] with origin at the top-left corner.
	BboxX      float64 `gorm:"column:bbox_x;not null"`
	BboxY      float64 `gorm:"column:bbox_y;not null"`
	BboxWidth  float64 `gorm:"column:bbox_width;not null"`
	BboxHeight float64 `gorm:"column:bbox_height;not null"`

	DetectorConfidence   float64  `gorm:"column:detector_confidence;not null"`
	ClassifierConfidence *float64 `gorm:"column:classifier_confidence"`
	CombinedConfidence   *float64 `gorm:"column:combined_confidence"`
	SpeciesTopK          *string  `gorm:"column:species_top_k;type:jsonb"`

	NeedsReview bool `gorm:"column:needs_review;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
