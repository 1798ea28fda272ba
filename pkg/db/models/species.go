package models

import (
	"time"

	"github.com/google/uuid"
)

// Species is keyed by scientific name with get-or-create semantics; rows
// are never mutated by the pipeline once created.
type Species struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ScientificName string    `gorm:"column:scientific_name;not null;unique"`
	CommonName     *string   `gorm:"column:common_name"`

	TaxonomyKingdom *string `gorm:"column:taxonomy_kingdom"`
	TaxonomyPhylum  *string `gorm:"column:taxonomy_phylum"`
	TaxonomyClass   *string `gorm:"column:taxonomy_class"`
	TaxonomyOrder   *string `gorm:"column:taxonomy_order"`
	TaxonomyFamily  *string `gorm:"column:taxonomy_family"`
	TaxonomyGenus   *string `gorm:"column:taxonomy_genus"`

	ConservationStatus *string `gorm:"column:conservation_status"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
