package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wildscope/wildscope-backend/internal/repo"
	"github.com/wildscope/wildscope-backend/internal/species"
	"github.com/wildscope/wildscope-backend/pkg/db"
	"github.com/wildscope/wildscope-backend/pkg/db/models"
	"github.com/wildscope/wildscope-backend/pkg/enums"
	pkgerrors "github.com/wildscope/wildscope-backend/pkg/errors"
)

// Repository is the durable-store access layer for the pipeline. IDs are
// assigned client-side so the same code path works across dialects.
type Repository struct {
	repo.Base
	now func() time.Time
}

func NewRepository(conn *gorm.DB) (*Repository, error) {
	if conn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "repository requires a db connection")
	}
	return &Repository{Base: repo.NewBase(conn), now: time.Now}, nil
}

// UpsertImage inserts the image row or, when the storage key already
// exists, bumps updated_at and leaves every other column untouched. Either
// way the row's identifier comes back for the rest of the run.
func (r *Repository) UpsertImage(ctx context.Context, img *models.Image) (uuid.UUID, error) {
	if img == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	if img.StorageKey == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "storage key is required")
	}
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}

	var stored models.Image
	err := r.Transact(ctx, func(tx *gorm.DB) error {
		err := tx.
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "storage_key"}},
				DoUpdates: clause.Assignments(map[string]any{
					"updated_at": r.now().UTC(),
				}),
			}).
			Create(img).Error
		if err != nil {
			return fmt.Errorf("upserting image %s: %w", img.StorageKey, err)
		}

		// on conflict the generated ID was discarded; read the winning row
		err = tx.
			Where("storage_key = ?", img.StorageKey).
			First(&stored).Error
		if err != nil {
			return fmt.Errorf("loading upserted image %s: %w", img.StorageKey, err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	img.ID = stored.ID
	return stored.ID, nil
}

// UpdateImageStatus transitions the image's lifecycle state. A move to
// completed stamps processed_at; a move to failed records the message.
func (r *Repository) UpdateImageStatus(ctx context.Context, imageID uuid.UUID, status enums.ProcessingStatus, errorMessage *string) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid processing status %q", status))
	}

	updates := map[string]any{
		"processing_status": status.String(),
		"error_message":     errorMessage,
		"updated_at":        r.now().UTC(),
	}
	if status == enums.ProcessingStatusCompleted {
		updates["processed_at"] = r.now().UTC()
	}

	res := r.DB(ctx).
		Model(&models.Image{}).
		Where("id = ?", imageID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating image %s status: %w", imageID, res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("image %s not found", imageID))
	}
	return nil
}

// GetImageByKey loads an image row by its storage key.
func (r *Repository) GetImageByKey(ctx context.Context, storageKey string) (*models.Image, error) {
	var img models.Image
	err := r.DB(ctx).
		Where("storage_key = ?", storageKey).
		First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("image %s not found", storageKey))
	}
	if err != nil {
		return nil, fmt.Errorf("loading image %s: %w", storageKey, err)
	}
	return &img, nil
}

// InsertDetection appends one detection row.
func (r *Repository) InsertDetection(ctx context.Context, det *models.Detection) (uuid.UUID, error) {
	if det == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "detection is required")
	}
	if det.ImageID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "detection requires an image id")
	}
	if det.ID == uuid.Nil {
		det.ID = uuid.New()
	}

	if err := r.DB(ctx).Create(det).Error; err != nil {
		return uuid.Nil, fmt.Errorf("inserting detection for image %s: %w", det.ImageID, err)
	}
	return det.ID, nil
}

// DeleteDetectionsByImage removes every detection for an image. Used only
// when a redelivered message reprocesses an image, so the new run does not
// stack boxes on top of a previous partial run.
func (r *Repository) DeleteDetectionsByImage(ctx context.Context, imageID uuid.UUID) error {
	err := r.DB(ctx).
		Where("image_id = ?", imageID).
		Delete(&models.Detection{}).Error
	if err != nil {
		return fmt.Errorf("deleting detections for image %s: %w", imageID, err)
	}
	return nil
}

// ListDetectionsByImage returns an image's detections, oldest first.
func (r *Repository) ListDetectionsByImage(ctx context.Context, imageID uuid.UUID) ([]models.Detection, error) {
	var dets []models.Detection
	err := r.DB(ctx).
		Where("image_id = ?", imageID).
		Order("created_at ASC").
		Find(&dets).Error
	if err != nil {
		return nil, fmt.Errorf("listing detections for image %s: %w", imageID, err)
	}
	return dets, nil
}

// GetOrCreateSpecies resolves a species row by scientific name, creating it
// with the classifier's taxonomy on first sight. A concurrent insert of the
// same name is resolved by re-reading after the unique violation.
func (r *Repository) GetOrCreateSpecies(ctx context.Context, scientificName string, commonName *string, taxonomy *species.Taxonomy) (uuid.UUID, error) {
	if scientificName == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "scientific name is required")
	}

	var existing models.Species
	err := r.DB(ctx).
		Where("scientific_name = ?", scientificName).
		First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, fmt.Errorf("loading species %q: %w", scientificName, err)
	}

	row := models.Species{
		ID:             uuid.New(),
		ScientificName: scientificName,
		CommonName:     commonName,
	}
	if taxonomy != nil {
		row.TaxonomyKingdom = optional(taxonomy.Kingdom)
		row.TaxonomyPhylum = optional(taxonomy.Phylum)
		row.TaxonomyClass = optional(taxonomy.Class)
		row.TaxonomyOrder = optional(taxonomy.Order)
		row.TaxonomyFamily = optional(taxonomy.Family)
		row.TaxonomyGenus = optional(taxonomy.Genus)
	}

	err = r.DB(ctx).Create(&row).Error
	if err == nil {
		return row.ID, nil
	}
	if db.IsUniqueViolation(err, "") {
		if lookupErr := r.DB(ctx).
			Where("scientific_name = ?", scientificName).
			First(&existing).Error; lookupErr == nil {
			return existing.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("creating species %q: %w", scientificName, err)
}

// GetOrCreateLocation resolves a location row by camera identifier,
// creating it with the image's GPS fix on first sight.
func (r *Repository) GetOrCreateLocation(ctx context.Context, cameraID string, lat, lon, alt *float64, country *string) (uuid.UUID, error) {
	if cameraID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "camera id is required")
	}

	var existing models.Location
	err := r.DB(ctx).
		Where("camera_id = ?", cameraID).
		First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, fmt.Errorf("loading location %q: %w", cameraID, err)
	}

	row := models.Location{
		ID:        uuid.New(),
		CameraID:  cameraID,
		Latitude:  lat,
		Longitude: lon,
		Altitude:  alt,
		Country:   country,
	}

	err = r.DB(ctx).Create(&row).Error
	if err == nil {
		return row.ID, nil
	}
	if db.IsUniqueViolation(err, "") {
		if lookupErr := r.DB(ctx).
			Where("camera_id = ?", cameraID).
			First(&existing).Error; lookupErr == nil {
			return existing.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("creating location %q: %w", cameraID, err)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
