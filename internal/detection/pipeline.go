// Package detection runs the per-image pipeline: fetch the object, extract
// metadata, detect, classify animal crops, and persist results to the
// durable store while mirroring coarse status to the tracking store.
package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/wildscope/wildscope-backend/internal/geometry"
	"github.com/wildscope/wildscope-backend/internal/imagemeta"
	"github.com/wildscope/wildscope-backend/internal/inference"
	"github.com/wildscope/wildscope-backend/internal/quality"
	"github.com/wildscope/wildscope-backend/internal/species"
	"github.com/wildscope/wildscope-backend/pkg/db/models"
	"github.com/wildscope/wildscope-backend/pkg/enums"
	pkgerrors "github.com/wildscope/wildscope-backend/pkg/errors"
	"github.com/wildscope/wildscope-backend/pkg/logger"
	"github.com/wildscope/wildscope-backend/pkg/metrics"
)

// ObjectFetcher downloads the raw image bytes from object storage.
type ObjectFetcher interface {
	DownloadObject(ctx context.Context, bucket, object string) ([]byte, error)
}

// Detector locates objects in a full frame.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]inference.Detection, error)
}

// Classifier assigns species candidates to an animal crop.
type Classifier interface {
	Classify(ctx context.Context, crop []byte, topK int) ([]species.Prediction, error)
}

// Tracker mirrors coarse status to the low-latency store.
type Tracker interface {
	PutStatus(ctx context.Context, storageKey string, status enums.TrackingStatus, extra map[string]any) error
}

// repository is the slice of Repository the pipeline uses; tests stub it.
type repository interface {
	UpsertImage(ctx context.Context, img *models.Image) (uuid.UUID, error)
	UpdateImageStatus(ctx context.Context, imageID uuid.UUID, status enums.ProcessingStatus, errorMessage *string) error
	InsertDetection(ctx context.Context, det *models.Detection) (uuid.UUID, error)
	DeleteDetectionsByImage(ctx context.Context, imageID uuid.UUID) error
	GetOrCreateSpecies(ctx context.Context, scientificName string, commonName *string, taxonomy *species.Taxonomy) (uuid.UUID, error)
	GetOrCreateLocation(ctx context.Context, cameraID string, lat, lon, alt *float64, country *string) (uuid.UUID, error)
}

// Config carries the pipeline's scoring and cropping knobs.
type Config struct {
	ClassifierThreshold float64
	TopK                int
	ReviewCutoff        float64
	SharpnessScale      float64
	CropPadding         float64
	CropJPEGQuality     int
}

// Result summarizes one completed run; it is also what lands in the
// tracking entry for the uploader to read.
type Result struct {
	ImageID        uuid.UUID
	DetectionCount int
	HasAnimals     bool
}

// Pipeline orchestrates one image end to end. All collaborators are
// injected; the pipeline owns no connections of its own.
type Pipeline struct {
	fetcher    ObjectFetcher
	detector   Detector
	classifier Classifier
	repo       repository
	tracker    Tracker
	scorer     *quality.Scorer
	logg       *logger.Logger
	metrics    *metrics.PipelineMetrics
	cfg        Config
}

func NewPipeline(
	fetcher ObjectFetcher,
	detector Detector,
	classifier Classifier,
	repo repository,
	tracker Tracker,
	logg *logger.Logger,
	pipelineMetrics *metrics.PipelineMetrics,
	cfg Config,
) (*Pipeline, error) {
	switch {
	case fetcher == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pipeline requires an object fetcher")
	case detector == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pipeline requires a detector")
	case classifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pipeline requires a classifier")
	case repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pipeline requires a repository")
	case tracker == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pipeline requires a tracker")
	case logg == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pipeline requires a logger")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 1
	}
	if cfg.CropJPEGQuality <= 0 || cfg.CropJPEGQuality > 100 {
		cfg.CropJPEGQuality = 95
	}
	return &Pipeline{
		fetcher:    fetcher,
		detector:   detector,
		classifier: classifier,
		repo:       repo,
		tracker:    tracker,
		scorer:     quality.NewScorer(cfg.SharpnessScale),
		logg:       logg,
		metrics:    pipelineMetrics,
		cfg:        cfg,
	}, nil
}

// ProcessImage runs the full pipeline for one storage object. The returned
// error is non-nil only for failed runs; the caller decides redelivery
// based on its retryability.
func (p *Pipeline) ProcessImage(ctx context.Context, bucket, storageKey string) (*Result, error) {
	start := time.Now()
	ctx = p.logg.WithStorageKey(ctx, storageKey)
	p.logg.Info(ctx, "processing image")

	p.trackStatus(ctx, storageKey, enums.TrackingStatusProcessing, nil)

	data, err := p.fetcher.DownloadObject(ctx, bucket, storageKey)
	if err != nil {
		p.finishFailed(ctx, storageKey, nil, start, err)
		return nil, fmt.Errorf("downloading %s: %w", storageKey, err)
	}

	img := p.buildImageRecord(ctx, bucket, storageKey, data)

	imageID, err := p.repo.UpsertImage(ctx, img)
	if err != nil {
		p.finishFailed(ctx, storageKey, nil, start, err)
		return nil, fmt.Errorf("recording image %s: %w", storageKey, err)
	}
	ctx = p.logg.WithImageID(ctx, imageID.String())

	// a redelivered message reprocesses from scratch, so drop boxes left
	// over from the previous attempt
	if err := p.repo.DeleteDetectionsByImage(ctx, imageID); err != nil {
		p.finishFailed(ctx, storageKey, &imageID, start, err)
		return nil, fmt.Errorf("clearing stale detections for %s: %w", storageKey, err)
	}

	detections, err := p.detector.Detect(ctx, data)
	if err != nil {
		p.finishFailed(ctx, storageKey, &imageID, start, err)
		return nil, fmt.Errorf("detecting objects in %s: %w", storageKey, err)
	}

	decoded, decodeErr := imaging.Decode(bytes.NewReader(data))
	if decodeErr != nil {
		decoded = nil
	}

	result := Result{ImageID: imageID}
	var runErr error
	for _, det := range detections {
		if err := ctx.Err(); err != nil {
			runErr = multierr.Append(runErr, err)
			break
		}
		row, err := p.processDetection(ctx, decoded, img, imageID, det)
		if err != nil {
			runErr = multierr.Append(runErr, err)
			continue
		}
		result.DetectionCount++
		if row.Category == enums.DetectionCategoryAnimal {
			result.HasAnimals = true
		}
		p.metrics.IncDetection(row.Category.String())
	}

	if runErr != nil {
		p.finishFailed(ctx, storageKey, &imageID, start, runErr)
		return nil, fmt.Errorf("processing detections for %s: %w", storageKey, runErr)
	}

	if err := p.repo.UpdateImageStatus(ctx, imageID, enums.ProcessingStatusCompleted, nil); err != nil {
		p.finishFailed(ctx, storageKey, &imageID, start, err)
		return nil, fmt.Errorf("completing image %s: %w", storageKey, err)
	}

	p.trackStatus(ctx, storageKey, enums.TrackingStatusDetectionComplete, map[string]any{
		"image_id":        imageID.String(),
		"detection_count": result.DetectionCount,
		"has_animals":     result.HasAnimals,
	})

	p.metrics.IncImage("completed")
	p.metrics.ObserveDuration("completed", time.Since(start))
	p.logg.Info(ctx, fmt.Sprintf("image processed with %d detections", result.DetectionCount))

	return &result, nil
}

// buildImageRecord assembles the durable row from path, content and EXIF
// metadata. Extraction is best effort and cannot fail the run.
func (p *Pipeline) buildImageRecord(ctx context.Context, bucket, storageKey string, data []byte) *models.Image {
	pathMeta := imagemeta.ParsePathKey(storageKey)
	meta := imagemeta.ExtractMetadata(data)
	scores := p.scorer.Score(data)

	img := &models.Image{
		StorageBucket:    bucket,
		StorageKey:       storageKey,
		FileName:         pathMeta.FileName,
		FileSize:         int64(len(data)),
		FileHash:         imagemeta.HashContent(data),
		Width:            meta.Width,
		Height:           meta.Height,
		Format:           meta.Format,
		CameraID:         pathMeta.CameraID,
		ProjectName:      pathMeta.Project,
		Client:           pathMeta.Client,
		Country:          pathMeta.Country,
		CapturedAt:       meta.CapturedAt,
		CameraMake:       meta.CameraMake,
		CameraModel:      meta.CameraModel,
		BrightnessScore:  &scores.Brightness,
		SharpnessScore:   &scores.Sharpness,
		QualityScore:     &scores.Overall,
		ProcessingStatus: enums.ProcessingStatusProcessing,
	}

	if meta.GPS != nil {
		img.GPSLatitude = meta.GPS.Latitude
		img.GPSLongitude = meta.GPS.Longitude
		img.GPSAltitude = meta.GPS.Altitude
	}

	if len(meta.Raw) > 0 {
		if raw, err := json.Marshal(meta.Raw); err == nil {
			s := string(raw)
			img.ExifData = &s
		}
	}

	// a location row needs a full fix; altitude-only or single-coordinate
	// blocks still land on the image columns above
	if pathMeta.CameraID != nil && meta.GPS != nil && meta.GPS.Latitude != nil && meta.GPS.Longitude != nil {
		locationID, err := p.repo.GetOrCreateLocation(ctx, *pathMeta.CameraID,
			meta.GPS.Latitude, meta.GPS.Longitude, meta.GPS.Altitude, pathMeta.Country)
		if err != nil {
			p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "location lookup failed, continuing without one")
		} else {
			img.LocationID = &locationID
		}
	}

	return img
}

// processDetection normalizes, classifies (animals only) and persists one
// detector box. Returned errors fail the whole run after the remaining
// boxes have been attempted.
func (p *Pipeline) processDetection(ctx context.Context, decoded image.Image, img *models.Image, imageID uuid.UUID, det inference.Detection) (*models.Detection, error) {
	category := det.CategoryName()
	needsReview := det.Confidence < p.cfg.ReviewCutoff

	var width, height int
	if img.Width != nil && img.Height != nil {
		width, height = *img.Width, *img.Height
	} else if decoded != nil {
		bounds := decoded.Bounds()
		width, height = bounds.Dx(), bounds.Dy()
	}

	box := geometry.Normalize(geometry.PixelBox{
		X1: det.Box[0], Y1: det.Box[1], X2: det.Box[2], Y2: det.Box[3],
	}, width, height)
	if width == 0 || height == 0 {
		needsReview = true
	}

	row := &models.Detection{
		ImageID:            imageID,
		Category:           category,
		BboxX:              box.X,
		BboxY:              box.Y,
		BboxWidth:          box.Width,
		BboxHeight:         box.Height,
		DetectorConfidence: det.Confidence,
	}

	if category == enums.DetectionCategoryAnimal {
		agg, err := p.classifyCrop(ctx, decoded, width, height, box, det.Confidence)
		if err != nil {
			return nil, err
		}
		needsReview = needsReview || agg.NeedsReview
		if agg.Best != nil {
			speciesID, err := p.repo.GetOrCreateSpecies(ctx,
				agg.Best.ScientificName, optional(agg.Best.CommonName), agg.Best.Taxonomy)
			if err != nil {
				return nil, err
			}
			row.SpeciesID = &speciesID
			row.ClassifierConfidence = &agg.Best.Confidence
			row.CombinedConfidence = agg.CombinedConfidence
		}
		if len(agg.Alternatives) > 0 {
			if topK, err := json.Marshal(agg.Alternatives); err == nil {
				s := string(topK)
				row.SpeciesTopK = &s
			}
		}
	}

	row.NeedsReview = needsReview

	if _, err := p.repo.InsertDetection(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// classifyCrop cuts the padded box from the frame and runs the classifier.
// A degenerate crop or an undecodable frame yields an empty aggregation
// flagged for review instead of an error.
func (p *Pipeline) classifyCrop(ctx context.Context, decoded image.Image, width, height int, box geometry.NormalizedBox, detectorConfidence float64) (species.Result, error) {
	if decoded == nil || width == 0 || height == 0 {
		return species.Result{NeedsReview: true}, nil
	}

	rect := geometry.PaddedCrop(box, width, height, p.cfg.CropPadding)
	if rect.Empty() {
		return species.Result{NeedsReview: true}, nil
	}

	crop := imaging.Crop(decoded, rect)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, crop, imaging.JPEG, imaging.JPEGQuality(p.cfg.CropJPEGQuality)); err != nil {
		return species.Result{NeedsReview: true}, nil
	}

	preds, err := p.classifier.Classify(ctx, buf.Bytes(), p.cfg.TopK)
	if err != nil {
		return species.Result{}, err
	}

	return species.Aggregate(preds, p.cfg.ClassifierThreshold, detectorConfidence, p.cfg.TopK), nil
}

// finishFailed records the failure in both stores. When no image row exists
// yet only the tracking store can be updated.
func (p *Pipeline) finishFailed(ctx context.Context, storageKey string, imageID *uuid.UUID, start time.Time, cause error) {
	msg := cause.Error()

	if imageID != nil {
		if err := p.repo.UpdateImageStatus(ctx, *imageID, enums.ProcessingStatusFailed, &msg); err != nil {
			p.logg.Error(ctx, "recording image failure", err)
		}
	}

	p.trackStatus(ctx, storageKey, enums.TrackingStatusDetectionFailed, map[string]any{
		"error_message": msg,
	})

	p.metrics.IncImage("failed")
	p.metrics.ObserveDuration("failed", time.Since(start))
	p.logg.Error(ctx, "image processing failed", cause)
}

// trackStatus mirrors status to the tracking store. Failures are logged,
// not propagated: the durable store is the system of record and a stale
// tracking entry self-heals on the next attempt.
func (p *Pipeline) trackStatus(ctx context.Context, storageKey string, status enums.TrackingStatus, extra map[string]any) {
	if err := p.tracker.PutStatus(ctx, storageKey, status, extra); err != nil {
		p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "tracking store update failed")
	}
}
