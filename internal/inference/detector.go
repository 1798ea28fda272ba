package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wildscope/wildscope-backend/pkg/enums"
	pkgerrors "github.com/wildscope/wildscope-backend/pkg/errors"
)

// Detection is one detector box. Box holds pixel corner coordinates in
// x1, y1, x2, y2 order; the detector reports raw numeric categories which
// are mapped to names before use.
type Detection struct {
	Category   int        `json:"category"`
	Confidence float64    `json:"confidence" validate:"gte=0,lte=1"`
	Box        [4]float64 `json:"box" validate:"required"`
}

// CategoryName maps the detector's numeric category to a stored category,
// degrading unknown numbers instead of rejecting them.
func (d Detection) CategoryName() enums.DetectionCategory {
	return enums.DetectionCategoryFromNumber(d.Category)
}

type detectResponse struct {
	Detections []Detection `json:"detections"`
}

// DetectorClient calls the animal/person/vehicle detector service.
type DetectorClient struct {
	baseURL    string
	threshold  float64
	httpClient *http.Client
	validate   *validator.Validate
}

func NewDetectorClient(baseURL string, threshold float64, timeout time.Duration) (*DetectorClient, error) {
	trimmed, err := trimBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &DetectorClient{
		baseURL:    trimmed,
		threshold:  threshold,
		httpClient: newHTTPClient(timeout),
		validate:   validator.New(),
	}, nil
}

// Detect runs the detector over the full frame and returns every box at or
// above the configured confidence threshold.
func (c *DetectorClient) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	if len(image) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty image payload")
	}

	endpoint := fmt.Sprintf("%s/v1/detect?%s", c.baseURL, url.Values{
		"threshold": {fmt.Sprintf("%g", c.threshold)},
	}.Encode())

	body, err := postImage(ctx, c.httpClient, endpoint, image)
	if err != nil {
		return nil, err
	}

	var parsed detectResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInference, err, "decoding detector response")
	}

	for i, det := range parsed.Detections {
		if err := c.validate.Struct(det); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInference, err,
				fmt.Sprintf("detector returned invalid detection at index %d", i))
		}
	}

	return parsed.Detections, nil
}
