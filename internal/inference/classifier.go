package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wildscope/wildscope-backend/internal/species"
	pkgerrors "github.com/wildscope/wildscope-backend/pkg/errors"
)

type classifyResponse struct {
	Predictions []classifierPrediction `json:"predictions"`
}

type classifierPrediction struct {
	ScientificName string            `json:"scientific_name" validate:"required"`
	CommonName     string            `json:"common_name"`
	Confidence     float64           `json:"confidence" validate:"gte=0,lte=1"`
	Taxonomy       *species.Taxonomy `json:"taxonomy"`
}

// ClassifierClient calls the species classifier with animal crops.
type ClassifierClient struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
}

func NewClassifierClient(baseURL string, timeout time.Duration) (*ClassifierClient, error) {
	trimmed, err := trimBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &ClassifierClient{
		baseURL:    trimmed,
		httpClient: newHTTPClient(timeout),
		validate:   validator.New(),
	}, nil
}

// Classify returns the classifier's ranked candidates for a single animal
// crop, best first. An empty slice is a valid answer and means the model
// recognized nothing.
func (c *ClassifierClient) Classify(ctx context.Context, crop []byte, topK int) ([]species.Prediction, error) {
	if len(crop) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty crop payload")
	}
	if topK <= 0 {
		topK = 1
	}

	endpoint := fmt.Sprintf("%s/v1/classify?%s", c.baseURL, url.Values{
		"top_k": {strconv.Itoa(topK)},
	}.Encode())

	body, err := postImage(ctx, c.httpClient, endpoint, crop)
	if err != nil {
		return nil, err
	}

	var parsed classifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInference, err, "decoding classifier response")
	}

	preds := make([]species.Prediction, 0, len(parsed.Predictions))
	for i, p := range parsed.Predictions {
		if err := c.validate.Struct(p); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInference, err,
				fmt.Sprintf("classifier returned invalid prediction at index %d", i))
		}
		preds = append(preds, species.Prediction{
			ScientificName: p.ScientificName,
			CommonName:     p.CommonName,
			Confidence:     p.Confidence,
			Taxonomy:       p.Taxonomy,
		})
	}

	return preds, nil
}
