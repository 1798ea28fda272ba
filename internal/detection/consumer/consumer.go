// Package consumer feeds GCS object notifications into the detection
// pipeline. One Pub/Sub message corresponds to one uploaded image.
package consumer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/wildscope/wildscope-backend/internal/detection"
	pkgerrors "github.com/wildscope/wildscope-backend/pkg/errors"
	"github.com/wildscope/wildscope-backend/pkg/logger"
)

const (
	objectFinalizeEvent  = "OBJECT_FINALIZE"
	payloadFormatJSONAPI = "JSON_API_V1"
)

// rasterExtensions lists the image types the pipeline can decode. Cameras
// occasionally upload sidecar files (videos, .dat logs) to the same bucket.
var rasterExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// processor runs the per-image pipeline; tests stub it.
type processor interface {
	ProcessImage(ctx context.Context, bucket, storageKey string) (*detection.Result, error)
}

// Consumer processes GCS OBJECT_FINALIZE notifications from Pub/Sub.
type Consumer struct {
	pipeline     processor
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(pipeline processor, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if subscription == nil {
		return nil, errors.New("image subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		pipeline:     pipeline,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	attrs := parseAttributes(msg.Attributes)
	logCtx := c.logg.WithFields(ctx, c.buildLogFields(msg.ID, attrs, nil))

	if attrs.EventType != objectFinalizeEvent {
		c.logg.Info(logCtx, "skipping non-finalize event")
		return processResult{ack: true}
	}
	if attrs.PayloadFormat != "" && attrs.PayloadFormat != payloadFormatJSONAPI {
		c.logg.Warn(logCtx, "unsupported payload format")
		return processResult{ack: true}
	}

	payload, err := decodePayload(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		return processResult{ack: true}
	}

	var gcs gcsPayload
	if err := json.Unmarshal(payload, &gcs); err != nil {
		fields := c.buildLogFields(msg.ID, attrs, nil)
		fields["payload_preview"] = previewBytes(payload, 800)
		fields["payload_len"] = len(payload)
		c.logg.Error(c.logg.WithFields(ctx, fields), "failed to unmarshal payload", err)
		return processResult{ack: true}
	}

	if strings.TrimSpace(gcs.Name) == "" || strings.TrimSpace(gcs.Bucket) == "" {
		logCtx = c.logg.WithFields(ctx, c.buildLogFields(msg.ID, attrs, &gcs))
		c.logg.Error(logCtx, "payload missing object name or bucket", fmt.Errorf("incomplete payload"))
		return processResult{ack: true}
	}

	if attrs.ObjectID != "" && attrs.ObjectID != gcs.Name {
		c.logg.Warn(logCtx, "attribute object_id differs from payload name")
	}

	logCtx = c.logg.WithFields(ctx, c.buildLogFields(msg.ID, attrs, &gcs))

	if !isRasterImage(gcs.Name) {
		c.logg.Info(logCtx, "skipping non-image object")
		return processResult{ack: true}
	}

	if _, err := c.pipeline.ProcessImage(logCtx, gcs.Bucket, gcs.Name); err != nil {
		c.logg.Error(logCtx, "image processing failed", err)
		if pkgerrors.IsRetryable(err) {
			return processResult{nack: true}
		}
		return processResult{ack: true}
	}

	c.logg.Info(logCtx, "image processed")
	return processResult{ack: true}
}

func (c *Consumer) buildLogFields(messageID string, attrs gcsAttributes, payload *gcsPayload) map[string]any {
	fields := map[string]any{
		"message_id": messageID,
		"event_type": attrs.EventType,
		"bucket":     firstNonEmpty(attrs.BucketID, gcsBucket(payload)),
	}
	if payload != nil {
		fields["storage_key"] = payload.Name
	}
	return fields
}

func isRasterImage(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	_, ok := rasterExtensions[ext]
	return ok
}

func gcsBucket(p *gcsPayload) string {
	if p == nil {
		return ""
	}
	return p.Bucket
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseAttributes(attrs map[string]string) gcsAttributes {
	return gcsAttributes{
		EventType:     attrs["eventType"],
		BucketID:      attrs["bucketId"],
		ObjectID:      attrs["objectId"],
		PayloadFormat: attrs["payloadFormat"],
	}
}

type gcsAttributes struct {
	EventType     string
	BucketID      string
	ObjectID      string
	PayloadFormat string
}

type gcsPayload struct {
	Name        string `json:"name"`
	Bucket      string `json:"bucket"`
	Generation  string `json:"generation"`
	ContentType string `json:"contentType"`
	Size        string `json:"size"`
}

func decodePayload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("payload empty")
	}
	if decoded, err := base64.StdEncoding.DecodeString(string(data)); err == nil {
		return decoded, nil
	}
	return data, nil
}

func previewBytes(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "...(truncated)"
}
