package imagemeta

import (
	"bytes"
	"image"
	"strings"
	"time"

	// register decoders for DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// EXIF timestamps use colon-separated dates, not RFC 3339.
const exifTimeLayout = "2006:01:02 15:04:05"

// exposureTags is the allow-list of capture-setting tags kept in the typed
// result. Everything else still lands in Raw for the audit blob.
var exposureTags = map[exif.FieldName]string{
	exif.ExposureTime:    "exposuretime",
	exif.FNumber:         "fnumber",
	exif.ISOSpeedRatings: "iso",
	exif.FocalLength:     "focallength",
}

// Metadata is the typed, partial result of header extraction. Every field
// is optional: camera traps produce images with stripped or mangled EXIF
// blocks and extraction must never fail the pipeline.
type Metadata struct {
	Width       *int
	Height      *int
	Format      *string
	CapturedAt  *time.Time
	CameraMake  *string
	CameraModel *string
	GPS         *GPSPosition
	Exposure    map[string]string
	Raw         map[string]string
}

// ExtractMetadata reads image dimensions and EXIF tags from the raw file
// bytes. Each field is extracted independently; a malformed tag loses that
// field only.
func ExtractMetadata(data []byte) Metadata {
	var meta Metadata

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta.Width = &cfg.Width
		meta.Height = &cfg.Height
		meta.Format = &format
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta
	}

	meta.Raw = collectRaw(x)

	if ts := tagString(x, exif.DateTime); ts != nil {
		if parsed, err := time.Parse(exifTimeLayout, *ts); err == nil {
			meta.CapturedAt = &parsed
		}
	}

	meta.CameraMake = tagString(x, exif.Make)
	meta.CameraModel = tagString(x, exif.Model)
	meta.GPS = extractGPS(x)

	exposure := make(map[string]string)
	for field, key := range exposureTags {
		if v := tagString(x, field); v != nil {
			exposure[key] = *v
		}
	}
	if len(exposure) > 0 {
		meta.Exposure = exposure
	}

	return meta
}

// extractGPS reads each positional component from its own tags. Partial
// fixes are common (altitude without coordinates, or a lone latitude) and
// whatever is present is kept.
func extractGPS(x *exif.Exif) *GPSPosition {
	var tags GPSTags

	if lat, ok := tagRationals(x, exif.GPSLatitude); ok {
		tags.Lat = &lat
		if ref := tagString(x, exif.GPSLatitudeRef); ref != nil {
			tags.LatRef = *ref
		}
	}
	if lon, ok := tagRationals(x, exif.GPSLongitude); ok {
		tags.Lon = &lon
		if ref := tagString(x, exif.GPSLongitudeRef); ref != nil {
			tags.LonRef = *ref
		}
	}

	if tag, err := x.Get(exif.GPSAltitude); err == nil {
		if num, den, err := tag.Rat2(0); err == nil {
			tags.Altitude = &Rational{Num: num, Den: den}
		}
	}
	if tag, err := x.Get(exif.GPSAltitudeRef); err == nil {
		if ref, err := tag.Int(0); err == nil {
			tags.AltitudeRef = &ref
		}
	}

	pos := tags.Convert()
	if pos.Empty() {
		return nil
	}
	return &pos
}

func tagString(x *exif.Exif, field exif.FieldName) *string {
	tag, err := x.Get(field)
	if err != nil {
		return nil
	}
	v, err := tag.StringVal()
	if err != nil {
		// non-ASCII tags still stringify usefully
		v = strings.Trim(tag.String(), `"`)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func tagRationals(x *exif.Exif, field exif.FieldName) ([3]Rational, bool) {
	var out [3]Rational
	tag, err := x.Get(field)
	if err != nil {
		return out, false
	}
	for i := 0; i < 3; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return out, false
		}
		out[i] = Rational{Num: num, Den: den}
	}
	return out, true
}

type rawCollector struct {
	tags map[string]string
}

func (c *rawCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c.tags[string(name)] = strings.Trim(tag.String(), `"`)
	return nil
}

func collectRaw(x *exif.Exif) map[string]string {
	c := &rawCollector{tags: make(map[string]string)}
	if err := x.Walk(c); err != nil || len(c.tags) == 0 {
		return nil
	}
	return c.tags
}
