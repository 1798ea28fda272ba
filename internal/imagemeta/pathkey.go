package imagemeta

import "strings"

// PathMetadata is the logical identity derived from a storage key laid out
// as project/country/client/camera/date/.../filename. Fields are pointers
// because uploads from older deployments do not always follow the
// convention; a short key yields absent fields, never an error.
type PathMetadata struct {
	Project  *string
	Country  *string
	Client   *string
	CameraID *string
	Date     *string
	FileName *string
}

// ParsePathKey splits a storage key on "/" and assigns segments
// positionally. The filename is always the last segment.
func ParsePathKey(key string) PathMetadata {
	var meta PathMetadata
	if key == "" {
		return meta
	}

	parts := strings.Split(key, "/")

	assign := func(idx int) *string {
		if idx < len(parts) && parts[idx] != "" {
			v := parts[idx]
			return &v
		}
		return nil
	}

	meta.Project = assign(0)
	meta.Country = assign(1)
	meta.Client = assign(2)
	meta.CameraID = assign(3)
	meta.Date = assign(4)

	if last := parts[len(parts)-1]; last != "" {
		meta.FileName = &last
	}

	return meta
}
