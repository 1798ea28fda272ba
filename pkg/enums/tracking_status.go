package enums

// TrackingStatus is the coarse status written to the low-latency tracking
// store polled by uploaders. The uppercase literals match what the upload
// clients already expect.
type TrackingStatus string

const (
	TrackingStatusProcessing        TrackingStatus = "PROCESSING"
	TrackingStatusDetectionComplete TrackingStatus = "DETECTION_COMPLETE"
	TrackingStatusDetectionFailed   TrackingStatus = "DETECTION_FAILED"
)

// String returns the literal string for the status.
func (t TrackingStatus) String() string {
	return string(t)
}
