// Package split decomposes one multi-stream recording container into
// per-device records: it resolves which devices were present for a session,
// parses the container, upgrades legacy stream metadata to the canonical
// layout, and hands each record to the device-file writer, recording
// provenance for every produced file.
package split

import (
	"github.com/neurobooth/xdfsplit/pkg/stream"
	"github.com/neurobooth/xdfsplit/pkg/xdf"
)

// Reserved stream names within a container.
const (
	// MarkerStreamName is the session-wide event-annotation stream shared
	// by every device record.
	MarkerStreamName = "Marker"
	// VideoFilesStreamName is the cross-reference stream mapping device
	// stream names to externally-stored video file names.
	VideoFilesStreamName = "videofiles"
)

// RawDeviceRecord is one physical device's slice of a parsed container.
type RawDeviceRecord struct {
	DeviceID  string
	SensorIDs []string
	// Kind is resolved once from the device id at record construction.
	Kind stream.DeviceKind
	// Device is the device's own stream: samples, timestamps, and the
	// embedded description metadata. Owned by this record.
	Device *xdf.Stream
	// Marker is a shared, read-only back-reference to the session marker
	// stream; nil when the container carries no marker.
	Marker *xdf.Stream
	// VideoFileRefs is the comma-joined list of video file names
	// associated with this device, or empty if none.
	VideoFileRefs string
}
