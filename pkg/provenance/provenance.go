// Package provenance records where every device file came from. The log
// is append-only: rows are written once per produced file and never
// updated or deleted, so the full history of a session's splits stays
// auditable.
package provenance

import (
	"context"
	"time"
)

// Entry is one device file's provenance: one row per (device, sensor)
// pair of a split.
type Entry struct {
	SubjectID   string    `json:"subject_id"`
	SessionDate string    `json:"session_date"`
	TaskID      string    `json:"task_id"`
	DeviceID    string    `json:"device_id"`
	SensorID    string    `json:"sensor_id"`
	// TemporalResolution is the effective sampling rate in Hz derived
	// from the recording's timestamps.
	TemporalResolution float64   `json:"temporal_resolution"`
	FileStartTime      time.Time `json:"file_start_time"`
	FileEndTime        time.Time `json:"file_end_time"`
	ContainerPath      string    `json:"container_path"`
	OutputPath         string    `json:"output_path"`
	ContentHash        string    `json:"content_hash"`
	// VideoFileRefs is the comma-joined list of externally stored video
	// files recorded alongside the device, or empty if none.
	VideoFileRefs string `json:"video_file_refs,omitempty"`
	SplitRunID    string `json:"split_run_id"`
}

// Log is an append-only provenance sink.
type Log interface {
	Append(ctx context.Context, e Entry) error
}
