package stream

import "strings"

// DeviceKind is the closed set of known device classes. The kind is resolved
// once from the device id when a record is constructed, replacing the
// original system's repeated substring matching on stream names.
type DeviceKind string

const (
	KindMarker     DeviceKind = "marker"
	KindEyeTracker DeviceKind = "eye_tracker"
	KindIntelCam   DeviceKind = "intel_camera"
	KindFLIRCam    DeviceKind = "flir_camera"
	KindWebcam     DeviceKind = "webcam"
	KindIPhone     DeviceKind = "iphone"
	KindInertial   DeviceKind = "inertial_sensor"
	KindMicrophone DeviceKind = "microphone"
	KindPointer    DeviceKind = "pointer_device"
	// KindGeneric is the explicit unknown-device case: corrections pass
	// such records through untouched.
	KindGeneric DeviceKind = "generic"
)

// kindPrefixes maps device-id prefixes to kinds, e.g. "Mbient_RH_1" is an
// inertial sensor and "Intel_D455_2" an Intel camera.
var kindPrefixes = []struct {
	prefix string
	kind   DeviceKind
}{
	{"Eyelink", KindEyeTracker},
	{"Intel", KindIntelCam},
	{"FLIR", KindFLIRCam},
	{"IPhone", KindIPhone},
	{"Mbient", KindInertial},
	{"Mic", KindMicrophone},
	{"Mouse", KindPointer},
	{"Webcam", KindWebcam},
}

// KindForDeviceID resolves the device kind from a device id by naming
// convention. Unrecognized ids map to KindGeneric.
func KindForDeviceID(deviceID string) DeviceKind {
	for _, p := range kindPrefixes {
		if strings.HasPrefix(deviceID, p.prefix) {
			return p.kind
		}
	}
	return KindGeneric
}

// ColumnTable is the canonical v1 column layout for a device kind.
type ColumnTable struct {
	Names          []string
	Descriptions   map[string]string
	ContainsChunks bool
}

// CanonicalColumns returns the fixed v1 column table for a kind, or ok=false
// for kinds with no table (generic passthrough). The names are data, not
// logic: downstream analysis keys off these exact strings.
func CanonicalColumns(kind DeviceKind) (ColumnTable, bool) {
	t, ok := canonicalTables[kind]
	return t, ok
}

var canonicalTables = map[DeviceKind]ColumnTable{
	KindMarker: {
		Names: []string{"Marker"},
		Descriptions: map[string]string{
			"Marker": "Marker message string",
		},
	},
	KindIntelCam: {
		Names: []string{"FrameNum", "FrameNum_RealSense", "Time_RealSense", "Time_ACQ"},
		Descriptions: map[string]string{
			"FrameNum":           "Locally-tracked frame number",
			"FrameNum_RealSense": "Camera-tracked frame number",
			"Time_RealSense":     "Camera timestamp (ms)",
			"Time_ACQ":           "Local machine timestamp (s)",
		},
	},
	KindFLIRCam: {
		Names: []string{"FrameNum", "Time_FLIR"},
		Descriptions: map[string]string{
			"FrameNum":  "Frame number",
			"Time_FLIR": "Camera timestamp (ns)",
		},
	},
	KindWebcam: {
		Names: []string{"FrameNum", "Time_ACQ"},
		Descriptions: map[string]string{
			"FrameNum": "Frame number",
			"Time_ACQ": "System timestamp (s)",
		},
	},
	KindIPhone: {
		Names: []string{"FrameNum", "Time_iPhone", "Time_ACQ"},
		Descriptions: map[string]string{
			"FrameNum":    "App-tracked frame number",
			"Time_iPhone": "App timestamp (s)",
			"Time_ACQ":    "Local machine timestamp (s)",
		},
	},
	KindEyeTracker: {
		Names: []string{
			"R_gaze_x", "R_gaze_y", "R_href_x", "R_href_y", "R_raw_x", "R_raw_y", "R_pupil",
			"L_gaze_x", "L_gaze_y", "L_href_x", "L_href_y", "L_raw_x", "L_raw_y", "L_pupil",
			"Target_x", "Target_y", "Target_distance", "PPD_x", "PPD_y", "Time_EDF",
		},
		Descriptions: map[string]string{
			"R_gaze_x":        "Right eye gaze x (screen px)",
			"R_gaze_y":        "Right eye gaze y (screen px)",
			"R_href_x":        "Right eye head-referenced x",
			"R_href_y":        "Right eye head-referenced y",
			"R_raw_x":         "Right eye raw pupil x",
			"R_raw_y":         "Right eye raw pupil y",
			"R_pupil":         "Right eye pupil size",
			"L_gaze_x":        "Left eye gaze x (screen px)",
			"L_gaze_y":        "Left eye gaze y (screen px)",
			"L_href_x":        "Left eye head-referenced x",
			"L_href_y":        "Left eye head-referenced y",
			"L_raw_x":         "Left eye raw pupil x",
			"L_raw_y":         "Left eye raw pupil y",
			"L_pupil":         "Left eye pupil size",
			"Target_x":        "Target sticker x",
			"Target_y":        "Target sticker y",
			"Target_distance": "Target distance from camera",
			"PPD_x":           "Pixels per degree x",
			"PPD_y":           "Pixels per degree y",
			"Time_EDF":        "Tracker timestamp (ms)",
		},
	},
	KindInertial: {
		Names: []string{"time_stamp", "acc_x", "acc_y", "acc_z", "gyr_x", "gyr_y", "gyr_z"},
		Descriptions: map[string]string{
			"time_stamp": "Device timestamp (epoch ms)",
			"acc_x":      "Accelerometer x (g)",
			"acc_y":      "Accelerometer y (g)",
			"acc_z":      "Accelerometer z (g)",
			"gyr_x":      "Gyroscope x (deg/s)",
			"gyr_y":      "Gyroscope y (deg/s)",
			"gyr_z":      "Gyroscope z (deg/s)",
		},
	},
	KindMicrophone: {
		Names: []string{"Amplitude"},
		Descriptions: map[string]string{
			"Amplitude": "Audio amplitude chunk",
		},
		ContainsChunks: true,
	},
	KindPointer: {
		Names: []string{"PosX", "PosY", "MouseState"},
		Descriptions: map[string]string{
			"PosX":       "Cursor x position (px)",
			"PosY":       "Cursor y position (px)",
			"MouseState": "1 on press, -1 on release, 0 on move",
		},
	},
}
