// Package devicefile writes per-device output files. Each file is a
// canonical-JSON envelope holding one device's stream together with the
// session marker stream, named after the source container plus the device
// and sensor ids so a directory listing reads as a manifest of what has
// already been split.
package devicefile

import (
	"path/filepath"
	"strings"
)

// OutputPath derives the device file path for one device of a container:
// the container path with its extension replaced by
// "-<device_id>-<sensor_1>-...-<sensor_n>.hdf5".
func OutputPath(containerPath, deviceID string, sensorIDs []string) string {
	stem := strings.TrimSuffix(containerPath, filepath.Ext(containerPath))
	parts := append([]string{stem, deviceID}, sensorIDs...)
	return strings.Join(parts, "-") + ".hdf5"
}
