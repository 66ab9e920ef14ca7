package split

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoDevicesFound indicates the device source resolved an empty device
// list for the session. An empty list always aborts the split: silently
// producing zero files would mask a configuration defect.
var ErrNoDevicesFound = errors.New("split: no devices found for session")

// UnparsableNameError indicates a container file name that does not match
// the session naming convention.
type UnparsableNameError struct {
	Name string
}

func (e *UnparsableNameError) Error() string {
	return fmt.Sprintf("split: unparsable container name %q", e.Name)
}

// UnresolvableDeviceIDError indicates a device stream whose embedded
// description could not be resolved to a device and sensor identity.
type UnresolvableDeviceIDError struct {
	StreamName string
	Err        error
}

func (e *UnresolvableDeviceIDError) Error() string {
	return fmt.Sprintf("split: cannot resolve device identity for stream %q: %v", e.StreamName, e.Err)
}

func (e *UnresolvableDeviceIDError) Unwrap() error { return e.Err }

// SplitFailedError aggregates per-device failures when a container yields
// zero successful device outputs.
type SplitFailedError struct {
	// Causes maps device id to the error that sank it.
	Causes map[string]error
}

func (e *SplitFailedError) Error() string {
	ids := make([]string, 0, len(e.Causes))
	for id := range e.Causes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %v", id, e.Causes[id]))
	}
	return fmt.Sprintf("split: all %d devices failed: %s", len(ids), strings.Join(parts, "; "))
}
