// Package stream defines the metadata contract attached to every sensor
// stream at recording time: the data version, the standardized description
// envelope, and the closed set of known device kinds with their canonical
// column layouts.
package stream

import (
	"fmt"
	"regexp"
)

// DataVersion identifies which column layout a stream's metadata follows.
// Major bumps are breaking, minor bumps are additive.
type DataVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

// CurrentVersion is the canonical layout version written by this code.
var CurrentVersion = DataVersion{Major: 1, Minor: 0}

// String returns the canonical "major.minor" form.
func (v DataVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)$`)

// ParseDataVersion is the exact inverse of String.
func ParseDataVersion(s string) (DataVersion, error) {
	match := versionPattern.FindStringSubmatch(s)
	if match == nil {
		return DataVersion{}, fmt.Errorf("stream: invalid version string: %q", s)
	}
	var v DataVersion
	// The pattern guarantees both groups are digit runs.
	if _, err := fmt.Sscanf(s, "%d.%d", &v.Major, &v.Minor); err != nil {
		return DataVersion{}, fmt.Errorf("stream: invalid version string: %q", s)
	}
	return v, nil
}

// Compare returns -1 if v < other, 0 if equal, 1 if v > other.
// Total ordering: major first, then minor.
func (v DataVersion) Compare(other DataVersion) int {
	if v.Major != other.Major {
		return compareInt(v.Major, other.Major)
	}
	return compareInt(v.Minor, other.Minor)
}

func compareInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
