// Package xdf reads and writes XDF multi-stream recording containers.
//
// An XDF file is the magic bytes "XDF:" followed by a sequence of chunks.
// Each chunk is a variable-length size field (one byte giving the number of
// length bytes, then the little-endian length covering tag and content), a
// uint16 tag, and tag-specific content. Stream metadata is XML; sample data
// is packed binary in the stream's declared channel format.
//
// The reader is deliberately defensive: a recording cut short by a crash is
// a routine input, and truncation must surface as a CorruptError rather
// than as misattributed samples.
package xdf

import "fmt"

const magic = "XDF:"

// Chunk tags.
const (
	tagFileHeader   uint16 = 1
	tagStreamHeader uint16 = 2
	tagSamples      uint16 = 3
	tagClockOffset  uint16 = 4
	tagBoundary     uint16 = 5
	tagStreamFooter uint16 = 6
)

// Format is a stream's declared channel value format.
type Format string

const (
	FormatFloat32  Format = "float32"
	FormatDouble64 Format = "double64"
	FormatInt8     Format = "int8"
	FormatInt16    Format = "int16"
	FormatInt32    Format = "int32"
	FormatInt64    Format = "int64"
	FormatString   Format = "string"
)

// valueSize returns the packed byte width of one value, or 0 for the
// variable-width string format.
func (f Format) valueSize() int {
	switch f {
	case FormatInt8:
		return 1
	case FormatInt16:
		return 2
	case FormatFloat32, FormatInt32:
		return 4
	case FormatDouble64, FormatInt64:
		return 8
	default:
		return 0
	}
}

func (f Format) valid() bool {
	switch f {
	case FormatFloat32, FormatDouble64, FormatInt8, FormatInt16, FormatInt32, FormatInt64, FormatString:
		return true
	}
	return false
}

// CorruptError reports a container that cannot be decoded. The byte offset
// points at the chunk in which decoding failed.
type CorruptError struct {
	Offset int64
	Reason string
	Err    error
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xdf: corrupt container at offset %d: %s: %v", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("xdf: corrupt container at offset %d: %s", e.Offset, e.Reason)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// ClockOffset is one offset measurement between the recording host's stream
// clock and the collecting host's clock.
type ClockOffset struct {
	CollectionTime float64 `json:"collection_time"`
	Offset         float64 `json:"offset"`
}
