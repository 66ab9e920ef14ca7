package split

import (
	"github.com/neurobooth/xdfsplit/pkg/stream"
	"github.com/neurobooth/xdfsplit/pkg/xdf"
)

// dataVersionOf reads the stream's recorded layout version. Streams written
// before versioning was introduced carry no entry and count as 0.0; an
// unparsable entry is treated the same way so the stream gets re-stamped
// with the canonical layout.
func dataVersionOf(info xdf.StreamInfo) stream.DataVersion {
	raw, ok := info.DescValue(stream.KeyDataVersion)
	if !ok {
		return stream.DataVersion{}
	}
	v, err := stream.ParseDataVersion(raw)
	if err != nil {
		return stream.DataVersion{}
	}
	return v
}

// correctStream upgrades a legacy stream's column metadata to the canonical
// table for its device kind. Streams already at major version 1 or above,
// and kinds with no canonical table, pass through untouched. The input is
// never mutated: a corrected stream is always a fresh copy.
func correctStream(s *xdf.Stream, kind stream.DeviceKind) *xdf.Stream {
	if s == nil {
		return nil
	}
	table, ok := stream.CanonicalColumns(kind)
	if !ok {
		return s
	}
	if dataVersionOf(s.Info).Major >= stream.CurrentVersion.Major {
		return s
	}
	out := s.Clone()
	out.Info.AppendDesc(stream.KeyDataVersion, stream.CurrentVersion.String())
	out.Info.AppendDesc(stream.KeyColumnNames, stream.EncodeStringList(table.Names))
	out.Info.AppendDesc(stream.KeyColumnDescriptions, stream.EncodeStringMap(table.Descriptions))
	return out
}

// Correct upgrades a record's device stream to the canonical column layout
// for its kind. Idempotent: a corrected record passes through unchanged.
func Correct(rec RawDeviceRecord) RawDeviceRecord {
	rec.Device = correctStream(rec.Device, rec.Kind)
	return rec
}

// CorrectMarker upgrades the shared marker stream. Callers correct the
// marker once per container, not once per device record.
func CorrectMarker(marker *xdf.Stream) *xdf.Stream {
	return correctStream(marker, stream.KindMarker)
}
