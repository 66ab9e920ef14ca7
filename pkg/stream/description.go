package stream

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Reserved description keys. Every stream written by the acquisition layer
// carries these five entries; downstream parsing keys off them.
const (
	KeyDeviceID           = "device_id"
	KeySensorIDs          = "sensor_ids"
	KeyDataVersion        = "data_version"
	KeyColumnNames        = "column_names"
	KeyColumnDescriptions = "column_descriptions"
)

// Definition is the underlying channel/rate/format definition supplied by a
// device driver. Describe only needs the channel count and the ability to
// append description entries, so it accepts this minimal interface.
type Definition interface {
	ChannelCount() int
	AppendDesc(key, value string)
}

// SchemaMismatchError reports a column list whose length does not match the
// stream's channel count.
type SchemaMismatchError struct {
	ChannelCount int
	ColumnCount  int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("stream: channel count %d and number of column headers %d do not match",
		e.ChannelCount, e.ColumnCount)
}

// MissingColumnDescriptionError reports a column with no description entry.
type MissingColumnDescriptionError struct {
	Column string
}

func (e *MissingColumnDescriptionError) Error() string {
	return fmt.Sprintf("stream: no column description supplied for %q", e.Column)
}

// Description is the standardized metadata envelope attached to every
// outgoing sensor stream.
type Description struct {
	DeviceID           string
	SensorIDs          []string
	DataVersion        DataVersion
	ColumnNames        []string
	ColumnDescriptions map[string]string
	// ContainsChunks relaxes the column/channel count check for streams
	// where a chunk of samples follows a small fixed header (e.g. audio).
	ContainsChunks bool
	// Extra holds free-form string key/value pairs (serial number, frame
	// rate, exposure, ...) attached verbatim.
	Extra map[string]string
}

// Validate checks the construction-time invariants against the channel count
// of the stream definition. It performs no I/O and mutates nothing.
func (d Description) Validate(channelCount int) error {
	if !d.ContainsChunks && channelCount != len(d.ColumnNames) {
		return &SchemaMismatchError{ChannelCount: channelCount, ColumnCount: len(d.ColumnNames)}
	}
	for _, c := range d.ColumnNames {
		if _, ok := d.ColumnDescriptions[c]; !ok {
			return &MissingColumnDescriptionError{Column: c}
		}
	}
	return nil
}

// Describe validates d and appends the standardized description entries to
// def, returning def for chaining. On validation failure def is untouched.
// It must be called once per stream at device-initialization time, before
// any data is streamed.
func Describe[T Definition](def T, d Description) (T, error) {
	if err := d.Validate(def.ChannelCount()); err != nil {
		return def, err
	}

	def.AppendDesc(KeyDeviceID, d.DeviceID)
	def.AppendDesc(KeySensorIDs, EncodeStringList(d.SensorIDs))
	def.AppendDesc(KeyDataVersion, d.DataVersion.String())
	def.AppendDesc(KeyColumnNames, EncodeStringList(d.ColumnNames))
	def.AppendDesc(KeyColumnDescriptions, EncodeStringMap(d.ColumnDescriptions))

	// Deterministic order for the free-form entries.
	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		def.AppendDesc(k, d.Extra[k])
	}
	return def, nil
}

// DecodeError reports a string-encoded description field that could not be
// decoded. A record whose sensor_ids cannot be decoded has unknown routing
// and must not be processed.
type DecodeError struct {
	Field string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("stream: cannot decode %s field %q: %v", e.Field, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeStringList encodes an ordered list field (sensor_ids, column_names)
// for embedding in a stream description.
func EncodeStringList(v []string) string {
	b, _ := json.Marshal(v) // a []string cannot fail to marshal
	return string(b)
}

// DecodeStringList is the inverse of EncodeStringList.
func DecodeStringList(field, value string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, &DecodeError{Field: field, Value: value, Err: err}
	}
	return out, nil
}

// EncodeStringMap encodes a string-keyed map field (column_descriptions).
func EncodeStringMap(v map[string]string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// DecodeStringMap is the inverse of EncodeStringMap.
func DecodeStringMap(field, value string) (map[string]string, error) {
	var out map[string]string
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, &DecodeError{Field: field, Value: value, Err: err}
	}
	return out, nil
}
