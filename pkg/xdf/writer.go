package xdf

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer emits a container chunk by chunk. It is used by the recording
// layer at session time and by tests to synthesize containers.
type Writer struct {
	w           io.Writer
	wroteHeader bool
}

// NewWriter wraps w. WriteHeader must be called before any other chunk.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the magic bytes and the file header chunk.
func (w *Writer) WriteHeader(version string) error {
	if w.wroteHeader {
		return fmt.Errorf("xdf: header already written")
	}
	if _, err := io.WriteString(w.w, magic); err != nil {
		return fmt.Errorf("xdf: write magic: %w", err)
	}
	w.wroteHeader = true
	content := []byte("<info><version>" + version + "</version></info>")
	return w.writeChunk(tagFileHeader, content)
}

// WriteStreamHeader declares a stream. Sample chunks may only reference
// declared stream ids.
func (w *Writer) WriteStreamHeader(id uint32, info StreamInfo) error {
	xmlBytes, err := encodeInfoXML(info)
	if err != nil {
		return err
	}
	content := make([]byte, 4+len(xmlBytes))
	binary.LittleEndian.PutUint32(content[:4], id)
	copy(content[4:], xmlBytes)
	return w.writeChunk(tagStreamHeader, content)
}

// WriteSamples writes one samples chunk of numeric rows. Timestamps are
// written explicitly, one per row; len(timestamps) must equal len(rows).
func (w *Writer) WriteSamples(id uint32, format Format, timestamps []float64, rows [][]float64) error {
	if len(timestamps) != len(rows) {
		return fmt.Errorf("xdf: %d timestamps for %d rows", len(timestamps), len(rows))
	}
	if !format.valid() || format == FormatString {
		return fmt.Errorf("xdf: numeric samples with channel format %q", format)
	}
	var buf []byte
	buf = appendUint32(buf, id)
	buf = appendVarUint(buf, uint64(len(rows)))
	for i, row := range rows {
		buf = append(buf, 8)
		buf = appendFloat64(buf, timestamps[i])
		for _, v := range row {
			buf, _ = appendValue(buf, format, v) // format validated above
		}
	}
	return w.writeChunk(tagSamples, buf)
}

// WriteStringSamples writes one samples chunk of string rows.
func (w *Writer) WriteStringSamples(id uint32, timestamps []float64, rows [][]string) error {
	if len(timestamps) != len(rows) {
		return fmt.Errorf("xdf: %d timestamps for %d rows", len(timestamps), len(rows))
	}
	var buf []byte
	buf = appendUint32(buf, id)
	buf = appendVarUint(buf, uint64(len(rows)))
	for i, row := range rows {
		buf = append(buf, 8)
		buf = appendFloat64(buf, timestamps[i])
		for _, v := range row {
			buf = appendVarUint(buf, uint64(len(v)))
			buf = append(buf, v...)
		}
	}
	return w.writeChunk(tagSamples, buf)
}

// WriteClockOffset records one clock offset measurement for a stream.
func (w *Writer) WriteClockOffset(id uint32, collectionTime, offset float64) error {
	var buf []byte
	buf = appendUint32(buf, id)
	buf = appendFloat64(buf, collectionTime)
	buf = appendFloat64(buf, offset)
	return w.writeChunk(tagClockOffset, buf)
}

// WriteBoundary writes a boundary chunk, a seekable recovery point.
func (w *Writer) WriteBoundary() error {
	return w.writeChunk(tagBoundary, make([]byte, 16))
}

// WriteStreamFooter closes a stream.
func (w *Writer) WriteStreamFooter(id uint32, info StreamInfo) error {
	xmlBytes, err := encodeInfoXML(info)
	if err != nil {
		return err
	}
	content := make([]byte, 4+len(xmlBytes))
	binary.LittleEndian.PutUint32(content[:4], id)
	copy(content[4:], xmlBytes)
	return w.writeChunk(tagStreamFooter, content)
}

func (w *Writer) writeChunk(tag uint16, content []byte) error {
	if !w.wroteHeader {
		return fmt.Errorf("xdf: chunk written before header")
	}
	length := uint64(len(content) + 2)
	var head []byte
	head = appendVarUint(head, length)
	head = binary.LittleEndian.AppendUint16(head, tag)
	if _, err := w.w.Write(head); err != nil {
		return fmt.Errorf("xdf: write chunk: %w", err)
	}
	if _, err := w.w.Write(content); err != nil {
		return fmt.Errorf("xdf: write chunk: %w", err)
	}
	return nil
}

func appendVarUint(buf []byte, v uint64) []byte {
	switch {
	case v < 1<<8:
		return append(buf, 1, byte(v))
	case v < 1<<32:
		buf = append(buf, 4)
		return binary.LittleEndian.AppendUint32(buf, uint32(v))
	default:
		buf = append(buf, 8)
		return binary.LittleEndian.AppendUint64(buf, v)
	}
}

func appendUint32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendFloat64(buf []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
}

func appendValue(buf []byte, format Format, v float64) ([]byte, error) {
	switch format {
	case FormatInt8:
		return append(buf, byte(int8(v))), nil
	case FormatInt16:
		return binary.LittleEndian.AppendUint16(buf, uint16(int16(v))), nil
	case FormatInt32:
		return binary.LittleEndian.AppendUint32(buf, uint32(int32(v))), nil
	case FormatInt64:
		return binary.LittleEndian.AppendUint64(buf, uint64(int64(v))), nil
	case FormatFloat32:
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v))), nil
	case FormatDouble64:
		return appendFloat64(buf, v), nil
	default:
		return buf, fmt.Errorf("xdf: unsupported channel format %q", format)
	}
}
