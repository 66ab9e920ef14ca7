package xdf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Stream is one fully-decoded stream of a container: its metadata header,
// its sample rows, and the parallel timestamp sequence (one entry per row,
// already corrected by the recorded clock offsets).
type Stream struct {
	ID           uint32            `json:"-"`
	Info         StreamInfo        `json:"info"`
	Values       [][]float64       `json:"time_series,omitempty"`
	Text         [][]string        `json:"text_series,omitempty"`
	TimeStamps   []float64         `json:"time_stamps"`
	ClockOffsets []ClockOffset     `json:"-"`
}

// SampleCount returns the number of decoded rows.
func (s *Stream) SampleCount() int {
	if s.Info.ChannelFormat == FormatString {
		return len(s.Text)
	}
	return len(s.Values)
}

// Clone returns a deep copy of the stream.
func (s *Stream) Clone() *Stream {
	out := &Stream{ID: s.ID, Info: s.Info.Clone()}
	out.TimeStamps = append([]float64(nil), s.TimeStamps...)
	out.ClockOffsets = append([]ClockOffset(nil), s.ClockOffsets...)
	if s.Values != nil {
		out.Values = make([][]float64, len(s.Values))
		for i, row := range s.Values {
			out.Values[i] = append([]float64(nil), row...)
		}
	}
	if s.Text != nil {
		out.Text = make([][]string, len(s.Text))
		for i, row := range s.Text {
			out.Text[i] = append([]string(nil), row...)
		}
	}
	return out
}

// File is a decoded container.
type File struct {
	Version string
	Streams []*Stream
}

// StreamByName returns the first stream with the given name.
func (f *File) StreamByName(name string) (*Stream, bool) {
	for _, s := range f.Streams {
		if s.Info.Name == name {
			return s, true
		}
	}
	return nil, false
}

// maxChunkSize bounds a single chunk so a corrupted length field cannot
// trigger a multi-gigabyte allocation.
const maxChunkSize = 1 << 30

type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (c *countingReader) ReadFull(p []byte) error {
	n, err := io.ReadFull(c.r, p)
	c.n += int64(n)
	return err
}

// DecodeFile opens and decodes a container file. The file is opened
// read-only and never mutated.
func DecodeFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("xdf: open container: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	return Decode(f)
}

// Decode reads a complete container. Decoding the same bytes twice yields
// value-equal results; the reader keeps no state between calls.
func Decode(r io.Reader) (*File, error) {
	cr := &countingReader{r: bufio.NewReader(r)}

	head := make([]byte, len(magic))
	if err := cr.ReadFull(head); err != nil {
		return nil, &CorruptError{Offset: 0, Reason: "missing magic", Err: err}
	}
	if string(head) != magic {
		return nil, &CorruptError{Offset: 0, Reason: fmt.Sprintf("bad magic %q", head)}
	}

	file := &File{}
	streams := make(map[uint32]*Stream)

	for {
		chunkStart := cr.n
		length, err := readVarUint(cr)
		if err != nil {
			if errors.Is(err, io.EOF) && cr.n == chunkStart {
				break // clean end at a chunk boundary
			}
			return nil, &CorruptError{Offset: chunkStart, Reason: "chunk length", Err: err}
		}
		if length < 2 || length > maxChunkSize {
			return nil, &CorruptError{Offset: chunkStart, Reason: fmt.Sprintf("implausible chunk length %d", length)}
		}

		content := make([]byte, length-2)
		var tag uint16
		tagBytes := make([]byte, 2)
		if err := cr.ReadFull(tagBytes); err != nil {
			return nil, &CorruptError{Offset: chunkStart, Reason: "chunk tag", Err: err}
		}
		tag = binary.LittleEndian.Uint16(tagBytes)
		if err := cr.ReadFull(content); err != nil {
			return nil, &CorruptError{Offset: chunkStart, Reason: "truncated chunk", Err: err}
		}

		if err := decodeChunk(file, streams, tag, content); err != nil {
			var corrupt *CorruptError
			if errors.As(err, &corrupt) {
				corrupt.Offset = chunkStart
				return nil, corrupt
			}
			return nil, &CorruptError{Offset: chunkStart, Reason: "chunk content", Err: err}
		}
	}

	applyClockOffsets(file)
	return file, nil
}

func decodeChunk(file *File, streams map[uint32]*Stream, tag uint16, content []byte) error {
	switch tag {
	case tagFileHeader:
		version, err := decodeFileHeader(content)
		if err != nil {
			return err
		}
		file.Version = version
		return nil
	case tagStreamHeader:
		return decodeStreamHeader(file, streams, content)
	case tagSamples:
		return decodeSamples(streams, content)
	case tagClockOffset:
		return decodeClockOffset(streams, content)
	case tagBoundary, tagStreamFooter:
		return nil // boundary markers and footers carry nothing we need
	default:
		return nil // unknown chunk types are skipped, not fatal
	}
}

type xmlFileHeader struct {
	Version string `xml:"version"`
}

func decodeFileHeader(content []byte) (string, error) {
	var hdr xmlFileHeader
	if err := xml.Unmarshal(content, &hdr); err != nil {
		return "", &CorruptError{Reason: "file header XML", Err: err}
	}
	return hdr.Version, nil
}

func decodeStreamHeader(file *File, streams map[uint32]*Stream, content []byte) error {
	if len(content) < 4 {
		return &CorruptError{Reason: "short stream header"}
	}
	id := binary.LittleEndian.Uint32(content[:4])
	if _, exists := streams[id]; exists {
		return &CorruptError{Reason: fmt.Sprintf("duplicate stream id %d", id)}
	}
	info, err := decodeInfoXML(content[4:])
	if err != nil {
		return &CorruptError{Reason: "stream header XML", Err: err}
	}
	s := &Stream{ID: id, Info: info}
	streams[id] = s
	file.Streams = append(file.Streams, s)
	return nil
}

func decodeSamples(streams map[uint32]*Stream, content []byte) error {
	br := bytes.NewReader(content)
	var idBytes [4]byte
	if _, err := io.ReadFull(br, idBytes[:]); err != nil {
		return &CorruptError{Reason: "samples stream id", Err: err}
	}
	id := binary.LittleEndian.Uint32(idBytes[:])
	s, ok := streams[id]
	if !ok {
		return &CorruptError{Reason: fmt.Sprintf("samples for undeclared stream id %d", id)}
	}

	count, err := readVarUintFrom(br)
	if err != nil {
		return &CorruptError{Reason: "sample count", Err: err}
	}
	if count > maxChunkSize {
		return &CorruptError{Reason: fmt.Sprintf("implausible sample count %d", count)}
	}

	delta := 0.0
	if s.Info.NominalSRate > 0 {
		delta = 1.0 / s.Info.NominalSRate
	}

	for i := uint64(0); i < count; i++ {
		tsBytes, err := br.ReadByte()
		if err != nil {
			return &CorruptError{Reason: "timestamp flag", Err: err}
		}
		var ts float64
		switch tsBytes {
		case 0:
			if n := len(s.TimeStamps); n > 0 {
				ts = s.TimeStamps[n-1] + delta
			}
		case 8:
			ts, err = readFloat64(br)
			if err != nil {
				return &CorruptError{Reason: "timestamp value", Err: err}
			}
		default:
			return &CorruptError{Reason: fmt.Sprintf("unexpected timestamp width %d", tsBytes)}
		}

		if s.Info.ChannelFormat == FormatString {
			row := make([]string, s.Info.Channels)
			for c := range row {
				row[c], err = readVarString(br)
				if err != nil {
					return &CorruptError{Reason: "string sample value", Err: err}
				}
			}
			s.Text = append(s.Text, row)
		} else {
			row := make([]float64, s.Info.Channels)
			for c := range row {
				row[c], err = readValue(br, s.Info.ChannelFormat)
				if err != nil {
					return &CorruptError{Reason: "sample value", Err: err}
				}
			}
			s.Values = append(s.Values, row)
		}
		s.TimeStamps = append(s.TimeStamps, ts)
	}
	return nil
}

func decodeClockOffset(streams map[uint32]*Stream, content []byte) error {
	if len(content) != 4+8+8 {
		return &CorruptError{Reason: "short clock offset chunk"}
	}
	id := binary.LittleEndian.Uint32(content[:4])
	s, ok := streams[id]
	if !ok {
		return &CorruptError{Reason: fmt.Sprintf("clock offset for undeclared stream id %d", id)}
	}
	s.ClockOffsets = append(s.ClockOffsets, ClockOffset{
		CollectionTime: math.Float64frombits(binary.LittleEndian.Uint64(content[4:12])),
		Offset:         math.Float64frombits(binary.LittleEndian.Uint64(content[12:20])),
	})
	return nil
}

// applyClockOffsets shifts each stream's timestamps by the mean of its
// recorded offset measurements, mapping them onto the collecting host's
// clock. Streams without offset measurements are left untouched.
func applyClockOffsets(file *File) {
	for _, s := range file.Streams {
		if len(s.ClockOffsets) == 0 {
			continue
		}
		sum := 0.0
		for _, o := range s.ClockOffsets {
			sum += o.Offset
		}
		mean := sum / float64(len(s.ClockOffsets))
		for i := range s.TimeStamps {
			s.TimeStamps[i] += mean
		}
	}
}

// ---- low-level readers ----

type byteFullReader interface {
	io.ByteReader
	io.Reader
}

func readVarUint(cr *countingReader) (uint64, error) {
	n, err := cr.ReadByte()
	if err != nil {
		return 0, err
	}
	buf := make([]byte, n)
	if err := cr.ReadFull(buf); err != nil {
		return 0, err
	}
	return decodeUint(n, buf)
}

func readVarUintFrom(br byteFullReader) (uint64, error) {
	n, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return 0, err
	}
	return decodeUint(n, buf)
}

func decodeUint(width byte, buf []byte) (uint64, error) {
	switch width {
	case 1:
		return uint64(buf[0]), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf)), nil
	case 8:
		return binary.LittleEndian.Uint64(buf), nil
	default:
		return 0, fmt.Errorf("unsupported length width %d", width)
	}
}

func readFloat64(br byteFullReader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

func readValue(br byteFullReader, format Format) (float64, error) {
	size := format.valueSize()
	buf := make([]byte, size)
	if _, err := io.ReadFull(br, buf); err != nil {
		return 0, err
	}
	switch format {
	case FormatInt8:
		return float64(int8(buf[0])), nil
	case FormatInt16:
		return float64(int16(binary.LittleEndian.Uint16(buf))), nil
	case FormatInt32:
		return float64(int32(binary.LittleEndian.Uint32(buf))), nil
	case FormatInt64:
		return float64(int64(binary.LittleEndian.Uint64(buf))), nil
	case FormatFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))), nil
	case FormatDouble64:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
	default:
		return 0, fmt.Errorf("unsupported channel format %q", format)
	}
}

func readVarString(br byteFullReader) (string, error) {
	n, err := readVarUintFrom(br)
	if err != nil {
		return "", err
	}
	if n > maxChunkSize {
		return "", fmt.Errorf("implausible string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
