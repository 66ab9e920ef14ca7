package xdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildContainer(t *testing.T, build func(w *Writer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader("1.0"))
	build(w)
	return buf.Bytes()
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("NOPE....")))
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, "bad magic")
}

func TestDecodeRejectsTruncatedChunk(t *testing.T) {
	data := buildContainer(t, func(w *Writer) {
		require.NoError(t, w.WriteStreamHeader(1, StreamInfo{
			Name: "Webcam", Channels: 2, ChannelFormat: FormatDouble64,
		}))
	})
	// Chop mid-chunk.
	_, err := Decode(bytes.NewReader(data[:len(data)-3]))
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
}

func TestNumericRoundTrip(t *testing.T) {
	info := StreamInfo{
		Name:          "IntelFrameIndex_cam1",
		Type:          "videostream",
		Channels:      4,
		NominalSRate:  60,
		ChannelFormat: FormatDouble64,
		SourceID:      "outlet-1",
		Desc: map[string]string{
			"device_id":     "Intel_D455_1",
			"sensor_ids":    `["Intel_D455_rgb_1","Intel_D455_depth_1"]`,
			"data_version":  "1.0",
			"serial_number": "909522061",
		},
	}
	rows := [][]float64{
		{1, 100, 0.25, 1000.5},
		{2, 101, 0.26, 1000.6},
		{3, 102, 0.27, 1000.7},
	}
	stamps := []float64{10.0, 10.016, 10.033}

	data := buildContainer(t, func(w *Writer) {
		require.NoError(t, w.WriteStreamHeader(7, info))
		require.NoError(t, w.WriteSamples(7, FormatDouble64, stamps, rows))
		require.NoError(t, w.WriteBoundary())
		require.NoError(t, w.WriteStreamFooter(7, info))
	})

	file, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "1.0", file.Version)
	require.Len(t, file.Streams, 1)

	s := file.Streams[0]
	assert.Equal(t, uint32(7), s.ID)
	assert.Equal(t, info, s.Info)
	assert.Equal(t, rows, s.Values)
	assert.Equal(t, stamps, s.TimeStamps)
	assert.Empty(t, s.Text)
}

func TestStringRoundTrip(t *testing.T) {
	info := StreamInfo{
		Name:          "Marker",
		Type:          "Markers",
		Channels:      1,
		ChannelFormat: FormatString,
	}
	rows := [][]string{{"Task_start"}, {"Trial_1"}, {"Task_end"}}
	stamps := []float64{1.5, 2.5, 9.5}

	data := buildContainer(t, func(w *Writer) {
		require.NoError(t, w.WriteStreamHeader(1, info))
		require.NoError(t, w.WriteStringSamples(1, stamps, rows))
	})

	file, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, file.Streams, 1)
	assert.Equal(t, rows, file.Streams[0].Text)
	assert.Equal(t, stamps, file.Streams[0].TimeStamps)
	assert.Empty(t, file.Streams[0].Values)
}

func TestDecodeIsIdempotent(t *testing.T) {
	info := StreamInfo{Name: "Mouse", Channels: 3, ChannelFormat: FormatInt32}
	data := buildContainer(t, func(w *Writer) {
		require.NoError(t, w.WriteStreamHeader(2, info))
		require.NoError(t, w.WriteSamples(2, FormatInt32,
			[]float64{0.1, 0.2}, [][]float64{{5, 6, 0}, {7, 8, 1}}))
	})

	first, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	second, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClockOffsetsShiftTimestamps(t *testing.T) {
	info := StreamInfo{Name: "mbient_RH", Channels: 7, ChannelFormat: FormatDouble64}
	row := []float64{1000, 0.1, 0.2, 0.3, 1.0, 2.0, 3.0}

	data := buildContainer(t, func(w *Writer) {
		require.NoError(t, w.WriteStreamHeader(3, info))
		require.NoError(t, w.WriteClockOffset(3, 5.0, 0.5))
		require.NoError(t, w.WriteSamples(3, FormatDouble64, []float64{10.0, 11.0}, [][]float64{row, row}))
		require.NoError(t, w.WriteClockOffset(3, 15.0, 0.7))
	})

	file, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	s := file.Streams[0]
	require.Len(t, s.ClockOffsets, 2)
	// Mean offset (0.5+0.7)/2 applied to every timestamp.
	assert.InDelta(t, 10.6, s.TimeStamps[0], 1e-9)
	assert.InDelta(t, 11.6, s.TimeStamps[1], 1e-9)
}

func TestOmittedTimestampsDeduceFromRate(t *testing.T) {
	// Hand-roll a samples chunk with the timestamp flag cleared on the
	// second row; the reader fills in last + 1/nominal_srate.
	info := StreamInfo{Name: "Audio", Channels: 1, NominalSRate: 10, ChannelFormat: FormatDouble64}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader("1.0"))
	require.NoError(t, w.WriteStreamHeader(4, info))

	var content []byte
	content = appendUint32(content, 4)
	content = appendVarUint(content, 2)
	content = append(content, 8)
	content = appendFloat64(content, 20.0)
	content = appendFloat64(content, 0.25) // sample 1 value
	content = append(content, 0)           // no timestamp on sample 2
	content = appendFloat64(content, 0.5)  // sample 2 value
	require.NoError(t, w.writeChunk(tagSamples, content))

	file, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	s := file.Streams[0]
	require.Equal(t, 2, s.SampleCount())
	assert.InDelta(t, 20.0, s.TimeStamps[0], 1e-9)
	assert.InDelta(t, 20.1, s.TimeStamps[1], 1e-9)
}

func TestSamplesForUndeclaredStream(t *testing.T) {
	data := buildContainer(t, func(w *Writer) {
		require.NoError(t, w.WriteSamples(99, FormatDouble64, []float64{1}, [][]float64{{}}))
	})
	_, err := Decode(bytes.NewReader(data))
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, "undeclared stream")
}

func TestDuplicateStreamID(t *testing.T) {
	info := StreamInfo{Name: "A", Channels: 1, ChannelFormat: FormatDouble64}
	data := buildContainer(t, func(w *Writer) {
		require.NoError(t, w.WriteStreamHeader(1, info))
		require.NoError(t, w.WriteStreamHeader(1, info))
	})
	_, err := Decode(bytes.NewReader(data))
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, "duplicate stream id")
}

func TestStreamClone(t *testing.T) {
	s := &Stream{
		ID:         1,
		Info:       StreamInfo{Name: "A", Channels: 1, ChannelFormat: FormatDouble64, Desc: map[string]string{"k": "v"}},
		Values:     [][]float64{{1}},
		TimeStamps: []float64{0.5},
	}
	c := s.Clone()
	require.Equal(t, s, c)

	c.Info.Desc["k"] = "changed"
	c.Values[0][0] = 99
	c.TimeStamps[0] = 99
	assert.Equal(t, "v", s.Info.Desc["k"])
	assert.Equal(t, 1.0, s.Values[0][0])
	assert.Equal(t, 0.5, s.TimeStamps[0])
}
