package split

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurobooth/xdfsplit/pkg/stream"
	"github.com/neurobooth/xdfsplit/pkg/xdf"
)

// writeContainer builds a container on disk for parser and orchestrator
// tests.
func writeContainer(t *testing.T, path string, build func(w *xdf.Writer)) string {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := xdf.NewWriter(f)
	require.NoError(t, w.WriteHeader("1.0"))
	build(w)
	require.NoError(t, f.Close())
	return path
}

func deviceInfo(name, deviceID string, sensorIDs []string, channels int, srate float64) xdf.StreamInfo {
	return xdf.StreamInfo{
		Name:          name,
		Type:          "acquisition",
		Channels:      channels,
		NominalSRate:  srate,
		ChannelFormat: xdf.FormatDouble64,
		Desc: map[string]string{
			stream.KeyDeviceID:  deviceID,
			stream.KeySensorIDs: stream.EncodeStringList(sensorIDs),
		},
	}
}

func markerInfo() xdf.StreamInfo {
	return xdf.StreamInfo{
		Name:          MarkerStreamName,
		Type:          "Markers",
		Channels:      1,
		ChannelFormat: xdf.FormatString,
	}
}

func videoFilesInfo() xdf.StreamInfo {
	return xdf.StreamInfo{
		Name:          VideoFilesStreamName,
		Type:          "videofiles",
		Channels:      1,
		ChannelFormat: xdf.FormatString,
	}
}

func TestParserSplitsStreamsIntoRecords(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, filepath.Join(dir, "session.xdf"), func(w *xdf.Writer) {
		require.NoError(t, w.WriteStreamHeader(1, markerInfo()))
		require.NoError(t, w.WriteStreamHeader(2, deviceInfo("IntelFrameIndex_1", "Intel_D455_1", []string{"Intel_D455_rgb_1"}, 4, 90)))
		require.NoError(t, w.WriteStreamHeader(3, deviceInfo("CamX_Frames", "CamX_1", []string{"CamX_rgb_1"}, 1, 30)))
		require.NoError(t, w.WriteStreamHeader(4, videoFilesInfo()))

		require.NoError(t, w.WriteStringSamples(1, []float64{10.0}, [][]string{{"Task_start"}}))
		require.NoError(t, w.WriteSamples(2, xdf.FormatDouble64, []float64{10.0, 10.1}, [][]float64{{1, 1, 10.0, 10.01}, {2, 2, 10.1, 10.11}}))
		require.NoError(t, w.WriteSamples(3, xdf.FormatDouble64, []float64{10.0, 10.2}, [][]float64{{1}, {2}}))
		require.NoError(t, w.WriteStringSamples(4, []float64{11.0, 11.1, 11.2}, [][]string{
			{"IntelFrameIndex_1,clip1.bag"},
			{"IntelFrameIndex_1,clip2.bag"},
			{",stray.mov"},
		}))
	})

	records, err := NewParser(nil).Parse(path, []string{"Intel_D455_1", "CamX_1", "Mbient_LH_1"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	byDevice := map[string]RawDeviceRecord{}
	for _, rec := range records {
		byDevice[rec.DeviceID] = rec
	}

	intel := byDevice["Intel_D455_1"]
	assert.Equal(t, []string{"Intel_D455_rgb_1"}, intel.SensorIDs)
	assert.Equal(t, stream.KindIntelCam, intel.Kind)
	assert.Equal(t, 2, intel.Device.SampleCount())
	assert.Equal(t, "clip1.bag,clip2.bag", intel.VideoFileRefs)
	require.NotNil(t, intel.Marker)
	assert.Equal(t, [][]string{{"Task_start"}}, intel.Marker.Text)

	cam := byDevice["CamX_1"]
	assert.Equal(t, stream.KindGeneric, cam.Kind)
	assert.Empty(t, cam.VideoFileRefs)
	assert.Same(t, intel.Marker, cam.Marker)
}

func TestParserFiltersUnwantedDevices(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, filepath.Join(dir, "session.xdf"), func(w *xdf.Writer) {
		require.NoError(t, w.WriteStreamHeader(1, deviceInfo("A", "Intel_D455_1", []string{"s1"}, 1, 0)))
		require.NoError(t, w.WriteStreamHeader(2, deviceInfo("B", "FLIR_blackfly_1", []string{"s2"}, 1, 0)))
	})

	records, err := NewParser(nil).Parse(path, []string{"FLIR_blackfly_1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "FLIR_blackfly_1", records[0].DeviceID)
	assert.Nil(t, records[0].Marker)
}

func TestParserRejectsMissingDeviceID(t *testing.T) {
	dir := t.TempDir()
	info := xdf.StreamInfo{
		Name:          "Mystery",
		Channels:      1,
		ChannelFormat: xdf.FormatDouble64,
	}
	path := writeContainer(t, filepath.Join(dir, "session.xdf"), func(w *xdf.Writer) {
		require.NoError(t, w.WriteStreamHeader(1, info))
	})

	_, err := NewParser(nil).Parse(path, []string{"Intel_D455_1"})
	var unresolvable *UnresolvableDeviceIDError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, "Mystery", unresolvable.StreamName)
}

func TestParserRejectsUndecodableSensorIDs(t *testing.T) {
	dir := t.TempDir()
	info := deviceInfo("A", "Intel_D455_1", nil, 1, 0)
	info.Desc[stream.KeySensorIDs] = "not json"
	path := writeContainer(t, filepath.Join(dir, "session.xdf"), func(w *xdf.Writer) {
		require.NoError(t, w.WriteStreamHeader(1, info))
	})

	_, err := NewParser(nil).Parse(path, []string{"Intel_D455_1"})
	var unresolvable *UnresolvableDeviceIDError
	require.ErrorAs(t, err, &unresolvable)
}

func TestParserRejectsDuplicateMarkerStreams(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, filepath.Join(dir, "session.xdf"), func(w *xdf.Writer) {
		require.NoError(t, w.WriteStreamHeader(1, markerInfo()))
		require.NoError(t, w.WriteStreamHeader(2, markerInfo()))
	})

	_, err := NewParser(nil).Parse(path, []string{"Intel_D455_1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one")
}
