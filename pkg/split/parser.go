package split

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neurobooth/xdfsplit/pkg/stream"
	"github.com/neurobooth/xdfsplit/pkg/xdf"
)

// Parser turns a decoded container into per-device records.
type Parser struct {
	log *slog.Logger
}

// NewParser returns a Parser logging through log, or slog.Default when nil.
func NewParser(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{log: log}
}

// Parse decodes the container at path and returns one record per device
// stream whose device id appears in deviceIDs. Streams outside the filter
// are skipped; a device stream whose identity cannot be resolved aborts
// the whole parse.
func (p *Parser) Parse(path string, deviceIDs []string) ([]RawDeviceRecord, error) {
	file, err := xdf.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return p.parseFile(file, deviceIDs)
}

func (p *Parser) parseFile(file *xdf.File, deviceIDs []string) ([]RawDeviceRecord, error) {
	var marker *xdf.Stream
	videoRefs := map[string]string{}
	var deviceStreams []*xdf.Stream

	for _, s := range file.Streams {
		switch s.Info.Name {
		case MarkerStreamName:
			if marker != nil {
				return nil, fmt.Errorf("split: container has more than one %q stream", MarkerStreamName)
			}
			marker = s
		case VideoFilesStreamName:
			mergeVideoRefs(videoRefs, s)
		default:
			deviceStreams = append(deviceStreams, s)
		}
	}
	if marker == nil {
		p.log.Warn("container has no marker stream")
	}

	wanted := make(map[string]bool, len(deviceIDs))
	for _, id := range deviceIDs {
		wanted[id] = true
	}

	var records []RawDeviceRecord
	for _, s := range deviceStreams {
		deviceID, ok := s.Info.DescValue(stream.KeyDeviceID)
		if !ok || deviceID == "" {
			return nil, &UnresolvableDeviceIDError{
				StreamName: s.Info.Name,
				Err:        errors.New("missing device_id"),
			}
		}
		raw, ok := s.Info.DescValue(stream.KeySensorIDs)
		if !ok {
			return nil, &UnresolvableDeviceIDError{
				StreamName: s.Info.Name,
				Err:        errors.New("missing sensor_ids"),
			}
		}
		sensorIDs, err := stream.DecodeStringList(stream.KeySensorIDs, raw)
		if err != nil {
			return nil, &UnresolvableDeviceIDError{StreamName: s.Info.Name, Err: err}
		}
		if !wanted[deviceID] {
			p.log.Debug("skipping stream outside device filter",
				"stream", s.Info.Name, "device_id", deviceID)
			continue
		}
		records = append(records, RawDeviceRecord{
			DeviceID:      deviceID,
			SensorIDs:     sensorIDs,
			Kind:          stream.KindForDeviceID(deviceID),
			Device:        s,
			Marker:        marker,
			VideoFileRefs: videoRefs[s.Info.Name],
		})
	}
	return records, nil
}

// mergeVideoRefs folds a videofiles stream into refs. Each sample is a
// single "streamName,fileName" string; repeated stream names accumulate
// into a comma-joined list and entries with an empty stream name are
// dropped.
func mergeVideoRefs(refs map[string]string, s *xdf.Stream) {
	for _, row := range s.Text {
		if len(row) == 0 {
			continue
		}
		name, file, found := strings.Cut(row[0], ",")
		if !found || name == "" {
			continue
		}
		if prev, ok := refs[name]; ok {
			refs[name] = prev + "," + file
		} else {
			refs[name] = file
		}
	}
}
