package split

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neurobooth/xdfsplit/pkg/archive"
	"github.com/neurobooth/xdfsplit/pkg/devicefile"
	"github.com/neurobooth/xdfsplit/pkg/provenance"
	"github.com/neurobooth/xdfsplit/pkg/xdf"
)

// DeviceSource resolves which device ids participated in a session. The
// production source queries the session database; deployments without one
// supply a static task-to-device map instead.
type DeviceSource interface {
	DeviceIDs(ctx context.Context, subjectID, sessionDate, taskID string) ([]string, error)
}

// DeviceResult reports the outcome for one device within a split.
type DeviceResult struct {
	DeviceID     string
	SensorIDs    []string
	OutputPath   string
	ContentHash  string
	AlreadySplit bool
	Err          error
}

// Result summarizes one container split.
type Result struct {
	RunID   string
	Session SessionInfo
	// Outputs lists every device file produced or confirmed present.
	Outputs []string
	Devices []DeviceResult
}

// Splitter orchestrates a container split end to end: session identity,
// device resolution, parsing, metadata correction, device-file writing,
// and provenance recording. Device failures are isolated from each other;
// the split as a whole fails only when every device fails.
type Splitter struct {
	source  DeviceSource
	prov    provenance.Log
	writer  *devicefile.Writer
	parser  *Parser
	archive archive.Store
	log     *slog.Logger
	tracer  trace.Tracer

	wallClock func() time.Time
	monoClock func() float64
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithLogger routes orchestrator logging through log.
func WithLogger(log *slog.Logger) Option {
	return func(s *Splitter) { s.log = log }
}

// WithArchive copies every freshly written device file into store.
func WithArchive(store archive.Store) Option {
	return func(s *Splitter) { s.archive = store }
}

// WithClocks overrides the wall and monotonic clocks used to place
// recording timestamps on the wall-clock timeline. Tests inject fixed
// clocks to make provenance times deterministic.
func WithClocks(wall func() time.Time, mono func() float64) Option {
	return func(s *Splitter) {
		s.wallClock = wall
		s.monoClock = mono
	}
}

var processStart = time.Now()

// NewSplitter wires an orchestrator from its collaborators.
func NewSplitter(source DeviceSource, prov provenance.Log, writer *devicefile.Writer, opts ...Option) *Splitter {
	s := &Splitter{
		source:    source,
		prov:      prov,
		writer:    writer,
		log:       slog.Default(),
		tracer:    otel.Tracer("github.com/neurobooth/xdfsplit/pkg/split"),
		wallClock: time.Now,
		monoClock: func() float64 { return time.Since(processStart).Seconds() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = NewParser(s.log)
	return s
}

// Split processes one container. Already-present device files are skipped
// without rewriting, so re-running after a partial failure completes only
// the missing outputs.
func (s *Splitter) Split(ctx context.Context, containerPath string) (*Result, error) {
	info, err := ParseSessionName(containerPath)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "split.Split", trace.WithAttributes(
		attribute.String("session.subject_id", info.SubjectID),
		attribute.String("session.task_id", info.TaskID),
		attribute.String("split.run_id", runID),
	))
	defer span.End()

	log := s.log.With("run_id", runID, "container", info.Name)

	deviceIDs, err := s.source.DeviceIDs(ctx, info.SubjectID, info.DateString(), info.TaskID)
	if err != nil {
		return nil, fmt.Errorf("split: resolving devices for task %q: %w", info.TaskID, err)
	}
	if len(deviceIDs) == 0 {
		return nil, fmt.Errorf("split: task %q, subject %s: %w", info.TaskID, info.SubjectID, ErrNoDevicesFound)
	}

	records, err := s.parser.Parse(containerPath, deviceIDs)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		log.Warn("no device streams matched the resolved devices", "devices", deviceIDs)
	}

	// The offset from the recording's monotonic timeline to the wall
	// clock is sampled once so every device file in this split shares
	// the same alignment.
	clockOffset := float64(s.wallClock().UnixNano())/float64(time.Second) - s.monoClock()

	var marker *xdf.Stream
	if len(records) > 0 {
		marker = CorrectMarker(records[0].Marker)
	}

	result := &Result{RunID: runID, Session: info}
	failures := map[string]error{}
	for _, rec := range records {
		rec = Correct(rec)
		rec.Marker = marker
		dr := s.splitDevice(ctx, log, info, containerPath, clockOffset, runID, rec)
		result.Devices = append(result.Devices, dr)
		if dr.Err != nil {
			failures[rec.DeviceID] = dr.Err
			log.Error("device split failed", "device_id", rec.DeviceID, "error", dr.Err)
			continue
		}
		result.Outputs = append(result.Outputs, dr.OutputPath)
	}

	if len(records) > 0 && len(result.Outputs) == 0 {
		return nil, &SplitFailedError{Causes: failures}
	}
	log.Info("split complete",
		"outputs", len(result.Outputs), "failed_devices", len(failures))
	return result, nil
}

func (s *Splitter) splitDevice(ctx context.Context, log *slog.Logger, info SessionInfo, containerPath string, clockOffset float64, runID string, rec RawDeviceRecord) DeviceResult {
	dr := DeviceResult{DeviceID: rec.DeviceID, SensorIDs: rec.SensorIDs}

	wres, err := s.writer.Write(containerPath, rec.Marker, rec.Device, rec.DeviceID, rec.SensorIDs)
	if err != nil {
		dr.Err = fmt.Errorf("device %s: %w", rec.DeviceID, err)
		return dr
	}
	dr.OutputPath = wres.Path
	dr.ContentHash = wres.ContentHash
	dr.AlreadySplit = wres.Skipped
	if wres.Skipped {
		log.Info("already split", "device_id", rec.DeviceID, "output", wres.Path)
		return dr
	}

	stamps := rec.Device.TimeStamps
	resolution, err := temporalResolution(stamps)
	if err != nil {
		s.discardOutput(log, wres.Path)
		dr.Err = fmt.Errorf("device %s: %w", rec.DeviceID, err)
		return dr
	}

	start := monoToWall(stamps[0], clockOffset)
	end := monoToWall(stamps[len(stamps)-1], clockOffset)
	for _, sensorID := range rec.SensorIDs {
		entry := provenance.Entry{
			SubjectID:          info.SubjectID,
			SessionDate:        info.DateString(),
			TaskID:             info.TaskID,
			DeviceID:           rec.DeviceID,
			SensorID:           sensorID,
			TemporalResolution: resolution,
			FileStartTime:      start,
			FileEndTime:        end,
			ContainerPath:      containerPath,
			OutputPath:         wres.Path,
			ContentHash:        wres.ContentHash,
			VideoFileRefs:      rec.VideoFileRefs,
			SplitRunID:         runID,
		}
		if err := s.prov.Append(ctx, entry); err != nil {
			// Drop the fresh file so a re-run retries the whole device
			// rather than skipping it with its provenance missing. Rows
			// already inserted for earlier sensors stay; the re-run's
			// rows carry a different split_run_id.
			s.discardOutput(log, wres.Path)
			dr.Err = fmt.Errorf("device %s: recording provenance: %w", rec.DeviceID, err)
			return dr
		}
	}

	if s.archive != nil {
		if err := s.archiveOutput(ctx, info, wres.Path); err != nil {
			dr.Err = fmt.Errorf("device %s: %w", rec.DeviceID, err)
			return dr
		}
	}
	log.Info("device split", "device_id", rec.DeviceID,
		"output", wres.Path, "hash", wres.ContentHash, "resolution_hz", resolution)
	return dr
}

// discardOutput removes a device file whose split did not complete, so
// the skip-if-exists check cannot mistake it for a finished output.
func (s *Splitter) discardOutput(log *slog.Logger, path string) {
	if err := os.Remove(path); err != nil {
		log.Error("could not remove incomplete device file", "output", path, "error", err)
	}
}

func (s *Splitter) archiveOutput(ctx context.Context, info SessionInfo, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", path, err)
	}
	dir := info.SubjectID + "_" + info.DateString()
	if err := s.archive.Put(ctx, dir, filepath.Base(path), data); err != nil {
		return fmt.Errorf("archiving %s: %w", path, err)
	}
	return nil
}

// monoToWall maps a recording timestamp onto the wall clock.
func monoToWall(ts, offset float64) time.Time {
	return time.Unix(0, int64((ts+offset)*float64(time.Second))).UTC()
}
