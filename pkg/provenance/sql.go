package provenance

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLLog persists entries through database/sql. The schema and the $n
// placeholder style work against both Postgres and SQLite, so production
// and single-machine deployments share one implementation.
type SQLLog struct {
	db *sql.DB
}

// NewSQLLog wraps db. Call Init before the first Append.
func NewSQLLog(db *sql.DB) *SQLLog { return &SQLLog{db: db} }

// Init creates the provenance table if it does not exist. The table has
// no update path: provenance is insert-only.
func (l *SQLLog) Init(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS split_provenance (
		subject_id          TEXT NOT NULL,
		session_date        TEXT NOT NULL,
		task_id             TEXT NOT NULL,
		device_id           TEXT NOT NULL,
		sensor_id           TEXT NOT NULL,
		temporal_resolution DOUBLE PRECISION NOT NULL,
		file_start_time     TIMESTAMP NOT NULL,
		file_end_time       TIMESTAMP NOT NULL,
		container_path      TEXT NOT NULL,
		output_path         TEXT NOT NULL,
		content_hash        TEXT NOT NULL,
		video_file_refs     TEXT NOT NULL,
		split_run_id        TEXT NOT NULL,
		created_at          TIMESTAMP NOT NULL
	)`
	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("provenance: creating table: %w", err)
	}
	return nil
}

// Append inserts one entry.
func (l *SQLLog) Append(ctx context.Context, e Entry) error {
	const q = `INSERT INTO split_provenance (
		subject_id, session_date, task_id, device_id, sensor_id,
		temporal_resolution, file_start_time, file_end_time,
		container_path, output_path, content_hash, video_file_refs,
		split_run_id, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := l.db.ExecContext(ctx, q,
		e.SubjectID, e.SessionDate, e.TaskID, e.DeviceID, e.SensorID,
		e.TemporalResolution, e.FileStartTime.UTC(), e.FileEndTime.UTC(),
		e.ContainerPath, e.OutputPath, e.ContentHash, e.VideoFileRefs,
		e.SplitRunID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("provenance: inserting entry for device %s sensor %s: %w",
			e.DeviceID, e.SensorID, err)
	}
	return nil
}
