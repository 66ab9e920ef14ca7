// Package sessiondb resolves session metadata from the lab's Postgres
// operations database.
package sessiondb

import (
	"context"
	"database/sql"
	"fmt"
)

// deviceIDQuery walks session -> task -> task parameters to find the log
// device rows recorded for a task, then resolves each to its device id.
const deviceIDQuery = `
WITH device AS (
	SELECT UNNEST(tparam.log_device_ids) AS log_device_id
	FROM log_session sess
	JOIN log_task task
		ON sess.log_session_id = task.log_session_id
	JOIN log_task_param tparam
		ON task.log_task_id = tparam.log_task_id
	WHERE sess.subject_id = $1
		AND sess.date = $2
		AND task.task_id = $3
)
SELECT dparam.device_id
FROM device
JOIN log_device_param dparam
	ON device.log_device_id = dparam.id`

// PostgresSource answers device lookups from the operations database.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource wraps an open connection pool.
func NewPostgresSource(db *sql.DB) *PostgresSource { return &PostgresSource{db: db} }

// DeviceIDs returns the devices recorded for one task of one session.
// An empty result is returned as-is; deciding whether that is an error
// belongs to the caller.
func (s *PostgresSource) DeviceIDs(ctx context.Context, subjectID, sessionDate, taskID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, deviceIDQuery, subjectID, sessionDate, taskID)
	if err != nil {
		return nil, fmt.Errorf("sessiondb: querying devices for task %q: %w", taskID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sessiondb: scanning device id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sessiondb: reading device ids: %w", err)
	}
	return ids, nil
}
