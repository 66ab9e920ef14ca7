// Package taskmap provides a file-based alternative to the session
// database: a YAML document mapping task ids to the device ids expected
// for that task. When present it is used verbatim in place of the
// database lookup.
package taskmap

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Map associates each task id with its device ids.
type Map map[string][]string

// UnknownTaskError indicates a task absent from the map.
type UnknownTaskError struct {
	TaskID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("taskmap: no device mapping for task %q", e.TaskID)
}

// Load reads a task-to-device map from a YAML file.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taskmap: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a task-to-device map from YAML bytes.
func Parse(data []byte) (Map, error) {
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("taskmap: parsing: %w", err)
	}
	return m, nil
}

// DeviceIDs returns the devices configured for taskID. Subject and date
// are ignored: the map is static per deployment.
func (m Map) DeviceIDs(_ context.Context, _, _, taskID string) ([]string, error) {
	ids, ok := m[taskID]
	if !ok {
		return nil, &UnknownTaskError{TaskID: taskID}
	}
	return ids, nil
}
