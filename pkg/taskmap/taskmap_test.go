package taskmap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
finger_tap:
  - Intel_D455_1
  - Mbient_LH_1
gaze_holding:
  - Eyelink_1
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	m, err := Load(path)
	require.NoError(t, err)

	ids, err := m.DeviceIDs(context.Background(), "12345", "2024-01-15", "finger_tap")
	require.NoError(t, err)
	assert.Equal(t, []string{"Intel_D455_1", "Mbient_LH_1"}, ids)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("finger_tap: {not: [a, list"))
	assert.Error(t, err)
}

func TestDeviceIDsUnknownTask(t *testing.T) {
	m, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	_, err = m.DeviceIDs(context.Background(), "12345", "2024-01-15", "unknown")
	var unknown *UnknownTaskError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "unknown", unknown.TaskID)
}
