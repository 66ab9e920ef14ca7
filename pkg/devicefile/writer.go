package devicefile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gowebpki/jcs"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/neurobooth/xdfsplit/pkg/xdf"
)

// Envelope is the on-disk shape of a device file.
type Envelope struct {
	Marker     *xdf.Stream `json:"marker"`
	DeviceData *xdf.Stream `json:"device_data"`
}

// WriteResult reports where a device file landed.
type WriteResult struct {
	Path        string
	ContentHash string
	// Skipped is true when the file already existed and was left alone.
	Skipped bool
}

// Writer serializes device records to disk. Content is canonicalized
// before hashing so byte-identical inputs always produce byte-identical
// files, and each file is staged under a temporary name and renamed into
// place so readers never observe a partial write.
type Writer struct {
	schema *jsonschema.Schema
	log    *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterLogger routes writer logging through log.
func WithWriterLogger(log *slog.Logger) WriterOption {
	return func(w *Writer) { w.log = log }
}

// NewWriter compiles the envelope schema and returns a ready Writer.
func NewWriter(opts ...WriterOption) (*Writer, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("envelope.schema.json", strings.NewReader(envelopeSchema)); err != nil {
		return nil, fmt.Errorf("devicefile: loading envelope schema: %w", err)
	}
	schema, err := c.Compile("envelope.schema.json")
	if err != nil {
		return nil, fmt.Errorf("devicefile: compiling envelope schema: %w", err)
	}
	w := &Writer{schema: schema, log: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Write publishes one device's file next to its source container. An
// already-present output is skipped without rewriting, which makes re-runs
// after a partial failure cheap and safe.
func (w *Writer) Write(containerPath string, marker, device *xdf.Stream, deviceID string, sensorIDs []string) (WriteResult, error) {
	path := OutputPath(containerPath, deviceID, sensorIDs)
	if _, err := os.Stat(path); err == nil {
		return WriteResult{Path: path, Skipped: true}, nil
	} else if !os.IsNotExist(err) {
		return WriteResult{}, fmt.Errorf("devicefile: checking %s: %w", path, err)
	}

	data, hash, err := w.encode(Envelope{Marker: marker, DeviceData: device})
	if err != nil {
		return WriteResult{}, fmt.Errorf("devicefile: encoding %s: %w", path, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return WriteResult{}, err
	}
	w.log.Debug("device file written", "path", path, "bytes", len(data), "hash", hash)
	return WriteResult{Path: path, ContentHash: hash}, nil
}

// encode canonicalizes, validates, and hashes an envelope.
func (w *Writer) encode(env Envelope) ([]byte, string, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, "", fmt.Errorf("canonicalizing: %w", err)
	}
	var doc any
	if err := json.Unmarshal(canonical, &doc); err != nil {
		return nil, "", err
	}
	if err := w.schema.Validate(doc); err != nil {
		return nil, "", fmt.Errorf("envelope rejected by schema: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return canonical, hex.EncodeToString(sum[:]), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("devicefile: staging in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("devicefile: writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("devicefile: closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("devicefile: publishing %s: %w", path, err)
	}
	return nil
}
