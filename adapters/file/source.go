// Package file loads run snapshots from YAML or JSON documents on disk.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"trustdebt/domain/snapshot"
	"trustdebt/internal/errors"

	"gopkg.in/yaml.v3"
)

// Source reads one snapshot file. The format follows the extension: .json is
// decoded strictly as JSON, anything else as YAML.
type Source struct {
	path string
}

// NewSource creates a file-backed signal source.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Describe names the file for logs and error messages.
func (s *Source) Describe() string {
	return "file " + s.path
}

// Load reads and decodes the snapshot.
func (s *Source) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("snapshot file " + s.path)
		}
		return nil, errors.Wrapf(err, "failed to read %s", s.path)
	}
	return Decode(data, formatOf(s.path))
}

// Format selects the decoder.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses a snapshot document. Unknown fields are rejected so a typo
// in a category field is not silently dropped.
func Decode(data []byte, format Format) (*snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&snap); err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("invalid JSON snapshot: %v", err))
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&snap); err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("invalid YAML snapshot: %v", err))
		}
	}
	return &snap, nil
}

// Encode writes a snapshot in the given format.
func Encode(snap *snapshot.Snapshot, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(snap, "", "  ")
	}
	return yaml.Marshal(snap)
}

// LoadDir reads every .yaml, .yml and .json file in dir, sorted by name.
// Projects left unnamed take the file's base name.
func LoadDir(ctx context.Context, dir string) ([]*snapshot.Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	snaps := make([]*snapshot.Snapshot, 0, len(names))
	for _, name := range names {
		snap, err := NewSource(filepath.Join(dir, name)).Load(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", name)
		}
		if strings.TrimSpace(snap.Project) == "" {
			snap.Project = strings.TrimSuffix(name, filepath.Ext(name))
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
