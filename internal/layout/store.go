package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLayoutFile is the store location used when none is configured.
const DefaultLayoutFile = "~/monitor-layout.json"

// ErrNoLayout signals that no usable saved layout exists. Load returns it for
// a missing file as well as for unreadable or malformed content.
var ErrNoLayout = errors.New("no saved layout available")

// WriteError reports a failed save. It is the only store failure surfaced to
// the user as an error rather than a status.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write layout %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Record is the persisted form of a DisplayConfig. Connection status is not stored.
type Record struct {
	Name       string     `json:"name"`
	PosX       int        `json:"pos_x"`
	PosY       int        `json:"pos_y"`
	Resolution Resolution `json:"resolution"`
	Rotation   Rotation   `json:"rotation"`
}

// RecordOf converts a display into its persisted form.
func RecordOf(d DisplayConfig) Record {
	return Record{
		Name:       d.Name,
		PosX:       d.Position.X,
		PosY:       d.Position.Y,
		Resolution: d.Resolution,
		Rotation:   d.Rotation,
	}
}

// Position returns the record's saved position.
func (r Record) Position() Position {
	return Position{X: r.PosX, Y: r.PosY}
}

func (r Record) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("record has no name")
	}
	if !r.Resolution.Valid() {
		return fmt.Errorf("record %q: invalid resolution %q", r.Name, r.Resolution)
	}
	if !r.Rotation.Valid() {
		return fmt.Errorf("record %q: invalid rotation %q", r.Name, r.Rotation)
	}
	return nil
}

// ExpandPath expands a leading "~" to the current user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "~" {
		return homeDir, nil
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// Store persists layouts as a JSON array at a single path.
type Store struct {
	Path string
}

// NewStore returns a store for path. An empty path selects DefaultLayoutFile.
func NewStore(path string) *Store {
	if strings.TrimSpace(path) == "" {
		path = DefaultLayoutFile
	}
	return &Store{Path: path}
}

func (s *Store) resolvedPath() (string, error) {
	return ExpandPath(s.Path)
}

// Save writes the displays in order, overwriting any existing file.
func (s *Store) Save(displays []DisplayConfig) error {
	records := make([]Record, 0, len(displays))
	for _, d := range displays {
		records = append(records, RecordOf(d))
	}
	return s.SaveRecords(records)
}

// SaveRecords writes records in order, overwriting any existing file.
func (s *Store) SaveRecords(records []Record) error {
	path, err := s.resolvedPath()
	if err != nil {
		return &WriteError{Path: s.Path, Err: err}
	}
	if records == nil {
		records = []Record{}
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("failed to encode layout: %w", err)}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// Load reads the saved records. Any failure, including a missing file, yields
// an empty result and an error wrapping ErrNoLayout.
func (s *Store) Load() ([]Record, error) {
	path, err := s.resolvedPath()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoLayout, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoLayout, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrNoLayout, path, err)
	}
	for _, r := range records {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNoLayout, path, err)
		}
	}
	return records, nil
}
