// Package statestore persists one PrivacyState record per camera as a
// small JSON file. Writes go through a temp file and rename so a crash
// mid-write leaves the previous record readable.
package statestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"camera-privacy-buttons/internal/models"
)

type Store struct {
	pathTemplate string // must contain %s, expanded with the camera name
}

func New(pathTemplate string) *Store {
	return &Store{pathTemplate: pathTemplate}
}

// Path returns the state file path for a camera. Path separators in the
// name are flattened so a camera name cannot escape the state directory.
func (s *Store) Path(camera string) string {
	safe := strings.ReplaceAll(camera, string(filepath.Separator), "_")
	safe = strings.ReplaceAll(safe, "/", "_")
	return fmt.Sprintf(s.pathTemplate, safe)
}

// Load reads the persisted record for a camera. A missing file is not
// an error: it returns a zero record and found=false. Unknown JSON
// fields are ignored so newer writers stay readable.
func (s *Store) Load(camera string) (models.PrivacyState, bool, error) {
	data, err := os.ReadFile(s.Path(camera))
	if errors.Is(err, fs.ErrNotExist) {
		return models.PrivacyState{}, false, nil
	}
	if err != nil {
		return models.PrivacyState{}, false, fmt.Errorf("read state for %s: %w", camera, err)
	}

	var state models.PrivacyState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.PrivacyState{}, false, fmt.Errorf("parse state for %s: %w", camera, err)
	}
	return state, true, nil
}

// Save durably persists the record for state.CameraName. The write is
// atomic at the file level: temp file in the target directory, fsync,
// then rename over the old file.
func (s *Store) Save(state models.PrivacyState) error {
	path := s.Path(state.CameraName)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state for %s: %w", state.CameraName, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state for %s: %w", state.CameraName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync state for %s: %w", state.CameraName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state for %s: %w", state.CameraName, err)
	}
	return nil
}
