package besttime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var validKeyRegex = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]{0,199}$`)

type fileRecord struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FileStore writes one small JSON document per key into a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create best time dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// securePath maps a key to a file inside the store directory, rejecting keys
// that could escape it.
func (f *FileStore) securePath(key string) (string, error) {
	if !validKeyRegex.MatchString(key) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	path := filepath.Join(f.dir, key+".json")

	absDir, err := filepath.Abs(f.dir)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absPath, filepath.Clean(absDir)+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes store directory", ErrInvalidKey, key)
	}
	return path, nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	path, err := f.securePath(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("removing corrupted best time file")
		_ = os.Remove(path)
		return "", false, nil
	}
	return rec.Value, true, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	path, err := f.securePath(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileRecord{Value: value, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("saved best time")
	return nil
}
