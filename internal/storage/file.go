package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

const (
	// DefaultBaseDir is the default patrol scratch storage directory.
	DefaultBaseDir = ".patrol-tmp"

	// HistoryDir holds the append-only report history.
	HistoryDir = "reports"

	// HistoryFile is the name of the JSONL report history file.
	HistoryFile = "reports.jsonl"
)

// FileStorage implements ReportStore using the local filesystem.
type FileStorage struct {
	// BaseDir is the root directory (e.g., .patrol-tmp).
	BaseDir string

	mu sync.Mutex
}

// FileStorageOption configures a FileStorage instance.
type FileStorageOption func(*FileStorage)

// WithBaseDir sets the base directory.
func WithBaseDir(dir string) FileStorageOption {
	return func(fs *FileStorage) {
		fs.BaseDir = dir
	}
}

// NewFileStorage constructs a FileStorage with the given options,
// defaulting BaseDir to DefaultBaseDir.
func NewFileStorage(opts ...FileStorageOption) *FileStorage {
	fs := &FileStorage{BaseDir: DefaultBaseDir}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// Init creates the required directory structure.
func (fs *FileStorage) Init() error {
	return os.MkdirAll(fs.GetHistoryDir(), 0o755)
}

// WriteArtifact writes report as an indented JSON document at path,
// atomically via temp-file-then-rename.
func (fs *FileStorage) WriteArtifact(path string, report *types.PatrolReport) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	err := fs.atomicWrite(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// AppendHistory appends report as one JSONL line to the base
// directory's report history.
func (fs *FileStorage) AppendHistory(report *types.PatrolReport) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.appendJSONL(fs.GetHistoryPath(), report)
}

// GetBaseDir returns the storage root directory.
func (fs *FileStorage) GetBaseDir() string {
	return fs.BaseDir
}

// GetHistoryDir returns the directory holding the report history file.
func (fs *FileStorage) GetHistoryDir() string {
	return filepath.Join(fs.BaseDir, HistoryDir)
}

// GetHistoryPath returns the path of the JSONL report history file.
func (fs *FileStorage) GetHistoryPath() string {
	return filepath.Join(fs.GetHistoryDir(), HistoryFile)
}

// atomicWrite writes to a temp file and renames atomically.
func (fs *FileStorage) atomicWrite(path string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := writeFunc(tmpFile); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}

	success = true
	return nil
}

// appendJSONL appends v as one JSON line to path, creating it and its
// parent directory if necessary.
func (fs *FileStorage) appendJSONL(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return f.Sync()
}
