// Package storage provides sandboxed file access for the artwork mirror.
// Every path is resolved against a base directory and rejected when it
// would escape it, so a crafted artwork URL can never read files outside
// the mirror.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox restricts file operations to a base directory.
type Sandbox struct {
	baseDir string
}

// NewSandbox creates a Sandbox rooted at baseDir, creating the directory
// if needed.
func NewSandbox(baseDir string) (*Sandbox, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0750); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}
	return &Sandbox{baseDir: absPath}, nil
}

// BaseDir returns the absolute path of the sandbox root.
func (s *Sandbox) BaseDir() string {
	return s.baseDir
}

// ResolvePath resolves a relative path inside the sandbox. Absolute paths
// and paths that climb out of the base directory are rejected.
func (s *Sandbox) ResolvePath(relativePath string) (string, error) {
	if filepath.IsAbs(relativePath) {
		return "", fmt.Errorf("path escapes sandbox: %s (absolute paths not allowed)", relativePath)
	}

	absPath, err := filepath.Abs(filepath.Join(s.baseDir, filepath.Clean(relativePath)))
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	if absPath != s.baseDir && !strings.HasPrefix(absPath, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes sandbox: %s", relativePath)
	}
	return absPath, nil
}

// ReadFile reads a file inside the sandbox.
func (s *Sandbox) ReadFile(relativePath string) ([]byte, error) {
	path, err := s.ResolvePath(relativePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// WriteFile writes a file inside the sandbox, creating parent directories
// as needed. The write goes through a temp file and rename so readers
// never observe a partially written file.
func (s *Sandbox) WriteFile(relativePath string, data []byte) error {
	path, err := s.ResolvePath(relativePath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr != nil {
			return fmt.Errorf("writing temp file: %w", writeErr)
		}
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming to target: %w", err)
	}
	return nil
}
