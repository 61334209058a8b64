package rewrite

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Parse will parse the file at the given path as a rewrite rule file.
func Parse(path string) (*Rewrite, error) {
	filePath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %q: %w", path, err)
	}

	data, err := os.ReadFile(filePath) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file at path %q: %w", path, err)
	}

	return ParseBytes(data)
}

// ParseBytes parses rewrite rule file data.
func ParseBytes(data []byte) (*Rewrite, error) {
	var rewrite Rewrite
	if err := yaml.Unmarshal(data, &rewrite); err != nil {
		return nil, err
	}

	return &rewrite, nil
}
