package source

import (
	"os"
	"path/filepath"
	"strings"
)

// FormatOf returns the export format for path by extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".jsonl", ".ndjson":
		return FormatJSONL, true
	}
	return 0, false
}

// ScanDir walks dir and returns every export file in lexical order. Hidden
// files and directories are skipped. A missing dir yields no files.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		if f, ok := FormatOf(dir); ok {
			return []DiscoveredFile{{Path: dir, Format: f}}, nil
		}
		return nil, nil
	}

	var files []DiscoveredFile
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if f, ok := FormatOf(path); ok {
			files = append(files, DiscoveredFile{Path: path, Format: f})
		}
		return nil
	})
	return files, err
}
