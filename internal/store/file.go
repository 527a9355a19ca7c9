package store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// File is a Store persisted as a TSV file of key and quoted value.
// Every Set rewrites the file atomically (temp file + rename).
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a file store at path. The file is created on first Set.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := entries[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	if strings.ContainsAny(key, "\t\n") {
		return fmt.Errorf("invalid key %q", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	entries[key] = value
	return f.save(entries)
}

func (f *File) Close() error { return nil }

// load reads the store file; a missing file is an empty store.
func (f *File) load() (map[string]string, error) {
	entries := make(map[string]string)

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, err := parseLine(line)
		if err != nil {
			continue // Skip malformed lines
		}
		entries[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}
	return entries, nil
}

func (f *File) save(entries map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "store-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writer := bufio.NewWriter(tmpFile)
	for _, k := range keys {
		if _, err := writer.WriteString(formatLine(k, entries[k]) + "\n"); err != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("writing store: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing store: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming store file: %w", err)
	}
	return nil
}

// parseLine splits a "key<TAB>quoted value" line.
func parseLine(line string) (string, string, error) {
	key, quoted, ok := strings.Cut(line, "\t")
	if !ok {
		return "", "", fmt.Errorf("expected 2 columns")
	}
	value, err := strconv.Unquote(quoted)
	if err != nil {
		return "", "", fmt.Errorf("unquoting value of %s: %w", key, err)
	}
	return key, value, nil
}

func formatLine(key, value string) string {
	return key + "\t" + strconv.Quote(value)
}
