package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
)

// Record is a journaled launch plus what is known about where it ran.
type Record struct {
	Launch
	Socket  string `json:"socket,omitempty"`
	Dir     string `json:"dir,omitempty"`
	Command string `json:"command"`
}

// Journal persists one JSON file per launched session so sessions can be
// listed and cleaned up later. Detached sessions are never observed by the
// pipeline; the journal is the only record that they were opened.
type Journal struct {
	dir string
	mu  sync.Mutex
}

// NewJournal creates a Journal rooted at dir. The directory is created lazily.
func NewJournal(dir string) *Journal {
	return &Journal{dir: dir}
}

// Dir returns the journal directory.
func (j *Journal) Dir() string {
	return j.dir
}

// Add records r, replacing any record with the same session name.
func (j *Journal) Add(r Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(j.dir, 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	return atomicWriteFile(j.path(r.Session), data, 0644)
}

// List returns all records, oldest first. Unreadable files are skipped.
func (j *Journal) List() ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var records []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(j.dir, e.Name()))
		if err != nil {
			continue
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil || r.Session == "" {
			continue
		}
		records = append(records, r)
	}

	sort.Slice(records, func(a, b int) bool {
		return records[a].StartedAt.Before(records[b].StartedAt)
	})
	return records, nil
}

// Find returns the record for the named session.
func (j *Journal) Find(name string) (Record, bool) {
	records, _ := j.List()
	for _, r := range records {
		if r.Session == name {
			return r, true
		}
	}
	return Record{}, false
}

// Remove deletes the record for the named session. Missing records are ignored.
func (j *Journal) Remove(name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.Remove(j.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session record: %w", err)
	}
	return nil
}

// Prune removes records for which alive reports false and returns their names.
func (j *Journal) Prune(alive func(Record) bool) ([]string, error) {
	records, err := j.List()
	if err != nil {
		return nil, err
	}

	var pruned []string
	for _, r := range records {
		if alive(r) {
			continue
		}
		if err := j.Remove(r.Session); err != nil {
			return pruned, err
		}
		pruned = append(pruned, r.Session)
	}
	return pruned, nil
}

func (j *Journal) path(name string) string {
	return filepath.Join(j.dir, name+".json")
}

// ProcessAlive reports whether pid refers to a running process.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// atomicWriteFile writes data to a temp file in the same directory and
// renames it over path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
