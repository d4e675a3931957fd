package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjy-dev/ripe-tester/internal/oracle"
)

// RunOptions records the parameters a run was started with.
type RunOptions struct {
	Repeat     int      `json:"repeat"`
	Techniques []string `json:"techniques"`
	Compilers  []string `json:"compilers"`
	CETMode    string   `json:"cet_mode"`
	Workers    int      `json:"workers"`
}

// Record is the persistent summary of one harness run. It lets a report be
// rendered again later in another format.
type Record struct {
	ID         uuid.UUID  `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Options    RunOptions `json:"options"`
	Results    Results    `json:"results"`
	Entries    []Entry    `json:"entries,omitempty"`
}

// NewRecord creates a Record with a fresh ID.
func NewRecord(opts RunOptions) *Record {
	return &Record{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Options:   opts,
	}
}

// FileManager persists a Record as indented JSON.
type FileManager struct {
	mu       sync.Mutex
	filePath string
	record   *Record
}

// NewFileManager creates a FileManager writing to path.
func NewFileManager(path string, r *Record) *FileManager {
	return &FileManager{filePath: path, record: r}
}

// AddEntry appends a configuration verdict to the record.
func (m *FileManager) AddEntry(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record.Entries = append(m.record.Entries, e)
}

// SetResults replaces the totals in the record and stamps the finish time.
func (m *FileManager) SetResults(r Results) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record.Results = append(Results(nil), r...)
	m.record.FinishedAt = time.Now()
}

// GetFilePath returns the path of the record file.
func (m *FileManager) GetFilePath() string {
	return m.filePath
}

// Save writes the record to disk, creating parent directories as needed.
func (m *FileManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(m.record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	// Readers never see a partially written file.
	tmp := m.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, m.filePath); err != nil {
		return fmt.Errorf("failed to write results file %s: %w", m.filePath, err)
	}
	return nil
}

// LoadRecord reads a record saved by FileManager.Save.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file %s: %w", path, err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse results file %s: %w", path, err)
	}
	for _, e := range r.Entries {
		if _, err := oracle.ParseVerdict(string(e.Verdict)); err != nil {
			return nil, fmt.Errorf("invalid entry in %s: %w", path, err)
		}
	}
	return &r, nil
}
