package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"liquidityManager/internal/model"
)

// TickRecord is one journal line: every position result of a single tick.
type TickRecord struct {
	At        time.Time         `json:"at"`
	Owner     string            `json:"owner,omitempty"`
	Positions int               `json:"positions"`
	Failed    int               `json:"failed"`
	Results   []model.RunResult `json:"results"`
}

// NewTickRecord summarizes results under the tick time at.
func NewTickRecord(at time.Time, owner string, results []model.RunResult) TickRecord {
	rec := TickRecord{
		At:        at.UTC(),
		Owner:     owner,
		Positions: len(results),
		Results:   results,
	}
	for _, r := range results {
		if !r.OK() {
			rec.Failed++
		}
	}
	if rec.Results == nil {
		rec.Results = []model.RunResult{}
	}
	return rec
}

// FileJournal appends tick records to a file, one JSON document per line.
type FileJournal struct {
	path string

	mu      sync.Mutex
	dirOnce sync.Once
	dirErr  error
}

func NewFileJournal(path string) *FileJournal {
	return &FileJournal{path: path}
}

// Append writes rec as a single line. The encoder emits the whole line in one write.
func (j *FileJournal) Append(rec TickRecord) error {
	j.dirOnce.Do(func() {
		if dir := filepath.Dir(j.path); dir != "." {
			j.dirErr = os.MkdirAll(dir, 0o755)
		}
	})
	if j.dirErr != nil {
		return fmt.Errorf("create journal dir: %w", j.dirErr)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if err := json.NewEncoder(file).Encode(rec); err != nil {
		file.Close()
		return fmt.Errorf("append tick %s: %w", rec.At.Format(time.RFC3339), err)
	}
	return file.Close()
}
