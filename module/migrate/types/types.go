package types

import (
	"errors"
	"sync"
)

// Common errors
var (
	ErrUnsupportedRegistryType = errors.New("unsupported registry type")
	ErrMissingTags             = errors.New("artifact has no tags")
	ErrInvalidRecord           = errors.New("invalid artifact record")
)

type Status string

const (
	StatusSuccess Status = "Success"
	StatusSkip    Status = "Skipped"
	StatusFail    Status = "Failed"
)

// MigrationTask is one (artifact, tag) copy derived from a report row. It is never persisted.
type MigrationTask struct {
	Line        int
	Project     string
	Repository  string
	Digest      string
	Tag         string
	Size        int64
	Source      string
	Destination string
}

type TaskStat struct {
	Line        int    `json:"line"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Size        string `json:"size"`
	Status      Status `json:"status"`
	Error       string `json:"error"`
}

// TransferStats collects task outcomes; safe for concurrent use by engine jobs.
type TransferStats struct {
	mu    sync.Mutex
	stats []TaskStat
}

func (t *TransferStats) Add(stat TaskStat) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = append(t.stats, stat)
}

// Stats returns a copy of the recorded outcomes in insertion order.
func (t *TransferStats) Stats() []TaskStat {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TaskStat, len(t.stats))
	copy(out, t.stats)
	return out
}

func (t *TransferStats) Count(status Status) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.stats {
		if s.Status == status {
			n++
		}
	}
	return n
}
