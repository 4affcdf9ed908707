package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// ScenariosDir holds per-scenario detail files.
const ScenariosDir = "scenarios"

// Config describes the run for the index header.
type Config struct {
	OutputDir string
	RunID     string // generated when empty
	Device    Device
	App       App
	Runner    RunnerInfo
	Now       func() time.Time // defaults to time.Now
}

// Planned is a scenario scheduled for the run.
type Planned struct {
	Name string
	Tags []string
}

// Writer keeps report.json current as scenarios start and finish. It is safe
// for concurrent use.
type Writer struct {
	mu        sync.Mutex
	outputDir string
	path      string
	index     *Index
	now       func() time.Time
}

// NewWriter builds the pending index for the planned scenarios and writes it.
func NewWriter(cfg Config, planned []Planned) (*Writer, error) {
	if err := os.MkdirAll(filepath.Join(cfg.OutputDir, ScenariosDir), 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	w := &Writer{
		outputDir: cfg.OutputDir,
		path:      filepath.Join(cfg.OutputDir, "report.json"),
		now:       cfg.Now,
	}
	if w.now == nil {
		w.now = time.Now
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	now := w.now()
	w.index = &Index{
		Version:     Version,
		RunID:       cfg.RunID,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Device:      cfg.Device,
		App:         cfg.App,
		Runner:      cfg.Runner,
		Scenarios:   make([]ScenarioEntry, len(planned)),
	}
	for i, p := range planned {
		w.index.Scenarios[i] = ScenarioEntry{
			Index:  i,
			ID:     fmt.Sprintf("scenario-%03d", i),
			Name:   p.Name,
			Tags:   p.Tags,
			Status: StatusPending,
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w, w.flushLocked()
}

// Start marks the run as running.
func (w *Writer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	w.index.Status = StatusRunning
	w.index.StartTime = now
	return w.flushLocked()
}

// ScenarioStarted marks scenario i as running.
func (w *Writer) ScenarioStarted(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entry(i)
	if err != nil {
		return err
	}
	now := w.now()
	e.Status = StatusRunning
	e.StartTime = &now
	e.UpdateSeq++
	e.LastUpdated = &now
	return w.flushLocked()
}

// ScenarioFinished writes the scenario's detail file and updates its entry.
func (w *Writer) ScenarioFinished(i int, res core.ScenarioResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entry(i)
	if err != nil {
		return err
	}
	e.DataFile = filepath.Join(ScenariosDir, e.ID+".json")
	if err := atomicWriteJSON(filepath.Join(w.outputDir, e.DataFile), res); err != nil {
		return fmt.Errorf("write %s: %w", e.ID, err)
	}

	now := w.now()
	ms := res.Duration.Milliseconds()
	start := res.StartTime
	e.Status = StatusOf(res.Status)
	e.Tags = res.Tags
	e.StartTime = &start
	e.Duration = &ms
	e.UpdateSeq++
	e.LastUpdated = &now
	if res.Error != "" {
		msg := res.Error
		e.Error = &msg
		e.Category = res.Category.String()
	}
	return w.flushLocked()
}

// End marks the run complete.
func (w *Writer) End() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	w.index.EndTime = &now
	w.index.Status = w.computeRunStatus()
	return w.flushLocked()
}

// Index returns a copy of the current index.
func (w *Writer) Index() Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := *w.index
	idx.Scenarios = append([]ScenarioEntry(nil), w.index.Scenarios...)
	return idx
}

// Path returns the report.json path.
func (w *Writer) Path() string { return w.path }

func (w *Writer) entry(i int) (*ScenarioEntry, error) {
	if i < 0 || i >= len(w.index.Scenarios) {
		return nil, fmt.Errorf("scenario index %d out of range", i)
	}
	return &w.index.Scenarios[i], nil
}

func (w *Writer) flushLocked() error {
	w.index.UpdateSeq++
	w.index.LastUpdated = w.now()
	w.index.Summary = w.computeSummary()
	if err := atomicWriteJSON(w.path, w.index); err != nil {
		logger.Error("write report index: %v", err)
		return err
	}
	return nil
}

func (w *Writer) computeSummary() Summary {
	var s Summary
	for _, e := range w.index.Scenarios {
		s.Total++
		switch e.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

func (w *Writer) computeRunStatus() Status {
	hasFailure := false
	for _, e := range w.index.Scenarios {
		if e.Status == StatusFailed {
			hasFailure = true
		}
		if !e.Status.IsTerminal() {
			return StatusRunning
		}
	}
	if hasFailure {
		return StatusFailed
	}
	return StatusPassed
}

// atomicWriteJSON writes v as indented JSON via a temp file and rename.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadIndex loads report.json from dir.
func ReadIndex(dir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse report.json: %w", err)
	}
	return &idx, nil
}
