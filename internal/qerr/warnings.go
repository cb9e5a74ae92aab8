package qerr

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
)

// Warning is one recoverable numeric anomaly (e.g. norm drift).
type Warning struct {
	Source string  // Component that observed the drift.
	Drift  float64 // Absolute deviation of the squared norm from 1.
}

// Warnings accumulates NumericWarnings during a run and reports them once.
// Safe for concurrent use.
type Warnings struct {
	mu       sync.Mutex
	count    map[string]int
	maxDrift map[string]float64
	total    int
}

// NewWarnings creates an empty accumulator.
func NewWarnings() *Warnings {
	return &Warnings{
		count:    make(map[string]int),
		maxDrift: make(map[string]float64),
	}
}

// Add records a warning.
func (w *Warnings) Add(warn Warning) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.count[warn.Source]++
	w.maxDrift[warn.Source] = math.Max(w.maxDrift[warn.Source], warn.Drift)
	w.total++
}

// Total returns the number of warnings recorded.
func (w *Warnings) Total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total
}

// Summary returns one line per source, sorted by source name.
func (w *Warnings) Summary() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	sources := make([]string, 0, len(w.count))
	for s := range w.count {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	lines := make([]string, 0, len(sources))
	for _, s := range sources {
		lines = append(lines, fmt.Sprintf("%s: %d warnings, max drift %.3e", s, w.count[s], w.maxDrift[s]))
	}
	return lines
}

// Report logs the end-of-run summary. Nothing is logged for a clean run.
func (w *Warnings) Report(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	total := w.Total()
	if total == 0 {
		return
	}
	logger.Warn("numeric warnings during run", slog.Int("total", total))
	for _, line := range w.Summary() {
		logger.Warn(line)
	}
}

// Reset clears all recorded warnings.
func (w *Warnings) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.count = make(map[string]int)
	w.maxDrift = make(map[string]float64)
	w.total = 0
}
