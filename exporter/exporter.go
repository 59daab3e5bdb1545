package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bpmforge/bpmgen/llm"
	"github.com/bpmforge/bpmgen/validator"
)

// Summary is written alongside the exported tables as
// generation_summary.json.
type Summary struct {
	ProductDescription string              `json:"product_description"`
	Model              string              `json:"model"`
	StartedAt          time.Time           `json:"started_at"`
	Runtime            string              `json:"runtime"`
	RowCounts          map[string]int      `json:"row_counts"`
	Warnings           []validator.Finding `json:"warnings"`
	Errors             []validator.Finding `json:"errors"`
	Success            bool                `json:"success"`
}

// StageTiming is the wall-clock duration of one pipeline stage.
type StageTiming struct {
	Stage    string `json:"stage"`
	Duration string `json:"duration"`
}

// Metrics is written as performance_metrics.json: per-stage timings in
// execution order plus the total runtime.
type Metrics struct {
	Stages []StageTiming `json:"stages"`
	Total  string        `json:"total"`
}

// Writer exports a finished run into a timestamped directory below the
// configured output root.
type Writer struct {
	Root string
}

func NewWriter(root string) *Writer {
	return &Writer{Root: root}
}

// WriteRun creates run_YYYYMMDD_HHMMSS under the output root and writes
// one JSON file per table, the combined complete_context.json, the
// generation summary and, when given, the performance metrics. It
// returns the run directory path.
func (w *Writer) WriteRun(tables map[string][]llm.Row, summary *Summary, metrics *Metrics) (string, error) {
	dir := filepath.Join(w.Root, time.Now().Format("run_20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %v", err)
	}

	for name, rows := range tables {
		if err := writeJSON(filepath.Join(dir, name+".json"), rows); err != nil {
			return "", err
		}
	}
	if err := writeJSON(filepath.Join(dir, "complete_context.json"), tables); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "generation_summary.json"), summary); err != nil {
		return "", err
	}
	if metrics != nil {
		if err := writeJSON(filepath.Join(dir, "performance_metrics.json"), metrics); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %v", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %v", filepath.Base(path), err)
	}
	return nil
}
