// Package export writes refinement run records to disk: one directory per
// run holding the run metadata, per-version records, and the final article.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunRecord captures run-level metadata.
type RunRecord struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	TargetScore   float64           `json:"target_score"`
	MaxIterations int               `json:"max_iterations"`
	WordCountMin  int               `json:"word_count_min"`
	WordCountMax  int               `json:"word_count_max"`
	JudgeMode     string            `json:"judge_mode"`
	Models        map[string]string `json:"models,omitempty"`
	Budget        json.RawMessage   `json:"budget,omitempty"`
}

// VersionRecord captures one article version and its evaluation.
type VersionRecord struct {
	Version         int       `json:"version"`
	WordCount       int       `json:"word_count"`
	TotalScore      int       `json:"total_score"`
	MaxScore        int       `json:"max_score"`
	Percentage      float64   `json:"percentage"`
	PerformanceTier string    `json:"performance_tier"`
	FocusAreas      []string  `json:"focus_areas,omitempty"`
	Reverted        bool      `json:"reverted,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	ContentHash     string    `json:"content_hash,omitempty"`
}

// OutcomeRecord captures how the run ended.
type OutcomeRecord struct {
	Converged    bool    `json:"converged"`
	Iterations   int     `json:"iterations"`
	FinalScore   float64 `json:"final_score"`
	FinalTier    string  `json:"final_tier"`
	FinalWords   int     `json:"final_words"`
	StoppedEarly bool    `json:"stopped_early,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

// Writer writes run records to disk.
type Writer struct {
	baseDir string
	runDir  string
}

// NewWriter creates a run writer rooted at baseDir/runID.
func NewWriter(baseDir, runID string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if runID == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(runDir, "versions"), 0755); err != nil {
		return nil, err
	}

	return &Writer{baseDir: baseDir, runDir: runDir}, nil
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// WriteRun writes run metadata to run.json.
func (w *Writer) WriteRun(record RunRecord) error {
	return writeJSON(filepath.Join(w.runDir, "run.json"), record)
}

// WriteVersion writes a version record to versions/v<n>.json.
func (w *Writer) WriteVersion(record VersionRecord) error {
	path := filepath.Join(w.runDir, "versions", fmt.Sprintf("v%d.json", record.Version))
	return writeJSON(path, record)
}

// WriteOutcome writes the run outcome to outcome.json.
func (w *Writer) WriteOutcome(record OutcomeRecord) error {
	return writeJSON(filepath.Join(w.runDir, "outcome.json"), record)
}

// WriteVersionContent stores a version's full text content-addressed by its
// hash, sharded by the first two hash characters. Reverted or superseded
// content stays recoverable after the run.
func (w *Writer) WriteVersionContent(hash, content string) error {
	if len(hash) < 2 {
		return fmt.Errorf("content hash too short: %q", hash)
	}
	dir := filepath.Join(w.runDir, "objects", hash[:2])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, hash+".md"), []byte(content), 0644)
}

// ReadVersionContent fetches stored version content by hash.
func (w *Writer) ReadVersionContent(hash string) (string, error) {
	if len(hash) < 2 {
		return "", fmt.Errorf("content hash too short: %q", hash)
	}
	data, err := os.ReadFile(filepath.Join(w.runDir, "objects", hash[:2], hash+".md"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteArticle writes the final article text to article.md.
func (w *Writer) WriteArticle(content string) error {
	return os.WriteFile(filepath.Join(w.runDir, "article.md"), []byte(content), 0644)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
