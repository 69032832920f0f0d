package mealplanner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// CoordinationLogger records one entry per workflow step. Implementations
// must be safe for concurrent use because producers log from goroutines.
type CoordinationLogger interface {
	LogStep(step StepLog) error
}

// NewCoordinationLogFilePath returns a file path based on a cleaned up model name or id to make easier to identify specific logs produced with various models.
func NewCoordinationLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.NewReplacer(":", "_", "/", "_").Replace(strings.ToLower(model)),
	)
}

// StepLog is a single node execution within a run.
type StepLog struct {
	RunID        string    `json:"run_id"`
	Step         int       `json:"step"`
	Node         string    `json:"node"`
	Day          int       `json:"day"`
	MealType     MealType  `json:"meal_type"`
	RetryCount   int       `json:"retry_count"`
	Timestamp    time.Time `json:"timestamp"`
	OracleInput  string    `json:"oracle_input,omitempty"`
	OracleOutput string    `json:"oracle_output,omitempty"`
	Events       []Event   `json:"events,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// FileCoordinationLogger accumulates steps and writes them on Flush.
type FileCoordinationLogger struct {
	mu     sync.Mutex
	steps  []StepLog
	writer io.Writer
}

func NewFileCoordinationLogger(writer io.Writer) *FileCoordinationLogger {
	return &FileCoordinationLogger{
		steps:  make([]StepLog, 0),
		writer: writer,
	}
}

func (l *FileCoordinationLogger) LogStep(step StepLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, step)
	return nil
}

// Flush writes every buffered step to the writer and clears the buffer.
func (l *FileCoordinationLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"coordination_session": map[string]any{
			"timestamp": time.Now(),
			"steps":     l.steps,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal coordination log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write coordination log: %w", err)
	}

	l.steps = l.steps[:0]
	return nil
}

// Len reports how many steps are buffered.
func (l *FileCoordinationLogger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.steps)
}

type NoOpCoordinationLogger struct{}

func NewNoOpCoordinationLogger() *NoOpCoordinationLogger {
	return &NoOpCoordinationLogger{}
}

func (nop *NoOpCoordinationLogger) LogStep(StepLog) error {
	return nil
}

// StdoutCoordinationLogger logs each step as a JSON line (for Lambda/CloudWatch)
type StdoutCoordinationLogger struct {
	mu  sync.Mutex
	out io.Writer
}

func NewStdoutCoordinationLogger() *StdoutCoordinationLogger {
	return &StdoutCoordinationLogger{out: os.Stdout}
}

func (l *StdoutCoordinationLogger) LogStep(step StepLog) error {
	data, err := json.Marshal(step)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
