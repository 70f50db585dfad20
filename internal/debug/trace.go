package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TraceLogger writes one JSON object per line describing each step of a
// decode or update run
type TraceLogger struct {
	mu       sync.Mutex
	file     *os.File
	enabled  bool
	filename string
}

// NewTraceLogger creates a trace logger. An empty filename picks a
// timestamped file in the temp directory.
func NewTraceLogger(enabled bool, filename string) (*TraceLogger, error) {
	if !enabled {
		return &TraceLogger{enabled: false}, nil
	}

	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join(os.TempDir(), fmt.Sprintf("odata_vdm_trace_%s.log", timestamp))
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	logger := &TraceLogger{
		file:     file,
		enabled:  enabled,
		filename: filename,
	}

	logger.Log("TRACE", "Trace logging started", map[string]any{
		"filename": filename,
		"pid":      os.Getpid(),
	})

	return logger, nil
}

// Log writes a trace entry
func (t *TraceLogger) Log(level, message string, data any) {
	if !t.enabled || t.file == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry := map[string]any{
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"level":     level,
		"message":   message,
	}
	if data != nil {
		entry["data"] = data
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[TRACE ERROR] Failed to marshal entry: %v\n", err)
		return
	}
	fmt.Fprintf(t.file, "%s\n", jsonData)
	t.file.Sync()
}

// LogPayload records a wire tree at a named stage ("input", "create",
// "patch", ...). Sensitive values are masked before they reach the file.
func (t *TraceLogger) LogPayload(stage string, payload any) {
	if !t.enabled {
		return
	}
	t.Log("PAYLOAD", stage, MaskPayload(payload))
}

// LogError logs an error with context
func (t *TraceLogger) LogError(context string, err error, data any) {
	t.Log("ERROR", context, map[string]any{
		"error": err.Error(),
		"data":  data,
	})
}

// GetFilename returns the trace filename
func (t *TraceLogger) GetFilename() string {
	return t.filename
}

// Close closes the trace file
func (t *TraceLogger) Close() error {
	if t.file != nil {
		t.Log("TRACE", "Trace logging stopped", nil)
		err := t.file.Close()
		t.file = nil
		return err
	}
	return nil
}
