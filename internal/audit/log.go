package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/codefionn/directguard/internal/logger"
	"github.com/codefionn/directguard/internal/sanitize"
)

// LogFileName is the audit trail location relative to the workspace root.
const LogFileName = ".direct/audit.log"

// Log appends audit records to a workspace-local JSONL file. The file is
// opened in append mode and closed on every write; no handle is held across
// calls, so short-lived concurrent invocations only race at the level of
// single appended lines.
type Log struct {
	path      string
	sanitizer *sanitize.Sanitizer
	logFull   bool
}

// New creates a Log for the given workspace root. When logFull is false the
// cmd field stores the sanitized text instead of the raw command.
func New(workspace string, s *sanitize.Sanitizer, logFull bool) *Log {
	return &Log{
		path:      filepath.Join(workspace, filepath.FromSlash(LogFileName)),
		sanitizer: s,
		logFull:   logFull,
	}
}

// Path returns the audit log file location.
func (l *Log) Path() string {
	return l.path
}

// Record appends one entry. The sanitized command is always derived from the
// full text via PII redaction. Append failures never propagate: audit is
// best-effort relative to the primary operation, so they are only logged.
func (l *Log) Record(sessionID, tool, fullCmd, status string, extra Extra) {
	sanitized := l.sanitizer.RedactPII(fullCmd)

	cmd := fullCmd
	if !l.logFull {
		cmd = sanitized
	}

	rec := Record{
		Timestamp:        time.Now().UTC(),
		SessionID:        sessionID,
		Tool:             tool,
		Command:          cmd,
		CommandSanitized: sanitized,
		CommandHash:      fmt.Sprintf("%016x", xxhash.Sum64String(fullCmd)),
		Status:           status,
		DurationMS:       extra.Duration.Milliseconds(),
		Error:            extra.Error,
		BlockReason:      extra.BlockReason,
		Bytes:            extra.Bytes,
		Lines:            extra.Lines,
	}

	if err := l.append(rec); err != nil {
		logger.Warn("audit: failed to append record for tool %s: %v", tool, err)
	}
}

func (l *Log) append(rec Record) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize audit record: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// Query reads the whole file and returns records matching the filter in
// append order. Malformed lines are skipped, never fatal.
func (l *Log) Query(filter Filter) ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	var records []Record
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			logger.Debug("audit: skipping malformed line: %v", err)
			continue
		}
		records = append(records, rec)
	}

	records = applyFilter(records, filter)
	return records, nil
}

func applyFilter(records []Record, filter Filter) []Record {
	if filter.Tool != "" {
		records = keep(records, func(r Record) bool { return r.Tool == filter.Tool })
	}
	if filter.Status != "" {
		records = keep(records, func(r Record) bool { return r.Status == filter.Status })
	}
	if !filter.Since.IsZero() {
		records = keep(records, func(r Record) bool { return !r.Timestamp.Before(filter.Since) })
	}
	// lastN runs last, over the already-filtered result
	if filter.LastN > 0 && len(records) > filter.LastN {
		records = records[len(records)-filter.LastN:]
	}
	return records
}

func keep(records []Record, pred func(Record) bool) []Record {
	out := records[:0:0]
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Export writes matching records to a CSV file. The command column is always
// cmd_sanitized, regardless of how the log was configured; exporting the raw
// command is not an option.
func (l *Log) Export(path string, filter Filter) error {
	records, err := l.Query(filter)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ts", "sid", "tool", "cmd_sanitized", "status"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.Timestamp.Format(time.RFC3339),
			rec.SessionID,
			rec.Tool,
			rec.CommandSanitized,
			rec.Status,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Stats aggregates the unfiltered audit trail.
func (l *Log) Stats() (*Stats, error) {
	records, err := l.Query(Filter{})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalEntries: len(records),
		ByTool:       make(map[string]int),
		ByStatus:     make(map[string]int),
		BySession:    make(map[string]int),
	}

	for _, rec := range records {
		if stats.First.IsZero() || rec.Timestamp.Before(stats.First) {
			stats.First = rec.Timestamp
		}
		if rec.Timestamp.After(stats.Last) {
			stats.Last = rec.Timestamp
		}
		stats.ByTool[rec.Tool]++
		stats.ByStatus[rec.Status]++
		stats.BySession[rec.SessionID]++
	}

	return stats, nil
}
