package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Options configures the process-wide logger. Zero values fall back to
// the same defaults config.Load applies.
type Options struct {
	Dir            string
	Level          slog.Level
	RetentionWeeks int
	MaxFileSize    int64
}

// ParseLevel maps a LOG_LEVEL string to a slog level. Unknown values
// resolve to info, matching the config default.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RotatingLogger is an io.Writer that rotates log files weekly and,
// when a size limit is set, spills into numbered overflow files within
// the week.
type RotatingLogger struct {
	dir         string
	retention   time.Duration
	maxFileSize int64

	mu   sync.Mutex
	file *os.File
	week string
	size int64

	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

// NewRotatingLogger creates a rotating writer. maxFileSize <= 0
// disables size-based rotation.
func NewRotatingLogger(opts Options) *RotatingLogger {
	weeks := opts.RetentionWeeks
	if weeks <= 0 {
		weeks = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		dir:         opts.Dir,
		retention:   time.Duration(weeks) * 7 * 24 * time.Hour,
		maxFileSize: opts.MaxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// getWeekKey returns the ISO week key, YYYY-Www.
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(time.Now())
	switch {
	case rl.file == nil || rl.week != week:
		if err := rl.rotate(week, false); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.size+int64(len(p)) > rl.maxFileSize:
		if err := rl.rotate(week, true); err != nil {
			return 0, err
		}
	}

	n, err := rl.file.Write(p)
	rl.size += int64(n)
	return n, err
}

// rotate opens the next log file. Caller holds rl.mu.
func (rl *RotatingLogger) rotate(week string, bySize bool) error {
	if rl.file != nil {
		if err := rl.file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "closing log file during rotation: %v\n", err)
		}
		rl.file = nil
	}

	name, fresh := rl.targetFile(week, bySize)
	path := filepath.Join(rl.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	rl.file = file
	rl.week = week
	rl.size = 0
	if !fresh {
		if info, err := file.Stat(); err == nil {
			rl.size = info.Size()
		}
	}
	return nil
}

var overflowPattern = regexp.MustCompile(`annotator-\d{4}-W\d{2}_(\d{2})\.log$`)

// targetFile picks the file for this week: the base file while it has
// room, otherwise the latest overflow file or a fresh numbered one.
func (rl *RotatingLogger) targetFile(week string, bySize bool) (string, bool) {
	base := fmt.Sprintf("annotator-%s.log", week)

	if !bySize {
		info, err := os.Stat(filepath.Join(rl.dir, base))
		if err != nil || rl.maxFileSize <= 0 || info.Size() < rl.maxFileSize {
			return base, false
		}
	}

	highest := 0
	var lastName string
	var lastSize int64
	matches, _ := filepath.Glob(filepath.Join(rl.dir, fmt.Sprintf("annotator-%s_??.log", week)))
	for _, match := range matches {
		m := overflowPattern.FindStringSubmatch(filepath.Base(match))
		if len(m) < 2 {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		if num > highest {
			highest = num
			lastName = filepath.Base(match)
			lastSize = 0
			if info, err := os.Stat(match); err == nil {
				lastSize = info.Size()
			}
		}
	}

	if lastName != "" && lastSize < rl.maxFileSize {
		return lastName, false
	}
	return fmt.Sprintf("annotator-%s_%02d.log", week, highest+1), true
}

// cleanupOldLogs removes annotator log files older than the retention
// window. Other files in the directory are left alone.
func (rl *RotatingLogger) cleanupOldLogs() error {
	entries, err := os.ReadDir(rl.dir)
	if err != nil {
		return fmt.Errorf("reading log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "annotator-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rl.dir, name)); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		// Stderr, not the logger itself, to avoid recursing into Write.
		fmt.Fprintf(os.Stderr, "removed %d expired log files\n", removed)
	}
	return nil
}

// Close stops the cleanup goroutine and closes the current file.
func (rl *RotatingLogger) Close() error {
	rl.cancel()
	select {
	case <-rl.cleanupDone:
	case <-time.After(time.Second):
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file != nil {
		err := rl.file.Close()
		rl.file = nil
		return err
	}
	return nil
}

// SetupLogger builds a slog logger writing text to the console and JSON
// to the rotating file, both at the configured level. When the log
// directory cannot be used the logger degrades to console only.
func SetupLogger(opts Options) *slog.Logger {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: opts.Level,
	})

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		console := slog.New(consoleHandler)
		console.Error("Log directory unavailable, console only", "dir", opts.Dir, "error", err)
		return console
	}

	rotating := NewRotatingLogger(opts)
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		defer close(rotating.cleanupDone)
		for {
			select {
			case <-rotating.ctx.Done():
				return
			case <-ticker.C:
				if err := rotating.cleanupOldLogs(); err != nil {
					fmt.Fprintf(os.Stderr, "log cleanup: %v\n", err)
				}
			}
		}
	}()

	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{
		Level: opts.Level,
	})

	return slog.New(&teeHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
}

// teeHandler fans records out to every handler that accepts the level.
type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range t.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}
