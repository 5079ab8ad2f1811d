package procs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// identityWindow is how long after process creation the client writes its
// startup log. Logs stamped earlier than the process, or later than the
// window, belong to other instances.
const identityWindow = 10 * time.Second

// identityReadLimit caps how much of a log is read; the userid marker sits
// in the startup section.
const identityReadLimit = 50000

var logTimestampRe = regexp.MustCompile(`(\d{8}T\d{6}Z)`)

// logReader implements LogReader over the client's logs directory. The
// client writes one `*_last.log` per instance, named with a UTC timestamp,
// containing a `userid:` marker once authenticated.
type logReader struct {
	dir    string
	logger logger.Logger

	mu   sync.Mutex
	used map[string]bool // consumed log paths
}

// NewLogReader creates a log reader over the given logs directory.
func NewLogReader(dir string, log logger.Logger) LogReader {
	return &logReader{
		dir:    dir,
		logger: log,
		used:   make(map[string]bool),
	}
}

// Identity implements LogReader.Identity.
func (r *logReader) Identity(pid int, createTime time.Time) (int64, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read logs directory: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	type candidate struct {
		path string
		diff time.Duration
	}
	var candidates []candidate

	createUTC := createTime.UTC()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_last.log") {
			continue
		}

		path := filepath.Join(r.dir, entry.Name())
		if r.used[path] {
			continue
		}

		m := logTimestampRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		logTime, parseErr := time.Parse("20060102T150405Z", m[1])
		if parseErr != nil {
			continue
		}

		diff := logTime.Sub(createUTC)
		if diff < 0 || diff > identityWindow {
			continue
		}

		candidates = append(candidates, candidate{path: path, diff: diff})
	}

	// Closest log after process creation first.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].diff < candidates[j].diff
	})

	for _, c := range candidates {
		userID, err := r.extractUserID(c.path)
		if err != nil {
			r.logger.Debug("failed to read log", "path", c.path, "error", err)
			continue
		}
		if userID == 0 {
			continue
		}

		r.used[c.path] = true
		r.logger.Debug("identified process from log",
			"pid", pid,
			"user_id", userID,
			"log", filepath.Base(c.path))
		return userID, nil
	}

	return 0, fmt.Errorf("%w: pid %d", ErrNoIdentity, pid)
}

// extractUserID pulls the userid marker out of a log file's startup section.
func (r *logReader) extractUserID(path string) (int64, error) {
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			r.logger.Debug("failed to close log file", "path", path, "error", closeErr)
		}
	}()

	buf := make([]byte, identityReadLimit)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	content := string(buf[:n])

	_, after, found := strings.Cut(content, "userid:")
	if !found {
		return 0, nil
	}

	value, _, _ := strings.Cut(after, ",")
	userID, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, nil
	}

	return userID, nil
}
