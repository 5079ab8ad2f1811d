package procs

import (
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

const clientProcessName = "RobloxPlayerBeta.exe"

// osLister implements Lister by shelling out to the platform's process
// tools: tasklist/taskkill on windows, ps/kill elsewhere (client under Wine
// still shows up in ps output by name).
type osLister struct {
	logger logger.Logger

	// run is injectable for tests.
	run func(name string, args ...string) (string, error)
}

// NewLister creates the default process lister for this OS.
func NewLister(log logger.Logger) Lister {
	return &osLister{
		logger: log,
		run: func(name string, args ...string) (string, error) {
			out, err := exec.Command(name, args...).Output()
			return string(out), err
		},
	}
}

var tasklistPIDRe = regexp.MustCompile(`RobloxPlayerBeta\.exe\s+(\d+)`)

// PIDs implements Lister.PIDs.
func (l *osLister) PIDs() (map[int]struct{}, error) {
	pids := make(map[int]struct{})

	if runtime.GOOS == "windows" {
		out, err := l.run("tasklist", "/FI", "IMAGENAME eq "+clientProcessName)
		if err != nil {
			return nil, fmt.Errorf("tasklist failed: %w", err)
		}
		for _, m := range tasklistPIDRe.FindAllStringSubmatch(out, -1) {
			pid, convErr := strconv.Atoi(m[1])
			if convErr != nil {
				continue
			}
			pids[pid] = struct{}{}
		}
		return pids, nil
	}

	out, err := l.run("ps", "-eo", "pid=,comm=")
	if err != nil {
		return nil, fmt.Errorf("ps failed: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if !strings.EqualFold(fields[1], clientProcessName) {
			continue
		}
		pid, convErr := strconv.Atoi(fields[0])
		if convErr != nil {
			continue
		}
		pids[pid] = struct{}{}
	}
	return pids, nil
}

// Alive implements Lister.Alive.
func (l *osLister) Alive(pid int) bool {
	if runtime.GOOS == "windows" {
		out, err := l.run("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid))
		if err != nil {
			return false
		}
		return strings.Contains(out, strconv.Itoa(pid)) &&
			strings.Contains(out, clientProcessName)
	}

	out, err := l.run("ps", "-p", strconv.Itoa(pid), "-o", "comm=")
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(out), clientProcessName)
}

// Kill implements Lister.Kill.
func (l *osLister) Kill(pid int) error {
	if runtime.GOOS == "windows" {
		if _, err := l.run("taskkill", "/F", "/PID", strconv.Itoa(pid)); err != nil {
			return fmt.Errorf("taskkill failed for pid %d: %w", pid, err)
		}
		return nil
	}

	if _, err := l.run("kill", "-9", strconv.Itoa(pid)); err != nil {
		return fmt.Errorf("kill failed for pid %d: %w", pid, err)
	}
	return nil
}

// CreateTime implements Lister.CreateTime.
func (l *osLister) CreateTime(pid int) (time.Time, error) {
	if runtime.GOOS == "windows" {
		// CreationDate comes back as a CIM datetime, local time.
		out, err := l.run("wmic", "process", "where",
			fmt.Sprintf("ProcessId=%d", pid), "get", "CreationDate", "/value")
		if err != nil {
			return time.Time{}, fmt.Errorf("wmic failed for pid %d: %w", pid, err)
		}
		for _, line := range strings.Split(out, "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "CreationDate=") {
				continue
			}
			raw := strings.TrimPrefix(line, "CreationDate=")
			if len(raw) < 14 {
				break
			}
			t, parseErr := time.ParseInLocation("20060102150405", raw[:14], time.Local)
			if parseErr != nil {
				return time.Time{}, fmt.Errorf("bad creation date %q: %w", raw, parseErr)
			}
			return t.UTC(), nil
		}
		return time.Time{}, fmt.Errorf("no creation date for pid %d", pid)
	}

	out, err := l.run("ps", "-p", strconv.Itoa(pid), "-o", "lstart=")
	if err != nil {
		return time.Time{}, fmt.Errorf("ps failed for pid %d: %w", pid, err)
	}
	t, parseErr := time.ParseInLocation("Mon Jan 2 15:04:05 2006", strings.TrimSpace(out), time.Local)
	if parseErr != nil {
		return time.Time{}, fmt.Errorf("bad start time %q: %w", out, parseErr)
	}
	return t.UTC(), nil
}
