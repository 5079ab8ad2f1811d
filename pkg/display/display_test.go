package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/rejoin"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
	"github.com/zuxsoft/RobAccounts/pkg/store"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
		want   string // Type name
	}{
		{
			name:   "default format (table)",
			config: Config{},
			want:   "*display.tableFormatter",
		},
		{
			name:   "table format",
			config: Config{Format: FormatTable},
			want:   "*display.tableFormatter",
		},
		{
			name:   "json format",
			config: Config{Format: FormatJSON},
			want:   "*display.jsonFormatter",
		},
		{
			name:   "simple format",
			config: Config{Format: FormatSimple},
			want:   "*display.simpleFormatter",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			formatter := New(tt.config)
			if formatter == nil {
				t.Fatal("New() returned nil")
			}

			got := fmt.Sprintf("%T", formatter)
			if got != tt.want {
				t.Errorf("New() type = %v, want %v", got, tt.want)
			}
		})
	}
}

func testAccounts() []store.Account {
	return []store.Account{
		{
			Username:     "builderman",
			SessionToken: "_|WARNING:-DO-NOT-SHARE-THIS." + strings.Repeat("a", 200),
			UserID:       156,
			AddedDate:    "2024-03-01 12:00:00",
			Note:         "main",
		},
		{
			Username:     "noob123",
			SessionToken: "_|WARNING:-DO-NOT-SHARE-THIS." + strings.Repeat("b", 200),
		},
	}
}

func TestTableFormatter_FormatAccounts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := New(Config{Format: FormatTable})

	if err := formatter.FormatAccounts(&buf, testAccounts()); err != nil {
		t.Fatalf("FormatAccounts() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Stored Accounts", "builderman", "noob123", "156", "main"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, strings.Repeat("a", 60)) {
		t.Error("output leaked a full session token")
	}
}

func TestFormatAccountsNeverLeaksTokens(t *testing.T) {
	t.Parallel()

	accounts := testAccounts()
	token := accounts[0].SessionToken

	for _, format := range []Format{FormatTable, FormatJSON, FormatSimple} {
		for _, show := range []bool{false, true} {
			var buf bytes.Buffer
			formatter := New(Config{Format: format, ShowTokens: show})

			if err := formatter.FormatAccounts(&buf, accounts); err != nil {
				t.Fatalf("FormatAccounts(%s) error = %v", format, err)
			}
			if strings.Contains(buf.String(), token) {
				t.Errorf("format %s show_tokens=%v leaked the full token", format, show)
			}
		}
	}
}

func TestTableFormatter_ShowTokens(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := New(Config{Format: FormatTable, ShowTokens: true})

	if err := formatter.FormatAccounts(&buf, testAccounts()); err != nil {
		t.Fatalf("FormatAccounts() error = %v", err)
	}
	if !strings.Contains(buf.String(), "...") {
		t.Error("token preview column missing")
	}
}

func TestTableFormatter_EmptyAccounts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := New(Config{Format: FormatTable})

	if err := formatter.FormatAccounts(&buf, nil); err != nil {
		t.Fatalf("FormatAccounts() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No data") {
		t.Errorf("empty list output = %q, want No data", buf.String())
	}
}

func TestJSONFormatter_FormatAccounts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := New(Config{Format: FormatJSON})

	if err := formatter.FormatAccounts(&buf, testAccounts()); err != nil {
		t.Fatalf("FormatAccounts() error = %v", err)
	}

	var views []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &views); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d accounts, want 2", len(views))
	}
	if views[0]["username"] != "builderman" {
		t.Errorf("username = %v, want builderman", views[0]["username"])
	}
	if _, ok := views[0]["cookie"]; ok {
		t.Error("JSON output contains the raw cookie field")
	}
}

func TestFormatStatuses(t *testing.T) {
	t.Parallel()

	statuses := []rejoin.Status{
		{
			Account:     "builderman",
			State:       rejoin.StateMonitoring,
			PlaceID:     189707,
			LastJobID:   "job-1",
			LastChecked: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			Account:    "noob123",
			State:      rejoin.StateFailed,
			PlaceID:    189707,
			RetryCount: 5,
		},
	}

	var buf bytes.Buffer
	if err := New(Config{Format: FormatTable}).FormatStatuses(&buf, statuses); err != nil {
		t.Fatalf("FormatStatuses() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"monitoring", "failed", "job-1", "189707"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := New(Config{Format: FormatSimple}).FormatStatuses(&buf, statuses); err != nil {
		t.Fatalf("FormatStatuses() simple error = %v", err)
	}
	if !strings.Contains(buf.String(), "noob123: failed") {
		t.Errorf("simple output = %q", buf.String())
	}
}

func TestFormatServers(t *testing.T) {
	t.Parallel()

	servers := []roblox.Server{
		{ID: "srv-1", Playing: 3, MaxPlayers: 10, Ping: 42, FPS: 59.9},
		{ID: "srv-2", Playing: 9, MaxPlayers: 10, Ping: 120, FPS: 60},
	}

	var buf bytes.Buffer
	if err := New(Config{Format: FormatTable}).FormatServers(&buf, servers); err != nil {
		t.Fatalf("FormatServers() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"srv-1", "3/10", "42ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCompactOutput(t *testing.T) {
	t.Parallel()

	var normal, compact bytes.Buffer

	if err := New(Config{Format: FormatTable}).FormatAccounts(&normal, testAccounts()); err != nil {
		t.Fatalf("FormatAccounts() error = %v", err)
	}
	if err := New(Config{Format: FormatTable, Compact: true}).FormatAccounts(&compact, testAccounts()); err != nil {
		t.Fatalf("FormatAccounts() compact error = %v", err)
	}

	if compact.Len() >= normal.Len() {
		t.Errorf("compact output (%d bytes) not smaller than normal (%d bytes)",
			compact.Len(), normal.Len())
	}
}
