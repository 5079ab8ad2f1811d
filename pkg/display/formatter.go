package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/login"
	"github.com/zuxsoft/RobAccounts/pkg/rejoin"
	"github.com/zuxsoft/RobAccounts/pkg/store"
)

// New creates a new formatter based on configuration.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// accountView is the display shape of one account. The full session token
// never leaves the store through this package.
type accountView struct {
	Username     string `json:"username"`
	UserID       int64  `json:"user_id,omitempty"`
	TokenPreview string `json:"token_preview,omitempty"`
	AddedDate    string `json:"added_date,omitempty"`
	Note         string `json:"note,omitempty"`
}

// statusView is the display shape of one monitor snapshot.
type statusView struct {
	Account     string `json:"account"`
	State       string `json:"state"`
	PlaceID     int64  `json:"place_id"`
	RetryCount  int    `json:"retry_count"`
	LastJobID   string `json:"last_job_id,omitempty"`
	LastChecked string `json:"last_checked,omitempty"`
}

func accountViews(accounts []store.Account, showTokens bool) []accountView {
	views := make([]accountView, len(accounts))
	for i, acct := range accounts {
		views[i] = accountView{
			Username:  acct.Username,
			UserID:    acct.UserID,
			AddedDate: acct.AddedDate,
			Note:      acct.Note,
		}
		if showTokens {
			views[i].TokenPreview = login.PreviewToken(acct.SessionToken)
		}
	}
	return views
}

func statusViews(statuses []rejoin.Status) []statusView {
	views := make([]statusView, len(statuses))
	for i, s := range statuses {
		views[i] = statusView{
			Account:    s.Account,
			State:      s.State.String(),
			PlaceID:    s.PlaceID,
			RetryCount: s.RetryCount,
			LastJobID:  s.LastJobID,
		}
		if !s.LastChecked.IsZero() {
			views[i].LastChecked = s.LastChecked.Format(time.RFC3339)
		}
	}
	return views
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	return err
}
