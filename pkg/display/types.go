// Package display provides output formatting for accounts and monitors.
//
// It supports multiple output formats (table, JSON, simple text) and
// redacts session tokens unless explicitly asked to show them.
package display

import (
	"io"

	"github.com/zuxsoft/RobAccounts/pkg/rejoin"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
	"github.com/zuxsoft/RobAccounts/pkg/store"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays data in a formatted table.
	FormatTable Format = "table"

	// FormatJSON displays data as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays data in simple text format.
	FormatSimple Format = "simple"
)

// Formatter formats accounts and monitor state for output.
type Formatter interface {
	// FormatAccounts formats the stored accounts. Session tokens never
	// appear in full; at most a redacted preview is shown.
	FormatAccounts(w io.Writer, accounts []store.Account) error

	// FormatStatuses formats rejoin monitor snapshots.
	FormatStatuses(w io.Writer, statuses []rejoin.Status) error

	// FormatServers formats a public server list.
	FormatServers(w io.Writer, servers []roblox.Server) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// ShowTokens enables the redacted token preview column.
	// Default: false.
	ShowTokens bool

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool
}
