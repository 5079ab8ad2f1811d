package display

import (
	"encoding/json"
	"io"

	"github.com/zuxsoft/RobAccounts/pkg/rejoin"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
	"github.com/zuxsoft/RobAccounts/pkg/store"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

func (f *jsonFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatAccounts implements Formatter.FormatAccounts.
func (f *jsonFormatter) FormatAccounts(w io.Writer, accounts []store.Account) error {
	return f.encode(w, accountViews(accounts, f.config.ShowTokens))
}

// FormatStatuses implements Formatter.FormatStatuses.
func (f *jsonFormatter) FormatStatuses(w io.Writer, statuses []rejoin.Status) error {
	return f.encode(w, statusViews(statuses))
}

// FormatServers implements Formatter.FormatServers.
func (f *jsonFormatter) FormatServers(w io.Writer, servers []roblox.Server) error {
	return f.encode(w, servers)
}
