package display

import (
	"fmt"
	"io"

	"github.com/zuxsoft/RobAccounts/pkg/rejoin"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
	"github.com/zuxsoft/RobAccounts/pkg/store"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatAccounts implements Formatter.FormatAccounts.
func (f *simpleFormatter) FormatAccounts(w io.Writer, accounts []store.Account) error {
	for i, v := range accountViews(accounts, f.config.ShowTokens) {
		line := fmt.Sprintf("%d. %s", i+1, v.Username)
		if v.UserID != 0 {
			line += fmt.Sprintf(" (id %d)", v.UserID)
		}
		if v.Note != "" {
			line += " - " + v.Note
		}
		if v.TokenPreview != "" {
			line += " [" + v.TokenPreview + "]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatStatuses implements Formatter.FormatStatuses.
func (f *simpleFormatter) FormatStatuses(w io.Writer, statuses []rejoin.Status) error {
	for _, v := range statusViews(statuses) {
		if _, err := fmt.Fprintf(w, "%s: %s (place %d, retries %d)\n",
			v.Account, v.State, v.PlaceID, v.RetryCount); err != nil {
			return err
		}
	}
	return nil
}

// FormatServers implements Formatter.FormatServers.
func (f *simpleFormatter) FormatServers(w io.Writer, servers []roblox.Server) error {
	for i, srv := range servers {
		if _, err := fmt.Fprintf(w, "#%d: %s - %d/%d players, %dms\n",
			i+1, srv.ID, srv.Playing, srv.MaxPlayers, srv.Ping); err != nil {
			return err
		}
	}
	return nil
}
