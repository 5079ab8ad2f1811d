package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zuxsoft/RobAccounts/pkg/rejoin"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
	"github.com/zuxsoft/RobAccounts/pkg/store"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatAccounts implements Formatter.FormatAccounts.
func (f *tableFormatter) FormatAccounts(w io.Writer, accounts []store.Account) error {
	if err := writeHeader(w, "Stored Accounts", f.config.Compact); err != nil {
		return err
	}

	header := []string{"#", "Username", "User ID", "Added", "Note"}
	if f.config.ShowTokens {
		header = append(header, "Token")
	}

	views := accountViews(accounts, f.config.ShowTokens)
	rows := make([][]string, len(views))
	for i, v := range views {
		userID := ""
		if v.UserID != 0 {
			userID = strconv.FormatInt(v.UserID, 10)
		}
		row := []string{
			strconv.Itoa(i + 1),
			v.Username,
			userID,
			v.AddedDate,
			v.Note,
		}
		if f.config.ShowTokens {
			row = append(row, v.TokenPreview)
		}
		rows[i] = row
	}

	return f.writeTable(w, header, rows)
}

// FormatStatuses implements Formatter.FormatStatuses.
func (f *tableFormatter) FormatStatuses(w io.Writer, statuses []rejoin.Status) error {
	if err := writeHeader(w, "Rejoin Monitors", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Account", "State", "Place", "Retries", "Server", "Last Check"}

	views := statusViews(statuses)
	rows := make([][]string, len(views))
	for i, v := range views {
		rows[i] = []string{
			v.Account,
			v.State,
			strconv.FormatInt(v.PlaceID, 10),
			strconv.Itoa(v.RetryCount),
			v.LastJobID,
			v.LastChecked,
		}
	}

	return f.writeTable(w, header, rows)
}

// FormatServers implements Formatter.FormatServers.
func (f *tableFormatter) FormatServers(w io.Writer, servers []roblox.Server) error {
	if err := writeHeader(w, "Public Servers", f.config.Compact); err != nil {
		return err
	}

	header := []string{"#", "Server ID", "Players", "Ping", "FPS"}

	rows := make([][]string, len(servers))
	for i, srv := range servers {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			srv.ID,
			fmt.Sprintf("%d/%d", srv.Playing, srv.MaxPlayers),
			fmt.Sprintf("%dms", srv.Ping),
			fmt.Sprintf("%.0f", srv.FPS),
		}
	}

	return f.writeTable(w, header, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	for i, cell := range cells {
		if i > 0 {
			if _, err := fmt.Fprint(w, gap); err != nil {
				return err
			}
		}
		format := fmt.Sprintf("%%-%ds", widths[i])
		if _, err := fmt.Fprintf(w, format, cell); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
