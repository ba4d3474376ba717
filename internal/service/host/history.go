package host

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/oshokin/package-installer/internal/domain/install"
)

// historyTimeLayout is how start times are shown in the history table.
const historyTimeLayout = "2006-01-02 15:04:05"

// renderHistory prints records as a table.
func renderHistory(w io.Writer, records []*install.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"STARTED", "DURATION", "STATUS", "PACKAGE", "ACTOR", "ENTRIES (WARN/ERR)", "FAULT"})

	for _, record := range records {
		t.AppendRow(table.Row{
			record.StartedAt.Local().Format(historyTimeLayout),
			record.Duration().Round(time.Second).String(),
			string(record.Status),
			record.PackagePath,
			record.Actor.String(),
			entriesColumn(record),
			record.Fault,
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", "TOTAL", len(records), ""})
	t.Render()
}

// entriesColumn renders "entries (warnings/errors)".
func entriesColumn(record *install.Record) string {
	return fmt.Sprintf("%d (%d/%d)", record.Entries, record.Warnings, record.Errors)
}
