package report

import (
	"fmt"
	"io"
	"time"

	"netbox-sync/core/reconcile"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render writes one row per stage and a totals footer.
func Render(w io.Writer, s *reconcile.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("%s", title(s))
	t.AppendHeader(table.Row{"Stage", "Created", "Updated", "Unchanged", "Skipped", "Deleted", "Duration"})
	for _, st := range s.Stages {
		t.AppendRow(row(st))
	}
	t.AppendFooter(row(s.Totals()))
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	if s.Error != "" {
		t.SetCaption("%s %s", text.FgRed.Sprint("failed:"), s.Error)
	}
	t.Render()
}

func title(s *reconcile.Summary) string {
	mode := ""
	if s.DryRun {
		mode = " (dry run)"
	}
	return fmt.Sprintf("%s %s%s run %s", s.Kind, s.Cluster, mode, s.RunID)
}

func row(st reconcile.StageSummary) table.Row {
	return table.Row{st.Stage, st.Created, st.Updated, st.Unchanged, st.Skipped, st.Deleted, st.Duration.Round(time.Millisecond).String()}
}
