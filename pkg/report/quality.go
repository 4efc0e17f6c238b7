package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/services"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// WriteQualityText renders the quality report as aligned plain text.
func WriteQualityText(out io.Writer, q *services.QualityReport, v models.Vocabulary) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Elements without section:\t%d\n", q.WithoutSection)
	fmt.Fprintf(tw, "Elements without floor:\t%d\n", q.WithoutFloor)
	fmt.Fprintf(tw, "Unresolved parameter titles:\t%d\n", q.UnresolvedTitles)

	if len(q.Missing) > 0 {
		fmt.Fprintf(tw, "\nObjects without a model stage:\n")
		for _, m := range q.Missing {
			fmt.Fprintf(tw, "%s\t%s\n", m.ObjectID, m.Stage)
		}
	}
	if len(q.DuplicateSections) > 0 {
		fmt.Fprintf(tw, "\nDuplicate %s titles:\n", strings.ToLower(v.Section))
		for _, d := range q.DuplicateSections {
			fmt.Fprintf(tw, "%s\t%s\n", d.ObjectID, d.Title)
		}
	}

	sections := []struct {
		title string
		t     *table.Table
	}{
		{"Elements per model version", q.ModelVersions},
		{v.SectionMorphotype + " per " + strings.ToLower(v.Section), q.SectionMorphotypes},
		{"Rows without section metadata", q.UnmatchedSections},
		{"Rows without floor metadata", q.UnmatchedFloors},
	}
	for _, s := range sections {
		fmt.Fprintf(tw, "\n%s:\n", s.title)
		writeTabTable(tw, s.t)
	}
	return tw.Flush()
}

func writeTabTable(tw io.Writer, t *table.Table) {
	if t == nil || t.Len() == 0 {
		fmt.Fprintln(tw, "(none)")
		return
	}
	cols := t.Columns()
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, r := range t.Rows() {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = r.String(c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
}
