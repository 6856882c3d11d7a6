package export

import (
	"io"
	"strings"

	"github.com/warp/attendance-engine/generic"
)

// Escape quotes a cell when it contains a comma, a double quote or a newline.
// Embedded quotes are doubled.
func Escape(v string) string {
	if !strings.ContainsAny(v, ",\"\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// WriteCSV writes the sheet as CSV: a header line, then one line per person,
// joined by "\n" with no trailing newline.
func WriteCSV(w io.Writer, sheet generic.DaySheet) error {
	lines := []string{strings.Join(Header, ",")}
	for _, r := range BuildRows(sheet) {
		cells := r.Strings()
		for i, c := range cells {
			cells[i] = Escape(c)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

// CSVFilename is the download name for a date's CSV export.
func CSVFilename(date generic.DateKey) string {
	return "attendance-payroll-" + date.String() + ".csv"
}
