package export_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/export"
	"github.com/warp/attendance-engine/generic"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const day generic.DateKey = "2026-03-02"

// eveningSheet: Kim works 18:00-23:00 at 10,000/h with a note that needs
// quoting; Lee has no record.
func eveningSheet(t *testing.T) generic.DaySheet {
	t.Helper()
	n := 0
	e := generic.NewEngine(generic.Options{
		Now:   func() time.Time { return time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC) },
		NewID: func() string { n++; return fmt.Sprintf("id-%d", n) },
	})
	kim, err := e.AddPerson("Kim")
	require.NoError(t, err)
	_, err = e.AddPerson("Lee")
	require.NoError(t, err)

	wage := decimal.NewFromInt(10000)
	_, err = e.UpdatePay(kim.ID, generic.PayUpdate{HourlyWage: &wage})
	require.NoError(t, err)

	for _, cmd := range []generic.Command{
		generic.SetStatusCommand{Date: day, Person: kim.ID, Status: generic.StatusOut},
		generic.SetTimeCommand{Date: day, Person: kim.ID, Field: generic.FieldInTime, Value: "18:00"},
		generic.SetTimeCommand{Date: day, Person: kim.ID, Field: generic.FieldOutTime, Value: "23:00"},
		generic.SetNoteCommand{Date: day, Person: kim.ID, Note: `late, "traffic"`},
	} {
		_, err := e.Execute(cmd)
		require.NoError(t, err)
	}
	return e.Day(day)
}

// =============================================================================
// ROWS
// =============================================================================

func TestBuildRows(t *testing.T) {
	rows := export.BuildRows(eveningSheet(t))
	require.Len(t, rows, 2)

	kim := rows[0]
	assert.Equal(t, "Kim", kim.Name)
	assert.Equal(t, "🏁 퇴근", kim.Status)
	assert.Equal(t, "18:00", kim.InTime)
	assert.Equal(t, "23:00", kim.OutTime)
	assert.Equal(t, []int{540, 540, 150, 150, 150, 150, 60}, kim.Minutes())
	assert.Equal(t, []int64{10000, 37500, 37500, 5000, 80000}, kim.Money())

	lee := rows[1]
	assert.Equal(t, "", lee.Status)
	assert.Equal(t, []int64{0, 0, 0, 0, 0}, lee.Money())
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "✅ 출근", export.StatusLabel(generic.StatusIn))
	assert.Equal(t, "🟦 연차(전일)", export.StatusLabel(generic.StatusLeave))
	assert.Equal(t, "🟪 반차(0.5)", export.StatusLabel(generic.StatusHalf))
	assert.Equal(t, "", export.StatusLabel(generic.StatusNone))
	assert.Equal(t, "mystery", export.StatusLabel("mystery"))
}

func TestWhole_RoundsHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, int64(3), export.Whole(decimal.RequireFromString("2.5")))
	assert.Equal(t, int64(2), export.Whole(decimal.RequireFromString("2.49")))
	assert.Equal(t, int64(8333), export.Whole(decimal.NewFromInt(50000).Div(decimal.NewFromInt(6))))
}

// =============================================================================
// CSV
// =============================================================================

func TestEscape(t *testing.T) {
	tests := map[string]string{
		"plain":            "plain",
		"":                 "",
		"a,b":              `"a,b"`,
		`say "hi"`:         `"say ""hi"""`,
		"two\nlines":       "\"two\nlines\"",
		" leading space":   " leading space",
		"carriage\rreturn": "carriage\rreturn",
	}
	for in, want := range tests {
		assert.Equal(t, want, export.Escape(in), "input %q", in)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, eveningSheet(t)))

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(export.Header, ","), lines[0])
	assert.Equal(t,
		`2026-03-02,Kim,🏁 퇴근,18:00,23:00,540,540,150,150,150,150,60,10000,37500,37500,5000,80000,"late, ""traffic"""`,
		lines[1])
	assert.Equal(t, "2026-03-02,Lee,,,,0,0,0,0,0,0,0,0,0,0,0,0,", lines[2])
	assert.False(t, strings.HasSuffix(buf.String(), "\n"), "no trailing newline")
}

func TestWriteCSV_EmptyRoster(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, generic.DaySheet{Date: day, Settings: generic.DefaultSettings()}))
	assert.Equal(t, strings.Join(export.Header, ","), buf.String())
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "attendance-payroll-2026-03-02.csv", export.CSVFilename(day))
	assert.Equal(t, "attendance-payroll-2026-03-02.xlsx", export.XLSXFilename(day))
}

// =============================================================================
// XLSX
// =============================================================================

func TestWriteXLSX_ReadBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, eveningSheet(t)))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"2026-03-02"}, f.GetSheetList())

	rows, err := f.GetRows("2026-03-02")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, export.Header, rows[0])

	get := func(cell string) string {
		v, err := f.GetCellValue("2026-03-02", cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Kim", get("B2"))
	assert.Equal(t, "540", get("F2"))
	assert.Equal(t, "80000", get("Q2"))
	assert.Equal(t, `late, "traffic"`, get("R2"))
	assert.Equal(t, "Lee", get("B3"))
	assert.Equal(t, "0", get("Q3"))

	// Header styling and column widths made it into the workbook
	width, err := f.GetColWidth("2026-03-02", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(16), width)
	styleID, err := f.GetCellStyle("2026-03-02", "A1")
	require.NoError(t, err)
	assert.NotZero(t, styleID)
}
