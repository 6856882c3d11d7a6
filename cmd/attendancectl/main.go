// attendancectl is an offline companion to the server: it calculates a
// single shift, and reads backup files to export a day or report leave
// without a running server.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/attendance-engine/export"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/timeoff"
)

const appVersion = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "attendancectl",
		Short:         "Attendance and payroll tools (offline)",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate("attendancectl v{{.Version}}\n")

	root.AddCommand(newCalcCmd(), newExportCmd(), newLeaveCmd(), newInspectCmd())
	return root
}

// =============================================================================
// calc
// =============================================================================

func newCalcCmd() *cobra.Command {
	var (
		inStr, outStr string
		wageStr       string
		monthlyStr    string
		settingsPath  string
		preset        string
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate lateness, overtime and night pay for one shift",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(settingsPath, preset)
			if err != nil {
				return err
			}

			p := generic.Person{Name: "-", PayType: generic.PayHourly}
			if monthlyStr != "" {
				base, err := decimal.NewFromString(monthlyStr)
				if err != nil {
					return fmt.Errorf("--monthly: %w", err)
				}
				p.PayType = generic.PayMonthly
				p.MonthlyBase = base
			} else {
				wage, err := decimal.NewFromString(wageStr)
				if err != nil {
					return fmt.Errorf("--wage: %w", err)
				}
				p.HourlyWage = wage
			}

			if _, ok := generic.ToMinutes(inStr); !ok {
				return fmt.Errorf("--in must be HH:MM")
			}
			if _, ok := generic.ToMinutes(outStr); !ok {
				return fmt.Errorf("--out must be HH:MM")
			}
			rec := generic.DayRecord{
				Status:  generic.StatusOut,
				InTime:  generic.NormalizeClock(inStr),
				OutTime: generic.NormalizeClock(outStr),
			}
			printCalc(cmd.OutOrStdout(), generic.Calculate(p, rec, settings), settings)
			return nil
		},
	}

	cmd.Flags().StringVar(&inStr, "in", "", "Clock-in HH:MM")
	cmd.Flags().StringVar(&outStr, "out", "", "Clock-out HH:MM (earlier than --in means next day)")
	cmd.Flags().StringVar(&wageStr, "wage", "0", "Hourly wage")
	cmd.Flags().StringVar(&monthlyStr, "monthly", "", "Monthly base (switches to monthly pay)")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "Settings JSON file")
	cmd.Flags().StringVar(&preset, "preset", "", "Settings preset: "+strings.Join(factory.PresetNames, ", "))
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}

func loadSettings(path, preset string) (generic.Settings, error) {
	f := factory.NewSettingsFactory()
	switch {
	case path != "":
		return f.FromFile(path)
	case preset != "":
		js := factory.PresetJSON(preset)
		if js == "" {
			return generic.Settings{}, fmt.Errorf("unknown preset %q", preset)
		}
		return f.ParseSettings(js)
	}
	return generic.DefaultSettings(), nil
}

func printCalc(w io.Writer, c generic.PayrollResult, s generic.Settings) {
	fmt.Fprintf(w, "Hourly wage:   %s\n", c.HourlyWage.Round(2))
	fmt.Fprintf(w, "Late:          %s (raw %d min)\n", generic.FormatDuration(c.LateRounded), c.LateRaw)
	fmt.Fprintf(w, "OT tier 1:     %s (raw %d min) x%s = %d\n",
		generic.FormatDuration(c.OT1Rounded), c.OT1Raw, s.OT1Multiplier, export.Whole(c.PayOT1))
	fmt.Fprintf(w, "OT tier 2:     %s (raw %d min) x%s = %d\n",
		generic.FormatDuration(c.OT2Rounded), c.OT2Raw, s.OT2Multiplier, export.Whole(c.PayOT2))
	fmt.Fprintf(w, "Night extra:   %s x%s = %d\n",
		generic.FormatDuration(c.NightRaw), s.NightExtraMultiplier, export.Whole(c.PayNight))
	fmt.Fprintf(w, "Total:         %d\n", export.Whole(c.PayTotal))
}

// =============================================================================
// export
// =============================================================================

func newExportCmd() *cobra.Command {
	var (
		backupPath string
		dateStr    string
		format     string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one date of a backup file as CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadBackup(backupPath)
			if err != nil {
				return err
			}
			date := engine.Selected()
			if dateStr != "" {
				if date, err = generic.ParseDateKey(dateStr); err != nil {
					return err
				}
			}
			if err := engine.CheckDate(date); err != nil {
				return err
			}

			write := export.WriteCSV
			name := export.CSVFilename(date)
			switch format {
			case "csv":
			case "xlsx":
				write = export.WriteXLSX
				name = export.XLSXFilename(date)
			default:
				return fmt.Errorf("unknown format %q (csv or xlsx)", format)
			}

			if outPath == "-" {
				return write(cmd.OutOrStdout(), engine.Day(date))
			}
			if outPath == "" {
				outPath = name
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := write(f, engine.Day(date)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&backupPath, "backup", "", "Backup JSON file")
	cmd.Flags().StringVar(&dateStr, "date", "", "Date YYYY-MM-DD (default: the backup's selected date)")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file, - for stdout (default: derived from date)")
	cmd.MarkFlagRequired("backup")
	return cmd
}

// =============================================================================
// leave
// =============================================================================

func newLeaveCmd() *cobra.Command {
	var backupPath, dateStr string

	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Report annual leave usage for everyone in a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadBackup(backupPath)
			if err != nil {
				return err
			}
			date := engine.Selected()
			if dateStr != "" {
				if date, err = generic.ParseDateKey(dateStr); err != nil {
					return err
				}
			}

			acct := timeoff.NewAccountant(engine)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Leave %s\n", generic.PeriodFor(date))
			for _, p := range engine.People() {
				u := acct.Usage(p.ID, date)
				fmt.Fprintf(w, "%-16s full %d  half %d  used %s  remaining %s\n",
					p.Name, u.UsedFull, u.UsedHalf, u.UsedDays.Value.StringFixed(1), u.Remaining.Value.StringFixed(1))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backupPath, "backup", "", "Backup JSON file")
	cmd.Flags().StringVar(&dateStr, "date", "", "Any date in the year to report (default: the backup's selected date)")
	cmd.MarkFlagRequired("backup")
	return cmd
}

// =============================================================================
// inspect
// =============================================================================

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect BACKUP",
		Short: "Validate a backup file and summarize its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadBackup(args[0])
			if err != nil {
				return err
			}
			st := engine.Snapshot()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "people:     %d\n", len(st.Roster))
			fmt.Fprintf(w, "dates:      %d\n", len(st.ByDate))
			fmt.Fprintf(w, "undo depth: %d\n", len(st.UndoStack))
			fmt.Fprintf(w, "selected:   %s\n", st.SelectedDateKey)
			return nil
		},
	}
}

func loadBackup(path string) (*generic.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	engine := generic.NewEngine(generic.Options{})
	if err := engine.RestoreJSON(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return engine, nil
}
