package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	calendarEvents      string
	calendarPreview     bool
	calendarPreviewDays int
	calendarReset       bool
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Broadcast reminders for upcoming calendar events",
	Args:  cobra.NoArgs,
	RunE:  runCalendar,
}

func init() {
	f := calendarCmd.Flags()
	f.StringVar(&calendarEvents, "events", "", "events CSV URL or path (default: calendar.events_url)")
	f.BoolVar(&calendarPreview, "preview", false, "list upcoming reminders without sending")
	f.IntVar(&calendarPreviewDays, "preview-days", 7, "days ahead shown by --preview")
	f.BoolVar(&calendarReset, "reset-state", false, "forget every sent reminder before running")
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(cmd *cobra.Command, _ []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	p := out(cmd)
	ctx := cmd.Context()
	if calendarReset {
		if err := svc.ResetLedger(ctx); err != nil {
			return err
		}
		p.Success("notification state cleared")
	}
	if calendarPreview {
		rems, err := svc.Preview(ctx, calendarEvents, calendarPreviewDays)
		if err != nil {
			return err
		}
		if len(rems) == 0 {
			p.Info("no reminders in the next %d days", calendarPreviewDays)
			return nil
		}
		loc := svc.Builder().Location()
		rows := make([][]string, 0, len(rems))
		for _, r := range rems {
			state := "pending"
			if r.Sent {
				state = "sent"
			}
			rows = append(rows, []string{
				r.Event.At.In(loc).Format("Mon Jan 02 3:04 PM"),
				r.Event.Name,
				fmt.Sprintf("%dh", r.WindowHours),
				r.At.In(loc).Format("Mon Jan 02 3:04 PM"),
				state,
			})
		}
		p.Table([]string{"EVENT AT", "NAME", "WINDOW", "REMIND AT", "STATE"}, rows)
		return nil
	}

	rep, err := svc.RunCalendar(ctx, calendarEvents)
	if err != nil {
		return err
	}
	if len(rep.Messages) == 0 {
		p.Info("no reminders due")
		return nil
	}
	printMessages(p, rep.Messages)
	printResult(p, rep.Result, svc.DryRun())
	if rep.Marked > 0 {
		p.Success("%d reminders recorded", rep.Marked)
	}
	return nil
}
