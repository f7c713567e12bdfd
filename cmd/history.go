package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	dispatchlog "github.com/kilianp07/meshcast/core/dispatch/logging"
	"github.com/kilianp07/meshcast/pkg/export"
)

var (
	historySince   time.Duration
	historyChannel string
	historyStatus  string
	historyFormat  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show dispatched messages from the dispatch log",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.DurationVar(&historySince, "since", 24*time.Hour, "how far back to look (0: everything)")
	f.StringVar(&historyChannel, "channel", "", "only this channel key")
	f.StringVar(&historyStatus, "status", "", "only this status (sent, failed, skipped)")
	f.StringVar(&historyFormat, "format", "table", "output format: table, json or csv")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	switch historyStatus {
	case "", "sent", "failed", "skipped":
	default:
		return fmt.Errorf("unknown status %q", historyStatus)
	}
	switch historyFormat {
	case "table", export.FormatJSON, export.FormatCSV:
	default:
		return fmt.Errorf("unknown format %q", historyFormat)
	}
	svc, err := openService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	q := dispatchlog.LogQuery{ChannelKey: historyChannel, Status: historyStatus}
	if historySince > 0 {
		q.Start = time.Now().Add(-historySince)
	}
	recs, err := svc.History(cmd.Context(), q)
	if err != nil {
		return err
	}
	if historyFormat != "table" {
		return export.Write(cmd.OutOrStdout(), historyFormat, recs)
	}
	p := out(cmd)
	if len(recs) == 0 {
		p.Info("no dispatches recorded")
		return nil
	}
	loc := svc.Builder().Location()
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
			r.ChannelKey,
			strconv.Itoa(r.Slot),
			r.Status,
			r.Label,
			r.Error,
		})
	}
	p.Table([]string{"TIME", "CHANNEL", "SLOT", "STATUS", "LABEL", "ERROR"}, rows)
	return nil
}
