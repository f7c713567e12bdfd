package cmd

import (
	"context"

	"github.com/spf13/cobra"

	apidispatch "github.com/kilianp07/meshcast/api/dispatch"
	"github.com/kilianp07/meshcast/core/scheduler"
	"github.com/kilianp07/meshcast/infra/logger"
	inframetrics "github.com/kilianp07/meshcast/infra/metrics"
)

var (
	scheduleCron        string
	scheduleMetricsAddr string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the calendar job on a cron schedule",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

func init() {
	f := scheduleCmd.Flags()
	f.StringVar(&scheduleCron, "cron", "", "cron spec (default: calendar.cron)")
	f.StringVar(&scheduleMetricsAddr, "metrics-addr", "", "serve /metrics and the dispatch log API on this address, e.g. :9100")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	spec := scheduleCron
	if spec == "" {
		spec = cfg.Calendar.Cron
	}
	log := logger.New("scheduler")
	sch := scheduler.New(svc.Builder().Location(), log)
	if err := sch.Add("calendar", spec, func(ctx context.Context) error {
		rep, err := svc.RunCalendar(ctx, "")
		if err != nil {
			return err
		}
		if len(rep.Messages) > 0 {
			log.Infof("calendar: %d messages, %d reminders recorded", len(rep.Messages), rep.Marked)
		}
		return nil
	}); err != nil {
		return err
	}

	ctx := cmd.Context()
	if scheduleMetricsAddr != "" {
		mux := inframetrics.NewServeMux(nil)
		mux.Handle(apidispatch.LogsPath, apidispatch.NewLogHandler(svc.History, cfg.API.Token))
		go func() {
			if err := inframetrics.StartServer(ctx, scheduleMetricsAddr, mux); err != nil {
				log.Errorf("http server: %v", err)
			}
		}()
	}
	out(cmd).Step("calendar job scheduled (%s)", spec)
	return sch.Run(ctx)
}
