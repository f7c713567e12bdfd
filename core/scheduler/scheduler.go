package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/meshcast/core/logger"
	coremon "github.com/kilianp07/meshcast/core/monitoring"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

type entry struct {
	name  string
	spec  string
	sched cron.Schedule
	job   Job
}

// Scheduler holds jobs until Run starts them.
type Scheduler struct {
	parser  cron.Parser
	loc     *time.Location
	log     logger.Logger
	entries []entry
}

// New returns a Scheduler evaluating specs in loc. Specs use the five
// standard fields or descriptors such as @hourly and @every 30m.
func New(loc *time.Location, log logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Scheduler{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		loc:    loc,
		log:    log,
	}
}

// Add registers job under name. The spec is parsed immediately.
func (s *Scheduler) Add(name, spec string, job Job) error {
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("job %s: bad schedule %q: %w", name, spec, err)
	}
	s.entries = append(s.entries, entry{name: name, spec: spec, sched: sched, job: job})
	return nil
}

// Next returns when the named job fires next after t.
func (s *Scheduler) Next(name string, t time.Time) (time.Time, bool) {
	for _, e := range s.entries {
		if e.name == name {
			return e.sched.Next(t.In(s.loc)), true
		}
	}
	return time.Time{}, false
}

// Run starts every job and blocks until ctx is canceled, then waits for
// running jobs to return.
func (s *Scheduler) Run(ctx context.Context) error {
	l := cronLogger{s.log}
	c := cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(s.loc),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	for _, e := range s.entries {
		c.Schedule(e.sched, cron.FuncJob(func() { s.run(ctx, e) }))
		s.log.Infof("scheduled %s (%s), next run %s", e.name, e.spec, e.sched.Next(time.Now().In(s.loc)).Format(time.RFC3339))
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Infof("scheduler stopped")
	return nil
}

func (s *Scheduler) run(ctx context.Context, e entry) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := e.job(ctx); err != nil {
		s.log.Errorf("job %s failed: %v", e.name, err)
		coremon.CaptureException(err, map[string]string{"module": "scheduler", "job": e.name})
		return
	}
	s.log.Infow("job finished", map[string]any{"job": e.name, "duration_ms": time.Since(start).Milliseconds()})
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct{ log logger.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.log.Debugw("cron: "+msg, fields(kv))
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.log.Errorf("cron: %s: %v %v", msg, err, kv)
}

func fields(kv []interface{}) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return m
}
