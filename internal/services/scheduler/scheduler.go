// Package scheduler runs the periodic housekeeping jobs: purging dead OTPs,
// flagging overdue assignments and merging policies whose reports are in.
package scheduler

import (
	"context"
	"sync"
	"time"

	"dcip/internal/access"
	apperr "dcip/internal/errors"
	"dcip/internal/models"

	"go.uber.org/zap"
)

var errRunInProgress = apperr.Conflict("RUN_IN_PROGRESS", "a scheduled run is already in progress")

type OTPPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type AssignmentJobs interface {
	MarkOverdue(ctx context.Context) (int64, error)
	MergeReady(ctx context.Context) (int, error)
}

// RunResult records what one pass did. A failing job does not stop the
// others; its error is listed instead.
type RunResult struct {
	Trigger            string    `json:"trigger"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	PurgedOTPs         int64     `json:"purged_otps"`
	OverdueAssignments int64     `json:"overdue_assignments"`
	MergedReports      int       `json:"merged_reports"`
	Errors             []string  `json:"errors,omitempty"`
}

type Status struct {
	Interval string     `json:"interval"`
	Running  bool       `json:"running"`
	LastRun  *RunResult `json:"last_run,omitempty"`
}

type Scheduler struct {
	otps     OTPPurger
	jobs     AssignmentJobs
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	last    *RunResult
}

func New(otps OTPPurger, jobs AssignmentJobs, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		otps:     otps,
		jobs:     jobs,
		interval: interval,
		log:      log.Named("scheduler"),
		now:      time.Now,
	}
}

// Start runs a pass immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("scheduler started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.run(ctx, "timer"); err != nil && err != errRunInProgress {
			s.log.Error("scheduled run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// Trigger runs a pass on behalf of actor.
func (s *Scheduler) Trigger(ctx context.Context, actor *models.Principal) (*RunResult, error) {
	if err := access.Authorize(actor, models.ActionSchedulerRun); err != nil {
		return nil, err
	}
	return s.run(ctx, "manual")
}

func (s *Scheduler) Status(actor *models.Principal) (*Status, error) {
	if err := access.Authorize(actor, models.ActionSchedulerRun); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Status{Interval: s.interval.String(), Running: s.running}
	if s.last != nil {
		last := *s.last
		st.LastRun = &last
	}
	return st, nil
}

func (s *Scheduler) run(ctx context.Context, trigger string) (*RunResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, errRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	res := &RunResult{Trigger: trigger, StartedAt: s.now()}
	defer func() {
		res.FinishedAt = s.now()
		s.mu.Lock()
		s.running = false
		s.last = res
		s.mu.Unlock()
	}()

	var err error
	if res.PurgedOTPs, err = s.otps.PurgeExpired(ctx); err != nil {
		s.fail(res, "purge otps", err)
	}
	if res.OverdueAssignments, err = s.jobs.MarkOverdue(ctx); err != nil {
		s.fail(res, "mark overdue", err)
	}
	if res.MergedReports, err = s.jobs.MergeReady(ctx); err != nil {
		s.fail(res, "merge reports", err)
	}

	s.log.Info("scheduled run finished",
		zap.String("trigger", trigger),
		zap.Int64("purged_otps", res.PurgedOTPs),
		zap.Int64("overdue_assignments", res.OverdueAssignments),
		zap.Int("merged_reports", res.MergedReports),
		zap.Strings("errors", res.Errors))
	return res, nil
}

// fail logs the full error and stores only its public message.
func (s *Scheduler) fail(res *RunResult, job string, err error) {
	s.log.Error("scheduled job failed", zap.String("job", job), zap.Error(err))
	msg := "unexpected error"
	if de, ok := apperr.As(err); ok {
		msg = de.Message
	}
	res.Errors = append(res.Errors, job+": "+msg)
}
