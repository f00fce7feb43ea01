package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner is the job the scheduler triggers
type Runner interface {
	RunCuration() error
}

// Service handles scheduling of curation runs
type Service struct {
	schedule string
	runner   Runner
	cron     *cron.Cron
}

// NewService creates a new scheduler service. schedule is a six-field cron expression with seconds.
func NewService(schedule string, runner Runner) *Service {
	return &Service{
		schedule: schedule,
		runner:   runner,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start begins the scheduled curation
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		logrus.Info("Starting scheduled curation run")
		if err := s.runner.RunCuration(); err != nil {
			logrus.Errorf("Scheduled curation run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q", s.schedule)
	return nil
}

// Next returns when the next run is due; zero before Start
func (s *Service) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
