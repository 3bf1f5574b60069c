// Package workers runs the periodic maintenance jobs.
package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnold/wellness-api/internal/metrics"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/arnold/wellness-api/internal/services"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const runTimeout = 5 * time.Minute

type CleanupReport struct {
	ExpiredNotifications int64 `json:"expiredNotifications"`
	FeedPruned           int64 `json:"feedPruned"`
	EntriesPruned        int64 `json:"entriesPruned"`
	GroupsReconciled     int   `json:"groupsReconciled"`
}

// Cleaner removes expired notifications, prunes group feeds and activity
// logs past the retention window and reconciles member counts.
type Cleaner struct {
	store         repository.Store
	notifications *services.NotificationService
	groups        *services.GroupRegistry
	log           *zap.Logger
	metrics       *metrics.Metrics
	clock         services.Clock
}

func NewCleaner(store repository.Store, p *services.Pipeline, log *zap.Logger, m *metrics.Metrics, clock services.Clock) *Cleaner {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = services.SystemClock
	}
	return &Cleaner{
		store:         store,
		notifications: p.Notifications,
		groups:        p.Groups,
		log:           log,
		metrics:       m,
		clock:         clock,
	}
}

// RunOnce runs every job. A failing job does not stop the others; their
// errors are joined.
func (c *Cleaner) RunOnce(ctx context.Context) (CleanupReport, error) {
	var (
		report CleanupReport
		errs   []error
	)

	n, err := c.notifications.CleanupExpiredNotifications(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("expired notifications: %w", err))
	}
	report.ExpiredNotifications = n
	c.metrics.Cleanup("notifications", n)

	groups, err := c.store.Groups().List(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("list groups: %w", err))
	}
	cutoff := c.clock().AddDate(0, 0, -services.RetentionDays)
	for _, g := range groups {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		feed, err := c.store.Feed().PruneBefore(ctx, g.ID, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("prune feed %s: %w", g.ID, err))
		}
		report.FeedPruned += feed

		entries, err := c.store.MemberActivities().PruneBefore(ctx, g.ID, models.DateKey(cutoff))
		if err != nil {
			errs = append(errs, fmt.Errorf("prune member activity %s: %w", g.ID, err))
		}
		report.EntriesPruned += entries
	}
	c.metrics.Cleanup("feed", report.FeedPruned)
	c.metrics.Cleanup("member_activity", report.EntriesPruned)

	reconciled, err := c.groups.ReconcileAll(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("reconcile member counts: %w", err))
	}
	report.GroupsReconciled = reconciled

	c.log.Info("cleanup finished",
		zap.Int64("expiredNotifications", report.ExpiredNotifications),
		zap.Int64("feedPruned", report.FeedPruned),
		zap.Int64("entriesPruned", report.EntriesPruned),
		zap.Int("groupsReconciled", report.GroupsReconciled),
	)
	return report, errors.Join(errs...)
}

// Scheduler runs the cleaner on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	cleaner *Cleaner
	log     *zap.Logger
}

// NewScheduler accepts standard cron specs and descriptors like "@every 1h".
func NewScheduler(cleaner *Cleaner, spec string, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	logger := cronLogger{log.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	s := &Scheduler{cron: c, cleaner: cleaner, log: log}
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("schedule cleanup %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if _, err := s.cleaner.RunOnce(ctx); err != nil {
		s.log.Warn("cleanup run failed", zap.Error(err))
	}
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and waits for a running one to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
