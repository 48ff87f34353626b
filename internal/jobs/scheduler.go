package jobs

import (
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
)

// Scheduler registers periodic tasks with asynq's cron-style scheduler.
type Scheduler interface {
	RegisterTasks(refreshCron string) error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	log            *slog.Logger
}

// NewScheduler builds a Scheduler on the given Redis connection.
func NewScheduler(redisOpt asynq.RedisConnOpt, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		log:            log,
	}
}

// alertCrons staggers the daily digests so the fan-outs do not pile up on
// one tick.
var alertCrons = map[domain.NotificationKind]string{
	domain.NotifyPriceDrops: "0 8 * * *",
	domain.NotifyNewDeals:   "0 9 * * *",
	domain.NotifyCoupons:    "0 10 * * *",
}

// RegisterTasks wires the recurring catalog refresh and a daily deal alert
// fan-out per notification kind. refreshCron uses standard five-field cron
// syntax.
func (s *scheduler) RegisterTasks(refreshCron string) error {
	if refreshCron == "" {
		refreshCron = "*/15 * * * *"
	}

	refreshTask, err := NewCatalogRefreshTask(false)
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(refreshCron, refreshTask); err != nil {
		return err
	}

	for _, kind := range domain.NotificationKinds {
		alertsTask, err := NewDealAlertsTask(string(kind))
		if err != nil {
			return err
		}

		if _, err := s.asynqScheduler.Register(alertCrons[kind], alertsTask); err != nil {
			return err
		}
	}

	s.log.Info("scheduler: registered periodic tasks",
		slog.String("refresh_cron", refreshCron),
		slog.Int("alert_kinds", len(domain.NotificationKinds)))
	return nil
}

func (s *scheduler) Run() {
	s.log.Info("scheduler: starting")

	go func() {
		if err := s.asynqScheduler.Run(); err != nil {
			s.log.Error("scheduler: run failed", slog.Any("error", err))
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.Info("scheduler: shutting down")
	s.asynqScheduler.Shutdown()
}
