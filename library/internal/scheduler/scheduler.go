package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-assistant/pkg/metrics"
)

type OverdueCounter interface {
	CountOverdue(ctx context.Context) (int, error)
}

// OverdueReporter periodically counts overdue borrow records and exports the number as a gauge.
type OverdueReporter struct {
	cron    *cron.Cron
	svc     OverdueCounter
	log     *zap.Logger
	timeout time.Duration
}

func NewOverdueReporter(schedule string, svc OverdueCounter, log *zap.Logger) (*OverdueReporter, error) {
	log = log.Named("scheduler")
	cl := cronLogger{log: log}
	r := &OverdueReporter{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		svc:     svc,
		log:     log,
		timeout: 30 * time.Second,
	}
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		_ = r.Report(ctx) //nolint:errcheck
	}); err != nil {
		return nil, errors.Wrapf(err, "overdue schedule %q", schedule)
	}
	return r, nil
}

func (r *OverdueReporter) Start() {
	r.cron.Start()
}

// Stop prevents new runs and waits for a running report until ctx is done.
func (r *OverdueReporter) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (r *OverdueReporter) Report(ctx context.Context) error {
	n, err := r.svc.CountOverdue(ctx)
	if err != nil {
		r.log.Error("count overdue", zap.Error(err))
		return err
	}
	metrics.SetOverdueRecords(n)
	r.log.Info("overdue records", zap.Int("count", n))
	return nil
}

type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
