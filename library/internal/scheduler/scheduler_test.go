package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-assistant/library/internal/scheduler"
)

type counter struct {
	n     int
	err   error
	calls atomic.Int32
}

func (c *counter) CountOverdue(context.Context) (int, error) {
	c.calls.Add(1)
	return c.n, c.err
}

func TestOverdueReporter_Report(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ok := &counter{n: 3}
	r, err := scheduler.NewOverdueReporter("@every 1h", ok, zap.NewExample())
	require.NoError(t, err)
	require.NoError(t, r.Report(ctx))
	require.Equal(t, int32(1), ok.calls.Load())

	failing := &counter{err: errors.New("db down")}
	r, err = scheduler.NewOverdueReporter("@every 1h", failing, zap.NewExample())
	require.NoError(t, err)
	require.Error(t, r.Report(ctx))
}

func TestOverdueReporter_InvalidSchedule(t *testing.T) {
	t.Parallel()
	_, err := scheduler.NewOverdueReporter("every hour", &counter{}, zap.NewExample())
	require.Error(t, err)
}

func TestOverdueReporter_Runs(t *testing.T) {
	t.Parallel()
	c := &counter{n: 1}
	r, err := scheduler.NewOverdueReporter("@every 1s", c, zap.NewExample())
	require.NoError(t, err)

	r.Start()
	require.Eventually(t, func() bool { return c.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
