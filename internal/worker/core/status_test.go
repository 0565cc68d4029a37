package core_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/worker/core"
)

func setupTest(t *testing.T) (*core.Monitor, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	monitor := core.NewMonitor(client, zap.NewNop())

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return monitor, cleanup
}

func TestReportStatus(t *testing.T) {
	t.Parallel()
	monitor, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	status := core.Status{
		WorkerID:    "worker-1",
		WorkerType:  "rankings",
		CurrentTask: "Recomputing rankings",
		Progress:    40,
		IsHealthy:   true,
	}

	err := monitor.ReportStatus(ctx, status)
	require.NoError(t, err)

	statuses, err := monitor.GetAllStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)

	assert.Equal(t, "worker-1", statuses[0].WorkerID)
	assert.Equal(t, "rankings", statuses[0].WorkerType)
	assert.Equal(t, "Recomputing rankings", statuses[0].CurrentTask)
	assert.Equal(t, 40, statuses[0].Progress)
	assert.True(t, statuses[0].IsHealthy)
	assert.False(t, statuses[0].LastSeen.IsZero())
}

func TestGetAllStatuses(t *testing.T) {
	t.Parallel()
	monitor, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	require.NoError(t, monitor.ReportStatus(ctx, core.Status{WorkerID: "a", WorkerType: "rankings"}))
	require.NoError(t, monitor.ReportStatus(ctx, core.Status{WorkerID: "b", WorkerType: "maintenance"}))

	statuses, err := monitor.GetAllStatuses(ctx)
	require.NoError(t, err)
	assert.Len(t, statuses, 2)
}
