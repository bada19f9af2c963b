package tasks

import (
	"context"
	"testing"
	"time"

	"metcm_relay/internal/models"
	"metcm_relay/internal/observability"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	b  models.Bulletin
	ok bool
}

func (m *mockSource) GetLatest() (models.Bulletin, bool) { return m.b, m.ok }

func TestStalenessTask_NoBulletin(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	task := NewStalenessTask(&mockSource{}, metrics, time.Minute, time.Hour)

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, float64(-1), testutil.ToFloat64(metrics.LatestBulletinAge))
	assert.Equal(t, "bulletin_staleness", task.Name())
	assert.Equal(t, time.Minute, task.Interval())
}

func TestStalenessTask_ReportsAge(t *testing.T) {
	now := time.Date(2024, 10, 19, 18, 0, 0, 0, time.UTC)
	models.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { models.SetClock(nil) })

	metrics := observability.NewMetricsForTesting()
	source := &mockSource{
		b:  models.Bulletin{ReceivedAt: now.Add(-90 * time.Second)},
		ok: true,
	}
	task := NewStalenessTask(source, metrics, time.Minute, time.Minute)

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, float64(90), testutil.ToFloat64(metrics.LatestBulletinAge))
}
