package tasks

import (
	"context"
	"log/slog"
	"time"

	"metcm_relay/internal/models"
	"metcm_relay/internal/observability"
)

// LatestSource exposes the bulletin currently served to queries
type LatestSource interface {
	GetLatest() (models.Bulletin, bool)
}

// StalenessTask reports how old the served bulletin is and warns once it exceeds maxAge
type StalenessTask struct {
	source   LatestSource
	metrics  *observability.Metrics
	interval time.Duration
	maxAge   time.Duration
}

func NewStalenessTask(source LatestSource, metrics *observability.Metrics, interval, maxAge time.Duration) *StalenessTask {
	return &StalenessTask{
		source:   source,
		metrics:  metrics,
		interval: interval,
		maxAge:   maxAge,
	}
}

func (s *StalenessTask) Name() string            { return "bulletin_staleness" }
func (s *StalenessTask) Interval() time.Duration { return s.interval }

func (s *StalenessTask) Run(ctx context.Context) error {
	b, ok := s.source.GetLatest()
	if !ok {
		s.setAge(-1)
		slog.Debug("No bulletin received yet")
		return nil
	}

	age := models.Clock().Since(b.ReceivedAt)
	s.setAge(age.Seconds())

	if s.maxAge > 0 && age > s.maxAge {
		slog.Warn("Latest bulletin is stale",
			"station_id", b.Header.StationID,
			"received_at", b.ReceivedAt.Format(time.RFC3339),
			"age", age.Round(time.Second).String(),
			"max_age", s.maxAge.String(),
		)
	}
	return nil
}

func (s *StalenessTask) setAge(seconds float64) {
	if s.metrics != nil {
		s.metrics.LatestBulletinAge.Set(seconds)
	}
}
