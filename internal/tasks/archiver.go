package tasks

import (
	"context"
	"log/slog"
	"time"

	"metcm_relay/internal/database"
	"metcm_relay/internal/models"
	"metcm_relay/internal/observability"
)

// BulletinArchiver appends accepted bulletins to the archive in batches.
// Put never blocks the receive path; when the queue is full the bulletin is skipped.
type BulletinArchiver struct {
	repo          database.BulletinRepository
	queue         chan models.Bulletin
	metrics       *observability.Metrics
	batchSize     int           // maximum number of bulletins per transaction
	flushInterval time.Duration // time to flush batch even if not full
}

// Default batch size is 10 bulletins and flush interval is 1 second
func NewBulletinArchiver(repo database.BulletinRepository, metrics *observability.Metrics) *BulletinArchiver {
	return NewBulletinArchiverWithConfig(repo, metrics, 10, 1*time.Second)
}

// NewBulletinArchiverWithConfig creates an archiver with custom batch settings
func NewBulletinArchiverWithConfig(repo database.BulletinRepository, metrics *observability.Metrics, batchSize int, flushInterval time.Duration) *BulletinArchiver {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BulletinArchiver{
		repo:          repo,
		queue:         make(chan models.Bulletin, batchSize*10),
		metrics:       metrics,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Put enqueues b for archiving
func (a *BulletinArchiver) Put(b models.Bulletin) {
	select {
	case a.queue <- b:
	default:
		if a.metrics != nil {
			a.metrics.ArchiveDropped.Inc()
		}
		slog.Warn("Archive queue full, bulletin not archived", "station_id", b.Header.StationID)
	}
}

// Start drains the queue into the repository until ctx is cancelled.
// Batches are flushed when full, on every flush interval tick, and once more on shutdown.
func (a *BulletinArchiver) Start(ctx context.Context) error {
	batch := make([]models.Bulletin, 0, a.batchSize)

	flushBatch := func() {
		if len(batch) == 0 {
			return
		}
		if err := a.repo.InsertBatch(batch); err != nil {
			if a.metrics != nil {
				a.metrics.ArchiveErrors.Inc()
			}
			slog.Error("Error archiving bulletins", "batch_size", len(batch), "error", err)
		} else {
			if a.metrics != nil {
				a.metrics.ArchiveBatchSize.Observe(float64(len(batch)))
			}
			slog.Info("Archived bulletins", "batch_size", len(batch))
		}
		batch = batch[:0] // Reset slice but keep capacity
	}

	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Drain whatever is already queued before exiting
			for {
				select {
				case b := <-a.queue:
					batch = append(batch, b)
					if len(batch) >= a.batchSize {
						flushBatch()
					}
				default:
					flushBatch()
					return ctx.Err()
				}
			}

		case <-ticker.C:
			flushBatch()

		case b := <-a.queue:
			batch = append(batch, b)

			slog.Debug("Added bulletin to archive batch",
				"station_id", b.Header.StationID,
				"received_at", b.ReceivedAt.Format(time.RFC3339Nano),
				"current_batch_size", len(batch),
				"max_batch_size", a.batchSize,
			)

			if len(batch) >= a.batchSize {
				flushBatch()
			}
		}
	}
}
