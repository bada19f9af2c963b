package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"metcm_relay/internal/models"
	"metcm_relay/internal/observability"
)

// Sender emits encoded bulletins as single UDP datagrams.
// Nothing is acknowledged or retried; a write that leaves the socket is complete.
type Sender struct {
	metrics     *observability.Metrics
	dialTimeout time.Duration
}

func NewSender(metrics *observability.Metrics) *Sender {
	return &Sender{
		metrics:     metrics,
		dialTimeout: 5 * time.Second,
	}
}

// Send encodes b and writes it to dest (host:port)
func (s *Sender) Send(ctx context.Context, dest string, b models.Bulletin) error {
	payload := models.EncodeBulletin(b)
	if len(payload) > models.MaxDatagramSize {
		return s.fail(&TransportError{
			Op:   "encode",
			Addr: dest,
			Err:  fmt.Errorf("bulletin is %d bytes, limit is %d", len(payload), models.MaxDatagramSize),
		})
	}

	dialer := net.Dialer{
		Timeout: s.dialTimeout,
	}

	// Dialing udp only resolves the address and binds a local socket
	conn, err := dialer.DialContext(ctx, "udp", dest)
	if err != nil {
		return s.fail(&TransportError{Op: "dial", Addr: dest, Err: err})
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(payload)); err != nil {
		return s.fail(&TransportError{Op: "write", Addr: dest, Err: err})
	}

	if s.metrics != nil {
		s.metrics.BulletinsSent.Inc()
	}
	slog.Info("Bulletin sent",
		"dest", dest,
		"station_id", b.Header.StationID,
		"bytes", len(payload),
	)
	return nil
}

func (s *Sender) fail(err error) error {
	if s.metrics != nil {
		s.metrics.SendErrors.Inc()
	}
	return err
}
