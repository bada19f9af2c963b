package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"metcm_relay/internal/models"
	"metcm_relay/internal/observability"

	"golang.org/x/time/rate"
)

// Sink receives every bulletin the listener accepts
type Sink interface {
	Put(b models.Bulletin)
}

// Listener receives bulletins on one UDP port and hands them to its sinks
type Listener struct {
	sinks        []Sink
	allowPartial bool
	limiter      *rate.Limiter
	metrics      *observability.Metrics

	mu     sync.Mutex
	conn   *net.UDPConn
	port   string
	closed bool
}

// Option configures a Listener
type Option func(*Listener)

// WithPartial accepts datagrams that carry the header but not every zone
func WithPartial(allow bool) Option {
	return func(l *Listener) { l.allowPartial = allow }
}

// WithRateLimit drops datagrams arriving faster than perSecond (burst allowed).
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(l *Listener) {
		if perSecond <= 0 {
			l.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(l *Listener) { l.metrics = m }
}

func NewListener(sinks []Sink, opts ...Option) *Listener {
	l := &Listener{sinks: sinks}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Bind acquires the UDP port. Port 0 picks a free port; see Addr.
func (l *Listener) Bind(port int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrListenerClosed
	}
	if l.conn != nil {
		return &BindError{Port: port, Err: errors.New("listener already bound")}
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return &BindError{Port: port, Err: err}
	}

	l.conn = conn
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		l.port = strconv.Itoa(addr.Port)
	} else {
		l.port = strconv.Itoa(port)
	}

	slog.Info("UDP listener bound", "port", l.port)
	return nil
}

// Addr returns the bound local address, or nil before Bind
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Listen binds port and serves until ctx is cancelled or Close is called
func (l *Listener) Listen(ctx context.Context, port int) error {
	if err := l.Bind(port); err != nil {
		return err
	}
	return l.Serve(ctx)
}

// Serve blocks reading datagrams. Malformed datagrams are logged and skipped.
// It returns ErrListenerClosed once the socket is closed by ctx or Close.
func (l *Listener) Serve(ctx context.Context) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return errors.New("listener is not bound")
	}

	// Closing the socket is the only way to release a blocked ReadFromUDP
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()

	if l.metrics != nil {
		l.metrics.ListenersRunning.Inc()
		defer l.metrics.ListenersRunning.Dec()
	}

	// One extra byte tells an oversize datagram apart from one that fits exactly
	buf := make([]byte, models.MaxDatagramSize+1)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if l.isClosed() || errors.Is(err, net.ErrClosed) {
				slog.Info("UDP listener stopped", "port", l.port)
				return ErrListenerClosed
			}
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return fmt.Errorf("failed to read datagram on port %s: %w", l.port, err)
		}

		l.handle(buf[:n], from)
	}
}

func (l *Listener) handle(data []byte, from *net.UDPAddr) {
	if l.metrics != nil {
		l.metrics.DatagramsReceived.WithLabelValues(l.port).Inc()
	}

	if len(data) > models.MaxDatagramSize {
		l.drop("oversize")
		slog.Warn("Dropping oversize datagram", "port", l.port, "from", from.String())
		return
	}

	if l.limiter != nil && !l.limiter.Allow() {
		l.drop("rate_limited")
		slog.Debug("Dropping datagram over rate limit", "port", l.port, "from", from.String())
		return
	}

	b, err := models.ParseDatagram(data, l.allowPartial)
	if err != nil {
		l.drop("format")
		slog.Warn("Failed to decode bulletin", "port", l.port, "from", from.String(), "error", err)
		return
	}

	b.ReceivedAt = models.Clock().Now()
	b.Source = from.String()

	for _, s := range l.sinks {
		s.Put(b)
	}

	if l.metrics != nil {
		l.metrics.BulletinsAccepted.Inc()
		if b.Partial() {
			l.metrics.PartialBulletins.Inc()
		}
	}

	slog.Info("Bulletin received",
		"port", l.port,
		"from", b.Source,
		"station_id", b.Header.StationID,
		"date_time", b.Header.DateTime,
		"missing_zones", b.MissingZones,
	)
}

func (l *Listener) drop(reason string) {
	if l.metrics != nil {
		l.metrics.DatagramsDropped.WithLabelValues(reason).Inc()
	}
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close releases the socket, unblocking Serve. Safe to call more than once.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}
