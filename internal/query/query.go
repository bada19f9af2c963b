package query

import (
	"errors"
	"fmt"
	"time"

	"metcm_relay/internal/models"
	"metcm_relay/internal/observability"
	"metcm_relay/internal/zones"
)

var (
	// ErrNoBulletin means nothing has been received yet
	ErrNoBulletin = errors.New("no bulletin received yet")
	// ErrNotFound means the altitude is outside every band, or its band maps outside the bulletin
	ErrNotFound = errors.New("altitude outside supported range")
	// ErrZoneEmpty means the bulletin carries no payload for the zone
	ErrZoneEmpty = errors.New("zone has no data in the latest bulletin")
)

// LatestSource exposes the bulletin currently served to queries
type LatestSource interface {
	GetLatest() (models.Bulletin, bool)
}

// Result is the answer to one altitude query
type Result struct {
	Altitude   int                `json:"altitude_m"`
	Band       zones.ZoneBand     `json:"band"`
	Slot       int                `json:"slot"`
	Payload    string             `json:"payload"`
	Weather    models.ZoneWeather `json:"weather"`
	AboveDatum int                `json:"above_datum_m"` // zone number * 100
	Header     models.Header      `json:"header"`
	ReceivedAt time.Time          `json:"received_at"`
}

// Service answers altitude queries against the latest bulletin
type Service struct {
	index   *zones.Index
	source  LatestSource
	metrics *observability.Metrics
}

func NewService(index *zones.Index, source LatestSource, metrics *observability.Metrics) *Service {
	return &Service{index: index, source: source, metrics: metrics}
}

// Query resolves the zone covering altitude and decodes its payload from the latest bulletin.
// A decode failure is returned as *models.DecodeError and leaves the stored bulletin untouched.
func (s *Service) Query(altitude int) (Result, error) {
	res, err := s.query(altitude)
	s.observe(err)
	return res, err
}

func (s *Service) query(altitude int) (Result, error) {
	band, ok := s.index.Lookup(altitude)
	if !ok {
		return Result{}, fmt.Errorf("altitude %d m: %w", altitude, ErrNotFound)
	}

	slot, ok := s.index.SlotFor(band)
	if !ok {
		return Result{}, fmt.Errorf("zone %s with slot offset %d: %w", band.ID, s.index.SlotOffset(), ErrNotFound)
	}

	b, ok := s.source.GetLatest()
	if !ok {
		return Result{}, ErrNoBulletin
	}

	res := Result{
		Altitude:   altitude,
		Band:       band,
		Slot:       slot,
		Payload:    b.Zone(slot),
		Header:     b.Header,
		ReceivedAt: b.ReceivedAt,
	}

	if res.Payload == "" {
		return res, fmt.Errorf("zone %s: %w", band.ID, ErrZoneEmpty)
	}

	w, err := models.DecodeZone(res.Payload)
	if err != nil {
		return res, fmt.Errorf("zone %s: %w", band.ID, err)
	}
	res.Weather = w
	res.AboveDatum = w.AltitudeAboveDatum()

	return res, nil
}

func (s *Service) observe(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Queries.WithLabelValues(Outcome(err)).Inc()
}

// Outcome classifies a query error for metrics and logs
func Outcome(err error) string {
	var decErr *models.DecodeError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoBulletin):
		return "no_bulletin"
	case errors.Is(err, ErrZoneEmpty):
		return "empty_zone"
	case errors.As(err, &decErr):
		return "decode_error"
	default:
		return "error"
	}
}
