package zones

import (
	"fmt"
	"strconv"
)

// MaxAltitude is the upper bound of the highest band, in meters
const MaxAltitude = 30000

// BandCount is the number of altitude bands, one per bulletin zone
const BandCount = 32

// ZoneBand is an inclusive altitude range in meters owned by one zone id
type ZoneBand struct {
	ID        string `json:"zone_id"`
	MinMeters int    `json:"altitude_min_m"`
	MaxMeters int    `json:"altitude_max_m"`
}

// Contains reports whether altitude falls inside the band, bounds included
func (b ZoneBand) Contains(altitude int) bool {
	return altitude >= b.MinMeters && altitude <= b.MaxMeters
}

// Number returns the band id as an integer
func (b ZoneBand) Number() int {
	n, _ := strconv.Atoi(b.ID)
	return n
}

// defaultBands is contiguous and non-overlapping: zone 00 is the surface,
// every other band starts one meter above the previous band's top
var defaultBands = [BandCount]ZoneBand{
	{"00", 0, 0}, {"01", 1, 199}, {"02", 200, 499}, {"03", 500, 999},
	{"04", 1000, 1499}, {"05", 1500, 1999}, {"06", 2000, 2499}, {"07", 2500, 2999},
	{"08", 3000, 3499}, {"09", 3500, 3999}, {"10", 4000, 4499}, {"11", 4500, 4999},
	{"12", 5000, 5999}, {"13", 6000, 6999}, {"14", 7000, 7999}, {"15", 8000, 8999},
	{"16", 9000, 9999}, {"17", 10000, 10999}, {"18", 11000, 11999}, {"19", 12000, 12999},
	{"20", 13000, 13999}, {"21", 14000, 14999}, {"22", 15000, 15999}, {"23", 16000, 16999},
	{"24", 17000, 17999}, {"25", 18000, 18999}, {"26", 19000, 19999}, {"27", 20000, 21999},
	{"28", 22000, 23999}, {"29", 24000, 25999}, {"30", 26000, 27999}, {"31", 28000, 30000},
}

// legacyBands is the table shipped with the first receivers. Zones 00 and 01 overlap,
// shared bounds overlap, and 5500-6000 is not covered.
var legacyBands = [BandCount]ZoneBand{
	{"00", 0, 200}, {"01", 0, 200}, {"02", 200, 500}, {"03", 500, 1000},
	{"04", 1000, 1500}, {"05", 1500, 2000}, {"06", 2000, 2500}, {"07", 2500, 3000},
	{"08", 3000, 3500}, {"09", 3500, 4000}, {"10", 4000, 4500}, {"11", 4500, 5000},
	{"12", 5000, 5500}, {"13", 6000, 7000}, {"14", 7000, 8000}, {"15", 8000, 9000},
	{"16", 9000, 10000}, {"17", 10000, 11000}, {"18", 11000, 12000}, {"19", 12000, 13000},
	{"20", 13000, 14000}, {"21", 14000, 15000}, {"22", 15000, 16000}, {"23", 16000, 17000},
	{"24", 17000, 18000}, {"25", 18000, 19000}, {"26", 19000, 20000}, {"27", 20000, 22000},
	{"28", 22000, 24000}, {"29", 24000, 26000}, {"30", 26000, 28000}, {"31", 28000, 30000},
}

// DefaultBands returns a copy of the canonical band table
func DefaultBands() []ZoneBand {
	out := make([]ZoneBand, BandCount)
	copy(out, defaultBands[:])
	return out
}

// LegacyBands returns a copy of the older overlapping band table
func LegacyBands() []ZoneBand {
	out := make([]ZoneBand, BandCount)
	copy(out, legacyBands[:])
	return out
}

// Index maps altitudes to zone bands and bands to bulletin zone slots
type Index struct {
	bands      [BandCount]ZoneBand
	slotOffset int
}

// Default returns the canonical index with no slot offset
func Default() *Index {
	return &Index{bands: defaultBands}
}

// NewIndex builds an index over bands, listed in ascending zone id order.
// slotOffset shifts the bulletin slot a band reads from; the legacy receivers used 1.
func NewIndex(bands []ZoneBand, slotOffset int) (*Index, error) {
	if len(bands) != BandCount {
		return nil, fmt.Errorf("band table has %d rows, want %d", len(bands), BandCount)
	}

	idx := &Index{slotOffset: slotOffset}
	for i, b := range bands {
		if b.MinMeters < 0 || b.MinMeters > b.MaxMeters {
			return nil, fmt.Errorf("band %s has invalid range [%d, %d]", b.ID, b.MinMeters, b.MaxMeters)
		}
		if b.MaxMeters > MaxAltitude {
			return nil, fmt.Errorf("band %s exceeds maximum altitude %d", b.ID, MaxAltitude)
		}
		if b.Number() != i || len(b.ID) != 2 {
			return nil, fmt.Errorf("band %q at row %d is out of order", b.ID, i)
		}
		idx.bands[i] = b
	}

	return idx, nil
}

// Lookup returns the first band, in ascending zone id order, whose range contains altitude.
// Negative altitudes and altitudes above MaxAltitude are not found.
func (x *Index) Lookup(altitude int) (ZoneBand, bool) {
	if altitude < 0 || altitude > MaxAltitude {
		return ZoneBand{}, false
	}
	for _, b := range x.bands {
		if b.Contains(altitude) {
			return b, true
		}
	}
	return ZoneBand{}, false
}

// SlotFor returns the bulletin zone slot holding the payload for band
func (x *Index) SlotFor(band ZoneBand) (int, bool) {
	slot := band.Number() + x.slotOffset
	if slot < 0 || slot >= BandCount {
		return 0, false
	}
	return slot, true
}

// SlotOffset returns the configured band to slot shift
func (x *Index) SlotOffset() int {
	return x.slotOffset
}

// Bands returns a copy of the table
func (x *Index) Bands() []ZoneBand {
	out := make([]ZoneBand, BandCount)
	copy(out, x.bands[:])
	return out
}
